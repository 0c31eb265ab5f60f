// Package migrations embeds the SQL schema for the funnel SQLite store.
package migrations

import "embed"

// FS holds the embedded migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
