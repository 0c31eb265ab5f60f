// Package sqlite implements funnel persistence over a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/amoura-app/amoura/internal/platform/storage/sqlitemigrate"
	"github.com/amoura-app/amoura/internal/storage"
	"github.com/amoura-app/amoura/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements funnel persistence over SQLite.
//
// A single SQLite file backs the credential, guest draft, and payment return
// records so every recovery path shares the same visibility boundaries after
// a full navigation away and back.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the funnel SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutCredential stores or replaces the long-lived credential for a client.
func (s *Store) PutCredential(ctx context.Context, clientID string, credential string) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return fmt.Errorf("client id is required")
	}
	if strings.TrimSpace(credential) == "" {
		return fmt.Errorf("credential is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO credentials (client_id, token, updated_at) VALUES (?, ?, ?)
ON CONFLICT(client_id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
`, clientID, credential, toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

// GetCredential returns the stored credential or ErrNotFound.
func (s *Store) GetCredential(ctx context.Context, clientID string) (string, error) {
	var token string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT token FROM credentials WHERE client_id = ?", clientID,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential: %w", err)
	}
	return token, nil
}

// DeleteCredential removes the stored credential. Missing rows are not an error.
func (s *Store) DeleteCredential(ctx context.Context, clientID string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM credentials WHERE client_id = ?", clientID,
	); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// PutGuestDraft stores or replaces the in-flight guest draft for a client.
func (s *Store) PutGuestDraft(ctx context.Context, clientID string, draft storage.GuestDraft) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return fmt.Errorf("client id is required")
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode guest draft: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO guest_drafts (client_id, draft_json, created_at) VALUES (?, ?, ?)
ON CONFLICT(client_id) DO UPDATE SET draft_json = excluded.draft_json, created_at = excluded.created_at
`, clientID, string(payload), toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("put guest draft: %w", err)
	}
	return nil
}

// TakeGuestDraft returns and deletes the stored draft in one transaction.
// A draft that fails to decode is cleared and reported absent.
func (s *Store) TakeGuestDraft(ctx context.Context, clientID string) (storage.GuestDraft, bool, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.GuestDraft{}, false, fmt.Errorf("begin take guest draft: %w", err)
	}

	var payload string
	err = tx.QueryRowContext(ctx,
		"SELECT draft_json FROM guest_drafts WHERE client_id = ?", clientID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return storage.GuestDraft{}, false, nil
	}
	if err != nil {
		_ = tx.Rollback()
		return storage.GuestDraft{}, false, fmt.Errorf("read guest draft: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM guest_drafts WHERE client_id = ?", clientID,
	); err != nil {
		_ = tx.Rollback()
		return storage.GuestDraft{}, false, fmt.Errorf("delete guest draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.GuestDraft{}, false, fmt.Errorf("commit take guest draft: %w", err)
	}

	var draft storage.GuestDraft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		// Corrupted or incompatible prior-version draft. The row is already
		// gone; treat it as absent.
		log.Printf("storage: discarding undecodable guest draft for client %s: %v", clientID, err)
		return storage.GuestDraft{}, false, nil
	}
	return draft, true, nil
}

// DeleteGuestDraft removes the stored draft. Missing rows are not an error.
func (s *Store) DeleteGuestDraft(ctx context.Context, clientID string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM guest_drafts WHERE client_id = ?", clientID,
	); err != nil {
		return fmt.Errorf("delete guest draft: %w", err)
	}
	return nil
}

// RecordPaymentReturn stores a completion marker awaiting bootstrap follow-up.
// A marker already pending for the client is replaced; the processor only
// redirects once per checkout.
func (s *Store) RecordPaymentReturn(ctx context.Context, ret storage.PaymentReturn) error {
	if strings.TrimSpace(ret.ClientID) == "" {
		return fmt.Errorf("client id is required")
	}
	if strings.TrimSpace(ret.CompletionID) == "" {
		return fmt.Errorf("completion id is required")
	}
	createdAt := ret.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO payment_returns (client_id, completion_id, created_at) VALUES (?, ?, ?)
ON CONFLICT(client_id) DO UPDATE SET completion_id = excluded.completion_id, created_at = excluded.created_at
`, ret.ClientID, ret.CompletionID, toMillis(createdAt))
	if err != nil {
		return fmt.Errorf("record payment return: %w", err)
	}
	return nil
}

// ConsumePaymentReturn returns and deletes the pending marker in one transaction.
func (s *Store) ConsumePaymentReturn(ctx context.Context, clientID string) (storage.PaymentReturn, bool, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.PaymentReturn{}, false, fmt.Errorf("begin consume payment return: %w", err)
	}

	var ret storage.PaymentReturn
	var createdAt int64
	err = tx.QueryRowContext(ctx,
		"SELECT client_id, completion_id, created_at FROM payment_returns WHERE client_id = ?", clientID,
	).Scan(&ret.ClientID, &ret.CompletionID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return storage.PaymentReturn{}, false, nil
	}
	if err != nil {
		_ = tx.Rollback()
		return storage.PaymentReturn{}, false, fmt.Errorf("read payment return: %w", err)
	}
	ret.CreatedAt = fromMillis(createdAt)

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM payment_returns WHERE client_id = ?", clientID,
	); err != nil {
		_ = tx.Rollback()
		return storage.PaymentReturn{}, false, fmt.Errorf("delete payment return: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.PaymentReturn{}, false, fmt.Errorf("commit consume payment return: %w", err)
	}
	return ret, true, nil
}

var _ storage.CredentialStore = (*Store)(nil)
var _ storage.GuestDraftStore = (*Store)(nil)
var _ storage.PaymentReturnStore = (*Store)(nil)
