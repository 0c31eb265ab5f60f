// Package funnel wires and runs the funnel service process.
package funnel

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/amoura-app/amoura/internal/backend"
	"github.com/amoura-app/amoura/internal/identity"
	"github.com/amoura-app/amoura/internal/platform/config"
	"github.com/amoura-app/amoura/internal/platform/otel"
	"github.com/amoura-app/amoura/internal/reconcile"
	"github.com/amoura-app/amoura/internal/service"
	"github.com/amoura-app/amoura/internal/session"
	"github.com/amoura-app/amoura/internal/storage/sqlite"
)

const serviceName = "amoura-funnel"

// Config holds the funnel command configuration. Environment values seed the
// defaults; flags override.
type Config struct {
	HTTPAddr       string `env:"AMOURA_HTTP_ADDR" envDefault:"localhost:8080"`
	BackendBaseURL string `env:"AMOURA_BACKEND_BASE_URL" envDefault:"http://localhost:8000"`
	PublicBaseURL  string `env:"AMOURA_PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	StoragePath    string `env:"AMOURA_DB_PATH" envDefault:"amoura.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.BackendBaseURL, "backend-base-url", cfg.BackendBaseURL, "account backend base URL")
	fs.StringVar(&cfg.PublicBaseURL, "public-base-url", cfg.PublicBaseURL, "public URL the payment processor redirects back to")
	fs.StringVar(&cfg.StoragePath, "db-path", cfg.StoragePath, "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run starts the funnel server and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdownTracing, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close storage: %v", err)
		}
	}()

	api := backend.NewClient(cfg.BackendBaseURL)
	sessions := session.NewManager(store, store)
	resolver := identity.NewResolver(api)
	runner := reconcile.NewRunner(store, store, api)

	svc := service.NewService(sessions, store, resolver, api, runner, service.NewClock(), cfg.PublicBaseURL)
	server, err := service.NewServer(cfg.HTTPAddr, service.NewHandler(svc))
	if err != nil {
		return fmt.Errorf("init funnel server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve funnel: %w", err)
	}
	return nil
}
