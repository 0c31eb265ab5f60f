package funnel

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("funnel", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8080")
	}
	if cfg.StoragePath != "amoura.db" {
		t.Fatalf("StoragePath = %q, want %q", cfg.StoragePath, "amoura.db")
	}
}

func TestParseConfigEnvSeedsDefaults(t *testing.T) {
	t.Setenv("AMOURA_HTTP_ADDR", "0.0.0.0:9000")

	fs := flag.NewFlagSet("funnel", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:9000" {
		t.Fatalf("HTTPAddr = %q, want env value", cfg.HTTPAddr)
	}
}

func TestParseConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("AMOURA_HTTP_ADDR", "0.0.0.0:9000")

	fs := flag.NewFlagSet("funnel", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "localhost:7000"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:7000" {
		t.Fatalf("HTTPAddr = %q, want flag value", cfg.HTTPAddr)
	}
}
