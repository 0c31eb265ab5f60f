package otel

import (
	"context"
	"testing"
)

func TestSetupDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("AMOURA_OTEL_ENDPOINT", "")
	shutdown, err := Setup(context.Background(), "funnel")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected no-op shutdown function")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
}

func TestSetupDisabledExplicitly(t *testing.T) {
	t.Setenv("AMOURA_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("AMOURA_OTEL_ENABLED", "false")
	shutdown, err := Setup(context.Background(), "funnel")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
}
