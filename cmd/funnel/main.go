// Package main starts the Amoura funnel service.
//
// This process owns the onboarding-to-subscription flow for browsers: it
// tracks which screen each client sees, reconciles payment returns, and
// gates everything past the paywall on an active subscription.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	funnelcmd "github.com/amoura-app/amoura/internal/cmd/funnel"
)

func main() {
	_ = godotenv.Load()

	cfg, err := funnelcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[FUNNEL] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := funnelcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
