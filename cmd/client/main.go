// Command client is a terminal watcher for the shared meal ledger: it syncs
// from a server and prints the rendered debt rows on every refresh.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"mealledger/internal/identity"
	"mealledger/internal/ledger"
	"mealledger/internal/sync"
	"mealledger/internal/transport"
	"mealledger/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func identityPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "mealledger", "identity.json")
}

func main() {
	logging.Setup()

	serverURL := getEnv("SERVER_URL", "http://localhost:8080")
	interval := 10 * time.Second
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid POLL_INTERVAL", "value", v, "error", err)
			os.Exit(1)
		}
		interval = d
	}

	client, err := transport.NewClient(serverURL)
	if err != nil {
		slog.Error("invalid server URL", "url", serverURL, "error", err)
		os.Exit(1)
	}

	cache := &ledger.Cache{}
	controller := sync.New(client, identity.NewFileStore(identityPath()), cache,
		sync.WithInterval(interval),
		sync.WithRenderFunc(func(rows []string) {
			snap := cache.Load()
			fmt.Printf("--- ledger as of %s (you are %s) ---\n",
				time.Now().Format(time.Kitchen), snap.Identity.UPN)
			for _, row := range rows {
				fmt.Println(row)
			}
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := controller.Start(ctx); err != nil {
		slog.Error("failed to start sync", "error", err)
		os.Exit(1)
	}
	defer controller.Stop()

	slog.Info("watching ledger", "server", serverURL, "interval", interval)
	<-ctx.Done()
}
