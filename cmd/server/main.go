package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"mealledger/internal/api"
	"mealledger/internal/storage/sqlite"
	"mealledger/site"
)

const defaultPort = 8080

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	dbPath := getEnv("DB_PATH", "./data/ledger.db")
	addr := getEnv("ADDR", fmt.Sprintf(":%d", defaultPort))

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	mux := http.NewServeMux()

	// Ledger API
	api.New(store).Register(mux)

	// Metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Static site (index + the debt-row template fragment)
	static := site.Handler()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		static.ServeHTTP(w, r)
	})

	// Add logging and CORS middleware
	handler := api.LoggingMiddleware(api.CORSMiddleware(mux))

	// Wrap with h2c so browsers and HTTP/2 clients share the same port without TLS
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	slog.Info("Ledger server starting", "address", addr)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
