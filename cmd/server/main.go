package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acheong08/depvis/internal/config"
	"github.com/acheong08/depvis/internal/registry"
	"github.com/acheong08/depvis/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cache, err := registry.OpenCache(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to open response cache: %v", err)
	}
	defer cache.Close()

	client := registry.NewClient(
		registry.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		registry.WithCache(cache, cfg.CacheTTL),
	)

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// WebSocket endpoint
	mux.Handle("/ws", server.NewHandler(client, cfg))

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
