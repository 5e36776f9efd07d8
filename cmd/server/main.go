package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/fittracker/internal/api"
	"example.com/fittracker/internal/config"
	"example.com/fittracker/internal/domain"
	"example.com/fittracker/internal/ingest"
	persistence "example.com/fittracker/internal/persistence/postgres"
	httptransport "example.com/fittracker/internal/transport/http"
	"example.com/fittracker/internal/upstream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	service := domain.NewService(repo)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	tokens := upstream.NewCachedTokenSource(
		upstream.NewTokenClient(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, httpClient),
		cfg.TokenTTL,
	)
	enricher := upstream.NewBiometricsClient(cfg.BaseURL, tokens, httpClient)

	ingestor := ingest.New(ingest.Config{
		StreamURL:      ingest.StreamEndpoint(cfg.WebSocketBaseURL),
		ReconnectDelay: cfg.ReconnectDelay,
		EnrichTimeout:  cfg.HTTPTimeout,
	}, tokens, enricher, repo)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("stream ingestor started (feed=%s)", ingest.StreamEndpoint(cfg.WebSocketBaseURL))
		if err := ingestor.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("stream ingestor stopped with error: %v", err)
		}
	}()

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, logger(mux))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("fit-tracker listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	log.Println("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	wg.Wait()
}
