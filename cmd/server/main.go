// Command server runs the EstateHub listings API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estatehub/internal/bootstrap"
	"estatehub/internal/config"
	"estatehub/internal/middleware"
	"estatehub/internal/observability"
	"estatehub/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "estatehub-api",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: 1,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	rt, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	deps := server.Deps{
		DB:       rt.DB,
		Redis:    rt.Redis,
		Listings: rt.ListingRepository(),
		Changes:  rt.Changes,
	}
	if rt.Inquiries != nil {
		deps.Inquiries = rt.Inquiries
	}

	srv, err := server.NewServer(cfg, deps)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	middleware.Logger.Info("Listing change feed selected", "feed", rt.Feed)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			middleware.Logger.Error("Server shutdown error", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			middleware.Logger.Error("Tracing shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		middleware.Logger.Error("Server stopped", "error", err)
	}
}
