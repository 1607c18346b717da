// Command squadledgerd runs the ledger HTTP API over the in-memory
// store. SQL and MongoDB stores are wired through the Forge extension;
// this binary exists for local development and demos.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	squadledger "github.com/vitaly-rudenko/squadledger"
	"github.com/vitaly-rudenko/squadledger/events/kafka"
	"github.com/vitaly-rudenko/squadledger/httpapi"
	"github.com/vitaly-rudenko/squadledger/store/memory"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opts := []squadledger.Option{
		squadledger.WithLogger(logger),
	}
	if currency := os.Getenv("LEDGER_CURRENCY"); currency != "" {
		opts = append(opts, squadledger.WithCurrency(currency))
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		publisher := kafka.NewPublisher(
			strings.Split(brokers, ","),
			os.Getenv("KAFKA_TOPIC"),
			kafka.WithLogger(logger),
		)
		opts = append(opts, squadledger.WithPlugin(publisher))
	}

	engine := squadledger.New(memory.New(), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx); err != nil {
		logger.Error("failed to start ledger", "error", err)
		os.Exit(1)
	}

	addr := ":" + envOr("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(engine, httpapi.WithLogger(logger)).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := engine.Stop(); err != nil {
		logger.Error("ledger shutdown failed", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
