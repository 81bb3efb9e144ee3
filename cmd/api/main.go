package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gadget-inventory-api/internal"
	"gadget-inventory-api/internal/config"
	"gadget-inventory-api/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "gadget-inventory-api")
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.DBDSN)
	if err != nil {
		lg.Fatal("failed to open database", zap.Error(err))
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		lg.Fatal("failed to ping database", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		lg.Fatal("failed to create connection pool", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		lg.Fatal("failed to create export directory", zap.String("dir", cfg.ExportDir), zap.Error(err))
	}

	srv := internal.NewServer(db, pool, cfg, lg)
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("starting gadget inventory API",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
			zap.String("timezone", cfg.TimeZone),
			zap.Bool("auth_enabled", cfg.AuthEnabled),
			zap.Bool("metrics_enabled", cfg.EnableMetrics))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := srv.Close(shutdownCtx); err != nil {
		lg.Error("failed to close database", zap.Error(err))
	}
}
