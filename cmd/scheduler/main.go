package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gadget-inventory-api/internal/logger"
	"gadget-inventory-api/internal/scheduler"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	once := flag.String("once", "", "Run one generator (warranty or repair) and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg := scheduler.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	lg, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "gadget-scheduler")
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	s, err := scheduler.New(cfg, scheduler.NewClient(cfg, lg), lg)
	if err != nil {
		lg.Fatal("failed to register jobs", zap.Error(err))
	}

	if *once != "" {
		if *once != scheduler.KindWarranty && *once != scheduler.KindRepair {
			lg.Fatal("unknown generator", zap.String("kind", *once))
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout*time.Duration(cfg.Retries+1))
		err := s.Run(ctx, *once)
		cancel()
		if err != nil {
			_ = lg.Sync()
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Start()
	lg.Info("scheduler started",
		zap.String("api", cfg.BaseURL),
		zap.String("warranty_schedule", cfg.WarrantySchedule),
		zap.String("repair_schedule", cfg.RepairSchedule))

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	s.Stop(stopCtx)
	lg.Info("scheduler stopped")
}
