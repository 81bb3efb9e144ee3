package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gadget-inventory-api/db/migrations"
	"gadget-inventory-api/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	list := flag.Bool("list", false, "List embedded migrations and exit")
	flag.Parse()

	_ = godotenv.Load()

	if *list {
		names, err := migrations.Files()
		if err != nil {
			log.Fatalf("Failed to list migrations: %v", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	lg, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "gadget-migrate")
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		lg.Fatal("failed to open database connection", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		lg.Fatal("failed to ping database", zap.Error(err))
	}

	applied, err := migrations.Apply(ctx, db, lg)
	if err != nil {
		lg.Fatal("migration failed", zap.Strings("applied", applied), zap.Error(err))
	}
	lg.Info("migrations complete", zap.Int("applied", len(applied)))
}
