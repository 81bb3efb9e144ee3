package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"gadget-inventory-api/db/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DSN returns TEST_DATABASE_URL, or "" when integration tests should skip.
func DSN() string {
	return os.Getenv("TEST_DATABASE_URL")
}

// RequireIntegration skips the test in -short mode or without TEST_DATABASE_URL.
func RequireIntegration(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if DSN() == "" {
		t.Skip("Skipping integration test. Set TEST_DATABASE_URL to run.")
	}
}

// NewTestDB opens and pings the test database. It is closed on cleanup.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	RequireIntegration(t)

	db, err := sql.Open("pgx", DSN())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return db
}

// ResetSchema drops the public schema and reapplies every migration.
func ResetSchema(t testing.TB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "DROP SCHEMA public CASCADE"); err != nil {
		t.Fatalf("Failed to drop schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA public"); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	if _, err := migrations.Apply(ctx, db, nil); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
}

// Truncate empties the domain tables between tests.
func Truncate(t testing.TB, db *sql.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"TRUNCATE notifications, assets, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}
