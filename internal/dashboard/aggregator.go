// Package dashboard computes the summary counters shown on the dashboard.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gadget-inventory-api/internal/models"

	"go.uber.org/zap"
)

const (
	countAssetsSQL    = `SELECT COUNT(*) FROM assets`
	byCategorySQL     = `SELECT category, COUNT(*) FROM assets GROUP BY category`
	byStatusSQL       = `SELECT status, COUNT(*) FROM assets GROUP BY status`
	byLocationSQL     = `SELECT user_location, COUNT(*) FROM assets WHERE user_location IS NOT NULL AND user_location <> '' GROUP BY user_location`
	warrantyWindowSQL = `SELECT COUNT(*) FROM assets WHERE warranty_date IS NOT NULL AND warranty_date >= $1 AND warranty_date <= $2`
)

// Aggregator reads all counters from one snapshot.
type Aggregator struct {
	db       *sql.DB
	logger   *zap.Logger
	Now      func() time.Time
	Location *time.Location
}

func NewAggregator(db *sql.DB, loc *time.Location, logger *zap.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{db: db, logger: logger, Now: time.Now, Location: loc}
}

// ComputeStats runs every query inside a read-only repeatable-read
// transaction so the counters agree with each other.
func (a *Aggregator) ComputeStats(ctx context.Context) (*models.DashboardStats, error) {
	start := time.Now()
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stats := &models.DashboardStats{}
	if err := tx.QueryRowContext(ctx, countAssetsSQL).Scan(&stats.TotalAssets); err != nil {
		return nil, fmt.Errorf("count assets: %w", err)
	}
	if stats.AssetsByCategory, err = groupCount(ctx, tx, byCategorySQL); err != nil {
		return nil, fmt.Errorf("assets by category: %w", err)
	}
	if stats.AssetsByStatus, err = groupCount(ctx, tx, byStatusSQL); err != nil {
		return nil, fmt.Errorf("assets by status: %w", err)
	}
	if stats.AssetsByLocation, err = groupCount(ctx, tx, byLocationSQL); err != nil {
		return nil, fmt.Errorf("assets by location: %w", err)
	}

	from, to := models.WarrantyWindow(a.Now().In(a.Location))
	if err := tx.QueryRowContext(ctx, warrantyWindowSQL, from, to).Scan(&stats.WarrantyExpiringSoon); err != nil {
		return nil, fmt.Errorf("count expiring warranties: %w", err)
	}
	stats.AssetsInRepair = stats.AssetsByStatus[models.StatusInRepair]

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	a.logger.Debug("dashboard stats computed",
		zap.Int("total_assets", stats.TotalAssets),
		zap.Duration("took", time.Since(start)))
	return stats, nil
}

func groupCount(ctx context.Context, tx *sql.Tx, query string) (map[string]int, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		// blank keys never become buckets
		if key != "" && n > 0 {
			out[key] = n
		}
	}
	return out, rows.Err()
}
