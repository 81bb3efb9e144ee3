// Package notify derives warranty and repair notifications from asset state.
// Passes are triggered externally (HTTP or cmd/scheduler); nothing here runs
// on a timer.
package notify

import (
	"context"
	"fmt"
	"time"

	"gadget-inventory-api/internal/models"

	"go.uber.org/zap"
)

const (
	warrantyTitle = "Warranty Expiring Soon"
	repairTitle   = "Repair Status Reminder"
	unknownType   = "Unknown"
)

// AssetFinder is the subset of the asset repository the generators read.
type AssetFinder interface {
	ListWarrantyExpiring(ctx context.Context, from, to string) ([]models.Asset, error)
	ListStaleInRepair(ctx context.Context, cutoff time.Time) ([]models.Asset, error)
}

// Store is the subset of the notification repository the generators write.
type Store interface {
	AssetIDsWithType(ctx context.Context, typ string, assetIDs []int64, since *time.Time) (map[int64]bool, error)
	CreateBatch(ctx context.Context, batch []models.NewNotification) (int, error)
}

// Engine runs generator passes. Now and Location decide what "today" is.
type Engine struct {
	assets   AssetFinder
	store    Store
	logger   *zap.Logger
	Now      func() time.Time
	Location *time.Location
}

func NewEngine(assets AssetFinder, store Store, loc *time.Location, logger *zap.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{assets: assets, store: store, logger: logger, Now: time.Now, Location: loc}
}

func (e *Engine) now() time.Time {
	return e.Now().In(e.Location)
}

func equipmentType(a models.Asset) string {
	if a.EquipmentType == nil || *a.EquipmentType == "" {
		return unknownType
	}
	return *a.EquipmentType
}

func assetIDs(assets []models.Asset) []int64 {
	ids := make([]int64, len(assets))
	for i, a := range assets {
		ids[i] = a.ID
	}
	return ids
}

// GenerateWarrantyNotifications raises one warranty_expiring notification per
// asset whose warranty ends within the next 30 days, inclusive on both ends.
// An asset that was ever notified is never notified again.
func (e *Engine) GenerateWarrantyNotifications(ctx context.Context) (models.GenerateResult, error) {
	from, to := models.WarrantyWindow(e.now())
	assets, err := e.assets.ListWarrantyExpiring(ctx, from, to)
	if err != nil {
		return models.GenerateResult{}, fmt.Errorf("warranty pass: %w", err)
	}
	existing, err := e.store.AssetIDsWithType(ctx, models.NotificationWarrantyExpiring, assetIDs(assets), nil)
	if err != nil {
		return models.GenerateResult{}, fmt.Errorf("warranty pass: %w", err)
	}

	batch := make([]models.NewNotification, 0, len(assets))
	for _, a := range assets {
		if existing[a.ID] || a.WarrantyDate == nil {
			continue
		}
		batch = append(batch, models.NewNotification{
			Title: warrantyTitle,
			Message: fmt.Sprintf("Asset %s (%s) warranty expires on %s",
				a.AssetNumber, equipmentType(a), *a.WarrantyDate),
			Type:    models.NotificationWarrantyExpiring,
			AssetID: a.ID,
		})
	}
	return e.flush(ctx, "warranty", batch, len(assets))
}

// GenerateRepairReminders raises a repair_reminder for assets that have sat
// in "perbaikan" without an update for 7 days, unless one was raised for the
// same asset within the last 7 days.
func (e *Engine) GenerateRepairReminders(ctx context.Context) (models.GenerateResult, error) {
	cutoff := e.now().Add(-models.RepairReminderAge)
	assets, err := e.assets.ListStaleInRepair(ctx, cutoff)
	if err != nil {
		return models.GenerateResult{}, fmt.Errorf("repair pass: %w", err)
	}
	recent, err := e.store.AssetIDsWithType(ctx, models.NotificationRepairReminder, assetIDs(assets), &cutoff)
	if err != nil {
		return models.GenerateResult{}, fmt.Errorf("repair pass: %w", err)
	}

	batch := make([]models.NewNotification, 0, len(assets))
	for _, a := range assets {
		if recent[a.ID] {
			continue
		}
		batch = append(batch, models.NewNotification{
			Title: repairTitle,
			Message: fmt.Sprintf("Asset %s (%s) has been in repair status since %s. Please update repair progress.",
				a.AssetNumber, equipmentType(a), a.UpdatedAt.In(e.Location).Format(models.DateLayout)),
			Type:    models.NotificationRepairReminder,
			AssetID: a.ID,
		})
	}
	return e.flush(ctx, "repair", batch, len(assets))
}

func (e *Engine) flush(ctx context.Context, pass string, batch []models.NewNotification, candidates int) (models.GenerateResult, error) {
	created, err := e.store.CreateBatch(ctx, batch)
	if err != nil {
		return models.GenerateResult{}, fmt.Errorf("%s pass: %w", pass, err)
	}
	e.logger.Info("notification pass finished",
		zap.String("pass", pass),
		zap.Int("candidates", candidates),
		zap.Int("created", created))
	return models.GenerateResult{Created: created}, nil
}
