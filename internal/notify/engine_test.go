package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gadget-inventory-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type storedNotification struct {
	models.NewNotification
	createdAt time.Time
}

// memory backs both interfaces with plain slices.
type memory struct {
	assets        []models.Asset
	notifications []storedNotification
	now           func() time.Time
	failCreate    error
}

func (m *memory) ListWarrantyExpiring(_ context.Context, from, to string) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range m.assets {
		if a.WarrantyDate != nil && *a.WarrantyDate >= from && *a.WarrantyDate <= to {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memory) ListStaleInRepair(_ context.Context, cutoff time.Time) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range m.assets {
		if a.Status == models.StatusInRepair && !a.UpdatedAt.After(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memory) AssetIDsWithType(_ context.Context, typ string, ids []int64, since *time.Time) (map[int64]bool, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	found := map[int64]bool{}
	for _, n := range m.notifications {
		if n.Type != typ || !want[n.AssetID] {
			continue
		}
		if since != nil && n.createdAt.Before(*since) {
			continue
		}
		found[n.AssetID] = true
	}
	return found, nil
}

func (m *memory) CreateBatch(_ context.Context, batch []models.NewNotification) (int, error) {
	if m.failCreate != nil {
		return 0, m.failCreate
	}
	for _, n := range batch {
		m.notifications = append(m.notifications, storedNotification{n, m.now()})
	}
	return len(batch), nil
}

func str(s string) *string { return &s }

func newTestEngine(m *memory, now time.Time) *Engine {
	m.now = func() time.Time { return now }
	e := NewEngine(m, m, time.UTC, zap.NewNop())
	e.Now = m.now
	return e
}

func TestWarrantyWindowBoundaries(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	m := &memory{assets: []models.Asset{
		{ID: 1, AssetNumber: "A-1", WarrantyDate: str("2024-03-31"), EquipmentType: str("Galaxy A54")}, // today+30
		{ID: 2, AssetNumber: "A-2", WarrantyDate: str("2024-04-01")},                                   // today+31
		{ID: 3, AssetNumber: "A-3", WarrantyDate: str("2024-02-29")},                                   // yesterday
		{ID: 4, AssetNumber: "A-4", WarrantyDate: str("2024-03-01")},                                   // today
		{ID: 5, AssetNumber: "A-5"},
	}}
	e := newTestEngine(m, now)

	res, err := e.GenerateWarrantyNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	require.Len(t, m.notifications, 2)
	byAsset := map[int64]storedNotification{}
	for _, n := range m.notifications {
		byAsset[n.AssetID] = n
	}
	assert.Contains(t, byAsset, int64(1))
	assert.Contains(t, byAsset, int64(4))
	assert.Equal(t, "Warranty Expiring Soon", byAsset[1].Title)
	assert.Equal(t, "Asset A-1 (Galaxy A54) warranty expires on 2024-03-31", byAsset[1].Message)
	assert.Equal(t, "Asset A-4 (Unknown) warranty expires on 2024-03-01", byAsset[4].Message)
	assert.Equal(t, models.NotificationWarrantyExpiring, byAsset[4].Type)
}

func TestWarrantyPassIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m := &memory{assets: []models.Asset{
		{ID: 1, AssetNumber: "A-1", WarrantyDate: str("2024-03-10")},
	}}
	e := newTestEngine(m, now)

	first, err := e.GenerateWarrantyNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := e.GenerateWarrantyNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Len(t, m.notifications, 1)
}

func TestWarrantyWindowUsesConfiguredZone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 20:00 UTC on Feb 29 is already Mar 1 in Jakarta
	now := time.Date(2024, 2, 29, 20, 0, 0, 0, time.UTC)
	m := &memory{assets: []models.Asset{
		{ID: 1, AssetNumber: "A-1", WarrantyDate: str("2024-02-29")},
		{ID: 2, AssetNumber: "A-2", WarrantyDate: str("2024-03-31")},
	}}
	e := newTestEngine(m, now)
	e.Location = jakarta

	res, err := e.GenerateWarrantyNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, int64(2), m.notifications[0].AssetID)
}

func TestRepairReminders(t *testing.T) {
	now := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	m := &memory{assets: []models.Asset{
		{ID: 1, AssetNumber: "A-1", Status: models.StatusInRepair, EquipmentType: str("ThinkPad"), UpdatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: 2, AssetNumber: "A-2", Status: models.StatusInRepair, UpdatedAt: now.Add(-3 * 24 * time.Hour)},
		{ID: 3, AssetNumber: "A-3", Status: models.StatusDamaged, UpdatedAt: now.Add(-30 * 24 * time.Hour)},
		{ID: 4, AssetNumber: "A-4", Status: models.StatusInRepair, UpdatedAt: now.Add(-8 * 24 * time.Hour)},
	}}
	e := newTestEngine(m, now)

	res, err := e.GenerateRepairReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, "Repair Status Reminder", m.notifications[0].Title)
	assert.Equal(t,
		"Asset A-1 (ThinkPad) has been in repair status since 2024-03-10. Please update repair progress.",
		m.notifications[0].Message)
	assert.True(t, strings.HasPrefix(m.notifications[1].Message, "Asset A-4 (Unknown)"))

	// a reminder raised within the last week suppresses the next one
	again, err := e.GenerateRepairReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)

	// once the reminder is older than a week the asset is due again
	later := newTestEngine(m, now.Add(8*24*time.Hour))
	res, err = later.GenerateRepairReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
}

func TestGenerateSurfacesStoreErrors(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	boom := errors.New("db down")
	m := &memory{
		assets:     []models.Asset{{ID: 1, AssetNumber: "A-1", WarrantyDate: str("2024-03-02")}},
		failCreate: boom,
	}
	e := newTestEngine(m, now)

	_, err := e.GenerateWarrantyNotifications(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.notifications)
}
