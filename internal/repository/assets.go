package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gadget-inventory-api/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssetColumns is the column order every asset query selects and scanAsset reads.
var AssetColumns = []string{
	"id", "user_nik", "user_name", "user_position", "user_unit", "user_location",
	"asset_number", "inventory_number", "imei_number", "serial_number", "wifi_mac_address",
	"purchase_date", "warranty_date", "category", "equipment_brand", "equipment_type", "supplier",
	"apk_harv", "apk_upk", "apk_nurs", "uuid_harvesting", "uuid_upkeep", "uuid_nursery",
	"code_harvesting", "code_upkeep", "code_nursery", "code_replanting", "user_id_efact",
	"status", "notes", "repair_location", "sent_to_regmis", "sent_to_jkto",
	"recommendation_number", "gadget_usage", "qr_code", "created_at", "updated_at",
}

var (
	assetSelect = strings.Join(AssetColumns, ", ")
	// everything between id and created_at
	assetInsertColumns = AssetColumns[1:36]
)

const (
	listAssetsCap = 1000
	maxQRAttempts = 3
	qrCodePrefix  = "QR_"
)

// IsWritableAssetColumn reports whether col is an asset column callers may
// set. id, qr_code and the timestamps are owned by the server.
func IsWritableAssetColumn(col string) bool {
	switch col {
	case "id", "qr_code", "created_at", "updated_at":
		return false
	}
	for _, c := range AssetColumns {
		if c == col {
			return true
		}
	}
	return false
}

// NewQRCode returns a fresh scan token.
func NewQRCode() string {
	return qrCodePrefix + uuid.NewString()
}

// AssetRepository persists assets.
type AssetRepository struct {
	db     *sql.DB
	logger *zap.Logger
	// newQRCode is swapped in tests to force collisions.
	newQRCode func() string
}

func NewAssetRepository(db *sql.DB, logger *zap.Logger) *AssetRepository {
	return &AssetRepository{db: db, logger: logger, newQRCode: NewQRCode}
}

func scanAsset(row rowScanner) (models.Asset, error) {
	var a models.Asset
	err := row.Scan(
		&a.ID, &a.UserNIK, &a.UserName, &a.UserPosition, &a.UserUnit, &a.UserLocation,
		&a.AssetNumber, &a.InventoryNumber, &a.IMEINumber, &a.SerialNumber, &a.WifiMACAddress,
		&a.PurchaseDate, &a.WarrantyDate, &a.Category, &a.EquipmentBrand, &a.EquipmentType, &a.Supplier,
		&a.APKHarv, &a.APKUpk, &a.APKNurs, &a.UUIDHarvesting, &a.UUIDUpkeep, &a.UUIDNursery,
		&a.CodeHarvesting, &a.CodeUpkeep, &a.CodeNursery, &a.CodeReplanting, &a.UserIDEfact,
		&a.Status, &a.Notes, &a.RepairLocation, &a.SentToRegmis, &a.SentToJKTO,
		&a.RecommendationNumber, &a.GadgetUsage, &a.QRCode, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func collectAssets(rows *sql.Rows) ([]models.Asset, error) {
	defer rows.Close()
	out := []models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func createAssetArgs(req models.CreateAssetRequest, qr string) []interface{} {
	return []interface{}{
		req.UserNIK, req.UserName, req.UserPosition, req.UserUnit, req.UserLocation,
		req.AssetNumber, req.InventoryNumber, req.IMEINumber, req.SerialNumber, req.WifiMACAddress,
		req.PurchaseDate, req.WarrantyDate, req.Category, req.EquipmentBrand, req.EquipmentType, req.Supplier,
		req.APKHarv, req.APKUpk, req.APKNurs, req.UUIDHarvesting, req.UUIDUpkeep, req.UUIDNursery,
		req.CodeHarvesting, req.CodeUpkeep, req.CodeNursery, req.CodeReplanting, req.UserIDEfact,
		req.Status, req.Notes, req.RepairLocation, req.SentToRegmis, req.SentToJKTO,
		req.RecommendationNumber, req.GadgetUsage, qr,
	}
}

// Create inserts an asset with a freshly generated QR token. A clash on the
// token itself is retried; a clash on asset_number is returned to the caller.
func (r *AssetRepository) Create(ctx context.Context, req models.CreateAssetRequest) (*models.Asset, error) {
	if strings.TrimSpace(req.AssetNumber) == "" {
		return nil, invalidArgument("asset_number is required")
	}
	if !models.IsValidCategory(req.Category) {
		return nil, invalidArgument("invalid category %q", req.Category)
	}
	if !models.IsValidStatus(req.Status) {
		return nil, invalidArgument("invalid status %q", req.Status)
	}

	sqlStr := fmt.Sprintf(`INSERT INTO assets (%s) VALUES (%s) RETURNING %s`,
		strings.Join(assetInsertColumns, ", "), placeholders(len(assetInsertColumns), 1), assetSelect)

	for attempt := 1; ; attempt++ {
		qr := r.newQRCode()
		a, err := scanAsset(r.db.QueryRowContext(ctx, sqlStr, createAssetArgs(req, qr)...))
		if err == nil {
			return &a, nil
		}
		err = Classify(err)
		var ce *ConstraintError
		if errors.As(err, &ce) && ce.Constraint == ConstraintAssetQRCode && attempt < maxQRAttempts {
			r.logger.Warn("qr code collision, regenerating", zap.Int("attempt", attempt))
			continue
		}
		return nil, fmt.Errorf("create asset: %w", err)
	}
}

// GetByID returns nil, nil when the asset does not exist.
func (r *AssetRepository) GetByID(ctx context.Context, id int64) (*models.Asset, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByQRCode resolves a scanned token. Absent tokens yield nil, nil.
func (r *AssetRepository) GetByQRCode(ctx context.Context, code string) (*models.Asset, error) {
	if code == "" {
		return nil, nil
	}
	return r.getOne(ctx, "qr_code = $1", code)
}

func (r *AssetRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Asset, error) {
	a, err := scanAsset(r.db.QueryRowContext(ctx, "SELECT "+assetSelect+" FROM assets WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return &a, nil
}

// List returns the newest assets first, at most listAssetsCap of them.
func (r *AssetRepository) List(ctx context.Context) ([]models.Asset, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM assets ORDER BY created_at DESC, id DESC LIMIT %d", assetSelect, listAssetsCap))
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return collectAssets(rows)
}

// ListAll returns every asset in id order, for exports.
func (r *AssetRepository) ListAll(ctx context.Context) ([]models.Asset, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+assetSelect+" FROM assets ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list all assets: %w", err)
	}
	return collectAssets(rows)
}

var assetSearchColumns = []string{
	"asset_number", "user_name", "user_nik", "equipment_brand",
	"equipment_type", "inventory_number", "serial_number", "notes",
}

func buildAssetWhere(f models.AssetFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.SearchTerm != "" {
		w.anyILike(f.SearchTerm, assetSearchColumns...)
	}
	if f.Category != "" {
		w.add("category = " + w.arg(f.Category))
	}
	if f.Status != "" {
		w.add("status = " + w.arg(f.Status))
	}
	if f.UserUnit != "" {
		w.anyILike(f.UserUnit, "user_unit")
	}
	if f.UserLocation != "" {
		w.anyILike(f.UserLocation, "user_location")
	}
	if f.EquipmentBrand != "" {
		w.anyILike(f.EquipmentBrand, "equipment_brand")
	}
	return w
}

// Search filters assets and returns one page plus the unpaginated total.
func (r *AssetRepository) Search(ctx context.Context, f models.AssetFilter, page, limit int) (*models.AssetPage, error) {
	if f.Category != "" && !models.IsValidCategory(f.Category) {
		return nil, invalidArgument("invalid category %q", f.Category)
	}
	if f.Status != "" && !models.IsValidStatus(f.Status) {
		return nil, invalidArgument("invalid status %q", f.Status)
	}
	page, limit = normalizePage(page, limit)
	w := buildAssetWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count assets: %w", err)
	}

	sqlStr := fmt.Sprintf("SELECT %s FROM assets%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		assetSelect, w.sql(), limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx, sqlStr, w.args...)
	if err != nil {
		return nil, fmt.Errorf("search assets: %w", err)
	}
	items, err := collectAssets(rows)
	if err != nil {
		return nil, fmt.Errorf("search assets: %w", err)
	}
	return &models.AssetPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// buildUpdate renders "UPDATE table SET a = $1, ..., updated_at = now()
// WHERE id = $n RETURNING cols".
func buildUpdate(table string, changes []models.FieldUpdate, id int64, returning string) (string, []interface{}) {
	sets := make([]string, 0, len(changes)+1)
	args := make([]interface{}, 0, len(changes)+1)
	for i, c := range changes {
		sets = append(sets, fmt.Sprintf("%s = $%d", c.Column, i+1))
		args = append(args, c.Value)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(sets, ", "), len(args), returning), args
}

// Update applies only the fields present in req. An empty payload still
// refreshes updated_at.
func (r *AssetRepository) Update(ctx context.Context, id int64, req models.UpdateAssetRequest) (*models.Asset, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	sqlStr, args := buildUpdate("assets", req.Changes(), id, assetSelect)
	a, err := scanAsset(r.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update asset: %w", Classify(err))
	}
	return &a, nil
}

// Delete removes the asset and its notifications in one transaction.
func (r *AssetRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM notifications WHERE asset_id = $1", id)
	if err != nil {
		return fmt.Errorf("delete asset notifications: %w", err)
	}
	notes, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, "DELETE FROM assets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	r.logger.Debug("asset deleted", zap.Int64("asset_id", id), zap.Int64("notifications_deleted", notes))
	return nil
}

// ListWarrantyExpiring returns assets whose warranty_date lies in [from, to].
// Dates are fixed-width YYYY-MM-DD strings so text comparison is calendar order.
func (r *AssetRepository) ListWarrantyExpiring(ctx context.Context, from, to string) ([]models.Asset, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+assetSelect+` FROM assets
		WHERE warranty_date IS NOT NULL AND warranty_date >= $1 AND warranty_date <= $2
		ORDER BY warranty_date, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expiring warranties: %w", err)
	}
	return collectAssets(rows)
}

// ListStaleInRepair returns assets in repair whose last update is at or before cutoff.
func (r *AssetRepository) ListStaleInRepair(ctx context.Context, cutoff time.Time) ([]models.Asset, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+assetSelect+` FROM assets
		WHERE status = $1 AND updated_at <= $2
		ORDER BY updated_at, id`, models.StatusInRepair, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale repairs: %w", err)
	}
	return collectAssets(rows)
}
