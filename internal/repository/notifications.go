package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gadget-inventory-api/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const notificationSelect = "id, title, message, type, asset_id, is_read, created_at"

// batchChunk keeps a multi-row insert well under the 65535 parameter limit.
const batchChunk = 1000

type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

func isNotificationType(t string) bool {
	switch t {
	case models.NotificationWarrantyExpiring, models.NotificationRepairReminder, models.NotificationGeneral:
		return true
	}
	return false
}

// Create inserts an unread notification. The existence check on the asset
// and the insert are one statement, so a concurrent delete cannot slip in.
func (r *NotificationRepository) Create(ctx context.Context, req models.CreateNotificationRequest) (*models.Notification, error) {
	if req.AssetID == nil || *req.AssetID <= 0 {
		return nil, invalidArgument("asset_id is required")
	}
	if !isNotificationType(req.Type) {
		return nil, invalidArgument("invalid type %q", req.Type)
	}
	var n models.Notification
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (title, message, type, asset_id, is_read)
		SELECT $1::text, $2::text, $3::text, $4::bigint, false
		WHERE EXISTS (SELECT 1 FROM assets WHERE id = $4::bigint)
		RETURNING `+notificationSelect,
		req.Title, req.Message, req.Type, *req.AssetID,
	).Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.AssetID, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invalidArgument("asset %d does not exist", *req.AssetID)
	}
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return &n, nil
}

// List returns every notification, newest first.
func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	return r.query(ctx, "SELECT "+notificationSelect+" FROM notifications ORDER BY created_at DESC, id DESC")
}

// ListUnread returns notifications with is_read = false, newest first.
func (r *NotificationRepository) ListUnread(ctx context.Context) ([]models.Notification, error) {
	return r.query(ctx, "SELECT "+notificationSelect+" FROM notifications WHERE is_read = false ORDER BY created_at DESC, id DESC")
}

func (r *NotificationRepository) query(ctx context.Context, sqlStr string, args ...interface{}) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.AssetID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("list notifications: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead is idempotent; an unknown id is not an error.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = true WHERE id = $1", id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips every unread notification and reports how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = true WHERE is_read = false")
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// AssetIDsWithType reports which of assetIDs already have a notification of
// the given type, optionally restricted to those created at or after since.
func (r *NotificationRepository) AssetIDsWithType(ctx context.Context, typ string, assetIDs []int64, since *time.Time) (map[int64]bool, error) {
	found := make(map[int64]bool)
	if len(assetIDs) == 0 {
		return found, nil
	}
	sqlStr := "SELECT DISTINCT asset_id FROM notifications WHERE type = $1 AND asset_id = ANY($2)"
	args := []interface{}{typ, pq.Array(assetIDs)}
	if since != nil {
		sqlStr += " AND created_at >= $3"
		args = append(args, *since)
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("lookup existing notifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("lookup existing notifications: %w", err)
		}
		found[id] = true
	}
	return found, rows.Err()
}

// CreateBatch inserts all notifications or none.
func (r *NotificationRepository) CreateBatch(ctx context.Context, batch []models.NewNotification) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create notifications: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	created := 0
	for start := 0; start < len(batch); start += batchChunk {
		end := start + batchChunk
		if end > len(batch) {
			end = len(batch)
		}
		n, err := insertNotifications(ctx, tx, batch[start:end])
		if err != nil {
			return 0, err
		}
		created += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create notifications: %w", err)
	}
	return created, nil
}

func insertNotifications(ctx context.Context, q querier, batch []models.NewNotification) (int, error) {
	values := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*4)
	for i, n := range batch {
		values = append(values, fmt.Sprintf("(%s, false)", placeholders(4, i*4+1)))
		args = append(args, n.Title, n.Message, n.Type, n.AssetID)
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO notifications (title, message, type, asset_id, is_read) VALUES "+strings.Join(values, ", "),
		args...)
	if err != nil {
		return 0, fmt.Errorf("create notifications: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
