package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"gadget-inventory-api/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var notificationCols = []string{"id", "title", "message", "type", "asset_id", "is_read", "created_at"}

func setupNotificationRepo(t *testing.T) (sqlmock.Sqlmock, *NotificationRepository, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return mock, NewNotificationRepository(db, zap.NewNop()), func() { db.Close() }
}

func TestCreateNotification(t *testing.T) {
	mock, repo, done := setupNotificationRepo(t)
	defer done()

	assetID := int64(3)
	req := models.CreateNotificationRequest{Title: "Hi", Message: "Check", Type: "general", AssetID: &assetID}

	t.Run("existing asset", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO notifications .* WHERE EXISTS \(SELECT 1 FROM assets`).
			WithArgs("Hi", "Check", "general", int64(3)).
			WillReturnRows(sqlmock.NewRows(notificationCols).AddRow(10, "Hi", "Check", "general", 3, false, fixedTime))
		n, err := repo.Create(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, int64(10), n.ID)
		assert.False(t, n.IsRead)
	})

	t.Run("nonexistent asset", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO notifications`).
			WithArgs("Hi", "Check", "general", int64(3)).
			WillReturnRows(sqlmock.NewRows(notificationCols))
		_, err := repo.Create(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("missing asset id", func(t *testing.T) {
		_, err := repo.Create(context.Background(), models.CreateNotificationRequest{Title: "Hi", Message: "x", Type: "general"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnreadNotifications(t *testing.T) {
	mock, repo, done := setupNotificationRepo(t)
	defer done()

	mock.ExpectQuery(`WHERE is_read = false ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow(2, "B", "b", "general", 1, false, fixedTime).
			AddRow(1, "A", "a", "general", 1, false, fixedTime.Add(-time.Hour)))

	out, err := repo.ListUnread(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRead(t *testing.T) {
	mock, repo, done := setupNotificationRepo(t)
	defer done()

	// unknown id affects nothing and still succeeds
	mock.ExpectExec(`UPDATE notifications SET is_read = true WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE notifications SET is_read = true WHERE is_read = false`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.MarkRead(context.Background(), 404))
	n, err := repo.MarkAllRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetIDsWithType(t *testing.T) {
	mock, repo, done := setupNotificationRepo(t)
	defer done()

	since := fixedTime.Add(-7 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT asset_id FROM notifications WHERE type = $1 AND asset_id = ANY($2) AND created_at >= $3`)).
		WithArgs("repair_reminder", "{1,2,3}", since).
		WillReturnRows(sqlmock.NewRows([]string{"asset_id"}).AddRow(2))

	found, err := repo.AssetIDsWithType(context.Background(), "repair_reminder", []int64{1, 2, 3}, &since)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{2: true}, found)

	empty, err := repo.AssetIDsWithType(context.Background(), "repair_reminder", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatch(t *testing.T) {
	mock, repo, done := setupNotificationRepo(t)
	defer done()

	batch := []models.NewNotification{
		{Title: "t1", Message: "m1", Type: "warranty_expiring", AssetID: 1},
		{Title: "t2", Message: "m2", Type: "warranty_expiring", AssetID: 2},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications (title, message, type, asset_id, is_read) VALUES ($1, $2, $3, $4, false), ($5, $6, $7, $8, false)`)).
		WithArgs("t1", "m1", "warranty_expiring", int64(1), "t2", "m2", "warranty_expiring", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.CreateBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CreateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatch_FailureRollsBack(t *testing.T) {
	mock, repo, done := setupNotificationRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO notifications`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.CreateBatch(context.Background(), []models.NewNotification{{Title: "t", Message: "m", Type: "general", AssetID: 1}})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
