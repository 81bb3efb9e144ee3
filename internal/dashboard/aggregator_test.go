package dashboard

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComputeStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	agg := NewAggregator(db, time.UTC, zap.NewNop())
	agg.Now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(countAssetsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(byCategorySQL)).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).
			AddRow("laptop", 3).
			AddRow("router", 2))
	mock.ExpectQuery(regexp.QuoteMeta(byStatusSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("baik", 2).
			AddRow("perbaikan", 3))
	mock.ExpectQuery(regexp.QuoteMeta(byLocationSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"user_location", "count"}).
			AddRow("Jakarta", 4))
	mock.ExpectQuery(regexp.QuoteMeta(warrantyWindowSQL)).
		WithArgs("2024-01-15", "2024-02-14").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	stats, err := agg.ComputeStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalAssets)
	assert.Equal(t, map[string]int{"laptop": 3, "router": 2}, stats.AssetsByCategory)
	assert.Equal(t, 3, stats.AssetsInRepair)
	assert.Equal(t, stats.AssetsByStatus["perbaikan"], stats.AssetsInRepair)
	assert.Equal(t, map[string]int{"Jakarta": 4}, stats.AssetsByLocation)
	assert.Equal(t, 1, stats.WarrantyExpiringSoon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeStats_EmptyInventory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	agg := NewAggregator(db, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(countAssetsSQL)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(byCategorySQL)).WillReturnRows(sqlmock.NewRows([]string{"category", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta(byStatusSQL)).WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta(byLocationSQL)).WillReturnRows(sqlmock.NewRows([]string{"user_location", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta(warrantyWindowSQL)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	stats, err := agg.ComputeStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalAssets)
	assert.Zero(t, stats.AssetsInRepair)
	assert.Empty(t, stats.AssetsByCategory)
	assert.NotNil(t, stats.AssetsByLocation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeStats_SkipsBlankLocation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	agg := NewAggregator(db, time.UTC, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(countAssetsSQL)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(byCategorySQL)).WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).AddRow("tablet", 3))
	mock.ExpectQuery(regexp.QuoteMeta(byStatusSQL)).WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("baik", 3))
	mock.ExpectQuery(regexp.QuoteMeta(byLocationSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"user_location", "count"}).
			AddRow("", 2).
			AddRow("Jakarta", 1))
	mock.ExpectQuery(regexp.QuoteMeta(warrantyWindowSQL)).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	stats, err := agg.ComputeStats(context.Background())
	require.NoError(t, err)

	_, hasBlank := stats.AssetsByLocation[""]
	assert.False(t, hasBlank)
	assert.Equal(t, map[string]int{"Jakarta": 1}, stats.AssetsByLocation)
	assert.Contains(t, byLocationSQL, "user_location <> ''")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeStats_QueryErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(countAssetsSQL)).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = NewAggregator(db, nil, zap.NewNop()).ComputeStats(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
