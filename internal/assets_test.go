package internal

import (
	"net/http"
	"regexp"
	"testing"

	"gadget-inventory-api/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAsset_AbsentReturnsNull(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectQuery(`SELECT .* FROM assets WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns))

	w := doRequest(s, http.MethodGet, "/assets/42", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null\n", w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAsset_BadID(t *testing.T) {
	s, mock := newTestServer(t, nil)

	w := doRequest(s, http.MethodGet, "/assets/abc", nil, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, w).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsset_Created(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectQuery(`INSERT INTO assets \(.*\) VALUES \(.*\) RETURNING`).
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns).
			AddRow(assetRow(7, "A-7", "laptop", "baik", "QR_7")...))

	body := map[string]interface{}{
		"asset_number":  "A-7",
		"category":      "laptop",
		"status":        "baik",
		"warranty_date": "2025-01-31",
	}
	w := doRequest(s, http.MethodPost, "/assets", body, "")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"qr_code":"QR_7"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsset_ValidationFailure(t *testing.T) {
	s, mock := newTestServer(t, nil)

	cases := map[string]interface{}{
		"missing category": map[string]interface{}{"asset_number": "A-1", "status": "baik"},
		"bad status":       map[string]interface{}{"asset_number": "A-1", "category": "laptop", "status": "broken"},
		"bad date":         map[string]interface{}{"asset_number": "A-1", "category": "laptop", "status": "baik", "purchase_date": "01/02/2024"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := doRequest(s, http.MethodPost, "/assets", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_FAILED", decodeError(t, w).Code)
		})
	}

	w := doRequest(s, http.MethodPost, "/assets", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decodeError(t, w).Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsset_DuplicateNumberConflict(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectQuery(`INSERT INTO assets`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: repository.ConstraintAssetNumber})

	body := map[string]interface{}{"asset_number": "A-1", "category": "laptop", "status": "baik"}
	w := doRequest(s, http.MethodPost, "/assets", body, "")

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "CONFLICT", resp.Code)
	assert.Equal(t, "asset_number already exists", resp.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAsset_IgnoresQRCode(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE assets SET status = $1, updated_at = now() WHERE id = $2 RETURNING")).
		WithArgs("rusak", int64(3)).
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns).
			AddRow(assetRow(3, "A-3", "tablet", "rusak", "QR_3")...))

	w := doRequest(s, http.MethodPut, "/assets/3", `{"status":"rusak","qr_code":"QR_forged"}`, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"qr_code":"QR_3"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAsset_NotFound(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectQuery(`UPDATE assets SET`).
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns))

	w := doRequest(s, http.MethodPut, "/assets/99", `{"notes":null}`, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAsset_NotFound(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE asset_id = $1")).
		WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assets WHERE id = $1")).
		WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := doRequest(s, http.MethodDelete, "/assets/5", nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchAssets(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assets WHERE")).
		WithArgs("laptop", "perbaikan").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .* FROM assets WHERE .* LIMIT 5 OFFSET 0`).
		WithArgs("laptop", "perbaikan").
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns).
			AddRow(assetRow(9, "A-9", "laptop", "perbaikan", "QR_9")...))

	w := doRequest(s, http.MethodGet, "/assets/search?category=laptop&status=perbaikan&limit=5", nil, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.Contains(t, w.Body.String(), `"limit":5`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchAssets_BadParams(t *testing.T) {
	s, mock := newTestServer(t, nil)

	w := doRequest(s, http.MethodGet, "/assets/search?page=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, http.MethodGet, "/assets/search?category=spaceship", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, w).Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanQRCode(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectQuery(`SELECT .* FROM assets WHERE qr_code = \$1`).
		WithArgs("QR_abc").
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns).
			AddRow(assetRow(1, "A-1", "smartphone", "baik", "QR_abc")...))
	mock.ExpectQuery(`SELECT .* FROM assets WHERE qr_code = \$1`).
		WithArgs("QR_missing").
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns))

	w := doRequest(s, http.MethodPost, "/qr/scan", `{"qr_code":"QR_abc"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"asset_number":"A-1"`)

	w = doRequest(s, http.MethodGet, "/qr/QR_missing", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null\n", w.Body.String())

	w = doRequest(s, http.MethodPost, "/qr/scan", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}
