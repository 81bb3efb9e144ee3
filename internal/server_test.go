package internal

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"gadget-inventory-api/internal/auth"
	"gadget-inventory-api/internal/config"
	"gadget-inventory-api/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "handler-test-secret-that-is-long-enough"

var fixedTime = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		HTTPAddr:      ":0",
		ExportDir:     t.TempDir(),
		TimeZone:      "UTC",
		LogLevel:      "info",
		LogFormat:     "json",
		EnableMetrics: true,
		JWTSecret:     testSecret,
		JWTIssuer:     "gadget-inventory-api",
		JWTAudience:   "gadget-inventory-api",
		JWTExpiry:     time.Hour,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if cfg == nil {
		cfg = testConfig(t)
	}
	return NewServer(db, nil, cfg, zap.NewNop()), mock
}

func doRequest(s *Server, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) auth.ErrorResponse {
	t.Helper()
	var resp auth.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// assetRow returns a full row in AssetColumns order with nullable columns left NULL.
func assetRow(id int64, number, category, status, qr string) []driver.Value {
	row := make([]driver.Value, len(repository.AssetColumns))
	for i, col := range repository.AssetColumns {
		switch col {
		case "id":
			row[i] = id
		case "asset_number":
			row[i] = number
		case "category":
			row[i] = category
		case "status":
			row[i] = status
		case "qr_code":
			row[i] = qr
		case "sent_to_regmis", "sent_to_jkto":
			row[i] = false
		case "created_at", "updated_at":
			row[i] = fixedTime
		}
	}
	return row
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestDBPing(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodGet, "/dbping", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "db: ok", w.Body.String())
}

func TestMetricsMountedWhenEnabled(t *testing.T) {
	s, _ := newTestServer(t, nil)
	doRequest(s, http.MethodGet, "/health", nil, "")

	w := doRequest(s, http.MethodGet, "/metrics", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/health"`)
}

func TestMetricsAbsentWhenDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.EnableMetrics = false
	s, _ := newTestServer(t, cfg)

	w := doRequest(s, http.MethodGet, "/metrics", nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthEnabled_RequiresToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthEnabled = true
	s, mock := newTestServer(t, cfg)

	w := doRequest(s, http.MethodGet, "/assets", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_AUTH_HEADER", decodeError(t, w).Code)

	// health stays public
	w = doRequest(s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthEnabled_WritesRequireAdmin(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthEnabled = true
	s, mock := newTestServer(t, cfg)

	userToken, err := s.JWTManager.GenerateToken("1001", auth.RoleUser)
	require.NoError(t, err)

	w := doRequest(s, http.MethodDelete, "/assets/1", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", decodeError(t, w).Code)

	// reads are open to any authenticated caller
	mock.ExpectQuery(`SELECT .* FROM assets ORDER BY created_at DESC, id DESC LIMIT 1000`).
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns))
	w = doRequest(s, http.MethodGet, "/assets", nil, userToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	adminToken, err := s.JWTManager.GenerateToken("1000", auth.RoleAdmin)
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE asset_id = $1")).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assets WHERE id = $1")).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	w = doRequest(s, http.MethodDelete, "/assets/1", nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownload(t *testing.T) {
	cfg := testConfig(t)
	s, _ := newTestServer(t, cfg)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ExportDir, "csv_20240501_093000_abcd1234.csv"), []byte("ID\n"), 0o644))

	w := doRequest(s, http.MethodGet, "/downloads/csv_20240501_093000_abcd1234.csv", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ID\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = doRequest(s, http.MethodGet, "/downloads/missing.csv", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(s, http.MethodGet, "/downloads/..%2Fconfig.yaml", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportCSVHandler(t *testing.T) {
	cfg := testConfig(t)
	s, mock := newTestServer(t, cfg)
	mock.ExpectQuery(`SELECT .* FROM assets ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(repository.AssetColumns).
			AddRow(assetRow(1, "A-1", "laptop", "baik", "QR_1")...))

	w := doRequest(s, http.MethodPost, "/exports/csv", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var artifact struct {
		FileURL  string `json:"file_url"`
		FileName string `json:"file_name"`
		Rows     int    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artifact))
	assert.Equal(t, 1, artifact.Rows)
	assert.Equal(t, "/downloads/"+artifact.FileName, artifact.FileURL)
	assert.FileExists(t, filepath.Join(cfg.ExportDir, artifact.FileName))
	assert.NoError(t, mock.ExpectationsWereMet())

	m := doRequest(s, http.MethodGet, "/metrics", nil, "")
	assert.Contains(t, m.Body.String(), `exports_total{format="csv"} 1`)
}

func TestInternalErrorIsGeneric(t *testing.T) {
	s, mock := newTestServer(t, nil)
	mock.ExpectQuery(`SELECT .* FROM assets ORDER BY created_at DESC`).
		WillReturnError(assert.AnError)

	w := doRequest(s, http.MethodGet, "/assets", nil, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
	assert.NotContains(t, resp.Error, assert.AnError.Error())
}

func TestImportsRouteRequiresMultipart(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodPost, "/imports/excel", `{}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "multipart/form-data")
}
