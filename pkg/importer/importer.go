package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gadget-inventory-api/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tealeg/xlsx/v3"
)

// DefaultMappingPath is used when ImportOptions.MappingPath is empty.
const DefaultMappingPath = "configs/mapping/assets.yaml"

// ErrTooManyErrors aborts an import; nothing from it is committed.
var ErrTooManyErrors = errors.New("too many row errors")

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string
	DryRun      bool
	MaxErrors   int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

const maxSamples = 10

func (s *SheetSummary) addError(e RowError) {
	s.Errors++
	if len(s.Samples) < maxSamples {
		s.Samples = append(s.Samples, e)
	}
}

// ImportExcel upserts the assets of every mapped sheet in one transaction,
// keyed by asset_number. Each row runs in its own savepoint so a failing row
// does not abort the rest. A dry run performs every write and then rolls back.
func ImportExcel(ctx context.Context, db *pgxpool.Pool, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}
	if opts.MappingPath == "" {
		opts.MappingPath = DefaultMappingPath
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 50
	}

	mapping, err := LoadMapping(opts.MappingPath)
	if err != nil {
		return summary, fmt.Errorf("failed to load mapping config: %w", err)
	}

	// xlsx needs random access, so the upload is buffered
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, sheet := range xlFile.Sheets {
		sc, ok := mapping.sheetConfig(sheet.Name)
		if !ok {
			continue
		}
		rows, rowErrs, skipped := parseSheet(sheet, sc, mapping.Defaults)
		ss := SheetSummary{Name: sheet.Name, Skipped: skipped}
		for _, e := range rowErrs {
			ss.addError(e)
		}
		for _, row := range rows {
			inserted, err := upsertRow(ctx, tx, row)
			switch {
			case err != nil:
				ss.addError(RowError{Sheet: sheet.Name, Row: row.Line, Message: err.Error()})
			case inserted:
				ss.Inserted++
			default:
				ss.Updated++
			}
		}

		summary.Sheets = append(summary.Sheets, ss)
		summary.Inserted += ss.Inserted
		summary.Updated += ss.Updated
		summary.Skipped += ss.Skipped
		summary.Errors += ss.Errors

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("%w (%d), stopping import", ErrTooManyErrors, summary.Errors)
		}
	}

	if opts.DryRun {
		return summary, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return summary, fmt.Errorf("failed to commit import: %w", err)
	}
	return summary, nil
}

// upsertRow inserts or updates one asset inside a savepoint and reports
// whether a new row was created.
func upsertRow(ctx context.Context, tx pgx.Tx, row AssetRow) (bool, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return false, err
	}
	query, args := buildUpsert(row, repository.NewQRCode())
	var inserted bool
	if err := sp.QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
		_ = sp.Rollback(ctx)
		return false, describeRowError(err)
	}
	return inserted, sp.Commit(ctx)
}

// buildUpsert renders an INSERT ... ON CONFLICT (asset_number) DO UPDATE.
// Existing rows keep their qr_code and any column that was only defaulted.
// xmax = 0 holds only for freshly inserted tuples.
func buildUpsert(row AssetRow, qrCode string) (string, []interface{}) {
	fields := make([]string, 0, len(row.Values)+1)
	for f := range row.Values {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	args := make([]interface{}, 0, len(fields)+1)
	placeholders := make([]string, 0, len(fields)+1)
	updates := make([]string, 0, len(fields)+1)
	for i, f := range fields {
		args = append(args, row.Values[f])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		if f != "asset_number" && !row.Defaulted[f] {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", f, f))
		}
	}
	fields = append(fields, "qr_code")
	args = append(args, qrCode)
	placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	updates = append(updates, "updated_at = now()")

	query := fmt.Sprintf(`INSERT INTO assets (%s) VALUES (%s)
		ON CONFLICT (asset_number) DO UPDATE SET %s
		RETURNING (xmax = 0)`,
		strings.Join(fields, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
	return query, args
}

func describeRowError(err error) error {
	var ce *repository.ConstraintError
	if errors.As(repository.Classify(err), &ce) && ce.Field() != "" {
		return fmt.Errorf("%s already exists", ce.Field())
	}
	return err
}
