// Package export renders the asset inventory into downloadable files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gadget-inventory-api/internal/models"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/zap"
)

// Export kinds, also used as file name prefixes and metric labels.
const (
	KindCSV    = "csv"
	KindReport = "report"
	KindXLSX   = "xlsx"
)

// AssetSource yields the full inventory.
type AssetSource interface {
	ListAll(ctx context.Context) ([]models.Asset, error)
}

// Renderer writes export files into Dir and addresses them under URLPrefix.
type Renderer struct {
	assets    AssetSource
	dir       string
	urlPrefix string
	logger    *zap.Logger
	Now       func() time.Time
	Location  *time.Location
}

func NewRenderer(assets AssetSource, dir, urlPrefix string, loc *time.Location, logger *zap.Logger) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		assets:    assets,
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		logger:    logger,
		Now:       time.Now,
		Location:  loc,
	}
}

// ExportDelimited writes every asset as a CSV row under a labelled header.
func (r *Renderer) ExportDelimited(ctx context.Context) (*models.ExportArtifact, error) {
	return r.export(ctx, KindCSV, "csv", func(w io.Writer, assets []models.Asset, _ time.Time) error {
		cols := assetColumns(r.Location)
		cw := csv.NewWriter(w)
		if err := cw.Write(headers(cols)); err != nil {
			return err
		}
		for _, a := range assets {
			if err := cw.Write(record(cols, a)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// ExportReport writes a printable HTML summary plus a detail table.
func (r *Renderer) ExportReport(ctx context.Context) (*models.ExportArtifact, error) {
	return r.export(ctx, KindReport, "html", func(w io.Writer, assets []models.Asset, at time.Time) error {
		return reportTemplate.Execute(w, buildReport(assets, at))
	})
}

// ExportSpreadsheet writes the same columns as the CSV export to an xlsx workbook.
func (r *Renderer) ExportSpreadsheet(ctx context.Context) (*models.ExportArtifact, error) {
	return r.export(ctx, KindXLSX, "xlsx", func(w io.Writer, assets []models.Asset, _ time.Time) error {
		cols := assetColumns(r.Location)
		f := xlsx.NewFile()
		sheet, err := f.AddSheet("Assets")
		if err != nil {
			return err
		}
		addRow := func(values []string) {
			row := sheet.AddRow()
			for _, v := range values {
				row.AddCell().SetString(v)
			}
		}
		addRow(headers(cols))
		for _, a := range assets {
			addRow(record(cols, a))
		}
		return f.Write(w)
	})
}

func (r *Renderer) fileName(kind, ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.%s", kind, at.Format("20060102_150405"), uuid.NewString()[:8], ext)
}

func (r *Renderer) export(ctx context.Context, kind, ext string, render func(io.Writer, []models.Asset, time.Time) error) (*models.ExportArtifact, error) {
	assets, err := r.assets.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s export: %w", kind, err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s export: %w", kind, err)
	}

	at := r.Now().In(r.Location)
	name := r.fileName(kind, ext, at)
	path := filepath.Join(r.dir, name)

	// O_EXCL: an artifact is never overwritten.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s export: %w", kind, err)
	}
	if err := render(f, assets, at); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%s export: %w", kind, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%s export: %w", kind, err)
	}

	r.logger.Info("export written",
		zap.String("kind", kind),
		zap.String("file", name),
		zap.Int("rows", len(assets)))
	return &models.ExportArtifact{
		FileURL:  r.urlPrefix + "/" + name,
		FileName: name,
		Rows:     len(assets),
	}, nil
}

// Path resolves a file name previously returned in an artifact. Names with
// path separators are rejected.
func (r *Renderer) Path(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return filepath.Join(r.dir, name), true
}
