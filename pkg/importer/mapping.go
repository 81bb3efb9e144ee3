package importer

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gadget-inventory-api/internal/models"
	"gadget-inventory-api/internal/repository"

	"github.com/tealeg/xlsx/v3"
	"gopkg.in/yaml.v3"
)

// Column types understood by the mapping.
const (
	TypeText     = "TEXT"
	TypeDate     = "DATE"
	TypeBool     = "BOOL"
	TypeCategory = "CATEGORY"
	TypeStatus   = "STATUS"
)

// MappingConfig represents the YAML mapping configuration
type MappingConfig struct {
	Version  int                    `yaml:"version"`
	Defaults map[string]string      `yaml:"defaults"`
	Sheets   map[string]SheetConfig `yaml:"sheets"`
}

// SheetConfig maps the headers of one sheet. Aliases are keyed by the
// canonical header used in Columns.
type SheetConfig struct {
	NaturalKey string                  `yaml:"natural_key"`
	Aliases    map[string][]string     `yaml:"aliases"`
	Columns    map[string]ColumnConfig `yaml:"columns"`
}

type ColumnConfig struct {
	Field string `yaml:"field"`
	Type  string `yaml:"type"`
}

// AssetRow is one converted data row, keyed by asset column.
type AssetRow struct {
	Line   int
	Values map[string]interface{}
	// Defaulted columns were filled from MappingConfig.Defaults and are not
	// applied to rows that already exist.
	Defaulted map[string]bool
}

// LoadMapping reads and checks a mapping file.
func LoadMapping(path string) (*MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var m MappingConfig
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return &m, nil
}

func (m *MappingConfig) validate() error {
	if len(m.Sheets) == 0 {
		return fmt.Errorf("no sheets configured")
	}
	for name, sc := range m.Sheets {
		if sc.NaturalKey != "asset_number" {
			return fmt.Errorf("sheet %q: natural_key must be asset_number", name)
		}
		hasKey := false
		for header, col := range sc.Columns {
			switch col.Type {
			case TypeText, TypeDate, TypeBool, TypeCategory, TypeStatus:
			default:
				return fmt.Errorf("sheet %q column %q: unknown type %q", name, header, col.Type)
			}
			if !repository.IsWritableAssetColumn(col.Field) {
				return fmt.Errorf("sheet %q column %q: field %q is not a writable asset column", name, header, col.Field)
			}
			if col.Field == sc.NaturalKey {
				hasKey = true
			}
		}
		if !hasKey {
			return fmt.Errorf("sheet %q: no column maps to %s", name, sc.NaturalKey)
		}
	}
	if v, ok := m.Defaults["category"]; ok && !models.IsValidCategory(v) {
		return fmt.Errorf("default category %q is invalid", v)
	}
	if v, ok := m.Defaults["status"]; ok && !models.IsValidStatus(v) {
		return fmt.Errorf("default status %q is invalid", v)
	}
	return nil
}

// sheetConfig looks a sheet up by name, ignoring case.
func (m *MappingConfig) sheetConfig(name string) (SheetConfig, bool) {
	if sc, ok := m.Sheets[name]; ok {
		return sc, true
	}
	for k, sc := range m.Sheets {
		if strings.EqualFold(k, name) {
			return sc, true
		}
	}
	return SheetConfig{}, false
}

// resolveHeaders maps column index to column config for every header the
// sheet config knows, directly or through an alias.
func (sc SheetConfig) resolveHeaders(headers []string) map[int]ColumnConfig {
	lookup := make(map[string]ColumnConfig, len(sc.Columns))
	for header, col := range sc.Columns {
		lookup[strings.ToUpper(header)] = col
	}
	for canonical, aliases := range sc.Aliases {
		col, ok := sc.Columns[canonical]
		if !ok {
			continue
		}
		for _, alias := range aliases {
			lookup[strings.ToUpper(alias)] = col
		}
	}

	out := make(map[int]ColumnConfig)
	for i, h := range headers {
		if col, ok := lookup[strings.ToUpper(strings.TrimSpace(h))]; ok {
			out[i] = col
		}
	}
	return out
}

// parseSheet converts the data rows of a sheet. Rows with no mapped value
// are counted as skipped; rows that fail conversion become RowErrors.
func parseSheet(sheet *xlsx.Sheet, sc SheetConfig, defaults map[string]string) ([]AssetRow, []RowError, int) {
	if sheet.MaxRow == 0 {
		return nil, nil, 0
	}
	headerRow, err := sheet.Row(0)
	if err != nil {
		return nil, []RowError{{Sheet: sheet.Name, Row: 1, Message: "failed to read header row: " + err.Error()}}, 0
	}
	headers := make([]string, sheet.MaxCol)
	for c := 0; c < sheet.MaxCol; c++ {
		headers[c] = headerRow.GetCell(c).String()
	}
	cols := sc.resolveHeaders(headers)

	var rows []AssetRow
	var errs []RowError
	skipped := 0
	for r := 1; r < sheet.MaxRow; r++ {
		row, err := sheet.Row(r)
		if err != nil {
			errs = append(errs, RowError{Sheet: sheet.Name, Row: r + 1, Message: err.Error()})
			continue
		}
		raw := make(map[int]string, len(cols))
		for c, col := range cols {
			cell := row.GetCell(c)
			v := cell.String()
			if col.Type == TypeDate {
				v = cell.Value
			}
			if v = strings.TrimSpace(v); v != "" {
				raw[c] = v
			}
		}
		if len(raw) == 0 {
			skipped++
			continue
		}
		ar, err := convertRow(raw, cols, sc.NaturalKey, defaults)
		if err != nil {
			errs = append(errs, RowError{Sheet: sheet.Name, Row: r + 1, Message: err.Error()})
			continue
		}
		ar.Line = r + 1
		rows = append(rows, ar)
	}
	return rows, errs, skipped
}

func convertRow(raw map[int]string, cols map[int]ColumnConfig, naturalKey string, defaults map[string]string) (AssetRow, error) {
	ar := AssetRow{Values: make(map[string]interface{}, len(raw)), Defaulted: map[string]bool{}}

	idx := make([]int, 0, len(raw))
	for c := range raw {
		idx = append(idx, c)
	}
	sort.Ints(idx)
	for _, c := range idx {
		col := cols[c]
		v, err := convertValue(col.Type, raw[c])
		if err != nil {
			return ar, fmt.Errorf("%s: %w", col.Field, err)
		}
		ar.Values[col.Field] = v
	}

	if _, ok := ar.Values[naturalKey]; !ok {
		return ar, fmt.Errorf("%s is required", naturalKey)
	}
	for _, field := range []string{"category", "status"} {
		if _, ok := ar.Values[field]; ok {
			continue
		}
		def, ok := defaults[field]
		if !ok {
			return ar, fmt.Errorf("%s is required", field)
		}
		ar.Values[field] = def
		ar.Defaulted[field] = true
	}
	return ar, nil
}

func convertValue(typ, v string) (interface{}, error) {
	switch typ {
	case TypeDate:
		return parseDate(v)
	case TypeBool:
		return parseBool(v)
	case TypeCategory:
		return matchEnum(v, models.Categories, models.CategoryLabel, "category")
	case TypeStatus:
		return matchEnum(v, models.Statuses, models.StatusLabel, "status")
	}
	return v, nil
}

var dateLayouts = []string{models.DateLayout, "02/01/2006", "2/1/2006", "02-01-2006", "2006/01/02"}

// excelEpoch is day zero of the 1900 date system, shifted for the leap-year bug.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// parseDate accepts ISO and day-first dates as well as raw spreadsheet
// serial numbers, and returns YYYY-MM-DD.
func parseDate(v string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(models.DateLayout), nil
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial >= 1 && serial < 2958466 {
		days := int(math.Floor(serial))
		return excelEpoch.AddDate(0, 0, days).Format(models.DateLayout), nil
	}
	return "", fmt.Errorf("unrecognised date %q", v)
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "ya", "y", "yes", "true", "1":
		return true, nil
	case "tidak", "n", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("unrecognised boolean %q", v)
}

// matchEnum accepts the stored value or its display label, ignoring case and
// treating spaces like underscores.
func matchEnum(v string, values []string, label func(string) string, kind string) (string, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "_")
	for _, candidate := range values {
		if norm == candidate || strings.EqualFold(v, label(candidate)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown %s %q", kind, v)
}
