package export

import (
	"html/template"
	"time"

	"gadget-inventory-api/internal/models"
)

type labelCount struct {
	Label string
	Count int
}

type reportRow struct {
	AssetNumber string
	Category    string
	Brand       string
	Type        string
	Serial      string
	User        string
	Unit        string
	Location    string
	Status      string
	Warranty    string
}

type reportData struct {
	GeneratedAt string
	Total       int
	ByStatus    []labelCount
	ByCategory  []labelCount
	Rows        []reportRow
}

// ordered counts values in the canonical order of keys, dropping empty buckets.
// Values outside keys are appended at the end in first-seen order.
func ordered(keys []string, values []string, label func(string) string) []labelCount {
	counts := map[string]int{}
	var extra []string
	known := map[string]bool{}
	for _, k := range keys {
		known[k] = true
	}
	for _, v := range values {
		if !known[v] && counts[v] == 0 {
			extra = append(extra, v)
		}
		counts[v]++
	}
	var out []labelCount
	for _, k := range append(append([]string{}, keys...), extra...) {
		if counts[k] > 0 {
			out = append(out, labelCount{Label: label(k), Count: counts[k]})
		}
	}
	return out
}

func buildReport(assets []models.Asset, at time.Time) reportData {
	statuses := make([]string, len(assets))
	categories := make([]string, len(assets))
	rows := make([]reportRow, len(assets))
	for i, a := range assets {
		statuses[i] = a.Status
		categories[i] = a.Category
		rows[i] = reportRow{
			AssetNumber: a.AssetNumber,
			Category:    models.CategoryLabel(a.Category),
			Brand:       opt(a.EquipmentBrand),
			Type:        opt(a.EquipmentType),
			Serial:      opt(a.SerialNumber),
			User:        opt(a.UserName),
			Unit:        opt(a.UserUnit),
			Location:    opt(a.UserLocation),
			Status:      models.StatusLabel(a.Status),
			Warranty:    opt(a.WarrantyDate),
		}
	}
	return reportData{
		GeneratedAt: at.Format("2006-01-02 15:04:05 MST"),
		Total:       len(assets),
		ByStatus:    ordered(models.Statuses, statuses, models.StatusLabel),
		ByCategory:  ordered(models.Categories, categories, models.CategoryLabel),
		Rows:        rows,
	}
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<title>Laporan Inventaris Gadget</title>
<style>
body { font-family: Arial, sans-serif; margin: 24px; }
table { border-collapse: collapse; width: 100%; margin-top: 12px; }
th, td { border: 1px solid #999; padding: 4px 8px; font-size: 12px; text-align: left; }
th { background: #eee; }
.summary td { border: none; }
</style>
</head>
<body>
<h1>Laporan Inventaris Gadget</h1>
<p>Dibuat: {{.GeneratedAt}}</p>
<h2>Ringkasan</h2>
<table class="summary">
<tr><td>Total Aset</td><td id="total">{{.Total}}</td></tr>
</table>
<h3>Per Status</h3>
<table class="summary">
{{- range .ByStatus}}
<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
<h3>Per Kategori</h3>
<table class="summary">
{{- range .ByCategory}}
<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
<h2>Detail Aset</h2>
<table class="detail">
<thead>
<tr><th>Nomor Aset</th><th>Kategori</th><th>Merek</th><th>Tipe</th><th>Nomor Seri</th><th>Pengguna</th><th>Unit</th><th>Lokasi</th><th>Status</th><th>Garansi</th></tr>
</thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.AssetNumber}}</td><td>{{.Category}}</td><td>{{.Brand}}</td><td>{{.Type}}</td><td>{{.Serial}}</td><td>{{.User}}</td><td>{{.Unit}}</td><td>{{.Location}}</td><td>{{.Status}}</td><td>{{.Warranty}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))
