package export

import (
	"strconv"
	"time"

	"gadget-inventory-api/internal/models"
)

type column struct {
	Label string
	Value func(a models.Asset) string
}

func opt(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Ya"
	}
	return "Tidak"
}

func stamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04:05")
}

// assetColumns lists every exported asset column in header order.
func assetColumns(loc *time.Location) []column {
	return []column{
		{"ID", func(a models.Asset) string { return strconv.FormatInt(a.ID, 10) }},
		{"NIK Pengguna", func(a models.Asset) string { return opt(a.UserNIK) }},
		{"Nama Pengguna", func(a models.Asset) string { return opt(a.UserName) }},
		{"Jabatan", func(a models.Asset) string { return opt(a.UserPosition) }},
		{"Unit", func(a models.Asset) string { return opt(a.UserUnit) }},
		{"Lokasi", func(a models.Asset) string { return opt(a.UserLocation) }},
		{"Nomor Aset", func(a models.Asset) string { return a.AssetNumber }},
		{"Nomor Inventaris", func(a models.Asset) string { return opt(a.InventoryNumber) }},
		{"Nomor IMEI", func(a models.Asset) string { return opt(a.IMEINumber) }},
		{"Nomor Seri", func(a models.Asset) string { return opt(a.SerialNumber) }},
		{"MAC Address WiFi", func(a models.Asset) string { return opt(a.WifiMACAddress) }},
		{"Tanggal Pembelian", func(a models.Asset) string { return opt(a.PurchaseDate) }},
		{"Tanggal Garansi", func(a models.Asset) string { return opt(a.WarrantyDate) }},
		{"Kategori", func(a models.Asset) string { return models.CategoryLabel(a.Category) }},
		{"Merek", func(a models.Asset) string { return opt(a.EquipmentBrand) }},
		{"Tipe", func(a models.Asset) string { return opt(a.EquipmentType) }},
		{"Supplier", func(a models.Asset) string { return opt(a.Supplier) }},
		{"APK Harvesting", func(a models.Asset) string { return opt(a.APKHarv) }},
		{"APK Upkeep", func(a models.Asset) string { return opt(a.APKUpk) }},
		{"APK Nursery", func(a models.Asset) string { return opt(a.APKNurs) }},
		{"UUID Harvesting", func(a models.Asset) string { return opt(a.UUIDHarvesting) }},
		{"UUID Upkeep", func(a models.Asset) string { return opt(a.UUIDUpkeep) }},
		{"UUID Nursery", func(a models.Asset) string { return opt(a.UUIDNursery) }},
		{"Kode Harvesting", func(a models.Asset) string { return opt(a.CodeHarvesting) }},
		{"Kode Upkeep", func(a models.Asset) string { return opt(a.CodeUpkeep) }},
		{"Kode Nursery", func(a models.Asset) string { return opt(a.CodeNursery) }},
		{"Kode Replanting", func(a models.Asset) string { return opt(a.CodeReplanting) }},
		{"User ID eFact", func(a models.Asset) string { return opt(a.UserIDEfact) }},
		{"Status", func(a models.Asset) string { return models.StatusLabel(a.Status) }},
		{"Catatan", func(a models.Asset) string { return opt(a.Notes) }},
		{"Lokasi Perbaikan", func(a models.Asset) string { return opt(a.RepairLocation) }},
		{"Dikirim ke REGMIS", func(a models.Asset) string { return yesNo(a.SentToRegmis) }},
		{"Dikirim ke JKTO", func(a models.Asset) string { return yesNo(a.SentToJKTO) }},
		{"Nomor Rekomendasi", func(a models.Asset) string { return opt(a.RecommendationNumber) }},
		{"Penggunaan Gadget", func(a models.Asset) string { return opt(a.GadgetUsage) }},
		{"Kode QR", func(a models.Asset) string { return a.QRCode }},
		{"Dibuat", func(a models.Asset) string { return stamp(a.CreatedAt, loc) }},
		{"Diperbarui", func(a models.Asset) string { return stamp(a.UpdatedAt, loc) }},
	}
}

func headers(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Label
	}
	return out
}

func record(cols []column, a models.Asset) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Value(a)
	}
	return out
}
