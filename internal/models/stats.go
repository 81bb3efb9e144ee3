package models

// DashboardStats is the aggregate returned by GET /dashboard/stats.
// Buckets with zero assets are omitted from the maps.
type DashboardStats struct {
	TotalAssets          int            `json:"total_assets"`
	AssetsByCategory     map[string]int `json:"assets_by_category"`
	AssetsByStatus       map[string]int `json:"assets_by_status"`
	AssetsByLocation     map[string]int `json:"assets_by_location"`
	WarrantyExpiringSoon int            `json:"warranty_expiring_soon"`
	AssetsInRepair       int            `json:"assets_in_repair"`
}

// ExportArtifact points at a generated export file
type ExportArtifact struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	Rows     int    `json:"rows"`
}
