package models

import (
	"fmt"
	"strings"
	"time"
)

// Asset categories.
const (
	CategorySmartphone  = "smartphone"
	CategoryTablet      = "tablet"
	CategoryLaptop      = "laptop"
	CategoryDesktop     = "desktop"
	CategoryPrinter     = "printer"
	CategoryScanner     = "scanner"
	CategoryRouter      = "router"
	CategorySwitch      = "switch"
	CategoryAccessPoint = "access_point"
	CategoryOther       = "other"
)

// Asset statuses.
const (
	StatusGood     = "baik"
	StatusDamaged  = "rusak"
	StatusInRepair = "perbaikan"
	StatusLost     = "hilang"
)

// Categories lists every category in display order.
var Categories = []string{
	CategorySmartphone, CategoryTablet, CategoryLaptop, CategoryDesktop, CategoryPrinter,
	CategoryScanner, CategoryRouter, CategorySwitch, CategoryAccessPoint, CategoryOther,
}

// Statuses lists every status in display order.
var Statuses = []string{StatusGood, StatusDamaged, StatusInRepair, StatusLost}

var categoryLabels = map[string]string{
	CategorySmartphone:  "Smartphone",
	CategoryTablet:      "Tablet",
	CategoryLaptop:      "Laptop",
	CategoryDesktop:     "Desktop",
	CategoryPrinter:     "Printer",
	CategoryScanner:     "Scanner",
	CategoryRouter:      "Router",
	CategorySwitch:      "Switch",
	CategoryAccessPoint: "Access Point",
	CategoryOther:       "Lainnya",
}

var statusLabels = map[string]string{
	StatusGood:     "Baik",
	StatusDamaged:  "Rusak",
	StatusInRepair: "Perbaikan",
	StatusLost:     "Hilang",
}

// CategoryLabel maps a category value to its display string. Unknown values
// are returned unchanged.
func CategoryLabel(c string) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return c
}

// StatusLabel maps a status value to its display string.
func StatusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

func IsValidCategory(c string) bool {
	_, ok := categoryLabels[c]
	return ok
}

func IsValidStatus(s string) bool {
	_, ok := statusLabels[s]
	return ok
}

// Asset is a physical gadget under management. The User* fields are a
// point-in-time copy of the assignee taken when the asset was written; they
// are never resolved against the users table.
type Asset struct {
	ID                   int64     `json:"id"`
	UserNIK              *string   `json:"user_nik"`
	UserName             *string   `json:"user_name"`
	UserPosition         *string   `json:"user_position"`
	UserUnit             *string   `json:"user_unit"`
	UserLocation         *string   `json:"user_location"`
	AssetNumber          string    `json:"asset_number"`
	InventoryNumber      *string   `json:"inventory_number"`
	IMEINumber           *string   `json:"imei_number"`
	SerialNumber         *string   `json:"serial_number"`
	WifiMACAddress       *string   `json:"wifi_mac_address"`
	PurchaseDate         *string   `json:"purchase_date"`
	WarrantyDate         *string   `json:"warranty_date"`
	Category             string    `json:"category"`
	EquipmentBrand       *string   `json:"equipment_brand"`
	EquipmentType        *string   `json:"equipment_type"`
	Supplier             *string   `json:"supplier"`
	APKHarv              *string   `json:"apk_harv"`
	APKUpk               *string   `json:"apk_upk"`
	APKNurs              *string   `json:"apk_nurs"`
	UUIDHarvesting       *string   `json:"uuid_harvesting"`
	UUIDUpkeep           *string   `json:"uuid_upkeep"`
	UUIDNursery          *string   `json:"uuid_nursery"`
	CodeHarvesting       *string   `json:"code_harvesting"`
	CodeUpkeep           *string   `json:"code_upkeep"`
	CodeNursery          *string   `json:"code_nursery"`
	CodeReplanting       *string   `json:"code_replanting"`
	UserIDEfact          *string   `json:"user_id_efact"`
	Status               string    `json:"status"`
	Notes                *string   `json:"notes"`
	RepairLocation       *string   `json:"repair_location"`
	SentToRegmis         bool      `json:"sent_to_regmis"`
	SentToJKTO           bool      `json:"sent_to_jkto"`
	RecommendationNumber *string   `json:"recommendation_number"`
	GadgetUsage          *string   `json:"gadget_usage"`
	QRCode               string    `json:"qr_code"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CreateAssetRequest is the body of POST /assets.
type CreateAssetRequest struct {
	UserNIK              *string `json:"user_nik"`
	UserName             *string `json:"user_name"`
	UserPosition         *string `json:"user_position"`
	UserUnit             *string `json:"user_unit"`
	UserLocation         *string `json:"user_location"`
	AssetNumber          string  `json:"asset_number" validate:"required"`
	InventoryNumber      *string `json:"inventory_number"`
	IMEINumber           *string `json:"imei_number"`
	SerialNumber         *string `json:"serial_number"`
	WifiMACAddress       *string `json:"wifi_mac_address"`
	PurchaseDate         *string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	WarrantyDate         *string `json:"warranty_date" validate:"omitempty,datetime=2006-01-02"`
	Category             string  `json:"category" validate:"required,oneof=smartphone tablet laptop desktop printer scanner router switch access_point other"`
	EquipmentBrand       *string `json:"equipment_brand"`
	EquipmentType        *string `json:"equipment_type"`
	Supplier             *string `json:"supplier"`
	APKHarv              *string `json:"apk_harv"`
	APKUpk               *string `json:"apk_upk"`
	APKNurs              *string `json:"apk_nurs"`
	UUIDHarvesting       *string `json:"uuid_harvesting"`
	UUIDUpkeep           *string `json:"uuid_upkeep"`
	UUIDNursery          *string `json:"uuid_nursery"`
	CodeHarvesting       *string `json:"code_harvesting"`
	CodeUpkeep           *string `json:"code_upkeep"`
	CodeNursery          *string `json:"code_nursery"`
	CodeReplanting       *string `json:"code_replanting"`
	UserIDEfact          *string `json:"user_id_efact"`
	Status               string  `json:"status" validate:"required,oneof=baik rusak perbaikan hilang"`
	Notes                *string `json:"notes"`
	RepairLocation       *string `json:"repair_location"`
	SentToRegmis         bool    `json:"sent_to_regmis"`
	SentToJKTO           bool    `json:"sent_to_jkto"`
	RecommendationNumber *string `json:"recommendation_number"`
	GadgetUsage          *string `json:"gadget_usage"`
}

// UpdateAssetRequest is the body of PUT /assets/{id}. Only keys present in
// the payload are applied; an explicit null clears the column.
type UpdateAssetRequest struct {
	UserNIK              Nullable[string] `json:"user_nik"`
	UserName             Nullable[string] `json:"user_name"`
	UserPosition         Nullable[string] `json:"user_position"`
	UserUnit             Nullable[string] `json:"user_unit"`
	UserLocation         Nullable[string] `json:"user_location"`
	AssetNumber          Nullable[string] `json:"asset_number"`
	InventoryNumber      Nullable[string] `json:"inventory_number"`
	IMEINumber           Nullable[string] `json:"imei_number"`
	SerialNumber         Nullable[string] `json:"serial_number"`
	WifiMACAddress       Nullable[string] `json:"wifi_mac_address"`
	PurchaseDate         Nullable[string] `json:"purchase_date"`
	WarrantyDate         Nullable[string] `json:"warranty_date"`
	Category             Nullable[string] `json:"category"`
	EquipmentBrand       Nullable[string] `json:"equipment_brand"`
	EquipmentType        Nullable[string] `json:"equipment_type"`
	Supplier             Nullable[string] `json:"supplier"`
	APKHarv              Nullable[string] `json:"apk_harv"`
	APKUpk               Nullable[string] `json:"apk_upk"`
	APKNurs              Nullable[string] `json:"apk_nurs"`
	UUIDHarvesting       Nullable[string] `json:"uuid_harvesting"`
	UUIDUpkeep           Nullable[string] `json:"uuid_upkeep"`
	UUIDNursery          Nullable[string] `json:"uuid_nursery"`
	CodeHarvesting       Nullable[string] `json:"code_harvesting"`
	CodeUpkeep           Nullable[string] `json:"code_upkeep"`
	CodeNursery          Nullable[string] `json:"code_nursery"`
	CodeReplanting       Nullable[string] `json:"code_replanting"`
	UserIDEfact          Nullable[string] `json:"user_id_efact"`
	Status               Nullable[string] `json:"status"`
	Notes                Nullable[string] `json:"notes"`
	RepairLocation       Nullable[string] `json:"repair_location"`
	SentToRegmis         Nullable[bool]   `json:"sent_to_regmis"`
	SentToJKTO           Nullable[bool]   `json:"sent_to_jkto"`
	RecommendationNumber Nullable[string] `json:"recommendation_number"`
	GadgetUsage          Nullable[string] `json:"gadget_usage"`
}

// FieldUpdate is one column assignment of a partial update.
type FieldUpdate struct {
	Column string
	Value  interface{}
}

// Changes flattens the request into the ordered list of column assignments
// that were present in the payload.
func (r UpdateAssetRequest) Changes() []FieldUpdate {
	out := make([]FieldUpdate, 0, 8)
	addStr := func(col string, n Nullable[string]) {
		if n.Set {
			out = append(out, FieldUpdate{col, n.DBValue()})
		}
	}
	addBool := func(col string, n Nullable[bool]) {
		if n.Set {
			out = append(out, FieldUpdate{col, n.DBValue()})
		}
	}
	addStr("user_nik", r.UserNIK)
	addStr("user_name", r.UserName)
	addStr("user_position", r.UserPosition)
	addStr("user_unit", r.UserUnit)
	addStr("user_location", r.UserLocation)
	addStr("asset_number", r.AssetNumber)
	addStr("inventory_number", r.InventoryNumber)
	addStr("imei_number", r.IMEINumber)
	addStr("serial_number", r.SerialNumber)
	addStr("wifi_mac_address", r.WifiMACAddress)
	addStr("purchase_date", r.PurchaseDate)
	addStr("warranty_date", r.WarrantyDate)
	addStr("category", r.Category)
	addStr("equipment_brand", r.EquipmentBrand)
	addStr("equipment_type", r.EquipmentType)
	addStr("supplier", r.Supplier)
	addStr("apk_harv", r.APKHarv)
	addStr("apk_upk", r.APKUpk)
	addStr("apk_nurs", r.APKNurs)
	addStr("uuid_harvesting", r.UUIDHarvesting)
	addStr("uuid_upkeep", r.UUIDUpkeep)
	addStr("uuid_nursery", r.UUIDNursery)
	addStr("code_harvesting", r.CodeHarvesting)
	addStr("code_upkeep", r.CodeUpkeep)
	addStr("code_nursery", r.CodeNursery)
	addStr("code_replanting", r.CodeReplanting)
	addStr("user_id_efact", r.UserIDEfact)
	addStr("status", r.Status)
	addStr("notes", r.Notes)
	addStr("repair_location", r.RepairLocation)
	addBool("sent_to_regmis", r.SentToRegmis)
	addBool("sent_to_jkto", r.SentToJKTO)
	addStr("recommendation_number", r.RecommendationNumber)
	addStr("gadget_usage", r.GadgetUsage)
	return out
}

// Validate rejects nulls on required columns and malformed enum/date values.
func (r UpdateAssetRequest) Validate() error {
	if r.AssetNumber.Set && (!r.AssetNumber.Valid || strings.TrimSpace(r.AssetNumber.Value) == "") {
		return fmt.Errorf("asset_number cannot be null or empty")
	}
	if r.Category.Set && (!r.Category.Valid || !IsValidCategory(r.Category.Value)) {
		return fmt.Errorf("invalid category")
	}
	if r.Status.Set && (!r.Status.Valid || !IsValidStatus(r.Status.Value)) {
		return fmt.Errorf("invalid status")
	}
	if r.SentToRegmis.Set && !r.SentToRegmis.Valid {
		return fmt.Errorf("sent_to_regmis cannot be null")
	}
	if r.SentToJKTO.Set && !r.SentToJKTO.Valid {
		return fmt.Errorf("sent_to_jkto cannot be null")
	}
	if r.PurchaseDate.Valid && !IsISODate(r.PurchaseDate.Value) {
		return fmt.Errorf("purchase_date must be YYYY-MM-DD")
	}
	if r.WarrantyDate.Valid && !IsISODate(r.WarrantyDate.Value) {
		return fmt.Errorf("warranty_date must be YYYY-MM-DD")
	}
	return nil
}

// AssetFilter holds the optional search options. Every set field narrows the
// result; unset fields are ignored.
type AssetFilter struct {
	SearchTerm     string `json:"search_term,omitempty"`
	Category       string `json:"category,omitempty" validate:"omitempty,oneof=smartphone tablet laptop desktop printer scanner router switch access_point other"`
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=baik rusak perbaikan hilang"`
	UserUnit       string `json:"user_unit,omitempty"`
	UserLocation   string `json:"user_location,omitempty"`
	EquipmentBrand string `json:"equipment_brand,omitempty"`
}

// AssetPage is a page of search results. Total ignores pagination.
type AssetPage struct {
	Items []Asset `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

// ScanRequest is the body of POST /qr/scan.
type ScanRequest struct {
	QRCode string `json:"qr_code" validate:"required"`
}
