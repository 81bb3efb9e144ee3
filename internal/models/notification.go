package models

import "time"

// Notification types
const (
	NotificationWarrantyExpiring = "warranty_expiring"
	NotificationRepairReminder   = "repair_reminder"
	NotificationGeneral          = "general"
)

// Notification is an informational record attached to an asset
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	AssetID   int64     `json:"asset_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNotificationRequest is the body of POST /notifications. AssetID is a
// pointer so that an explicit null can be told apart and rejected.
type CreateNotificationRequest struct {
	Title   string `json:"title" validate:"required,min=1"`
	Message string `json:"message" validate:"required,min=1"`
	Type    string `json:"type" validate:"required,oneof=warranty_expiring repair_reminder general"`
	AssetID *int64 `json:"asset_id"`
}

// NewNotification is a row to be inserted by the generators
type NewNotification struct {
	Title   string
	Message string
	Type    string
	AssetID int64
}

// GenerateResult reports how many notifications a generator pass created
type GenerateResult struct {
	Created int `json:"created"`
}

// SuccessResponse acknowledges a mutation that has no other payload
type SuccessResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated,omitempty"`
}
