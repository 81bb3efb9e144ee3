package models

import "time"

// DateLayout is the storage format of purchase_date and warranty_date.
const DateLayout = "2006-01-02"

const (
	// WarrantyWindowDays is how far ahead an expiring warranty is flagged.
	WarrantyWindowDays = 30
	// RepairReminderAge is how long an asset may sit in repair untouched
	// before a reminder is raised, and how long a reminder suppresses the next.
	RepairReminderAge = 7 * 24 * time.Hour
)

// IsISODate reports whether s is a valid YYYY-MM-DD calendar date.
func IsISODate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// WarrantyWindow returns the inclusive [today, today+30d] bounds as
// fixed-width date strings, so they compare correctly against the text column.
func WarrantyWindow(now time.Time) (from, to string) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return today.Format(DateLayout), today.AddDate(0, 0, WarrantyWindowDays).Format(DateLayout)
}
