package models

import (
	"fmt"
	"strings"
	"time"
)

// User types
const (
	UserTypeAdmin = "admin"
	UserTypeUser  = "user"
)

// User represents an employee that assets can be assigned to
type User struct {
	ID        int64     `json:"id"`
	NIK       string    `json:"nik"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Unit      string    `json:"unit"`
	Location  string    `json:"location"`
	UserType  string    `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest represents the request body for creating a new user
type CreateUserRequest struct {
	NIK      string `json:"nik" validate:"required,min=1"`
	Name     string `json:"name" validate:"required,min=1"`
	Position string `json:"position" validate:"required,min=1"`
	Unit     string `json:"unit" validate:"required,min=1"`
	Location string `json:"location" validate:"required,min=1"`
	UserType string `json:"user_type" validate:"required,oneof=admin user"`
}

// UpdateUserRequest represents the request body for updating a user.
// Every column is NOT NULL, so an explicit null is rejected by Validate.
type UpdateUserRequest struct {
	NIK      Nullable[string] `json:"nik"`
	Name     Nullable[string] `json:"name"`
	Position Nullable[string] `json:"position"`
	Unit     Nullable[string] `json:"unit"`
	Location Nullable[string] `json:"location"`
	UserType Nullable[string] `json:"user_type"`
}

// Changes returns the column assignments present in the payload
func (r UpdateUserRequest) Changes() []FieldUpdate {
	out := make([]FieldUpdate, 0, 6)
	for _, f := range []struct {
		col string
		val Nullable[string]
	}{
		{"nik", r.NIK},
		{"name", r.Name},
		{"position", r.Position},
		{"unit", r.Unit},
		{"location", r.Location},
		{"user_type", r.UserType},
	} {
		if f.val.Set {
			out = append(out, FieldUpdate{Column: f.col, Value: f.val.DBValue()})
		}
	}
	return out
}

// Validate checks nulls, empties and the user_type enum
func (r UpdateUserRequest) Validate() error {
	for _, f := range []struct {
		name string
		val  Nullable[string]
	}{
		{"nik", r.NIK},
		{"name", r.Name},
		{"position", r.Position},
		{"unit", r.Unit},
		{"location", r.Location},
		{"user_type", r.UserType},
	} {
		if f.val.Set && (!f.val.Valid || strings.TrimSpace(f.val.Value) == "") {
			return fmt.Errorf("%s cannot be null or empty", f.name)
		}
	}
	if r.UserType.Valid && r.UserType.Value != UserTypeAdmin && r.UserType.Value != UserTypeUser {
		return fmt.Errorf("user_type must be admin or user")
	}
	return nil
}

// UserFilter holds the optional list options for GET /users
type UserFilter struct {
	Search   string
	UserType string
	Unit     string
	Location string
	Page     int
	Limit    int
}
