package models

import "time"

// Counselor is the tenant. Every domain row hangs off a counselor, directly
// or through a patient, and all scoped queries filter by counselor id.
type Counselor struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     *string   `json:"photo_url,omitempty"`
	IntakeSlug   string    `json:"intake_slug"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
