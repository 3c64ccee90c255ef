package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PatientStatus string

const (
	PatientPendingApproval PatientStatus = "pending_approval"
	PatientActive          PatientStatus = "active"
	PatientInactive        PatientStatus = "inactive"
	PatientDischarged      PatientStatus = "discharged"
	PatientPaused          PatientStatus = "paused"
)

func (s PatientStatus) Valid() bool {
	switch s {
	case PatientPendingApproval, PatientActive, PatientInactive, PatientDischarged, PatientPaused:
		return true
	}
	return false
}

// Patient is the clinical record head. Most profile fields are optional:
// self-registered patients start nearly empty and the counselor fills them
// in over time. SessionFee is the default charge for new sessions.
type Patient struct {
	ID                 int64            `json:"id"`
	CounselorID        int64            `json:"counselor_id"`
	FullName           string           `json:"full_name"`
	PhotoURL           *string          `json:"photo_url,omitempty"`
	Pronouns           *string          `json:"pronouns,omitempty"`
	BirthDate          *time.Time       `json:"birth_date,omitempty"`
	Birthplace         *string          `json:"birthplace,omitempty"`
	ContactChannels    map[string]any   `json:"contact_channels,omitempty"`
	MaritalStatus      *string          `json:"marital_status,omitempty"`
	PartnerName        *string          `json:"partner_name,omitempty"`
	RelationshipLength *string          `json:"relationship_length,omitempty"`
	ClinicalSummary    *string          `json:"clinical_summary,omitempty"`
	TreatmentStart     *time.Time       `json:"treatment_start,omitempty"`
	RecordFileURL      *string          `json:"record_file_url,omitempty"`
	DefaultSlot        *string          `json:"default_slot,omitempty"`
	SessionFee         *decimal.Decimal `json:"session_fee,omitempty"`
	PaymentDueDay      *int             `json:"payment_due_day,omitempty"`
	PushToken          *string          `json:"-"`
	Status             PatientStatus    `json:"status"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// PatientSummary is the mini-profile embedded in agenda events and invoice
// listings, small enough to repeat per row.
type PatientSummary struct {
	ID       int64   `json:"id"`
	FullName string  `json:"full_name"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

func (p *Patient) Summary() *PatientSummary {
	return &PatientSummary{ID: p.ID, FullName: p.FullName, PhotoURL: p.PhotoURL}
}
