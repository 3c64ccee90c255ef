package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionState string

const (
	SessionScheduled          SessionState = "scheduled"
	SessionConfirmed          SessionState = "confirmed"
	SessionCompleted          SessionState = "completed"
	SessionChargedNoShow      SessionState = "charged_no_show"
	SessionCancelledByPatient SessionState = "cancelled_by_patient"
	SessionRescheduled        SessionState = "rescheduled"
)

func (s SessionState) Valid() bool {
	switch s {
	case SessionScheduled, SessionConfirmed, SessionCompleted,
		SessionChargedNoShow, SessionCancelledByPatient, SessionRescheduled:
		return true
	}
	return false
}

// Billable reports whether a session in this state counts toward an invoice
// total. This predicate is the sole gate for invoice inclusion.
func (s SessionState) Billable() bool {
	return s == SessionCompleted || s == SessionChargedNoShow
}

type Session struct {
	ID            int64            `json:"id"`
	PatientID     int64            `json:"patient_id"`
	StartsAt      time.Time        `json:"starts_at"`
	EndsAt        time.Time        `json:"ends_at"`
	State         SessionState     `json:"state"`
	ChargedAmount *decimal.Decimal `json:"charged_amount"`
	// Non-nil means the session has already been invoiced.
	InvoiceID         *int64    `json:"invoice_id"`
	ConfirmationToken string    `json:"confirmation_token"`
	CreatedAt         time.Time `json:"created_at"`
}
