package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceState string

const (
	InvoicePending   InvoiceState = "pending"
	InvoicePaid      InvoiceState = "paid"
	InvoiceOverdue   InvoiceState = "overdue"
	InvoiceCancelled InvoiceState = "cancelled"
)

// Open reports whether the invoice may still be recomputed or have sessions
// detached. Paid and cancelled invoices are immutable.
func (s InvoiceState) Open() bool {
	return s != InvoicePaid && s != InvoiceCancelled
}

type Invoice struct {
	ID        int64           `json:"id"`
	PatientID int64           `json:"patient_id"`
	RefMonth  int             `json:"ref_month"`
	RefYear   int             `json:"ref_year"`
	Total     decimal.Decimal `json:"total"`
	State     InvoiceState    `json:"state"`
	DueDate   time.Time       `json:"due_date"`
	PaidAt    *time.Time      `json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// InvoiceDetail carries the patient mini-profile for dashboard listings.
type InvoiceDetail struct {
	Invoice
	Patient *PatientSummary `json:"patient,omitempty"`
}
