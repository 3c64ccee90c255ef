package services

import "errors"

var (
	// ErrNotFound covers both genuinely missing records and ownership
	// mismatches; another tenant's data must look identical to absent data.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is a caller mistake: malformed payload, end before
	// start, recurrence out of range.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState rejects an operation the current domain state does not
	// allow: confirming a non-scheduled session, paying a cancelled invoice,
	// approving a non-pending patient.
	ErrInvalidState = errors.New("invalid state for this operation")
	// ErrDuplicatePeriod means an invoice already exists for the
	// (patient, month, year) key.
	ErrDuplicatePeriod = errors.New("an invoice already exists for this period")
	// ErrNoBillableSessions means a period closure found nothing to invoice.
	ErrNoBillableSessions = errors.New("no billable sessions in this period")
	// ErrDuplicateNote means the session already has a clinical note.
	ErrDuplicateNote = errors.New("session already has a clinical note")
)
