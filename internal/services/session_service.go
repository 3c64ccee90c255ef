package services

import (
	"context"
	"errors"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	minRecurrenceSessions = 2
	maxRecurrenceSessions = 52
)

type sessionReminderScheduler interface {
	ScheduleSessionReminder(ctx context.Context, store notificationCreator, session *models.Session) (*models.Notification, error)
}

// SessionService owns session records and their lifecycle state; it is the
// canonical source of whether a session produced billable value.
type SessionService struct {
	db       *pgxpool.Pool
	notifier sessionReminderScheduler
}

func NewSessionService(db *pgxpool.Pool, notifier sessionReminderScheduler) *SessionService {
	return &SessionService{db: db, notifier: notifier}
}

type RecurrenceInput struct {
	IntervalDays  int `json:"interval_days"`
	TotalSessions int `json:"total_sessions"`
}

type CreateSessionsInput struct {
	PatientID     int64
	StartsAt      time.Time
	EndsAt        time.Time
	ChargedAmount *decimal.Decimal
	Recurrence    *RecurrenceInput
}

type UpdateSessionStateInput struct {
	State         models.SessionState
	ChargedAmount *decimal.Decimal
}

// CreateSessions creates one session, or a recurring series when Recurrence
// is set, as a single batch commit. Each created session schedules its
// 24h reminder inside the same transaction; reminders whose fire time is
// already past are skipped silently.
func (s *SessionService) CreateSessions(ctx context.Context, counselorID int64, input CreateSessionsInput) ([]models.Session, error) {
	if input.PatientID <= 0 || !input.EndsAt.After(input.StartsAt) {
		return nil, ErrInvalidInput
	}
	if r := input.Recurrence; r != nil {
		if r.IntervalDays < 1 || r.TotalSessions < minRecurrenceSessions || r.TotalSessions > maxRecurrenceSessions {
			return nil, ErrInvalidInput
		}
	}

	patient, err := repository.NewPatientRepository(s.db).GetOwned(ctx, counselorID, input.PatientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// The charged amount defaults to the patient's standard fee, but stays
	// editable per session.
	amount := input.ChargedAmount
	if amount == nil {
		amount = patient.SessionFee
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessions := repository.NewSessionRepository(tx)
	txNotifications := repository.NewNotificationRepository(tx)

	starts := occurrenceStarts(input.StartsAt, input.Recurrence)
	duration := input.EndsAt.Sub(input.StartsAt)

	sessions := make([]models.Session, 0, len(starts))
	for _, startsAt := range starts {
		session, err := txSessions.Create(ctx, repository.CreateSessionInput{
			PatientID:         input.PatientID,
			StartsAt:          startsAt,
			EndsAt:            startsAt.Add(duration),
			ChargedAmount:     amount,
			ConfirmationToken: uuid.NewString(),
		})
		if err != nil {
			return nil, err
		}
		if _, err := s.notifier.ScheduleSessionReminder(ctx, txNotifications, session); err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sessions, nil
}

// occurrenceStarts expands a recurrence into the series of start times:
// the first occurrence plus (total-1) repeats at the given day interval.
func occurrenceStarts(first time.Time, recurrence *RecurrenceInput) []time.Time {
	if recurrence == nil {
		return []time.Time{first}
	}
	starts := make([]time.Time, 0, recurrence.TotalSessions)
	for i := 0; i < recurrence.TotalSessions; i++ {
		starts = append(starts, first.AddDate(0, 0, i*recurrence.IntervalDays))
	}
	return starts
}

// UpdateState transitions the session and applies the billing consequences:
// a session linked to an open invoice keeps the invoice total in sync, and a
// transition out of a billable state detaches the session before the
// recompute. Paid and cancelled invoices are left untouched.
//
// Any state is reachable from any state here: operators use this endpoint to
// correct mistakes, so no transition table is enforced.
func (s *SessionService) UpdateState(ctx context.Context, counselorID, sessionID int64, input UpdateSessionStateInput) (*models.Session, error) {
	if !input.State.Valid() {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessions := repository.NewSessionRepository(tx)
	txInvoices := repository.NewInvoiceRepository(tx)

	session, err := txSessions.GetOwnedForUpdate(ctx, counselorID, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updated, err := txSessions.UpdateState(ctx, session.ID, input.State, input.ChargedAmount)
	if err != nil {
		return nil, err
	}

	if updated.InvoiceID != nil {
		invoice, err := txInvoices.GetByIDForUpdate(ctx, *updated.InvoiceID)
		if err != nil {
			return nil, err
		}
		if invoice.State.Open() {
			if !updated.State.Billable() {
				if err := txSessions.DetachFromInvoice(ctx, updated.ID); err != nil {
					return nil, err
				}
				updated.InvoiceID = nil
			}
			if _, err := txInvoices.RecomputeTotal(ctx, invoice.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// ConfirmByToken is the public confirmation-link flow: no authentication,
// the opaque token is the only credential. Only scheduled sessions can be
// confirmed, so a second call on the same token fails. The session service
// does not notify anyone; the caller triggers the counselor alert.
func (s *SessionService) ConfirmByToken(ctx context.Context, token string) (*models.Session, error) {
	sessions := repository.NewSessionRepository(s.db)

	session, err := sessions.GetByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if session.State != models.SessionScheduled {
		return nil, ErrInvalidState
	}

	confirmed, err := sessions.UpdateStateIfCurrent(ctx, session.ID, models.SessionScheduled, models.SessionConfirmed)
	if err != nil {
		// Lost a race with another confirmation or a state update.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	return confirmed, nil
}

func (s *SessionService) ListByPatient(ctx context.Context, counselorID, patientID int64, offset, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return repository.NewSessionRepository(s.db).ListByPatient(ctx, counselorID, patientID, offset, limit)
}
