package repository

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CreateSessionInput struct {
	PatientID         int64
	StartsAt          time.Time
	EndsAt            time.Time
	ChargedAmount     *decimal.Decimal
	ConfirmationToken string
}

const sessionColumns = `
	id, patient_id, starts_at, ends_at, state, charged_amount, invoice_id,
	confirmation_token, created_at`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := `
		INSERT INTO sessions (patient_id, starts_at, ends_at, state, charged_amount, confirmation_token)
		VALUES ($1, $2, $3, 'scheduled', $4, $5)
		RETURNING` + sessionColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.PatientID,
		input.StartsAt,
		input.EndsAt,
		input.ChargedAmount,
		input.ConfirmationToken,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	query := `SELECT` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetOwned resolves ownership through the patient: a session of another
// tenant's patient behaves exactly like a missing one.
func (r *SessionRepository) GetOwned(ctx context.Context, counselorID, sessionID int64) (*models.Session, error) {
	query := `
		SELECT s.id, s.patient_id, s.starts_at, s.ends_at, s.state, s.charged_amount,
		       s.invoice_id, s.confirmation_token, s.created_at
		FROM sessions s
		JOIN patients p ON p.id = s.patient_id
		WHERE s.id = $1 AND p.counselor_id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, counselorID))
}

// GetOwnedForUpdate locks the session row for the duration of the caller's
// transaction.
func (r *SessionRepository) GetOwnedForUpdate(ctx context.Context, counselorID, sessionID int64) (*models.Session, error) {
	query := `
		SELECT s.id, s.patient_id, s.starts_at, s.ends_at, s.state, s.charged_amount,
		       s.invoice_id, s.confirmation_token, s.created_at
		FROM sessions s
		JOIN patients p ON p.id = s.patient_id
		WHERE s.id = $1 AND p.counselor_id = $2
		FOR UPDATE OF s
	`
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, counselorID))
}

func (r *SessionRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.Session, error) {
	query := `SELECT` + sessionColumns + ` FROM sessions WHERE confirmation_token = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, token))
}

func (r *SessionRepository) ListByPatient(ctx context.Context, counselorID, patientID int64, offset, limit int) ([]models.Session, error) {
	query := `
		SELECT s.id, s.patient_id, s.starts_at, s.ends_at, s.state, s.charged_amount,
		       s.invoice_id, s.confirmation_token, s.created_at
		FROM sessions s
		JOIN patients p ON p.id = s.patient_id
		WHERE s.patient_id = $1 AND p.counselor_id = $2
		ORDER BY s.starts_at, s.id
		OFFSET $3 LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, patientID, counselorID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListUninvoicedBillable selects the sessions eligible for a period closure:
// billable state, no invoice yet, start inside [periodStart, periodEnd).
func (r *SessionRepository) ListUninvoicedBillable(ctx context.Context, patientID int64, periodStart, periodEnd time.Time) ([]models.Session, error) {
	query := `
		SELECT` + sessionColumns + `
		FROM sessions
		WHERE patient_id = $1
		  AND invoice_id IS NULL
		  AND state IN ('completed', 'charged_no_show')
		  AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at, id
		FOR UPDATE
	`
	rows, err := r.db.Query(ctx, query, patientID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// UpdateState sets the new state and, when amount is non-nil, overwrites the
// charged amount in the same statement.
func (r *SessionRepository) UpdateState(ctx context.Context, sessionID int64, state models.SessionState, amount *decimal.Decimal) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET state = $2, charged_amount = COALESCE($3, charged_amount)
		WHERE id = $1
		RETURNING` + sessionColumns
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, state, amount))
}

// UpdateStateIfCurrent is a compare-and-set transition guard; pgx.ErrNoRows
// means the session was no longer in currentState.
func (r *SessionRepository) UpdateStateIfCurrent(ctx context.Context, sessionID int64, currentState, nextState models.SessionState) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET state = $3
		WHERE id = $1 AND state = $2
		RETURNING` + sessionColumns
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, currentState, nextState))
}

func (r *SessionRepository) LinkToInvoice(ctx context.Context, sessionIDs []int64, invoiceID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sessions SET invoice_id = $2 WHERE id = ANY($1)`, sessionIDs, invoiceID)
	return err
}

// DetachFromInvoice clears the invoice reference, used when a linked session
// stops being billable while the invoice is still open.
func (r *SessionRepository) DetachFromInvoice(ctx context.Context, sessionID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE sessions SET invoice_id = NULL WHERE id = $1`, sessionID)
	return err
}

// ListInRange returns sessions for the timeline/agenda, anchored on starts_at.
func (r *SessionRepository) ListInRange(ctx context.Context, patientIDs []int64, from, to time.Time, limit int) ([]models.Session, error) {
	query := `
		SELECT` + sessionColumns + `
		FROM sessions
		WHERE patient_id = ANY($1) AND starts_at >= $2 AND starts_at <= $3
		ORDER BY starts_at, id
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, patientIDs, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *SessionRepository) scanOne(row pgx.Row) (*models.Session, error) {
	var s models.Session
	if err := scanSession(row, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) scanAll(rows pgx.Rows) ([]models.Session, error) {
	sessions := make([]models.Session, 0)
	for rows.Next() {
		var s models.Session
		if err := scanSession(rows, &s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanSession(row pgx.Row, s *models.Session) error {
	return row.Scan(
		&s.ID,
		&s.PatientID,
		&s.StartsAt,
		&s.EndsAt,
		&s.State,
		&s.ChargedAmount,
		&s.InvoiceID,
		&s.ConfirmationToken,
		&s.CreatedAt,
	)
}
