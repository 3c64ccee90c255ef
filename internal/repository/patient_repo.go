package repository

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CreatePatientInput struct {
	CounselorID        int64
	FullName           string
	PhotoURL           *string
	Pronouns           *string
	BirthDate          *time.Time
	Birthplace         *string
	ContactChannels    map[string]any
	MaritalStatus      *string
	PartnerName        *string
	RelationshipLength *string
	ClinicalSummary    *string
	TreatmentStart     *time.Time
	RecordFileURL      *string
	DefaultSlot        *string
	SessionFee         *decimal.Decimal
	PaymentDueDay      *int
	Status             models.PatientStatus
}

type ApprovePatientInput struct {
	SessionFee    *decimal.Decimal
	DefaultSlot   *string
	PaymentDueDay *int
}

const patientColumns = `
	id, counselor_id, full_name, photo_url, pronouns, birth_date, birthplace,
	contact_channels, marital_status, partner_name, relationship_length,
	clinical_summary, treatment_start, record_file_url, default_slot,
	session_fee, payment_due_day, push_token, status, created_at, updated_at`

type PatientRepository struct {
	db DBTX
}

func NewPatientRepository(db DBTX) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, input CreatePatientInput) (*models.Patient, error) {
	query := `
		INSERT INTO patients (
			counselor_id, full_name, photo_url, pronouns, birth_date, birthplace,
			contact_channels, marital_status, partner_name, relationship_length,
			clinical_summary, treatment_start, record_file_url, default_slot,
			session_fee, payment_due_day, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING` + patientColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.CounselorID,
		input.FullName,
		input.PhotoURL,
		input.Pronouns,
		input.BirthDate,
		input.Birthplace,
		input.ContactChannels,
		input.MaritalStatus,
		input.PartnerName,
		input.RelationshipLength,
		input.ClinicalSummary,
		input.TreatmentStart,
		input.RecordFileURL,
		input.DefaultSlot,
		input.SessionFee,
		input.PaymentDueDay,
		input.Status,
	))
}

// GetByID looks a patient up without tenant scoping. Used only by the
// dispatcher, which resolves recipients outside any request context.
func (r *PatientRepository) GetByID(ctx context.Context, id int64) (*models.Patient, error) {
	query := `SELECT` + patientColumns + ` FROM patients WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetOwned returns the patient only if it belongs to the counselor. Missing
// and not-owned are indistinguishable to the caller.
func (r *PatientRepository) GetOwned(ctx context.Context, counselorID, patientID int64) (*models.Patient, error) {
	query := `SELECT` + patientColumns + ` FROM patients WHERE id = $1 AND counselor_id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, patientID, counselorID))
}

func (r *PatientRepository) ListByCounselor(ctx context.Context, counselorID int64) ([]models.Patient, error) {
	query := `SELECT` + patientColumns + ` FROM patients WHERE counselor_id = $1 ORDER BY full_name, id`
	rows, err := r.db.Query(ctx, query, counselorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *PatientRepository) Update(ctx context.Context, counselorID, patientID int64, input CreatePatientInput) (*models.Patient, error) {
	query := `
		UPDATE patients SET
			full_name = $3, photo_url = $4, pronouns = $5, birth_date = $6,
			birthplace = $7, contact_channels = $8, marital_status = $9,
			partner_name = $10, relationship_length = $11, clinical_summary = $12,
			treatment_start = $13, record_file_url = $14, default_slot = $15,
			session_fee = $16, payment_due_day = $17, updated_at = NOW()
		WHERE id = $1 AND counselor_id = $2
		RETURNING` + patientColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		patientID,
		counselorID,
		input.FullName,
		input.PhotoURL,
		input.Pronouns,
		input.BirthDate,
		input.Birthplace,
		input.ContactChannels,
		input.MaritalStatus,
		input.PartnerName,
		input.RelationshipLength,
		input.ClinicalSummary,
		input.TreatmentStart,
		input.RecordFileURL,
		input.DefaultSlot,
		input.SessionFee,
		input.PaymentDueDay,
	))
}

// Approve moves a pending patient to active and records the agreed terms.
// The WHERE clause enforces the pending_approval precondition atomically.
func (r *PatientRepository) Approve(ctx context.Context, counselorID, patientID int64, input ApprovePatientInput) (*models.Patient, error) {
	query := `
		UPDATE patients SET
			session_fee = COALESCE($3, session_fee),
			default_slot = COALESCE($4, default_slot),
			payment_due_day = COALESCE($5, payment_due_day),
			status = 'active',
			updated_at = NOW()
		WHERE id = $1 AND counselor_id = $2 AND status = 'pending_approval'
		RETURNING` + patientColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		patientID, counselorID, input.SessionFee, input.DefaultSlot, input.PaymentDueDay,
	))
}

// Delete cascades to sessions, invoices, tasks, check-ins, notes and
// notifications via foreign keys.
func (r *PatientRepository) Delete(ctx context.Context, counselorID, patientID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM patients WHERE id = $1 AND counselor_id = $2`, patientID, counselorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PatientRepository) UpdatePushToken(ctx context.Context, counselorID, patientID int64, token *string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE patients SET push_token = $3, updated_at = NOW() WHERE id = $1 AND counselor_id = $2`,
		patientID, counselorID, token)
	return err
}

func (r *PatientRepository) scanOne(row pgx.Row) (*models.Patient, error) {
	var p models.Patient
	if err := scanPatient(row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) scanAll(rows pgx.Rows) ([]models.Patient, error) {
	patients := make([]models.Patient, 0)
	for rows.Next() {
		var p models.Patient
		if err := scanPatient(rows, &p); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return patients, nil
}

func scanPatient(row pgx.Row, p *models.Patient) error {
	return row.Scan(
		&p.ID,
		&p.CounselorID,
		&p.FullName,
		&p.PhotoURL,
		&p.Pronouns,
		&p.BirthDate,
		&p.Birthplace,
		&p.ContactChannels,
		&p.MaritalStatus,
		&p.PartnerName,
		&p.RelationshipLength,
		&p.ClinicalSummary,
		&p.TreatmentStart,
		&p.RecordFileURL,
		&p.DefaultSlot,
		&p.SessionFee,
		&p.PaymentDueDay,
		&p.PushToken,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
