package repository

import (
	"context"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
)

type CreateClinicalNoteInput struct {
	PatientID int64
	SessionID int64
	Content   string
	Kind      models.NoteKind
}

const noteColumns = `
	id, patient_id, session_id, content, kind, recorded_at`

type ClinicalNoteRepository struct {
	db DBTX
}

func NewClinicalNoteRepository(db DBTX) *ClinicalNoteRepository {
	return &ClinicalNoteRepository{db: db}
}

func (r *ClinicalNoteRepository) Create(ctx context.Context, input CreateClinicalNoteInput) (*models.ClinicalNote, error) {
	query := `
		INSERT INTO clinical_notes (patient_id, session_id, content, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING` + noteColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.PatientID, input.SessionID, input.Content, input.Kind,
	))
}

func (r *ClinicalNoteRepository) GetOwned(ctx context.Context, counselorID, noteID int64) (*models.ClinicalNote, error) {
	query := `
		SELECT n.id, n.patient_id, n.session_id, n.content, n.kind, n.recorded_at
		FROM clinical_notes n
		JOIN patients p ON p.id = n.patient_id
		WHERE n.id = $1 AND p.counselor_id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, noteID, counselorID))
}

func (r *ClinicalNoteRepository) UpdateContent(ctx context.Context, noteID int64, content string) (*models.ClinicalNote, error) {
	query := `
		UPDATE clinical_notes SET content = $2 WHERE id = $1
		RETURNING` + noteColumns
	return r.scanOne(r.db.QueryRow(ctx, query, noteID, content))
}

func (r *ClinicalNoteRepository) ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.ClinicalNote, error) {
	query := `
		SELECT n.id, n.patient_id, n.session_id, n.content, n.kind, n.recorded_at
		FROM clinical_notes n
		JOIN patients p ON p.id = n.patient_id
		WHERE n.patient_id = $1 AND p.counselor_id = $2
		ORDER BY n.recorded_at DESC, n.id DESC
	`
	rows, err := r.db.Query(ctx, query, patientID, counselorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]models.ClinicalNote, 0)
	for rows.Next() {
		var n models.ClinicalNote
		if err := scanNote(rows, &n); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *ClinicalNoteRepository) scanOne(row pgx.Row) (*models.ClinicalNote, error) {
	var n models.ClinicalNote
	if err := scanNote(row, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNote(row pgx.Row, n *models.ClinicalNote) error {
	return row.Scan(
		&n.ID,
		&n.PatientID,
		&n.SessionID,
		&n.Content,
		&n.Kind,
		&n.RecordedAt,
	)
}
