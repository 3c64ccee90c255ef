package repository

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
)

type CreateCheckInInput struct {
	PatientID    int64
	MoodLevel    int
	AnxietyLevel int
	PatientNote  *string
}

const checkinColumns = `
	id, patient_id, recorded_at, mood_level, anxiety_level, patient_note`

type CheckInRepository struct {
	db DBTX
}

func NewCheckInRepository(db DBTX) *CheckInRepository {
	return &CheckInRepository{db: db}
}

func (r *CheckInRepository) Create(ctx context.Context, input CreateCheckInInput) (*models.CheckIn, error) {
	query := `
		INSERT INTO checkins (patient_id, mood_level, anxiety_level, patient_note)
		VALUES ($1, $2, $3, $4)
		RETURNING` + checkinColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.PatientID, input.MoodLevel, input.AnxietyLevel, input.PatientNote,
	))
}

func (r *CheckInRepository) ListByPatient(ctx context.Context, counselorID, patientID int64, from, to *time.Time) ([]models.CheckIn, error) {
	query := `
		SELECT c.id, c.patient_id, c.recorded_at, c.mood_level, c.anxiety_level, c.patient_note
		FROM checkins c
		JOIN patients p ON p.id = c.patient_id
		WHERE c.patient_id = $1 AND p.counselor_id = $2
		  AND ($3::timestamptz IS NULL OR c.recorded_at >= $3)
		  AND ($4::timestamptz IS NULL OR c.recorded_at <= $4)
		ORDER BY c.recorded_at DESC, c.id DESC
	`
	rows, err := r.db.Query(ctx, query, patientID, counselorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *CheckInRepository) ListInRange(ctx context.Context, patientIDs []int64, from, to time.Time, limit int) ([]models.CheckIn, error) {
	query := `
		SELECT` + checkinColumns + `
		FROM checkins
		WHERE patient_id = ANY($1) AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at, id
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, patientIDs, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *CheckInRepository) scanOne(row pgx.Row) (*models.CheckIn, error) {
	var c models.CheckIn
	if err := scanCheckIn(row, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CheckInRepository) scanAll(rows pgx.Rows) ([]models.CheckIn, error) {
	checkins := make([]models.CheckIn, 0)
	for rows.Next() {
		var c models.CheckIn
		if err := scanCheckIn(rows, &c); err != nil {
			return nil, err
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return checkins, nil
}

func scanCheckIn(row pgx.Row, c *models.CheckIn) error {
	return row.Scan(
		&c.ID,
		&c.PatientID,
		&c.RecordedAt,
		&c.MoodLevel,
		&c.AnxietyLevel,
		&c.PatientNote,
	)
}
