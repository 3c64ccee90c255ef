package repository

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
)

type CreateTaskInput struct {
	PatientID   int64
	Title       string
	Description *string
	DueAt       *time.Time
}

const taskColumns = `
	id, patient_id, title, description, due_at, status, created_at`

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	query := `
		INSERT INTO tasks (patient_id, title, description, due_at, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING` + taskColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.PatientID, input.Title, input.Description, input.DueAt,
	))
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT` + taskColumns + ` FROM tasks WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *TaskRepository) GetOwned(ctx context.Context, counselorID, taskID int64) (*models.Task, error) {
	query := `
		SELECT t.id, t.patient_id, t.title, t.description, t.due_at, t.status, t.created_at
		FROM tasks t
		JOIN patients p ON p.id = t.patient_id
		WHERE t.id = $1 AND p.counselor_id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, taskID, counselorID))
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, taskID int64, status models.TaskStatus) (*models.Task, error) {
	query := `
		UPDATE tasks SET status = $2 WHERE id = $1
		RETURNING` + taskColumns
	return r.scanOne(r.db.QueryRow(ctx, query, taskID, status))
}

func (r *TaskRepository) ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.Task, error) {
	query := `
		SELECT t.id, t.patient_id, t.title, t.description, t.due_at, t.status, t.created_at
		FROM tasks t
		JOIN patients p ON p.id = t.patient_id
		WHERE t.patient_id = $1 AND p.counselor_id = $2
		ORDER BY t.due_at NULLS LAST, t.id
	`
	rows, err := r.db.Query(ctx, query, patientID, counselorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListDueInRange returns tasks anchored on their due time for the aggregator;
// tasks without a due time never appear on a timeline.
func (r *TaskRepository) ListDueInRange(ctx context.Context, patientIDs []int64, from, to time.Time, limit int) ([]models.Task, error) {
	query := `
		SELECT` + taskColumns + `
		FROM tasks
		WHERE patient_id = ANY($1)
		  AND due_at IS NOT NULL
		  AND due_at >= $2 AND due_at <= $3
		ORDER BY due_at, id
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, patientIDs, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *TaskRepository) scanOne(row pgx.Row) (*models.Task, error) {
	var t models.Task
	if err := scanTask(row, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) scanAll(rows pgx.Rows) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(
		&t.ID,
		&t.PatientID,
		&t.Title,
		&t.Description,
		&t.DueAt,
		&t.Status,
		&t.CreatedAt,
	)
}
