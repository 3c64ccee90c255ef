package repository

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
)

type CreateNotificationInput struct {
	PatientID   int64
	Kind        models.NotificationKind
	FireAt      time.Time
	ReferenceID *int64
}

const notificationColumns = `
	id, patient_id, kind, fire_at, status, reference_id, created_at`

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (patient_id, kind, fire_at, status, reference_id)
		VALUES ($1, $2, $3, 'scheduled', $4)
		RETURNING` + notificationColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.PatientID, input.Kind, input.FireAt, input.ReferenceID,
	))
}

// ListDue returns up to limit scheduled notifications whose fire time has
// passed, oldest first. The bound caps per-tick dispatcher work.
func (r *NotificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.Notification, error) {
	query := `
		SELECT` + notificationColumns + `
		FROM notifications
		WHERE status = 'scheduled' AND fire_at <= $1
		ORDER BY fire_at, id
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	query := `SELECT` + notificationColumns + ` FROM notifications WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *NotificationRepository) scanOne(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	if err := scanNotification(row, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNotification(row pgx.Row, n *models.Notification) error {
	return row.Scan(
		&n.ID,
		&n.PatientID,
		&n.Kind,
		&n.FireAt,
		&n.Status,
		&n.ReferenceID,
		&n.CreatedAt,
	)
}
