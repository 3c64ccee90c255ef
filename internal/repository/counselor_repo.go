package repository

import (
	"context"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
)

type CounselorRepository struct {
	db DBTX
}

func NewCounselorRepository(db DBTX) *CounselorRepository {
	return &CounselorRepository{db: db}
}

func (r *CounselorRepository) Create(ctx context.Context, counselor *models.Counselor) error {
	query := `
		INSERT INTO counselors (email, password_hash, display_name, intake_slug)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		counselor.Email,
		counselor.PasswordHash,
		counselor.DisplayName,
		counselor.IntakeSlug,
	).Scan(&counselor.ID, &counselor.CreatedAt)
}

func (r *CounselorRepository) GetByEmail(ctx context.Context, email string) (*models.Counselor, error) {
	query := `
		SELECT id, email, password_hash, display_name, photo_url, intake_slug, push_token, created_at
		FROM counselors
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

func (r *CounselorRepository) GetByID(ctx context.Context, id int64) (*models.Counselor, error) {
	query := `
		SELECT id, email, password_hash, display_name, photo_url, intake_slug, push_token, created_at
		FROM counselors
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *CounselorRepository) GetByIntakeSlug(ctx context.Context, slug string) (*models.Counselor, error) {
	query := `
		SELECT id, email, password_hash, display_name, photo_url, intake_slug, push_token, created_at
		FROM counselors
		WHERE intake_slug = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, slug))
}

func (r *CounselorRepository) UpdateIntakeSlug(ctx context.Context, id int64, slug string) (*models.Counselor, error) {
	query := `
		UPDATE counselors
		SET intake_slug = $2
		WHERE id = $1
		RETURNING id, email, password_hash, display_name, photo_url, intake_slug, push_token, created_at
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id, slug))
}

func (r *CounselorRepository) UpdatePushToken(ctx context.Context, id int64, token *string) error {
	_, err := r.db.Exec(ctx, `UPDATE counselors SET push_token = $2 WHERE id = $1`, id, token)
	return err
}

func (r *CounselorRepository) UpdateProfile(ctx context.Context, id int64, displayName, photoURL *string) (*models.Counselor, error) {
	query := `
		UPDATE counselors
		SET display_name = COALESCE($2, display_name),
		    photo_url = COALESCE($3, photo_url)
		WHERE id = $1
		RETURNING id, email, password_hash, display_name, photo_url, intake_slug, push_token, created_at
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id, displayName, photoURL))
}

func (r *CounselorRepository) scanOne(row pgx.Row) (*models.Counselor, error) {
	var c models.Counselor
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.PasswordHash,
		&c.DisplayName,
		&c.PhotoURL,
		&c.IntakeSlug,
		&c.PushToken,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
