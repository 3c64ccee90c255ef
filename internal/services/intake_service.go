package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/PaletotCode/Cori/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IntakeService handles the public self-registration flow. A counselor
// shares their intake link; prospective patients submit the form and land
// in pending_approval until the counselor reviews them.
type IntakeService struct {
	db *pgxpool.Pool
}

func NewIntakeService(db *pgxpool.Pool) *IntakeService {
	return &IntakeService{db: db}
}

type IntakeSubmission struct {
	FullName        string
	Pronouns        *string
	BirthDate       *time.Time
	Birthplace      *string
	ContactChannels map[string]any
	MaritalStatus   *string
	PartnerName     *string
	ClinicalSummary *string
}

// CounselorBySlug resolves the public intake page owner. Unknown slugs are
// ErrNotFound; the response never exposes more than the display profile.
func (s *IntakeService) CounselorBySlug(ctx context.Context, slug string) (*models.Counselor, error) {
	counselor, err := repository.NewCounselorRepository(s.db).GetByIntakeSlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return counselor, nil
}

// Submit creates the patient under the slug's counselor. The status is
// forced to pending_approval regardless of what the form carries; fee and
// slot are counselor-side terms and are never accepted from the public form.
func (s *IntakeService) Submit(ctx context.Context, slug string, sub IntakeSubmission) (*models.Patient, error) {
	sub.FullName = strings.TrimSpace(sub.FullName)
	if sub.FullName == "" {
		return nil, ErrInvalidInput
	}
	counselor, err := s.CounselorBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return repository.NewPatientRepository(s.db).Create(ctx, repository.CreatePatientInput{
		CounselorID:     counselor.ID,
		FullName:        sub.FullName,
		Pronouns:        sub.Pronouns,
		BirthDate:       sub.BirthDate,
		Birthplace:      sub.Birthplace,
		ContactChannels: sub.ContactChannels,
		MaritalStatus:   sub.MaritalStatus,
		PartnerName:     sub.PartnerName,
		ClinicalSummary: sub.ClinicalSummary,
		Status:          models.PatientPendingApproval,
	})
}

// RegenerateSlug rotates the counselor's intake link, invalidating the old
// one immediately. Retries on the rare slug collision.
func (s *IntakeService) RegenerateSlug(ctx context.Context, counselorID int64) (*models.Counselor, error) {
	repo := repository.NewCounselorRepository(s.db)
	for attempt := 0; attempt < 3; attempt++ {
		counselor, err := repo.UpdateIntakeSlug(ctx, counselorID, utils.GenerateIntakeSlug())
		if err == nil {
			return counselor, nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if !repository.IsUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, errors.New("could not allocate a unique intake slug")
}
