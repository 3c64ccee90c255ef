package services

import (
	"context"
	"errors"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckInService struct {
	db *pgxpool.Pool
}

func NewCheckInService(db *pgxpool.Pool) *CheckInService {
	return &CheckInService{db: db}
}

func (s *CheckInService) Create(ctx context.Context, counselorID int64, input repository.CreateCheckInInput) (*models.CheckIn, error) {
	if input.MoodLevel < 1 || input.MoodLevel > 5 {
		return nil, ErrInvalidInput
	}
	if input.AnxietyLevel < 1 || input.AnxietyLevel > 10 {
		return nil, ErrInvalidInput
	}
	if _, err := repository.NewPatientRepository(s.db).GetOwned(ctx, counselorID, input.PatientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return repository.NewCheckInRepository(s.db).Create(ctx, input)
}

func (s *CheckInService) ListByPatient(ctx context.Context, counselorID, patientID int64, from, to *time.Time) ([]models.CheckIn, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, ErrInvalidInput
	}
	if _, err := repository.NewPatientRepository(s.db).GetOwned(ctx, counselorID, patientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return repository.NewCheckInRepository(s.db).ListByPatient(ctx, counselorID, patientID, from, to)
}
