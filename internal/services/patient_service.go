package services

import (
	"context"
	"errors"
	"strings"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PatientService struct {
	db *pgxpool.Pool
}

func NewPatientService(db *pgxpool.Pool) *PatientService {
	return &PatientService{db: db}
}

func (s *PatientService) Create(ctx context.Context, counselorID int64, input repository.CreatePatientInput) (*models.Patient, error) {
	input.CounselorID = counselorID
	input.FullName = strings.TrimSpace(input.FullName)
	if input.FullName == "" {
		return nil, ErrInvalidInput
	}
	if input.Status == "" {
		input.Status = models.PatientActive
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidInput
	}
	return repository.NewPatientRepository(s.db).Create(ctx, input)
}

func (s *PatientService) Get(ctx context.Context, counselorID, patientID int64) (*models.Patient, error) {
	patient, err := repository.NewPatientRepository(s.db).GetOwned(ctx, counselorID, patientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return patient, nil
}

func (s *PatientService) List(ctx context.Context, counselorID int64) ([]models.Patient, error) {
	return repository.NewPatientRepository(s.db).ListByCounselor(ctx, counselorID)
}

func (s *PatientService) Update(ctx context.Context, counselorID, patientID int64, input repository.CreatePatientInput) (*models.Patient, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	if input.FullName == "" {
		return nil, ErrInvalidInput
	}
	patient, err := repository.NewPatientRepository(s.db).Update(ctx, counselorID, patientID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return patient, nil
}

// Approve activates a pending patient and fixes the agreed terms. Patients
// already active (or in any other state) cannot be approved again.
func (s *PatientService) Approve(ctx context.Context, counselorID, patientID int64, input repository.ApprovePatientInput) (*models.Patient, error) {
	if input.PaymentDueDay != nil && (*input.PaymentDueDay < 1 || *input.PaymentDueDay > 28) {
		return nil, ErrInvalidInput
	}
	repo := repository.NewPatientRepository(s.db)
	patient, err := repo.Approve(ctx, counselorID, patientID, input)
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// Distinguish "not yours" from "not pending" for a useful status code.
	if _, getErr := repo.GetOwned(ctx, counselorID, patientID); getErr != nil {
		if errors.Is(getErr, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, getErr
	}
	return nil, ErrInvalidState
}

func (s *PatientService) Delete(ctx context.Context, counselorID, patientID int64) error {
	deleted, err := repository.NewPatientRepository(s.db).Delete(ctx, counselorID, patientID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *PatientService) RegisterPushToken(ctx context.Context, counselorID, patientID int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidInput
	}
	if _, err := s.Get(ctx, counselorID, patientID); err != nil {
		return err
	}
	return repository.NewPatientRepository(s.db).UpdatePushToken(ctx, counselorID, patientID, &token)
}
