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

type NoteService struct {
	db *pgxpool.Pool
}

func NewNoteService(db *pgxpool.Pool) *NoteService {
	return &NoteService{db: db}
}

// Create attaches the note to a session the counselor owns. The session's
// patient wins over whatever patient id the caller sends; a second note for
// the same session is rejected.
func (s *NoteService) Create(ctx context.Context, counselorID int64, input repository.CreateClinicalNoteInput) (*models.ClinicalNote, error) {
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" || !input.Kind.Valid() {
		return nil, ErrInvalidInput
	}

	session, err := repository.NewSessionRepository(s.db).GetOwned(ctx, counselorID, input.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	input.PatientID = session.PatientID

	note, err := repository.NewClinicalNoteRepository(s.db).Create(ctx, input)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateNote
		}
		return nil, err
	}
	return note, nil
}

func (s *NoteService) UpdateContent(ctx context.Context, counselorID, noteID int64, content string) (*models.ClinicalNote, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	repo := repository.NewClinicalNoteRepository(s.db)
	if _, err := repo.GetOwned(ctx, counselorID, noteID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return repo.UpdateContent(ctx, noteID, content)
}

func (s *NoteService) ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.ClinicalNote, error) {
	if _, err := repository.NewPatientRepository(s.db).GetOwned(ctx, counselorID, patientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return repository.NewClinicalNoteRepository(s.db).ListByPatient(ctx, counselorID, patientID)
}
