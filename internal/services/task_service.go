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

type taskReminderScheduler interface {
	ScheduleTaskReminder(ctx context.Context, store notificationCreator, task *models.Task) (*models.Notification, error)
}

type TaskService struct {
	db       *pgxpool.Pool
	notifier taskReminderScheduler
}

func NewTaskService(db *pgxpool.Pool, notifier taskReminderScheduler) *TaskService {
	return &TaskService{db: db, notifier: notifier}
}

// Create stores the task and, when it carries a due time, schedules its
// reminder in the same transaction so the two never diverge.
func (s *TaskService) Create(ctx context.Context, counselorID int64, input repository.CreateTaskInput) (*models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, ErrInvalidInput
	}
	if _, err := repository.NewPatientRepository(s.db).GetOwned(ctx, counselorID, input.PatientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	task, err := repository.NewTaskRepository(tx).Create(ctx, input)
	if err != nil {
		return nil, err
	}
	if _, err := s.notifier.ScheduleTaskReminder(ctx, repository.NewNotificationRepository(tx), task); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) UpdateStatus(ctx context.Context, counselorID, taskID int64, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, ErrInvalidInput
	}
	repo := repository.NewTaskRepository(s.db)
	if _, err := repo.GetOwned(ctx, counselorID, taskID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return repo.UpdateStatus(ctx, taskID, status)
}

func (s *TaskService) ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.Task, error) {
	if _, err := repository.NewPatientRepository(s.db).GetOwned(ctx, counselorID, patientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return repository.NewTaskRepository(s.db).ListByPatient(ctx, counselorID, patientID)
}
