package services

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// Reminders fire 24h before a session and 12h before a task deadline.
	sessionReminderLead = 24 * time.Hour
	taskReminderLead    = 12 * time.Hour
)

type notificationCreator interface {
	Create(ctx context.Context, input repository.CreateNotificationInput) (*models.Notification, error)
}

// NotificationService owns creation-time scheduling; it never polls. The
// dispatcher in internal/jobs consumes what this service writes.
type NotificationService struct {
	db *pgxpool.Pool
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

// ScheduleSessionReminder creates the 24h-before reminder through store,
// which callers bind to their own transaction so the reminder commits with
// the session batch. Returns (nil, nil) when the fire time is already past;
// a reminder for the past would only confuse the patient.
func (s *NotificationService) ScheduleSessionReminder(ctx context.Context, store notificationCreator, session *models.Session) (*models.Notification, error) {
	fireAt := session.StartsAt.Add(-sessionReminderLead)
	if !fireAt.After(time.Now()) {
		return nil, nil
	}
	refID := session.ID
	return store.Create(ctx, repository.CreateNotificationInput{
		PatientID:   session.PatientID,
		Kind:        models.NotificationSessionReminder,
		FireAt:      fireAt,
		ReferenceID: &refID,
	})
}

// ScheduleTaskReminder mirrors the session reminder with a 12h lead. Tasks
// without a due time never get a reminder.
func (s *NotificationService) ScheduleTaskReminder(ctx context.Context, store notificationCreator, task *models.Task) (*models.Notification, error) {
	if task.DueAt == nil {
		return nil, nil
	}
	fireAt := task.DueAt.Add(-taskReminderLead)
	if !fireAt.After(time.Now()) {
		return nil, nil
	}
	refID := task.ID
	return store.Create(ctx, repository.CreateNotificationInput{
		PatientID:   task.PatientID,
		Kind:        models.NotificationTaskReminder,
		FireAt:      fireAt,
		ReferenceID: &refID,
	})
}

// ScheduleCounselorAlert is called when a patient confirms a session via the
// public link. The alert is immediately eligible (fire time one second in
// the past) so the next dispatcher tick picks it up. It commits on its own,
// independent of whatever unit of work the caller holds.
func (s *NotificationService) ScheduleCounselorAlert(ctx context.Context, session *models.Session) (*models.Notification, error) {
	refID := session.ID
	store := repository.NewNotificationRepository(s.db)
	return store.Create(ctx, repository.CreateNotificationInput{
		PatientID:   session.PatientID,
		Kind:        models.NotificationCounselorAlert,
		FireAt:      time.Now().Add(-time.Second),
		ReferenceID: &refID,
	})
}

// ScheduleBillingNotice is triggered by a period closure, inside the closure
// transaction, and is immediately eligible.
func (s *NotificationService) ScheduleBillingNotice(ctx context.Context, store notificationCreator, invoice *models.Invoice) (*models.Notification, error) {
	refID := invoice.ID
	return store.Create(ctx, repository.CreateNotificationInput{
		PatientID:   invoice.PatientID,
		Kind:        models.NotificationBillingNotice,
		FireAt:      time.Now().Add(-time.Second),
		ReferenceID: &refID,
	})
}
