package services

import (
	"context"
	"testing"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
)

type stubNotificationStore struct {
	created []repository.CreateNotificationInput
	err     error
}

func (s *stubNotificationStore) Create(_ context.Context, input repository.CreateNotificationInput) (*models.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, input)
	return &models.Notification{
		ID:          int64(len(s.created)),
		PatientID:   input.PatientID,
		Kind:        input.Kind,
		FireAt:      input.FireAt,
		Status:      models.NotificationScheduled,
		ReferenceID: input.ReferenceID,
	}, nil
}

func TestScheduleSessionReminderFires24HoursBefore(t *testing.T) {
	store := &stubNotificationStore{}
	service := &NotificationService{}

	startsAt := time.Now().Add(48 * time.Hour)
	session := &models.Session{ID: 7, PatientID: 3, StartsAt: startsAt}

	n, err := service.ScheduleSessionReminder(context.Background(), store, session)
	if err != nil {
		t.Fatalf("ScheduleSessionReminder: %v", err)
	}
	if n == nil {
		t.Fatal("expected a notification")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 created notification, got %d", len(store.created))
	}
	got := store.created[0]
	if got.Kind != models.NotificationSessionReminder {
		t.Fatalf("expected session_reminder, got %q", got.Kind)
	}
	if !got.FireAt.Equal(startsAt.Add(-24 * time.Hour)) {
		t.Fatalf("expected fire at %v, got %v", startsAt.Add(-24*time.Hour), got.FireAt)
	}
	if got.ReferenceID == nil || *got.ReferenceID != 7 {
		t.Fatalf("expected reference id 7, got %v", got.ReferenceID)
	}
}

func TestScheduleSessionReminderSkipsPastFireTime(t *testing.T) {
	store := &stubNotificationStore{}
	service := &NotificationService{}

	// Starts in 12h, so the 24h-before point is already gone.
	session := &models.Session{ID: 7, PatientID: 3, StartsAt: time.Now().Add(12 * time.Hour)}

	n, err := service.ScheduleSessionReminder(context.Background(), store, session)
	if err != nil {
		t.Fatalf("ScheduleSessionReminder: %v", err)
	}
	if n != nil {
		t.Fatalf("expected no notification, got %+v", n)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected nothing created, got %d", len(store.created))
	}
}

func TestScheduleTaskReminderWithoutDueTime(t *testing.T) {
	store := &stubNotificationStore{}
	service := &NotificationService{}

	n, err := service.ScheduleTaskReminder(context.Background(), store, &models.Task{ID: 1, PatientID: 2})
	if err != nil {
		t.Fatalf("ScheduleTaskReminder: %v", err)
	}
	if n != nil || len(store.created) != 0 {
		t.Fatal("expected no reminder for a task without due time")
	}
}

func TestScheduleTaskReminderFires12HoursBefore(t *testing.T) {
	store := &stubNotificationStore{}
	service := &NotificationService{}

	dueAt := time.Now().Add(24 * time.Hour)
	task := &models.Task{ID: 4, PatientID: 2, DueAt: &dueAt}

	n, err := service.ScheduleTaskReminder(context.Background(), store, task)
	if err != nil {
		t.Fatalf("ScheduleTaskReminder: %v", err)
	}
	if n == nil {
		t.Fatal("expected a notification")
	}
	if !store.created[0].FireAt.Equal(dueAt.Add(-12 * time.Hour)) {
		t.Fatalf("expected fire 12h before due, got %v", store.created[0].FireAt)
	}
	if store.created[0].Kind != models.NotificationTaskReminder {
		t.Fatalf("expected task_reminder, got %q", store.created[0].Kind)
	}
}

func TestScheduleBillingNoticeIsImmediatelyEligible(t *testing.T) {
	store := &stubNotificationStore{}
	service := &NotificationService{}

	invoice := &models.Invoice{ID: 11, PatientID: 5}
	n, err := service.ScheduleBillingNotice(context.Background(), store, invoice)
	if err != nil {
		t.Fatalf("ScheduleBillingNotice: %v", err)
	}
	if n == nil {
		t.Fatal("expected a notification")
	}
	if !store.created[0].FireAt.Before(time.Now()) {
		t.Fatalf("expected fire time in the past, got %v", store.created[0].FireAt)
	}
	if store.created[0].ReferenceID == nil || *store.created[0].ReferenceID != 11 {
		t.Fatalf("expected reference id 11, got %v", store.created[0].ReferenceID)
	}
}
