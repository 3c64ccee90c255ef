package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type stubNotificationStore struct {
	due       []models.Notification
	listErr   error
	lastLimit int
	statuses  map[int64]models.NotificationStatus
}

func (s *stubNotificationStore) ListDue(_ context.Context, _ time.Time, limit int) ([]models.Notification, error) {
	s.lastLimit = limit
	return s.due, s.listErr
}

func (s *stubNotificationStore) UpdateStatus(_ context.Context, id int64, status models.NotificationStatus) error {
	if s.statuses == nil {
		s.statuses = make(map[int64]models.NotificationStatus)
	}
	s.statuses[id] = status
	return nil
}

type stubPatientStore struct {
	patients map[int64]*models.Patient
	err      error
}

func (s *stubPatientStore) GetByID(_ context.Context, id int64) (*models.Patient, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.patients[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

type stubCounselorStore struct {
	counselors map[int64]*models.Counselor
	err        error
}

func (s *stubCounselorStore) GetByID(_ context.Context, id int64) (*models.Counselor, error) {
	if s.err != nil {
		return nil, s.err
	}
	if c, ok := s.counselors[id]; ok {
		return c, nil
	}
	return nil, pgx.ErrNoRows
}

type stubSessionStore struct {
	sessions map[int64]*models.Session
}

func (s *stubSessionStore) GetByID(_ context.Context, id int64) (*models.Session, error) {
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, pgx.ErrNoRows
}

type delivery struct {
	token string
	title string
	body  string
	data  map[string]string
}

type stubSender struct {
	deliveries []delivery
	failTokens map[string]bool
}

func (s *stubSender) Deliver(_ context.Context, token, title, body string, data map[string]string) (bool, error) {
	if s.failTokens[token] {
		return false, errors.New("gateway rejected token")
	}
	s.deliveries = append(s.deliveries, delivery{token: token, title: title, body: body, data: data})
	return token != "", nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func newTestDispatcher(notifications *stubNotificationStore, patients *stubPatientStore, counselors *stubCounselorStore, sessions *stubSessionStore, sender *stubSender, batchSize int) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		patients:      patients,
		counselors:    counselors,
		sessions:      sessions,
		sender:        sender,
		interval:      time.Minute,
		batchSize:     batchSize,
		log:           zerolog.Nop(),
	}
}

func TestRunOncePassesBatchLimit(t *testing.T) {
	store := &stubNotificationStore{}
	d := newTestDispatcher(store, &stubPatientStore{}, &stubCounselorStore{}, &stubSessionStore{}, &stubSender{}, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if store.lastLimit != 50 {
		t.Fatalf("expected batch limit 50, got %d", store.lastLimit)
	}
}

func TestRunOnceMarksDeliveredNotificationsSent(t *testing.T) {
	patients := &stubPatientStore{patients: map[int64]*models.Patient{
		3: {ID: 3, CounselorID: 1, FullName: "Alex", PushToken: strPtr("device-token-alex")},
	}}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 10, PatientID: 3, Kind: models.NotificationSessionReminder, ReferenceID: int64Ptr(7)},
	}}
	sender := &stubSender{}
	d := newTestDispatcher(store, patients, &stubCounselorStore{}, &stubSessionStore{}, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if store.statuses[10] != models.NotificationSent {
		t.Fatalf("expected sent, got %q", store.statuses[10])
	}
	if len(sender.deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sender.deliveries))
	}
	if sender.deliveries[0].token != "device-token-alex" {
		t.Fatalf("expected patient token, got %q", sender.deliveries[0].token)
	}
	if sender.deliveries[0].data["reference_id"] != "7" {
		t.Fatalf("expected reference_id 7 in data, got %v", sender.deliveries[0].data)
	}
}

func TestRunOnceConsumesNotificationForMissingPatient(t *testing.T) {
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 11, PatientID: 99, Kind: models.NotificationSessionReminder},
	}}
	sender := &stubSender{}
	d := newTestDispatcher(store, &stubPatientStore{}, &stubCounselorStore{}, &stubSessionStore{}, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	// Nobody left to notify is not a failure.
	if store.statuses[11] != models.NotificationSent {
		t.Fatalf("expected sent, got %q", store.statuses[11])
	}
	if len(sender.deliveries) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(sender.deliveries))
	}
}

func TestRunOnceMarksPatientLookupErrorFailed(t *testing.T) {
	// Only a missing row consumes the notification. A transient store error
	// means the patient may still exist, so the row must record failed.
	patients := &stubPatientStore{err: errors.New("connection reset by peer")}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 13, PatientID: 3, Kind: models.NotificationSessionReminder},
	}}
	sender := &stubSender{}
	d := newTestDispatcher(store, patients, &stubCounselorStore{}, &stubSessionStore{}, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if store.statuses[13] != models.NotificationFailed {
		t.Fatalf("expected failed, got %q", store.statuses[13])
	}
	if len(sender.deliveries) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(sender.deliveries))
	}
}

func TestRunOnceMarksCounselorLookupErrorFailed(t *testing.T) {
	patients := &stubPatientStore{patients: map[int64]*models.Patient{
		3: {ID: 3, CounselorID: 8, FullName: "Alex"},
	}}
	counselors := &stubCounselorStore{err: errors.New("connection reset by peer")}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 14, PatientID: 3, Kind: models.NotificationCounselorAlert},
	}}
	d := newTestDispatcher(store, patients, counselors, &stubSessionStore{}, &stubSender{}, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if store.statuses[14] != models.NotificationFailed {
		t.Fatalf("expected failed, got %q", store.statuses[14])
	}
}

func TestRunOnceMarksDeliveryErrorFailed(t *testing.T) {
	patients := &stubPatientStore{patients: map[int64]*models.Patient{
		3: {ID: 3, CounselorID: 1, PushToken: strPtr("broken-token")},
	}}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 12, PatientID: 3, Kind: models.NotificationTaskReminder},
	}}
	sender := &stubSender{failTokens: map[string]bool{"broken-token": true}}
	d := newTestDispatcher(store, patients, &stubCounselorStore{}, &stubSessionStore{}, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if store.statuses[12] != models.NotificationFailed {
		t.Fatalf("expected failed, got %q", store.statuses[12])
	}
}

func TestRunOnceIsolatesFailuresWithinBatch(t *testing.T) {
	patients := &stubPatientStore{patients: map[int64]*models.Patient{
		3: {ID: 3, CounselorID: 1, PushToken: strPtr("broken-token")},
		4: {ID: 4, CounselorID: 1, PushToken: strPtr("good-token")},
	}}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 20, PatientID: 3, Kind: models.NotificationSessionReminder},
		{ID: 21, PatientID: 4, Kind: models.NotificationSessionReminder},
	}}
	sender := &stubSender{failTokens: map[string]bool{"broken-token": true}}
	d := newTestDispatcher(store, patients, &stubCounselorStore{}, &stubSessionStore{}, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if store.statuses[20] != models.NotificationFailed {
		t.Fatalf("expected 20 failed, got %q", store.statuses[20])
	}
	if store.statuses[21] != models.NotificationSent {
		t.Fatalf("expected 21 sent, got %q", store.statuses[21])
	}
}

func TestRunOnceRoutesCounselorAlertToCounselorDevice(t *testing.T) {
	patients := &stubPatientStore{patients: map[int64]*models.Patient{
		3: {ID: 3, CounselorID: 8, FullName: "Alex", PushToken: strPtr("patient-token")},
	}}
	counselors := &stubCounselorStore{counselors: map[int64]*models.Counselor{
		8: {ID: 8, PushToken: strPtr("counselor-token")},
	}}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 30, PatientID: 3, Kind: models.NotificationCounselorAlert, ReferenceID: int64Ptr(5)},
	}}
	sender := &stubSender{}
	d := newTestDispatcher(store, patients, counselors, &stubSessionStore{}, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(sender.deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sender.deliveries))
	}
	if sender.deliveries[0].token != "counselor-token" {
		t.Fatalf("expected counselor token, got %q", sender.deliveries[0].token)
	}
	if store.statuses[30] != models.NotificationSent {
		t.Fatalf("expected sent, got %q", store.statuses[30])
	}
}

func TestSessionReminderBodyCarriesStartTime(t *testing.T) {
	patients := &stubPatientStore{patients: map[int64]*models.Patient{
		3: {ID: 3, CounselorID: 1, FullName: "Alex", PushToken: strPtr("device-token-alex")},
	}}
	sessions := &stubSessionStore{sessions: map[int64]*models.Session{
		7: {ID: 7, PatientID: 3, StartsAt: time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)},
	}}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 40, PatientID: 3, Kind: models.NotificationSessionReminder, ReferenceID: int64Ptr(7)},
	}}
	sender := &stubSender{}
	d := newTestDispatcher(store, patients, &stubCounselorStore{}, sessions, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(sender.deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sender.deliveries))
	}
	if body := sender.deliveries[0].body; !strings.Contains(body, "Mar 14 at 15:30") {
		t.Fatalf("expected session start time in body, got %q", body)
	}
}

func TestCounselorAlertBodyCarriesNameAndTime(t *testing.T) {
	patients := &stubPatientStore{patients: map[int64]*models.Patient{
		3: {ID: 3, CounselorID: 8, FullName: "Bruna"},
	}}
	counselors := &stubCounselorStore{counselors: map[int64]*models.Counselor{
		8: {ID: 8, PushToken: strPtr("counselor-token")},
	}}
	sessions := &stubSessionStore{sessions: map[int64]*models.Session{
		5: {ID: 5, PatientID: 3, StartsAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)},
	}}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 41, PatientID: 3, Kind: models.NotificationCounselorAlert, ReferenceID: int64Ptr(5)},
	}}
	sender := &stubSender{}
	d := newTestDispatcher(store, patients, counselors, sessions, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(sender.deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sender.deliveries))
	}
	body := sender.deliveries[0].body
	if !strings.Contains(body, "Bruna") || !strings.Contains(body, "Mar 14 at 09:00") {
		t.Fatalf("expected patient name and session time in body, got %q", body)
	}
}

func TestSessionReminderFallsBackWhenSessionGone(t *testing.T) {
	// The reference is weak. A deleted session degrades the body to the
	// generic text, it never blocks delivery.
	patients := &stubPatientStore{patients: map[int64]*models.Patient{
		3: {ID: 3, CounselorID: 1, PushToken: strPtr("device-token-alex")},
	}}
	store := &stubNotificationStore{due: []models.Notification{
		{ID: 42, PatientID: 3, Kind: models.NotificationSessionReminder, ReferenceID: int64Ptr(777)},
	}}
	sender := &stubSender{}
	d := newTestDispatcher(store, patients, &stubCounselorStore{}, &stubSessionStore{}, sender, 50)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if store.statuses[42] != models.NotificationSent {
		t.Fatalf("expected sent, got %q", store.statuses[42])
	}
	if len(sender.deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sender.deliveries))
	}
	if body := sender.deliveries[0].body; body != "You have a session scheduled in 24 hours. See you there!" {
		t.Fatalf("expected generic fallback body, got %q", body)
	}
}
