package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
)

type stubSessionService struct {
	createResult  []models.Session
	createErr     error
	updateResult  *models.Session
	updateErr     error
	confirmResult *models.Session
	confirmErr    error
	listResult    []models.Session
	listErr       error

	lastCounselorID int64
	lastCreateInput services.CreateSessionsInput
	lastSessionID   int64
	lastUpdateInput services.UpdateSessionStateInput
	lastToken       string
}

func (s *stubSessionService) CreateSessions(_ context.Context, counselorID int64, input services.CreateSessionsInput) ([]models.Session, error) {
	s.lastCounselorID = counselorID
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubSessionService) UpdateState(_ context.Context, counselorID, sessionID int64, input services.UpdateSessionStateInput) (*models.Session, error) {
	s.lastCounselorID = counselorID
	s.lastSessionID = sessionID
	s.lastUpdateInput = input
	return s.updateResult, s.updateErr
}

func (s *stubSessionService) ConfirmByToken(_ context.Context, token string) (*models.Session, error) {
	s.lastToken = token
	return s.confirmResult, s.confirmErr
}

func (s *stubSessionService) ListByPatient(_ context.Context, counselorID, patientID int64, _, _ int) ([]models.Session, error) {
	s.lastCounselorID = counselorID
	s.lastSessionID = patientID
	return s.listResult, s.listErr
}

type stubAlertScheduler struct {
	alerted []int64
	err     error
}

func (s *stubAlertScheduler) ScheduleCounselorAlert(_ context.Context, session *models.Session) (*models.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.alerted = append(s.alerted, session.ID)
	return &models.Notification{ID: 1}, nil
}

func authedApp(counselorID int64) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("counselor_id", counselorID)
		return c.Next()
	})
	return app
}

func TestCreateSessionsReturnsCreatedBatch(t *testing.T) {
	service := &stubSessionService{
		createResult: []models.Session{
			{ID: 1, PatientID: 3, State: models.SessionScheduled},
			{ID: 2, PatientID: 3, State: models.SessionScheduled},
		},
	}
	handler := &SessionHandler{service: service, notifier: &stubAlertScheduler{}}

	app := authedApp(9)
	app.Post("/api/v1/sessions", handler.Create)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"patient_id": 3,
		"starts_at": "2026-03-02T14:00:00Z",
		"ends_at": "2026-03-02T14:50:00Z",
		"recurrence": {"interval_days": 7, "total_sessions": 2}
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCounselorID != 9 {
		t.Fatalf("expected counselor 9, got %d", service.lastCounselorID)
	}
	if service.lastCreateInput.Recurrence == nil || service.lastCreateInput.Recurrence.TotalSessions != 2 {
		t.Fatalf("unexpected recurrence: %+v", service.lastCreateInput.Recurrence)
	}
}

func TestCreateSessionsRejectsBadTimestamp(t *testing.T) {
	handler := &SessionHandler{service: &stubSessionService{}, notifier: &stubAlertScheduler{}}

	app := authedApp(9)
	app.Post("/api/v1/sessions", handler.Create)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"patient_id": 3,
		"starts_at": "tomorrow",
		"ends_at": "2026-03-02T14:50:00Z"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateStateMapsInvalidState(t *testing.T) {
	service := &stubSessionService{updateErr: services.ErrInvalidInput}
	handler := &SessionHandler{service: service, notifier: &stubAlertScheduler{}}

	app := authedApp(9)
	app.Patch("/api/v1/sessions/:id/state", handler.UpdateState)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/sessions/5/state",
		strings.NewReader(`{"state": "teleported"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 5 {
		t.Fatalf("expected session id 5, got %d", service.lastSessionID)
	}
}

func TestConfirmSchedulesCounselorAlert(t *testing.T) {
	service := &stubSessionService{
		confirmResult: &models.Session{ID: 17, PatientID: 3, State: models.SessionConfirmed},
	}
	alerts := &stubAlertScheduler{}
	handler := &SessionHandler{service: service, notifier: alerts}

	app := fiber.New()
	app.Patch("/api/public/sessions/confirm/:token", handler.Confirm)

	req := httptest.NewRequest(http.MethodPatch, "/api/public/sessions/confirm/abc-123", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastToken != "abc-123" {
		t.Fatalf("expected token abc-123, got %q", service.lastToken)
	}
	if len(alerts.alerted) != 1 || alerts.alerted[0] != 17 {
		t.Fatalf("expected alert for session 17, got %v", alerts.alerted)
	}
}

func TestConfirmRejectsReusedToken(t *testing.T) {
	service := &stubSessionService{confirmErr: services.ErrInvalidState}
	handler := &SessionHandler{service: service, notifier: &stubAlertScheduler{}}

	app := fiber.New()
	app.Patch("/api/public/sessions/confirm/:token", handler.Confirm)

	req := httptest.NewRequest(http.MethodPatch, "/api/public/sessions/confirm/abc-123", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestConfirmStandsWhenAlertFails(t *testing.T) {
	service := &stubSessionService{
		confirmResult: &models.Session{ID: 17, PatientID: 3, State: models.SessionConfirmed},
	}
	handler := &SessionHandler{service: service, notifier: &stubAlertScheduler{err: context.DeadlineExceeded}}

	app := fiber.New()
	app.Patch("/api/public/sessions/confirm/:token", handler.Confirm)

	req := httptest.NewRequest(http.MethodPatch, "/api/public/sessions/confirm/abc-123", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 even when the alert fails, got %d", resp.StatusCode)
	}
}
