package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PaletotCode/Cori/internal/middleware"
	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type sessionApplicationService interface {
	CreateSessions(ctx context.Context, counselorID int64, input services.CreateSessionsInput) ([]models.Session, error)
	UpdateState(ctx context.Context, counselorID, sessionID int64, input services.UpdateSessionStateInput) (*models.Session, error)
	ConfirmByToken(ctx context.Context, token string) (*models.Session, error)
	ListByPatient(ctx context.Context, counselorID, patientID int64, offset, limit int) ([]models.Session, error)
}

type counselorAlertScheduler interface {
	ScheduleCounselorAlert(ctx context.Context, session *models.Session) (*models.Notification, error)
}

type SessionHandler struct {
	service  sessionApplicationService
	notifier counselorAlertScheduler
}

func NewSessionHandler(service *services.SessionService, notifier *services.NotificationService) *SessionHandler {
	return &SessionHandler{service: service, notifier: notifier}
}

type createSessionsRequest struct {
	PatientID     int64                     `json:"patient_id"`
	StartsAt      string                    `json:"starts_at"`
	EndsAt        string                    `json:"ends_at"`
	ChargedAmount *decimal.Decimal          `json:"charged_amount"`
	Recurrence    *services.RecurrenceInput `json:"recurrence"`
}

type updateSessionStateRequest struct {
	State         string           `json:"state"`
	ChargedAmount *decimal.Decimal `json:"charged_amount"`
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req createSessionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "starts_at must be a valid RFC3339 timestamp"})
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndsAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ends_at must be a valid RFC3339 timestamp"})
	}

	sessions, err := h.service.CreateSessions(c.Context(), middleware.CounselorID(c), services.CreateSessionsInput{
		PatientID:     req.PatientID,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
		ChargedAmount: req.ChargedAmount,
		Recurrence:    req.Recurrence,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to create sessions")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) UpdateState(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}
	var req updateSessionStateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.UpdateState(c.Context(), middleware.CounselorID(c), sessionID, services.UpdateSessionStateInput{
		State:         models.SessionState(strings.TrimSpace(req.State)),
		ChargedAmount: req.ChargedAmount,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to update session state")
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListByPatient(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	sessions, err := h.service.ListByPatient(c.Context(), middleware.CounselorID(c), patientID, offset, limit)
	if err != nil {
		return mapServiceError(c, err, "Failed to list sessions")
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// Confirm is the public, unauthenticated endpoint behind the link patients
// receive. The token is the only credential; success also queues an alert
// so the counselor learns about the confirmation.
func (h *SessionHandler) Confirm(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing confirmation token"})
	}

	session, err := h.service.ConfirmByToken(c.Context(), token)
	if err != nil {
		return mapServiceError(c, err, "Failed to confirm session")
	}

	if _, err := h.notifier.ScheduleCounselorAlert(c.Context(), session); err != nil {
		// The confirmation itself stands; losing the alert is tolerable.
		log.Warn().Err(err).Int64("session_id", session.ID).Msg("could not schedule counselor alert")
	}

	return c.JSON(fiber.Map{"session": session})
}
