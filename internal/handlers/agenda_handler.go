package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/PaletotCode/Cori/internal/middleware"
	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
)

type timelineApplicationService interface {
	PatientTimeline(ctx context.Context, counselorID, patientID int64, dateFrom, dateTo time.Time) (*models.Timeline, error)
	TenantAgenda(ctx context.Context, counselorID int64, dateFrom, dateTo time.Time, kinds []models.TimelineEventKind) (*models.Timeline, error)
}

type AgendaHandler struct {
	service timelineApplicationService
}

func NewAgendaHandler(service *services.TimelineService) *AgendaHandler {
	return &AgendaHandler{service: service}
}

// PatientTimeline serves the per-patient feed. date_from/date_to default to
// the current UTC day.
func (h *AgendaHandler) PatientTimeline(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}

	today := time.Now().UTC()
	dateFrom, err := parseDateQuery(c, "date_from", today)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_from must be YYYY-MM-DD"})
	}
	dateTo, err := parseDateQuery(c, "date_to", dateFrom)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_to must be YYYY-MM-DD"})
	}

	timeline, err := h.service.PatientTimeline(c.Context(), middleware.CounselorID(c), patientID, dateFrom, dateTo)
	if err != nil {
		return mapServiceError(c, err, "Failed to load timeline")
	}
	return c.JSON(timeline)
}

// Agenda serves the tenant-wide view across all the counselor's patients.
// kinds filters sources, e.g. ?kinds=session,task.
func (h *AgendaHandler) Agenda(c *fiber.Ctx) error {
	today := time.Now().UTC()
	dateFrom, err := parseDateQuery(c, "date_from", today)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_from must be YYYY-MM-DD"})
	}
	dateTo, err := parseDateQuery(c, "date_to", dateFrom)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_to must be YYYY-MM-DD"})
	}

	var kinds []models.TimelineEventKind
	if raw := strings.TrimSpace(c.Query("kinds")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			switch kind := models.TimelineEventKind(strings.TrimSpace(part)); kind {
			case models.TimelineSession, models.TimelineTask, models.TimelineCheckIn:
				kinds = append(kinds, kind)
			default:
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "kinds must be session, task or checkin"})
			}
		}
	}

	agenda, err := h.service.TenantAgenda(c.Context(), middleware.CounselorID(c), dateFrom, dateTo, kinds)
	if err != nil {
		return mapServiceError(c, err, "Failed to load agenda")
	}
	return c.JSON(agenda)
}
