package handlers

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/middleware"
	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
)

type checkInApplicationService interface {
	Create(ctx context.Context, counselorID int64, input repository.CreateCheckInInput) (*models.CheckIn, error)
	ListByPatient(ctx context.Context, counselorID, patientID int64, from, to *time.Time) ([]models.CheckIn, error)
}

type CheckInHandler struct {
	service checkInApplicationService
}

func NewCheckInHandler(service *services.CheckInService) *CheckInHandler {
	return &CheckInHandler{service: service}
}

type createCheckInRequest struct {
	PatientID    int64   `json:"patient_id"`
	MoodLevel    int     `json:"mood_level"`
	AnxietyLevel int     `json:"anxiety_level"`
	PatientNote  *string `json:"patient_note"`
}

func (h *CheckInHandler) Create(c *fiber.Ctx) error {
	var req createCheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	checkin, err := h.service.Create(c.Context(), middleware.CounselorID(c), repository.CreateCheckInInput{
		PatientID:    req.PatientID,
		MoodLevel:    req.MoodLevel,
		AnxietyLevel: req.AnxietyLevel,
		PatientNote:  req.PatientNote,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to record check-in")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"checkin": checkin})
}

func (h *CheckInHandler) ListByPatient(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}

	var from, to *time.Time
	if raw := c.Query("date_from"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_from must be YYYY-MM-DD"})
		}
		from = &d
	}
	if raw := c.Query("date_to"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_to must be YYYY-MM-DD"})
		}
		end := d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}

	checkins, err := h.service.ListByPatient(c.Context(), middleware.CounselorID(c), patientID, from, to)
	if err != nil {
		return mapServiceError(c, err, "Failed to list check-ins")
	}
	return c.JSON(fiber.Map{"checkins": checkins})
}
