package handlers

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/middleware"
	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
)

type intakeApplicationService interface {
	CounselorBySlug(ctx context.Context, slug string) (*models.Counselor, error)
	Submit(ctx context.Context, slug string, sub services.IntakeSubmission) (*models.Patient, error)
	RegenerateSlug(ctx context.Context, counselorID int64) (*models.Counselor, error)
}

type IntakeHandler struct {
	service intakeApplicationService
}

func NewIntakeHandler(service *services.IntakeService) *IntakeHandler {
	return &IntakeHandler{service: service}
}

// Profile is the public landing data for an intake link: just enough for
// the form to show who the patient is registering with.
func (h *IntakeHandler) Profile(c *fiber.Ctx) error {
	counselor, err := h.service.CounselorBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return mapServiceError(c, err, "Failed to load intake page")
	}
	return c.JSON(fiber.Map{"counselor": fiber.Map{
		"display_name": counselor.DisplayName,
		"photo_url":    counselor.PhotoURL,
	}})
}

type intakeSubmissionRequest struct {
	FullName        string         `json:"full_name"`
	Pronouns        *string        `json:"pronouns"`
	BirthDate       *string        `json:"birth_date"`
	Birthplace      *string        `json:"birthplace"`
	ContactChannels map[string]any `json:"contact_channels"`
	MaritalStatus   *string        `json:"marital_status"`
	PartnerName     *string        `json:"partner_name"`
	ClinicalSummary *string        `json:"clinical_summary"`
}

func (h *IntakeHandler) Submit(c *fiber.Ctx) error {
	var req intakeSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	sub := services.IntakeSubmission{
		FullName:        req.FullName,
		Pronouns:        req.Pronouns,
		Birthplace:      req.Birthplace,
		ContactChannels: req.ContactChannels,
		MaritalStatus:   req.MaritalStatus,
		PartnerName:     req.PartnerName,
		ClinicalSummary: req.ClinicalSummary,
	}
	if req.BirthDate != nil {
		d, err := time.Parse(time.DateOnly, *req.BirthDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "birth_date must be YYYY-MM-DD"})
		}
		sub.BirthDate = &d
	}

	patient, err := h.service.Submit(c.Context(), c.Params("slug"), sub)
	if err != nil {
		return mapServiceError(c, err, "Failed to submit registration")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"patient_id": patient.ID,
		"status":     patient.Status,
	})
}

func (h *IntakeHandler) RegenerateSlug(c *fiber.Ctx) error {
	counselor, err := h.service.RegenerateSlug(c.Context(), middleware.CounselorID(c))
	if err != nil {
		return mapServiceError(c, err, "Failed to regenerate intake link")
	}
	return c.JSON(fiber.Map{"intake_slug": counselor.IntakeSlug})
}
