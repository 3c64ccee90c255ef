package handlers

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/middleware"
	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type patientApplicationService interface {
	Create(ctx context.Context, counselorID int64, input repository.CreatePatientInput) (*models.Patient, error)
	Get(ctx context.Context, counselorID, patientID int64) (*models.Patient, error)
	List(ctx context.Context, counselorID int64) ([]models.Patient, error)
	Update(ctx context.Context, counselorID, patientID int64, input repository.CreatePatientInput) (*models.Patient, error)
	Approve(ctx context.Context, counselorID, patientID int64, input repository.ApprovePatientInput) (*models.Patient, error)
	Delete(ctx context.Context, counselorID, patientID int64) error
	RegisterPushToken(ctx context.Context, counselorID, patientID int64, token string) error
}

type PatientHandler struct {
	service patientApplicationService
}

func NewPatientHandler(service *services.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

type patientRequest struct {
	FullName           string           `json:"full_name"`
	PhotoURL           *string          `json:"photo_url"`
	Pronouns           *string          `json:"pronouns"`
	BirthDate          *string          `json:"birth_date"`
	Birthplace         *string          `json:"birthplace"`
	ContactChannels    map[string]any   `json:"contact_channels"`
	MaritalStatus      *string          `json:"marital_status"`
	PartnerName        *string          `json:"partner_name"`
	RelationshipLength *string          `json:"relationship_length"`
	ClinicalSummary    *string          `json:"clinical_summary"`
	TreatmentStart     *string          `json:"treatment_start"`
	RecordFileURL      *string          `json:"record_file_url"`
	DefaultSlot        *string          `json:"default_slot"`
	SessionFee         *decimal.Decimal `json:"session_fee"`
	PaymentDueDay      *int             `json:"payment_due_day"`
	Status             string           `json:"status"`
}

func (r *patientRequest) toInput() (repository.CreatePatientInput, error) {
	input := repository.CreatePatientInput{
		FullName:           r.FullName,
		PhotoURL:           r.PhotoURL,
		Pronouns:           r.Pronouns,
		Birthplace:         r.Birthplace,
		ContactChannels:    r.ContactChannels,
		MaritalStatus:      r.MaritalStatus,
		PartnerName:        r.PartnerName,
		RelationshipLength: r.RelationshipLength,
		ClinicalSummary:    r.ClinicalSummary,
		RecordFileURL:      r.RecordFileURL,
		DefaultSlot:        r.DefaultSlot,
		SessionFee:         r.SessionFee,
		PaymentDueDay:      r.PaymentDueDay,
		Status:             models.PatientStatus(r.Status),
	}
	if r.BirthDate != nil {
		d, err := time.Parse(time.DateOnly, *r.BirthDate)
		if err != nil {
			return input, err
		}
		input.BirthDate = &d
	}
	if r.TreatmentStart != nil {
		d, err := time.Parse(time.DateOnly, *r.TreatmentStart)
		if err != nil {
			return input, err
		}
		input.TreatmentStart = &d
	}
	return input, nil
}

func (h *PatientHandler) Create(c *fiber.Ctx) error {
	var req patientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Dates must be YYYY-MM-DD"})
	}

	patient, err := h.service.Create(c.Context(), middleware.CounselorID(c), input)
	if err != nil {
		return mapServiceError(c, err, "Failed to create patient")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"patient": patient})
}

func (h *PatientHandler) List(c *fiber.Ctx) error {
	patients, err := h.service.List(c.Context(), middleware.CounselorID(c))
	if err != nil {
		return mapServiceError(c, err, "Failed to list patients")
	}
	return c.JSON(fiber.Map{"patients": patients})
}

func (h *PatientHandler) Get(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	patient, err := h.service.Get(c.Context(), middleware.CounselorID(c), patientID)
	if err != nil {
		return mapServiceError(c, err, "Failed to load patient")
	}
	return c.JSON(fiber.Map{"patient": patient})
}

func (h *PatientHandler) Update(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	var req patientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Dates must be YYYY-MM-DD"})
	}

	patient, err := h.service.Update(c.Context(), middleware.CounselorID(c), patientID, input)
	if err != nil {
		return mapServiceError(c, err, "Failed to update patient")
	}
	return c.JSON(fiber.Map{"patient": patient})
}

type approvePatientRequest struct {
	SessionFee    *decimal.Decimal `json:"session_fee"`
	DefaultSlot   *string          `json:"default_slot"`
	PaymentDueDay *int             `json:"payment_due_day"`
}

func (h *PatientHandler) Approve(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	var req approvePatientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	patient, err := h.service.Approve(c.Context(), middleware.CounselorID(c), patientID, repository.ApprovePatientInput{
		SessionFee:    req.SessionFee,
		DefaultSlot:   req.DefaultSlot,
		PaymentDueDay: req.PaymentDueDay,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to approve patient")
	}
	return c.JSON(fiber.Map{"patient": patient})
}

func (h *PatientHandler) Delete(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	if err := h.service.Delete(c.Context(), middleware.CounselorID(c), patientID); err != nil {
		return mapServiceError(c, err, "Failed to delete patient")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PatientHandler) RegisterPushToken(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	var req pushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.service.RegisterPushToken(c.Context(), middleware.CounselorID(c), patientID, req.Token); err != nil {
		return mapServiceError(c, err, "Failed to register push token")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
