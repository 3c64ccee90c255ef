package handlers

import (
	"context"
	"strings"

	"github.com/PaletotCode/Cori/internal/middleware"
	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
)

type noteApplicationService interface {
	Create(ctx context.Context, counselorID int64, input repository.CreateClinicalNoteInput) (*models.ClinicalNote, error)
	UpdateContent(ctx context.Context, counselorID, noteID int64, content string) (*models.ClinicalNote, error)
	ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.ClinicalNote, error)
}

type NoteHandler struct {
	service noteApplicationService
}

func NewNoteHandler(service *services.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

type createNoteRequest struct {
	SessionID int64  `json:"session_id"`
	Content   string `json:"content"`
	Kind      string `json:"kind"`
}

type updateNoteRequest struct {
	Content string `json:"content"`
}

func (h *NoteHandler) Create(c *fiber.Ctx) error {
	var req createNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	note, err := h.service.Create(c.Context(), middleware.CounselorID(c), repository.CreateClinicalNoteInput{
		SessionID: req.SessionID,
		Content:   req.Content,
		Kind:      models.NoteKind(strings.TrimSpace(req.Kind)),
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to create note")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"note": note})
}

func (h *NoteHandler) Update(c *fiber.Ctx) error {
	noteID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid note id"})
	}
	var req updateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	note, err := h.service.UpdateContent(c.Context(), middleware.CounselorID(c), noteID, req.Content)
	if err != nil {
		return mapServiceError(c, err, "Failed to update note")
	}
	return c.JSON(fiber.Map{"note": note})
}

func (h *NoteHandler) ListByPatient(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	notes, err := h.service.ListByPatient(c.Context(), middleware.CounselorID(c), patientID)
	if err != nil {
		return mapServiceError(c, err, "Failed to list notes")
	}
	return c.JSON(fiber.Map{"notes": notes})
}
