package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/PaletotCode/Cori/internal/middleware"
	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
)

type taskApplicationService interface {
	Create(ctx context.Context, counselorID int64, input repository.CreateTaskInput) (*models.Task, error)
	UpdateStatus(ctx context.Context, counselorID, taskID int64, status models.TaskStatus) (*models.Task, error)
	ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.Task, error)
}

type TaskHandler struct {
	service taskApplicationService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	PatientID   int64   `json:"patient_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueAt       *string `json:"due_at"`
}

type updateTaskStatusRequest struct {
	Status string `json:"status"`
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	input := repository.CreateTaskInput{
		PatientID:   req.PatientID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueAt != nil {
		dueAt, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.DueAt))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "due_at must be a valid RFC3339 timestamp"})
		}
		input.DueAt = &dueAt
	}

	task, err := h.service.Create(c.Context(), middleware.CounselorID(c), input)
	if err != nil {
		return mapServiceError(c, err, "Failed to create task")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) UpdateStatus(c *fiber.Ctx) error {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task id"})
	}
	var req updateTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	task, err := h.service.UpdateStatus(c.Context(), middleware.CounselorID(c), taskID, models.TaskStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		return mapServiceError(c, err, "Failed to update task")
	}
	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) ListByPatient(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	tasks, err := h.service.ListByPatient(c.Context(), middleware.CounselorID(c), patientID)
	if err != nil {
		return mapServiceError(c, err, "Failed to list tasks")
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}
