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

type billingApplicationService interface {
	ClosePeriod(ctx context.Context, counselorID, patientID int64, input services.ClosePeriodInput) (*models.Invoice, []models.Session, error)
	Recompute(ctx context.Context, counselorID, invoiceID int64) (*models.Invoice, error)
	MarkPaid(ctx context.Context, counselorID, invoiceID int64, paidAt time.Time) (*models.Invoice, error)
	ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.Invoice, error)
	ListOutstanding(ctx context.Context, counselorID int64) ([]models.InvoiceDetail, error)
}

type InvoiceHandler struct {
	service billingApplicationService
}

func NewInvoiceHandler(service *services.BillingService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

type closePeriodRequest struct {
	Month   int    `json:"month"`
	Year    int    `json:"year"`
	DueDate string `json:"due_date"`
}

func (h *InvoiceHandler) ClosePeriod(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	var req closePeriodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	dueDate, err := time.Parse(time.DateOnly, strings.TrimSpace(req.DueDate))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "due_date must be YYYY-MM-DD"})
	}

	invoice, sessions, err := h.service.ClosePeriod(c.Context(), middleware.CounselorID(c), patientID, services.ClosePeriodInput{
		Month:   req.Month,
		Year:    req.Year,
		DueDate: dueDate,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to close billing period")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"invoice":  invoice,
		"sessions": sessions,
	})
}

func (h *InvoiceHandler) Recompute(c *fiber.Ctx) error {
	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice id"})
	}
	invoice, err := h.service.Recompute(c.Context(), middleware.CounselorID(c), invoiceID)
	if err != nil {
		return mapServiceError(c, err, "Failed to recompute invoice")
	}
	return c.JSON(fiber.Map{"invoice": invoice})
}

type markPaidRequest struct {
	PaidAt *string `json:"paid_at"`
}

func (h *InvoiceHandler) MarkPaid(c *fiber.Ctx) error {
	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice id"})
	}
	var req markPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt, err = time.Parse(time.RFC3339, *req.PaidAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "paid_at must be a valid RFC3339 timestamp"})
		}
	}

	invoice, err := h.service.MarkPaid(c.Context(), middleware.CounselorID(c), invoiceID, paidAt)
	if err != nil {
		return mapServiceError(c, err, "Failed to mark invoice paid")
	}
	return c.JSON(fiber.Map{"invoice": invoice})
}

func (h *InvoiceHandler) ListByPatient(c *fiber.Ctx) error {
	patientID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid patient id"})
	}
	invoices, err := h.service.ListByPatient(c.Context(), middleware.CounselorID(c), patientID)
	if err != nil {
		return mapServiceError(c, err, "Failed to list invoices")
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

// ListOutstanding feeds the billing dashboard: every pending or overdue
// invoice across the counselor's patients.
func (h *InvoiceHandler) ListOutstanding(c *fiber.Ctx) error {
	invoices, err := h.service.ListOutstanding(c.Context(), middleware.CounselorID(c))
	if err != nil {
		return mapServiceError(c, err, "Failed to list outstanding invoices")
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}
