package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/shopspring/decimal"
)

type stubBillingService struct {
	closeInvoice  *models.Invoice
	closeSessions []models.Session
	closeErr      error
	markResult    *models.Invoice
	markErr       error

	lastCounselorID int64
	lastPatientID   int64
	lastInvoiceID   int64
	lastCloseInput  services.ClosePeriodInput
}

func (s *stubBillingService) ClosePeriod(_ context.Context, counselorID, patientID int64, input services.ClosePeriodInput) (*models.Invoice, []models.Session, error) {
	s.lastCounselorID = counselorID
	s.lastPatientID = patientID
	s.lastCloseInput = input
	return s.closeInvoice, s.closeSessions, s.closeErr
}

func (s *stubBillingService) Recompute(_ context.Context, counselorID, invoiceID int64) (*models.Invoice, error) {
	s.lastCounselorID = counselorID
	s.lastInvoiceID = invoiceID
	return s.markResult, s.markErr
}

func (s *stubBillingService) MarkPaid(_ context.Context, counselorID, invoiceID int64, _ time.Time) (*models.Invoice, error) {
	s.lastCounselorID = counselorID
	s.lastInvoiceID = invoiceID
	return s.markResult, s.markErr
}

func (s *stubBillingService) ListByPatient(_ context.Context, counselorID, patientID int64) ([]models.Invoice, error) {
	s.lastCounselorID = counselorID
	s.lastPatientID = patientID
	return nil, nil
}

func (s *stubBillingService) ListOutstanding(_ context.Context, counselorID int64) ([]models.InvoiceDetail, error) {
	s.lastCounselorID = counselorID
	return nil, nil
}

func TestClosePeriodReturnsInvoiceAndSessions(t *testing.T) {
	service := &stubBillingService{
		closeInvoice: &models.Invoice{
			ID: 4, PatientID: 3, RefMonth: 3, RefYear: 2026,
			Total: decimal.RequireFromString("300.00"),
			State: models.InvoicePending,
		},
		closeSessions: []models.Session{{ID: 1}, {ID: 2}},
	}
	handler := &InvoiceHandler{service: service}

	app := authedApp(9)
	app.Post("/api/v1/invoices/close/:id", handler.ClosePeriod)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/close/3", strings.NewReader(`{
		"month": 3,
		"year": 2026,
		"due_date": "2026-04-10"
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
	if service.lastPatientID != 3 {
		t.Fatalf("expected patient 3, got %d", service.lastPatientID)
	}
	if service.lastCloseInput.Month != 3 || service.lastCloseInput.Year != 2026 {
		t.Fatalf("unexpected close input: %+v", service.lastCloseInput)
	}

	var body struct {
		Invoice  *models.Invoice  `json:"invoice"`
		Sessions []models.Session `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Invoice == nil || body.Invoice.ID != 4 {
		t.Fatalf("expected invoice 4 in body, got %+v", body.Invoice)
	}
	if len(body.Sessions) != 2 {
		t.Fatalf("expected 2 sessions in body, got %d", len(body.Sessions))
	}
}

func TestClosePeriodMapsDuplicateToConflict(t *testing.T) {
	service := &stubBillingService{closeErr: services.ErrDuplicatePeriod}
	handler := &InvoiceHandler{service: service}

	app := authedApp(9)
	app.Post("/api/v1/invoices/close/:id", handler.ClosePeriod)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/close/3", strings.NewReader(`{
		"month": 3, "year": 2026, "due_date": "2026-04-10"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestClosePeriodMapsEmptyPeriodToUnprocessable(t *testing.T) {
	service := &stubBillingService{closeErr: services.ErrNoBillableSessions}
	handler := &InvoiceHandler{service: service}

	app := authedApp(9)
	app.Post("/api/v1/invoices/close/:id", handler.ClosePeriod)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/close/3", strings.NewReader(`{
		"month": 3, "year": 2026, "due_date": "2026-04-10"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestMarkPaidDefaultsToNow(t *testing.T) {
	now := time.Now()
	service := &stubBillingService{
		markResult: &models.Invoice{ID: 4, State: models.InvoicePaid, PaidAt: &now},
	}
	handler := &InvoiceHandler{service: service}

	app := authedApp(9)
	app.Patch("/api/v1/invoices/:id/pay", handler.MarkPaid)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/invoices/4/pay", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastInvoiceID != 4 {
		t.Fatalf("expected invoice 4, got %d", service.lastInvoiceID)
	}
}

func TestMarkPaidMapsImmutableInvoice(t *testing.T) {
	service := &stubBillingService{markErr: services.ErrInvalidState}
	handler := &InvoiceHandler{service: service}

	app := authedApp(9)
	app.Patch("/api/v1/invoices/:id/pay", handler.MarkPaid)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/invoices/4/pay", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}
