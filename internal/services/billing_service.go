package services

import (
	"context"
	"errors"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type billingNoticeScheduler interface {
	ScheduleBillingNotice(ctx context.Context, store notificationCreator, invoice *models.Invoice) (*models.Notification, error)
}

// BillingService aggregates billable sessions into invoices and keeps
// invoice totals consistent with session state.
type BillingService struct {
	db       *pgxpool.Pool
	notifier billingNoticeScheduler
}

func NewBillingService(db *pgxpool.Pool, notifier billingNoticeScheduler) *BillingService {
	return &BillingService{db: db, notifier: notifier}
}

type ClosePeriodInput struct {
	Month   int
	Year    int
	DueDate time.Time
}

// ClosePeriod generates the invoice for one patient and one reference
// month: it atomically selects every billable, not-yet-invoiced session
// whose start falls in that month, sums the charged amounts (a null fee
// counts as zero) and links the sessions to the new invoice. Fails without
// side effects when the period already has an invoice or nothing is
// eligible.
func (s *BillingService) ClosePeriod(ctx context.Context, counselorID, patientID int64, input ClosePeriodInput) (*models.Invoice, []models.Session, error) {
	if input.Month < 1 || input.Month > 12 || input.Year < 2000 || input.DueDate.IsZero() {
		return nil, nil, ErrInvalidInput
	}

	if _, err := repository.NewPatientRepository(s.db).GetOwned(ctx, counselorID, patientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txInvoices := repository.NewInvoiceRepository(tx)
	txSessions := repository.NewSessionRepository(tx)
	txNotifications := repository.NewNotificationRepository(tx)

	exists, err := txInvoices.ExistsForPeriod(ctx, patientID, input.Month, input.Year)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrDuplicatePeriod
	}

	periodStart := time.Date(input.Year, time.Month(input.Month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	eligible, err := txSessions.ListUninvoicedBillable(ctx, patientID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, err
	}
	if len(eligible) == 0 {
		return nil, nil, ErrNoBillableSessions
	}

	total := sumChargedAmounts(eligible)

	invoice, err := txInvoices.Create(ctx, repository.CreateInvoiceInput{
		PatientID: patientID,
		RefMonth:  input.Month,
		RefYear:   input.Year,
		Total:     total,
		DueDate:   input.DueDate,
	})
	if err != nil {
		// The unique (patient, month, year) index closes the race the
		// ExistsForPeriod check leaves open.
		if repository.IsUniqueViolation(err) {
			return nil, nil, ErrDuplicatePeriod
		}
		return nil, nil, err
	}

	sessionIDs := make([]int64, 0, len(eligible))
	for i := range eligible {
		sessionIDs = append(sessionIDs, eligible[i].ID)
		eligible[i].InvoiceID = &invoice.ID
	}
	if err := txSessions.LinkToInvoice(ctx, sessionIDs, invoice.ID); err != nil {
		return nil, nil, err
	}

	if _, err := s.notifier.ScheduleBillingNotice(ctx, txNotifications, invoice); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return invoice, eligible, nil
}

func sumChargedAmounts(sessions []models.Session) decimal.Decimal {
	total := decimal.Zero
	for _, session := range sessions {
		if session.ChargedAmount != nil {
			total = total.Add(*session.ChargedAmount)
		}
	}
	return total
}

// Recompute re-derives the invoice total from the billable sessions still
// linked to it. Paid and cancelled invoices are immutable.
func (s *BillingService) Recompute(ctx context.Context, counselorID, invoiceID int64) (*models.Invoice, error) {
	invoices := repository.NewInvoiceRepository(s.db)

	invoice, err := invoices.GetOwned(ctx, counselorID, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !invoice.State.Open() {
		return nil, ErrInvalidState
	}

	total, err := invoices.RecomputeTotal(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Total = total
	return invoice, nil
}

// MarkPaid records the payment date and closes the invoice. Cancelled and
// already-paid invoices are rejected with their state unchanged.
func (s *BillingService) MarkPaid(ctx context.Context, counselorID, invoiceID int64, paidAt time.Time) (*models.Invoice, error) {
	invoices := repository.NewInvoiceRepository(s.db)

	invoice, err := invoices.GetOwned(ctx, counselorID, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if invoice.State == models.InvoiceCancelled || invoice.State == models.InvoicePaid {
		return nil, ErrInvalidState
	}

	paid, err := invoices.MarkPaid(ctx, invoice.ID, paidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	return paid, nil
}

func (s *BillingService) ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.Invoice, error) {
	return repository.NewInvoiceRepository(s.db).ListByPatient(ctx, counselorID, patientID)
}

func (s *BillingService) ListOutstanding(ctx context.Context, counselorID int64) ([]models.InvoiceDetail, error) {
	return repository.NewInvoiceRepository(s.db).ListOutstanding(ctx, counselorID)
}
