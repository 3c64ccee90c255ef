package repository

import (
	"context"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CreateInvoiceInput struct {
	PatientID int64
	RefMonth  int
	RefYear   int
	Total     decimal.Decimal
	DueDate   time.Time
}

const invoiceColumns = `
	id, patient_id, ref_month, ref_year, total, state, due_date, paid_at, created_at`

type InvoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	query := `
		INSERT INTO invoices (patient_id, ref_month, ref_year, total, state, due_date)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING` + invoiceColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.PatientID, input.RefMonth, input.RefYear, input.Total, input.DueDate,
	))
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	query := `SELECT` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Invoice, error) {
	query := `SELECT` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *InvoiceRepository) GetOwned(ctx context.Context, counselorID, invoiceID int64) (*models.Invoice, error) {
	query := `
		SELECT i.id, i.patient_id, i.ref_month, i.ref_year, i.total, i.state,
		       i.due_date, i.paid_at, i.created_at
		FROM invoices i
		JOIN patients p ON p.id = i.patient_id
		WHERE i.id = $1 AND p.counselor_id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, invoiceID, counselorID))
}

func (r *InvoiceRepository) ExistsForPeriod(ctx context.Context, patientID int64, month, year int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE patient_id = $1 AND ref_month = $2 AND ref_year = $3
		)
	`, patientID, month, year).Scan(&exists)
	return exists, err
}

// RecomputeTotal re-sums the charged amounts of the billable sessions still
// linked to the invoice, in one atomic statement. Callers must not invoke it
// for paid or cancelled invoices.
func (r *InvoiceRepository) RecomputeTotal(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		UPDATE invoices
		SET total = (
			SELECT COALESCE(SUM(COALESCE(s.charged_amount, 0)), 0)
			FROM sessions s
			WHERE s.invoice_id = invoices.id
			  AND s.state IN ('completed', 'charged_no_show')
		)
		WHERE id = $1
		RETURNING total
	`, invoiceID).Scan(&total)
	return total, err
}

// MarkPaid flips an open, unpaid invoice to paid; pgx.ErrNoRows signals the
// invoice was already paid or cancelled.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, invoiceID int64, paidAt time.Time) (*models.Invoice, error) {
	query := `
		UPDATE invoices
		SET state = 'paid', paid_at = $2
		WHERE id = $1 AND state IN ('pending', 'overdue')
		RETURNING` + invoiceColumns
	return r.scanOne(r.db.QueryRow(ctx, query, invoiceID, paidAt))
}

func (r *InvoiceRepository) ListByPatient(ctx context.Context, counselorID, patientID int64) ([]models.Invoice, error) {
	query := `
		SELECT i.id, i.patient_id, i.ref_month, i.ref_year, i.total, i.state,
		       i.due_date, i.paid_at, i.created_at
		FROM invoices i
		JOIN patients p ON p.id = i.patient_id
		WHERE i.patient_id = $1 AND p.counselor_id = $2
		ORDER BY i.ref_year DESC, i.ref_month DESC
	`
	rows, err := r.db.Query(ctx, query, patientID, counselorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]models.Invoice, 0)
	for rows.Next() {
		var inv models.Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListOutstanding aggregates pending and overdue invoices across all of the
// counselor's patients, with the patient mini-profile for dashboard render.
func (r *InvoiceRepository) ListOutstanding(ctx context.Context, counselorID int64) ([]models.InvoiceDetail, error) {
	query := `
		SELECT i.id, i.patient_id, i.ref_month, i.ref_year, i.total, i.state,
		       i.due_date, i.paid_at, i.created_at,
		       p.id, p.full_name, p.photo_url
		FROM invoices i
		JOIN patients p ON p.id = i.patient_id
		WHERE p.counselor_id = $1 AND i.state IN ('pending', 'overdue')
		ORDER BY i.due_date, i.id
	`
	rows, err := r.db.Query(ctx, query, counselorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]models.InvoiceDetail, 0)
	for rows.Next() {
		var d models.InvoiceDetail
		var summary models.PatientSummary
		if err := rows.Scan(
			&d.ID, &d.PatientID, &d.RefMonth, &d.RefYear, &d.Total, &d.State,
			&d.DueDate, &d.PaidAt, &d.CreatedAt,
			&summary.ID, &summary.FullName, &summary.PhotoURL,
		); err != nil {
			return nil, err
		}
		d.Patient = &summary
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *InvoiceRepository) scanOne(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	if err := scanInvoice(row, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanInvoice(row pgx.Row, inv *models.Invoice) error {
	return row.Scan(
		&inv.ID,
		&inv.PatientID,
		&inv.RefMonth,
		&inv.RefYear,
		&inv.Total,
		&inv.State,
		&inv.DueDate,
		&inv.PaidAt,
		&inv.CreatedAt,
	)
}
