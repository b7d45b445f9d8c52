package repositories

import (
	"context"
	"time"

	"agencyops/internal/models"

	"github.com/google/uuid"
)

type InvoiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetByStripeInvoiceID(ctx context.Context, stripeInvoiceID string) (*models.Invoice, error)
	// MarkSent persists the external reference and moves the invoice to sent
	// in a single row update. This is the commit phase of the send operation.
	MarkSent(ctx context.Context, id uuid.UUID, stripeInvoiceID, stripeInvoiceURL string) error
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error
	ListSentPastDue(ctx context.Context, asOf time.Time) ([]*models.Invoice, error)
}

type invoiceRepo struct {
	db DB
}

func NewInvoiceRepo(db DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, invoice_number, client_id, project_id, milestone_id, amount, tax_amount, currency, status, due_date, stripe_invoice_id, stripe_invoice_url, paid_at, created_at, updated_at`

func (r *invoiceRepo) scanInvoice(row interface{ Scan(dest ...any) error }) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	err := row.Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.ClientID, &invoice.ProjectID, &invoice.MilestoneID, &invoice.Amount, &invoice.TaxAmount, &invoice.Currency, &invoice.Status, &invoice.DueDate, &invoice.StripeInvoiceID, &invoice.StripeInvoiceURL, &invoice.PaidAt, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepo) loadLineItems(ctx context.Context, invoice *models.Invoice) error {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, position
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY position ASC
	`
	rows, err := r.db.Query(ctx, query, invoice.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var items []models.InvoiceLineItem
	for rows.Next() {
		item := models.InvoiceLineItem{}
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Position); err != nil {
			return err
		}
		items = append(items, item)
	}
	invoice.LineItems = items
	return rows.Err()
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1
	`
	invoice, err := r.scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLineItems(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepo) GetByStripeInvoiceID(ctx context.Context, stripeInvoiceID string) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE stripe_invoice_id = $1
	`
	invoice, err := r.scanInvoice(r.db.QueryRow(ctx, query, stripeInvoiceID))
	if err != nil {
		return nil, err
	}
	if err := r.loadLineItems(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepo) MarkSent(ctx context.Context, id uuid.UUID, stripeInvoiceID, stripeInvoiceURL string) error {
	query := `
		UPDATE invoices
		SET stripe_invoice_id = $1, stripe_invoice_url = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, stripeInvoiceID, stripeInvoiceURL, models.InvoiceStatusSent, id)
	return err
}

func (r *invoiceRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	query := `
		UPDATE invoices
		SET status = $1, paid_at = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, models.InvoiceStatusPaid, paidAt, id)
	return err
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *invoiceRepo) ListSentPastDue(ctx context.Context, asOf time.Time) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status = $1 AND due_date IS NOT NULL AND due_date < $2
		ORDER BY due_date ASC
	`
	rows, err := r.db.Query(ctx, query, models.InvoiceStatusSent, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := r.scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}
