package repositories

import (
	"context"

	"agencyops/internal/models"

	"github.com/google/uuid"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	// HasSucceededForInvoice reports whether a succeeded payment row already
	// exists for the invoice. The reconciler checks this before inserting so
	// redelivered invoice.paid events never create a second row.
	HasSucceededForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error)
	// UpdateStatusByPaymentIntentID overwrites the payment status located by
	// the external payment-intent reference. Returns false when no payment
	// row carries that reference.
	UpdateStatusByPaymentIntentID(ctx context.Context, paymentIntentID string, status models.PaymentStatus) (bool, error)
}

type paymentRepo struct {
	db DB
}

func NewPaymentRepo(db DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, invoice_id, project_id, client_id, amount, currency, status, stripe_payment_intent_id, payment_method, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, payment.ID, payment.InvoiceID, payment.ProjectID, payment.ClientID, payment.Amount, payment.Currency, payment.Status, payment.StripePaymentIntentID, payment.PaymentMethod, payment.PaidAt)
	return err
}

func (r *paymentRepo) HasSucceededForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments WHERE invoice_id = $1 AND status = $2
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, invoiceID, models.PaymentStatusSucceeded).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *paymentRepo) UpdateStatusByPaymentIntentID(ctx context.Context, paymentIntentID string, status models.PaymentStatus) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE stripe_payment_intent_id = $2
	`
	tag, err := r.db.Exec(ctx, query, status, paymentIntentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
