package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"agencyops/internal/models"
	"agencyops/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StripeEvent is the verified webhook event envelope.
type StripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    StripeEventData `json:"data"`
}

type StripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeInvoiceObject struct {
	ID                string            `json:"id"`
	AmountPaid        int64             `json:"amount_paid"`
	Currency          string            `json:"currency"`
	PaymentIntent     string            `json:"payment_intent"`
	Metadata          map[string]string `json:"metadata"`
	StatusTransitions struct {
		PaidAt int64 `json:"paid_at"`
	} `json:"status_transitions"`
}

type stripePaymentIntentObject struct {
	ID string `json:"id"`
}

type stripeChargeObject struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
}

type stripeDisputeObject struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
}

// PaymentReconciler applies ledger events to local state. Every handler is
// idempotent and order-tolerant: re-running it against state that already
// absorbed its effect is a no-op, which is what makes "return an error and
// let the processor redeliver" a safe universal fallback.
type PaymentReconciler interface {
	HandleEvent(ctx context.Context, event *StripeEvent) error
}

type paymentReconciler struct {
	invoiceRepo   repositories.InvoiceRepository
	paymentRepo   repositories.PaymentRepository
	milestoneRepo repositories.MilestoneRepository
}

func NewPaymentReconciler(
	invoiceRepo repositories.InvoiceRepository,
	paymentRepo repositories.PaymentRepository,
	milestoneRepo repositories.MilestoneRepository,
) PaymentReconciler {
	return &paymentReconciler{
		invoiceRepo:   invoiceRepo,
		paymentRepo:   paymentRepo,
		milestoneRepo: milestoneRepo,
	}
}

func (r *paymentReconciler) HandleEvent(ctx context.Context, event *StripeEvent) error {
	switch event.Type {
	case "invoice.paid":
		return r.handleInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		return r.handleInvoicePaymentFailed(ctx, event)
	case "invoice.voided":
		return r.handleInvoiceVoided(ctx, event)
	case "payment_intent.succeeded":
		return r.handlePaymentIntent(ctx, event, models.PaymentStatusSucceeded)
	case "payment_intent.payment_failed":
		return r.handlePaymentIntent(ctx, event, models.PaymentStatusFailed)
	case "payment_intent.canceled":
		return r.handlePaymentIntent(ctx, event, models.PaymentStatusCanceled)
	case "charge.refunded":
		return r.handleChargeRefunded(ctx, event)
	case "charge.dispute.created":
		return r.handleChargeDisputeCreated(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		// No local subscription state is owned by this system.
		log.Printf("subscription event %s (%s) acknowledged", event.Type, event.ID)
		return nil
	default:
		// Unknown event types are acknowledged for forward compatibility.
		log.Printf("ignoring unhandled stripe event type %s (%s)", event.Type, event.ID)
		return nil
	}
}

// lookupInvoice resolves the local invoice for a ledger invoice object, first
// by the external reference and then by the invoice_id embedded in metadata.
// The metadata fallback covers the window where the ledger invoice exists but
// the local external-reference column has not committed yet.
func (r *paymentReconciler) lookupInvoice(ctx context.Context, obj *stripeInvoiceObject) (*models.Invoice, error) {
	invoice, err := r.invoiceRepo.GetByStripeInvoiceID(ctx, obj.ID)
	if err == nil {
		return invoice, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if raw, ok := obj.Metadata["invoice_id"]; ok && raw != "" {
		localID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return nil, pgx.ErrNoRows
		}
		return r.invoiceRepo.GetByID(ctx, localID)
	}
	return nil, pgx.ErrNoRows
}

func (r *paymentReconciler) handleInvoicePaid(ctx context.Context, event *StripeEvent) error {
	var obj stripeInvoiceObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return fmt.Errorf("failed to parse invoice object in %s: %w", event.ID, err)
	}

	invoice, err := r.lookupInvoice(ctx, &obj)
	if err != nil {
		// Returning an error makes the processor retry later instead of
		// dropping the payment notification on the floor.
		return fmt.Errorf("no local invoice for stripe invoice %s: %w", obj.ID, err)
	}

	if invoice.Status != models.InvoiceStatusSent && invoice.Status != models.InvoiceStatusOverdue {
		log.Printf("skipping invoice.paid for invoice %s: status is %s", invoice.ID, invoice.Status)
		return nil
	}

	// The ledger's paid amount is authoritative for the payment record; the
	// local amount only reflects what was requested.
	paidAmount := float64(obj.AmountPaid) / 100
	localTotal := invoice.Amount + invoice.TaxAmount
	if obj.AmountPaid != int64(math.Round(localTotal*100)) {
		log.Printf("WARN: stripe invoice %s paid %.2f but local invoice %s totals %.2f", obj.ID, paidAmount, invoice.ID, localTotal)
	}

	exists, err := r.paymentRepo.HasSucceededForInvoice(ctx, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing payment for invoice %s: %w", invoice.ID, err)
	}
	if exists {
		log.Printf("skipping invoice.paid for invoice %s: succeeded payment already recorded", invoice.ID)
		return nil
	}

	paidAt := time.Unix(event.Created, 0)
	if obj.StatusTransitions.PaidAt > 0 {
		paidAt = time.Unix(obj.StatusTransitions.PaidAt, 0)
	}

	// Insert the payment before touching invoice or milestone status: a
	// retry arriving between the insert and the updates below is stopped by
	// the existence check above.
	payment := &models.Payment{
		ID:        uuid.New(),
		InvoiceID: invoice.ID,
		ProjectID: invoice.ProjectID,
		ClientID:  invoice.ClientID,
		Amount:    paidAmount,
		Currency:  paymentCurrency(&obj, invoice),
		Status:    models.PaymentStatusSucceeded,
		PaidAt:    &paidAt,
	}
	if obj.PaymentIntent != "" {
		payment.StripePaymentIntentID = &obj.PaymentIntent
	}
	method := "stripe"
	payment.PaymentMethod = &method

	if err := r.paymentRepo.Create(ctx, payment); err != nil {
		return fmt.Errorf("failed to record payment for invoice %s: %w", invoice.ID, err)
	}

	if err := models.ValidateInvoiceTransition(invoice.Status, models.InvoiceStatusPaid); err != nil {
		return err
	}
	if err := r.invoiceRepo.MarkPaid(ctx, invoice.ID, paidAt); err != nil {
		return fmt.Errorf("failed to mark invoice %s paid: %w", invoice.ID, err)
	}

	if invoice.MilestoneID != nil {
		if err := r.milestoneRepo.MarkPaid(ctx, *invoice.MilestoneID, paidAt); err != nil {
			return fmt.Errorf("failed to mark milestone %s paid: %w", *invoice.MilestoneID, err)
		}
	}
	return nil
}

func (r *paymentReconciler) handleInvoicePaymentFailed(ctx context.Context, event *StripeEvent) error {
	var obj stripeInvoiceObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return fmt.Errorf("failed to parse invoice object in %s: %w", event.ID, err)
	}

	invoice, err := r.lookupInvoice(ctx, &obj)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("skipping invoice.payment_failed for stripe invoice %s: no local invoice", obj.ID)
			return nil
		}
		return err
	}

	if invoice.Status != models.InvoiceStatusSent {
		log.Printf("skipping invoice.payment_failed for invoice %s: status is %s", invoice.ID, invoice.Status)
		return nil
	}
	return r.invoiceRepo.UpdateStatus(ctx, invoice.ID, models.InvoiceStatusOverdue)
}

func (r *paymentReconciler) handleInvoiceVoided(ctx context.Context, event *StripeEvent) error {
	var obj stripeInvoiceObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return fmt.Errorf("failed to parse invoice object in %s: %w", event.ID, err)
	}

	invoice, err := r.lookupInvoice(ctx, &obj)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("skipping invoice.voided for stripe invoice %s: no local invoice", obj.ID)
			return nil
		}
		return err
	}

	if !invoice.Status.CanTransitionTo(models.InvoiceStatusCancelled) {
		log.Printf("skipping invoice.voided for invoice %s: status is %s", invoice.ID, invoice.Status)
		return nil
	}
	return r.invoiceRepo.UpdateStatus(ctx, invoice.ID, models.InvoiceStatusCancelled)
}

// handlePaymentIntent overwrites the payment status located by the external
// payment-intent reference. The write is a pure overwrite to a terminal-ish
// status, so redelivery is naturally idempotent and no status guard is needed.
func (r *paymentReconciler) handlePaymentIntent(ctx context.Context, event *StripeEvent, status models.PaymentStatus) error {
	var obj stripePaymentIntentObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return fmt.Errorf("failed to parse payment intent object in %s: %w", event.ID, err)
	}

	updated, err := r.paymentRepo.UpdateStatusByPaymentIntentID(ctx, obj.ID, status)
	if err != nil {
		return fmt.Errorf("failed to update payment for intent %s: %w", obj.ID, err)
	}
	if !updated {
		log.Printf("skipping %s: no payment row for intent %s", event.Type, obj.ID)
	}
	return nil
}

func (r *paymentReconciler) handleChargeRefunded(ctx context.Context, event *StripeEvent) error {
	var obj stripeChargeObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return fmt.Errorf("failed to parse charge object in %s: %w", event.ID, err)
	}

	if obj.PaymentIntent == "" {
		log.Printf("skipping charge.refunded for charge %s: no payment intent reference", obj.ID)
		return nil
	}

	updated, err := r.paymentRepo.UpdateStatusByPaymentIntentID(ctx, obj.PaymentIntent, models.PaymentStatusRefunded)
	if err != nil {
		return fmt.Errorf("failed to mark payment refunded for intent %s: %w", obj.PaymentIntent, err)
	}
	if !updated {
		log.Printf("skipping charge.refunded: no payment row for intent %s", obj.PaymentIntent)
	}
	return nil
}

func (r *paymentReconciler) handleChargeDisputeCreated(ctx context.Context, event *StripeEvent) error {
	var obj stripeDisputeObject
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil {
		return fmt.Errorf("failed to parse dispute object in %s: %w", event.ID, err)
	}

	if obj.PaymentIntent == "" {
		log.Printf("skipping charge.dispute.created for dispute %s: no payment intent reference", obj.ID)
		return nil
	}

	updated, err := r.paymentRepo.UpdateStatusByPaymentIntentID(ctx, obj.PaymentIntent, models.PaymentStatusDisputed)
	if err != nil {
		return fmt.Errorf("failed to mark payment disputed for intent %s: %w", obj.PaymentIntent, err)
	}
	if !updated {
		log.Printf("skipping charge.dispute.created: no payment row for intent %s", obj.PaymentIntent)
	}
	return nil
}

func paymentCurrency(obj *stripeInvoiceObject, invoice *models.Invoice) string {
	if obj.Currency != "" {
		return obj.Currency
	}
	return invoiceCurrency(invoice)
}
