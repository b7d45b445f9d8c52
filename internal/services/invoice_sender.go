package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"agencyops/internal/common"
	"agencyops/internal/models"
	"agencyops/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvoiceNotDraft = errors.New("invoice is not in draft status")
	ErrNoClient        = errors.New("invoice has no client assigned")
	ErrInvalidAmount   = errors.New("invoice amount must be a finite number greater than zero")
	ErrInvalidTax      = errors.New("invoice tax amount must be a finite number and cannot be negative")
)

// CompensationError reports that the local commit failed after the ledger
// invoice was already sent, and whether the compensating void succeeded. The
// handler surfaces its message so operators can tell the two outcomes apart;
// re-invoking send is safe either way because of the idempotent-recovery path.
type CompensationError struct {
	CommitErr error
	VoidErr   error
}

func (e *CompensationError) Error() string {
	if e.VoidErr != nil {
		return fmt.Sprintf("invoice was sent externally but saving it locally failed and voiding the external invoice also failed; manual reconciliation required: commit: %v, void: %v", e.CommitErr, e.VoidErr)
	}
	return fmt.Sprintf("invoice send failed while saving locally; the external invoice was voided and it is safe to retry: %v", e.CommitErr)
}

func (e *CompensationError) Unwrap() error {
	return e.CommitErr
}

// SendInvoiceResult is the invoice record returned to the caller with its
// client and project expanded.
type SendInvoiceResult struct {
	*models.Invoice
	Client  *models.Client  `json:"client,omitempty"`
	Project *models.Project `json:"project,omitempty"`
}

// InvoiceSender moves a draft invoice to sent by mirroring it into the
// payment ledger and committing the external reference back locally.
type InvoiceSender interface {
	SendInvoice(ctx context.Context, invoiceID uuid.UUID) (*SendInvoiceResult, error)
}

type invoiceSender struct {
	invoiceRepo    repositories.InvoiceRepository
	clientRepo     repositories.ClientRepository
	projectRepo    repositories.ProjectRepository
	stripeSvc      StripeService
	commitAttempts int
	commitBackoff  time.Duration
}

// NewInvoiceSender creates an invoice sender. commitAttempts and
// commitBackoff bound the local-commit retry loop after the ledger invoice
// has been sent (production uses 3 attempts at 200ms linear backoff).
func NewInvoiceSender(
	invoiceRepo repositories.InvoiceRepository,
	clientRepo repositories.ClientRepository,
	projectRepo repositories.ProjectRepository,
	stripeSvc StripeService,
	commitAttempts int,
	commitBackoff time.Duration,
) InvoiceSender {
	return &invoiceSender{
		invoiceRepo:    invoiceRepo,
		clientRepo:     clientRepo,
		projectRepo:    projectRepo,
		stripeSvc:      stripeSvc,
		commitAttempts: commitAttempts,
		commitBackoff:  commitBackoff,
	}
}

func (s *invoiceSender) SendInvoice(ctx context.Context, invoiceID uuid.UUID) (*SendInvoiceResult, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to load invoice %s: %w", invoiceID, err)
	}

	// Idempotent recovery: a prior attempt already created the ledger
	// invoice but may have crashed before the local commit. Reconcile the
	// local status and return without touching the ledger again.
	if common.SafeString(invoice.StripeInvoiceID) != "" {
		return s.recoverSend(ctx, invoice)
	}

	if invoice.Status != models.InvoiceStatusDraft {
		return nil, ErrInvoiceNotDraft
	}
	if invoice.ClientID == nil {
		return nil, ErrNoClient
	}
	if err := common.ValidateMonetaryAmount(invoice.Amount, "amount", true); err != nil {
		return nil, ErrInvalidAmount
	}
	if err := common.ValidateMonetaryAmount(invoice.TaxAmount, "tax_amount", false); err != nil {
		return nil, ErrInvalidTax
	}

	clientRecord, err := s.clientRepo.GetByID(ctx, *invoice.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client %s: %w", *invoice.ClientID, err)
	}

	customerID, err := s.stripeSvc.EnsureCustomer(ctx, clientRecord)
	if err != nil {
		return nil, err
	}
	if common.SafeString(clientRecord.StripeCustomerID) != customerID {
		if err := s.clientRepo.SetStripeCustomerID(ctx, clientRecord.ID, customerID); err != nil {
			log.Printf("WARN: failed to persist stripe customer %s on client %s: %v", customerID, clientRecord.ID, err)
		}
		clientRecord.StripeCustomerID = &customerID
	}

	currency := invoiceCurrency(invoice)
	dueDate := clampDueDate(invoice.DueDate, time.Now())

	stripeInvoiceID, err := s.stripeSvc.CreateDraftInvoice(ctx, customerID, dueDate, currency, InvoiceMetadata{
		InvoiceID:     invoice.ID,
		ProjectID:     invoice.ProjectID,
		InvoiceNumber: invoice.InvoiceNumber,
	})
	if err != nil {
		return nil, err
	}

	if err := s.addLineItems(ctx, invoice, customerID, stripeInvoiceID, currency); err != nil {
		// A half-built ledger invoice with a mismatched total is worse than
		// a clean failure; let the whole operation fail.
		return nil, err
	}

	hostedURL, err := s.stripeSvc.FinalizeInvoice(ctx, stripeInvoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.stripeSvc.SendInvoice(ctx, stripeInvoiceID); err != nil {
		return nil, err
	}

	// Commit phase: the ledger invoice is out the door; the local row must
	// reflect it. Bounded retry, then compensate by voiding on exhaustion.
	commitErr := common.Retry(ctx, s.commitAttempts, s.commitBackoff, func() error {
		return s.invoiceRepo.MarkSent(ctx, invoice.ID, stripeInvoiceID, hostedURL)
	})
	if commitErr != nil {
		voidErr := s.stripeSvc.VoidInvoice(ctx, stripeInvoiceID)
		if voidErr != nil {
			log.Printf("CRITICAL: local commit for invoice %s failed and voiding stripe invoice %s also failed, manual intervention required: commit: %v, void: %v", invoice.ID, stripeInvoiceID, commitErr, voidErr)
		} else {
			log.Printf("CRITICAL: local commit for invoice %s failed after stripe invoice %s was sent; the stripe invoice was voided", invoice.ID, stripeInvoiceID)
		}
		return nil, &CompensationError{CommitErr: commitErr, VoidErr: voidErr}
	}

	invoice.Status = models.InvoiceStatusSent
	invoice.StripeInvoiceID = &stripeInvoiceID
	invoice.StripeInvoiceURL = &hostedURL

	return s.expand(ctx, invoice, clientRecord), nil
}

// recoverSend reconciles the local status of an invoice whose ledger mirror
// already exists. No new ledger invoice and no new line items are created.
func (s *invoiceSender) recoverSend(ctx context.Context, invoice *models.Invoice) (*SendInvoiceResult, error) {
	if invoice.Status.IsTerminal() {
		return nil, ErrInvoiceNotDraft
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, models.InvoiceStatusSent); err != nil {
		return nil, fmt.Errorf("failed to reconcile invoice %s to sent: %w", invoice.ID, err)
	}
	if invoice.Status != models.InvoiceStatusSent {
		log.Printf("WARN: invoice %s already had stripe invoice %s; reconciled status %s -> sent", invoice.ID, common.SafeString(invoice.StripeInvoiceID), invoice.Status)
	}
	invoice.Status = models.InvoiceStatusSent

	var clientRecord *models.Client
	if invoice.ClientID != nil {
		clientRecord, _ = s.clientRepo.GetByID(ctx, *invoice.ClientID)
	}
	return s.expand(ctx, invoice, clientRecord), nil
}

func (s *invoiceSender) addLineItems(ctx context.Context, invoice *models.Invoice, customerID, stripeInvoiceID, currency string) error {
	targetCents := toCents(invoice.Amount)

	if len(invoice.LineItems) == 0 {
		description := fmt.Sprintf("Invoice %s", invoice.InvoiceNumber)
		if err := s.stripeSvc.AddInvoiceItem(ctx, customerID, stripeInvoiceID, description, 1, targetCents, currency); err != nil {
			return err
		}
	} else {
		var totalCents int64
		for _, item := range invoice.LineItems {
			unitCents := toCents(item.UnitPrice)
			if err := s.stripeSvc.AddInvoiceItem(ctx, customerID, stripeInvoiceID, item.Description, int64(item.Quantity), unitCents, currency); err != nil {
				return err
			}
			totalCents += unitCents * int64(item.Quantity)
		}

		// Per-item rounding can drift from the independently rounded invoice
		// total; one corrective item keeps the ledger total penny-exact.
		if diff := targetCents - totalCents; diff != 0 {
			log.Printf("WARN: invoice %s line items sum to %d cents, expected %d; adding rounding adjustment of %d", invoice.ID, totalCents, targetCents, diff)
			if err := s.stripeSvc.AddInvoiceItem(ctx, customerID, stripeInvoiceID, "Rounding adjustment", 1, diff, currency); err != nil {
				return err
			}
		}
	}

	if invoice.TaxAmount > 0 {
		if err := s.stripeSvc.AddInvoiceItem(ctx, customerID, stripeInvoiceID, "Tax", 1, toCents(invoice.TaxAmount), currency); err != nil {
			return err
		}
	}
	return nil
}

func (s *invoiceSender) expand(ctx context.Context, invoice *models.Invoice, clientRecord *models.Client) *SendInvoiceResult {
	result := &SendInvoiceResult{Invoice: invoice, Client: clientRecord}
	if invoice.ProjectID != nil {
		project, err := s.projectRepo.GetByID(ctx, *invoice.ProjectID)
		if err != nil {
			log.Printf("WARN: failed to expand project %s on invoice %s: %v", *invoice.ProjectID, invoice.ID, err)
		} else {
			result.Project = project
		}
	}
	return result
}

// toCents converts a dollar amount to integer minor currency units, rounding
// half-up, which is how the ledger prices line items.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// clampDueDate keeps a future due date beyond tomorrow as-is, clamps anything
// nearer to tomorrow and defaults to 30 days out when absent. The ledger
// rejects due dates that are not strictly in the future.
func clampDueDate(dueDate *time.Time, now time.Time) time.Time {
	tomorrow := now.Add(24 * time.Hour)
	if dueDate == nil {
		return now.AddDate(0, 0, 30)
	}
	if dueDate.After(tomorrow) {
		return *dueDate
	}
	return tomorrow
}

func invoiceCurrency(invoice *models.Invoice) string {
	if invoice.Currency == "" {
		return "usd"
	}
	return invoice.Currency
}
