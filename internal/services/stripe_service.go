package services

import (
	"context"
	"fmt"
	"time"

	"agencyops/internal/common"
	"agencyops/internal/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// InvoiceMetadata carries the cross-system correlation ids attached to every
// external invoice at creation time. The reconciler's secondary lookup path
// reads invoice_id back out of the event metadata when the local row's
// external reference has not committed yet.
type InvoiceMetadata struct {
	InvoiceID     uuid.UUID
	ProjectID     *uuid.UUID
	InvoiceNumber string
}

// StripeService wraps the external payment ledger. The invoice sender and
// the tests consume this interface; the real implementation talks to Stripe.
type StripeService interface {
	// EnsureCustomer resolves the ledger customer for a client, creating one
	// when the client has never been billed before.
	EnsureCustomer(ctx context.Context, clientRecord *models.Client) (string, error)
	// CreateDraftInvoice creates a draft ledger invoice with send-invoice
	// collection and the correlation metadata. Returns the ledger invoice id.
	CreateDraftInvoice(ctx context.Context, customerID string, dueDate time.Time, currency string, meta InvoiceMetadata) (string, error)
	// AddInvoiceItem attaches one line item priced in integer minor currency
	// units to a draft ledger invoice.
	AddInvoiceItem(ctx context.Context, customerID, invoiceID, description string, quantity, unitAmount int64, currency string) error
	// FinalizeInvoice locks the ledger invoice from further edits. Returns
	// the hosted invoice URL.
	FinalizeInvoice(ctx context.Context, invoiceID string) (string, error)
	// SendInvoice triggers the ledger's own delivery of a finalized invoice.
	SendInvoice(ctx context.Context, invoiceID string) error
	// VoidInvoice is the compensating action when a local commit fails after
	// the ledger invoice was already sent.
	VoidInvoice(ctx context.Context, invoiceID string) error
}

type stripeService struct {
	api *client.API
}

// NewStripeService creates a Stripe-backed ledger client
func NewStripeService(apiKey string) StripeService {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &stripeService{api: api}
}

func (s *stripeService) EnsureCustomer(ctx context.Context, clientRecord *models.Client) (string, error) {
	if id := common.SafeString(clientRecord.StripeCustomerID); id != "" {
		return id, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(clientRecord.Email),
		Name:  stripe.String(clientRecord.Name),
	}
	params.Context = ctx
	params.AddMetadata("client_id", clientRecord.ID.String())

	customer, err := s.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer for client %s: %w", clientRecord.ID, err)
	}
	return customer.ID, nil
}

func (s *stripeService) CreateDraftInvoice(ctx context.Context, customerID string, dueDate time.Time, currency string, meta InvoiceMetadata) (string, error) {
	params := &stripe.InvoiceParams{
		Customer:         stripe.String(customerID),
		CollectionMethod: stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DueDate:          stripe.Int64(dueDate.Unix()),
		Currency:         stripe.String(currency),
	}
	params.Context = ctx
	params.AddMetadata("invoice_id", meta.InvoiceID.String())
	params.AddMetadata("invoice_number", meta.InvoiceNumber)
	if meta.ProjectID != nil {
		params.AddMetadata("project_id", meta.ProjectID.String())
	}

	invoice, err := s.api.Invoices.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe invoice: %w", err)
	}
	return invoice.ID, nil
}

func (s *stripeService) AddInvoiceItem(ctx context.Context, customerID, invoiceID, description string, quantity, unitAmount int64, currency string) error {
	params := &stripe.InvoiceItemParams{
		Customer:    stripe.String(customerID),
		Invoice:     stripe.String(invoiceID),
		Description: stripe.String(description),
		Quantity:    stripe.Int64(quantity),
		UnitAmount:  stripe.Int64(unitAmount),
		Currency:    stripe.String(currency),
	}
	params.Context = ctx

	_, err := s.api.InvoiceItems.New(params)
	if err != nil {
		return fmt.Errorf("failed to add invoice item %q: %w", description, err)
	}
	return nil
}

func (s *stripeService) FinalizeInvoice(ctx context.Context, invoiceID string) (string, error) {
	params := &stripe.InvoiceFinalizeInvoiceParams{}
	params.Context = ctx

	invoice, err := s.api.Invoices.FinalizeInvoice(invoiceID, params)
	if err != nil {
		return "", fmt.Errorf("failed to finalize stripe invoice %s: %w", invoiceID, err)
	}
	return invoice.HostedInvoiceURL, nil
}

func (s *stripeService) SendInvoice(ctx context.Context, invoiceID string) error {
	params := &stripe.InvoiceSendInvoiceParams{}
	params.Context = ctx

	_, err := s.api.Invoices.SendInvoice(invoiceID, params)
	if err != nil {
		return fmt.Errorf("failed to send stripe invoice %s: %w", invoiceID, err)
	}
	return nil
}

func (s *stripeService) VoidInvoice(ctx context.Context, invoiceID string) error {
	params := &stripe.InvoiceVoidInvoiceParams{}
	params.Context = ctx

	_, err := s.api.Invoices.VoidInvoice(invoiceID, params)
	if err != nil {
		return fmt.Errorf("failed to void stripe invoice %s: %w", invoiceID, err)
	}
	return nil
}
