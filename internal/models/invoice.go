package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// invoiceTransitions is the single transition table shared by the send path,
// the webhook reconciler and the overdue sweep. paid and cancelled are
// terminal and have no outgoing transitions.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s InvoiceStatus) IsTerminal() bool {
	return len(invoiceTransitions[s]) == 0
}

// CanTransitionTo reports whether the transition s -> target is allowed.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ValidateInvoiceTransition returns an error describing why the transition
// from -> to is not allowed, or nil when it is.
func ValidateInvoiceTransition(from, to InvoiceStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid invoice status transition: %s -> %s", from, to)
	}
	return nil
}

type Invoice struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	InvoiceNumber    string            `json:"invoice_number" db:"invoice_number"`
	ClientID         *uuid.UUID        `json:"client_id" db:"client_id"`
	ProjectID        *uuid.UUID        `json:"project_id" db:"project_id"`
	MilestoneID      *uuid.UUID        `json:"milestone_id" db:"milestone_id"`
	Amount           float64           `json:"amount" db:"amount"`
	TaxAmount        float64           `json:"tax_amount" db:"tax_amount"`
	Currency         string            `json:"currency" db:"currency"`
	Status           InvoiceStatus     `json:"status" db:"status"`
	DueDate          *time.Time        `json:"due_date" db:"due_date"`
	StripeInvoiceID  *string           `json:"stripe_invoice_id" db:"stripe_invoice_id"`
	StripeInvoiceURL *string           `json:"stripe_invoice_url" db:"stripe_invoice_url"`
	PaidAt           *time.Time        `json:"paid_at" db:"paid_at"`
	LineItems        []InvoiceLineItem `json:"line_items"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

type InvoiceLineItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id" db:"invoice_id"`
	Description string    `json:"description" db:"description"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Position    int       `json:"position" db:"position"`
}
