package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the state of a single monetary event tied to an invoice.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusDisputed  PaymentStatus = "disputed"
)

// Payment records one payment event. At most one succeeded payment may exist
// per invoice; the reconciler enforces this with an existence check before
// insert.
type Payment struct {
	ID                    uuid.UUID     `json:"id" db:"id"`
	InvoiceID             uuid.UUID     `json:"invoice_id" db:"invoice_id"`
	ProjectID             *uuid.UUID    `json:"project_id" db:"project_id"`
	ClientID              *uuid.UUID    `json:"client_id" db:"client_id"`
	Amount                float64       `json:"amount" db:"amount"`
	Currency              string        `json:"currency" db:"currency"`
	Status                PaymentStatus `json:"status" db:"status"`
	StripePaymentIntentID *string       `json:"stripe_payment_intent_id" db:"stripe_payment_intent_id"`
	PaymentMethod         *string       `json:"payment_method" db:"payment_method"`
	PaidAt                *time.Time    `json:"paid_at" db:"paid_at"`
	CreatedAt             time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at" db:"updated_at"`
}
