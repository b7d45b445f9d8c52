package models

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Email            string    `json:"email" db:"email"`
	Company          *string   `json:"company" db:"company"`
	StripeCustomerID *string   `json:"stripe_customer_id" db:"stripe_customer_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
