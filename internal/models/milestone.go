package models

import (
	"time"

	"github.com/google/uuid"
)

// Milestone is referenced by invoices that pay out a project milestone. The
// reconciler flips IsPaid when the backing invoice is paid.
type Milestone struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ProjectID uuid.UUID  `json:"project_id" db:"project_id"`
	Title     string     `json:"title" db:"title"`
	Amount    float64    `json:"amount" db:"amount"`
	IsPaid    bool       `json:"is_paid" db:"is_paid"`
	PaidAt    *time.Time `json:"paid_at" db:"paid_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
