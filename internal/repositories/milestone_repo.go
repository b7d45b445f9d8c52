package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type MilestoneRepository interface {
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
}

type milestoneRepo struct {
	db DB
}

func NewMilestoneRepo(db DB) MilestoneRepository {
	return &milestoneRepo{db: db}
}

func (r *milestoneRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	query := `
		UPDATE milestones
		SET is_paid = TRUE, paid_at = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, paidAt, id)
	return err
}
