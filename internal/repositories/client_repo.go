package repositories

import (
	"context"

	"agencyops/internal/models"

	"github.com/google/uuid"
)

type ClientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, stripeCustomerID string) error
}

type clientRepo struct {
	db DB
}

func NewClientRepo(db DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client := &models.Client{}
	query := `
		SELECT id, name, email, company, stripe_customer_id, created_at, updated_at
		FROM clients
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&client.ID, &client.Name, &client.Email, &client.Company, &client.StripeCustomerID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepo) SetStripeCustomerID(ctx context.Context, id uuid.UUID, stripeCustomerID string) error {
	query := `
		UPDATE clients
		SET stripe_customer_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, stripeCustomerID, id)
	return err
}
