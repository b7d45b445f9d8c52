package repositories

import (
	"context"

	"agencyops/internal/models"

	"github.com/google/uuid"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

type projectRepo struct {
	db DB
}

func NewProjectRepo(db DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project := &models.Project{}
	query := `
		SELECT id, client_id, name, status, created_at, updated_at
		FROM projects
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&project.ID, &project.ClientID, &project.Name, &project.Status, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return project, nil
}
