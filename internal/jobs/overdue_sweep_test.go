package jobs

import (
	"context"
	"testing"
	"time"

	"agencyops/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByStripeInvoiceID(ctx context.Context, stripeInvoiceID string) (*models.Invoice, error) {
	args := m.Called(ctx, stripeInvoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) MarkSent(ctx context.Context, id uuid.UUID, stripeInvoiceID, stripeInvoiceURL string) error {
	args := m.Called(ctx, id, stripeInvoiceID, stripeInvoiceURL)
	return args.Error(0)
}

func (m *MockInvoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	args := m.Called(ctx, id, paidAt)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ListSentPastDue(ctx context.Context, asOf time.Time) ([]*models.Invoice, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func TestOverdueSweepMarksSentInvoicesOverdue(t *testing.T) {
	repo := &MockInvoiceRepository{}
	sweep := NewOverdueSweep(repo)

	due := time.Now().AddDate(0, 0, -3)
	first := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusSent, DueDate: &due}
	second := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusSent, DueDate: &due}

	repo.On("ListSentPastDue", mock.Anything, mock.AnythingOfType("time.Time")).Return([]*models.Invoice{first, second}, nil)
	repo.On("UpdateStatus", mock.Anything, first.ID, models.InvoiceStatusOverdue).Return(nil)
	repo.On("UpdateStatus", mock.Anything, second.ID, models.InvoiceStatusOverdue).Return(nil)

	err := sweep.Run(context.Background())
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestOverdueSweepSkipsInvoicesThatLeftSent(t *testing.T) {
	repo := &MockInvoiceRepository{}
	sweep := NewOverdueSweep(repo)

	due := time.Now().AddDate(0, 0, -3)
	// A paid invoice can show up when it changes between the query and the
	// sweep iteration; the transition check keeps it untouched.
	stale := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusPaid, DueDate: &due}

	repo.On("ListSentPastDue", mock.Anything, mock.AnythingOfType("time.Time")).Return([]*models.Invoice{stale}, nil)

	err := sweep.Run(context.Background())
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestOverdueSweepContinuesAfterUpdateFailure(t *testing.T) {
	repo := &MockInvoiceRepository{}
	sweep := NewOverdueSweep(repo)

	due := time.Now().AddDate(0, 0, -3)
	first := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusSent, DueDate: &due}
	second := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusSent, DueDate: &due}

	repo.On("ListSentPastDue", mock.Anything, mock.AnythingOfType("time.Time")).Return([]*models.Invoice{first, second}, nil)
	repo.On("UpdateStatus", mock.Anything, first.ID, models.InvoiceStatusOverdue).Return(assert.AnError)
	repo.On("UpdateStatus", mock.Anything, second.ID, models.InvoiceStatusOverdue).Return(nil)

	err := sweep.Run(context.Background())
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
