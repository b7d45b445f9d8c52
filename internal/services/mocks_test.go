package services

import (
	"context"
	"time"

	"agencyops/internal/models"

	"github.com/google/uuid"
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

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) HasSucceededForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, invoiceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatusByPaymentIntentID(ctx context.Context, paymentIntentID string, status models.PaymentStatus) (bool, error) {
	args := m.Called(ctx, paymentIntentID, status)
	return args.Bool(0), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, stripeCustomerID string) error {
	args := m.Called(ctx, id, stripeCustomerID)
	return args.Error(0)
}

type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

type MockMilestoneRepository struct {
	mock.Mock
}

func (m *MockMilestoneRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	args := m.Called(ctx, id, paidAt)
	return args.Error(0)
}

type MockStripeService struct {
	mock.Mock
}

func (m *MockStripeService) EnsureCustomer(ctx context.Context, clientRecord *models.Client) (string, error) {
	args := m.Called(ctx, clientRecord)
	return args.String(0), args.Error(1)
}

func (m *MockStripeService) CreateDraftInvoice(ctx context.Context, customerID string, dueDate time.Time, currency string, meta InvoiceMetadata) (string, error) {
	args := m.Called(ctx, customerID, dueDate, currency, meta)
	return args.String(0), args.Error(1)
}

func (m *MockStripeService) AddInvoiceItem(ctx context.Context, customerID, invoiceID, description string, quantity, unitAmount int64, currency string) error {
	args := m.Called(ctx, customerID, invoiceID, description, quantity, unitAmount, currency)
	return args.Error(0)
}

func (m *MockStripeService) FinalizeInvoice(ctx context.Context, invoiceID string) (string, error) {
	args := m.Called(ctx, invoiceID)
	return args.String(0), args.Error(1)
}

func (m *MockStripeService) SendInvoice(ctx context.Context, invoiceID string) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

func (m *MockStripeService) VoidInvoice(ctx context.Context, invoiceID string) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}
