package repositories

import (
	"context"
	"testing"
	"time"

	"agencyops/internal/models"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRepoMarkSent(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewInvoiceRepo(mockPool)
	id := uuid.New()

	mockPool.ExpectExec("UPDATE invoices").
		WithArgs("in_123", "https://pay.example.com/in_123", models.InvoiceStatusSent, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.MarkSent(context.Background(), id, "in_123", "https://pay.example.com/in_123")
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestInvoiceRepoMarkPaid(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewInvoiceRepo(mockPool)
	id := uuid.New()
	paidAt := time.Now()

	mockPool.ExpectExec("UPDATE invoices").
		WithArgs(models.InvoiceStatusPaid, paidAt, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.MarkPaid(context.Background(), id, paidAt)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestInvoiceRepoUpdateStatus(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewInvoiceRepo(mockPool)
	id := uuid.New()

	mockPool.ExpectExec("UPDATE invoices").
		WithArgs(models.InvoiceStatusOverdue, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdateStatus(context.Background(), id, models.InvoiceStatusOverdue)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestInvoiceRepoGetByIDLoadsLineItemsInOrder(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewInvoiceRepo(mockPool)
	id := uuid.New()
	now := time.Now()

	invoiceRows := pgxmock.NewRows([]string{
		"id", "invoice_number", "client_id", "project_id", "milestone_id",
		"amount", "tax_amount", "currency", "status", "due_date",
		"stripe_invoice_id", "stripe_invoice_url", "paid_at", "created_at", "updated_at",
	}).AddRow(
		id, "INV-2026-000042", nil, nil, nil,
		100.00, 8.00, "usd", models.InvoiceStatusDraft, nil,
		nil, nil, nil, now, now,
	)
	mockPool.ExpectQuery("SELECT (.+) FROM invoices").
		WithArgs(id).
		WillReturnRows(invoiceRows)

	itemRows := pgxmock.NewRows([]string{"id", "invoice_id", "description", "quantity", "unit_price", "position"}).
		AddRow(uuid.New(), id, "Design work", 2, 40.00, 0).
		AddRow(uuid.New(), id, "Hosting", 1, 20.00, 1)
	mockPool.ExpectQuery("SELECT (.+) FROM invoice_line_items").
		WithArgs(id).
		WillReturnRows(itemRows)

	invoice, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-000042", invoice.InvoiceNumber)
	require.Len(t, invoice.LineItems, 2)
	assert.Equal(t, "Design work", invoice.LineItems[0].Description)
	assert.Equal(t, "Hosting", invoice.LineItems[1].Description)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
