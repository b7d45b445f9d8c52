package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusTransitions(t *testing.T) {
	allowed := []struct {
		from InvoiceStatus
		to   InvoiceStatus
	}{
		{InvoiceStatusDraft, InvoiceStatusSent},
		{InvoiceStatusSent, InvoiceStatusPaid},
		{InvoiceStatusSent, InvoiceStatusOverdue},
		{InvoiceStatusSent, InvoiceStatusCancelled},
		{InvoiceStatusOverdue, InvoiceStatusPaid},
		{InvoiceStatusOverdue, InvoiceStatusCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be allowed", tc.from, tc.to)
		assert.NoError(t, ValidateInvoiceTransition(tc.from, tc.to))
	}

	denied := []struct {
		from InvoiceStatus
		to   InvoiceStatus
	}{
		{InvoiceStatusDraft, InvoiceStatusPaid},
		{InvoiceStatusDraft, InvoiceStatusOverdue},
		{InvoiceStatusSent, InvoiceStatusDraft},
		{InvoiceStatusOverdue, InvoiceStatusSent},
		{InvoiceStatusPaid, InvoiceStatusOverdue},
		{InvoiceStatusPaid, InvoiceStatusCancelled},
		{InvoiceStatusCancelled, InvoiceStatusSent},
		{InvoiceStatusCancelled, InvoiceStatusPaid},
	}
	for _, tc := range denied {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be denied", tc.from, tc.to)
		err := ValidateInvoiceTransition(tc.from, tc.to)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid invoice status transition")
	}
}

func TestInvoiceStatusIsTerminal(t *testing.T) {
	assert.True(t, InvoiceStatusPaid.IsTerminal())
	assert.True(t, InvoiceStatusCancelled.IsTerminal())
	assert.False(t, InvoiceStatusDraft.IsTerminal())
	assert.False(t, InvoiceStatusSent.IsTerminal())
	assert.False(t, InvoiceStatusOverdue.IsTerminal())
}

func TestUnknownStatusHasNoTransitions(t *testing.T) {
	unknown := InvoiceStatus("archived")
	assert.True(t, unknown.IsTerminal())
	assert.False(t, unknown.CanTransitionTo(InvoiceStatusPaid))
}
