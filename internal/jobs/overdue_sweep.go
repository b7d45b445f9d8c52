package jobs

import (
	"context"
	"log"
	"time"

	"agencyops/internal/models"
	"agencyops/internal/repositories"
)

// OverdueSweep moves sent invoices whose due date has passed to overdue. It
// goes through the same transition table as the webhook reconciler, so an
// invoice that was paid or cancelled in the meantime is left alone.
type OverdueSweep struct {
	invoiceRepo repositories.InvoiceRepository
}

func NewOverdueSweep(invoiceRepo repositories.InvoiceRepository) *OverdueSweep {
	return &OverdueSweep{invoiceRepo: invoiceRepo}
}

func (s *OverdueSweep) Run(ctx context.Context) error {
	invoices, err := s.invoiceRepo.ListSentPastDue(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, invoice := range invoices {
		if err := models.ValidateInvoiceTransition(invoice.Status, models.InvoiceStatusOverdue); err != nil {
			log.Printf("skipping overdue sweep for invoice %s: %v", invoice.ID, err)
			continue
		}
		if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, models.InvoiceStatusOverdue); err != nil {
			log.Printf("WARN: failed to mark invoice %s overdue: %v", invoice.ID, err)
			continue
		}
		log.Printf("invoice %s marked overdue (due %s)", invoice.ID, invoice.DueDate.Format("2006-01-02"))
	}
	return nil
}
