package handlers

import (
	"errors"
	"net/http"
	"time"

	"agencyops/internal/caching"
	"agencyops/internal/common"
	"agencyops/internal/models"
	"agencyops/internal/repositories"
	"agencyops/internal/services"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

const invoiceCacheTTL = 5 * time.Minute

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	sender      services.InvoiceSender
	invoiceRepo repositories.InvoiceRepository
	clientRepo  repositories.ClientRepository
	projectRepo repositories.ProjectRepository
	cacheSvc    caching.CacheService
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(
	sender services.InvoiceSender,
	invoiceRepo repositories.InvoiceRepository,
	clientRepo repositories.ClientRepository,
	projectRepo repositories.ProjectRepository,
	cacheSvc caching.CacheService,
) *InvoiceHandlers {
	return &InvoiceHandlers{
		sender:      sender,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		cacheSvc:    cacheSvc,
	}
}

// SendInvoice handles POST /api/invoices/:id/send
func (h *InvoiceHandlers) SendInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	result, err := h.sender.SendInvoice(ctx, invoiceID)
	if err != nil {
		var compensation *services.CompensationError
		switch {
		case errors.Is(err, services.ErrInvoiceNotFound):
			return common.SendNotFoundError(c, "invoice")
		case errors.Is(err, services.ErrInvoiceNotDraft),
			errors.Is(err, services.ErrNoClient),
			errors.Is(err, services.ErrInvalidAmount),
			errors.Is(err, services.ErrInvalidTax):
			return common.SendClientError(c, err.Error())
		case errors.As(err, &compensation):
			// The message distinguishes whether the compensating void
			// succeeded; operators need that to know what happened, and the
			// caller may retry safely either way.
			return common.SendServerError(c, compensation.Error())
		default:
			return common.SendServerError(c, "Failed to send invoice: "+err.Error())
		}
	}

	if h.cacheSvc != nil {
		if err := h.cacheSvc.DeleteInvoice(ctx, result.Invoice.ID); err != nil {
			c.Logger().Warnf("failed to invalidate invoice cache: %v", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoice": result,
	})
}

// GetInvoice handles GET /api/invoices/:id
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var invoice *models.Invoice
	if h.cacheSvc != nil {
		if cached, cacheErr := h.cacheSvc.GetInvoice(ctx, invoiceID); cacheErr == nil && cached != nil {
			invoice = cached
		}
	}

	if invoice == nil {
		invoice, err = h.invoiceRepo.GetByID(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.SendNotFoundError(c, "invoice")
			}
			return common.SendServerError(c, "Failed to retrieve invoice: "+err.Error())
		}
		if h.cacheSvc != nil {
			if cacheErr := h.cacheSvc.SetInvoice(ctx, invoice, invoiceCacheTTL); cacheErr != nil {
				c.Logger().Warnf("failed to cache invoice: %v", cacheErr)
			}
		}
	}

	result := &services.SendInvoiceResult{Invoice: invoice}
	if invoice.ClientID != nil {
		if client, clientErr := h.clientRepo.GetByID(ctx, *invoice.ClientID); clientErr == nil {
			result.Client = client
		}
	}
	if invoice.ProjectID != nil {
		if project, projectErr := h.projectRepo.GetByID(ctx, *invoice.ProjectID); projectErr == nil {
			result.Project = project
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoice": result,
	})
}
