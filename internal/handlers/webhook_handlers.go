package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"agencyops/internal/services"

	"github.com/labstack/echo/v4"
)

const maxWebhookBodyBytes = int64(65536)

// WebhookHandlers handles HTTP requests for payment-ledger webhooks
type WebhookHandlers struct {
	reconciler    services.PaymentReconciler
	webhookSecret string
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(reconciler services.PaymentReconciler, webhookSecret string) *WebhookHandlers {
	return &WebhookHandlers{
		reconciler:    reconciler,
		webhookSecret: webhookSecret,
	}
}

// verifySignature verifies the HMAC-SHA256 signature over the raw body
func (h *WebhookHandlers) verifySignature(signature string, body []byte) bool {
	hash := hmac.New(sha256.New, []byte(h.webhookSecret))
	hash.Write(body)
	expectedSignature := hex.EncodeToString(hash.Sum(nil))

	// Constant time comparison to prevent timing attacks
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

// StripeWebhook handles POST /api/webhooks/stripe
func (h *WebhookHandlers) StripeWebhook(c echo.Context) error {
	// A missing secret is a deployment problem, not a client error; 503
	// tells the processor to retry once the service is configured.
	if h.webhookSecret == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Webhook secret not configured")
	}

	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBodyBytes)
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing Stripe signature")
	}

	// The body is untrusted input until the signature checks out; nothing is
	// parsed before this point.
	if !h.verifySignature(signature, body) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid webhook signature")
	}

	var event services.StripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event payload")
	}

	if err := h.reconciler.HandleEvent(c.Request().Context(), &event); err != nil {
		// Never acknowledge an event that failed to apply; a 500 makes the
		// processor redeliver and every handler tolerates re-running.
		log.Printf("WARN: failed to apply stripe event %s (%s): %v", event.ID, event.Type, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process event")
	}

	return c.JSON(http.StatusOK, map[string]bool{
		"received": true,
	})
}
