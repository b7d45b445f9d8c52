package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agencyops/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	calls     int
	lastEvent *services.StripeEvent
	err       error
}

func (m *mockReconciler) HandleEvent(_ context.Context, event *services.StripeEvent) error {
	m.calls++
	m.lastEvent = event
	return m.err
}

func signBody(secret string, body []byte) string {
	hash := hmac.New(sha256.New, []byte(secret))
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

func newWebhookRequest(body string, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestStripeWebhookMissingSecretReturns503(t *testing.T) {
	reconciler := &mockReconciler{}
	h := NewWebhookHandlers(reconciler, "")

	c, _ := newWebhookRequest(`{"id":"evt_1","type":"invoice.paid"}`, nil)
	err := h.StripeWebhook(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
	assert.Equal(t, 0, reconciler.calls)
}

func TestStripeWebhookMissingSignatureReturns400(t *testing.T) {
	reconciler := &mockReconciler{}
	h := NewWebhookHandlers(reconciler, "whsec_test")

	c, _ := newWebhookRequest(`{"id":"evt_1","type":"invoice.paid"}`, nil)
	err := h.StripeWebhook(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Equal(t, 0, reconciler.calls)
}

func TestStripeWebhookInvalidSignatureReturns400(t *testing.T) {
	reconciler := &mockReconciler{}
	h := NewWebhookHandlers(reconciler, "whsec_test")

	body := `{"id":"evt_1","type":"invoice.paid"}`
	c, _ := newWebhookRequest(body, map[string]string{
		"Stripe-Signature": signBody("wrong_secret", []byte(body)),
	})
	err := h.StripeWebhook(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Equal(t, 0, reconciler.calls)
}

func TestStripeWebhookMalformedBodyReturns400(t *testing.T) {
	reconciler := &mockReconciler{}
	h := NewWebhookHandlers(reconciler, "whsec_test")

	body := `{"id":"evt_1",` // signed but unparseable
	c, _ := newWebhookRequest(body, map[string]string{
		"Stripe-Signature": signBody("whsec_test", []byte(body)),
	})
	err := h.StripeWebhook(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Equal(t, 0, reconciler.calls)
}

func TestStripeWebhookValidSignatureDispatchesEvent(t *testing.T) {
	reconciler := &mockReconciler{}
	h := NewWebhookHandlers(reconciler, "whsec_test")

	body := `{"id":"evt_1","type":"invoice.paid","created":1767000000,"data":{"object":{"id":"in_123"}}}`
	c, rec := newWebhookRequest(body, map[string]string{
		"Stripe-Signature": signBody("whsec_test", []byte(body)),
	})
	err := h.StripeWebhook(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, reconciler.calls)
	require.NotNil(t, reconciler.lastEvent)
	assert.Equal(t, "evt_1", reconciler.lastEvent.ID)
	assert.Equal(t, "invoice.paid", reconciler.lastEvent.Type)

	var response map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response["received"])
}

func TestStripeWebhookReconcilerErrorReturns500(t *testing.T) {
	reconciler := &mockReconciler{err: errors.New("no local invoice")}
	h := NewWebhookHandlers(reconciler, "whsec_test")

	body := `{"id":"evt_1","type":"invoice.paid","data":{"object":{"id":"in_unknown"}}}`
	c, _ := newWebhookRequest(body, map[string]string{
		"Stripe-Signature": signBody("whsec_test", []byte(body)),
	})
	err := h.StripeWebhook(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
	assert.Equal(t, 1, reconciler.calls)
}
