package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/garyjia/invoice-automation/internal/agent"
	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/bus"
	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/orchestrator"
	"github.com/garyjia/invoice-automation/internal/router"
	"github.com/garyjia/invoice-automation/internal/store"
	"github.com/garyjia/invoice-automation/internal/webhook"
	"github.com/garyjia/invoice-automation/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *orchestrator.Orchestrator) {
	t.Helper()
	logger := zap.NewNop()
	auditLog := audit.NewLog(logger)
	orch := orchestrator.New(store.NewMemoryStore(), bus.New(), auditLog, logger)

	a := agent.New(router.New(nil, logger), orch, auditLog, logger)
	wh := webhook.NewHandler(webhook.NewVerifier("shh", logger), a, logger)

	srv := NewServer(DefaultServerConfig(), orch, wh, utils.NewKVLogger(logger))
	return srv, orch
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestCreateAndGetInvoice(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/invoices", jsonBody{
		"invoice_id":  "INV-1",
		"customer_id": "CUST-1",
		"amount":      "1250.50",
		"currency":    "EUR",
		"due_date":    "2026-09-30",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/invoices/INV-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_state":"new"`)
	assert.Contains(t, w.Body.String(), "1250.5")
}

func TestCreateInvoiceConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	body := jsonBody{"invoice_id": "INV-1", "customer_id": "CUST-1"}
	w := doRequest(t, srv, http.MethodPost, "/api/invoices", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/invoices", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateInvoiceValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/invoices", jsonBody{"invoice_id": "INV-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/invoices", jsonBody{
		"invoice_id": "INV-1", "customer_id": "C", "amount": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/invoices", jsonBody{
		"invoice_id": "INV-1", "customer_id": "C", "due_date": "tomorrow",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteActionFlow(t *testing.T) {
	srv, orch := newTestServer(t)
	ctx := context.Background()

	_, err := orch.CreateInvoice(ctx, "INV-1", "CUST-1")
	require.NoError(t, err)
	_, err = orch.Advance(ctx, "INV-1", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)
	_, err = orch.Advance(ctx, "INV-1", lifecycle.TriggerRequestApproval)
	require.NoError(t, err)

	w := doRequest(t, srv, http.MethodPost, "/api/invoices/INV-1/execute", jsonBody{
		"action": "approve",
		"actor":  "mgr-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_state":"approved"`)
}

func TestExecuteActionStatusMapping(t *testing.T) {
	srv, orch := newTestServer(t)
	ctx := context.Background()

	_, err := orch.CreateInvoice(ctx, "INV-1", "CUST-1")
	require.NoError(t, err)

	// wrong state
	w := doRequest(t, srv, http.MethodPost, "/api/invoices/INV-1/execute", jsonBody{"action": "approve"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// unknown invoice
	w = doRequest(t, srv, http.MethodPost, "/api/invoices/INV-404/execute", jsonBody{"action": "approve"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// missing reason
	_, err = orch.Advance(ctx, "INV-1", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)
	_, err = orch.Advance(ctx, "INV-1", lifecycle.TriggerRequestApproval)
	require.NoError(t, err)
	w = doRequest(t, srv, http.MethodPost, "/api/invoices/INV-1/execute", jsonBody{"action": "reject"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdvanceEndpoint(t *testing.T) {
	srv, orch := newTestServer(t)

	_, err := orch.CreateInvoice(context.Background(), "INV-1", "CUST-1")
	require.NoError(t, err)

	w := doRequest(t, srv, http.MethodPost, "/api/invoices/INV-1/advance", jsonBody{"trigger": "send_invoice"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/invoices/INV-1/advance", jsonBody{"trigger": "approve"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "invoice_sent")

	w = doRequest(t, srv, http.MethodPost, "/api/invoices/INV-404/advance", jsonBody{"trigger": "send_invoice"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListInvoicesEndpoint(t *testing.T) {
	srv, orch := newTestServer(t)
	ctx := context.Background()

	_, err := orch.CreateInvoice(ctx, "INV-1", "CUST-1")
	require.NoError(t, err)
	_, err = orch.CreateInvoice(ctx, "INV-2", "CUST-1")
	require.NoError(t, err)
	_, err = orch.Advance(ctx, "INV-2", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)

	w := doRequest(t, srv, http.MethodGet, "/api/invoices?state=invoice_sent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "INV-2")
	assert.NotContains(t, w.Body.String(), "INV-1\"")

	w = doRequest(t, srv, http.MethodGet, "/api/invoices?state=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditAndEventEndpoints(t *testing.T) {
	srv, orch := newTestServer(t)
	ctx := context.Background()

	_, err := orch.CreateInvoice(ctx, "INV-1", "CUST-1")
	require.NoError(t, err)
	_, err = orch.Advance(ctx, "INV-1", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)

	w := doRequest(t, srv, http.MethodGet, "/api/audit?invoice_id=INV-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "state_transition")

	w = doRequest(t, srv, http.MethodGet, "/api/events?invoice_id=INV-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "invoice_created")
}

func TestWebhookEndpoint(t *testing.T) {
	srv, orch := newTestServer(t)
	ctx := context.Background()

	_, err := orch.CreateInvoice(ctx, "INV-1", "CUST-1")
	require.NoError(t, err)

	body, err := json.Marshal(jsonBody{"message": "what is the status of INV-1?", "customer_id": "CUST-1"})
	require.NoError(t, err)

	verifier := webhook.NewVerifier("shh", zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/webhook/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature-256", verifier.Sign(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "new")

	// unsigned request is rejected
	req = httptest.NewRequest(http.MethodPost, "/webhook/message", bytes.NewReader(body))
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// jsonBody is a request body literal.
type jsonBody map[string]any
