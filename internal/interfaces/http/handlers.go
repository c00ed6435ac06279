package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/bus"
	"github.com/garyjia/invoice-automation/internal/domain/event"
	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/orchestrator"
	"github.com/garyjia/invoice-automation/internal/store"
	"github.com/garyjia/invoice-automation/internal/tool"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	orch   *orchestrator.Orchestrator
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(orch *orchestrator.Orchestrator, logger Logger) *Handlers {
	return &Handlers{
		orch:   orch,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateInvoiceRequest is the body for POST /api/invoices
type CreateInvoiceRequest struct {
	InvoiceID  string `json:"invoice_id" binding:"required"`
	CustomerID string `json:"customer_id" binding:"required"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	DueDate    string `json:"due_date"`
}

// ActionRequest is the body for POST /api/invoices/:id/execute
type ActionRequest struct {
	Action     string    `json:"action" binding:"required"`
	CustomerID string    `json:"customer_id"`
	Actor      string    `json:"actor"`
	Args       tool.Args `json:"args"`
}

// AdvanceRequest is the body for POST /api/invoices/:id/advance
type AdvanceRequest struct {
	Trigger string `json:"trigger" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invoice_id and customer_id are required",
		})
		return
	}

	var params orchestrator.CreateParams
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "invalid amount",
			})
			return
		}
		params.Amount = amount
	}
	params.Currency = req.Currency
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "invalid due_date, expected YYYY-MM-DD",
			})
			return
		}
		params.DueDate = due
	}

	snap, err := h.orch.CreateInvoiceWithParams(c.Request.Context(), req.InvoiceID, req.CustomerID, params)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, Response{
				Success: false,
				Error:   "invoice already exists",
			})
			return
		}
		h.logger.Error("Failed to create invoice", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to create invoice",
		})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    snap,
	})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	stateFilter := lifecycle.State(c.Query("state"))
	if stateFilter != "" && !stateFilter.IsValid() {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "unknown state '" + string(stateFilter) + "'",
		})
		return
	}

	snaps, err := h.orch.ListInvoices(c.Request.Context(), stateFilter)
	if err != nil {
		h.logger.Error("Failed to list invoices", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to list invoices",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    snaps,
	})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	snap, err := h.orch.InvoiceState(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "invoice not found",
			})
			return
		}
		h.logger.Error("Failed to load invoice", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to load invoice",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    snap,
	})
}

// GetAvailableActions handles GET /api/invoices/:id/actions
func (h *Handlers) GetAvailableActions(c *gin.Context) {
	actions, err := h.orch.AvailableActions(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "invoice not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to load invoice",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"invoice_id": c.Param("id"), "available_actions": actions},
	})
}

// ExecuteAction handles POST /api/invoices/:id/execute
func (h *Handlers) ExecuteAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "action is required",
		})
		return
	}

	result := h.orch.Execute(c.Request.Context(), c.Param("id"), lifecycle.Trigger(req.Action), orchestrator.Context{
		CustomerID: req.CustomerID,
		Actor:      req.Actor,
		Args:       req.Args,
	})

	c.JSON(statusForResult(result), Response{
		Success: result.Success,
		Data:    result,
	})
}

// AdvanceInvoice handles POST /api/invoices/:id/advance
func (h *Handlers) AdvanceInvoice(c *gin.Context) {
	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "trigger is required",
		})
		return
	}

	result, err := h.orch.Advance(c.Request.Context(), c.Param("id"), lifecycle.Trigger(req.Trigger))
	if err != nil {
		var stateErr *orchestrator.StateError
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "invoice not found",
			})
		case errors.As(err, &stateErr):
			c.JSON(http.StatusConflict, Response{
				Success: false,
				Error:   stateErr.Error(),
				Data: gin.H{
					"invoice_id":       stateErr.InvoiceID,
					"current_state":    stateErr.CurrentState,
					"attempted_action": stateErr.AttemptedAction,
				},
			})
		default:
			h.logger.Error("Advance failed", "error", err)
			c.JSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to advance invoice",
			})
		}
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// GetAuditTrail handles GET /api/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	entries := h.orch.AuditTrail(audit.Filter{
		Action:    audit.Action(c.Query("action")),
		InvoiceID: c.Query("invoice_id"),
	})

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    entries,
	})
}

// GetEventHistory handles GET /api/events
func (h *Handlers) GetEventHistory(c *gin.Context) {
	events := h.orch.EventHistory(bus.HistoryFilter{
		Type:      event.Type(c.Query("type")),
		InvoiceID: c.Query("invoice_id"),
	})

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    events,
	})
}

// statusForResult maps a tool failure code to an HTTP status.
func statusForResult(result orchestrator.Result) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Code {
	case tool.CodeInvoiceNotFound:
		return http.StatusNotFound
	case tool.CodeInvalidState, tool.CodeNotDisputed:
		return http.StatusConflict
	case tool.CodeMissingReason, tool.CodeMissingResolution:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
