package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/garyjia/invoice-automation/internal/agent"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InboundMessage is the delivery payload from an external channel.
type InboundMessage struct {
	Message    string `json:"message"`
	CustomerID string `json:"customer_id"`
	SessionID  string `json:"session_id"`
}

// Handler receives channel messages and forwards them to the agent.
type Handler struct {
	verifier *Verifier
	agent    *agent.Agent
	logger   *zap.Logger
}

func NewHandler(verifier *Verifier, a *agent.Agent, logger *zap.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		agent:    a,
		logger:   logger,
	}
}

// Handle processes one webhook delivery.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("Failed to read request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader("X-Signature-256")
	if !h.verifier.VerifySignature(signature, body) {
		h.logger.Warn("Webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var msg InboundMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	if msg.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	resp := h.agent.Process(c.Request.Context(), agent.Message{
		Text:       msg.Message,
		CustomerID: msg.CustomerID,
		SessionID:  msg.SessionID,
	})

	c.JSON(http.StatusOK, resp)
}
