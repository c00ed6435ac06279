// Package agent processes inbound customer messages end to end: audit
// the message, route it to a tool decision, execute the tool through the
// orchestrator, and shape a reply.
package agent

import (
	"context"

	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/orchestrator"
	"github.com/garyjia/invoice-automation/internal/router"
	"go.uber.org/zap"
)

// Message is one inbound customer message.
type Message struct {
	Text       string
	CustomerID string
	SessionID  string
}

// Response is the agent's reply to a message.
type Response struct {
	Reply    string               `json:"reply"`
	Decision *router.Decision     `json:"decision"`
	Result   *orchestrator.Result `json:"result,omitempty"`
}

// Agent is the message-processing pipeline.
type Agent struct {
	router *router.Router
	orch   *orchestrator.Orchestrator
	audit  *audit.Log
	logger *zap.Logger
}

func New(r *router.Router, orch *orchestrator.Orchestrator, auditLog *audit.Log, logger *zap.Logger) *Agent {
	return &Agent{
		router: r,
		orch:   orch,
		audit:  auditLog,
		logger: logger,
	}
}

// Process handles one message. It never returns an error: failures are
// folded into the reply so the conversation can continue.
func (a *Agent) Process(ctx context.Context, msg Message) Response {
	a.audit.LogMessageReceived(msg.Text, "", msg.CustomerID)

	decision := a.router.Route(ctx, msg.Text)
	a.audit.LogRoutingDecision(
		string(decision.Intent), decision.Tool, string(decision.Confidence),
		decision.Arguments.InvoiceID, decision.Warnings)

	if !decision.IsActionable() {
		return Response{
			Reply:    clarificationReply(decision),
			Decision: decision,
		}
	}

	opCtx := orchestrator.Context{
		CustomerID: msg.CustomerID,
		SessionID:  msg.SessionID,
		Args:       decision.Arguments.ToolArgs(),
	}
	result := a.orch.ExecuteTool(ctx, decision.Tool, decision.Arguments.InvoiceID, opCtx)

	a.logger.Info("Message processed",
		zap.String("tool", decision.Tool),
		zap.String("invoice_id", decision.Arguments.InvoiceID),
		zap.Bool("success", result.Success))

	return Response{
		Reply:    result.Message,
		Decision: decision,
		Result:   &result,
	}
}

func clarificationReply(d *router.Decision) string {
	if d.ClarificationPrompt != "" {
		return d.ClarificationPrompt
	}
	return "Could you tell me which invoice this is about and what you'd like to do?"
}
