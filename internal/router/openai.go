package router

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = `You are a routing assistant for an invoice management system.
Classify the customer's message and pick at most one tool.

Available tools:
- get_invoice_status: report the current state of an invoice
- approve_invoice: approve an invoice awaiting approval
- reject_invoice: reject an invoice awaiting approval (requires a reason)
- confirm_payment: confirm payment has been received
- resend_invoice: resend invoice details to the customer
- create_dispute: open a dispute on an invoice (requires a reason)
- resolve_dispute: resolve an open dispute (requires a resolution note)
- close_invoice: close a paid or rejected invoice

Respond with JSON:
{
  "intent": "invoice_action" | "status_query" | "general_question" | "unknown",
  "tool": "tool name or empty string",
  "confidence": "high" | "medium" | "low",
  "arguments": {
    "invoice_id": "extracted invoice id or empty",
    "reason": "extracted reason or empty",
    "resolution": "extracted resolution or empty",
    "approver_id": "extracted approver id or empty",
    "payment_reference": "extracted payment reference or empty",
    "payment_method": "extracted payment method or empty"
  },
  "requires_clarification": boolean,
  "clarification_prompt": "question to ask the customer, or empty",
  "warnings": []
}

Extract invoice ids exactly as written. Never invent an invoice id.
If the message is ambiguous, set requires_clarification and ask.`

// OpenAIRouter routes messages through a chat-completion model.
type OpenAIRouter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIRouter(apiKey, model string, logger *zap.Logger) *OpenAIRouter {
	return &OpenAIRouter{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

func (r *OpenAIRouter) Name() string { return "openai" }

func (r *OpenAIRouter) Route(ctx context.Context, message string) (*Decision, error) {
	r.logger.Debug("Routing message", zap.Int("message_len", len(message)))

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0.1,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: message,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	var decision Decision
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &decision); err != nil {
		return nil, fmt.Errorf("failed to parse routing response: %w", err)
	}

	decision.Normalize()

	r.logger.Info("Message routed",
		zap.String("intent", string(decision.Intent)),
		zap.String("tool", decision.Tool),
		zap.String("confidence", string(decision.Confidence)))

	return &decision, nil
}
