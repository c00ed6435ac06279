// Package notify pushes invoice lifecycle events to external chat
// channels. Notifiers subscribe to the event bus; delivery failures are
// logged and never block the pipeline.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/invoice-automation/internal/domain/event"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// LarkConfig holds the Lark app credentials and target chat.
type LarkConfig struct {
	AppID     string
	AppSecret string
	ChatID    string
}

// LarkNotifier forwards lifecycle events into a Lark group chat.
type LarkNotifier struct {
	client *lark.Client
	chatID string
	logger *zap.Logger
}

func NewLarkNotifier(cfg LarkConfig, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &LarkNotifier{
		client: client,
		chatID: cfg.ChatID,
		logger: logger,
	}
}

func (n *LarkNotifier) Name() string { return "lark" }

// SubscribedTypes lists the events that produce a chat message. Internal
// bookkeeping events stay off the channel.
func (n *LarkNotifier) SubscribedTypes() []event.Type {
	return []event.Type{
		event.TypeInvoiceApproved,
		event.TypeInvoicePaid,
		event.TypeInvoiceClosed,
		event.TypeInvoiceDisputed,
		event.TypeInvoiceOverdue,
		event.TypePaymentReminder,
	}
}

func (n *LarkNotifier) OnEvent(ctx context.Context, evt *event.Event) error {
	text := formatEventMessage(evt)

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("event_type", string(evt.Type)),
			zap.String("invoice_id", evt.InvoiceID),
			zap.Error(err))
		return fmt.Errorf("send notification: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("Notification API returned failure",
			zap.String("invoice_id", evt.InvoiceID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("notification API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Info("Notification sent",
		zap.String("event_type", string(evt.Type)),
		zap.String("invoice_id", evt.InvoiceID))
	return nil
}

func formatEventMessage(evt *event.Event) string {
	switch evt.Type {
	case event.TypeInvoiceApproved:
		return fmt.Sprintf("✅ Invoice %s has been approved.", evt.InvoiceID)
	case event.TypeInvoicePaid:
		return fmt.Sprintf("💰 Invoice %s has been paid.", evt.InvoiceID)
	case event.TypeInvoiceClosed:
		return fmt.Sprintf("📁 Invoice %s is now closed.", evt.InvoiceID)
	case event.TypeInvoiceDisputed:
		reason, _ := evt.Payload["reason"].(string)
		if reason != "" {
			return fmt.Sprintf("⚠️ Invoice %s is disputed: %s", evt.InvoiceID, reason)
		}
		return fmt.Sprintf("⚠️ Invoice %s is disputed.", evt.InvoiceID)
	case event.TypeInvoiceOverdue:
		if days, ok := evt.Payload["days_overdue"]; ok {
			return fmt.Sprintf("⏰ Invoice %s is overdue by %v day(s).", evt.InvoiceID, days)
		}
		return fmt.Sprintf("⏰ Invoice %s is overdue.", evt.InvoiceID)
	case event.TypePaymentReminder:
		return fmt.Sprintf("🔔 Payment reminder for invoice %s.", evt.InvoiceID)
	default:
		return fmt.Sprintf("Invoice %s: %s", evt.InvoiceID, evt.Type)
	}
}
