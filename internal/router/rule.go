package router

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// invoiceIDPattern matches ids like INV-2024-001 or INV_42.
var invoiceIDPattern = regexp.MustCompile(`\b[A-Z]{2,}[-_][A-Za-z0-9][A-Za-z0-9-_]*\b`)

// reasonPattern captures free text after "because", "reason:", or "due to".
var reasonPattern = regexp.MustCompile(`(?i)(?:because|reason:|due to)\s+(.+)`)

// keywordRule maps a set of phrases to a tool. Rules are checked in
// order; the first hit wins.
type keywordRule struct {
	tool     string
	intent   Intent
	keywords []string
}

var keywordRules = []keywordRule{
	{"resolve_dispute", IntentInvoiceAction, []string{"resolve", "resolved", "settle the dispute"}},
	{"create_dispute", IntentInvoiceAction, []string{"dispute", "contest", "challenge"}},
	{"confirm_payment", IntentInvoiceAction, []string{"paid", "payment received", "confirm payment", "we have paid"}},
	{"approve_invoice", IntentInvoiceAction, []string{"approve", "approved", "looks good", "sign off"}},
	{"reject_invoice", IntentInvoiceAction, []string{"reject", "decline", "refuse"}},
	{"resend_invoice", IntentInvoiceAction, []string{"resend", "send again", "send it again", "didn't receive"}},
	{"close_invoice", IntentInvoiceAction, []string{"close", "finalize", "archive"}},
	{"get_invoice_status", IntentStatusQuery, []string{"status", "state", "where is", "what happened to", "progress"}},
}

// RuleRouter is the keyword fallback used when no model is configured or
// the model call fails.
type RuleRouter struct {
	logger *zap.Logger
}

func NewRuleRouter(logger *zap.Logger) *RuleRouter {
	return &RuleRouter{logger: logger}
}

func (r *RuleRouter) Name() string { return "rules" }

func (r *RuleRouter) Route(_ context.Context, message string) (*Decision, error) {
	lower := strings.ToLower(message)

	decision := &Decision{
		Intent:     IntentUnknown,
		Confidence: ConfidenceLow,
	}
	decision.Arguments.InvoiceID = extractInvoiceID(message)

	for _, rule := range keywordRules {
		if containsAny(lower, rule.keywords) {
			decision.Intent = rule.intent
			decision.Tool = rule.tool
			decision.Confidence = ConfidenceMedium
			break
		}
	}

	if decision.Tool == "reject_invoice" || decision.Tool == "create_dispute" {
		decision.Arguments.Reason = extractReason(message)
	}
	if decision.Tool == "resolve_dispute" {
		decision.Arguments.Resolution = extractReason(message)
	}

	if decision.Tool == "" {
		decision.RequiresClarification = true
		decision.ClarificationPrompt = "I can check invoice status, approve, reject, resend, dispute, or close invoices. What would you like to do?"
	}

	decision.Normalize()

	r.logger.Debug("Rule routing",
		zap.String("tool", decision.Tool),
		zap.String("invoice_id", decision.Arguments.InvoiceID))

	return decision, nil
}

func extractInvoiceID(message string) string {
	return invoiceIDPattern.FindString(message)
}

func extractReason(message string) string {
	m := reasonPattern.FindStringSubmatch(message)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(m[1], ".!"))
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
