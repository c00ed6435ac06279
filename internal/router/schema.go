// Package router turns free-form customer messages into structured tool
// decisions. A language-model provider does the interpretation; a
// keyword fallback keeps the pipeline alive when the model is
// unreachable.
package router

import (
	"strings"

	"github.com/garyjia/invoice-automation/internal/tool"
)

// Intent classifies what the message is trying to do.
type Intent string

const (
	IntentInvoiceAction   Intent = "invoice_action"
	IntentStatusQuery     Intent = "status_query"
	IntentGeneralQuestion Intent = "general_question"
	IntentUnknown         Intent = "unknown"
)

// Confidence grades how sure the router is about its decision.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// knownTools is the set of tool names a decision may recommend.
var knownTools = map[string]bool{
	"get_invoice_status": true,
	"approve_invoice":    true,
	"reject_invoice":     true,
	"confirm_payment":    true,
	"resend_invoice":     true,
	"create_dispute":     true,
	"resolve_dispute":    true,
	"close_invoice":      true,
}

// Arguments holds the values extracted from the message.
type Arguments struct {
	InvoiceID        string `json:"invoice_id,omitempty"`
	Reason           string `json:"reason,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
	ApproverID       string `json:"approver_id,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
}

// ToolArgs converts the extracted values into tool inputs.
func (a Arguments) ToolArgs() tool.Args {
	return tool.Args{
		ApproverID:       a.ApproverID,
		Reason:           a.Reason,
		Resolution:       a.Resolution,
		PaymentReference: a.PaymentReference,
		PaymentMethod:    a.PaymentMethod,
	}
}

// Decision is the structured routing outcome for one message.
type Decision struct {
	Intent                Intent     `json:"intent"`
	Tool                  string     `json:"tool,omitempty"`
	Confidence            Confidence `json:"confidence"`
	Arguments             Arguments  `json:"arguments"`
	RequiresClarification bool       `json:"requires_clarification"`
	ClarificationPrompt   string     `json:"clarification_prompt,omitempty"`
	Warnings              []string   `json:"warnings,omitempty"`
}

// IsActionable reports whether the decision names a runnable tool with
// enough certainty to execute it.
func (d *Decision) IsActionable() bool {
	return !d.RequiresClarification &&
		d.Tool != "" &&
		d.Confidence != ConfidenceLow &&
		d.Arguments.InvoiceID != ""
}

// Normalize repairs a raw provider decision in place: lowercases the
// enums, downgrades unknown tools to clarification requests, and demands
// an invoice id for any tool call.
func (d *Decision) Normalize() {
	d.Intent = Intent(strings.ToLower(strings.TrimSpace(string(d.Intent))))
	switch d.Intent {
	case IntentInvoiceAction, IntentStatusQuery, IntentGeneralQuestion:
	default:
		d.Intent = IntentUnknown
	}

	d.Confidence = Confidence(strings.ToLower(strings.TrimSpace(string(d.Confidence))))
	switch d.Confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		d.Confidence = ConfidenceLow
	}

	d.Tool = strings.ToLower(strings.TrimSpace(d.Tool))
	if d.Tool != "" && !knownTools[d.Tool] {
		d.Warnings = append(d.Warnings, "unrecognized tool '"+d.Tool+"'")
		d.Tool = ""
		d.RequiresClarification = true
	}

	if d.Tool != "" && d.Arguments.InvoiceID == "" {
		d.Warnings = append(d.Warnings, "no invoice id found in message")
		d.RequiresClarification = true
		if d.ClarificationPrompt == "" {
			d.ClarificationPrompt = "Which invoice are you referring to? Please provide the invoice number."
		}
	}
}
