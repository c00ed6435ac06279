package tool

// Code is a machine-readable failure code
type Code string

const (
	CodeInvoiceNotFound   Code = "INVOICE_NOT_FOUND"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeMissingReason     Code = "MISSING_REASON"
	CodeMissingResolution Code = "MISSING_RESOLUTION"
	CodeNotDisputed       Code = "NOT_DISPUTED"
	CodeInternalError     Code = "INTERNAL_ERROR"
)

// Failure carries a machine-readable code plus enough context to
// reconstruct why the action was refused (current state, allowed
// states or triggers).
type Failure struct {
	Code    Code           `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// Result is the uniform outcome of every tool execution. Tools never
// raise for business-rule violations; they return a tagged failure so a
// conversational or HTTP caller can render a helpful message.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *Failure       `json:"error,omitempty"`
}

// OK builds a success result
func OK(message string, data map[string]any) Result {
	return Result{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Fail builds a failure result
func Fail(message string, code Code, details map[string]any) Result {
	return Result{
		Success: false,
		Message: message,
		Error: &Failure{
			Code:    code,
			Details: details,
		},
	}
}

// ErrorCode returns the failure code, or empty for successes
func (r Result) ErrorCode() Code {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}
