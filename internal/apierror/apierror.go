// Package apierror provides the error envelopes returned to API clients.
// Internal details (stack traces, SQL errors) never go through here.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail  string `json:"detail"`
	Details any    `json:"details,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithDetails attaches structured context such as missing products or the
// expected and received day counts.
func WithDetails(msg string, details any) *APIError {
	return &APIError{Detail: msg, Details: details}
}

// ValidationError wraps request field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}
