package domain

import (
	"fmt"
	"sort"
	"strings"
)

// User-facing messages fixed by the prediction wire contract.
const (
	MsgInvalidInput       = "Invalid input data"
	MsgServerError        = "Server error. Please try again later."
	MsgUnexpectedError    = "An unexpected error occurred"
	MsgInvalidResponse    = "Received an invalid response from the prediction service"
	MsgServiceUnavailable = "Prediction service is temporarily unavailable"
	MsgTransportFailure   = "Unable to reach the prediction service"
)

// FieldErrors maps a field to its ordered validation messages. It is produced
// before submission and never reaches the network.
type FieldErrors map[Field][]string

// Add appends a message for field.
func (fe FieldErrors) Add(field Field, message string) {
	fe[field] = append(fe[field], message)
}

// Has reports whether field has at least one message.
func (fe FieldErrors) Has(field Field) bool {
	return len(fe[field]) > 0
}

// Fields returns the fields carrying errors in form order. Unknown fields
// follow in lexical order.
func (fe FieldErrors) Fields() []Field {
	var out []Field
	seen := make(map[Field]bool, len(fe))
	for _, f := range AllFields {
		if fe.Has(f) {
			out = append(out, f)
			seen[f] = true
		}
	}
	var extra []Field
	for f, msgs := range fe {
		if !seen[f] && len(msgs) > 0 {
			extra = append(extra, f)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Details flattens the errors into "field: message" strings, the format the
// prediction service uses for 400 details.
func (fe FieldErrors) Details() []string {
	var details []string
	for _, f := range fe.Fields() {
		for _, msg := range fe[f] {
			details = append(details, fmt.Sprintf("%s: %s", f, msg))
		}
	}
	return details
}

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	return fmt.Sprintf("invalid clinical record: %s", strings.Join(fe.Details(), "; "))
}

// APIErrorKind classifies a failed submission.
type APIErrorKind string

const (
	// KindValidation: the service rejected the input (HTTP 400).
	KindValidation APIErrorKind = "validation"
	// KindServer: the service failed internally (HTTP 500).
	KindServer APIErrorKind = "server"
	// KindGeneric: any other non-success status.
	KindGeneric APIErrorKind = "generic"
	// KindTransport: the request never produced an HTTP response.
	KindTransport APIErrorKind = "transport"
	// KindInvalidResponse: a 200 whose body does not match the result schema.
	KindInvalidResponse APIErrorKind = "invalid_response"
	// KindUnavailable: the circuit breaker is open.
	KindUnavailable APIErrorKind = "unavailable"
)

// APIError is the typed error returned by the prediction client.
type APIError struct {
	Kind       APIErrorKind `json:"kind"`
	StatusCode int          `json:"status_code,omitempty"`
	Message    string       `json:"message"`
	Details    []string     `json:"details,omitempty"`
	Err        error        `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewValidationError builds the error for a 400 response. A nil details
// slice is normalised to an empty one.
func NewValidationError(message string, details []string) *APIError {
	if message == "" {
		message = MsgInvalidInput
	}
	if details == nil {
		details = []string{}
	}
	return &APIError{Kind: KindValidation, StatusCode: 400, Message: message, Details: details}
}

// NewServerError builds the error for a 500 response.
func NewServerError() *APIError {
	return &APIError{Kind: KindServer, StatusCode: 500, Message: MsgServerError}
}

// NewGenericError builds the error for any other non-success status.
func NewGenericError(status int, message string) *APIError {
	if message == "" {
		message = MsgUnexpectedError
	}
	return &APIError{Kind: KindGeneric, StatusCode: status, Message: message}
}

// NewTransportError wraps a network failure.
func NewTransportError(err error) *APIError {
	return &APIError{Kind: KindTransport, Message: MsgTransportFailure, Err: err}
}

// NewInvalidResponseError wraps a success payload that failed the schema check.
func NewInvalidResponseError(err error) *APIError {
	return &APIError{Kind: KindInvalidResponse, StatusCode: 200, Message: MsgInvalidResponse, Err: err}
}

// NewUnavailableError reports an open circuit.
func NewUnavailableError(err error) *APIError {
	return &APIError{Kind: KindUnavailable, Message: MsgServiceUnavailable, Err: err}
}
