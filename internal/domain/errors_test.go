package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestAPIErrorConstructors(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	tests := []struct {
		name       string
		err        *APIError
		kind       APIErrorKind
		status     int
		message    string
		wantString string
	}{
		{
			name:       "Validation error with default message",
			err:        NewValidationError("", nil),
			kind:       KindValidation,
			status:     400,
			message:    "Invalid input data",
			wantString: "validation error (status 400): Invalid input data",
		},
		{
			name:       "Server error",
			err:        NewServerError(),
			kind:       KindServer,
			status:     500,
			message:    "Server error. Please try again later.",
			wantString: "server error (status 500): Server error. Please try again later.",
		},
		{
			name:       "Generic error fallback",
			err:        NewGenericError(418, ""),
			kind:       KindGeneric,
			status:     418,
			message:    "An unexpected error occurred",
			wantString: "generic error (status 418): An unexpected error occurred",
		},
		{
			name:       "Transport error",
			err:        NewTransportError(cause),
			kind:       KindTransport,
			status:     0,
			message:    MsgTransportFailure,
			wantString: "transport error: " + MsgTransportFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, tt.err.Kind)
			}
			if tt.err.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, tt.err.StatusCode)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, tt.err.Message)
			}
			if tt.err.Error() != tt.wantString {
				t.Errorf("Expected error string %q, got %q", tt.wantString, tt.err.Error())
			}
		})
	}
}

func TestValidationErrorDetailsNeverNil(t *testing.T) {
	err := NewValidationError("Invalid input data", nil)
	if err.Details == nil {
		t.Fatal("Expected empty, non-nil details")
	}
	if len(err.Details) != 0 {
		t.Errorf("Expected no details, got %v", err.Details)
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	var wrapped error = NewTransportError(cause)

	if !errors.Is(wrapped, cause) {
		t.Error("Expected transport error to unwrap to its cause")
	}

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("Expected errors.As to find *APIError")
	}
	if apiErr.Kind != KindTransport {
		t.Errorf("Expected transport kind, got %s", apiErr.Kind)
	}
}

func TestFieldErrorsOrdering(t *testing.T) {
	fe := FieldErrors{}
	fe.Add(FieldAGRatio, "A/G Ratio must be between 0 and 3")
	fe.Add(FieldAge, "Age is required")
	fe.Add(FieldDirectBilirubin, "Direct Bilirubin cannot exceed Total Bilirubin")

	wantFields := []Field{FieldAge, FieldDirectBilirubin, FieldAGRatio}
	if got := fe.Fields(); !reflect.DeepEqual(got, wantFields) {
		t.Errorf("Expected fields %v, got %v", wantFields, got)
	}

	wantDetails := []string{
		"age: Age is required",
		"direct_bilirubin: Direct Bilirubin cannot exceed Total Bilirubin",
		"ag_ratio: A/G Ratio must be between 0 and 3",
	}
	if got := fe.Details(); !reflect.DeepEqual(got, wantDetails) {
		t.Errorf("Expected details %v, got %v", wantDetails, got)
	}

	if !fe.Has(FieldAge) || fe.Has(FieldGender) {
		t.Error("Has() reported wrong membership")
	}
}
