package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liver-predict/internal/domain"
)

func sampleRecord() domain.ClinicalRecord {
	return domain.ClinicalRecord{
		Age:                 45,
		Gender:              1,
		TotalBilirubin:      0.9,
		DirectBilirubin:     0.2,
		AlkalinePhosphatase: 120,
		ALT:                 30,
		AST:                 25,
		TotalProteins:       7.0,
		Albumin:             4.0,
		AGRatio:             1.2,
	}
}

const sampleResult = `{
	"prediction": "Liver Disease Detected",
	"risk": "High Risk",
	"summary": "High risk of liver disease detected, driven by abnormal lab values.",
	"warnings": [
		{"marker": "ALT / SGPT", "value": 90, "upper_limit": 56, "severity": "moderate", "message": "ALT / SGPT is moderately elevated (normal upper limit 56.0)."}
	],
	"shap_contributions": [
		{"feature": "alt", "value": 90, "contribution": 0.42, "impact": "positive"},
		{"feature": "albumin", "value": 4.0, "contribution": -0.1, "impact": "negative"}
	],
	"base_value": 0.31
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second})
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_PredictSuccess(t *testing.T) {
	var received domain.ClinicalRecord
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		respond(http.StatusOK, sampleResult)(w, r)
	})

	result, err := client.Predict(context.Background(), sampleRecord())

	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), received)
	assert.Equal(t, "Liver Disease Detected", result.Prediction)
	assert.Equal(t, "High Risk", result.Risk)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, domain.SeverityModerate, result.Warnings[0].Severity)
	require.Len(t, result.ShapContributions, 2)
	assert.Equal(t, domain.ImpactNegative, result.ShapContributions[1].Impact)
	assert.Equal(t, 0.31, result.BaseValue)
}

func TestClient_PredictErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    domain.APIErrorKind
		wantMessage string
		wantDetails []string
	}{
		{
			name:        "validation with details",
			status:      http.StatusBadRequest,
			body:        `{"error":"Invalid input data","details":["age: must be positive"]}`,
			wantKind:    domain.KindValidation,
			wantMessage: "Invalid input data",
			wantDetails: []string{"age: must be positive"},
		},
		{
			name:        "validation with custom message",
			status:      http.StatusBadRequest,
			body:        `{"error":"Age out of range"}`,
			wantKind:    domain.KindValidation,
			wantMessage: "Age out of range",
			wantDetails: []string{},
		},
		{
			name:        "validation with malformed body",
			status:      http.StatusBadRequest,
			body:        `<html>bad request</html>`,
			wantKind:    domain.KindValidation,
			wantMessage: "Invalid input data",
			wantDetails: []string{},
		},
		{
			name:        "validation keeps message when details has the wrong type",
			status:      http.StatusBadRequest,
			body:        `{"error":"age too low","details":"not-a-list"}`,
			wantKind:    domain.KindValidation,
			wantMessage: "age too low",
			wantDetails: []string{},
		},
		{
			name:        "validation falls back when error has the wrong type",
			status:      http.StatusBadRequest,
			body:        `{"error":42,"details":["age: must be positive"]}`,
			wantKind:    domain.KindValidation,
			wantMessage: "Invalid input data",
			wantDetails: []string{"age: must be positive"},
		},
		{
			name:        "server error ignores body",
			status:      http.StatusInternalServerError,
			body:        `{"error":"Prediction failed"}`,
			wantKind:    domain.KindServer,
			wantMessage: "Server error. Please try again later.",
		},
		{
			name:        "generic error uses body message",
			status:      http.StatusServiceUnavailable,
			body:        `{"error":"Model not loaded"}`,
			wantKind:    domain.KindGeneric,
			wantMessage: "Model not loaded",
		},
		{
			name:        "generic error keeps message when details has the wrong type",
			status:      http.StatusBadGateway,
			body:        `{"error":"Upstream model offline","details":5}`,
			wantKind:    domain.KindGeneric,
			wantMessage: "Upstream model offline",
		},
		{
			name:        "generic error fallback",
			status:      http.StatusNotFound,
			body:        `not json`,
			wantKind:    domain.KindGeneric,
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "success with missing fields",
			status:      http.StatusOK,
			body:        `{"summary":"partial"}`,
			wantKind:    domain.KindInvalidResponse,
			wantMessage: domain.MsgInvalidResponse,
		},
		{
			name:        "success with unknown severity",
			status:      http.StatusOK,
			body:        `{"prediction":"x","risk":"y","warnings":[{"marker":"ALT","severity":"extreme"}]}`,
			wantKind:    domain.KindInvalidResponse,
			wantMessage: domain.MsgInvalidResponse,
		},
		{
			name:        "success with non-json body",
			status:      http.StatusOK,
			body:        `ok`,
			wantKind:    domain.KindInvalidResponse,
			wantMessage: domain.MsgInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, respond(tt.status, tt.body))

			result, err := client.Predict(context.Background(), sampleRecord())

			require.Error(t, err)
			assert.Nil(t, result)

			var apiErr *domain.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			if tt.wantDetails != nil {
				assert.Equal(t, tt.wantDetails, apiErr.Details)
			}
			if tt.wantKind != domain.KindInvalidResponse {
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

func TestClient_PredictTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second})
	_, err := client.Predict(context.Background(), sampleRecord())

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, domain.KindTransport, apiErr.Kind)
	assert.Equal(t, 0, apiErr.StatusCode)
}

func TestClient_PredictOptionalFields(t *testing.T) {
	client := newTestServer(t, respond(http.StatusOK, `{"prediction":"No Liver Disease Detected","risk":"Low Risk","status":"healthy","confidence":0.12}`))

	result, err := client.Predict(context.Background(), sampleRecord())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusHealthy, result.Status)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.12, *result.Confidence)
	assert.NotNil(t, result.Warnings)
	assert.NotNil(t, result.ShapContributions)
}

func TestClient_CheckHealth(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"model loaded", http.StatusOK, `{"status":"ok","model_loaded":true}`, true},
		{"model not loaded", http.StatusOK, `{"model_loaded":false}`, false},
		{"field missing", http.StatusOK, `{}`, false},
		{"non-boolean flag", http.StatusOK, `{"model_loaded":"true"}`, false},
		{"malformed body", http.StatusOK, `{`, false},
		{"server error", http.StatusInternalServerError, `{"model_loaded":true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/health", r.URL.Path)
				respond(tt.status, tt.body)(w, r)
			})

			assert.Equal(t, tt.want, client.CheckHealth(context.Background()))
		})
	}
}

func TestClient_CheckHealthUnreachable(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})

	assert.False(t, client.CheckHealth(context.Background()))
}

func TestResultValidator_Severity(t *testing.T) {
	v := newResultValidator()

	for _, s := range []domain.Severity{domain.SeverityMild, domain.SeverityModerate, domain.SeverityHigh} {
		assert.NoError(t, v.Struct(domain.MedicalWarning{Marker: "ALT / SGPT", Severity: s}), s)
	}
	assert.Error(t, v.Struct(domain.MedicalWarning{Marker: "ALT / SGPT", Severity: "critical"}))
	assert.Error(t, v.Struct(domain.MedicalWarning{Marker: "ALT / SGPT"}))
}

func TestNewClient_Timeout(t *testing.T) {
	assert.Zero(t, NewClient(Config{}).httpClient.Timeout, "zero leaves the transport default")
	assert.Equal(t, 3*time.Second, NewClient(Config{Timeout: 3 * time.Second}).httpClient.Timeout)
}

func TestNewClient_BaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient(Config{}).BaseURL())
	assert.Equal(t, "http://api.example.com", NewClient(Config{BaseURL: "http://api.example.com/"}).BaseURL())
}
