// Package predictor is the HTTP client for the remote liver disease
// prediction service.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/liver-predict/internal/domain"
)

// DefaultBaseURL is the local development address of the prediction service.
const DefaultBaseURL = "http://localhost:8000"

const (
	predictPath = "/api/predict"
	healthPath  = "/api/health"
)

// Config configures a Client. BaseURL is read once at construction.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client submits clinical records to the prediction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *logrus.Logger
}

// NewClient creates a new prediction service client.
func NewClient(config Config) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		validate:   newResultValidator(),
		logger:     logger,
	}
}

// newResultValidator checks success payloads. The "severity" tag accepts the
// known warning severities only.
func newResultValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return domain.Severity(fl.Field().String()).IsValid()
	})
	return v
}

// BaseURL returns the service address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the JSON shape of a non-success response.
type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// Predict posts record to /api/predict. Failures are returned as
// *domain.APIError.
func (c *Client) Predict(ctx context.Context, record domain.ClinicalRecord) (*domain.PredictionResult, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode clinical record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("Prediction request failed before a response")
		return nil, domain.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	c.logger.WithFields(logrus.Fields{
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("Prediction response received")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return nil, domain.NewInvalidResponseError(readErr)
		}
		return c.decodeResult(body)
	}

	return nil, mapErrorResponse(resp.StatusCode, body)
}

// mapErrorResponse converts a non-success status into the error taxonomy. An
// unreadable body is treated as an empty one; a field of the wrong type is
// dropped while the fields that decoded are kept.
func mapErrorResponse(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			eb = errorBody{}
		}
	}

	switch status {
	case http.StatusBadRequest:
		return domain.NewValidationError(eb.Error, eb.Details)
	case http.StatusInternalServerError:
		return domain.NewServerError()
	default:
		return domain.NewGenericError(status, eb.Error)
	}
}

func (c *Client) decodeResult(body []byte) (*domain.PredictionResult, error) {
	var result domain.PredictionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, domain.NewInvalidResponseError(fmt.Errorf("failed to decode prediction result: %w", err))
	}
	if err := c.validate.Struct(&result); err != nil {
		return nil, domain.NewInvalidResponseError(fmt.Errorf("prediction result failed schema check: %w", err))
	}
	if result.Warnings == nil {
		result.Warnings = []domain.MedicalWarning{}
	}
	if result.ShapContributions == nil {
		result.ShapContributions = []domain.ShapContribution{}
	}
	return &result, nil
}

// CheckHealth reports whether the service has its model loaded. Every
// failure, including transport errors and malformed bodies, yields false.
func (c *Client) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("Health probe failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	var status domain.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.ModelLoaded
}
