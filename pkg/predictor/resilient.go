package predictor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/liver-predict/internal/domain"
)

// ResultCache stores successful predictions by record key.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.PredictionResult, bool, error)
	Set(ctx context.Context, key string, result *domain.PredictionResult) error
}

// BreakerConfig represents circuit breaker configuration
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the breaker settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 5,
	}
}

// ResilientClient wraps a Client with a circuit breaker and an optional
// result cache. It never retries.
type ResilientClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker
	cache   ResultCache
	logger  *logrus.Logger
}

// NewResilientClient creates a breaker-guarded client. cache may be nil.
func NewResilientClient(client *Client, config BreakerConfig, cache ResultCache, logger *logrus.Logger) *ResilientClient {
	if logger == nil {
		logger = client.logger
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	threshold := config.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "prediction-service",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAsFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientClient{
		client:  client,
		breaker: breaker,
		cache:   cache,
		logger:  logger,
	}
}

// countsAsFailure reports whether err indicates an unhealthy service.
// Rejected input and caller cancellation do not.
func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	switch apiErr.Kind {
	case domain.KindTransport, domain.KindServer, domain.KindInvalidResponse:
		return true
	case domain.KindGeneric:
		return apiErr.StatusCode >= 500
	default:
		return false
	}
}

// Predict consults the cache, then the breaker-guarded client. A successful
// result is written back to the cache.
func (r *ResilientClient) Predict(ctx context.Context, record domain.ClinicalRecord) (*domain.PredictionResult, error) {
	key := CacheKey(record)

	if r.cache != nil {
		cached, found, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.WithError(err).Warn("Result cache lookup failed")
		} else if found {
			r.logger.WithField("key", key).Debug("Prediction served from cache")
			return cached, nil
		}
	}

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.Predict(ctx, record)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.NewUnavailableError(err)
		}
		return nil, err
	}

	result := out.(*domain.PredictionResult)
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, result); err != nil {
			r.logger.WithError(err).Warn("Result cache write failed")
		}
	}
	return result, nil
}

// CheckHealth probes the service directly, outside the breaker.
func (r *ResilientClient) CheckHealth(ctx context.Context) bool {
	return r.client.CheckHealth(ctx)
}

// State returns the current breaker state name.
func (r *ResilientClient) State() string {
	return r.breaker.State().String()
}

// CacheKey derives the cache key of record from its canonical JSON encoding.
func CacheKey(record domain.ClinicalRecord) string {
	data, _ := json.Marshal(record)
	sum := sha256.Sum256(data)
	return "liver:prediction:" + hex.EncodeToString(sum[:])
}
