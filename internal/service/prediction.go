// Package service orchestrates a prediction submission: validation, the
// remote call and the history record.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/history"
	"github.com/liver-predict/internal/report"
	"github.com/liver-predict/pkg/clinical"
)

// Observer is notified on every submission state change.
type Observer func(domain.Submission)

// Option configures a PredictionService.
type Option func(*PredictionService)

// WithHistory records successful predictions in store.
func WithHistory(store history.Store) Option {
	return func(s *PredictionService) { s.store = store }
}

// WithSource tags history entries with the surface that produced them.
func WithSource(source string) Option {
	return func(s *PredictionService) { s.source = source }
}

// WithObserver registers fn for state changes.
func WithObserver(fn Observer) Option {
	return func(s *PredictionService) { s.observer = fn }
}

// PredictionService runs submissions against a Predictor.
type PredictionService struct {
	logger    *logrus.Logger
	predictor domain.Predictor
	store     history.Store
	source    string
	observer  Observer
	now       func() time.Time
}

// NewPredictionService creates a new prediction service
func NewPredictionService(logger *logrus.Logger, predictor domain.Predictor, opts ...Option) *PredictionService {
	s := &PredictionService{
		logger:    logger,
		predictor: predictor,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns the configured history store, or nil.
func (s *PredictionService) History() history.Store {
	return s.store
}

// Submit validates raw and, when valid, requests a prediction. Invalid input
// never reaches the network.
func (s *PredictionService) Submit(ctx context.Context, raw clinical.RawRecord) *domain.Submission {
	record, err := clinical.Validate(raw)
	if err != nil {
		sub := &domain.Submission{State: domain.StateFailed, StartedAt: s.now(), FinishedAt: s.now()}
		var fieldErrs domain.FieldErrors
		if errors.As(err, &fieldErrs) {
			sub.FieldErrors = fieldErrs
		}
		sub.Err = err
		s.notify(sub)
		return sub
	}
	return s.SubmitRecord(ctx, record)
}

// SubmitRecord requests a prediction for an already validated record. Each
// call is independent; concurrent submissions are neither merged nor
// serialised.
func (s *PredictionService) SubmitRecord(ctx context.Context, record domain.ClinicalRecord) *domain.Submission {
	sub := &domain.Submission{
		State:     domain.StateSubmitting,
		Record:    &record,
		StartedAt: s.now(),
	}
	s.notify(sub)

	result, err := s.predictor.Predict(ctx, record)
	sub.FinishedAt = s.now()

	if err != nil {
		sub.State = domain.StateFailed
		sub.Err = err
		s.logger.WithError(err).WithField("duration_ms", sub.FinishedAt.Sub(sub.StartedAt).Milliseconds()).
			Warn("Prediction failed")
		s.notify(sub)
		return sub
	}

	sub.State = domain.StateSuccess
	sub.Result = result
	sub.EntryID = s.record(ctx, record, result)

	s.logger.WithFields(logrus.Fields{
		"prediction":  result.Prediction,
		"risk":        result.Risk,
		"warnings":    len(result.Warnings),
		"duration_ms": sub.FinishedAt.Sub(sub.StartedAt).Milliseconds(),
	}).Info("Prediction completed")

	s.notify(sub)
	return sub
}

// record appends the prediction to history. Failures are logged, not returned.
func (s *PredictionService) record(ctx context.Context, record domain.ClinicalRecord, result *domain.PredictionResult) string {
	if s.store == nil {
		return ""
	}

	entry := &history.Entry{
		Record:    record,
		Result:    *result,
		Outcome:   report.Outcome(*result),
		Source:    s.source,
		CreatedAt: s.now(),
	}
	if err := s.store.Save(ctx, entry); err != nil {
		s.logger.WithError(err).Warn("Failed to record prediction history")
		return ""
	}
	return entry.ID
}

// Health reports whether the prediction service has its model loaded.
func (s *PredictionService) Health(ctx context.Context) bool {
	return s.predictor.CheckHealth(ctx)
}

func (s *PredictionService) notify(sub *domain.Submission) {
	if s.observer != nil {
		s.observer(*sub)
	}
}
