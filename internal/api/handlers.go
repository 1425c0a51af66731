package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/liver-predict/internal/cache"
	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/history"
	"github.com/liver-predict/internal/middleware"
	"github.com/liver-predict/internal/report"
	"github.com/liver-predict/pkg/clinical"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// MsgPredictionFailed is returned when the upstream service fails internally.
const MsgPredictionFailed = "Prediction failed"

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type healthResponse struct {
	ModelLoaded bool         `json:"model_loaded"`
	Status      string       `json:"status"`
	Breaker     string       `json:"breaker,omitempty"`
	Cache       *cache.Stats `json:"cache,omitempty"`
}

type listResponse struct {
	Entries []*history.Entry `json:"entries"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// handlePredict validates the record locally, then forwards it upstream.
func (s *Server) handlePredict(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.ObservePrediction("invalid_input")
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   domain.MsgInvalidInput,
			Details: []string{"body: " + err.Error()},
		})
		return
	}

	record, err := clinical.Validate(clinical.FromJSON(body))
	if err != nil {
		middleware.ObservePrediction("invalid_input")
		var fieldErrs domain.FieldErrors
		if errors.As(err, &fieldErrs) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: domain.MsgInvalidInput, Details: fieldErrs.Details()})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.MsgInvalidInput, Details: []string{err.Error()}})
		return
	}

	sub := s.service.SubmitRecord(c.Request.Context(), record)
	if sub.Succeeded() {
		middleware.ObservePrediction(string(report.Outcome(*sub.Result)))
		if sub.EntryID != "" {
			c.Header("X-Prediction-ID", sub.EntryID)
		}
		c.JSON(http.StatusOK, sub.Result)
		return
	}

	if c.Request.Context().Err() != nil {
		// Caller went away or the request deadline fired; RequestTimeout answers.
		middleware.ObservePrediction("canceled")
		_ = c.Error(sub.Err)
		return
	}

	status, resp := upstreamError(sub.Err)
	middleware.ObservePrediction(errorKind(sub.Err))
	c.JSON(status, resp)
}

// upstreamError maps a failed submission to the gateway response.
func upstreamError(err error) (int, errorResponse) {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError, errorResponse{Error: MsgPredictionFailed}
	}

	switch apiErr.Kind {
	case domain.KindValidation:
		details := apiErr.Details
		if details == nil {
			details = []string{}
		}
		return http.StatusBadRequest, errorResponse{Error: apiErr.Message, Details: details}
	case domain.KindServer, domain.KindInvalidResponse:
		return http.StatusInternalServerError, errorResponse{Error: MsgPredictionFailed}
	case domain.KindUnavailable, domain.KindTransport:
		return http.StatusServiceUnavailable, errorResponse{Error: apiErr.Message}
	default:
		return http.StatusBadGateway, errorResponse{Error: apiErr.Message}
	}
}

func errorKind(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Kind)
	}
	return "internal"
}

// handleHealth always answers 200; the body carries readiness.
func (s *Server) handleHealth(c *gin.Context) {
	loaded := s.service.Health(c.Request.Context())
	resp := healthResponse{ModelLoaded: loaded, Status: "ok"}
	if !loaded {
		resp.Status = "degraded"
	}
	if s.breaker != nil {
		resp.Breaker = s.breaker.State()
	}
	if s.cacheStats != nil {
		stats := s.cacheStats()
		resp.Cache = &stats
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFields(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": clinical.Fields})
}

func (s *Server) handleField(c *gin.Context) {
	info, ok := clinical.Info(domain.Field(c.Param("field")))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Unknown field"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) historyStore(c *gin.Context) (history.Store, bool) {
	store := s.service.History()
	if store == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Prediction history is disabled"})
		return nil, false
	}
	return store, true
}

func (s *Server) handleListPredictions(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "offset must be a non-negative integer"})
		return
	}

	ctx := c.Request.Context()
	entries, err := store.List(ctx, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list predictions")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to list predictions"})
		return
	}
	total, err := store.Count(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count predictions")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to list predictions"})
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}

	c.JSON(http.StatusOK, listResponse{Entries: entries, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleGetPrediction(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	entry, err := store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Prediction not found"})
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to load prediction")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to load prediction"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleDeletePrediction(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	err := store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Prediction not found"})
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete prediction")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to delete prediction"})
		return
	}

	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
