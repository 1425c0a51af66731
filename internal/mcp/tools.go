package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/liver-predict/internal/cache"
	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/history"
	"github.com/liver-predict/internal/report"
	"github.com/liver-predict/pkg/clinical"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// RecordParams carries a clinical record. Every field is optional at the
// protocol level so missing values surface as field errors.
type RecordParams struct {
	Age                 *float64 `json:"age,omitempty" jsonschema:"patient age in years, 1 to 120"`
	Gender              *float64 `json:"gender,omitempty" jsonschema:"0 for female, 1 for male"`
	TotalBilirubin      *float64 `json:"total_bilirubin,omitempty" jsonschema:"total bilirubin in mg/dL"`
	DirectBilirubin     *float64 `json:"direct_bilirubin,omitempty" jsonschema:"direct bilirubin in mg/dL, not above total bilirubin"`
	AlkalinePhosphatase *float64 `json:"alkaline_phosphatase,omitempty" jsonschema:"alkaline phosphatase in IU/L"`
	ALT                 *float64 `json:"alt,omitempty" jsonschema:"alanine aminotransferase (SGPT) in IU/L"`
	AST                 *float64 `json:"ast,omitempty" jsonschema:"aspartate aminotransferase (SGOT) in IU/L"`
	TotalProteins       *float64 `json:"total_proteins,omitempty" jsonschema:"total proteins in g/dL"`
	Albumin             *float64 `json:"albumin,omitempty" jsonschema:"albumin in g/dL"`
	AGRatio             *float64 `json:"ag_ratio,omitempty" jsonschema:"albumin/globulin ratio, 0 to 3"`
}

func (p RecordParams) raw() clinical.RawRecord {
	return clinical.RawRecord{
		domain.FieldAge:                 p.Age,
		domain.FieldGender:              p.Gender,
		domain.FieldTotalBilirubin:      p.TotalBilirubin,
		domain.FieldDirectBilirubin:     p.DirectBilirubin,
		domain.FieldAlkalinePhosphatase: p.AlkalinePhosphatase,
		domain.FieldALT:                 p.ALT,
		domain.FieldAST:                 p.AST,
		domain.FieldTotalProteins:       p.TotalProteins,
		domain.FieldAlbumin:             p.Albumin,
		domain.FieldAGRatio:             p.AGRatio,
	}
}

// ValidateResult is the output of validate_clinical_record.
type ValidateResult struct {
	Valid    bool                    `json:"valid"`
	Errors   map[string][]string     `json:"errors,omitempty"`
	Insights []domain.MedicalWarning `json:"insights"`
}

// PredictResult is the output of predict_liver_disease.
type PredictResult struct {
	EntryID string                   `json:"entry_id,omitempty"`
	Result  *domain.PredictionResult `json:"result"`
	View    report.View              `json:"view"`
}

// FailureResult describes why a prediction was not produced.
type FailureResult struct {
	Kind    string              `json:"kind"`
	Message string              `json:"message"`
	Details []string            `json:"details,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// HealthResult is the output of check_model_health.
type HealthResult struct {
	ModelLoaded bool        `json:"model_loaded"`
	APIURL      string      `json:"api_url"`
	Breaker     string      `json:"breaker,omitempty"`
	Cache       cache.Stats `json:"cache"`
}

// HistoryParams pages through stored predictions.
type HistoryParams struct {
	Limit  int `json:"limit,omitempty" jsonschema:"maximum entries to return, default 10, at most 100"`
	Offset int `json:"offset,omitempty" jsonschema:"entries to skip"`
}

// HistoryItem summarises one stored prediction.
type HistoryItem struct {
	ID         string        `json:"id"`
	CreatedAt  string        `json:"created_at"`
	Prediction string        `json:"prediction"`
	Risk       string        `json:"risk"`
	Outcome    domain.Status `json:"outcome"`
	Source     string        `json:"source,omitempty"`
}

// HistoryResult is the output of list_prediction_history.
type HistoryResult struct {
	Total   int64         `json:"total"`
	Entries []HistoryItem `json:"entries"`
}

func (s *LiteServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "validate_clinical_record",
		Description: "Check a liver function panel for missing or out-of-range values and flag markers above their reference limits. Does not contact the prediction service.",
	}, s.handleValidate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "predict_liver_disease",
		Description: "Validate a liver function panel and request a liver disease prediction with SHAP feature contributions.",
	}, s.handlePredict)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_model_health",
		Description: "Report whether the prediction service has its model loaded.",
	}, s.handleHealth)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_prediction_history",
		Description: "List previous predictions, newest first.",
	}, s.handleHistory)

	s.logger.WithField("tool_count", 4).Info("Successfully registered all tools")
}

func (s *LiteServer) handleValidate(ctx context.Context, req *mcp.CallToolRequest, params RecordParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "validate_clinical_record").Info("Tool invoked")

	record, err := clinical.Validate(params.raw())
	if err != nil {
		var fieldErrs domain.FieldErrors
		if !errors.As(err, &fieldErrs) {
			return nil, nil, err
		}
		out := ValidateResult{Valid: false, Errors: errorMap(fieldErrs), Insights: []domain.MedicalWarning{}}
		return textResult(false, "Record is invalid:\n"+bullets(fieldErrs.Details())), out, nil
	}

	insights := clinical.Insights(record)
	out := ValidateResult{Valid: true, Insights: insights}

	text := "Record is valid. All liver function parameters appear to be within normal ranges."
	if len(insights) > 0 {
		lines := make([]string, 0, len(insights))
		for _, w := range insights {
			lines = append(lines, w.Message)
		}
		text = "Record is valid. Markers above reference limits:\n" + bullets(lines)
	}
	return textResult(false, text), out, nil
}

func (s *LiteServer) handlePredict(ctx context.Context, req *mcp.CallToolRequest, params RecordParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "predict_liver_disease").Info("Tool invoked")

	sub := s.service.Submit(ctx, params.raw())
	if sub.Succeeded() {
		view := report.BuildView(*sub.Result)
		out := PredictResult{EntryID: sub.EntryID, Result: sub.Result, View: view}
		return textResult(false, report.Render(view)), out, nil
	}

	if len(sub.FieldErrors) > 0 {
		out := FailureResult{
			Kind:    "invalid_input",
			Message: domain.MsgInvalidInput,
			Details: sub.FieldErrors.Details(),
			Errors:  errorMap(sub.FieldErrors),
		}
		return textResult(true, out.Message+":\n"+bullets(out.Details)), out, nil
	}

	var apiErr *domain.APIError
	if errors.As(sub.Err, &apiErr) {
		out := FailureResult{Kind: string(apiErr.Kind), Message: apiErr.Message, Details: apiErr.Details}
		text := out.Message
		if len(out.Details) > 0 {
			text += ":\n" + bullets(out.Details)
		}
		return textResult(true, text), out, nil
	}

	return nil, nil, fmt.Errorf("prediction failed: %w", sub.Err)
}

func (s *LiteServer) handleHealth(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "check_model_health").Info("Tool invoked")

	out := HealthResult{
		ModelLoaded: s.service.Health(ctx),
		APIURL:      s.config.APIURL,
		Cache:       s.cache.Stats(),
	}
	if s.breaker != nil {
		out.Breaker = s.breaker.State()
	}

	text := "Prediction service is ready: model loaded."
	if !out.ModelLoaded {
		text = "Prediction service is not ready: model not loaded or service unreachable."
	}
	return textResult(false, text), out, nil
}

func (s *LiteServer) handleHistory(ctx context.Context, req *mcp.CallToolRequest, params HistoryParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_prediction_history").Info("Tool invoked")

	limit := params.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	entries, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list history: %w", err)
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count history: %w", err)
	}

	out := HistoryResult{Total: total, Entries: make([]HistoryItem, 0, len(entries))}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		out.Entries = append(out.Entries, historyItem(e))
		lines = append(lines, fmt.Sprintf("%s  %s  %s (%s)", e.CreatedAt.Format("2006-01-02 15:04"), e.ID, e.Result.Prediction, e.Result.Risk))
	}

	text := fmt.Sprintf("%d of %d predictions", len(entries), total)
	if len(lines) > 0 {
		text += ":\n" + bullets(lines)
	}
	return textResult(false, text), out, nil
}

func historyItem(e *history.Entry) HistoryItem {
	return HistoryItem{
		ID:         e.ID,
		CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Prediction: e.Result.Prediction,
		Risk:       e.Result.Risk,
		Outcome:    e.Outcome,
		Source:     e.Source,
	}
}

func errorMap(errs domain.FieldErrors) map[string][]string {
	out := make(map[string][]string, len(errs))
	for _, f := range errs.Fields() {
		out[string(f)] = errs[f]
	}
	return out
}

func bullets(lines []string) string {
	return "- " + strings.Join(lines, "\n- ")
}

func textResult(isError bool, text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
