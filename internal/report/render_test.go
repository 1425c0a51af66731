package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liver-predict/internal/domain"
)

func TestRender(t *testing.T) {
	out := Render(BuildView(domain.PredictionResult{
		Prediction: "Liver Disease Detected",
		Risk:       "High Risk",
		Summary:    "High risk of liver disease detected.",
		Warnings: []domain.MedicalWarning{
			{Marker: "AST / SGOT", Value: 160, UpperLimit: 48, Severity: domain.SeverityHigh, Message: "AST / SGOT is highly elevated (normal upper limit 48.0)."},
		},
		ShapContributions: []domain.ShapContribution{
			{Feature: "ast", Value: 160, Contribution: 0.52, Impact: domain.ImpactPositive},
			{Feature: "albumin", Value: 4.1, Contribution: -0.13, Impact: domain.ImpactNegative},
		},
	}))

	assert.Contains(t, out, "Liver Disease Detected")
	assert.Contains(t, out, "High Risk")
	assert.Contains(t, out, AdviceDisease)
	assert.Contains(t, out, "[Highly Elevated]")
	assert.Contains(t, out, "AST / SGOT is highly elevated")
	assert.Contains(t, out, "+0.520")
	assert.Contains(t, out, "-0.130")
}

func TestRender_NoWarnings(t *testing.T) {
	out := Render(BuildView(domain.PredictionResult{Prediction: "No Liver Disease Detected", Risk: "Low Risk"}))

	assert.Contains(t, out, HeadlineHealthy)
	assert.Contains(t, out, NoInsights)
	assert.NotContains(t, out, "SHAP")
}

func TestDrawBar(t *testing.T) {
	pos := drawBar(Bar{Impact: domain.ImpactPositive, Width: 100})
	neg := drawBar(Bar{Impact: domain.ImpactNegative, Width: 50})

	assert.True(t, strings.HasPrefix(pos, strings.Repeat(" ", trackHalf)+"│"))
	assert.Equal(t, trackHalf, strings.Count(pos, "█"))
	assert.Equal(t, trackHalf/2, strings.Count(neg, "█"))
	assert.True(t, strings.HasSuffix(neg, "│"+strings.Repeat(" ", trackHalf)))
}

func TestRenderFieldErrors(t *testing.T) {
	errs := domain.FieldErrors{}
	errs.Add(domain.FieldAGRatio, "A/G Ratio must be between 0 and 3")
	errs.Add(domain.FieldAge, "Age is required")

	out := RenderFieldErrors(errs)

	assert.Less(t, strings.Index(out, "age: Age is required"), strings.Index(out, "ag_ratio:"))
}

func TestRenderWarnings(t *testing.T) {
	assert.Contains(t, RenderWarnings(nil), NoInsights)

	out := RenderWarnings([]domain.MedicalWarning{{Marker: "ALT / SGPT", Severity: domain.SeverityMild, Message: "ALT / SGPT is mildly elevated (normal upper limit 56.0)."}})
	assert.Contains(t, out, "[Mildly Elevated]")
}
