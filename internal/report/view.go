// Package report derives the presentation of a prediction result: outcome,
// severity tiers and SHAP bar geometry. It holds no I/O.
package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/pkg/clinical"
)

// Tier is the colour class a surface uses for an element.
type Tier string

const (
	TierHealthy  Tier = "healthy"
	TierAlert    Tier = "alert"
	TierMild     Tier = "mild"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
	TierNeutral  Tier = "neutral"
)

// Fixed user-facing copy.
const (
	HeadlineHealthy = "No Liver Disease Detected"
	HeadlineDisease = "Liver Disease Detected"
	AdviceHealthy   = "However, regular check-ups are recommended for maintaining good liver health."
	AdviceDisease   = "Please consult a healthcare professional for further evaluation and diagnosis."
	NoInsights      = "All liver function parameters appear to be within normal ranges."
)

// Outcome classifies result. An explicit status wins; otherwise the
// prediction label is matched.
func Outcome(result domain.PredictionResult) domain.Status {
	switch result.Status {
	case domain.StatusHealthy, domain.StatusDisease:
		return result.Status
	}
	if !strings.Contains(result.Prediction, "Disease Detected") || strings.Contains(result.Prediction, "No Liver Disease") {
		return domain.StatusHealthy
	}
	return domain.StatusDisease
}

// SeverityLabel is the display label of s. Unknown severities are shown verbatim.
func SeverityLabel(s domain.Severity) string {
	switch s {
	case domain.SeverityMild:
		return "Mildly Elevated"
	case domain.SeverityModerate:
		return "Moderately Elevated"
	case domain.SeverityHigh:
		return "Highly Elevated"
	default:
		return string(s)
	}
}

// SeverityTier maps s onto its colour tier.
func SeverityTier(s domain.Severity) Tier {
	switch s {
	case domain.SeverityMild:
		return TierMild
	case domain.SeverityModerate:
		return TierModerate
	case domain.SeverityHigh:
		return TierHigh
	default:
		return TierNeutral
	}
}

// Bar is one SHAP contribution laid out on a centred track. Width and Left
// are percentages of the track.
type Bar struct {
	Feature      string        `json:"feature"`
	Value        float64       `json:"value"`
	Contribution float64       `json:"contribution"`
	Impact       domain.Impact `json:"impact"`
	Width        float64       `json:"width"`
	Left         float64       `json:"left"`
	Label        string        `json:"label"`
	Tier         Tier          `json:"tier"`
}

// ShapBars scales every contribution against the largest magnitude. Positive
// bars grow right from the centre, negative ones left. An all-zero set yields
// zero-width bars.
func ShapBars(contribs []domain.ShapContribution) []Bar {
	var maxAbs float64
	for _, c := range contribs {
		maxAbs = math.Max(maxAbs, math.Abs(c.Contribution))
	}

	bars := make([]Bar, 0, len(contribs))
	for _, c := range contribs {
		var width float64
		if maxAbs > 0 {
			width = math.Abs(c.Contribution) / maxAbs * 100
		}

		positive := c.Impact == domain.ImpactPositive
		bar := Bar{
			Feature:      c.Feature,
			Value:        c.Value,
			Contribution: c.Contribution,
			Impact:       c.Impact,
			Width:        width,
			Label:        strconv.FormatFloat(c.Contribution, 'f', 3, 64),
		}
		if positive {
			bar.Left = 50
			bar.Label = "+" + bar.Label
			bar.Tier = TierAlert
		} else {
			bar.Left = 50 - width
			bar.Tier = TierHealthy
		}
		bars = append(bars, bar)
	}
	return bars
}

// Insight is a medical warning prepared for display.
type Insight struct {
	Marker        string          `json:"marker"`
	Value         float64         `json:"value"`
	UpperLimit    float64         `json:"upper_limit"`
	Severity      domain.Severity `json:"severity"`
	SeverityLabel string          `json:"severity_label"`
	Tier          Tier            `json:"tier"`
	Message       string          `json:"message"`
}

// View is everything a surface needs to present a prediction.
type View struct {
	Outcome    domain.Status `json:"outcome"`
	Healthy    bool          `json:"healthy"`
	Tier       Tier          `json:"tier"`
	Headline   string        `json:"headline"`
	Risk       string        `json:"risk"`
	Confidence *float64      `json:"confidence,omitempty"`
	Summary    string        `json:"summary"`
	Advice     string        `json:"advice"`
	Insights   []Insight     `json:"insights"`
	// InsightsNote replaces the insight list when there are no warnings.
	InsightsNote string  `json:"insights_note,omitempty"`
	Bars         []Bar   `json:"bars"`
	BaseValue    float64 `json:"base_value"`
}

// BuildView derives the display model of result.
func BuildView(result domain.PredictionResult) View {
	outcome := Outcome(result)
	healthy := outcome == domain.StatusHealthy

	view := View{
		Outcome:    outcome,
		Healthy:    healthy,
		Risk:       result.Risk,
		Confidence: result.Confidence,
		Summary:    result.Summary,
		Insights:   make([]Insight, 0, len(result.Warnings)),
		Bars:       ShapBars(result.ShapContributions),
		BaseValue:  result.BaseValue,
	}

	if view.Summary == "" {
		view.Summary = clinical.Summarize(!healthy, result.Warnings)
	}

	if healthy {
		view.Tier, view.Headline, view.Advice = TierHealthy, HeadlineHealthy, AdviceHealthy
	} else {
		view.Tier, view.Headline, view.Advice = TierAlert, HeadlineDisease, AdviceDisease
	}

	for _, w := range result.Warnings {
		view.Insights = append(view.Insights, Insight{
			Marker:        w.Marker,
			Value:         w.Value,
			UpperLimit:    w.UpperLimit,
			Severity:      w.Severity,
			SeverityLabel: SeverityLabel(w.Severity),
			Tier:          SeverityTier(w.Severity),
			Message:       w.Message,
		})
	}
	if len(view.Insights) == 0 {
		view.InsightsNote = NoInsights
	}

	return view
}
