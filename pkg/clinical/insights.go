package clinical

import (
	"fmt"
	"math"
	"strconv"

	"github.com/liver-predict/internal/domain"
)

// ReferenceLimit is the normal upper limit of one liver marker.
type ReferenceLimit struct {
	Marker     string
	Field      domain.Field
	UpperLimit float64
}

// ReferenceLimits are checked by Insights, in report order.
var ReferenceLimits = []ReferenceLimit{
	{Marker: "Alkaline Phosphatase", Field: domain.FieldAlkalinePhosphatase, UpperLimit: 147.0},
	{Marker: "ALT / SGPT", Field: domain.FieldALT, UpperLimit: 56.0},
	{Marker: "AST / SGOT", Field: domain.FieldAST, UpperLimit: 48.0},
	{Marker: "Total Bilirubin", Field: domain.FieldTotalBilirubin, UpperLimit: 1.2},
	{Marker: "Direct Bilirubin", Field: domain.FieldDirectBilirubin, UpperLimit: 0.3},
}

// Insights flags every marker of record above its reference limit. A value
// equal to the limit is normal.
func Insights(record domain.ClinicalRecord) []domain.MedicalWarning {
	warnings := []domain.MedicalWarning{}
	for _, ref := range ReferenceLimits {
		value, _ := record.Value(ref.Field)
		if value <= ref.UpperLimit {
			continue
		}

		severity, label := Grade(value / ref.UpperLimit)
		warnings = append(warnings, domain.MedicalWarning{
			Marker:     ref.Marker,
			Value:      math.RoundToEven(value*100) / 100,
			UpperLimit: ref.UpperLimit,
			Severity:   severity,
			Message:    fmt.Sprintf("%s is %s (normal upper limit %s).", ref.Marker, label, formatLimit(ref.UpperLimit)),
		})
	}
	return warnings
}

// Grade maps the ratio of a value to its upper limit onto a severity.
func Grade(ratio float64) (domain.Severity, string) {
	switch {
	case ratio >= 3:
		return domain.SeverityHigh, "highly elevated"
	case ratio >= 1.5:
		return domain.SeverityModerate, "moderately elevated"
	default:
		return domain.SeverityMild, "mildly elevated"
	}
}

// Summarize produces the one-line summary for a prediction outcome.
func Summarize(disease bool, warnings []domain.MedicalWarning) string {
	switch {
	case !disease && len(warnings) == 0:
		return "No liver disease detected based on the model prediction."
	case !disease:
		return "Low overall risk, with some abnormal lab values."
	case len(warnings) == 0:
		return "High risk of liver disease detected."
	default:
		return "High risk of liver disease detected, driven by abnormal lab values."
	}
}

// formatLimit keeps one decimal on whole limits ("147.0").
func formatLimit(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
