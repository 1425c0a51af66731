// Package domain contains the core entities exchanged between the clinical
// data-entry surfaces and the remote liver disease prediction service.
package domain

import (
	"errors"
	"time"
)

// Field names a ClinicalRecord attribute using its wire (JSON) name.
type Field string

const (
	FieldAge                 Field = "age"
	FieldGender              Field = "gender"
	FieldTotalBilirubin      Field = "total_bilirubin"
	FieldDirectBilirubin     Field = "direct_bilirubin"
	FieldAlkalinePhosphatase Field = "alkaline_phosphatase"
	FieldALT                 Field = "alt"
	FieldAST                 Field = "ast"
	FieldTotalProteins       Field = "total_proteins"
	FieldAlbumin             Field = "albumin"
	FieldAGRatio             Field = "ag_ratio"
)

// AllFields lists every ClinicalRecord field in form order.
var AllFields = []Field{
	FieldAge,
	FieldGender,
	FieldTotalBilirubin,
	FieldDirectBilirubin,
	FieldAlkalinePhosphatase,
	FieldALT,
	FieldAST,
	FieldTotalProteins,
	FieldAlbumin,
	FieldAGRatio,
}

// Gender encodings accepted by the prediction service.
const (
	GenderFemale = 0
	GenderMale   = 1
)

// ClinicalRecord is one patient's validated lab panel. Records are built by
// clinical.Validate and passed by value; a new record is built on every
// submission.
type ClinicalRecord struct {
	Age                 float64 `json:"age"`
	Gender              float64 `json:"gender"`
	TotalBilirubin      float64 `json:"total_bilirubin"`
	DirectBilirubin     float64 `json:"direct_bilirubin"`
	AlkalinePhosphatase float64 `json:"alkaline_phosphatase"`
	ALT                 float64 `json:"alt"`
	AST                 float64 `json:"ast"`
	TotalProteins       float64 `json:"total_proteins"`
	Albumin             float64 `json:"albumin"`
	AGRatio             float64 `json:"ag_ratio"`
}

// Value returns the value stored for field and whether the field is known.
func (r ClinicalRecord) Value(field Field) (float64, bool) {
	switch field {
	case FieldAge:
		return r.Age, true
	case FieldGender:
		return r.Gender, true
	case FieldTotalBilirubin:
		return r.TotalBilirubin, true
	case FieldDirectBilirubin:
		return r.DirectBilirubin, true
	case FieldAlkalinePhosphatase:
		return r.AlkalinePhosphatase, true
	case FieldALT:
		return r.ALT, true
	case FieldAST:
		return r.AST, true
	case FieldTotalProteins:
		return r.TotalProteins, true
	case FieldAlbumin:
		return r.Albumin, true
	case FieldAGRatio:
		return r.AGRatio, true
	default:
		return 0, false
	}
}

// Severity grades how far a marker deviates from its normal range.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// IsValid reports whether s is one of the three known severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeverityHigh:
		return true
	default:
		return false
	}
}

// Impact is the direction of a SHAP contribution relative to disease risk.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
)

// Status is the explicit diagnosis enumeration a prediction service may emit
// alongside the free-text prediction label.
type Status string

const (
	StatusHealthy Status = "healthy"
	StatusDisease Status = "disease"
)

// MedicalWarning flags a marker above its normal upper limit.
type MedicalWarning struct {
	Marker     string   `json:"marker" validate:"required"`
	Value      float64  `json:"value"`
	UpperLimit float64  `json:"upper_limit"`
	Severity   Severity `json:"severity" validate:"required,severity"`
	Message    string   `json:"message"`
}

// ShapContribution is a signed per-feature attribution relative to BaseValue.
type ShapContribution struct {
	Feature      string  `json:"feature" validate:"required"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
	Impact       Impact  `json:"impact" validate:"required,oneof=positive negative"`
}

// PredictionResult is the success payload of POST /api/predict.
type PredictionResult struct {
	Prediction        string             `json:"prediction" validate:"required"`
	Status            Status             `json:"status,omitempty" validate:"omitempty,oneof=healthy disease"`
	Risk              string             `json:"risk" validate:"required"`
	Confidence        *float64           `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Summary           string             `json:"summary"`
	Warnings          []MedicalWarning   `json:"warnings" validate:"dive"`
	ShapContributions []ShapContribution `json:"shap_contributions" validate:"dive"`
	BaseValue         float64            `json:"base_value"`
}

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	ModelLoaded bool `json:"model_loaded"`
}

// SubmissionState tracks one submission through Idle → Submitting →
// {Success, Failed}.
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateSubmitting SubmissionState = "submitting"
	StateSuccess    SubmissionState = "success"
	StateFailed     SubmissionState = "failed"
)

// Submission is the outcome of one submission attempt. On success Result is
// set; on failure Err is set, and FieldErrors too when local validation failed.
type Submission struct {
	State       SubmissionState   `json:"state"`
	Record      *ClinicalRecord   `json:"record,omitempty"`
	Result      *PredictionResult `json:"result,omitempty"`
	FieldErrors FieldErrors       `json:"field_errors,omitempty"`
	Err         error             `json:"-"`
	EntryID     string            `json:"entry_id,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// Succeeded reports whether the submission produced a prediction.
func (s *Submission) Succeeded() bool {
	return s.State == StateSuccess && s.Result != nil
}

// Sentinel errors.
var (
	ErrNotFound = errors.New("not found")
)
