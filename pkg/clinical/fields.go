// Package clinical validates raw clinical form input into domain.ClinicalRecord
// values and describes the form fields for the surfaces that collect them.
package clinical

import (
	"github.com/liver-predict/internal/domain"
)

// Option is one choice of an enumerated field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldInfo describes how a field is presented to the person entering it.
type FieldInfo struct {
	Field       domain.Field `json:"field"`
	Label       string       `json:"label"`
	Placeholder string       `json:"placeholder"`
	Unit        string       `json:"unit,omitempty"`
	Hint        string       `json:"hint,omitempty"`
	Options     []Option     `json:"options,omitempty"`
}

// Fields lists the form fields in display order.
var Fields = []FieldInfo{
	{
		Field:       domain.FieldAge,
		Label:       "Age",
		Placeholder: "Enter age",
		Unit:        "years",
		Hint:        "Patient's age in years",
	},
	{
		Field:       domain.FieldGender,
		Label:       "Gender",
		Placeholder: "Select Gender",
		Options: []Option{
			{Value: "0", Label: "Female"},
			{Value: "1", Label: "Male"},
		},
	},
	{
		Field:       domain.FieldTotalBilirubin,
		Label:       "Total Bilirubin (TB)",
		Placeholder: "Enter value",
		Unit:        "mg/dL",
		Hint:        "Normal: 0.1-1.2 mg/dL",
	},
	{
		Field:       domain.FieldDirectBilirubin,
		Label:       "Direct Bilirubin (DB)",
		Placeholder: "Enter value",
		Unit:        "mg/dL",
		Hint:        "Normal: 0-0.3 mg/dL",
	},
	{
		Field:       domain.FieldAlkalinePhosphatase,
		Label:       "Alkaline Phosphatase (Alkphos)",
		Placeholder: "Enter value",
		Unit:        "IU/L",
		Hint:        "Normal: 44-147 IU/L",
	},
	{
		Field:       domain.FieldALT,
		Label:       "Alanine Aminotransferase (SGPT)",
		Placeholder: "Enter value",
		Unit:        "IU/L",
		Hint:        "Normal: 7-56 IU/L",
	},
	{
		Field:       domain.FieldAST,
		Label:       "Aspartate Aminotransferase (SGOT)",
		Placeholder: "Enter value",
		Unit:        "IU/L",
		Hint:        "Normal: 10-40 IU/L",
	},
	{
		Field:       domain.FieldTotalProteins,
		Label:       "Total Proteins (TP)",
		Placeholder: "Enter value",
		Unit:        "g/dL",
		Hint:        "Normal: 6.0-8.3 g/dL",
	},
	{
		Field:       domain.FieldAlbumin,
		Label:       "Albumin (ALB)",
		Placeholder: "Enter value",
		Unit:        "g/dL",
		Hint:        "Normal: 3.5-5.5 g/dL",
	},
	{
		Field:       domain.FieldAGRatio,
		Label:       "Albumin and Globulin Ratio (A/G Ratio)",
		Placeholder: "Enter value",
		Hint:        "Must be between 0 and 3",
	},
}

// Info returns the presentation metadata for field.
func Info(field domain.Field) (FieldInfo, bool) {
	for _, info := range Fields {
		if info.Field == field {
			return info, true
		}
	}
	return FieldInfo{}, false
}
