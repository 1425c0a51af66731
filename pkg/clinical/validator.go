package clinical

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/liver-predict/internal/domain"
)

// RawRecord holds form input before validation. A nil entry means the field
// was left empty or could not be read as a number.
type RawRecord map[domain.Field]*float64

// Set stores v for field.
func (r RawRecord) Set(field domain.Field, v float64) {
	r[field] = &v
}

// FromRecord converts a validated record back into raw form input.
func FromRecord(record domain.ClinicalRecord) RawRecord {
	raw := make(RawRecord, len(domain.AllFields))
	for _, f := range domain.AllFields {
		v, _ := record.Value(f)
		raw.Set(f, v)
	}
	return raw
}

// ParseRaw reads string form input. Empty, unparsable and non-finite values
// are left unset so they fail the required check.
func ParseRaw(values map[string]string) RawRecord {
	raw := make(RawRecord, len(domain.AllFields))
	for _, f := range domain.AllFields {
		if v, ok := parseNumber(values[string(f)]); ok {
			raw.Set(f, v)
		}
	}
	return raw
}

// FromJSON reads a decoded JSON object. Numbers and numeric strings are
// accepted; null, empty strings and anything else are left unset.
func FromJSON(body map[string]any) RawRecord {
	raw := make(RawRecord, len(domain.AllFields))
	for _, f := range domain.AllFields {
		var (
			v  float64
			ok bool
		)
		switch val := body[string(f)].(type) {
		case float64:
			v, ok = val, !math.IsNaN(val) && !math.IsInf(val, 0)
		case json.Number:
			v, ok = parseNumber(val.String())
		case string:
			v, ok = parseNumber(val)
		}
		if ok {
			raw.Set(f, v)
		}
	}
	return raw
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

const msgGender = "Gender must be 0 (Female) or 1 (Male)"

// MsgBilirubinOrder is reported on direct_bilirubin when it exceeds total_bilirubin.
const MsgBilirubinOrder = "Direct Bilirubin cannot exceed Total Bilirubin"

type rule struct {
	required   string
	min        *float64
	minMessage string
	max        *float64
	maxMessage string
	integer    bool
	intMessage string
}

func ptr(v float64) *float64 { return &v }

func nonNegative(required, label string) rule {
	return rule{
		required:   required,
		min:        ptr(0),
		minMessage: label + " must be at least 0",
	}
}

var rules = map[domain.Field]rule{
	domain.FieldAge: {
		required:   "Age is required",
		min:        ptr(1),
		minMessage: "Age must be at least 1",
		max:        ptr(120),
		maxMessage: "Age must be at most 120",
	},
	domain.FieldGender: {
		required:   "Gender is required",
		min:        ptr(domain.GenderFemale),
		minMessage: msgGender,
		max:        ptr(domain.GenderMale),
		maxMessage: msgGender,
		integer:    true,
		intMessage: msgGender,
	},
	domain.FieldTotalBilirubin:      nonNegative("Total Bilirubin is required", "Total Bilirubin"),
	domain.FieldDirectBilirubin:     nonNegative("Direct Bilirubin is required", "Direct Bilirubin"),
	domain.FieldAlkalinePhosphatase: nonNegative("Alkaline Phosphatase is required", "Alkaline Phosphatase"),
	domain.FieldALT:                 nonNegative("ALT (SGPT) is required", "ALT"),
	domain.FieldAST:                 nonNegative("AST (SGOT) is required", "AST"),
	domain.FieldTotalProteins:       nonNegative("Total Proteins is required", "Total Proteins"),
	domain.FieldAlbumin:             nonNegative("Albumin is required", "Albumin"),
	domain.FieldAGRatio: {
		required:   "A/G Ratio is required",
		min:        ptr(0),
		minMessage: "A/G Ratio must be at least 0",
		max:        ptr(3),
		maxMessage: "A/G Ratio must be between 0 and 3",
	},
}

// ValidateField checks a single value against its field's rules. The
// cross-field bilirubin rule is not applied here.
func ValidateField(field domain.Field, value *float64) []string {
	r, ok := rules[field]
	if !ok {
		return nil
	}
	if value == nil {
		return []string{r.required}
	}
	v := *value
	switch {
	case r.min != nil && v < *r.min:
		return []string{r.minMessage}
	case r.max != nil && v > *r.max:
		return []string{r.maxMessage}
	case r.integer && v != math.Trunc(v):
		return []string{r.intMessage}
	}
	return nil
}

// Validate turns raw input into a ClinicalRecord. On failure it returns a
// domain.FieldErrors listing every offending field.
func Validate(raw RawRecord) (domain.ClinicalRecord, error) {
	errs := domain.FieldErrors{}
	for _, f := range domain.AllFields {
		for _, msg := range ValidateField(f, raw[f]) {
			errs.Add(f, msg)
		}
	}

	tb, db := raw[domain.FieldTotalBilirubin], raw[domain.FieldDirectBilirubin]
	if !errs.Has(domain.FieldTotalBilirubin) && !errs.Has(domain.FieldDirectBilirubin) && *db > *tb {
		errs.Add(domain.FieldDirectBilirubin, MsgBilirubinOrder)
	}

	if len(errs) > 0 {
		return domain.ClinicalRecord{}, errs
	}

	return domain.ClinicalRecord{
		Age:                 *raw[domain.FieldAge],
		Gender:              *raw[domain.FieldGender],
		TotalBilirubin:      *tb,
		DirectBilirubin:     *db,
		AlkalinePhosphatase: *raw[domain.FieldAlkalinePhosphatase],
		ALT:                 *raw[domain.FieldALT],
		AST:                 *raw[domain.FieldAST],
		TotalProteins:       *raw[domain.FieldTotalProteins],
		Albumin:             *raw[domain.FieldAlbumin],
		AGRatio:             *raw[domain.FieldAGRatio],
	}, nil
}

// ValidateRecord re-checks an already-typed record.
func ValidateRecord(record domain.ClinicalRecord) error {
	_, err := Validate(FromRecord(record))
	return err
}
