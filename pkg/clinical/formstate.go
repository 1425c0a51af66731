package clinical

import (
	"github.com/liver-predict/internal/domain"
)

// FieldStatus is the validity of a single form field as shown to the user.
type FieldStatus string

const (
	StatusUntouched FieldStatus = "untouched"
	StatusValid     FieldStatus = "valid"
	StatusInvalid   FieldStatus = "invalid"
)

// FieldState is the per-field form state: whether the user has interacted
// with the field and the messages it currently fails with.
type FieldState struct {
	Touched bool
	Errors  []string
}

// FormState tracks every field of one form. Errors are kept for untouched
// fields but only become visible once the field is touched.
type FormState struct {
	fields map[domain.Field]FieldState
}

// NewFormState returns a form with every field untouched and valid.
func NewFormState() *FormState {
	fs := &FormState{}
	fs.Reset()
	return fs
}

// Reset returns every field to untouched with no errors.
func (fs *FormState) Reset() {
	fs.fields = make(map[domain.Field]FieldState, len(domain.AllFields))
	for _, f := range domain.AllFields {
		fs.fields[f] = FieldState{}
	}
}

// Touch marks a field as interacted with and re-validates it in isolation.
func (fs *FormState) Touch(field domain.Field, value *float64) {
	fs.fields[field] = FieldState{Touched: true, Errors: ValidateField(field, value)}
}

// Apply replaces the errors of every field with those in errs. Fields absent
// from errs become valid.
func (fs *FormState) Apply(errs domain.FieldErrors) {
	for f, st := range fs.fields {
		st.Errors = append([]string(nil), errs[f]...)
		fs.fields[f] = st
	}
}

// Submit validates raw as a whole, marking every field touched. It returns
// the record when the form is valid.
func (fs *FormState) Submit(raw RawRecord) (domain.ClinicalRecord, error) {
	record, err := Validate(raw)
	for f, st := range fs.fields {
		st.Touched = true
		fs.fields[f] = st
	}
	if errs, ok := err.(domain.FieldErrors); ok {
		fs.Apply(errs)
	} else {
		fs.Apply(nil)
	}
	return record, err
}

// State returns the stored state of field.
func (fs *FormState) State(field domain.Field) FieldState {
	return fs.fields[field]
}

// Status reports the display status of field.
func (fs *FormState) Status(field domain.Field) FieldStatus {
	st := fs.fields[field]
	switch {
	case !st.Touched:
		return StatusUntouched
	case len(st.Errors) > 0:
		return StatusInvalid
	default:
		return StatusValid
	}
}

// Visible returns the messages to display for field, none until it is touched.
func (fs *FormState) Visible(field domain.Field) []string {
	st := fs.fields[field]
	if !st.Touched {
		return nil
	}
	return st.Errors
}

// Valid reports whether no field carries an error.
func (fs *FormState) Valid() bool {
	for _, st := range fs.fields {
		if len(st.Errors) > 0 {
			return false
		}
	}
	return true
}
