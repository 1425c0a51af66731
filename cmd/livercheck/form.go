package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/report"
	"github.com/liver-predict/pkg/clinical"
)

// fieldValidator checks one input as it is typed. The bilirubin ordering
// rule is applied after the whole form is submitted.
func fieldValidator(field domain.Field) func(string) error {
	return func(s string) error {
		value := clinical.ParseRaw(map[string]string{string(field): s})[field]
		if msgs := clinical.ValidateField(field, value); len(msgs) > 0 {
			return errors.New(msgs[0])
		}
		return nil
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// buildForm creates the input form bound to values.
func buildForm(values map[domain.Field]*string) *huh.Form {
	fields := make([]huh.Field, 0, len(clinical.Fields))
	for _, info := range clinical.Fields {
		title := info.Label
		if info.Unit != "" {
			title += " (" + info.Unit + ")"
		}

		if len(info.Options) > 0 {
			opts := make([]huh.Option[string], 0, len(info.Options))
			for _, o := range info.Options {
				opts = append(opts, huh.NewOption(o.Label, o.Value))
			}
			fields = append(fields, huh.NewSelect[string]().
				Title(title).
				Options(opts...).
				Value(values[info.Field]))
			continue
		}

		fields = append(fields, huh.NewInput().
			Title(title).
			Description(info.Hint).
			Placeholder(info.Placeholder).
			Value(values[info.Field]).
			Validate(fieldValidator(info.Field)))
	}
	return huh.NewForm(huh.NewGroup(fields...))
}

// runForm collects a record interactively, starting from initial. It repeats
// until the record passes every rule or the user aborts.
func runForm(initial clinical.RawRecord, out io.Writer) (domain.ClinicalRecord, error) {
	values := make(map[domain.Field]*string, len(domain.AllFields))
	for _, f := range domain.AllFields {
		s := formatValue(initial[f])
		if f == domain.FieldGender && s == "" {
			s = "0"
		}
		values[f] = &s
	}

	state := clinical.NewFormState()
	for {
		if err := buildForm(values).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return domain.ClinicalRecord{}, withCode(exitInvalid, errors.New("input cancelled"))
			}
			return domain.ClinicalRecord{}, fmt.Errorf("form failed: %w", err)
		}

		strs := make(map[string]string, len(values))
		for f, v := range values {
			strs[string(f)] = *v
		}

		record, _ := state.Submit(clinical.ParseRaw(strs))
		if state.Valid() {
			return record, nil
		}

		visible := domain.FieldErrors{}
		for _, f := range domain.AllFields {
			for _, msg := range state.Visible(f) {
				visible.Add(f, msg)
			}
		}
		fmt.Fprint(out, report.RenderFieldErrors(visible))
	}
}
