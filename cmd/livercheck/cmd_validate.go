package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/report"
	"github.com/liver-predict/pkg/clinical"
)

func newValidateCmd(a *app) *cobra.Command {
	in := &recordInput{}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a record offline and flag markers above their reference limits",
		Example: `  livercheck validate --age 45 --gender male --total-bilirubin 0.9 --direct-bilirubin 0.2 \
    --alkaline-phosphatase 120 --alt 30 --ast 25 --total-proteins 7 --albumin 4 --ag-ratio 1.2
  livercheck validate --file record.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.raw(cmd)
			if err != nil {
				return err
			}

			record, err := clinical.Validate(raw)
			var fieldErrs domain.FieldErrors
			if errors.As(err, &fieldErrs) {
				if asJSON {
					_ = writeJSON(a.out, map[string]any{"valid": false, "errors": fieldErrs})
				} else {
					fmt.Fprint(a.out, report.RenderFieldErrors(fieldErrs))
				}
				return withCode(exitInvalid, nil)
			}
			if err != nil {
				return err
			}

			insights := clinical.Insights(record)
			if asJSON {
				return writeJSON(a.out, map[string]any{"valid": true, "insights": insights})
			}
			fmt.Fprintln(a.out, "Record is valid.")
			fmt.Fprint(a.out, report.RenderWarnings(insights))
			return nil
		},
	}
	addRecordFlags(cmd, in)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
