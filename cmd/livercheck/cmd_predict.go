package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/report"
	"github.com/liver-predict/pkg/clinical"
)

func newPredictCmd(a *app) *cobra.Command {
	in := &recordInput{}
	var (
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Request a liver disease prediction for a record",
		Long: `Validate a record and submit it to the prediction service.

Exit status is 1 when the record has field errors and 2 when the prediction
service rejects or fails the request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.raw(cmd)
			if err != nil {
				return err
			}

			if interactive {
				record, err := runForm(raw, a.out)
				if err != nil {
					return err
				}
				raw = clinical.FromRecord(record)
			} else if in.empty(cmd) {
				return fmt.Errorf("no record given: use field flags, --file or --interactive")
			}

			svc, closeFn, err := a.predictionService()
			if err != nil {
				return err
			}
			defer closeFn()

			sub := svc.Submit(cmd.Context(), raw)
			return a.printSubmission(sub, asJSON)
		},
	}
	addRecordFlags(cmd, in)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "enter the record in an interactive form")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func (a *app) printSubmission(sub *domain.Submission, asJSON bool) error {
	if sub.Succeeded() {
		if asJSON {
			return writeJSON(a.out, map[string]any{
				"entry_id": sub.EntryID,
				"result":   sub.Result,
				"view":     report.BuildView(*sub.Result),
			})
		}
		fmt.Fprint(a.out, report.Render(report.BuildView(*sub.Result)))
		if sub.EntryID != "" {
			fmt.Fprintf(a.out, "Saved to history as %s\n", sub.EntryID)
		}
		return nil
	}

	if len(sub.FieldErrors) > 0 {
		if asJSON {
			_ = writeJSON(a.out, map[string]any{"error": domain.MsgInvalidInput, "errors": sub.FieldErrors})
		} else {
			fmt.Fprint(a.out, report.RenderFieldErrors(sub.FieldErrors))
		}
		return withCode(exitInvalid, nil)
	}

	var apiErr *domain.APIError
	if errors.As(sub.Err, &apiErr) {
		if asJSON {
			_ = writeJSON(a.out, map[string]any{
				"error":   apiErr.Message,
				"kind":    apiErr.Kind,
				"details": apiErr.Details,
			})
			return withCode(exitAPIError, nil)
		}
		fmt.Fprintln(a.errOut, apiErr.Message)
		for _, d := range apiErr.Details {
			fmt.Fprintf(a.errOut, "  • %s\n", d)
		}
		return withCode(exitAPIError, nil)
	}

	return withCode(exitAPIError, sub.Err)
}
