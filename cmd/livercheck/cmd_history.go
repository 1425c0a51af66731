package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/history"
	"github.com/liver-predict/internal/report"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show, delete, export and import past predictions",
	}
	cmd.AddCommand(
		newHistoryListCmd(a),
		newHistoryShowCmd(a),
		newHistoryDeleteCmd(a),
		newHistoryExportCmd(a),
		newHistoryImportCmd(a),
	)
	return cmd
}

// withStore runs fn against the history store and closes it afterwards.
func (a *app) withStore(fn func(history.Store) error) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCmd(a *app) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List predictions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store history.Store) error {
				entries, err := store.List(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				total, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tOUTCOME\tPREDICTION\tRISK\tSOURCE")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						e.ID, formatTime(e.CreatedAt), e.Outcome, e.Result.Prediction, e.Result.Risk, e.Source)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%d of %d predictions\n", len(entries), total)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one prediction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store history.Store) error {
				entry, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, domain.ErrNotFound) {
					return withCode(exitInvalid, fmt.Errorf("prediction %s not found", args[0]))
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(a.out, entry)
				}
				fmt.Fprintf(a.out, "%s  %s  (%s)\n", entry.ID, formatTime(entry.CreatedAt), entry.Source)
				fmt.Fprint(a.out, report.Render(report.BuildView(entry.Result)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one prediction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store history.Store) error {
				err := store.Delete(cmd.Context(), args[0])
				if errors.Is(err, domain.ErrNotFound) {
					return withCode(exitInvalid, fmt.Errorf("prediction %s not found", args[0]))
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every prediction as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store history.Store) error {
				if output == "-" {
					return store.ExportJSON(cmd.Context(), a.out)
				}
				if output == "" {
					output = filepath.Join(a.cfg.ExportDir(), fmt.Sprintf("history-%s.json", time.Now().Format("20060102-150405")))
				}
				if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
					return fmt.Errorf("failed to create export directory: %w", err)
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()
				if err := store.ExportJSON(cmd.Context(), f); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Exported history to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (\"-\" for stdout, default in the data dir)")
	return cmd
}

func newHistoryImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import predictions from a JSON export, skipping existing ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()

			return a.withStore(func(store history.Store) error {
				imported, skipped, err := store.ImportJSON(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Imported %d predictions, skipped %d\n", imported, skipped)
				return nil
			})
		},
	}
}
