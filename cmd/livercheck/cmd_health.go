package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check whether the prediction service has its model loaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client()
			ready := client.CheckHealth(cmd.Context())

			if asJSON {
				if err := writeJSON(a.out, map[string]any{"api_url": client.BaseURL(), "model_loaded": ready}); err != nil {
					return err
				}
			} else if ready {
				fmt.Fprintf(a.out, "ready: model loaded at %s\n", client.BaseURL())
			} else {
				fmt.Fprintf(a.out, "not ready: model not loaded or %s unreachable\n", client.BaseURL())
			}

			if !ready {
				return withCode(exitUnavailable, nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}
