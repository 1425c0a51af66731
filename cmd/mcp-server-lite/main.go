// Command mcp-server-lite serves the liver prediction MCP tools over stdio
// or streamable HTTP. It needs no external database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/liver-predict/internal/config"
	"github.com/liver-predict/internal/mcp"
	"github.com/liver-predict/internal/setup"
)

func main() {
	if err := newRootCmd(config.LoadLiteConfig()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.LiteConfig) *cobra.Command {
	root := &cobra.Command{
		Use:           "mcp-server-lite",
		Short:         "Liver disease prediction MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVar(&cfg.Transport, "transport", cfg.Transport, "transport: stdio or http")
	root.Flags().IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "port for the http transport")
	root.Flags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "base URL of the prediction service")

	root.AddCommand(newSetupCmd(cfg))
	return root
}

func serve(parent context.Context, cfg *config.LiteConfig) error {
	server, err := mcp.NewLiteServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx)
}

func newSetupCmd(cfg *config.LiteConfig) *cobra.Command {
	var configPath string

	resolvePath := func() (string, error) {
		if configPath != "" {
			return configPath, nil
		}
		return setup.GetClaudeDesktopConfigPath()
	}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register this server with Claude Desktop",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Claude Desktop config file (default: platform location)")

	var binary string
	desktop := &cobra.Command{
		Use:   "claude-desktop",
		Short: "Add or update the liver-predict entry in Claude Desktop",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath()
			if err != nil {
				return err
			}
			if binary == "" {
				if exe, err := os.Executable(); err == nil {
					binary = exe
				}
			}

			entry, err := setup.Register(path, setup.Options{
				BinaryPath: binary,
				APIURL:     cfg.APIURL,
				DataDir:    cfg.DataDir,
			})
			if err != nil {
				return fmt.Errorf("failed to configure Claude Desktop: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registered %s in %s\n", setup.ServerKey, path)
			fmt.Fprintf(out, "  command: %s\n", entry.Command)
			for k, v := range entry.Env {
				fmt.Fprintf(out, "  %s=%s\n", k, v)
			}
			fmt.Fprintln(out, "Restart Claude Desktop to load the server.")
			return nil
		},
	}
	desktop.Flags().StringVarP(&binary, "binary", "b", "", "server binary to register (default: this executable)")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the Claude Desktop registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath()
			if err != nil {
				return err
			}
			st, err := setup.GetStatus(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", st.ConfigPath)
			fmt.Fprintf(out, "Registered:  %t\n", st.Configured)
			if st.Configured {
				fmt.Fprintf(out, "Binary:      %s\n", st.ServerPath)
				if st.APIURL != "" {
					fmt.Fprintf(out, "API URL:     %s\n", st.APIURL)
				}
				if st.DataDir != "" {
					fmt.Fprintf(out, "Data dir:    %s\n", st.DataDir)
				}
			}
			for _, issue := range st.Issues {
				fmt.Fprintf(out, "! %s\n", issue)
			}
			return nil
		},
	}

	cmd.AddCommand(desktop, status)
	return cmd
}
