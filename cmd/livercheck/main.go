// Command livercheck validates clinical records and requests liver disease
// predictions from the terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/liver-predict/internal/config"
)

// Exit codes.
const (
	exitOK          = 0
	exitInvalid     = 1
	exitAPIError    = 2
	exitUsage       = 64
	exitUnavailable = 1
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

func main() {
	cfg := config.LoadLiteConfig()
	// Keep the terminal quiet unless asked otherwise.
	if os.Getenv("LIVER_LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	if os.Getenv("LIVER_LOG_FORMAT") == "" {
		cfg.LogFormat = "text"
	}

	root := newRootCmd(newApp(cfg, os.Stdout, os.Stderr))
	err := root.Execute()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(exitCode(err))
}
