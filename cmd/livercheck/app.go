package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/liver-predict/internal/cache"
	"github.com/liver-predict/internal/config"
	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/history"
	"github.com/liver-predict/internal/logging"
	"github.com/liver-predict/internal/service"
	"github.com/liver-predict/pkg/predictor"
)

// app holds the state shared by every subcommand.
type app struct {
	cfg    *config.LiteConfig
	out    io.Writer
	errOut io.Writer
	logger *logrus.Logger

	postgresURL string
	noHistory   bool
}

func newApp(cfg *config.LiteConfig, out, errOut io.Writer) *app {
	return &app{cfg: cfg, out: out, errOut: errOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "livercheck",
		Short:         "Validate liver function panels and request liver disease predictions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = logging.NewWithOutput(domain.LoggingConfig{
				Level:  a.cfg.LogLevel,
				Format: a.cfg.LogFormat,
			}, a.errOut)
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.APIURL, "api-url", a.cfg.APIURL, "base URL of the prediction service")
	flags.DurationVar(&a.cfg.APITimeout, "timeout", a.cfg.APITimeout, "prediction request timeout (0 uses the transport default)")
	flags.StringVar(&a.cfg.DataDir, "data-dir", a.cfg.DataDir, "directory holding the prediction history")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&a.postgresURL, "postgres-url", "", "use a PostgreSQL history store instead of the local SQLite file")
	flags.BoolVar(&a.noHistory, "no-history", false, "do not record predictions")

	root.AddCommand(
		newValidateCmd(a),
		newPredictCmd(a),
		newHealthCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) client() *predictor.Client {
	return predictor.NewClient(predictor.Config{
		BaseURL: a.cfg.APIURL,
		Timeout: a.cfg.APITimeout,
		Logger:  a.logger,
	})
}

// openHistory opens the SQLite store in the data dir, or PostgreSQL when
// --postgres-url is set.
func (a *app) openHistory() (history.Store, error) {
	if a.postgresURL != "" {
		return history.NewPostgresStoreFromURL(a.postgresURL)
	}
	if err := a.cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return history.NewSQLiteStore(a.cfg.HistoryDBPath())
}

// predictionService wires the client, an in-process cache and history.
// The returned close func releases the history store.
func (a *app) predictionService() (*service.PredictionService, func(), error) {
	mem, err := cache.NewMemoryCache(a.cfg.CacheMaxItems, a.cfg.CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	resilient := predictor.NewResilientClient(a.client(), predictor.DefaultBreakerConfig(), mem, a.logger)

	opts := []service.Option{service.WithSource("cli")}
	closeFn := func() {}
	if !a.noHistory {
		store, err := a.openHistory()
		if err != nil {
			a.logger.WithError(err).Warn("Prediction history unavailable")
		} else {
			opts = append(opts, service.WithHistory(store))
			closeFn = func() { store.Close() }
		}
	}
	return service.NewPredictionService(a.logger, resilient, opts...), closeFn, nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
