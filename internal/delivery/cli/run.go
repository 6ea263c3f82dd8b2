package cli

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dmitrij-bot/vinabook/config"
	"github.com/Dmitrij-bot/vinabook/internal/app"
	"github.com/Dmitrij-bot/vinabook/internal/notify"
	"github.com/Dmitrij-bot/vinabook/pkg/logger"
)

// env is what a command body gets once storage and stores are ready.
type env struct {
	app *app.App
	out *OutputFormatter
	log *logrus.Entry
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opts.APIURL != "" {
		cfg.API.BaseURL = opts.APIURL
	}
	return cfg, nil
}

// commandLogger keeps one-shot commands quiet unless --verbose is given.
func commandLogger(cfg config.Config, opts *RootOptions, w io.Writer) *logrus.Entry {
	lc := cfg.Log
	lc.Level = "warn"
	if opts.Verbose {
		lc.Level = "debug"
	}
	lc.Format = "text"
	return logger.Base(logger.NewWithWriter(lc, w), lc)
}

// withApp opens storage and the stores, runs fn and closes everything.
// Errors are printed by the formatter and returned as *ExitError.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, e *env) error) error {
	out := newFormatter(cmd, opts)

	cfg, err := loadConfig(opts)
	if err != nil {
		return out.Report(WrapExitError(ExitCommandError, "failed to load config", err))
	}

	log := commandLogger(cfg, opts, cmd.ErrOrStderr())
	var notifier notify.Notifier = notify.NewWriter(cmd.ErrOrStderr())
	if opts.Verbose {
		notifier = notify.Multi{notifier, notify.NewLog(log)}
	}
	a := app.New(cfg, log, notifier)

	ctx := cmd.Context()
	if err := a.Open(ctx); err != nil {
		_ = a.Stop(ctx)
		return out.Report(WrapExitError(ExitCommandError, "failed to open local state", err))
	}
	defer func() {
		if err := a.Stop(context.Background()); err != nil {
			log.WithError(err).Warn("failed to close local state")
		}
	}()

	out.VerboseLog("api: %s, storage: %s", cfg.API.BaseURL, cfg.Storage.Driver)

	if err := fn(ctx, &env{app: a, out: out, log: log}); err != nil {
		return out.Report(err)
	}
	return nil
}
