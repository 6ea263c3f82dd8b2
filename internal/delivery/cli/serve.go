package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dmitrij-bot/vinabook/internal/app"
	"github.com/Dmitrij-bot/vinabook/internal/notify"
	"github.com/Dmitrij-bot/vinabook/pkg/logger"
)

type serveOptions struct {
	*RootOptions
	StartTimeout time.Duration
	StopTimeout  time.Duration
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the cart in sync and relay order events",
		Long: `Run the sync agent: a periodic cart sync, the gRPC health service
(service "cart"), the Prometheus /metrics endpoint and, when Kafka brokers are
configured, the relay of order events from the local outbox.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts.RootOptions)

			cfg, err := loadConfig(opts.RootOptions)
			if err != nil {
				return out.Report(WrapExitError(ExitCommandError, "failed to load config", err))
			}
			if opts.Verbose {
				cfg.Log.Level = "debug"
			}

			base := logger.Base(logger.NewWithWriter(cfg.Log, cmd.ErrOrStderr()), cfg.Log)
			a := app.New(cfg, base, notify.NewLog(base))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			startCtx, cancel := context.WithTimeout(ctx, opts.StartTimeout)
			defer cancel()

			if err := a.Start(startCtx); err != nil {
				stopCtx, cancelStop := context.WithTimeout(context.Background(), opts.StopTimeout)
				defer cancelStop()
				_ = a.Stop(stopCtx)
				return out.Report(WrapExitError(ExitCommandError, "failed to start", err))
			}

			<-ctx.Done()

			stopCtx, cancelStop := context.WithTimeout(context.Background(), opts.StopTimeout)
			defer cancelStop()
			if err := a.Stop(stopCtx); err != nil {
				return out.Report(WrapExitError(ExitFailure, "failed to stop cleanly", err))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&opts.StartTimeout, "start-timeout", 30*time.Second, "give up starting after this long")
	cmd.Flags().DurationVar(&opts.StopTimeout, "stop-timeout", 15*time.Second, "give up stopping after this long")

	return cmd
}
