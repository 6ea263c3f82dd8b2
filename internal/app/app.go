package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"

	"github.com/Dmitrij-bot/vinabook/config"
	"github.com/Dmitrij-bot/vinabook/internal/client"
	deliverygrpc "github.com/Dmitrij-bot/vinabook/internal/delivery/grpc"
	"github.com/Dmitrij-bot/vinabook/internal/events"
	grpcserver "github.com/Dmitrij-bot/vinabook/internal/grpc"
	"github.com/Dmitrij-bot/vinabook/internal/notify"
	"github.com/Dmitrij-bot/vinabook/internal/repository"
	"github.com/Dmitrij-bot/vinabook/internal/resource"
	"github.com/Dmitrij-bot/vinabook/internal/store"
	"github.com/Dmitrij-bot/vinabook/pkg/kafkaSender"
	"github.com/Dmitrij-bot/vinabook/pkg/lyfecycle"
)

// App wires storage, the API client and the stores. Open is enough for a
// single CLI command; Start additionally runs the serve-mode components.
type App struct {
	cfg      config.Config
	log      *logrus.Entry
	notifier notify.Notifier

	mu      sync.Mutex
	cmps    []cmp
	stopped bool

	storage *storage
	metrics *metricsServer
	grpc    *grpcserver.Server

	Registry *prometheus.Registry
	Health   *health.Server
	Repo     repository.Interface
	API      *resource.Accessor
	Cart     *store.CartStore
	Session  *store.SessionStore
}

type cmp struct {
	Service lyfecycle.Lyfecycle
	Name    string
}

func New(cfg config.Config, log *logrus.Entry, notifier notify.Notifier) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		notifier: notifier,
		Registry: prometheus.NewRegistry(),
		Health:   health.NewServer(),
	}
}

// Open starts storage and builds the client and both stores.
func (app *App) Open(ctx context.Context) error {
	st, err := newStorage(app.cfg.Storage)
	if err != nil {
		return err
	}
	app.storage = st

	if err := app.start(ctx, cmp{st, "storage " + app.cfg.Storage.Driver}); err != nil {
		return err
	}

	app.Repo = st.repo
	c := client.New(app.cfg.API, repository.TokenSource(st.repo),
		client.WithMetrics(client.NewMetrics(app.Registry)),
		client.WithLogger(app.log.WithField("component", "client")),
	)
	app.API = resource.New(c)

	var publisher events.Publisher = events.Nop{}
	if st.outbox != nil {
		publisher = events.NewOutboxPublisher(st.outbox)
	}
	app.Cart = store.NewCartStore(app.API, app.notifier,
		store.WithPublisher(publisher),
		store.WithCartLogger(app.log),
	)

	app.Session, err = store.NewSessionStore(ctx, st.repo, app.API, app.notifier, app.log)
	if err != nil {
		return err
	}

	return nil
}

// Start opens the app and runs the gRPC health server, the metrics
// endpoint, the Kafka relay and the periodic cart sync.
func (app *App) Start(ctx context.Context) error {
	if err := app.Open(ctx); err != nil {
		return err
	}

	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reporter := deliverygrpc.NewHealthReporter(app.Health, app.log)
	app.grpc = grpcserver.NewGRPCServer(app.cfg.GRPC, app.Health, app.log)
	app.metrics = newMetricsServer(app.cfg.Metrics.Addr, app.Registry, app.log)

	cmps := []cmp{
		{app.grpc, "grpcServ"},
		{app.metrics, "metrics"},
	}

	switch {
	case !app.cfg.Kafka.Enabled():
		app.log.Info("kafka is not configured, checkout events stay in the outbox")
	case app.storage.outbox == nil:
		app.log.Warnf("storage %s has no outbox, checkout events are not relayed", app.cfg.Storage.Driver)
	default:
		producer, err := kafkaSender.NewSyncProducer(app.cfg.Kafka)
		if err != nil {
			return err
		}
		sender := kafkaSender.NewSender(app.cfg.Kafka, app.storage.outbox, producer, app.log)
		cmps = append(cmps, cmp{sender, "kafkaSender"})
	}

	cmps = append(cmps, cmp{newCartSyncer(app.cfg.Sync.Schedule, app.Cart, reporter, app.Registry, app.log), "cart sync"})

	if err := app.start(ctx, cmps...); err != nil {
		return err
	}

	app.log.Info("Application started!")
	return nil
}

func (app *App) start(ctx context.Context, cmps ...cmp) error {
	okCh, errCh := make(chan struct{}), make(chan error, 1)

	go func() {
		for _, c := range cmps {
			app.log.Debugf("%v is starting", c.Name)

			if err := c.Service.Start(ctx); err != nil {
				err = fmt.Errorf("cannot start %s: %w", c.Name, err)
				app.log.Error(err)
				errCh <- err
				return
			}

			if !app.track(c) {
				app.log.Warnf("%v started after shutdown, stopping it", c.Name)
				if err := c.Service.Stop(context.Background()); err != nil {
					app.log.WithError(err).Errorf("failed to stop %s", c.Name)
				}
				return
			}
			app.log.Debugf("%v started", c.Name)
		}
		close(okCh)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("start timed out: %w", ctx.Err())
	case err := <-errCh:
		return err
	case <-okCh:
		return nil
	}
}

// track records c as started. It reports false once Stop has run.
func (app *App) track(c cmp) bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.stopped {
		return false
	}
	app.cmps = append(app.cmps, c)
	return true
}

// Stop stops every started component in reverse order.
func (app *App) Stop(ctx context.Context) error {
	app.log.Debug("shutting down service...")
	okCh, errCh := make(chan struct{}), make(chan error, 1)

	app.mu.Lock()
	app.stopped = true
	cmps := app.cmps
	app.cmps = nil
	app.mu.Unlock()

	go func() {
		var firstErr error
		for i := len(cmps) - 1; i >= 0; i-- {
			c := cmps[i]
			app.log.Debugf("stopping %q...", c.Name)

			if err := c.Service.Stop(ctx); err != nil {
				app.log.WithError(err).Errorf("failed to stop %s", c.Name)
				if firstErr == nil {
					firstErr = fmt.Errorf("cannot stop %s: %w", c.Name, err)
				}
			}
		}

		if firstErr != nil {
			errCh <- firstErr
			return
		}
		close(okCh)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("stop timed out: %w", ctx.Err())
	case err := <-errCh:
		return err
	case <-okCh:
		app.log.Debug("Application stopped!")
		return nil
	}
}

// MetricsAddr and GRPCAddr are the bound listener addresses once started.
func (app *App) MetricsAddr() string {
	if app.metrics == nil {
		return ""
	}
	return app.metrics.Addr()
}

func (app *App) GRPCAddr() string {
	if app.grpc == nil {
		return ""
	}
	return app.grpc.Addr()
}
