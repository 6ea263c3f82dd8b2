package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dmitrij-bot/vinabook/internal/store"
)

// syncReporter receives the outcome of every cart sync.
type syncReporter interface {
	Synced(snap store.CartSnapshot, err error)
}

// cartSyncer refreshes the cart on a cron schedule.
type cartSyncer struct {
	schedule string
	cart     *store.CartStore
	reporter syncReporter
	timeout  time.Duration
	runs     *prometheus.CounterVec
	cron     *cron.Cron
	log      *logrus.Entry
}

func newCartSyncer(schedule string, cart *store.CartStore, reporter syncReporter, reg prometheus.Registerer, log *logrus.Entry) *cartSyncer {
	log = log.WithField("component", "sync")

	return &cartSyncer{
		schedule: schedule,
		cart:     cart,
		reporter: reporter,
		timeout:  30 * time.Second,
		runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "vinabook",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Cart sync runs by result.",
		}, []string{"result"}),
		cron: cron.New(cron.WithLogger(cron.PrintfLogger(log))),
		log:  log,
	}
}

func (s *cartSyncer) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}

	s.run()
	s.cron.Start()
	return nil
}

func (s *cartSyncer) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *cartSyncer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.cart.Fetch(ctx)
	snap := s.cart.Snapshot()

	result := "ok"
	if err != nil {
		result = "error"
		s.log.WithError(err).Warn("cart sync failed")
	} else {
		s.log.WithField("items", len(snap.Items)).Debug("cart synced")
	}

	s.runs.WithLabelValues(result).Inc()
	s.reporter.Synced(snap, err)
}
