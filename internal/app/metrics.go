package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// metricsServer exposes /metrics and /healthz over plain HTTP.
type metricsServer struct {
	addr     string
	srv      *http.Server
	listener net.Listener
	log      *logrus.Entry
}

func newMetricsServer(addr string, reg *prometheus.Registry, log *logrus.Entry) *metricsServer {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &metricsServer{
		addr: addr,
		srv:  &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second},
		log:  log.WithField("component", "metrics"),
	}
}

func (m *metricsServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", m.addr)
	if err != nil {
		return err
	}
	m.listener = lis

	go func() {
		if err := m.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.WithError(err).Error("failed to serve metrics")
		}
	}()

	m.log.Infof("metrics server is running on %s", lis.Addr())
	return nil
}

func (m *metricsServer) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func (m *metricsServer) Stop(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
