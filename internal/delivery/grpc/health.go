package grpc

import (
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Dmitrij-bot/vinabook/internal/store"
)

// CartService is the health service name reporting the cart sync state.
const CartService = "cart"

// HealthReporter keeps the "cart" health status in line with the last cart
// sync: SERVING after a successful fetch, NOT_SERVING after a failed one.
type HealthReporter struct {
	hs  *health.Server
	log *logrus.Entry
}

func NewHealthReporter(hs *health.Server, log *logrus.Entry) *HealthReporter {
	hs.SetServingStatus(CartService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{hs: hs, log: log.WithField("component", "health")}
}

// Synced records the outcome of one sync run.
func (r *HealthReporter) Synced(snap store.CartSnapshot, err error) {
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	r.hs.SetServingStatus(CartService, status)
	r.log.WithFields(logrus.Fields{
		"status":  status.String(),
		"items":   len(snap.Items),
		"version": snap.Version,
	}).Debug("cart sync reported")
}
