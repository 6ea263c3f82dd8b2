package lyfecycle

import "context"

// Lyfecycle is implemented by every component the serve command starts:
// storage connections, the gRPC health server, the metrics endpoint,
// the Kafka sender and the cart sync job.
type Lyfecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
