package repository

import "context"

// Interface is the durable local storage the session store and the API
// client read from. Only two keys are used: KeyToken and KeyUser.
type Interface interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Outbox queues events until the Kafka sender has delivered them.
type Outbox interface {
	AddEvent(ctx context.Context, event Event) error
	GetKafkaMessage(ctx context.Context) (Event, error)
	SetDone(ctx context.Context, id int64) error
}
