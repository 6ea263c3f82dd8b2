package repository

import (
	"context"
	"sync"
)

// MemoryRepository is process-local storage, used by tests and by the CLI
// when no durable backend is configured.
type MemoryRepository struct {
	mu     sync.Mutex
	values map[string]string
	events []Event
	done   map[int64]bool
	nextID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		values: make(map[string]string),
		done:   make(map[int64]bool),
	}
}

func (r *MemoryRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.values[key]
	return v, ok, nil
}

func (r *MemoryRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	return nil
}

func (r *MemoryRepository) SetMany(_ context.Context, values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range values {
		r.values[k] = v
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

func (r *MemoryRepository) AddEvent(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event.ID = r.nextID
	r.events = append(r.events, event)
	return nil
}

func (r *MemoryRepository) GetKafkaMessage(_ context.Context) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if !r.done[e.ID] {
			return e, nil
		}
	}
	return Event{}, nil
}

func (r *MemoryRepository) SetDone(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done[id] = true
	return nil
}
