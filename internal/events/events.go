// Package events publishes checkout events through the repository outbox.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dmitrij-bot/vinabook/internal/repository"
)

const TypeOrderPlaced = "order.placed"

// OrderPlaced is written to the outbox after a successful checkout.
type OrderPlaced struct {
	Type        string    `json:"type"`
	CartItemIDs []string  `json:"cartItemIds"`
	NameClient  string    `json:"nameClient"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     string    `json:"address"`
	Note        string    `json:"note,omitempty"`
	Total       int64     `json:"total"`
	Status      string    `json:"status,omitempty"`
	PlacedAt    time.Time `json:"placedAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderPlaced) error
}

type OutboxPublisher struct {
	outbox repository.Outbox
	now    func() time.Time
}

func NewOutboxPublisher(outbox repository.Outbox) *OutboxPublisher {
	return &OutboxPublisher{outbox: outbox, now: time.Now}
}

func (p *OutboxPublisher) Publish(ctx context.Context, event OrderPlaced) error {
	event.Type = TypeOrderPlaced
	if event.PlacedAt.IsZero() {
		event.PlacedAt = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	if err := p.outbox.AddEvent(ctx, repository.Event{
		Key:     uuid.NewString(),
		Message: string(payload),
	}); err != nil {
		return fmt.Errorf("failed to add %s event: %w", event.Type, err)
	}

	return nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, OrderPlaced) error { return nil }
