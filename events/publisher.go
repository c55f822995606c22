package events

import (
	"context"
	"errors"

	"github.com/Manish-456/eatsy-backend/models"
)

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.OrderEvent) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }

// Multi publishes every event to all publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event models.OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
