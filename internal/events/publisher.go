package events

import (
	"context"
	"log/slog"
)

// EventPublisher publishes domain events after state changes commit.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Handler consumes one event; the return value reports whether mail
// delivery succeeded for every recipient. Publishers ignore it — delivery
// is best-effort by contract.
type Handler func(ctx context.Context, event Event) bool

// LocalPublisher invokes the handler synchronously in the publishing
// goroutine. It is the default wiring: events fire after the enrollment
// write commits and a handler panic or delivery failure never propagates
// to the caller.
type LocalPublisher struct {
	handler Handler
	logger  *slog.Logger
}

func NewLocalPublisher(handler Handler, logger *slog.Logger) *LocalPublisher {
	return &LocalPublisher{
		handler: handler,
		logger:  logger,
	}
}

func (p *LocalPublisher) Publish(ctx context.Context, event Event) error {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("event handler panicked", "event_id", event.ID, "event_type", event.Type, "panic", r)
		}
	}()

	if delivered := p.handler(ctx, event); !delivered {
		p.logger.Warn("event delivery incomplete", "event_id", event.ID, "event_type", event.Type)
	}
	return nil
}

func (p *LocalPublisher) Close() error {
	return nil
}
