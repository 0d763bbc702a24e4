// Package events fans upload notifications out to websocket clients and,
// when configured, a Kafka topic.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"salespulse/internal/infrastructure"
	contract "salespulse/pkg/contracts/events"
)

// Publisher delivers an event envelope to one destination
type Publisher interface {
	Publish(ctx context.Context, env contract.Envelope) error
	Name() string
}

// Fanout publishes every envelope to each of its publishers in turn
type Fanout struct {
	publishers []Publisher
	timeout    time.Duration
	logger     *slog.Logger
}

// NewFanout creates a Fanout. timeout bounds each publisher call; zero
// disables the bound.
func NewFanout(timeout time.Duration, logger *slog.Logger, publishers ...Publisher) *Fanout {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Fanout{
		publishers: publishers,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "events")),
	}
}

// NewEnvelope wraps data in an envelope stamped with a fresh id and the
// trace id carried by ctx.
func NewEnvelope(ctx context.Context, eventType contract.EventType, data interface{}) contract.Envelope {
	return contract.Envelope{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TraceID:   infrastructure.GetTraceID(ctx),
		Data:      data,
	}
}

// Publish sends env to every publisher. Failures do not stop delivery to the
// remaining publishers and are returned joined.
func (f *Fanout) Publish(ctx context.Context, env contract.Envelope) error {
	var errs []error
	for _, p := range f.publishers {
		pctx, cancel := ctx, context.CancelFunc(func() {})
		if f.timeout > 0 {
			pctx, cancel = context.WithTimeout(ctx, f.timeout)
		}
		err := p.Publish(pctx, env)
		cancel()

		if err != nil {
			f.logger.WarnContext(ctx, "event publish failed",
				slog.String("publisher", p.Name()),
				slog.String("event_type", string(env.Type)),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		f.logger.DebugContext(ctx, "event published",
			slog.String("publisher", p.Name()),
			slog.String("event_id", env.ID))
	}
	return errors.Join(errs...)
}

// Name identifies the fanout
func (f *Fanout) Name() string {
	return "fanout"
}
