// Package sink provides the per-connection delivery buffer between the live
// subsystem's fan-out and a transport writer.
package sink

import (
	"context"
	"log/slog"

	"chat-hub/domain/event"
)

// ConnSink decouples fan-out from socket writes through a buffered channel.
// Consume never blocks: when the buffer is full the frame is dropped and the
// backpressure is logged, so one slow client cannot stall a broadcast.
type ConnSink struct {
	Events chan event.Event
	log    *slog.Logger
}

func NewConnSink(log *slog.Logger, bufferSize int) *ConnSink {
	return &ConnSink{
		Events: make(chan event.Event, bufferSize),
		log:    log,
	}
}

// Consume is called by the fan-out. The transport's write pump drains Events.
func (s *ConnSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Debug("connection buffer full, dropping event", "event", e.Name())
		return nil
	}
}
