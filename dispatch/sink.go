package dispatch

import (
	"context"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain/event"
)

// EventSink receives push events for one connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// ChannelSink buffers events for a single connection. The transport
// side drains Events and writes frames to the socket.
type ChannelSink struct {
	Events chan event.DomainEvent
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume hands the event to the connection's channel. A full buffer
// drops the event rather than blocking the dispatcher; a slow reader
// must not stall fan-out to everyone else.
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
