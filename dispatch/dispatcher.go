// Package dispatch fans push events out to connected clients.
//
// It provides best-effort delivery with no guarantees regarding
// durability or retries across connections; per connection, events are
// consumed in dispatch order. The dispatcher is not a message broker.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/domain/event"
)

// Dispatcher delivers events to every connection known to the
// registry, or to a single requesting connection for replays.
type Dispatcher struct {
	registry *Registry
	log      *slog.Logger
}

func NewDispatcher(registry *Registry, log *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

// BroadcastMessage delivers a chat message to every connected client,
// including the sender and clients that never logged in.
func (d *Dispatcher) BroadcastMessage(ctx context.Context, username, text string) {
	d.fanout(ctx, event.MessageBroadcast{Username: username, Content: text})
}

// NotifyLoginRefresh signals every connected client to refresh shared
// state after the session set changed.
func (d *Dispatcher) NotifyLoginRefresh(ctx context.Context) {
	d.fanout(ctx, event.RefreshSignal{})
}

// NotifyDisconnected acknowledges a transport disconnect to the one
// disconnecting connection.
func (d *Dispatcher) NotifyDisconnected(ctx context.Context, connectionID string) {
	sink, ok := d.registry.Get(connectionID)
	if !ok {
		return
	}
	if err := sink.Consume(ctx, event.DisconnectAck{}); err != nil {
		d.log.Debug("Disconnect ack dropped", "connection", connectionID, "err", err)
	}
}

// ReplayTo delivers the full message history and the active usernames
// to a single connection: one event per message in log order, then one
// event per username in registry order.
func (d *Dispatcher) ReplayTo(ctx context.Context, connectionID string, messages []domain.Message, activeUsernames []string) {
	sink, ok := d.registry.Get(connectionID)
	if !ok {
		d.log.Debug("Replay requested by unknown connection", "connection", connectionID)
		return
	}

	events := lo.Map(messages, func(m domain.Message, _ int) event.DomainEvent {
		return event.MessageBroadcast{Username: m.Author.Username, Content: m.Content}
	})
	events = append(events, lo.Map(activeUsernames, func(name string, _ int) event.DomainEvent {
		return event.ActiveUserAnnounced{Username: name}
	})...)

	for _, e := range events {
		if err := sink.Consume(ctx, e); err != nil {
			d.log.Debug("Replay delivery stopped", "connection", connectionID, "err", err)
			return
		}
	}
}

func (d *Dispatcher) fanout(ctx context.Context, e event.DomainEvent) {
	for _, sink := range d.registry.Snapshot() {
		if err := sink.Consume(ctx, e); err != nil {
			d.log.Debug("Event dropped during fanout", "event", e.EventName(), "err", err)
		}
	}
}
