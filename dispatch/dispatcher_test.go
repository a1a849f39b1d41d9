package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/swizkhalifaa/Distributed-System-Project-C/domain"
	"github.com/swizkhalifaa/Distributed-System-Project-C/domain/event"
)

type memorySink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *memorySink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memorySink) all() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func Test_Broadcast_Reaches_Every_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())

	first := &memorySink{}
	second := &memorySink{}
	registry.Subscribe("conn-1", first)
	registry.Subscribe("conn-2", second)

	dispatcher.BroadcastMessage(context.Background(), "alice", "hi")

	want := []event.DomainEvent{event.MessageBroadcast{Username: "alice", Content: "hi"}}
	req.Equal(want, first.all())
	req.Equal(want, second.all())
}

func Test_Per_Connection_Order_Is_Dispatch_Order(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())

	sink := &memorySink{}
	registry.Subscribe("conn-1", sink)
	ctx := context.Background()

	dispatcher.BroadcastMessage(ctx, "alice", "one")
	dispatcher.NotifyLoginRefresh(ctx)
	dispatcher.BroadcastMessage(ctx, "alice", "two")

	req.Equal([]event.DomainEvent{
		event.MessageBroadcast{Username: "alice", Content: "one"},
		event.RefreshSignal{},
		event.MessageBroadcast{Username: "alice", Content: "two"},
	}, sink.all())
}

func Test_Replay_Delivers_Messages_Then_Users(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())

	caller := &memorySink{}
	other := &memorySink{}
	registry.Subscribe("conn-1", caller)
	registry.Subscribe("conn-2", other)

	messages := []domain.Message{
		{ID: uuid.New(), Content: "first", Author: domain.User{Username: "alice"}, SentAt: time.Now().UTC()},
		{ID: uuid.New(), Content: "second", Author: domain.User{Username: "bob"}, SentAt: time.Now().UTC()},
	}
	dispatcher.ReplayTo(context.Background(), "conn-1", messages, []string{"alice", "bob"})

	req.Equal([]event.DomainEvent{
		event.MessageBroadcast{Username: "alice", Content: "first"},
		event.MessageBroadcast{Username: "bob", Content: "second"},
		event.ActiveUserAnnounced{Username: "alice"},
		event.ActiveUserAnnounced{Username: "bob"},
	}, caller.all())
	req.Empty(other.all())
}

func Test_Disconnect_Ack_Targets_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())

	leaving := &memorySink{}
	staying := &memorySink{}
	registry.Subscribe("conn-1", leaving)
	registry.Subscribe("conn-2", staying)

	dispatcher.NotifyDisconnected(context.Background(), "conn-1")

	req.Equal([]event.DomainEvent{event.DisconnectAck{}}, leaving.all())
	req.Empty(staying.all())

	// Unknown connections are ignored.
	dispatcher.NotifyDisconnected(context.Background(), "ghost")
}

func Test_Channel_Sink_Drops_When_Full(t *testing.T) {
	req := require.New(t)
	sink := NewChannelSink(1)
	ctx := context.Background()

	req.NoError(sink.Consume(ctx, event.RefreshSignal{}))
	// Second event exceeds the buffer; it is dropped, not blocked on.
	req.NoError(sink.Consume(ctx, event.DisconnectAck{}))

	req.Len(sink.Events, 1)
	req.Equal(event.RefreshSignal{}, <-sink.Events)
}

func Test_Unsubscribe_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry, slog.Default())

	sink := &memorySink{}
	registry.Subscribe("conn-1", sink)
	registry.Unsubscribe("conn-1")
	req.Zero(registry.Count())

	dispatcher.BroadcastMessage(context.Background(), "alice", "hi")
	req.Empty(sink.all())
}
