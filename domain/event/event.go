// Package event defines the push events delivered to connected
// clients. Events are immutable values; sinks must not retain or
// mutate them.
package event

// DomainEvent is implemented by every server-to-client push event.
type DomainEvent interface {
	EventName() string
}

// MessageBroadcast carries a chat message to a connection.
type MessageBroadcast struct {
	Username string
	Content  string
}

func (MessageBroadcast) EventName() string { return "messageBroadcast" }

// ActiveUserAnnounced names one currently active session user during
// a replay.
type ActiveUserAnnounced struct {
	Username string
}

func (ActiveUserAnnounced) EventName() string { return "activeUserAnnounced" }

// RefreshSignal tells clients to refresh shared state after the
// session set changed.
type RefreshSignal struct{}

func (RefreshSignal) EventName() string { return "refreshSignal" }

// DisconnectAck acknowledges a transport disconnect to the one
// disconnecting connection.
type DisconnectAck struct{}

func (DisconnectAck) EventName() string { return "disconnectAck" }
