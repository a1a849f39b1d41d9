package dispatch

import (
	"sync"
)

// Registry tracks the sink of every currently connected transport
// connection, logged in or not. It is the transport's "all connected
// clients" table made explicit, with a lifecycle independent of the
// chat core: entries appear on connect and vanish on disconnect,
// regardless of session state.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]EventSink
}

func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]EventSink)}
}

// Subscribe registers the sink for a connection id, replacing any
// previous sink for that id.
func (r *Registry) Subscribe(connectionID string, sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[connectionID] = sink
}

// Unsubscribe drops the sink for a connection id. Absent ids are a
// no-op.
func (r *Registry) Unsubscribe(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, connectionID)
}

// Get resolves the sink for one connection id.
func (r *Registry) Get(connectionID string) (EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sinks[connectionID]
	return sink, ok
}

// Snapshot returns the current sinks. The copy keeps fan-out off the
// lock while events are consumed.
func (r *Registry) Snapshot() []EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]EventSink, 0, len(r.sinks))
	for _, sink := range r.sinks {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Count reports the number of connected clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
