package pubsub

import (
	"sync"

	"engagekit/pkg/event"
	"engagekit/pkg/metrics"
)

// Subscriber is a handle registered against one or more channels.
// Handles are held by strong reference; callers must Unsubscribe on
// teardown, that is the only removal path.
type Subscriber interface {
	HandleEvent(channel string, ev event.Event)
	HandleError(channel string, err error)
	HandleStatus(status Status)
}

// Registry is the thread-safe multimap from channel name to subscriber
// handles. It is the only component allowed to mutate subscriber lists.
// Writes are exclusive; reads may run concurrently with other reads and
// never observe a half-mutated set.
type Registry struct {
	mu       sync.RWMutex
	channels map[string][]Subscriber
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string][]Subscriber)}
}

// Subscribe adds sub to channel's set if not already present
// (idempotent). Returns true when sub is the channel's first subscriber;
// the caller is then responsible for telling the transport to join.
func (r *Registry) Subscribe(sub Subscriber, channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.channels[channel]
	for _, s := range subs {
		if s == sub {
			return false
		}
	}
	r.channels[channel] = append(subs, sub)
	metrics.Subscribers.Inc()
	return len(subs) == 0
}

// Unsubscribe removes sub from channel. Returns true when the channel's
// set became empty; the caller is then responsible for telling the
// transport to leave.
func (r *Registry) Unsubscribe(sub Subscriber, channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.channels[channel]
	for i, s := range subs {
		if s == sub {
			r.channels[channel] = append(subs[:i:i], subs[i+1:]...)
			metrics.Subscribers.Dec()
			break
		}
	}
	if len(r.channels[channel]) == 0 {
		delete(r.channels, channel)
		return true
	}
	return false
}

// Publish fans ev out to channel's current subscribers in insertion
// order. An empty channel broadcasts to every subscriber of every
// channel (used for connection-status style events). Absent channels
// read as empty; Publish cannot fail.
func (r *Registry) Publish(channel string, ev event.Event) {
	for _, s := range r.snapshot(channel) {
		s.HandleEvent(channel, ev)
	}
}

// PublishError surfaces a recoverable error (decode failures, transport
// errors) to channel's subscribers without halting delivery.
func (r *Registry) PublishError(channel string, err error) {
	for _, s := range r.snapshot(channel) {
		s.HandleError(channel, err)
	}
}

// PublishStatus broadcasts a connection status change to every
// subscriber of every channel.
func (r *Registry) PublishStatus(status Status) {
	for _, s := range r.snapshot("") {
		s.HandleStatus(status)
	}
}

// IsEmpty reports whether channel has no subscribers.
func (r *Registry) IsEmpty(channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel]) == 0
}

// snapshot copies the target subscriber list under the read lock so
// fan-out callbacks run without holding it. channel=="" collects every
// subscriber once, in per-channel insertion order.
func (r *Registry) snapshot(channel string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if channel != "" {
		return append([]Subscriber(nil), r.channels[channel]...)
	}
	var out []Subscriber
	seen := make(map[Subscriber]struct{})
	for _, subs := range r.channels {
		for _, s := range subs {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
