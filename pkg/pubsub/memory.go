package pubsub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MemoryTransport is an in-process Transport used by tests and the demo
// runner. Published payloads loop straight back to the listener and are
// retained per channel for history fetches.
type MemoryTransport struct {
	mu       sync.Mutex
	listener Listener
	joined   map[string]struct{}
	history  map[string][][]byte
	actions  map[string][]MessageAction
	seq      uint64
	capPer   int
	closed   bool
}

// NewMemoryTransport builds a MemoryTransport delivering callbacks to l.
// historyCap bounds per-channel retention (<=0 means 200).
func NewMemoryTransport(l Listener, historyCap int) *MemoryTransport {
	if historyCap <= 0 {
		historyCap = 200
	}
	return &MemoryTransport{
		listener: l,
		joined:   make(map[string]struct{}),
		history:  make(map[string][][]byte),
		actions:  make(map[string][]MessageAction),
		capPer:   historyCap,
	}
}

func (t *MemoryTransport) Subscribe(channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("transport closed")
	}
	t.joined[channel] = struct{}{}
	return nil
}

func (t *MemoryTransport) Unsubscribe(channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.joined, channel)
	return nil
}

func (t *MemoryTransport) Publish(_ context.Context, channel string, payload []byte) (string, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", fmt.Errorf("transport closed")
	}
	cp := append([]byte(nil), payload...)
	hist := append(t.history[channel], cp)
	if len(hist) > t.capPer {
		hist = hist[len(hist)-t.capPer:]
	}
	t.history[channel] = hist
	_, subscribed := t.joined[channel]
	l := t.listener
	t.mu.Unlock()

	if subscribed && l != nil {
		l.OnMessage(channel, cp)
	}
	return t.nextID(), nil
}

func (t *MemoryTransport) FetchHistory(_ context.Context, channel, _, _ string, limit int) (HistoryPage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	hist := t.history[channel]
	if limit > 0 && len(hist) > limit {
		hist = hist[len(hist)-limit:]
	}
	page := HistoryPage{Payloads: make([][]byte, len(hist))}
	copy(page.Payloads, hist)
	return page, nil
}

func (t *MemoryTransport) SendMessageAction(_ context.Context, actionType, value, targetMessageID string) (string, error) {
	id := t.nextID()
	act := MessageAction{ID: id, Type: actionType, Value: value, TargetMessageID: targetMessageID}
	t.mu.Lock()
	t.actions[targetMessageID] = append(t.actions[targetMessageID], act)
	l := t.listener
	t.mu.Unlock()
	if l != nil {
		l.OnMessageAction(ActionEvent{Event: ActionAdded, Action: act})
	}
	return id, nil
}

func (t *MemoryTransport) RemoveMessageAction(_ context.Context, messageID, actionID string) error {
	t.mu.Lock()
	acts := t.actions[messageID]
	var removed *MessageAction
	for i, a := range acts {
		if a.ID == actionID {
			removed = &acts[i]
			t.actions[messageID] = append(acts[:i:i], acts[i+1:]...)
			break
		}
	}
	l := t.listener
	t.mu.Unlock()
	if removed == nil {
		return fmt.Errorf("action %s not found on message %s", actionID, messageID)
	}
	if l != nil {
		l.OnMessageAction(ActionEvent{Event: ActionRemoved, Action: *removed})
	}
	return nil
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *MemoryTransport) nextID() string {
	return fmt.Sprintf("m-%d", atomic.AddUint64(&t.seq, 1))
}
