package pubsub

import (
	"context"
	"testing"
)

type memListener struct {
	msgs    []string
	actions []ActionEvent
}

func (l *memListener) OnMessage(_ string, payload []byte) { l.msgs = append(l.msgs, string(payload)) }
func (l *memListener) OnMessageAction(ev ActionEvent)     { l.actions = append(l.actions, ev) }
func (l *memListener) OnStatusChange(Status)              {}

func TestMemoryTransportLoopsBackToSubscriber(t *testing.T) {
	l := &memListener{}
	tr := NewMemoryTransport(l, 10)

	if _, err := tr.Publish(context.Background(), "room", []byte("before")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(l.msgs) != 0 {
		t.Fatalf("delivered without subscription")
	}

	tr.Subscribe("room")
	if _, err := tr.Publish(context.Background(), "room", []byte("after")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(l.msgs) != 1 || l.msgs[0] != "after" {
		t.Fatalf("loopback msgs %v", l.msgs)
	}
}

func TestMemoryTransportHistory(t *testing.T) {
	tr := NewMemoryTransport(nil, 3)
	for _, p := range []string{"a", "b", "c", "d"} {
		tr.Publish(context.Background(), "room", []byte(p))
	}

	page, err := tr.FetchHistory(context.Background(), "room", "", "", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page.Payloads) != 3 {
		t.Fatalf("retention cap ignored: %d", len(page.Payloads))
	}
	if string(page.Payloads[0]) != "b" || string(page.Payloads[2]) != "d" {
		t.Fatalf("wrong window: %q..%q", page.Payloads[0], page.Payloads[2])
	}

	page, _ = tr.FetchHistory(context.Background(), "room", "", "", 2)
	if len(page.Payloads) != 2 || string(page.Payloads[0]) != "c" {
		t.Fatalf("limit window wrong: %d", len(page.Payloads))
	}
}

func TestMemoryTransportActions(t *testing.T) {
	l := &memListener{}
	tr := NewMemoryTransport(l, 10)

	id, err := tr.SendMessageAction(context.Background(), "reaction", "cheer", "m1")
	if err != nil {
		t.Fatalf("send action: %v", err)
	}
	if len(l.actions) != 1 || l.actions[0].Event != ActionAdded {
		t.Fatalf("add callback missing: %v", l.actions)
	}

	if err := tr.RemoveMessageAction(context.Background(), "m1", id); err != nil {
		t.Fatalf("remove action: %v", err)
	}
	if len(l.actions) != 2 || l.actions[1].Event != ActionRemoved {
		t.Fatalf("remove callback missing: %v", l.actions)
	}

	if err := tr.RemoveMessageAction(context.Background(), "m1", "ghost"); err == nil {
		t.Fatalf("removing absent action did not error")
	}
}

func TestMemoryTransportCloseRejectsPublish(t *testing.T) {
	tr := NewMemoryTransport(nil, 10)
	tr.Close()
	if _, err := tr.Publish(context.Background(), "room", []byte("x")); err == nil {
		t.Fatalf("publish accepted after close")
	}
}
