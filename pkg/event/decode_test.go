package event

import (
	"errors"
	"testing"

	"engagekit/pkg/models"
)

func TestDecodeChatMessageCreated(t *testing.T) {
	raw, err := Encode(KindChatMessageCreated, models.ChatMessage{
		ID: "m1", RoomID: "room", Body: "hi", ScheduledTS: 1200,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	ev, err := Decode(raw, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	created, ok := ev.(ChatMessageCreated)
	if !ok {
		t.Fatalf("wrong type %T", ev)
	}
	if created.Message.ID != "m1" || created.Message.ScheduledTS != 1200 {
		t.Fatalf("fields lost: %+v", created.Message)
	}
	if ev.Channel() != "room" {
		t.Fatalf("channel %q", ev.Channel())
	}
}

func TestDecodeFillsChannelFromHint(t *testing.T) {
	raw, _ := Encode(KindChatMessageCreated, models.ChatMessage{ID: "m1"})
	ev, err := Decode(raw, "hinted")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Channel() != "hinted" {
		t.Fatalf("hint not applied: %q", ev.Channel())
	}
}

func TestDecodeWidgetCreatedInfersKind(t *testing.T) {
	raw, _ := Encode(KindTextQuizCreated, models.WidgetResource{ID: "w1", Channel: "room"})
	ev, err := Decode(raw, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	w, ok := ev.(WidgetCreated)
	if !ok {
		t.Fatalf("wrong type %T", ev)
	}
	if w.Widget.Kind != models.WidgetTextQuiz {
		t.Fatalf("kind not inferred: %q", w.Widget.Kind)
	}
	if w.Kind() != KindTextQuizCreated {
		t.Fatalf("event kind %q", w.Kind())
	}
}

func TestDecodeDeleted(t *testing.T) {
	raw, _ := Encode(KindChatMessageDeleted, map[string]string{"id": "m9", "room_id": "room"})
	ev, err := Decode(raw, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	del, ok := ev.(ChatMessageDeleted)
	if !ok || del.MessageID != "m9" || del.Room != "room" {
		t.Fatalf("bad delete event: %+v", ev)
	}
}

func TestDecodeResults(t *testing.T) {
	raw, _ := Encode(KindPredictionResults, map[string]any{
		"widget_id": "w1",
		"room_id":   "room",
		"options":   []models.WidgetOption{{ID: "a", VoteCount: 7}},
	})
	ev, err := Decode(raw, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res, ok := ev.(Results)
	if !ok || res.WidgetID != "w1" || len(res.Options) != 1 || res.Options[0].VoteCount != 7 {
		t.Fatalf("bad results event: %+v", ev)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	raw, _ := Encode(Kind("mystery-event"), map[string]string{})
	_, err := Decode(raw, "")
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDecodeMissingDiscriminator(t *testing.T) {
	if _, err := Decode([]byte(`{"payload":{}}`), ""); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDecodeMalformedBody(t *testing.T) {
	_, err := Decode([]byte(`{"event":"message-created","payload":{"id":123}}`), "")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.EventKind != KindChatMessageCreated {
		t.Fatalf("wrong kind in error: %s", de.EventKind)
	}
}

func TestDecodeMissingID(t *testing.T) {
	raw, _ := Encode(KindChatMessageCreated, models.ChatMessage{RoomID: "room"})
	_, err := Decode(raw, "")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError for missing id, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json"), ""); err == nil {
		t.Fatalf("garbage decoded without error")
	}
}
