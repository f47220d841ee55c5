package pipeline

import (
	"testing"

	"engagekit/pkg/models"
)

type capture struct {
	newMsgs []models.ChatMessage
	history [][]models.ChatMessage
	newest  [][]models.ChatMessage
	deleted []string
}

func newCapture() (*capture, *Callbacks) {
	c := &capture{}
	cb := &Callbacks{
		OnNewMessage:      func(m models.ChatMessage) { c.newMsgs = append(c.newMsgs, m) },
		OnHistoryMessages: func(_ string, ms []models.ChatMessage) { c.history = append(c.history, ms) },
		OnNewestMessages:  func(_ string, ms []models.ChatMessage) { c.newest = append(c.newest, ms) },
		OnMessageDeleted:  func(_, id string) { c.deleted = append(c.deleted, id) },
	}
	return c, cb
}

func msg(id string, scheduled int64) models.ChatMessage {
	return models.ChatMessage{ID: id, RoomID: "room", ScheduledTS: scheduled, CreatedAt: scheduled}
}

func TestUnscheduledMessageReleasesImmediately(t *testing.T) {
	got, cb := newCapture()
	pos := int64(0)
	p := NewSyncProxy(cb, func() (int64, bool) { return pos, true }, SyncOptions{})

	p.PublishNew(msg("m1", 0))
	if len(got.newMsgs) != 1 || got.newMsgs[0].ID != "m1" {
		t.Fatalf("expected immediate release, got %v", got.newMsgs)
	}
}

func TestScheduledMessageWaitsForPlayhead(t *testing.T) {
	got, cb := newCapture()
	pos := int64(1000)
	p := NewSyncProxy(cb, func() (int64, bool) { return pos, true }, SyncOptions{})

	p.PublishNew(msg("m1", 5000))
	if len(got.newMsgs) != 0 {
		t.Fatalf("message released ahead of playhead: %v", got.newMsgs)
	}
	if p.Depth() != 1 {
		t.Fatalf("expected 1 buffered, got %d", p.Depth())
	}

	p.Tick()
	if len(got.newMsgs) != 0 {
		t.Fatalf("tick released message ahead of playhead")
	}

	pos = 5000
	p.Tick()
	if len(got.newMsgs) != 1 || got.newMsgs[0].ID != "m1" {
		t.Fatalf("expected release after playhead caught up, got %v", got.newMsgs)
	}
	if p.Depth() != 0 {
		t.Fatalf("buffer not drained")
	}
}

func TestHeadBlocksLaterEligibleMessage(t *testing.T) {
	got, cb := newCapture()
	pos := int64(0)
	p := NewSyncProxy(cb, func() (int64, bool) { return pos, true }, SyncOptions{})

	p.PublishNew(msg("late", 5000))
	p.PublishNew(msg("early", 1000))

	pos = 2000
	p.Tick()
	// "early" is eligible but sits behind "late"; nothing moves
	if len(got.newMsgs) != 0 {
		t.Fatalf("later message jumped the queue: %v", got.newMsgs)
	}

	pos = 5000
	p.Tick()
	// one tick moves one message: only the head
	if len(got.newMsgs) != 1 || got.newMsgs[0].ID != "late" {
		t.Fatalf("expected head only after first tick, got %v", got.newMsgs)
	}
	p.Tick()
	if len(got.newMsgs) != 2 {
		t.Fatalf("expected both released, got %d", len(got.newMsgs))
	}
	if got.newMsgs[0].ID != "late" || got.newMsgs[1].ID != "early" {
		t.Fatalf("arrival order violated: %s, %s", got.newMsgs[0].ID, got.newMsgs[1].ID)
	}
}

func TestDuplicateOfBufferedMessageDropped(t *testing.T) {
	got, cb := newCapture()
	p := NewSyncProxy(cb, func() (int64, bool) { return 0, true }, SyncOptions{})

	p.PublishNew(msg("m1", 5000))
	p.PublishNew(msg("m1", 5000))
	if p.Depth() != 1 {
		t.Fatalf("duplicate buffered, depth=%d", p.Depth())
	}
	if len(got.newMsgs) != 0 {
		t.Fatalf("duplicate released: %v", got.newMsgs)
	}
}

func TestLocalUserBypassesGate(t *testing.T) {
	got, cb := newCapture()
	p := NewSyncProxy(cb, func() (int64, bool) { return 0, true }, SyncOptions{})

	m := msg("mine", 99999)
	m.Sender = models.ChatUser{ID: "me", IsLocalUser: true}
	p.PublishNew(m)
	if len(got.newMsgs) != 1 {
		t.Fatalf("own message was gated")
	}
}

func TestGateFailsOpenWithoutTimeSource(t *testing.T) {
	got, cb := newCapture()
	p := NewSyncProxy(cb, nil, SyncOptions{})

	p.PublishNew(msg("m1", 99999))
	if len(got.newMsgs) != 1 {
		t.Fatalf("message gated with no time source")
	}
}

func TestBufferedMessagesDrainWhenTimeSourceLost(t *testing.T) {
	got, cb := newCapture()
	ok := true
	p := NewSyncProxy(cb, func() (int64, bool) { return 0, ok }, SyncOptions{})

	p.PublishNew(msg("m1", 5000))
	p.PublishNew(msg("m2", 6000))
	if p.Depth() != 2 {
		t.Fatalf("expected 2 buffered")
	}

	ok = false
	p.Tick()
	p.Tick()
	if len(got.newMsgs) != 2 || p.Depth() != 0 {
		t.Fatalf("expected fail-open drain, released=%d depth=%d", len(got.newMsgs), p.Depth())
	}
}

func TestPanickingTimeSourceFailsOpen(t *testing.T) {
	got, cb := newCapture()
	p := NewSyncProxy(cb, func() (int64, bool) { panic("broken clock") }, SyncOptions{})

	p.PublishNew(msg("m1", 5000))
	if len(got.newMsgs) != 1 {
		t.Fatalf("panicking time source stalled delivery")
	}
}

func TestHistoryPartitionsByEligibility(t *testing.T) {
	got, cb := newCapture()
	p := NewSyncProxy(cb, func() (int64, bool) { return 2000, true }, SyncOptions{})

	p.PublishHistory("room", []models.ChatMessage{
		msg("a", 1000), msg("b", 5000), msg("c", 0),
	})
	if len(got.history) != 1 {
		t.Fatalf("expected one history page, got %d", len(got.history))
	}
	page := got.history[0]
	if len(page) != 2 || page[0].ID != "a" || page[1].ID != "c" {
		t.Fatalf("wrong eligible set: %v", page)
	}
	if p.Depth() != 1 {
		t.Fatalf("ineligible message not buffered")
	}
}

func TestHistoryFallsBackToReleasedCache(t *testing.T) {
	got, cb := newCapture()
	pos := int64(10000)
	p := NewSyncProxy(cb, func() (int64, bool) { return pos, true }, SyncOptions{})

	// fill the release cache
	p.PublishNew(msg("r1", 1000))
	p.PublishNew(msg("r2", 2000))
	p.PublishNew(msg("r3", 3000))

	// a page where nothing is eligible yet
	pos = 0
	p.PublishHistory("room", []models.ChatMessage{msg("f1", 90000), msg("f2", 91000)})

	if len(got.history) != 1 {
		t.Fatalf("expected fallback page")
	}
	page := got.history[0]
	if len(page) != 2 {
		t.Fatalf("fallback should cap at page size, got %d", len(page))
	}
	if page[0].CreatedAt > page[1].CreatedAt {
		t.Fatalf("fallback not ascending by creation time")
	}
	if page[0].ID != "r2" || page[1].ID != "r3" {
		t.Fatalf("expected most recent cached messages, got %s,%s", page[0].ID, page[1].ID)
	}
}

func TestHistoryReleasesEnterCache(t *testing.T) {
	got, cb := newCapture()
	pos := int64(10000)
	p := NewSyncProxy(cb, func() (int64, bool) { return pos, true }, SyncOptions{})

	// an eligible history page must land in the release cache
	p.PublishHistory("room", []models.ChatMessage{msg("h1", 1000), msg("h2", 2000)})
	if len(got.history) != 1 || len(got.history[0]) != 2 {
		t.Fatalf("eligible page not forwarded: %v", got.history)
	}

	// playhead rewinds; a fully-gated page replays the cached releases
	pos = 0
	p.PublishHistory("room", []models.ChatMessage{msg("f1", 90000), msg("f2", 91000)})
	if len(got.history) != 2 {
		t.Fatalf("expected fallback page")
	}
	page := got.history[1]
	if len(page) != 2 || page[0].ID != "h1" || page[1].ID != "h2" {
		t.Fatalf("fallback should replay h1,h2; got %v", page)
	}
}

func TestHistoryDuplicateOfBufferedMessageNotForwarded(t *testing.T) {
	got, cb := newCapture()
	pos := int64(0)
	p := NewSyncProxy(cb, func() (int64, bool) { return pos, true }, SyncOptions{})

	p.PublishNew(msg("m1", 5000))
	if p.Depth() != 1 {
		t.Fatalf("expected m1 buffered")
	}

	// m1 becomes eligible while still buffered; the history copy must not
	// slip past the buffered one
	pos = 5000
	p.PublishHistory("room", []models.ChatMessage{msg("m1", 5000)})
	if len(got.history) != 1 || len(got.history[0]) != 0 {
		t.Fatalf("buffered duplicate forwarded through history: %v", got.history)
	}

	p.Tick()
	if len(got.newMsgs) != 1 || got.newMsgs[0].ID != "m1" {
		t.Fatalf("expected exactly one release of m1, got %v", got.newMsgs)
	}
}

func TestNewestHasNoFallback(t *testing.T) {
	got, cb := newCapture()
	p := NewSyncProxy(cb, func() (int64, bool) { return 0, true }, SyncOptions{})

	p.PublishNew(msg("r1", 0))
	p.PublishNewest("room", []models.ChatMessage{msg("f1", 90000)})

	if len(got.newest) != 1 || len(got.newest[0]) != 0 {
		t.Fatalf("newest page should be empty, got %v", got.newest)
	}
}

func TestDeleteRemovesBufferedCopyAndForwards(t *testing.T) {
	got, cb := newCapture()
	p := NewSyncProxy(cb, func() (int64, bool) { return 0, true }, SyncOptions{})

	p.PublishNew(msg("m1", 5000))
	p.DeleteMessage("room", "m1")

	if p.Depth() != 0 {
		t.Fatalf("buffered copy survived delete")
	}
	if len(got.deleted) != 1 || got.deleted[0] != "m1" {
		t.Fatalf("delete not forwarded: %v", got.deleted)
	}

	// the retracted message must not surface later
	p.Tick()
	if len(got.newMsgs) != 0 {
		t.Fatalf("deleted message released: %v", got.newMsgs)
	}
}

func TestReleaseCacheCapped(t *testing.T) {
	_, cb := newCapture()
	p := NewSyncProxy(cb, nil, SyncOptions{CacheCap: 3})

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		m := msg(id, 0)
		m.CreatedAt = int64(len(p.cache))
		p.PublishNew(m)
	}
	if len(p.cache) != 3 {
		t.Fatalf("cache cap not enforced, len=%d", len(p.cache))
	}
	if p.cache[0].ID != "c" {
		t.Fatalf("cache should keep most recent, oldest=%s", p.cache[0].ID)
	}
}
