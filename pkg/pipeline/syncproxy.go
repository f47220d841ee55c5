package pipeline

import (
	"sort"
	"time"

	"engagekit/pkg/logger"
	"engagekit/pkg/metrics"
	"engagekit/pkg/models"
	"engagekit/pkg/timeline"
)

const (
	// DefaultReleaseCacheCap bounds the cache of already-released
	// messages kept for the empty-history fallback.
	DefaultReleaseCacheCap = 500

	// DefaultTickInterval is how often buffered messages are re-examined
	// against the playback position.
	DefaultTickInterval = 200 * time.Millisecond
)

// SyncProxy holds back messages whose scheduled timeline position lies
// ahead of the caller-supplied playhead, releasing them in arrival order
// once the playhead catches up.
//
// Release is FIFO from the head only: a message deep in the buffer never
// jumps an earlier, not-yet-eligible one, which keeps spoiler-free
// ordering for replayed streams. The gate fails open when no playhead is
// available; held messages are never silently lost.
//
// All methods must run on the serial dispatch lane. The periodic tick is
// scheduled onto that same lane, so the proxy carries no locks.
type SyncProxy struct {
	Forwarder

	playhead timeline.PlayheadFunc
	sched    Scheduler

	buf  []models.ChatMessage
	seen map[string]struct{}

	cache    []models.ChatMessage
	cacheCap int

	interval time.Duration
	stop     chan struct{}
	stopped  bool
}

// SyncOptions tunes a SyncProxy. Zero values select the defaults.
type SyncOptions struct {
	CacheCap     int
	TickInterval time.Duration
}

// NewSyncProxy builds the gate in front of next. playhead may be nil,
// in which case every message is released immediately.
func NewSyncProxy(next Stage, playhead timeline.PlayheadFunc, opts SyncOptions) *SyncProxy {
	if opts.CacheCap <= 0 {
		opts.CacheCap = DefaultReleaseCacheCap
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	return &SyncProxy{
		Forwarder: Forwarder{Next: next},
		playhead:  playhead,
		seen:      make(map[string]struct{}),
		cacheCap:  opts.CacheCap,
		interval:  opts.TickInterval,
		stop:      make(chan struct{}),
	}
}

// Start begins the periodic eviction tick, scheduling each tick onto
// sched so it runs on the same lane as the publish methods.
func (s *SyncProxy) Start(sched Scheduler) {
	s.sched = sched
	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if !sched.Submit(s.Tick) {
					return
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop cancels the tick goroutine. Buffered messages stay buffered;
// callers may still drive Tick manually.
func (s *SyncProxy) Stop() {
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
}

// PublishHistory forwards the eligible slice of a history page and
// buffers the rest. When nothing in the page is eligible yet the
// subscriber would otherwise render an empty room, so the most recently
// released messages are replayed from the cache instead, oldest first.
func (s *SyncProxy) PublishHistory(channel string, msgs []models.ChatMessage) {
	eligible := s.partition(msgs)
	if len(eligible) == 0 && len(msgs) > 0 {
		eligible = s.cachedFor(channel, len(msgs))
	}
	s.Forwarder.PublishHistory(channel, eligible)
}

// PublishNewest forwards the eligible slice of a newest-page fetch and
// buffers the rest. No cache fallback here: an empty newest page is a
// normal answer for a channel whose traffic is all scheduled ahead.
func (s *SyncProxy) PublishNewest(channel string, msgs []models.ChatMessage) {
	s.Forwarder.PublishNewest(channel, s.partition(msgs))
}

// PublishNew releases or buffers one live message. Duplicates of a
// buffered message are dropped. The sender's own messages, unscheduled
// messages and anything arriving while no playhead is available bypass
// the gate entirely.
func (s *SyncProxy) PublishNew(msg models.ChatMessage) {
	if _, dup := s.seen[msg.ID]; dup {
		metrics.MessagesDeduped.Inc()
		return
	}
	if msg.Sender.IsLocalUser || msg.ScheduledTS == 0 {
		s.release(msg)
		return
	}
	pos, ok := timeline.Position(s.playhead)
	if !ok || msg.ScheduledTS <= pos {
		s.release(msg)
		return
	}
	s.buffer(msg)
}

// DeleteMessage drops any buffered copy and always forwards; deletions
// are never gated, a retracted message must disappear everywhere.
func (s *SyncProxy) DeleteMessage(channel, messageID string) {
	if _, held := s.seen[messageID]; held {
		for i := range s.buf {
			if s.buf[i].ID == messageID {
				s.buf = append(s.buf[:i], s.buf[i+1:]...)
				break
			}
		}
		delete(s.seen, messageID)
		metrics.BufferDepth.Set(float64(len(s.buf)))
	}
	s.Forwarder.DeleteMessage(channel, messageID)
}

// Updates pass through ungated via the embedded Forwarder: an edit to a
// still-buffered message will surface when the original releases, and an
// edit to a released message must not be delayed.

// Tick examines the buffer head and releases it when eligible. At most
// one message moves per tick, which bounds per-tick work and keeps
// release pacing tied to the tick interval; an eligible message behind
// an ineligible one waits its turn.
func (s *SyncProxy) Tick() {
	if len(s.buf) == 0 {
		return
	}
	head := s.buf[0]
	pos, ok := timeline.Position(s.playhead)
	if ok && head.ScheduledTS > pos {
		return
	}
	if !ok {
		logger.Debug("sync_gate_open", "reason", "timeline_unavailable", "msg", head.ID)
	}
	s.buf = s.buf[1:]
	delete(s.seen, head.ID)
	metrics.BufferDepth.Set(float64(len(s.buf)))
	s.release(head)
}

// Depth reports how many messages are currently held.
func (s *SyncProxy) Depth() int { return len(s.buf) }

// partition buffers the held portion of msgs and returns the eligible
// portion, preserving input order in both. Eligible messages enter the
// release cache, so a later all-gated page can still replay them.
// Messages already held in the buffer are skipped entirely; the
// buffered copy surfaces via Tick.
func (s *SyncProxy) partition(msgs []models.ChatMessage) []models.ChatMessage {
	pos, ok := timeline.Position(s.playhead)
	var eligible []models.ChatMessage
	for _, m := range msgs {
		if _, dup := s.seen[m.ID]; dup {
			metrics.MessagesDeduped.Inc()
			continue
		}
		if m.ScheduledTS == 0 || !ok || m.ScheduledTS <= pos {
			s.remember(m)
			eligible = append(eligible, m)
			continue
		}
		s.buffer(m)
	}
	return eligible
}

func (s *SyncProxy) buffer(msg models.ChatMessage) {
	s.buf = append(s.buf, msg)
	s.seen[msg.ID] = struct{}{}
	metrics.MessagesBuffered.Inc()
	metrics.BufferDepth.Set(float64(len(s.buf)))
}

func (s *SyncProxy) release(msg models.ChatMessage) {
	s.remember(msg)
	metrics.MessagesReleased.Inc()
	s.Forwarder.PublishNew(msg)
}

func (s *SyncProxy) remember(msg models.ChatMessage) {
	s.cache = append(s.cache, msg)
	if len(s.cache) > s.cacheCap {
		s.cache = s.cache[len(s.cache)-s.cacheCap:]
	}
}

// cachedFor returns up to limit of the most recently released messages
// for channel, sorted ascending by creation time.
func (s *SyncProxy) cachedFor(channel string, limit int) []models.ChatMessage {
	var out []models.ChatMessage
	for i := len(s.cache) - 1; i >= 0 && len(out) < limit; i-- {
		if s.cache[i].RoomID == channel {
			out = append(out, s.cache[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}
