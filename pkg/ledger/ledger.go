// Package ledger remembers which option the local user chose for each
// widget. Records are durable (they must survive process restart so a
// follow-up widget can highlight the earlier choice) and expire after a
// configurable window.
//
// Persistence is deliberately fail-soft: a failed read or write is
// logged and degraded to a no-op. Losing a vote record means a follow-up
// renders without a highlighted option, which is acceptable; crashing
// the vote-casting flow is not.
package ledger

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"engagekit/pkg/logger"
	"engagekit/pkg/metrics"
	"engagekit/pkg/models"
	"engagekit/pkg/store"
)

const (
	votePrefix = "vote:"
	pausedKey  = "state:paused"
)

// DefaultExpiry is the retention window for vote records.
const DefaultExpiry = 24 * time.Hour

// Ledger is the durable vote store. Reads may run concurrently; writes
// are exclusive with everything else on the ledger.
type Ledger struct {
	mu sync.RWMutex
	st *store.Store
}

// New wraps an opened store and immediately sweeps records older than
// expiry, so a long-dormant install starts clean.
func New(st *store.Store, expiry time.Duration) *Ledger {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	l := &Ledger{st: st}
	n := l.SweepExpired(time.Now(), expiry)
	if n > 0 {
		logger.Info("vote_sweep_at_open", "removed", n)
	}
	return l
}

// AddVote durably persists v under its widget ID, overwriting any prior
// vote for the same widget. Persistence failures are logged and
// swallowed.
func (l *Ledger) AddVote(v models.Vote, widgetID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v.WidgetID = widgetID
	if v.CreatedAt == 0 {
		v.CreatedAt = time.Now().Unix()
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("vote_marshal_failed", "widget", widgetID, "error", err)
		metrics.LedgerIOFailures.Inc()
		return
	}
	if err := l.st.Set(votePrefix+widgetID, data); err != nil {
		logger.Error("vote_persist_failed", "widget", widgetID, "error", err)
		metrics.LedgerIOFailures.Inc()
		return
	}
	metrics.VotesPersisted.Inc()
}

// FindVote returns the retained vote for widgetID, if any.
func (l *Ledger) FindVote(widgetID string) (models.Vote, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.readVote(widgetID)
}

func (l *Ledger) readVote(widgetID string) (models.Vote, bool) {
	data, found, err := l.st.Get(votePrefix + widgetID)
	if err != nil {
		logger.Error("vote_read_failed", "widget", widgetID, "error", err)
		metrics.LedgerIOFailures.Inc()
		return models.Vote{}, false
	}
	if !found {
		return models.Vote{}, false
	}
	var v models.Vote
	if err := json.Unmarshal(data, &v); err != nil {
		logger.Error("vote_record_corrupt", "widget", widgetID, "error", err)
		metrics.LedgerIOFailures.Inc()
		return models.Vote{}, false
	}
	return v, true
}

// ClearVote removes and returns the vote for widgetID, if present.
func (l *Ledger) ClearVote(widgetID string) (models.Vote, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.readVote(widgetID)
	if !ok {
		return models.Vote{}, false
	}
	if err := l.st.Delete(votePrefix + widgetID); err != nil {
		logger.Error("vote_delete_failed", "widget", widgetID, "error", err)
		metrics.LedgerIOFailures.Inc()
		return models.Vote{}, false
	}
	return v, true
}

// ClearAll removes every retained vote.
func (l *Ledger) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	var keys []string
	err := l.st.ScanPrefix(votePrefix, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		logger.Error("vote_scan_failed", "error", err)
		metrics.LedgerIOFailures.Inc()
		return
	}
	for _, k := range keys {
		if err := l.st.Delete(k); err != nil {
			logger.Error("vote_delete_failed", "key", k, "error", err)
			metrics.LedgerIOFailures.Inc()
		}
	}
}

// SweepExpired removes every vote whose createdAt + period <= now and
// returns how many were removed. Invoked at construction; callers may
// also run it on a schedule (see Sweeper).
func (l *Ledger) SweepExpired(now time.Time, period time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := now.Add(-period).Unix()
	var expired []string
	err := l.st.ScanPrefix(votePrefix, func(key string, value []byte) error {
		var v models.Vote
		if json.Unmarshal(value, &v) != nil {
			// unreadable record: treat as expired
			expired = append(expired, key)
			return nil
		}
		if v.CreatedAt <= cutoff {
			expired = append(expired, key)
		}
		return nil
	})
	if err != nil {
		logger.Error("vote_sweep_scan_failed", "error", err)
		metrics.LedgerIOFailures.Inc()
		return 0
	}
	removed := 0
	for _, k := range expired {
		if err := l.st.Delete(k); err != nil {
			logger.Error("vote_sweep_delete_failed", "key", k, "error", err)
			metrics.LedgerIOFailures.Inc()
			continue
		}
		removed++
	}
	if removed > 0 {
		metrics.VotesSwept.Add(float64(removed))
		logger.Info("votes_swept", "removed", removed,
			"widgets", strings.Join(trimPrefixAll(expired[:removed]), ","))
	}
	return removed
}

func trimPrefixAll(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, votePrefix))
	}
	return out
}

// SetPermanentPause persists the "permanently paused" flag under its
// well-known key. Fail-soft like every other ledger write.
func (l *Ledger) SetPermanentPause(paused bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	val := []byte("0")
	if paused {
		val = []byte("1")
	}
	if err := l.st.Set(pausedKey, val); err != nil {
		logger.Error("pause_persist_failed", "error", err)
		metrics.LedgerIOFailures.Inc()
	}
}

// PermanentPause reports the persisted pause flag; absent reads false.
func (l *Ledger) PermanentPause() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, found, err := l.st.Get(pausedKey)
	if err != nil {
		logger.Error("pause_read_failed", "error", err)
		metrics.LedgerIOFailures.Inc()
		return false
	}
	return found && len(data) == 1 && data[0] == '1'
}
