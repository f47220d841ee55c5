package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"engagekit/pkg/models"
	"engagekit/pkg/store"
)

func openLedger(t *testing.T, expiry time.Duration) *Ledger {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "votes"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, expiry)
}

func TestAddAndFindVote(t *testing.T) {
	l := openLedger(t, time.Hour)

	l.AddVote(models.Vote{OptionID: "opt-2", ClaimURL: "https://claims/x"}, "w1")

	v, ok := l.FindVote("w1")
	if !ok {
		t.Fatalf("vote not found")
	}
	if v.WidgetID != "w1" || v.OptionID != "opt-2" || v.ClaimURL != "https://claims/x" {
		t.Fatalf("wrong vote back: %+v", v)
	}
	if v.CreatedAt == 0 {
		t.Fatalf("created timestamp not stamped")
	}
}

func TestAddVoteOverwritesPriorChoice(t *testing.T) {
	l := openLedger(t, time.Hour)

	l.AddVote(models.Vote{OptionID: "first"}, "w1")
	l.AddVote(models.Vote{OptionID: "second"}, "w1")

	v, ok := l.FindVote("w1")
	if !ok || v.OptionID != "second" {
		t.Fatalf("overwrite failed: %+v ok=%v", v, ok)
	}
}

func TestFindVoteMissingWidget(t *testing.T) {
	l := openLedger(t, time.Hour)
	if _, ok := l.FindVote("nope"); ok {
		t.Fatalf("found vote that was never cast")
	}
}

func TestClearVoteReturnsRemovedValue(t *testing.T) {
	l := openLedger(t, time.Hour)
	l.AddVote(models.Vote{OptionID: "a"}, "w1")

	v, ok := l.ClearVote("w1")
	if !ok || v.OptionID != "a" {
		t.Fatalf("clear returned %+v ok=%v", v, ok)
	}
	if _, ok := l.FindVote("w1"); ok {
		t.Fatalf("vote survived clear")
	}
	if _, ok := l.ClearVote("w1"); ok {
		t.Fatalf("second clear reported a removal")
	}
}

func TestClearAll(t *testing.T) {
	l := openLedger(t, time.Hour)
	l.AddVote(models.Vote{OptionID: "a"}, "w1")
	l.AddVote(models.Vote{OptionID: "b"}, "w2")

	l.ClearAll()
	if _, ok := l.FindVote("w1"); ok {
		t.Fatalf("w1 survived ClearAll")
	}
	if _, ok := l.FindVote("w2"); ok {
		t.Fatalf("w2 survived ClearAll")
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	l := openLedger(t, time.Hour)
	now := time.Now()

	l.AddVote(models.Vote{OptionID: "old", CreatedAt: now.Add(-48 * time.Hour).Unix()}, "stale")
	l.AddVote(models.Vote{OptionID: "new", CreatedAt: now.Unix()}, "fresh")

	removed := l.SweepExpired(now, 24*time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := l.FindVote("stale"); ok {
		t.Fatalf("expired vote survived sweep")
	}
	if _, ok := l.FindVote("fresh"); !ok {
		t.Fatalf("fresh vote swept")
	}
}

func TestSweepAtConstruction(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "votes")
	st, err := store.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	l := New(st, time.Hour)
	l.AddVote(models.Vote{OptionID: "a", CreatedAt: time.Now().Add(-2 * time.Hour).Unix()}, "w1")
	st.Close()

	st2, err := store.Open(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer st2.Close()
	l2 := New(st2, time.Hour)
	if _, ok := l2.FindVote("w1"); ok {
		t.Fatalf("expired vote survived reopen sweep")
	}
}

func TestPermanentPauseRoundTrip(t *testing.T) {
	l := openLedger(t, time.Hour)
	if l.PermanentPause() {
		t.Fatalf("pause set on fresh ledger")
	}
	l.SetPermanentPause(true)
	if !l.PermanentPause() {
		t.Fatalf("pause flag lost")
	}
	l.SetPermanentPause(false)
	if l.PermanentPause() {
		t.Fatalf("pause flag stuck")
	}
}
