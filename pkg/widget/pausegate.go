package widget

import (
	"sync"

	"engagekit/pkg/logger"
	"engagekit/pkg/models"
)

// PauseObserver is notified synchronously whenever the pause state
// flips.
type PauseObserver interface {
	PauseChanged(paused bool)
}

// PausePersister stores the permanent pause flag across restarts.
// Satisfied by *ledger.Ledger.
type PausePersister interface {
	SetPermanentPause(paused bool)
	PermanentPause() bool
}

// PauseGate suppresses widget presentation while paused. Widgets
// arriving during a pause are retained in arrival order and flushed on
// resume, not dropped; pausing loses no content. A permanent pause
// survives restarts via the persister.
type PauseGate struct {
	mu        sync.Mutex
	paused    bool
	held      []models.WidgetResource
	observers []PauseObserver
	present   func(res models.WidgetResource)
	persist   PausePersister
}

// NewPauseGate wires the gate in front of present. The initial pause
// state is restored from the persister when one is supplied.
func NewPauseGate(present func(res models.WidgetResource), persist PausePersister) *PauseGate {
	g := &PauseGate{present: present, persist: persist}
	if persist != nil && persist.PermanentPause() {
		g.paused = true
		logger.Info("pause_restored")
	}
	return g
}

// Paused reports the current pause state.
func (g *PauseGate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Offer presents res immediately, or retains it if paused.
func (g *PauseGate) Offer(res models.WidgetResource) {
	g.mu.Lock()
	if g.paused {
		g.held = append(g.held, res)
		g.mu.Unlock()
		logger.Debug("widget_held", "widget", res.ID)
		return
	}
	present := g.present
	g.mu.Unlock()
	if present != nil {
		present(res)
	}
}

// Pause suppresses presentation until Resume. Observers are notified
// synchronously before Pause returns.
func (g *PauseGate) Pause() { g.setPaused(true, false) }

// Resume re-enables presentation and flushes retained widgets in
// arrival order.
func (g *PauseGate) Resume() { g.setPaused(false, false) }

// SetPermanentPause applies the pause state and persists it so it
// survives restarts.
func (g *PauseGate) SetPermanentPause(paused bool) { g.setPaused(paused, true) }

func (g *PauseGate) setPaused(paused, persist bool) {
	g.mu.Lock()
	changed := g.paused != paused
	g.paused = paused
	var flush []models.WidgetResource
	if !paused && len(g.held) > 0 {
		flush = g.held
		g.held = nil
	}
	observers := append([]PauseObserver(nil), g.observers...)
	present := g.present
	g.mu.Unlock()

	if persist && g.persist != nil {
		g.persist.SetPermanentPause(paused)
	}
	if changed {
		logger.Info("pause_changed", "paused", paused)
		for _, o := range observers {
			o.PauseChanged(paused)
		}
	}
	if present != nil {
		for _, res := range flush {
			present(res)
		}
	}
}

// AddObserver registers o for pause notifications.
func (g *PauseGate) AddObserver(o PauseObserver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.observers {
		if existing == o {
			return
		}
	}
	g.observers = append(g.observers, o)
}

// RemoveObserver deregisters o.
func (g *PauseGate) RemoveObserver(o PauseObserver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, existing := range g.observers {
		if existing == o {
			g.observers = append(g.observers[:i:i], g.observers[i+1:]...)
			return
		}
	}
}

// HeldCount reports how many widgets await resume.
func (g *PauseGate) HeldCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}
