// Package widget drives presented widgets through their shared
// lifecycle: ready, interacting, results, finished. Every timer is
// cancelable and guarded by a generation counter, so a late firing from
// a superseded phase can never move a widget backwards.
package widget

import (
	"sync"
	"time"

	"engagekit/pkg/logger"
	"engagekit/pkg/models"
)

// DefaultInteractionWindow applies when a widget resource carries no
// window of its own.
const DefaultInteractionWindow = 7 * time.Second

// DefaultGracePeriod is how long an interacted-with widget lingers on
// screen after its results phase before auto-dismissal.
const DefaultGracePeriod = 6 * time.Second

// VoteFinder looks up the local user's retained vote for a widget.
// Satisfied by *ledger.Ledger.
type VoteFinder interface {
	FindVote(widgetID string) (models.Vote, bool)
}

// Config carries a Controller's collaborators. Votes and Recorder are
// required for full behavior but nil values degrade gracefully.
type Config struct {
	Votes    VoteFinder
	Recorder *Recorder
	// Clock is injectable for tests; nil means time.Now.
	Clock func() time.Time
	// OnStateChange fires synchronously on every transition, with the
	// controller's lock held; it must not call back into the controller.
	OnStateChange func(widgetID string, state models.WidgetState)
	// OnDismiss fires exactly once, after the interaction record is
	// emitted.
	OnDismiss func(rec models.InteractionRecord)
	// CanComplete gates automatic progression out of the results phase.
	// nil means always allowed. When it returns false the widget stays
	// in results until Complete is called explicitly.
	CanComplete func(res models.WidgetResource, interacted bool) bool
	// GracePeriod overrides DefaultGracePeriod when positive.
	GracePeriod time.Duration
	// InteractionWindow overrides DefaultInteractionWindow for widgets
	// that carry no window of their own.
	InteractionWindow time.Duration
}

// Controller owns the lifecycle of one presented widget.
type Controller struct {
	mu  sync.Mutex
	res models.WidgetResource
	cfg Config

	state     models.WidgetState
	gen       int
	timer     *time.Timer
	dismissed bool

	displayedAt time.Time
	lastTapAt   time.Time
	taps        int
	interacted  bool

	vote    models.Vote
	hasVote bool
}

// NewController builds a controller in the ready state. Nothing happens
// until Present.
func NewController(res models.WidgetResource, cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &Controller{res: res, cfg: cfg, state: models.StateReady}
}

// Resource returns the widget resource this controller drives.
func (c *Controller) Resource() models.WidgetResource { return c.res }

// State returns the current lifecycle state.
func (c *Controller) State() models.WidgetState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Vote returns the local user's retained vote for this widget's earlier
// phase, resolved at Present time for follow-ups.
func (c *Controller) Vote() (models.Vote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vote, c.hasVote
}

// Present puts the widget on screen. First-phase widgets enter
// interacting with the interaction window ticking; follow-ups skip
// straight to results with the earlier vote resolved, so the UI can
// highlight the option the user picked.
func (c *Controller) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != models.StateReady {
		return
	}
	c.displayedAt = c.cfg.Clock()

	if c.res.FollowUpOf != "" {
		if c.cfg.Votes != nil {
			c.vote, c.hasVote = c.cfg.Votes.FindVote(c.res.FollowUpOf)
		}
		c.setState(models.StateResults)
		c.armTimer(c.cfg.GracePeriod, c.graceExpired)
		return
	}

	c.setState(models.StateInteracting)
	c.armTimer(c.interactionWindow(), c.windowExpired)
}

func (c *Controller) interactionWindow() time.Duration {
	if c.res.InteractionWindowSec > 0 {
		return time.Duration(c.res.InteractionWindowSec * float64(time.Second))
	}
	if c.cfg.InteractionWindow > 0 {
		return c.cfg.InteractionWindow
	}
	return DefaultInteractionWindow
}

// RecordInteraction notes a tap/vote/slide while interacting. Calls
// after the window closes are ignored.
func (c *Controller) RecordInteraction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != models.StateInteracting {
		return
	}
	c.interacted = true
	c.taps++
	c.lastTapAt = c.cfg.Clock()
}

// windowExpired moves interacting to the next phase when the interaction
// window closes. A widget nobody touched disappears immediately; alerts
// and interacted-with widgets get their results/grace time.
func (c *Controller) windowExpired(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.state != models.StateInteracting {
		c.mu.Unlock()
		return
	}
	if !c.interacted && c.res.Kind != models.WidgetAlert {
		c.mu.Unlock()
		c.Dismiss(models.DismissTimeout)
		return
	}
	c.setState(models.StateResults)
	c.armTimer(c.cfg.GracePeriod, c.graceExpired)
	c.mu.Unlock()
}

// graceExpired auto-completes the results phase unless the completion
// policy holds the widget open.
func (c *Controller) graceExpired(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.state != models.StateResults {
		c.mu.Unlock()
		return
	}
	if c.cfg.CanComplete != nil && !c.cfg.CanComplete(c.res, c.interacted) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.Complete()
}

// Complete finishes the widget from the results phase and dismisses it.
func (c *Controller) Complete() {
	c.mu.Lock()
	if c.state != models.StateResults {
		c.mu.Unlock()
		return
	}
	c.setState(models.StateFinished)
	c.mu.Unlock()
	c.Dismiss(models.DismissComplete)
}

// Dismiss takes the widget off screen for the given reason, from any
// state. Idempotent; exactly one interaction record is emitted.
func (c *Controller) Dismiss(reason models.DismissReason) {
	c.mu.Lock()
	if c.dismissed {
		c.mu.Unlock()
		return
	}
	c.dismissed = true
	c.cancelTimer()
	if c.state != models.StateFinished {
		c.setState(models.StateFinished)
	}
	now := c.cfg.Clock()
	rec := models.InteractionRecord{
		WidgetID:            c.res.ID,
		Kind:                c.res.Kind,
		Reason:              reason,
		TapCount:            c.taps,
		SecondsSinceDisplay: now.Sub(c.displayedAt).Seconds(),
	}
	if !c.lastTapAt.IsZero() {
		rec.SecondsSinceLastTap = now.Sub(c.lastTapAt).Seconds()
	}
	recorder := c.cfg.Recorder
	onDismiss := c.cfg.OnDismiss
	c.mu.Unlock()

	if recorder != nil {
		rec = recorder.Record(rec)
	}
	logger.Debug("widget_dismissed", "widget", c.res.ID, "reason", string(reason))
	if onDismiss != nil {
		onDismiss(rec)
	}
}

// setState transitions and notifies; callers hold c.mu.
func (c *Controller) setState(st models.WidgetState) {
	c.state = st
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(c.res.ID, st)
	}
}

// armTimer replaces any pending timer with one for the current
// generation; callers hold c.mu.
func (c *Controller) armTimer(d time.Duration, fire func(gen int)) {
	c.cancelTimer()
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(d, func() { fire(gen) })
}

func (c *Controller) cancelTimer() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
