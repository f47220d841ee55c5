// Package app wires the SDK runtime: transport, decode worker, delivery
// chain, vote ledger, widget plumbing and the diagnostics listener.
// Everything is constructed here and handed its collaborators
// explicitly; no package holds process-global state besides the logger
// and metrics collectors.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"engagekit/pkg/config"
	"engagekit/pkg/event"
	"engagekit/pkg/ledger"
	"engagekit/pkg/logger"
	"engagekit/pkg/metrics"
	"engagekit/pkg/models"
	"engagekit/pkg/netclient"
	"engagekit/pkg/pipeline"
	"engagekit/pkg/pubsub"
	"engagekit/pkg/rewards"
	"engagekit/pkg/store"
	"engagekit/pkg/timeline"
	"engagekit/pkg/widget"
)

// Options carries the integrator-supplied pieces of a session.
type Options struct {
	// LocalUser identifies the device user. Messages they send bypass
	// the sync gate.
	LocalUser models.ChatUser
	// Playhead reports the external playback position; nil disables
	// synchronized release entirely.
	Playhead timeline.PlayheadFunc
	// Callbacks is the terminal end of the chat delivery chain.
	Callbacks pipeline.Callbacks
	// PresentWidget receives widgets cleared for presentation by the
	// pause gate. nil drops them.
	PresentWidget func(res models.WidgetResource)
	// OnMessageAction receives reaction add/remove events; integrators
	// apply them to the ReactionSet of the message they hold. nil drops
	// them.
	OnMessageAction func(ev pubsub.ActionEvent)

	Version string
}

// App is one running engagement session.
type App struct {
	cfg  *config.Config
	opts Options

	st        *store.Store
	ledger    *ledger.Ledger
	registry  *pubsub.Registry
	transport pubsub.Transport
	inbound   *pubsub.Inbound
	dispatch  *pipeline.Dispatcher
	chain     pipeline.Stage
	sync      *pipeline.SyncProxy
	rewards   *rewards.Index
	client    *netclient.Client
	pause     *widget.PauseGate
	recorder  *widget.Recorder

	srv         *http.Server
	stopSweeper func()
	stopInbound chan struct{}
}

// New builds a session: opens the ledger, assembles the delivery chain
// and connects the transport. Nothing moves until Run.
func New(cfg *config.Config, opts Options) (*App, error) {
	opts.LocalUser.IsLocalUser = true

	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger at %s: %w", cfg.Storage.DBPath, err)
	}

	a := &App{
		cfg:         cfg,
		opts:        opts,
		st:          st,
		ledger:      ledger.New(st, cfg.Votes.Expiry.Duration()),
		registry:    pubsub.NewRegistry(),
		rewards:     rewards.NewIndex(),
		recorder:    widget.NewRecorder(),
		stopInbound: make(chan struct{}),
	}

	a.client = netclient.New(netclient.Options{
		AuthToken:      cfg.Platform.AuthToken,
		Timeout:        cfg.Platform.Timeout.Duration(),
		RequestsPerSec: cfg.Platform.RequestsPerSec,
		Burst:          cfg.Platform.Burst,
	})

	a.dispatch = pipeline.NewDispatcher(0)
	cb := opts.Callbacks
	a.sync = pipeline.NewSyncProxy(&cb, opts.Playhead, pipeline.SyncOptions{
		CacheCap:     cfg.Sync.CacheCap,
		TickInterval: cfg.Sync.TickInterval.Duration(),
	})
	a.chain = pipeline.NewLogStage(a.sync)

	a.pause = widget.NewPauseGate(a.presentWidget, a.ledger)

	if cfg.Inbound.MaxPooledBufferBytes > 0 {
		pubsub.SetMaxPooledBuffer(int(cfg.Inbound.MaxPooledBufferBytes.Int64()))
	}
	a.inbound = pubsub.NewInbound(cfg.Inbound.Capacity)

	if err := a.openTransport(); err != nil {
		a.closeBase()
		return nil, err
	}
	return a, nil
}

func (a *App) openTransport() error {
	listener := &transportListener{a: a}
	switch a.cfg.Transport.Kind {
	case "", "memory":
		a.transport = pubsub.NewMemoryTransport(listener, a.cfg.Transport.Redis.HistoryCap)
		return nil
	case "redis":
		t, err := pubsub.NewRedisTransport(context.Background(), pubsub.RedisOptions{
			Addr:       a.cfg.Transport.Redis.Addr,
			Password:   a.cfg.Transport.Redis.Password,
			DB:         a.cfg.Transport.Redis.DB,
			HistoryCap: a.cfg.Transport.Redis.HistoryCap,
		}, listener)
		if err != nil {
			return fmt.Errorf("failed to connect transport: %w", err)
		}
		a.transport = t
		return nil
	}
	return fmt.Errorf("unknown transport kind %q", a.cfg.Transport.Kind)
}

// Run starts the background machinery and blocks until ctx is canceled
// or the diagnostics server fails.
func (a *App) Run(ctx context.Context) error {
	a.sync.Start(a.dispatch)
	stopSweep, err := ledger.StartSweeper(ctx, a.ledger, a.cfg.Votes.SweepCron, a.cfg.Votes.Expiry.Duration())
	if err != nil {
		logger.Warn("vote_sweeper_disabled", "error", err)
	} else {
		a.stopSweeper = stopSweep
	}
	go a.inbound.RunWorker(a.stopInbound, a.handleRaw)

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.Close()
		return nil
	case err := <-errCh:
		a.Close()
		return err
	}
}

// Close tears the session down in dependency order: stop intake, drain
// the lane, then release storage.
func (a *App) Close() {
	close(a.stopInbound)
	a.inbound.CloseAndDrain()
	a.sync.Stop()
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	if a.srv != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.srv.Shutdown(shutCtx)
		cancel()
	}
	if a.transport != nil {
		_ = a.transport.Close()
	}
	a.dispatch.Close()
	a.client.Close()
	a.closeBase()
	logger.Info("session_closed")
}

func (a *App) closeBase() {
	if a.st != nil {
		_ = a.st.Close()
		a.st = nil
	}
}

// Ledger exposes the vote ledger for integrator queries.
func (a *App) Ledger() *ledger.Ledger { return a.ledger }

// Rewards exposes the claim URL index.
func (a *App) Rewards() *rewards.Index { return a.rewards }

// PauseGate exposes presentation pause control.
func (a *App) PauseGate() *widget.PauseGate { return a.pause }

// JoinChannel registers sub for channel events and, for the channel's
// first subscriber, joins it on the transport and delivers the newest
// retained messages through the chain.
func (a *App) JoinChannel(ctx context.Context, channel string, sub pubsub.Subscriber) error {
	first := a.registry.Subscribe(sub, channel)
	if !first {
		return nil
	}
	if err := a.transport.Subscribe(channel); err != nil {
		a.registry.Unsubscribe(sub, channel)
		return fmt.Errorf("failed to join %s: %w", channel, err)
	}
	page, err := a.transport.FetchHistory(ctx, channel, "", "", 50)
	if err != nil {
		logger.Warn("newest_fetch_failed", "channel", channel, "error", err)
		return nil
	}
	msgs := a.decodeMessages(channel, page.Payloads)
	a.dispatch.Submit(func() { a.chain.PublishNewest(channel, msgs) })
	return nil
}

// LeaveChannel removes sub; the last subscriber leaving also leaves the
// channel on the transport.
func (a *App) LeaveChannel(channel string, sub pubsub.Subscriber) {
	if a.registry.Unsubscribe(sub, channel) {
		if err := a.transport.Unsubscribe(channel); err != nil {
			logger.Warn("transport_leave_failed", "channel", channel, "error", err)
		}
	}
}

// LoadHistory fetches up to limit retained messages for channel and
// delivers them as a history page through the chain.
func (a *App) LoadHistory(ctx context.Context, channel string, limit int) error {
	page, err := a.transport.FetchHistory(ctx, channel, "", "", limit)
	if err != nil {
		return fmt.Errorf("history fetch for %s failed: %w", channel, err)
	}
	msgs := a.decodeMessages(channel, page.Payloads)
	a.dispatch.Submit(func() { a.chain.PublishHistory(channel, msgs) })
	return nil
}

// SendMessage publishes a chat message from the local user. Own messages
// come back through the transport and bypass the sync gate.
func (a *App) SendMessage(ctx context.Context, channel, body string) (models.ChatMessage, error) {
	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		RoomID:    channel,
		Body:      body,
		Sender:    a.opts.LocalUser,
		CreatedAt: time.Now().UnixMilli(),
	}
	data, err := event.Encode(event.KindChatMessageCreated, msg)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if _, err := a.transport.Publish(ctx, channel, data); err != nil {
		return models.ChatMessage{}, fmt.Errorf("send failed: %w", err)
	}
	return msg, nil
}

// CastVote records the local user's choice in the durable ledger and
// submits it to the platform asynchronously. done may be nil.
func (a *App) CastVote(widgetID string, opt models.WidgetOption, done func(netclient.Result)) {
	claimURL, _ := a.rewards.Lookup(widgetID)
	a.ledger.AddVote(models.Vote{OptionID: opt.ID, ClaimURL: claimURL}, widgetID)
	if opt.VoteURL != "" {
		a.client.SubmitVote(opt.VoteURL, opt.ID, done)
	}
}

// AddReaction attaches a reaction to a message and returns the action ID
// needed to remove it later. The add comes back through the transport's
// action callback like anyone else's.
func (a *App) AddReaction(ctx context.Context, reactionID, messageID string) (string, error) {
	return a.transport.SendMessageAction(ctx, "reaction", reactionID, messageID)
}

// RemoveReaction detaches a previously added reaction.
func (a *App) RemoveReaction(ctx context.Context, messageID, actionID string) error {
	return a.transport.RemoveMessageAction(ctx, messageID, actionID)
}

// ClaimReward fires the claim request for widgetID's recorded claim URL.
func (a *App) ClaimReward(widgetID string, done func(netclient.Result)) error {
	url, ok := a.rewards.Lookup(widgetID)
	if !ok {
		return fmt.Errorf("no claim URL recorded for widget %s", widgetID)
	}
	a.client.ClaimReward(url, done)
	return nil
}

// NewWidgetController builds a lifecycle controller for res wired to
// this session's ledger, recorder and configured timing.
func (a *App) NewWidgetController(res models.WidgetResource, onState func(widgetID string, st models.WidgetState)) *widget.Controller {
	return widget.NewController(res, widget.Config{
		Votes:             a.ledger,
		Recorder:          a.recorder,
		OnStateChange:     onState,
		GracePeriod:       a.cfg.Widgets.GracePeriod.Duration(),
		InteractionWindow: a.cfg.Widgets.InteractionWindow.Duration(),
	})
}

func (a *App) presentWidget(res models.WidgetResource) {
	if a.opts.PresentWidget != nil {
		a.opts.PresentWidget(res)
	}
}

// handleRaw decodes one transport payload on the decode worker and
// schedules routing onto the serial lane. raw's payload is pooled and
// must not escape this call; Decode copies what it keeps.
func (a *App) handleRaw(raw *pubsub.Raw) {
	ev, err := event.Decode(raw.Payload, raw.Channel)
	if err != nil {
		metrics.DecodeFailures.Inc()
		logger.Warn("event_decode_failed", "channel", raw.Channel, "error", err)
		ch := raw.Channel
		a.dispatch.Submit(func() {
			a.registry.PublishError(ch, err)
			a.chain.PublishError(ch, err)
		})
		return
	}
	metrics.EventsDecoded.WithLabelValues(string(ev.Kind())).Inc()
	a.dispatch.Submit(func() { a.routeEvent(ev) })
}

// routeEvent runs on the serial lane.
func (a *App) routeEvent(ev event.Event) {
	a.registry.Publish(ev.Channel(), ev)

	switch e := ev.(type) {
	case event.ChatMessageCreated:
		msg := e.Message
		if strings.EqualFold(msg.Sender.ID, a.opts.LocalUser.ID) {
			msg.Sender.IsLocalUser = true
		}
		a.chain.PublishNew(msg)
	case event.ChatMessageUpdated:
		a.chain.PublishUpdate(e.Message)
	case event.ChatMessageDeleted:
		a.chain.DeleteMessage(e.Room, e.MessageID)
	case event.WidgetCreated:
		a.rewards.Record(e.Widget.ID, e.Widget.RewardsURL)
		// a follow-up only makes sense to someone who voted in the
		// earlier phase; without a retained vote it never shows
		if e.Widget.FollowUpOf != "" {
			if _, voted := a.ledger.FindVote(e.Widget.FollowUpOf); !voted {
				logger.Debug("follow_up_suppressed",
					"widget", e.Widget.ID, "follow_up_of", e.Widget.FollowUpOf)
				return
			}
		}
		a.pause.Offer(e.Widget)
	case event.Results:
		// registry fan-out above is the whole delivery; widget
		// controllers subscribe for the widgets they drive
	}
}

// handleAction runs on the serial lane. Reaction state lives on the
// messages the integrator holds; the session only surfaces the event.
func (a *App) handleAction(actEv pubsub.ActionEvent) {
	logger.Debug("message_action",
		"event", string(actEv.Event),
		"action", actEv.Action.ID,
		"target", actEv.Action.TargetMessageID)
	if a.opts.OnMessageAction != nil {
		a.opts.OnMessageAction(actEv)
	}
}

func (a *App) decodeMessages(channel string, payloads [][]byte) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(payloads))
	for _, p := range payloads {
		ev, err := event.Decode(p, channel)
		if err != nil {
			metrics.DecodeFailures.Inc()
			logger.Debug("history_payload_skipped", "channel", channel, "error", err)
			continue
		}
		switch e := ev.(type) {
		case event.ChatMessageCreated:
			msg := e.Message
			if strings.EqualFold(msg.Sender.ID, a.opts.LocalUser.ID) {
				msg.Sender.IsLocalUser = true
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// transportListener bridges transport push callbacks into the bounded
// inbound queue. It must never block.
type transportListener struct {
	a *App
}

func (l *transportListener) OnMessage(channel string, payload []byte) {
	if err := l.a.inbound.TryEnqueue(channel, payload); err != nil {
		logger.Warn("inbound_enqueue_failed", "channel", channel, "error", err)
	}
}

func (l *transportListener) OnMessageAction(ev pubsub.ActionEvent) {
	l.a.dispatch.Submit(func() { l.a.handleAction(ev) })
}

func (l *transportListener) OnStatusChange(st pubsub.Status) {
	logger.Info("transport_status", "status", string(st))
	l.a.dispatch.Submit(func() { l.a.registry.PublishStatus(st) })
}
