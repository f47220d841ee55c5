// Package metrics registers the Prometheus collectors for the delivery
// pipeline and the vote ledger. Collectors are package-level and
// registered once via promauto; the app exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsDecoded counts successfully decoded transport events by kind.
	EventsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagekit_events_decoded_total",
		Help: "Transport events decoded, labeled by event kind.",
	}, []string{"kind"})

	// DecodeFailures counts payloads rejected by the decoding stage.
	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagekit_decode_failures_total",
		Help: "Transport payloads that failed decoding.",
	})

	// MessagesBuffered counts chat messages held back by the sync gate.
	MessagesBuffered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagekit_messages_buffered_total",
		Help: "Chat messages enqueued in the sync buffer.",
	})

	// MessagesReleased counts chat messages forwarded downstream.
	MessagesReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagekit_messages_released_total",
		Help: "Chat messages released downstream by the sync gate.",
	})

	// MessagesDeduped counts duplicate publishes dropped by the buffer.
	MessagesDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagekit_messages_deduped_total",
		Help: "Duplicate chat messages dropped before buffering.",
	})

	// BufferDepth tracks the current sync buffer length.
	BufferDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engagekit_sync_buffer_depth",
		Help: "Messages currently held in the sync buffer.",
	})

	// DispatchDepth tracks the serial delivery lane backlog.
	DispatchDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engagekit_dispatch_depth",
		Help: "Jobs waiting on the serial delivery lane.",
	})

	// InboundDropped counts raw transport messages dropped by the
	// bounded inbound queue.
	InboundDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagekit_inbound_dropped_total",
		Help: "Raw transport messages dropped due to a full inbound queue.",
	})

	// Subscribers tracks registered channel subscribers.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engagekit_channel_subscribers",
		Help: "Subscriber handles currently registered across channels.",
	})

	// VotesPersisted counts votes durably written to the ledger.
	VotesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagekit_votes_persisted_total",
		Help: "Votes written to the durable ledger.",
	})

	// VotesSwept counts votes removed by expiry sweeps.
	VotesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagekit_votes_swept_total",
		Help: "Votes removed by expiry sweeps.",
	})

	// LedgerIOFailures counts swallowed ledger persistence errors.
	LedgerIOFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagekit_ledger_io_failures_total",
		Help: "Ledger reads/writes that failed and were degraded to no-ops.",
	})

	// WidgetsDismissed counts widget dismissals by reason.
	WidgetsDismissed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagekit_widgets_dismissed_total",
		Help: "Widget dismissals, labeled by reason.",
	}, []string{"reason"})
)
