package pubsub

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"

	"engagekit/pkg/metrics"
)

// ErrInboundFull is returned by TryEnqueue when the queue is at capacity.
var ErrInboundFull = errors.New("inbound queue full")

// ErrInboundClosed is returned when enqueueing after Close.
var ErrInboundClosed = errors.New("inbound queue closed")

const fallbackInboundCapacity = 1024

// maxPooledBuffer controls the largest payload buffer that will be
// returned to the pool. Larger buffers are dropped so a single huge
// payload does not pin resident memory.
var maxPooledBuffer = 256 * 1024 // 256 KiB

// SetMaxPooledBuffer overrides the pooled-buffer cap; values <= 0 are
// ignored. Call before any queue is in use.
func SetMaxPooledBuffer(n int) {
	if n > 0 {
		maxPooledBuffer = n
	}
}

// Raw is one opaque transport message awaiting decode. Payload may be
// backed by a pooled buffer; consumers must call Item.Done() when
// finished with it.
type Raw struct {
	Channel string
	Payload []byte
	// EnqSeq is a monotonic sequence assigned on accept, for
	// deterministic ordering diagnostics.
	EnqSeq uint64
}

// Item wraps a Raw and owns its pooled buffer. Done must be called
// exactly once after processing.
type Item struct {
	Raw *Raw

	buf  *bytebufferpool.ByteBuffer
	once sync.Once
}

// Done releases pooled resources back to their pools.
func (it *Item) Done() {
	it.once.Do(func() {
		if it.buf != nil {
			if cap(it.buf.B) <= maxPooledBuffer {
				bytebufferpool.Put(it.buf)
			}
			it.buf = nil
		}
		if it.Raw != nil {
			it.Raw.Payload = nil
			rawPool.Put(it.Raw)
			it.Raw = nil
		}
	})
}

var rawPool = sync.Pool{New: func() any { return &Raw{} }}

// Inbound is the bounded hand-off between the transport's callback lane
// and the decode worker. The transport delivers at-least-once; when the
// queue is full the message is counted and dropped rather than blocking
// the callback lane.
type Inbound struct {
	ch       chan *Item
	capacity int
	dropped  uint64
	enqSeq   uint64

	// mu excludes enqueues against close so the non-blocking send can
	// never race close(ch).
	mu     sync.RWMutex
	closed bool
}

// NewInbound creates a bounded inbound queue of the given capacity.
func NewInbound(capacity int) *Inbound {
	if capacity <= 0 {
		capacity = fallbackInboundCapacity
	}
	return &Inbound{ch: make(chan *Item, capacity), capacity: capacity}
}

// TryEnqueue copies payload into a pooled buffer and enqueues it without
// blocking. Returns ErrInboundFull when at capacity.
func (q *Inbound) TryEnqueue(channel string, payload []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrInboundClosed
	}

	raw := rawPool.Get().(*Raw)
	raw.Channel = channel
	raw.EnqSeq = atomic.AddUint64(&q.enqSeq, 1)

	var bb *bytebufferpool.ByteBuffer
	if len(payload) > 0 {
		bb = bytebufferpool.Get()
		bb.B = append(bb.B[:0], payload...)
		raw.Payload = bb.B[:len(payload)]
	} else {
		raw.Payload = nil
	}

	it := &Item{Raw: raw, buf: bb}
	select {
	case q.ch <- it:
		return nil
	default:
		it.Done()
		atomic.AddUint64(&q.dropped, 1)
		metrics.InboundDropped.Inc()
		return ErrInboundFull
	}
}

// RunWorker dequeues items and calls handler for each, guaranteeing
// Item.Done(). Exits when stop closes or the queue closes.
func (q *Inbound) RunWorker(stop <-chan struct{}, handler func(*Raw)) {
	for {
		select {
		case it, ok := <-q.ch:
			if !ok {
				return
			}
			func(it *Item) {
				defer it.Done()
				handler(it.Raw)
			}(it)
		case <-stop:
			return
		}
	}
}

// CloseAndDrain closes the queue and releases any remaining items.
func (q *Inbound) CloseAndDrain() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	for it := range q.ch {
		it.Done()
	}
}

// Len returns the current queue depth.
func (q *Inbound) Len() int { return len(q.ch) }

// Cap returns the configured capacity.
func (q *Inbound) Cap() int { return q.capacity }

// Dropped returns how many messages were rejected due to a full queue.
func (q *Inbound) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }
