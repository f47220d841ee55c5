package pipeline

import (
	"sync"

	"engagekit/pkg/logger"
	"engagekit/pkg/metrics"
)

// Scheduler accepts work for the serial delivery lane.
type Scheduler interface {
	// Submit queues fn; returns false if the lane has shut down.
	Submit(fn func()) bool
}

const defaultDispatchCapacity = 4096

// Dispatcher is the serial delivery lane. All pipeline traffic and all
// integrator callbacks run on its single goroutine, which is what lets
// the stages stay lock-free.
type Dispatcher struct {
	mu     sync.Mutex
	jobs   chan func()
	closed bool
	done   chan struct{}
}

// NewDispatcher starts the lane goroutine. capacity <= 0 selects the
// default backlog.
func NewDispatcher(capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = defaultDispatchCapacity
	}
	d := &Dispatcher{jobs: make(chan func(), capacity), done: make(chan struct{})}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for fn := range d.jobs {
		metrics.DispatchDepth.Dec()
		d.invoke(fn)
	}
}

// invoke isolates panics so one bad callback cannot kill the lane.
func (d *Dispatcher) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatch_job_panic", "panic", r)
		}
	}()
	fn()
}

// Submit queues fn onto the lane in call order. Blocks when the backlog
// is full so upstream producers see backpressure rather than reordering.
// Returns false once the lane has shut down.
func (d *Dispatcher) Submit(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	metrics.DispatchDepth.Inc()
	d.jobs <- fn
	return true
}

// Close stops accepting work, lets queued jobs finish and waits for the
// lane goroutine to exit. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	<-d.done
}

// Len reports the current backlog.
func (d *Dispatcher) Len() int { return len(d.jobs) }
