// workqueue/workqueue.go
package workqueue

import (
	"context"
	"sync/atomic"
)

// Work is one deferrable job. A Work that is already pending is not queued
// again; it runs once for any number of submissions made before it starts.
type Work struct {
	Handler func(*Work)

	pending atomic.Bool
}

// Pending reports whether w is queued and has not started yet.
func (w *Work) Pending() bool { return w.pending.Load() }

// Queue is a shared, single-goroutine work queue. Submit is safe from
// interrupt context: it never blocks.
type Queue struct {
	q       chan *Work
	stopped chan struct{}

	drops uint32
}

func New(size int) *Queue {
	if size <= 0 {
		size = 16
	}
	return &Queue{
		q:       make(chan *Work, size),
		stopped: make(chan struct{}),
	}
}

func (q *Queue) Start(ctx context.Context) {
	go func() {
		defer close(q.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case w := <-q.q:
				// Cleared before running so the handler's own events can resubmit.
				w.pending.Store(false)
				if w.Handler != nil {
					w.Handler(w)
				}
			}
		}
	}()
}

// Submit queues w unless it is already pending. It returns false only when
// the queue is full and the work was dropped.
func (q *Queue) Submit(w *Work) bool {
	if !w.pending.CompareAndSwap(false, true) {
		return true
	}
	select {
	case q.q <- w:
		return true
	default:
		w.pending.Store(false)
		atomic.AddUint32(&q.drops, 1)
		return false
	}
}

// Stopped is closed once the queue goroutine has exited.
func (q *Queue) Stopped() <-chan struct{} { return q.stopped }

func (q *Queue) Drops() uint32 { return atomic.LoadUint32(&q.drops) }
