package tmp007

import (
	"context"
	"sync"

	"tmp007-go/workqueue"
)

// Deferral moves interrupt handling out of interrupt context.
// Start binds the deferred handler once; Schedule must never block.
type Deferral interface {
	Start(ctx context.Context, fn func())
	Schedule()
}

// OwnWorker runs the deferred handler on a dedicated goroutine gated by a
// single-slot semaphore. Schedules made while one is already pending
// coalesce into one run.
type OwnWorker struct {
	sem     chan struct{}
	once    sync.Once
	stopped chan struct{}
}

func NewOwnWorker() *OwnWorker {
	return &OwnWorker{
		sem:     make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Start launches the worker. It waits for the next signal, runs fn, and
// repeats until ctx is done.
func (o *OwnWorker) Start(ctx context.Context, fn func()) {
	o.once.Do(func() {
		go func() {
			defer close(o.stopped)
			for {
				select {
				case <-ctx.Done():
					return
				case <-o.sem:
					fn()
				}
			}
		}()
	})
}

func (o *OwnWorker) Schedule() {
	select {
	case o.sem <- struct{}{}:
	default:
	}
}

// Stopped is closed once the worker goroutine has exited.
func (o *OwnWorker) Stopped() <-chan struct{} { return o.stopped }

// GlobalWorker runs the deferred handler as a job on a shared queue.
type GlobalWorker struct {
	q    *workqueue.Queue
	work workqueue.Work
}

func NewGlobalWorker(q *workqueue.Queue) *GlobalWorker {
	return &GlobalWorker{q: q}
}

// Start binds fn as the job handler. The queue itself is started by its owner.
func (g *GlobalWorker) Start(_ context.Context, fn func()) {
	g.work.Handler = func(*workqueue.Work) { fn() }
}

func (g *GlobalWorker) Schedule() {
	g.q.Submit(&g.work)
}
