package tmp007

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"tmp007-go/workqueue"
)

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(200 * time.Millisecond)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOwnWorkerRunsOnSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs int32
	o := NewOwnWorker()
	o.Start(ctx, func() { atomic.AddInt32(&runs, 1) })

	o.Schedule()
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, "first run")
	o.Schedule()
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, "second run")
}

func TestOwnWorkerCoalescesPendingSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var runs int32
	o := NewOwnWorker()
	o.Start(ctx, func() {
		atomic.AddInt32(&runs, 1)
		<-release
	})

	o.Schedule()
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, "worker busy")

	// While busy, any number of signals collapse into one pending run.
	for i := 0; i < 5; i++ {
		o.Schedule()
	}
	close(release)
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, "pending run")
	time.Sleep(10 * time.Millisecond)
	if n := atomic.LoadInt32(&runs); n != 2 {
		t.Fatalf("runs = %d, want 2", n)
	}
}

func TestOwnWorkerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o := NewOwnWorker()
	o.Start(ctx, func() {})
	cancel()
	select {
	case <-o.Stopped():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("worker did not stop")
	}
}

func TestGlobalWorkerSubmitsToQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := workqueue.New(4)
	q.Start(ctx)

	var runs int32
	g := NewGlobalWorker(q)
	g.Start(ctx, func() { atomic.AddInt32(&runs, 1) })
	g.Schedule()
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, "queued run")
}
