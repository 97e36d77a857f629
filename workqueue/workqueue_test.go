package workqueue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsSubmittedWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := New(4)
	q.Start(ctx)

	done := make(chan struct{}, 1)
	w := &Work{Handler: func(*Work) { done <- struct{}{} }}
	require.True(t, q.Submit(w))

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for work to run")
	}
}

func TestQueueCoalescesPendingWork(t *testing.T) {
	q := New(4) // not started: work stays pending

	var runs int32
	w := &Work{Handler: func(*Work) { atomic.AddInt32(&runs, 1) }}
	require.True(t, q.Submit(w))
	require.True(t, q.Submit(w))
	require.True(t, w.Pending())
	assert.Len(t, q.q, 1, "pending work must be queued once")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	require.Eventually(t, func() bool { return !w.Pending() }, 100*time.Millisecond, time.Millisecond)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, 100*time.Millisecond, time.Millisecond)
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := New(1)
	a := &Work{}
	b := &Work{}
	require.True(t, q.Submit(a))
	assert.False(t, q.Submit(b))
	assert.False(t, b.Pending())
	assert.EqualValues(t, 1, q.Drops())
}

func TestQueueStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New(1)
	q.Start(ctx)
	cancel()

	select {
	case <-q.Stopped():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("queue did not stop")
	}
}
