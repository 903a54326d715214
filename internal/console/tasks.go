package console

import (
	"context"
	"sync"
	"sync/atomic"
)

// tracker follows the network tasks of one controller.
//
// Loads (refresh and page) all replace the table rows, so a new load
// cancels the one in flight and only the latest may write its result.
// Mutations run detached from the caller's cancellation.
type tracker struct {
	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	running atomic.Int32
}

// startLoad begins a load and supersedes the previous one.
func (t *tracker) startLoad(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	seq := t.seq
	t.cancel = cancel
	t.mu.Unlock()

	t.running.Add(1)
	return ctx, seq, func() {
		t.running.Add(-1)
		t.mu.Lock()
		if t.seq == seq {
			t.cancel = nil
		}
		t.mu.Unlock()
		cancel()
	}
}

// current reports whether seq is still the latest load.
func (t *tracker) current(seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq == seq
}

// startMutation begins a task that the caller cannot cancel.
func (t *tracker) startMutation(parent context.Context) (context.Context, func()) {
	t.running.Add(1)
	return context.WithoutCancel(parent), func() { t.running.Add(-1) }
}

func (t *tracker) busy() bool {
	return t.running.Load() > 0
}
