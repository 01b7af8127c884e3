package easyfuse

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSerialRunsInline(t *testing.T) {
	var ran bool
	Serial{}.Run(context.Background(), func() { ran = true })
	if !ran {
		t.Fatal("Serial.Run returned without running fn")
	}
}

func TestParallelBoundsConcurrency(t *testing.T) {
	const width = 2
	p := NewParallel(width)

	var cur, max int32
	var wg sync.WaitGroup
	for i := 0; i < width*4; i++ {
		wg.Add(1)
		p.Run(context.Background(), func() {
			defer wg.Done()
			n := atomic.AddInt32(&cur, 1)
			for {
				m := atomic.LoadInt32(&max)
				if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&cur, -1)
		})
	}
	wg.Wait()

	if max > width {
		t.Fatalf("observed %d concurrent Parallel tasks, want at most %d", max, width)
	}
}

func TestAsyncRunsOnAWorker(t *testing.T) {
	a := NewAsync(2)
	defer a.Stop()

	done := make(chan struct{})
	a.Run(context.Background(), func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Async.Run's task never ran")
	}
}

func TestAsyncRunFallsBackWhenContextCanceled(t *testing.T) {
	a := NewAsync(1)
	defer a.Stop()

	// NewAsync(1) gives a task channel buffered to 4. Block the one worker
	// on a task, then fill the buffer completely, so a further Run's send
	// to the channel cannot proceed and the ctx.Done() branch is the only
	// one ready — deterministic, rather than racing two ready select cases.
	release := make(chan struct{})
	started := make(chan struct{})
	a.Run(context.Background(), func() {
		close(started)
		<-release
	})
	<-started

	for i := 0; i < 4; i++ {
		a.Run(context.Background(), func() { <-release })
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran bool
	a.Run(ctx, func() { ran = true })
	close(release)

	if !ran {
		t.Fatal("Async.Run did not fall back to running fn inline once the task channel was full and ctx was canceled")
	}
}
