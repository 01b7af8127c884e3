package easyfuse

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// SchedulePolicy is the build-time choice (spec.md §5, §9) between running
// a handler call inline, on a bounded worker pool, or as a task on a
// cooperative runtime. All three implementations share one "execute a
// unit of work" primitive so the rest of the Driver stays identical
// regardless of which is configured.
type SchedulePolicy interface {
	// Run executes fn under the policy. Serial runs fn before returning.
	// Parallel and Async may return before fn has completed; in that
	// case the caller is responsible for not observing fn's result until
	// it is known to be done (the Driver arranges this by doing the
	// kernel reply from inside fn itself, never after Run returns).
	Run(ctx context.Context, fn func())
}

// Serial runs the handler inline on the goroutine that received the
// kernel request. There is no thread hop and no suspension point; the
// resolver and stream stores need no cross-goroutine synchronization
// beyond what the InvariantMutex already provides for debug assertions.
type Serial struct{}

func (Serial) Run(ctx context.Context, fn func()) { fn() }

// Parallel owns a bounded worker pool of configurable width (num_threads
// in spec.md §4.G), backed by a weighted semaphore rather than a fixed
// goroutine pool — the same bounded-concurrency idiom rclone's mount
// command uses to cap FUSE op handlers.
type Parallel struct {
	sem *semaphore.Weighted
}

// NewParallel returns a Parallel policy bounded to width concurrent
// handler calls. A width of zero or less means unbounded.
func NewParallel(width int) *Parallel {
	if width <= 0 {
		return &Parallel{}
	}
	return &Parallel{sem: semaphore.NewWeighted(int64(width))}
}

func (p *Parallel) Run(ctx context.Context, fn func()) {
	if p.sem == nil {
		go fn()
		return
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		// Context was canceled before a slot freed up; run inline rather
		// than silently dropping the kernel request.
		fn()
		return
	}
	go func() {
		defer p.sem.Release(1)
		fn()
	}()
}

// Async owns a cooperative task runtime: every operation becomes a task
// submitted to a fixed-size pool of goroutines that read off a shared
// channel, modeling the reference crate's async-runtime task spawn
// without pulling in a full scheduler. Suspension inside a handler body
// (e.g. blocking on another channel) is fine; it only ties up one worker
// goroutine, never the driver's dispatch path.
type Async struct {
	tasks chan func()
	done  chan struct{}
}

// NewAsync starts an Async policy with the given worker count.
func NewAsync(workers int) *Async {
	if workers <= 0 {
		workers = 1
	}
	a := &Async{tasks: make(chan func(), workers*4), done: make(chan struct{})}
	for i := 0; i < workers; i++ {
		go a.loop()
	}
	return a
}

func (a *Async) loop() {
	for {
		select {
		case fn := <-a.tasks:
			fn()
		case <-a.done:
			return
		}
	}
}

func (a *Async) Run(ctx context.Context, fn func()) {
	select {
	case a.tasks <- fn:
	case <-ctx.Done():
		fn()
	}
}

// Stop shuts down the Async runtime's worker goroutines. Safe to call
// once, after the mount has been unmounted.
func (a *Async) Stop() {
	close(a.done)
}
