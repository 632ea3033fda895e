package reactive

import (
	"fmt"
	"sort"
	"time"
)

// Ticker is the host's "run later, before the next render" primitive plus
// a timestamp source. Callbacks passed to RunBeforeNextRender within one
// synchronous burst may be coalesced into a single future invocation.
type Ticker interface {
	RunBeforeNextRender(fn func())
	Now() time.Time
}

// SyncTicker runs callbacks immediately. It is the default when no host
// ticker is supplied, which makes every write flush synchronously.
type SyncTicker struct{}

func (SyncTicker) RunBeforeNextRender(fn func()) { fn() }
func (SyncTicker) Now() time.Time                { return time.Now() }

// ManualTicker queues callbacks until the host calls Tick. It models the
// microtask boundary explicitly: writes in one burst coalesce into one
// flush that runs when the host decides the burst is over.
type ManualTicker struct {
	callbacks []func()
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{}
}

func (t *ManualTicker) RunBeforeNextRender(fn func()) {
	t.callbacks = append(t.callbacks, fn)
}

func (t *ManualTicker) Now() time.Time { return time.Now() }

// Tick runs every queued callback. Callbacks queued while Tick runs wait
// for the next Tick.
func (t *ManualTicker) Tick() {
	cbs := t.callbacks
	t.callbacks = nil
	for _, cb := range cbs {
		cb()
	}
}

// Pending reports whether any callback is queued.
func (t *ManualTicker) Pending() bool {
	return len(t.callbacks) > 0
}

// DefaultMaxUpdates bounds how many times one watcher may re-queue itself
// within a single flush before it is dropped as a runaway cycle.
const DefaultMaxUpdates = 100

// Scheduler coalesces watcher invalidations and flushes them in sequence-id
// order on the host's tick boundary. It is not internally locked: per the
// cooperative model, all scheduling and flushing for one root happens on a
// single goroutine, and re-entrancy (a flushed watcher scheduling more
// watchers, or itself) is handled by index-based iteration and the cycle
// counters rather than by snapshots.
type Scheduler struct {
	ticker     Ticker
	maxUpdates int

	queue    []*Watcher
	has      map[uint64]struct{}
	circular map[uint64]int
	tripped  map[uint64]struct{}
	waiting  bool
	flushing bool
	index    int

	// ticks are post-flush callbacks registered via NextTick.
	ticks []func()

	onFlush     func(d time.Duration, ran int)
	onCycleTrip func(watcherID uint64)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption interface {
	applyScheduler(s *Scheduler)
}

type schedulerOptionFunc func(*Scheduler)

func (f schedulerOptionFunc) applyScheduler(s *Scheduler) { f(s) }

// WithTicker supplies the host tick primitive.
func WithTicker(t Ticker) SchedulerOption {
	return schedulerOptionFunc(func(s *Scheduler) { s.ticker = t })
}

// WithMaxUpdates overrides the reentrant self-scheduling bound.
func WithMaxUpdates(n int) SchedulerOption {
	return schedulerOptionFunc(func(s *Scheduler) { s.maxUpdates = n })
}

// WithFlushObserver installs a callback invoked after every flush with its
// duration and the number of watcher runs it performed.
func WithFlushObserver(fn func(d time.Duration, ran int)) SchedulerOption {
	return schedulerOptionFunc(func(s *Scheduler) { s.onFlush = fn })
}

// WithCycleObserver installs a callback invoked when a watcher trips the
// reentrant update bound.
func WithCycleObserver(fn func(watcherID uint64)) SchedulerOption {
	return schedulerOptionFunc(func(s *Scheduler) { s.onCycleTrip = fn })
}

// NewScheduler creates a scheduler. Without WithTicker it flushes
// synchronously via SyncTicker.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		ticker:     SyncTicker{},
		maxUpdates: DefaultMaxUpdates,
		has:        make(map[uint64]struct{}),
		circular:   make(map[uint64]int),
		tripped:    make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt.applyScheduler(s)
	}
	return s
}

// Schedule enqueues a watcher for the next flush. Duplicate invalidations
// of the same watcher within one flush window coalesce. When a flush is in
// progress the watcher is spliced into the unprocessed remainder of the
// queue at its sequence-id position; already-processed entries are never
// reordered.
func (s *Scheduler) Schedule(w *Watcher) {
	if _, ok := s.has[w.id]; ok {
		return
	}
	if _, ok := s.tripped[w.id]; ok && s.flushing {
		// Runaway watchers stay skipped for the rest of this flush.
		return
	}
	s.has[w.id] = struct{}{}

	if !s.flushing {
		s.queue = append(s.queue, w)
	} else {
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].id > w.id {
			i--
		}
		s.queue = append(s.queue, nil)
		copy(s.queue[i+2:], s.queue[i+1:])
		s.queue[i+1] = w
	}

	if !s.waiting {
		s.waiting = true
		s.ticker.RunBeforeNextRender(s.flush)
	}
}

// NextTick registers fn to run after the coming flush completes and the
// scheduler state has been reset, so any state mutations fn performs
// schedule cleanly into the next flush.
func (s *Scheduler) NextTick(fn func()) {
	s.ticks = append(s.ticks, fn)
	if !s.waiting {
		s.waiting = true
		s.ticker.RunBeforeNextRender(s.flush)
	}
}

// PendingCount reports how many watchers are queued. Instrumentation hook.
func (s *Scheduler) PendingCount() int {
	return len(s.has)
}

// flush runs the queue in ascending sequence-id order. Sorting up front
// guarantees parents run before children and pre-existing watchers before
// ones created mid-flush. Iteration is by index, not over a snapshot,
// because running a watcher may append more.
func (s *Scheduler) flush() {
	start := s.ticker.Now()
	s.flushing = true

	sort.Slice(s.queue, func(i, j int) bool {
		return s.queue[i].id < s.queue[j].id
	})

	ran := 0
	for s.index = 0; s.index < len(s.queue); s.index++ {
		w := s.queue[s.index]
		if w.before != nil {
			w.before()
		}

		// Clear presence before running: if the run re-triggers this
		// watcher it re-queues and re-runs within this same flush.
		delete(s.has, w.id)
		w.Run()
		ran++

		if _, requeued := s.has[w.id]; requeued {
			s.circular[w.id]++
			if s.circular[w.id] > s.maxUpdates {
				s.tripped[w.id] = struct{}{}
				s.dropPending(w)
				handleError(fmt.Errorf("%w (watcher %d re-queued more than %d times in one flush)",
					ErrUpdateLoop, w.id, s.maxUpdates), "scheduler flush")
				if s.onCycleTrip != nil {
					s.onCycleTrip(w.id)
				}
			}
		}
	}

	ticks := s.ticks
	s.ticks = nil
	s.resetState()

	if s.onFlush != nil {
		s.onFlush(s.ticker.Now().Sub(start), ran)
	}
	for _, fn := range ticks {
		fn()
	}
}

// dropPending removes a runaway watcher's re-queued entry from the
// unprocessed remainder so it is skipped for the rest of this flush.
func (s *Scheduler) dropPending(w *Watcher) {
	delete(s.has, w.id)
	for i := len(s.queue) - 1; i > s.index; i-- {
		if s.queue[i].id == w.id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// resetState clears all scheduler state in one step, before any post-flush
// work runs.
func (s *Scheduler) resetState() {
	s.queue = s.queue[:0]
	clear(s.has)
	clear(s.circular)
	clear(s.tripped)
	s.waiting = false
	s.flushing = false
	s.index = 0
}
