package reactive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushCoalescesDuplicateInvalidations(t *testing.T) {
	obj := Instrument(map[string]any{"n": 0}).(*Object)

	ticker := NewManualTicker()
	sched := NewScheduler(WithTicker(ticker))
	runs := 0
	NewWatcher(sched, func() any {
		runs++
		return obj.Get("n")
	}, nil)
	require.Equal(t, 1, runs)

	obj.Set("n", 1)
	obj.Set("n", 2)
	obj.Set("n", 3)
	assert.Equal(t, 1, runs, "no run before the tick")

	ticker.Tick()
	assert.Equal(t, 2, runs, "three invalidations coalesce into one run")
}

func TestFlushOrderFollowsCreationSequence(t *testing.T) {
	obj := Instrument(map[string]any{"p": 0, "c": 0, "g": 0}).(*Object)

	ticker := NewManualTicker()
	sched := NewScheduler(WithTicker(ticker))

	var order []string
	mk := func(name, key string) {
		first := true
		NewWatcher(sched, func() any {
			v := obj.Get(key)
			if !first {
				order = append(order, name)
			}
			first = false
			return v
		}, nil)
	}
	mk("parent", "p")
	mk("child", "c")
	mk("grandchild", "g")

	// Invalidate in reverse of creation order; the flush must still run
	// in creation order.
	obj.Set("g", 1)
	obj.Set("c", 1)
	obj.Set("p", 1)
	ticker.Tick()
	assert.Equal(t, []string{"parent", "child", "grandchild"}, order)
}

func TestMidFlushSchedulingRunsWithinSameFlush(t *testing.T) {
	objA := Instrument(map[string]any{"n": 0}).(*Object)
	objB := Instrument(map[string]any{"n": 0}).(*Object)

	ticker := NewManualTicker()
	sched := NewScheduler(WithTicker(ticker))

	var order []string
	// Watcher A writes B's state during its run; B's watcher must run in
	// the same flush, after A.
	NewWatcher(sched, func() any {
		order = append(order, "a")
		v := objA.Get("n")
		if v != 0 {
			objB.Set("n", v)
		}
		return v
	}, nil)
	NewWatcher(sched, func() any {
		order = append(order, "b")
		return objB.Get("n")
	}, nil)
	order = nil

	objA.Set("n", 1)
	ticker.Tick()
	assert.Equal(t, []string{"a", "b"}, order)
	assert.False(t, ticker.Pending(), "no second flush needed")
}

func TestSelfSchedulingWatcherStopsAtBound(t *testing.T) {
	obj := Instrument(map[string]any{"n": 0}).(*Object)

	var diagnostics []error
	SetErrorHandler(func(err error, context string) {
		diagnostics = append(diagnostics, err)
	})
	defer SetErrorHandler(nil)

	var tripped []uint64
	ticker := NewManualTicker()
	sched := NewScheduler(
		WithTicker(ticker),
		WithMaxUpdates(10),
		WithCycleObserver(func(id uint64) { tripped = append(tripped, id) }),
	)

	runs := 0
	NewWatcher(sched, func() any {
		runs++
		v := obj.Get("n").(int)
		if runs > 1 {
			obj.Set("n", v+1) // re-triggers itself every run
		}
		return v
	}, nil)
	require.Equal(t, 1, runs)

	obj.Set("n", 1)
	ticker.Tick()

	// Initial run plus the flushed run plus maxUpdates re-queued runs.
	assert.Equal(t, 1+1+10, runs, "must stop, not hang")
	require.Len(t, diagnostics, 1)
	assert.ErrorIs(t, diagnostics[0], ErrUpdateLoop)
	assert.Len(t, tripped, 1)

	// Recoverable: the next external write flushes normally.
	diagnostics = nil
	before := runs
	obj.Set("n", 1000)
	ticker.Tick()
	assert.Greater(t, runs, before)
}

func TestStateResetBeforePostFlushHooks(t *testing.T) {
	obj := Instrument(map[string]any{"n": 0}).(*Object)

	ticker := NewManualTicker()
	sched := NewScheduler(WithTicker(ticker))
	runs := 0
	NewWatcher(sched, func() any {
		runs++
		return obj.Get("n")
	}, nil)

	obj.Set("n", 1)
	sched.NextTick(func() {
		// Mutations from a post-flush hook schedule into the next flush.
		obj.Set("n", 2)
	})

	ticker.Tick()
	assert.Equal(t, 2, runs, "hook mutation not flushed yet")
	assert.True(t, ticker.Pending())

	ticker.Tick()
	assert.Equal(t, 3, runs)
}

func TestNextTickWithoutPendingWatchers(t *testing.T) {
	ticker := NewManualTicker()
	sched := NewScheduler(WithTicker(ticker))

	called := false
	sched.NextTick(func() { called = true })
	assert.False(t, called)

	ticker.Tick()
	assert.True(t, called)
}

func TestFlushObserverReportsRuns(t *testing.T) {
	obj := Instrument(map[string]any{"n": 0}).(*Object)

	var durations []time.Duration
	var counts []int
	ticker := NewManualTicker()
	sched := NewScheduler(
		WithTicker(ticker),
		WithFlushObserver(func(d time.Duration, ran int) {
			durations = append(durations, d)
			counts = append(counts, ran)
		}),
	)

	NewWatcher(sched, func() any { return obj.Get("n") }, nil)
	NewWatcher(sched, func() any { return obj.Get("n") }, nil)

	obj.Set("n", 1)
	ticker.Tick()

	require.Len(t, counts, 1)
	assert.Equal(t, 2, counts[0])
	assert.GreaterOrEqual(t, durations[0], time.Duration(0))
	assert.Zero(t, sched.PendingCount())
}

// recordingSub is a bare Subscriber used to probe Subject semantics
// without a scheduler in the loop.
type recordingSub struct {
	id    uint64
	hits  int
	onHit func()
}

func (r *recordingSub) ID() uint64 { return r.id }
func (r *recordingSub) Invalidate() {
	r.hits++
	if r.onHit != nil {
		r.onHit()
	}
}

func TestSubjectSubscribeIdempotent(t *testing.T) {
	subj := NewSubject()
	sub := &recordingSub{id: nextID()}

	subj.Subscribe(sub)
	subj.Subscribe(sub)
	subj.Notify()
	assert.Equal(t, 1, sub.hits)
}

func TestSubjectNotifyToleratesRemovalDuringNotification(t *testing.T) {
	subj := NewSubject()

	a := &recordingSub{id: nextID()}
	b := &recordingSub{id: nextID()}
	c := &recordingSub{id: nextID()}

	// a removes b and itself mid-notification. The snapshot taken before
	// iterating means b and c still receive this round's notification;
	// the removals apply from the next round on.
	a.onHit = func() {
		subj.Unsubscribe(b)
		subj.Unsubscribe(a)
	}

	subj.Subscribe(a)
	subj.Subscribe(b)
	subj.Subscribe(c)

	subj.Notify()
	assert.Equal(t, 1, a.hits)
	assert.Equal(t, 1, b.hits)
	assert.Equal(t, 1, c.hits)

	subj.Notify()
	assert.Equal(t, 1, a.hits)
	assert.Equal(t, 1, b.hits)
	assert.Equal(t, 2, c.hits)
}
