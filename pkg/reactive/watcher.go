package reactive

import "fmt"

// Watcher wraps one re-runnable computation and tracks, dynamically, the
// Subjects it read during its last evaluation. When any of them notify,
// the watcher re-evaluates: immediately when synchronous, on the next
// flush otherwise, or lazily on next read when created with Lazy.
type Watcher struct {
	id uint64

	sched  *Scheduler
	getter func() any

	// cb receives (new, old) after a Run that observed a change.
	cb func(newVal, oldVal any)

	// before is invoked by the scheduler just before each flushed run.
	before func()

	active bool
	dirty  bool

	lazy bool
	sync bool
	deep bool
	user bool

	// Two alternating subscription sets: deps is what the previous
	// evaluation read, newDeps is what the current one is reading.
	// Subscriptions not re-affirmed during evaluation are dropped when
	// the sets swap, so re-subscription never rescans from scratch.
	deps      []*Subject
	newDeps   []*Subject
	depIDs    map[uint64]struct{}
	newDepIDs map[uint64]struct{}

	scope *Scope

	value any
}

// WatcherOption configures a Watcher at creation.
type WatcherOption interface {
	applyWatcher(w *Watcher)
}

type watcherOptionFunc func(*Watcher)

func (f watcherOptionFunc) applyWatcher(w *Watcher) { f(w) }

// Lazy defers evaluation until Value is called. Lazy watchers never
// schedule; invalidation only marks them dirty.
func Lazy() WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.lazy = true })
}

// Sync makes invalidation re-evaluate immediately instead of scheduling.
func Sync() WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.sync = true })
}

// Deep makes every evaluation traverse the produced value so the watcher
// registers with every nested Subject, and makes the callback fire even
// when the result identity is unchanged.
func Deep() WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.deep = true })
}

// User marks the watcher as host-declared: errors from its getter and
// callback are funneled to the error handler instead of propagating.
func User() WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.user = true })
}

// Before installs a hook the scheduler invokes just before each flushed
// run of this watcher.
func Before(fn func()) WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.before = fn })
}

// NewWatcher creates a watcher over getter and, unless lazy, evaluates it
// once to seed the value and the initial subscription set. The watcher
// attaches to the current scope, if any.
func NewWatcher(sched *Scheduler, getter func() any, cb func(newVal, oldVal any), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		id:        nextID(),
		sched:     sched,
		getter:    getter,
		cb:        cb,
		active:    true,
		depIDs:    make(map[uint64]struct{}),
		newDepIDs: make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt.applyWatcher(w)
	}

	if sc := currentScope(); sc != nil {
		w.scope = sc
		sc.register(w)
	}

	if w.lazy {
		w.dirty = true
	} else {
		w.value = w.Evaluate()
	}
	return w
}

// ID returns the watcher's sequence id. IDs are assigned at creation and
// define the scheduler's flush order.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Evaluate runs the computation with this watcher as the evaluation
// target. Whether or not the getter panics, the evaluation stack is
// popped and the subscription sets are reconciled afterward. Panics from
// user watchers are funneled to the error handler; all others propagate.
func (w *Watcher) Evaluate() any {
	pushWatcher(w)
	defer func() {
		popWatcher()
		w.cleanupDeps()
	}()

	var value any
	if w.user {
		func() {
			defer func() {
				if r := recover(); r != nil {
					handleError(recoveredError(r), fmt.Sprintf("watcher %d getter", w.id))
				}
			}()
			value = w.getter()
		}()
	} else {
		value = w.getter()
	}

	if w.deep {
		Traverse(value)
	}
	return value
}

// addDep registers a subject read by the current evaluation. The watcher
// subscribes to the subject only if the previous evaluation did not
// already hold a subscription.
func (w *Watcher) addDep(s *Subject) {
	id := s.ID()
	if _, ok := w.newDepIDs[id]; ok {
		return
	}
	w.newDepIDs[id] = struct{}{}
	w.newDeps = append(w.newDeps, s)
	if _, ok := w.depIDs[id]; !ok {
		s.Subscribe(w)
	}
}

// cleanupDeps drops subscriptions the evaluation did not re-affirm and
// swaps the current set into place as the previous set.
func (w *Watcher) cleanupDeps() {
	for _, dep := range w.deps {
		if _, ok := w.newDepIDs[dep.ID()]; !ok {
			dep.Unsubscribe(w)
		}
	}

	w.deps, w.newDeps = w.newDeps, w.deps[:0]
	w.depIDs, w.newDepIDs = w.newDepIDs, w.depIDs
	clear(w.newDepIDs)
}

// Invalidate implements Subscriber. Lazy watchers only go dirty;
// synchronous watchers run in place; everything else is handed to the
// scheduler for a coalesced, ordered flush. Invalidating a torn-down
// watcher is a no-op.
func (w *Watcher) Invalidate() {
	switch {
	case !w.active:
	case w.lazy:
		w.dirty = true
	case w.sync:
		w.Run()
	default:
		w.sched.Schedule(w)
	}
}

// Run re-evaluates and, when the result changed identity, is a mutable
// value, or the watcher is deep, invokes the callback with (new, old).
// Inactive watchers are skipped: a torn-down watcher can still sit in the
// scheduler queue, and the active check at run time is what neutralizes it.
func (w *Watcher) Run() {
	if !w.active {
		return
	}

	value := w.Evaluate()
	if !sameRef(value, w.value) || isMutable(value) || w.deep {
		old := w.value
		w.value = value
		if w.cb == nil {
			return
		}
		if w.user {
			func() {
				defer func() {
					if r := recover(); r != nil {
						handleError(recoveredError(r), fmt.Sprintf("watcher %d callback", w.id))
					}
				}()
				w.cb(value, old)
			}()
		} else {
			w.cb(value, old)
		}
	}
}

// Value returns the lazy watcher's result, re-evaluating only when dirty.
func (w *Watcher) Value() any {
	if w.dirty {
		w.value = w.Evaluate()
		w.dirty = false
	}
	return w.value
}

// Depend re-registers every subject this watcher holds against the
// watcher currently evaluating. Used when a lazy watcher's cached value
// is read during another watcher's evaluation, so the outer watcher
// inherits the inner one's dependencies.
func (w *Watcher) Depend() {
	for _, dep := range w.deps {
		dep.Depend()
	}
}

// Teardown unsubscribes from every held subject and deactivates the
// watcher permanently. Safe to call only between evaluations.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	if w.scope != nil {
		w.scope.unregister(w)
	}
	for _, dep := range w.deps {
		dep.Unsubscribe(w)
	}
	w.deps = nil
	w.newDeps = nil
	w.active = false
}
