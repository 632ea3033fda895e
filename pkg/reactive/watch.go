package reactive

// Watch declares a user watcher over an arbitrary getter. The callback
// receives (new, old) whenever the getter's result changes. Errors from
// the getter or callback are funneled to the error handler.
func Watch(sched *Scheduler, getter func() any, cb func(newVal, oldVal any), opts ...WatcherOption) *Watcher {
	opts = append([]WatcherOption{User()}, opts...)
	return NewWatcher(sched, getter, cb, opts...)
}

// WatchPath declares a user watcher over a dotted path expression rooted
// at an instrumented value.
func WatchPath(sched *Scheduler, root any, path string, cb func(newVal, oldVal any), opts ...WatcherOption) (*Watcher, error) {
	getter, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return Watch(sched, func() any { return getter(root) }, cb, opts...), nil
}

// Immediate wraps Watch but fires the callback once with the initial
// value (old value nil) before any change occurs.
func Immediate(sched *Scheduler, getter func() any, cb func(newVal, oldVal any), opts ...WatcherOption) *Watcher {
	w := Watch(sched, getter, cb, opts...)
	func() {
		defer func() {
			if r := recover(); r != nil {
				handleError(recoveredError(r), "immediate watcher callback")
			}
		}()
		cb(w.value, nil)
	}()
	return w
}

// Computed declares a lazy watcher whose Value re-evaluates only after a
// dependency changed. Reading Value during another watcher's evaluation
// forwards the computed watcher's dependencies to the outer watcher.
func Computed(sched *Scheduler, getter func() any) *Watcher {
	return NewWatcher(sched, getter, nil, Lazy())
}

// ComputedValue reads a computed watcher from inside another evaluation:
// it returns the (possibly recomputed) value and re-registers the
// computed watcher's subjects with the currently evaluating watcher.
func ComputedValue(w *Watcher) any {
	v := w.Value()
	if currentWatcher() != nil {
		w.Depend()
	}
	return v
}
