package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive evaluation state for one goroutine.
// Each mounted root runs its reactivity on one goroutine; keeping the
// evaluation stack goroutine-local lets independent roots run concurrently
// without sharing watcher state.
type trackingContext struct {
	// watchers is the stack of currently evaluating watchers. The top of
	// the stack is the watcher that subject reads register with. It is a
	// stack, not a single pointer, because evaluating one watcher can
	// synchronously evaluate another (lazy watchers read during render).
	watchers []*Watcher

	// scope is the scope that newly created watchers attach to.
	scope *Scope
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header. Implementation detail; never
// exposed.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack dump starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating one if needed.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// currentWatcher returns the watcher currently evaluating on this
// goroutine, or nil when no evaluation is active (reads do not track).
func currentWatcher() *Watcher {
	ctx := getTrackingContext()
	if n := len(ctx.watchers); n > 0 {
		return ctx.watchers[n-1]
	}
	return nil
}

// pushWatcher makes w the evaluation target for subsequent subject reads.
func pushWatcher(w *Watcher) {
	ctx := getTrackingContext()
	ctx.watchers = append(ctx.watchers, w)
}

// popWatcher restores the previous evaluation target.
func popWatcher() {
	ctx := getTrackingContext()
	if n := len(ctx.watchers); n > 0 {
		ctx.watchers[n-1] = nil
		ctx.watchers = ctx.watchers[:n-1]
	}
}

// currentScope returns the scope new watchers attach to, or nil.
func currentScope() *Scope {
	return getTrackingContext().scope
}

// setCurrentScope sets the scope for watcher creation and returns the
// previous one so it can be restored.
func setCurrentScope(s *Scope) *Scope {
	ctx := getTrackingContext()
	old := ctx.scope
	ctx.scope = s
	return old
}

// Untracked runs fn without registering subject reads against the
// currently evaluating watcher.
func Untracked(fn func()) {
	ctx := getTrackingContext()
	saved := ctx.watchers
	ctx.watchers = nil
	defer func() { ctx.watchers = saved }()
	fn()
}

// InScope runs fn with s as the current scope: watchers created inside fn
// are owned by s and torn down when s is disposed.
func InScope(s *Scope, fn func()) {
	old := setCurrentScope(s)
	defer setCurrentScope(old)
	fn()
}
