package reactive

import "sync"

// Scope owns a set of watchers and cleanup callbacks, mirroring the
// lifetime of the component that created them. Disposing a scope tears
// down every owned watcher and runs cleanups in reverse registration
// order. Scopes nest: disposing a parent disposes its children first.
type Scope struct {
	id uint64

	parent   *Scope
	children []*Scope

	watchers []*Watcher
	cleanups []func()
	disposed bool

	mu sync.Mutex
}

// NewScope creates a scope. A non-nil parent adopts it.
func NewScope(parent *Scope) *Scope {
	s := &Scope{id: nextID(), parent: parent}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	}
	return s
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() uint64 {
	return s.id
}

// IsDisposed reports whether Dispose has run.
func (s *Scope) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Scope) register(w *Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.watchers = append(s.watchers, w)
}

func (s *Scope) unregister(w *Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.watchers {
		if existing == w {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}

// OnCleanup registers fn to run at disposal. If the scope is already
// disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// Dispose tears down every owned watcher, disposes children (last created
// first), and runs cleanups in reverse order. Idempotent.
func (s *Scope) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	children := s.children
	watchers := s.watchers
	cleanups := s.cleanups
	s.children = nil
	s.watchers = nil
	s.cleanups = nil
	s.mu.Unlock()

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	for _, w := range watchers {
		w.scope = nil // already draining; skip unregister
		w.Teardown()
	}

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (s *Scope) removeChild(child *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}
