package reactive

import "sync"

// Subscriber is anything that can be invalidated when a Subject it is
// registered with changes. Watcher is the only implementation in this
// package; the interface exists so hosts can observe subjects directly.
type Subscriber interface {
	// Invalidate notifies the subscriber that a dependency changed.
	Invalidate()

	// ID returns a unique identifier, used for deduplication.
	ID() uint64
}

// Subject is a publish point backing one property (or one array, at the
// collection level). Watchers register with it during evaluation and are
// notified when the backing value changes.
type Subject struct {
	id uint64

	// subs are the registered subscribers, in registration order.
	subs []Subscriber

	// subMu protects subs. Within one flush all access is from a single
	// goroutine, but independent roots may share a frozen-adjacent graph.
	subMu sync.Mutex
}

// NewSubject creates a new Subject.
func NewSubject() *Subject {
	return &Subject{id: nextID()}
}

// ID returns the unique identifier for this subject.
func (s *Subject) ID() uint64 {
	return s.id
}

// Subscribe adds a subscriber if not already present. Idempotent.
func (s *Subject) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	sid := sub.ID()
	for _, existing := range s.subs {
		if existing.ID() == sid {
			return
		}
	}
	s.subs = append(s.subs, sub)
}

// Unsubscribe removes a subscriber. Registration order of the remaining
// subscribers is preserved.
func (s *Subject) Unsubscribe(sub Subscriber) {
	if sub == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	sid := sub.ID()
	for i, existing := range s.subs {
		if existing.ID() == sid {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Notify invalidates every current subscriber. It iterates a snapshot taken
// before the first invalidation, so subscribers may unsubscribe themselves
// (or others) mid-notification without corrupting the iteration. Ordering
// among subscribers of a single subject is the snapshot order; cross-subject
// ordering is the Scheduler's job.
func (s *Subject) Notify() {
	s.subMu.Lock()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.Invalidate()
	}
}

// Depend registers the currently evaluating watcher with this subject.
// No-op when nothing is evaluating.
func (s *Subject) Depend() {
	if w := currentWatcher(); w != nil {
		w.addDep(s)
	}
}

// subCount reports the number of current subscribers. Test helper.
func (s *Subject) subCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}
