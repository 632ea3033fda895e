package reactive

import (
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// Instrumentation wraps the two plain mutable value forms, map[string]any
// and []any, in Object and Array records whose reads and writes route
// through Subjects. Anything else (structs, typed maps, scalars, frozen
// values) is left alone: such values are treated as intentionally
// immutable, and instrumenting them is a silent no-op.

// instrumented caches the Object or Array wrapping each plain value,
// keyed by the map's identity or the slice's backing identity, so the
// same value reached from two parents shares one record and Instrument
// stays idempotent.
var instrumented sync.Map

// sliceKey is the closest analogue of map identity Go offers for a
// slice: the backing array pointer plus the length. Two slices agreeing
// on both are the same value; a re-slice of a different length is not.
type sliceKey struct {
	ptr uintptr
	len int
}

func sliceKeyOf(v []any) sliceKey {
	return sliceKey{ptr: reflect.ValueOf(v).Pointer(), len: len(v)}
}

// frozen records values excluded from instrumentation.
var frozen sync.Map

// Instrument returns the reactive counterpart of value: an *Object for a
// plain map, an *Array for a plain slice, and the value itself for
// everything else. Nested plain values are instrumented lazily, on first
// traversal through Get or Index.
func Instrument(value any) any {
	return instrument(value)
}

func instrument(value any) any {
	switch v := value.(type) {
	case *Object, *Array:
		return value
	case map[string]any:
		if isFrozen(v) {
			return value
		}
		key := reflect.ValueOf(v).Pointer()
		if ob, ok := instrumented.Load(key); ok {
			return ob.(*Object)
		}
		ob := newObject(v)
		instrumented.Store(key, ob)
		return ob
	case []any:
		if isFrozen(v) {
			return value
		}
		if len(v) == 0 {
			// An empty slice has no backing array to key a record under;
			// each instrumentation starts a fresh record.
			return newArray(v)
		}
		key := sliceKeyOf(v)
		if ar, ok := instrumented.Load(key); ok {
			return ar.(*Array)
		}
		ar := newArray(v)
		instrumented.Store(key, ar)
		return ar
	default:
		return value
	}
}

// Freeze marks a plain map or slice as non-reactive. Instrumenting a
// frozen value returns it unchanged. Freezing anything else is a no-op,
// as is freezing an empty slice: with no backing array there is no
// identity to record the freeze against, so an empty slice stays
// instrumentable.
func Freeze(value any) any {
	switch v := value.(type) {
	case map[string]any:
		frozen.Store(reflect.ValueOf(v).Pointer(), struct{}{})
	case []any:
		if len(v) > 0 {
			frozen.Store(sliceKeyOf(v), struct{}{})
		}
	}
	return value
}

func isFrozen(value any) bool {
	var key any
	switch v := value.(type) {
	case map[string]any:
		key = reflect.ValueOf(v).Pointer()
	case []any:
		if len(v) == 0 {
			return false
		}
		key = sliceKeyOf(v)
	default:
		return false
	}
	_, ok := frozen.Load(key)
	return ok
}

// Object is the interceptor record for one plain map. It owns one Subject
// per property plus a shape Subject notified when properties are added or
// removed.
type Object struct {
	shape    *Subject
	subjects map[string]*Subject
	fields   map[string]any

	// rootRefs counts the mounted roots using this object as root state.
	rootRefs int

	mu sync.Mutex
}

func newObject(fields map[string]any) *Object {
	o := &Object{
		shape:    NewSubject(),
		subjects: make(map[string]*Subject, len(fields)),
		fields:   make(map[string]any, len(fields)),
	}
	for k, v := range fields {
		o.subjects[k] = NewSubject()
		o.fields[k] = v
	}
	return o
}

// Get reads a property, registering the currently evaluating watcher with
// the property's Subject. When the value is itself instrumentable it is
// instrumented in place, and the watcher additionally registers with the
// child's collection-level Subject (so escape-hatch mutations of the child
// re-run readers of the parent property). Reading an absent property
// registers nothing.
func (o *Object) Get(key string) any {
	o.mu.Lock()
	subj, ok := o.subjects[key]
	if !ok {
		o.mu.Unlock()
		return nil
	}
	val := instrument(o.fields[key])
	o.fields[key] = val
	o.mu.Unlock()

	subj.Depend()
	switch child := val.(type) {
	case *Object:
		child.shape.Depend()
	case *Array:
		dependArray(child)
	}
	return val
}

// Set writes a property through the instrumented path. For an existing
// property it instruments the incoming value, compares it against the
// old one by identity and notifies the property's Subject only on
// change; instrumenting first means writing back the raw map or slice
// behind an existing record resolves to that record and short-circuits.
// For a brand-new property it defines a fresh Subject and notifies the
// shape Subject instead; this is the escape hatch for additions, which
// plain writes cannot observe.
func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	if subj, ok := o.subjects[key]; ok {
		next := instrument(value)
		if sameRef(o.fields[key], next) {
			o.mu.Unlock()
			return
		}
		o.fields[key] = next
		o.mu.Unlock()
		subj.Notify()
		return
	}

	if o.rootRefs > 0 {
		o.mu.Unlock()
		slog.Warn("ripple: refusing to add property to root state; declare it up front",
			"key", key)
		return
	}

	o.fields[key] = instrument(value)
	o.subjects[key] = NewSubject()
	o.mu.Unlock()
	o.shape.Notify()
}

// Delete removes a property and notifies both the property's Subject and
// the shape Subject. Deleting an absent property is a no-op.
func (o *Object) Delete(key string) {
	o.mu.Lock()
	subj, ok := o.subjects[key]
	if !ok {
		o.mu.Unlock()
		return
	}
	delete(o.fields, key)
	delete(o.subjects, key)
	o.mu.Unlock()

	subj.Notify()
	o.shape.Notify()
}

// Has reports whether the property exists, registering with its Subject
// when it does.
func (o *Object) Has(key string) bool {
	o.mu.Lock()
	subj, ok := o.subjects[key]
	o.mu.Unlock()
	if ok {
		subj.Depend()
	}
	return ok
}

// Keys returns the property names in sorted order, registering the
// watcher with the shape Subject so additions and removals re-run it.
func (o *Object) Keys() []string {
	o.shape.Depend()

	o.mu.Lock()
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	o.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Len returns the property count, registering with the shape Subject.
func (o *Object) Len() int {
	o.shape.Depend()
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.fields)
}

// AddRootRef records that a mounted root uses this object as root state.
func (o *Object) AddRootRef() {
	o.mu.Lock()
	o.rootRefs++
	o.mu.Unlock()
}

// ReleaseRootRef undoes AddRootRef.
func (o *Object) ReleaseRootRef() {
	o.mu.Lock()
	if o.rootRefs > 0 {
		o.rootRefs--
	}
	o.mu.Unlock()
}

// Array is the interceptor record for one plain slice. A single
// collection-level Subject stands in for every index: element reads
// register with it and every intercepted mutation notifies it.
type Array struct {
	subject *Subject
	items   []any

	rootRefs int

	mu sync.Mutex
}

func newArray(items []any) *Array {
	a := &Array{
		subject: NewSubject(),
		items:   make([]any, len(items)),
	}
	copy(a.items, items)
	return a
}

// Len returns the element count, registering with the collection Subject.
func (a *Array) Len() int {
	a.subject.Depend()
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Index reads the element at i, registering with the collection Subject.
// Out-of-bounds reads return nil. Plain nested values are instrumented in
// place on first read.
func (a *Array) Index(i int) any {
	a.subject.Depend()

	a.mu.Lock()
	if i < 0 || i >= len(a.items) {
		a.mu.Unlock()
		return nil
	}
	val := instrument(a.items[i])
	a.items[i] = val
	a.mu.Unlock()

	switch child := val.(type) {
	case *Object:
		child.shape.Depend()
	case *Array:
		dependArray(child)
	}
	return val
}

// Slice returns a snapshot copy of the elements, registering with the
// collection Subject. Nested plain values are instrumented in place.
func (a *Array) Slice() []any {
	a.subject.Depend()

	a.mu.Lock()
	out := make([]any, len(a.items))
	for i := range a.items {
		a.items[i] = instrument(a.items[i])
		out[i] = a.items[i]
	}
	a.mu.Unlock()
	return out
}

// Push appends elements. The native mutation happens first, inserted
// elements are instrumented, then the collection Subject is notified.
func (a *Array) Push(items ...any) {
	a.mu.Lock()
	for _, it := range items {
		a.items = append(a.items, instrument(it))
	}
	a.mu.Unlock()
	a.subject.Notify()
}

// Pop removes and returns the last element, or nil when empty.
func (a *Array) Pop() any {
	a.mu.Lock()
	var out any
	if n := len(a.items); n > 0 {
		out = a.items[n-1]
		a.items = a.items[:n-1]
	}
	a.mu.Unlock()
	a.subject.Notify()
	return out
}

// Shift removes and returns the first element, or nil when empty.
func (a *Array) Shift() any {
	a.mu.Lock()
	var out any
	if len(a.items) > 0 {
		out = a.items[0]
		a.items = append(a.items[:0], a.items[1:]...)
	}
	a.mu.Unlock()
	a.subject.Notify()
	return out
}

// Unshift inserts elements at the front.
func (a *Array) Unshift(items ...any) {
	a.mu.Lock()
	ins := make([]any, 0, len(items)+len(a.items))
	for _, it := range items {
		ins = append(ins, instrument(it))
	}
	a.items = append(ins, a.items...)
	a.mu.Unlock()
	a.subject.Notify()
}

// Splice removes deleteCount elements at start, inserts items in their
// place, and returns the removed elements. Indices are clamped to the
// current bounds, mirroring the native operation.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	a.mu.Lock()
	n := len(a.items)
	if start < 0 {
		start = n + start
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := make([]any, deleteCount)
	copy(removed, a.items[start:start+deleteCount])

	ins := make([]any, len(items))
	for i, it := range items {
		ins[i] = instrument(it)
	}

	tail := make([]any, n-start-deleteCount)
	copy(tail, a.items[start+deleteCount:])
	a.items = append(a.items[:start], append(ins, tail...)...)
	a.mu.Unlock()

	a.subject.Notify()
	return removed
}

// Sort sorts the elements in place with the supplied comparison and
// notifies the collection Subject. The sort is stable.
func (a *Array) Sort(less func(x, y any) bool) {
	a.mu.Lock()
	sort.SliceStable(a.items, func(i, j int) bool {
		return less(a.items[i], a.items[j])
	})
	a.mu.Unlock()
	a.subject.Notify()
}

// Reverse reverses the elements in place and notifies.
func (a *Array) Reverse() {
	a.mu.Lock()
	for i, j := 0, len(a.items)-1; i < j; i, j = i+1, j-1 {
		a.items[i], a.items[j] = a.items[j], a.items[i]
	}
	a.mu.Unlock()
	a.subject.Notify()
}

// SetIndex is the escape hatch for index assignment. Within bounds it is
// equivalent, for observation purposes, to Splice(i, 1, value). Past the
// end it grows the array, padding with nils.
func (a *Array) SetIndex(i int, value any) {
	if i < 0 {
		return
	}

	a.mu.Lock()
	if i < len(a.items) {
		a.mu.Unlock()
		a.Splice(i, 1, value)
		return
	}
	for len(a.items) < i {
		a.items = append(a.items, nil)
	}
	a.items = append(a.items, instrument(value))
	a.mu.Unlock()
	a.subject.Notify()
}

// DeleteIndex is the escape hatch for element removal; equivalent to
// Splice(i, 1). Out-of-bounds is a no-op.
func (a *Array) DeleteIndex(i int) {
	a.mu.Lock()
	n := len(a.items)
	a.mu.Unlock()
	if i < 0 || i >= n {
		return
	}
	a.Splice(i, 1)
}

// AddRootRef records that a mounted root uses this array as root state.
func (a *Array) AddRootRef() {
	a.mu.Lock()
	a.rootRefs++
	a.mu.Unlock()
}

// ReleaseRootRef undoes AddRootRef.
func (a *Array) ReleaseRootRef() {
	a.mu.Lock()
	if a.rootRefs > 0 {
		a.rootRefs--
	}
	a.mu.Unlock()
}

// dependArray registers the evaluating watcher with the collection Subject
// of an array and, recursively, of every nested instrumented value. An
// array read implies a dependency on everything reachable from it, since
// elements are not tracked individually.
func dependArray(a *Array) {
	a.subject.Depend()

	a.mu.Lock()
	items := make([]any, len(a.items))
	copy(items, a.items)
	a.mu.Unlock()

	for _, it := range items {
		switch child := it.(type) {
		case *Object:
			child.shape.Depend()
		case *Array:
			dependArray(child)
		}
	}
}

// sameRef compares two values by identity: pointer equality for maps,
// slices, pointers, and instrumented records; == for comparable scalars.
// Structural equality is deliberately not used.
func sameRef(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	}
	if ra.Type() != rb.Type() || !ra.Type().Comparable() {
		return false
	}
	return a == b
}

// isMutable reports whether a value is a reference type whose contents can
// change without a new identity. Watcher callbacks fire for such values
// even when the identity is unchanged.
func isMutable(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case *Object, *Array:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr:
		return true
	}
	return false
}
