package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentPlainMap(t *testing.T) {
	obj, ok := Instrument(map[string]any{"name": "ada", "age": 36}).(*Object)
	require.True(t, ok)

	assert.Equal(t, "ada", obj.Get("name"))
	assert.Equal(t, 36, obj.Get("age"))
	assert.Nil(t, obj.Get("missing"))
}

func TestInstrumentIdempotent(t *testing.T) {
	m := map[string]any{"x": 1}
	first := Instrument(m)
	second := Instrument(m)
	assert.Same(t, first, second)

	// Instrumenting an already instrumented value returns it unchanged.
	assert.Same(t, first, Instrument(first))
}

func TestInstrumentNonPlainValuesNoOp(t *testing.T) {
	type point struct{ X, Y int }

	p := point{1, 2}
	assert.Equal(t, p, Instrument(p))
	assert.Equal(t, 42, Instrument(42))
	assert.Equal(t, "s", Instrument("s"))
	assert.Nil(t, Instrument(nil))
}

func TestFrozenValuesNotInstrumented(t *testing.T) {
	m := Freeze(map[string]any{"x": 1}).(map[string]any)
	out := Instrument(m)
	_, isObject := out.(*Object)
	assert.False(t, isObject)
}

func TestNestedValuesInstrumentedLazily(t *testing.T) {
	obj := Instrument(map[string]any{
		"address": map[string]any{"city": "berlin"},
		"tags":    []any{"a", "b"},
	}).(*Object)

	addr, ok := obj.Get("address").(*Object)
	require.True(t, ok)
	assert.Equal(t, "berlin", addr.Get("city"))

	tags, ok := obj.Get("tags").(*Array)
	require.True(t, ok)
	assert.Equal(t, 2, tags.Len())
	assert.Equal(t, "a", tags.Index(0))

	// Repeated traversal yields the same records.
	assert.Same(t, addr, obj.Get("address"))
	assert.Same(t, tags, obj.Get("tags"))
}

func TestUnrelatedWritesNeverScheduleWatcher(t *testing.T) {
	obj := Instrument(map[string]any{"a": 1, "b": 2}).(*Object)

	sched := NewScheduler()
	runs := 0
	NewWatcher(sched, func() any {
		runs++
		return obj.Get("a")
	}, nil)
	require.Equal(t, 1, runs)

	for i := 0; i < 10; i++ {
		obj.Set("b", i*100)
	}
	assert.Equal(t, 1, runs, "watcher reading only a must not re-run on writes to b")

	obj.Set("a", 2)
	assert.Equal(t, 2, runs)
}

func TestIdentityWriteDoesNotNotify(t *testing.T) {
	shared := map[string]any{"inner": 1}
	obj := Instrument(map[string]any{"n": 5, "m": shared}).(*Object)

	sched := NewScheduler()
	runs := 0
	NewWatcher(sched, func() any {
		runs++
		obj.Get("n")
		obj.Get("m")
		return nil
	}, nil)
	require.Equal(t, 1, runs)

	obj.Set("n", 5)
	assert.Equal(t, 1, runs, "same scalar value must short-circuit")

	// Writing the instrumented record that already backs the property is
	// an identity write too.
	obj.Set("m", obj.Get("m"))
	assert.Equal(t, 1, runs, "same reference must short-circuit")

	obj.Set("n", 6)
	assert.Equal(t, 2, runs)
}

func TestRawValueIdentityWriteDoesNotNotify(t *testing.T) {
	sharedMap := map[string]any{"inner": 1}
	sharedSlice := []any{1, 2}
	obj := Instrument(map[string]any{"m": sharedMap, "s": sharedSlice}).(*Object)

	sched := NewScheduler()
	runs := 0
	NewWatcher(sched, func() any {
		runs++
		obj.Get("m")
		obj.Get("s")
		return nil
	}, nil)
	require.Equal(t, 1, runs)

	// Writing back the raw values already backing the properties
	// resolves to the same records and must short-circuit.
	obj.Set("m", sharedMap)
	obj.Set("s", sharedSlice)
	assert.Equal(t, 1, runs)

	obj.Set("m", map[string]any{"inner": 1})
	assert.Equal(t, 2, runs, "a structurally equal but distinct map is a change")
}

func TestSharedSliceSharesOneRecord(t *testing.T) {
	shared := []any{"x"}
	obj := Instrument(map[string]any{"a": shared, "b": shared}).(*Object)

	a, ok := obj.Get("a").(*Array)
	require.True(t, ok)
	b, ok := obj.Get("b").(*Array)
	require.True(t, ok)
	assert.Same(t, a, b)
	assert.Same(t, a, Instrument(shared))

	// Mutations through one parent are visible through the other.
	a.Push("y")
	assert.Equal(t, 2, b.Len())
}

func TestFreezeEmptySliceStaysInstrumentable(t *testing.T) {
	// An empty slice has no backing array to record the freeze against.
	empty := Freeze([]any{}).([]any)
	_, isArray := Instrument(empty).(*Array)
	assert.True(t, isArray)
}

func TestSetNewPropertyNotifiesShapeReaders(t *testing.T) {
	obj := Instrument(map[string]any{"a": 1}).(*Object)

	sched := NewScheduler()
	var seen []string
	NewWatcher(sched, func() any {
		seen = obj.Keys()
		return nil
	}, nil)
	require.Equal(t, []string{"a"}, seen)

	obj.Set("b", 2)
	assert.Equal(t, []string{"a", "b"}, seen)

	obj.Delete("a")
	assert.Equal(t, []string{"b"}, seen)
}

func TestDeleteNotifiesPropertyReaders(t *testing.T) {
	obj := Instrument(map[string]any{"a": 1}).(*Object)

	sched := NewScheduler()
	var got any
	NewWatcher(sched, func() any {
		got = obj.Get("a")
		return got
	}, nil)
	require.Equal(t, 1, got)

	obj.Delete("a")
	assert.Nil(t, got)
}

func TestNestedEscapeHatchSetObservedThroughParentRead(t *testing.T) {
	obj := Instrument(map[string]any{
		"profile": map[string]any{"name": "ada"},
	}).(*Object)

	sched := NewScheduler()
	runs := 0
	NewWatcher(sched, func() any {
		runs++
		return obj.Get("profile")
	}, nil)
	require.Equal(t, 1, runs)

	profile := obj.Get("profile").(*Object)
	profile.Set("email", "ada@example.com")
	assert.Equal(t, 2, runs, "adding a key to a child re-runs readers of the parent property")
}

func TestRootStateRefusesNewProperties(t *testing.T) {
	obj := Instrument(map[string]any{"a": 1}).(*Object)
	obj.AddRootRef()
	defer obj.ReleaseRootRef()

	obj.Set("b", 2)
	assert.False(t, obj.Has("b"))

	// Existing properties still writable.
	obj.Set("a", 3)
	assert.Equal(t, 3, obj.Get("a"))
}

func TestArrayMutatorsNotify(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(a *Array)
		want   []any
	}{
		{"push", func(a *Array) { a.Push(4) }, []any{1, 2, 3, 4}},
		{"pop", func(a *Array) { a.Pop() }, []any{1, 2}},
		{"shift", func(a *Array) { a.Shift() }, []any{2, 3}},
		{"unshift", func(a *Array) { a.Unshift(0) }, []any{0, 1, 2, 3}},
		{"splice", func(a *Array) { a.Splice(1, 1, 9, 10) }, []any{1, 9, 10, 3}},
		{"reverse", func(a *Array) { a.Reverse() }, []any{3, 2, 1}},
		{"sort", func(a *Array) {
			a.Sort(func(x, y any) bool { return x.(int) > y.(int) })
		}, []any{3, 2, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			arr := Instrument([]any{1, 2, 3}).(*Array)

			sched := NewScheduler()
			var snapshot []any
			runs := 0
			NewWatcher(sched, func() any {
				runs++
				snapshot = arr.Slice()
				return nil
			}, nil)
			require.Equal(t, 1, runs)

			tc.mutate(arr)
			assert.Equal(t, 2, runs)
			assert.Equal(t, tc.want, snapshot)
		})
	}
}

func TestSpliceReturnsRemoved(t *testing.T) {
	arr := Instrument([]any{1, 2, 3, 4}).(*Array)
	removed := arr.Splice(1, 2)
	assert.Equal(t, []any{2, 3}, removed)
	assert.Equal(t, []any{1, 4}, arr.Slice())
}

func TestSetIndexEquivalentToSplice(t *testing.T) {
	viaSet := Instrument([]any{1, 2, 3}).(*Array)
	viaSplice := Instrument([]any{1, 2, 3}).(*Array)

	sched := NewScheduler()
	setRuns, spliceRuns := 0, 0
	NewWatcher(sched, func() any { setRuns++; return viaSet.Index(1) }, nil)
	NewWatcher(sched, func() any { spliceRuns++; return viaSplice.Index(1) }, nil)

	viaSet.SetIndex(1, 99)
	viaSplice.Splice(1, 1, 99)

	assert.Equal(t, spliceRuns, setRuns, "SetIndex and Splice must be observationally equivalent")
	assert.Equal(t, viaSplice.Slice(), viaSet.Slice())
}

func TestSetIndexGrowsPastEnd(t *testing.T) {
	arr := Instrument([]any{1}).(*Array)
	arr.SetIndex(3, 9)
	assert.Equal(t, []any{1, nil, nil, 9}, arr.Slice())
}

func TestDeleteIndex(t *testing.T) {
	arr := Instrument([]any{1, 2, 3}).(*Array)

	sched := NewScheduler()
	runs := 0
	NewWatcher(sched, func() any { runs++; return arr.Len() }, nil)

	arr.DeleteIndex(1)
	assert.Equal(t, []any{1, 3}, arr.Slice())
	assert.Equal(t, 2, runs)

	arr.DeleteIndex(10)
	assert.Equal(t, 2, runs, "out-of-bounds delete is a no-op")
}

func TestUntrackedReadsRegisterNothing(t *testing.T) {
	obj := Instrument(map[string]any{"a": 1}).(*Object)

	sched := NewScheduler()
	runs := 0
	NewWatcher(sched, func() any {
		runs++
		var v any
		Untracked(func() { v = obj.Get("a") })
		return v
	}, nil)
	require.Equal(t, 1, runs)

	obj.Set("a", 2)
	assert.Equal(t, 1, runs)
}
