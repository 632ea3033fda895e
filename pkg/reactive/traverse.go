package reactive

// Traverse walks every value reachable from v so that each nested Subject
// registers the currently evaluating watcher. Deep watchers call this
// after every evaluation. Cycles are broken by remembering visited
// collection Subjects.
func Traverse(v any) {
	seen := make(map[uint64]struct{})
	traverse(v, seen)
}

func traverse(v any, seen map[uint64]struct{}) {
	switch val := v.(type) {
	case *Object:
		if _, ok := seen[val.shape.ID()]; ok {
			return
		}
		seen[val.shape.ID()] = struct{}{}
		for _, key := range val.Keys() {
			traverse(val.Get(key), seen)
		}
	case *Array:
		if _, ok := seen[val.subject.ID()]; ok {
			return
		}
		seen[val.subject.ID()] = struct{}{}
		n := val.Len()
		for i := 0; i < n; i++ {
			traverse(val.Index(i), seen)
		}
	}
}
