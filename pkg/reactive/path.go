package reactive

import (
	"strconv"
	"strings"
)

// ParsePath compiles a dotted path expression ("user.address.city",
// "todos.0.done") into a getter over an instrumented value graph. Path
// segments may be property names or array indices. Reading through the
// getter registers the evaluating watcher with every Subject along the
// path. A path that walks off the graph yields nil.
func ParsePath(path string) (func(root any) any, error) {
	if path == "" || !isValidPath(path) {
		return nil, ErrBadPath
	}

	segments := strings.Split(path, ".")
	return func(root any) any {
		val := root
		for _, seg := range segments {
			switch v := val.(type) {
			case *Object:
				val = v.Get(seg)
			case *Array:
				i, err := strconv.Atoi(seg)
				if err != nil {
					return nil
				}
				val = v.Index(i)
			default:
				return nil
			}
		}
		return val
	}, nil
}

func isValidPath(path string) bool {
	for _, r := range path {
		ok := r == '.' || r == '_' || r == '$' ||
			(r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z')
		if !ok {
			return false
		}
	}
	return true
}
