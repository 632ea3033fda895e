// Package el provides a terse builder vocabulary for vdom render trees.
//
// Element constructors take a variadic argument list and sort the
// arguments by type: Attr and Style values land in the node's data bag,
// Handler values in its event map, *vdom.VNode and []*vdom.VNode become
// children, and plain strings become text nodes. Nil arguments are
// ignored, which makes conditional attributes and children read
// naturally:
//
//	el.Ul(el.Class("todos"),
//		el.Li(el.Key(todo.ID), todo.Title),
//	)
package el
