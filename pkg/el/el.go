package el

import "github.com/ripple-ui/ripple/pkg/vdom"

// Attr is a plain string attribute. An Attr with the key "key" sets the
// node's reconciliation key and "class" sets the class field; everything
// else lands in the attribute map.
type Attr struct {
	Key   string
	Value string
}

// Style is one inline style declaration.
type Style struct {
	Prop  string
	Value string
}

// Handler binds a named event to a handler value. The handler is opaque
// to the builder; the hosting runtime decides what it accepts.
type Handler struct {
	Event string
	Fn    any
}

// E builds an element node from a variadic argument list.
// Arguments can be: nil, Attr, []Attr, Style, Handler, *vdom.VNode,
// []*vdom.VNode, or string (shorthand for a text child). Anything else
// is silently ignored.
func E(tag string, args ...any) *vdom.VNode {
	node := &vdom.VNode{Kind: vdom.KindElement, Tag: tag}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue

		case Attr:
			applyAttr(node, v)

		case []Attr:
			for _, a := range v {
				applyAttr(node, a)
			}

		case Style:
			d := data(node)
			if d.Style == nil {
				d.Style = make(map[string]string)
			}
			d.Style[v.Prop] = v.Value

		case Handler:
			d := data(node)
			if d.On == nil {
				d.On = make(map[string]any)
			}
			d.On[v.Event] = v.Fn

		case *vdom.VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}

		case []*vdom.VNode:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}

		case string:
			node.Children = append(node.Children, vdom.NewText(v))
		}
	}

	return node
}

// Text creates a text node.
func Text(s string) *vdom.VNode { return vdom.NewText(s) }

// Comment creates a comment node.
func Comment(s string) *vdom.VNode { return vdom.NewComment(s) }

// Map renders each item of a slice through fn and drops nils. It keeps
// keyed list-building expressions flat.
func Map[T any](items []T, fn func(T) *vdom.VNode) []*vdom.VNode {
	out := make([]*vdom.VNode, 0, len(items))
	for _, item := range items {
		if n := fn(item); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// If returns node when cond holds, nil otherwise.
func If(cond bool, node *vdom.VNode) *vdom.VNode {
	if cond {
		return node
	}
	return nil
}

func applyAttr(node *vdom.VNode, a Attr) {
	switch a.Key {
	case "":
	case "key":
		node.Key = a.Value
	case "class":
		data(node).Class = a.Value
	default:
		d := data(node)
		if d.Attrs == nil {
			d.Attrs = make(map[string]string)
		}
		d.Attrs[a.Key] = a.Value
	}
}

// data returns the node's data bag, allocating it on first use so that
// bare elements stay data-free.
func data(node *vdom.VNode) *vdom.VData {
	if node.Data == nil {
		node.Data = &vdom.VData{}
	}
	return node.Data
}
