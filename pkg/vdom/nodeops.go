package vdom

// NodeOps is the host tree the reconciler drives. The reconciler never
// touches attributes, classes, styles or listeners through this
// interface; those belong to Modules.
type NodeOps interface {
	CreateElement(tag string) NodeRef
	CreateText(text string) NodeRef
	CreateComment(text string) NodeRef

	// InsertBefore inserts child under parent before ref; a nil ref
	// appends.
	InsertBefore(parent, child, ref NodeRef)
	AppendChild(parent, child NodeRef)
	RemoveChild(parent, child NodeRef)

	Parent(node NodeRef) NodeRef
	NextSibling(node NodeRef) NodeRef
	FirstChild(node NodeRef) NodeRef

	SetText(node NodeRef, text string)
	TagName(node NodeRef) string
}

// ModuleFunc is one platform-module callback. Create and update
// callbacks receive the old and new node for a position; remove and
// destroy callbacks receive a zero-value old node for nodes that never
// existed before.
type ModuleFunc func(old, new *VNode)

// RemoveFunc is a removal callback that must call done exactly once when
// the module has finished with the node (for example after a leave
// transition). The host node is detached only after every module's done
// has fired.
type RemoveFunc func(v *VNode, done func())

// Modules collects the platform-effect callbacks registered with a
// Patcher. The reconciler invokes them at fixed points; it has no
// knowledge of what they do.
type Modules struct {
	// Create runs when a node's host has just been materialized, before
	// it is attached.
	Create []ModuleFunc

	// Update runs when an existing position is patched in place.
	Update []ModuleFunc

	// Remove runs when an element is about to leave the host tree. The
	// element stays attached until every callback reports done.
	Remove []RemoveFunc

	// Destroy runs for every node in an unmounted subtree.
	Destroy []ModuleFunc

	// Activate runs instead of Create for nodes adopted during
	// hydration, so modules can attach behavior without re-creating
	// server-rendered output.
	Activate []ModuleFunc
}

// emptyNode is passed as the old side to create callbacks.
var emptyNode = &VNode{Kind: KindElement}
