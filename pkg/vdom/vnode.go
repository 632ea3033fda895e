package vdom

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement   Kind = iota // concrete element with a tag
	KindText                  // text node
	KindComment               // comment node
	KindComponent             // component placeholder
	KindAsync                 // unresolved async-component placeholder
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindComponent:
		return "Component"
	case KindAsync:
		return "Async"
	default:
		return "Unknown"
	}
}

// NodeRef is an opaque handle to a materialized host node. The reconciler
// stores and forwards these; only the NodeOps implementation looks inside.
type NodeRef any

// Instance is a live component mounted behind a component placeholder.
// The reconciler only needs enough of it to find the concrete rendered
// node under a placeholder chain and to tear the component down.
type Instance interface {
	// RenderedTree returns the component's current rendered root.
	RenderedTree() *VNode

	// HostNode returns the materialized node of the rendered root, or nil
	// before mount.
	HostNode() NodeRef

	// Destroy tears down the component instance.
	Destroy()
}

// Hooks are node-level lifecycle callbacks, set by the surrounding
// component system. The reconciler invokes them; it never defines them.
type Hooks struct {
	// Init mounts a component instance for a placeholder node. Called
	// during create for KindComponent nodes.
	Init func(v *VNode)

	// Prepatch runs before a placeholder node is patched in place.
	Prepatch func(old, new *VNode)

	// Update runs after module update callbacks on a patched node.
	Update func(old, new *VNode)

	// Insert runs once the node's subtree has been materialized and
	// attached, deferred to the end of the patch pass.
	Insert func(v *VNode)

	// Destroy runs when the node's subtree is being unmounted.
	Destroy func(v *VNode)
}

// VData is the node's data bag: everything the platform modules consume,
// opaque to the reconciler except for the few well-known fields below.
type VData struct {
	Attrs   map[string]string
	Class   string
	Style   map[string]string
	On      map[string]any
	Hooks   *Hooks
	ScopeID string

	// Pre marks a subtree rendered verbatim; the reconciler still walks
	// it but module callbacks may skip it.
	Pre bool
}

// AsyncFactory produces a component tree asynchronously. Its pointer
// identity participates in the sameness predicate, so two renders of the
// same async component placeholder compare equal. Resolution and failure
// are driven by the component system between patch passes.
type AsyncFactory struct {
	resolved *VNode
	err      error
}

// NewAsyncFactory creates an unresolved factory.
func NewAsyncFactory() *AsyncFactory {
	return &AsyncFactory{}
}

// Resolve records the factory's resolved tree.
func (f *AsyncFactory) Resolve(v *VNode) {
	f.resolved = v
	f.err = nil
}

// Fail records a load failure.
func (f *AsyncFactory) Fail(err error) {
	f.err = err
}

// Resolved returns the resolved tree, or nil while pending or failed.
func (f *AsyncFactory) Resolved() *VNode {
	return f.resolved
}

// Failed reports whether the factory failed to load.
func (f *AsyncFactory) Failed() bool {
	return f.err != nil
}

// VNode describes one position in the render tree. A node handed to the
// reconciler is treated as immutable for the duration of one patch pass,
// except for the back-references the reconciler itself maintains (Host,
// Instance). Reusing the same node object at two tree positions is
// handled by cloning, never by aliasing.
type VNode struct {
	Kind     Kind
	Tag      string
	Data     *VData
	Children []*VNode
	Text     string
	Key      string

	// Host is the materialized host node, set on create or adopted from
	// the previous tree during patch.
	Host NodeRef

	// Instance is the live component behind a placeholder, set by the
	// Init hook on mount.
	Instance Instance

	// AsyncFactory is the identity of the async component this node was
	// produced by, set both on unresolved placeholders (KindAsync) and on
	// the concrete nodes rendered after resolution.
	AsyncFactory *AsyncFactory

	// IsStatic marks a subtree known immutable across renders.
	IsStatic bool

	// IsOnce marks a subtree rendered once and then frozen.
	IsOnce bool

	isCloned bool
	adopted  bool
}

// NewElement creates an element node. The key is lifted out of nothing:
// set it on the returned node or use WithKey.
func NewElement(tag string, data *VData, children ...*VNode) *VNode {
	return &VNode{Kind: KindElement, Tag: tag, Data: data, Children: children}
}

// NewText creates a text node.
func NewText(text string) *VNode {
	return &VNode{Kind: KindText, Text: text}
}

// NewComment creates a comment node.
func NewComment(text string) *VNode {
	return &VNode{Kind: KindComment, Text: text}
}

// NewComponent creates a component placeholder whose mounting is driven
// by the data bag's Init hook.
func NewComponent(name string, data *VData) *VNode {
	return &VNode{Kind: KindComponent, Tag: name, Data: data}
}

// NewAsyncPlaceholder creates an unresolved async placeholder for the
// given factory.
func NewAsyncPlaceholder(f *AsyncFactory) *VNode {
	return &VNode{Kind: KindAsync, AsyncFactory: f}
}

// WithKey sets the reconciliation key and returns the node.
func (v *VNode) WithKey(key string) *VNode {
	v.Key = key
	return v
}

// Clone produces a shallow copy used when one node object would otherwise
// appear at two tree positions. Sharing would alias the materialized-node
// back-reference; the clone gets its own.
func (v *VNode) Clone() *VNode {
	c := &VNode{
		Kind:         v.Kind,
		Tag:          v.Tag,
		Data:         v.Data,
		Text:         v.Text,
		Key:          v.Key,
		Host:         v.Host,
		Instance:     v.Instance,
		AsyncFactory: v.AsyncFactory,
		IsStatic:     v.IsStatic,
		IsOnce:       v.IsOnce,
		isCloned:     true,
	}
	if v.Children != nil {
		c.Children = make([]*VNode, len(v.Children))
		copy(c.Children, v.Children)
	}
	return c
}

// Adopt wraps an existing materialized host element in a render node so a
// new tree can be patched against it (initial mount onto a live tree).
func Adopt(host NodeRef, tag string) *VNode {
	return &VNode{Kind: KindElement, Tag: tag, Host: host, adopted: true}
}

// isComment reports whether the node renders as a comment, which includes
// unresolved async placeholders.
func (v *VNode) isComment() bool {
	return v.Kind == KindComment || v.Kind == KindAsync
}

// inputType returns the well-known input "type" attribute for the
// text-input special case of the sameness predicate.
func (v *VNode) inputType() string {
	if v.Tag != "input" || v.Data == nil {
		return ""
	}
	return v.Data.Attrs["type"]
}
