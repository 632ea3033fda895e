package oplog

import "github.com/ripple-ui/ripple/pkg/vdom"

// Node is one node of a shadow or replayed tree.
type Node struct {
	ID       uint64
	Tag      string
	Text     string
	Comment  bool
	Parent   *Node
	Children []*Node
}

func (n *Node) detach() {
	p := n.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

func (n *Node) insertBefore(child, ref *Node) {
	child.detach()
	if ref == nil {
		n.Children = append(n.Children, child)
	} else {
		for i, c := range n.Children {
			if c == ref {
				n.Children = append(n.Children[:i],
					append([]*Node{child}, n.Children[i:]...)...)
				break
			}
		}
	}
	child.Parent = n
}

// Recorder implements vdom.NodeOps over a shadow tree while logging
// every structural operation. The reconciler queries the shadow for
// structure (Parent, NextSibling) exactly as it would a live host, so
// the logged ops replay to an identical tree.
type Recorder struct {
	nextID uint64
	seq    uint64
	ops    []Op
	root   *Node
}

// NewRecorder creates an empty recorder. Frame sequence numbers start
// at one.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Root returns the declared root of the shadow tree, or nil.
func (r *Recorder) Root() *Node {
	return r.root
}

// MountRoot declares the given node as the tree root, recording it for
// the peer.
func (r *Recorder) MountRoot(ref vdom.NodeRef) {
	n := ref.(*Node)
	r.root = n
	r.ops = append(r.ops, Op{Code: OpMountRoot, ID: n.ID})
}

// Flush returns the buffered operations as a sequenced frame and starts
// a new one. A flush with no operations returns nil.
func (r *Recorder) Flush() *Frame {
	if len(r.ops) == 0 {
		return nil
	}
	r.seq++
	f := &Frame{Seq: r.seq, Ops: r.ops}
	r.ops = nil
	return f
}

// PendingOps reports the number of unflushed operations.
func (r *Recorder) PendingOps() int {
	return len(r.ops)
}

func (r *Recorder) create(tag, text string, comment bool) *Node {
	r.nextID++
	return &Node{ID: r.nextID, Tag: tag, Text: text, Comment: comment}
}

func (r *Recorder) CreateElement(tag string) vdom.NodeRef {
	n := r.create(tag, "", false)
	r.ops = append(r.ops, Op{Code: OpCreateElement, ID: n.ID, Text: tag})
	return n
}

func (r *Recorder) CreateText(text string) vdom.NodeRef {
	n := r.create("", text, false)
	r.ops = append(r.ops, Op{Code: OpCreateText, ID: n.ID, Text: text})
	return n
}

func (r *Recorder) CreateComment(text string) vdom.NodeRef {
	n := r.create("", text, true)
	r.ops = append(r.ops, Op{Code: OpCreateComment, ID: n.ID, Text: text})
	return n
}

func (r *Recorder) InsertBefore(parent, child, ref vdom.NodeRef) {
	p, c := parent.(*Node), child.(*Node)
	var refNode *Node
	op := Op{Code: OpInsertBefore, ID: c.ID, Parent: p.ID}
	if ref != nil {
		refNode = ref.(*Node)
		op.Ref = refNode.ID
	}
	p.insertBefore(c, refNode)
	r.ops = append(r.ops, op)
}

func (r *Recorder) AppendChild(parent, child vdom.NodeRef) {
	p, c := parent.(*Node), child.(*Node)
	p.insertBefore(c, nil)
	r.ops = append(r.ops, Op{Code: OpAppendChild, ID: c.ID, Parent: p.ID})
}

func (r *Recorder) RemoveChild(parent, child vdom.NodeRef) {
	p, c := parent.(*Node), child.(*Node)
	c.detach()
	r.ops = append(r.ops, Op{Code: OpRemoveChild, ID: c.ID, Parent: p.ID})
}

func (r *Recorder) Parent(node vdom.NodeRef) vdom.NodeRef {
	if p := node.(*Node).Parent; p != nil {
		return p
	}
	return nil
}

func (r *Recorder) NextSibling(node vdom.NodeRef) vdom.NodeRef {
	n := node.(*Node)
	if n.Parent == nil {
		return nil
	}
	sibs := n.Parent.Children
	for i, s := range sibs {
		if s == n && i+1 < len(sibs) {
			return sibs[i+1]
		}
	}
	return nil
}

func (r *Recorder) FirstChild(node vdom.NodeRef) vdom.NodeRef {
	n := node.(*Node)
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

func (r *Recorder) SetText(node vdom.NodeRef, text string) {
	n := node.(*Node)
	n.Text = text
	n.Children = nil
	r.ops = append(r.ops, Op{Code: OpSetText, ID: n.ID, Text: text})
}

func (r *Recorder) TagName(node vdom.NodeRef) string {
	return node.(*Node).Tag
}
