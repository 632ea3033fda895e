package oplog

import (
	"errors"
	"fmt"
)

// Replay errors.
var (
	ErrUnknownNode   = errors.New("oplog: op references unknown node")
	ErrDuplicateNode = errors.New("oplog: create reuses an existing node id")
	ErrSequenceGap   = errors.New("oplog: frame sequence gap")
)

// Tree replays operation frames into a node tree. It is the receiving
// half of a Recorder: applying a recorder's frames in order yields a
// tree structurally identical to the recorder's shadow.
type Tree struct {
	nodes   map[uint64]*Node
	root    *Node
	lastSeq uint64
}

// NewTree creates an empty tree expecting frame sequence one first.
func NewTree() *Tree {
	return &Tree{nodes: make(map[uint64]*Node)}
}

// Root returns the mounted root, or nil before the first MountRoot op.
func (t *Tree) Root() *Node {
	return t.root
}

// LastSeq returns the sequence number of the last applied frame.
func (t *Tree) LastSeq() uint64 {
	return t.lastSeq
}

// Apply replays one frame. Frames must arrive in sequence; a gap means
// the transport lost a flush and the tree can no longer be trusted.
func (t *Tree) Apply(f *Frame) error {
	if f.Seq != t.lastSeq+1 {
		return fmt.Errorf("%w: have %d, got %d", ErrSequenceGap, t.lastSeq, f.Seq)
	}
	for i := range f.Ops {
		if err := t.apply(&f.Ops[i]); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, f.Ops[i].Code, err)
		}
	}
	t.lastSeq = f.Seq
	return nil
}

func (t *Tree) apply(op *Op) error {
	switch op.Code {
	case OpCreateElement, OpCreateText, OpCreateComment:
		if _, exists := t.nodes[op.ID]; exists {
			return ErrDuplicateNode
		}
		n := &Node{ID: op.ID}
		switch op.Code {
		case OpCreateElement:
			n.Tag = op.Text
		case OpCreateComment:
			n.Text = op.Text
			n.Comment = true
		default:
			n.Text = op.Text
		}
		t.nodes[op.ID] = n
		return nil

	case OpInsertBefore:
		parent, child, err := t.pair(op.Parent, op.ID)
		if err != nil {
			return err
		}
		var ref *Node
		if op.Ref != 0 {
			if ref = t.nodes[op.Ref]; ref == nil {
				return ErrUnknownNode
			}
		}
		parent.insertBefore(child, ref)
		return nil

	case OpAppendChild:
		parent, child, err := t.pair(op.Parent, op.ID)
		if err != nil {
			return err
		}
		parent.insertBefore(child, nil)
		return nil

	case OpRemoveChild:
		_, child, err := t.pair(op.Parent, op.ID)
		if err != nil {
			return err
		}
		child.detach()
		t.forget(child)
		return nil

	case OpSetText:
		n := t.nodes[op.ID]
		if n == nil {
			return ErrUnknownNode
		}
		n.Text = op.Text
		n.Children = nil
		return nil

	case OpMountRoot:
		n := t.nodes[op.ID]
		if n == nil {
			return ErrUnknownNode
		}
		t.root = n
		return nil

	default:
		return fmt.Errorf("oplog: unknown opcode 0x%02x", byte(op.Code))
	}
}

// forget drops a detached subtree from the id table. Removed nodes are
// never reattached, so the ids are dead.
func (t *Tree) forget(n *Node) {
	delete(t.nodes, n.ID)
	for _, c := range n.Children {
		t.forget(c)
	}
}

func (t *Tree) pair(parentID, childID uint64) (*Node, *Node, error) {
	parent := t.nodes[parentID]
	child := t.nodes[childID]
	if parent == nil || child == nil {
		return nil, nil, ErrUnknownNode
	}
	return parent, child, nil
}
