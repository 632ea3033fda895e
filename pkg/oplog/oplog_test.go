package oplog

import (
	"errors"
	"testing"

	"github.com/ripple-ui/ripple/pkg/vdom"
)

func TestFrameRoundTrip(t *testing.T) {
	f := &Frame{
		Seq: 7,
		Ops: []Op{
			{Code: OpCreateElement, ID: 1, Text: "div"},
			{Code: OpCreateText, ID: 2, Text: "hello"},
			{Code: OpCreateComment, ID: 3, Text: "anchor"},
			{Code: OpAppendChild, ID: 2, Parent: 1},
			{Code: OpInsertBefore, ID: 3, Parent: 1, Ref: 2},
			{Code: OpSetText, ID: 2, Text: "goodbye"},
			{Code: OpRemoveChild, ID: 3, Parent: 1},
			{Code: OpMountRoot, ID: 1},
		},
	}

	data := EncodeFrame(f)
	got, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if got.Seq != f.Seq {
		t.Errorf("Seq = %d, want %d", got.Seq, f.Seq)
	}
	if len(got.Ops) != len(f.Ops) {
		t.Fatalf("len(Ops) = %d, want %d", len(got.Ops), len(f.Ops))
	}
	for i, op := range got.Ops {
		if op != f.Ops[i] {
			t.Errorf("op %d = %+v, want %+v", i, op, f.Ops[i])
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	f := &Frame{
		Seq: 1,
		Ops: []Op{
			{Code: OpCreateElement, ID: 1, Text: "section"},
			{Code: OpInsertBefore, ID: 1, Parent: 2, Ref: 3},
		},
	}
	data := EncodeFrame(f)

	// Every strict prefix must fail cleanly, never panic.
	for n := 0; n < len(data); n++ {
		if _, err := DecodeFrame(data[:n]); err == nil {
			t.Errorf("DecodeFrame(data[:%d]) succeeded on truncated input", n)
		}
	}
}

func TestDecodeRejectsOversizedCount(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1)                  // seq
	e.WriteUvarint(MaxOpsPerFrame + 1) // count

	if _, err := DecodeFrame(e.Bytes()); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestDecodeRejectsCountBeyondBuffer(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1)
	e.WriteUvarint(500) // claims 500 ops, supplies none

	if _, err := DecodeFrame(e.Bytes()); err == nil {
		t.Error("expected error for op count beyond buffer")
	}
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1) // seq
	e.WriteUvarint(1) // count
	e.WriteByte(0xEE)
	e.WriteUvarint(1)

	if _, err := DecodeFrame(e.Bytes()); err == nil {
		t.Error("expected error for unknown opcode")
	}
}

// replay flushes the recorder and applies the frame to tree.
func replay(t *testing.T, r *Recorder, tree *Tree) {
	t.Helper()
	f := r.Flush()
	if f == nil {
		t.Fatal("expected a non-empty frame")
	}
	// Round-trip through the wire form so the test covers the codec too.
	decoded, err := DecodeFrame(EncodeFrame(f))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if err := tree.Apply(decoded); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

// equalTree compares structure and content, ignoring parent pointers.
func equalTree(a, b *Node) bool {
	if a.ID != b.ID || a.Tag != b.Tag || a.Text != b.Text || a.Comment != b.Comment {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !equalTree(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func keyedList(keys ...string) *vdom.VNode {
	children := make([]*vdom.VNode, len(keys))
	for i, k := range keys {
		children[i] = vdom.NewElement("li", nil, vdom.NewText(k)).WithKey(k)
	}
	return vdom.NewElement("ul", nil, children...)
}

func TestRecorderReplayMatchesShadow(t *testing.T) {
	rec := NewRecorder()
	p := vdom.New(rec, vdom.Modules{})
	tree := NewTree()

	old := keyedList("a", "b", "c")
	rec.MountRoot(p.Patch(nil, old))
	replay(t, rec, tree)

	if tree.Root() == nil {
		t.Fatal("replayed tree has no root")
	}
	if !equalTree(rec.Root(), tree.Root()) {
		t.Fatal("replayed mount differs from shadow tree")
	}

	// A reorder plus insert plus remove, replayed from the op stream
	// alone, must land on the identical structure.
	next := keyedList("c", "x", "a")
	p.Patch(old, next)
	replay(t, rec, tree)

	if !equalTree(rec.Root(), tree.Root()) {
		t.Fatal("replayed update differs from shadow tree")
	}
	if got := len(tree.Root().Children); got != 3 {
		t.Errorf("root has %d children, want 3", got)
	}
}

func TestRecorderTextUpdateReplays(t *testing.T) {
	rec := NewRecorder()
	p := vdom.New(rec, vdom.Modules{})
	tree := NewTree()

	old := vdom.NewElement("p", nil, vdom.NewText("one"))
	rec.MountRoot(p.Patch(nil, old))
	replay(t, rec, tree)

	p.Patch(old, vdom.NewElement("p", nil, vdom.NewText("two")))
	replay(t, rec, tree)

	if got := tree.Root().Children[0].Text; got != "two" {
		t.Errorf("text = %q, want %q", got, "two")
	}
}

func TestFlushEmptyReturnsNil(t *testing.T) {
	rec := NewRecorder()
	if f := rec.Flush(); f != nil {
		t.Errorf("empty flush = %+v, want nil", f)
	}
}

func TestApplySequenceGap(t *testing.T) {
	tree := NewTree()
	err := tree.Apply(&Frame{Seq: 2, Ops: nil})
	if !errors.Is(err, ErrSequenceGap) {
		t.Errorf("err = %v, want ErrSequenceGap", err)
	}
}

func TestApplyUnknownNode(t *testing.T) {
	tree := NewTree()
	err := tree.Apply(&Frame{Seq: 1, Ops: []Op{
		{Code: OpAppendChild, ID: 9, Parent: 8},
	}})
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("err = %v, want ErrUnknownNode", err)
	}
}

func TestApplyDuplicateCreate(t *testing.T) {
	tree := NewTree()
	err := tree.Apply(&Frame{Seq: 1, Ops: []Op{
		{Code: OpCreateText, ID: 1, Text: "x"},
		{Code: OpCreateText, ID: 1, Text: "y"},
	}})
	if !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("err = %v, want ErrDuplicateNode", err)
	}
}
