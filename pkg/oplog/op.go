package oplog

import "fmt"

// OpCode identifies one host-tree operation.
type OpCode uint8

const (
	OpCreateElement OpCode = 0x01 // new element node: ID, Text=tag
	OpCreateText    OpCode = 0x02 // new text node: ID, Text
	OpCreateComment OpCode = 0x03 // new comment node: ID, Text
	OpInsertBefore  OpCode = 0x04 // attach: Parent, ID, Ref (0 appends)
	OpAppendChild   OpCode = 0x05 // attach at end: Parent, ID
	OpRemoveChild   OpCode = 0x06 // detach: Parent, ID
	OpSetText       OpCode = 0x07 // replace text content: ID, Text
	OpMountRoot     OpCode = 0x08 // declare ID as the tree root
)

// String returns the string representation of the opcode.
func (c OpCode) String() string {
	switch c {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpCreateComment:
		return "CreateComment"
	case OpInsertBefore:
		return "InsertBefore"
	case OpAppendChild:
		return "AppendChild"
	case OpRemoveChild:
		return "RemoveChild"
	case OpSetText:
		return "SetText"
	case OpMountRoot:
		return "MountRoot"
	default:
		return "Unknown"
	}
}

// Op is a single host-tree operation. Which fields are meaningful
// depends on the opcode; unused fields stay zero.
type Op struct {
	Code   OpCode
	ID     uint64
	Parent uint64
	Ref    uint64
	Text   string
}

// Frame is one flush worth of operations with a session sequence number.
type Frame struct {
	Seq uint64
	Ops []Op
}

// EncodeFrame encodes a frame to a fresh byte slice.
func EncodeFrame(f *Frame) []byte {
	e := NewEncoder()
	EncodeFrameTo(e, f)
	return e.Bytes()
}

// EncodeFrameTo encodes a frame using the provided encoder.
func EncodeFrameTo(e *Encoder, f *Frame) {
	e.WriteUvarint(f.Seq)
	e.WriteUvarint(uint64(len(f.Ops)))
	for i := range f.Ops {
		encodeOp(e, &f.Ops[i])
	}
}

func encodeOp(e *Encoder, op *Op) {
	e.WriteByte(byte(op.Code))
	e.WriteUvarint(op.ID)

	switch op.Code {
	case OpCreateElement, OpCreateText, OpCreateComment, OpSetText:
		e.WriteString(op.Text)
	case OpInsertBefore:
		e.WriteUvarint(op.Parent)
		e.WriteUvarint(op.Ref)
	case OpAppendChild, OpRemoveChild:
		e.WriteUvarint(op.Parent)
	case OpMountRoot:
		// ID is sufficient.
	}
}

// DecodeFrame decodes a frame from bytes, rejecting oversized counts
// before allocating.
func DecodeFrame(data []byte) (*Frame, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if count > MaxOpsPerFrame {
		return nil, ErrFrameTooLarge
	}
	if count > uint64(d.Remaining()) {
		// Every op occupies at least its opcode byte.
		return nil, fmt.Errorf("oplog: op count %d exceeds remaining %d bytes", count, d.Remaining())
	}

	ops := make([]Op, count)
	for i := range ops {
		if err := decodeOp(d, &ops[i]); err != nil {
			return nil, err
		}
	}
	return &Frame{Seq: seq, Ops: ops}, nil
}

func decodeOp(d *Decoder, op *Op) error {
	code, err := d.ReadByte()
	if err != nil {
		return err
	}
	op.Code = OpCode(code)

	op.ID, err = d.ReadUvarint()
	if err != nil {
		return err
	}

	switch op.Code {
	case OpCreateElement, OpCreateText, OpCreateComment, OpSetText:
		op.Text, err = d.ReadString()
	case OpInsertBefore:
		op.Parent, err = d.ReadUvarint()
		if err != nil {
			return err
		}
		op.Ref, err = d.ReadUvarint()
	case OpAppendChild, OpRemoveChild:
		op.Parent, err = d.ReadUvarint()
	case OpMountRoot:
	default:
		return fmt.Errorf("oplog: unknown opcode 0x%02x", code)
	}
	return err
}
