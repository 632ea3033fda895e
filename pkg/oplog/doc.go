// Package oplog turns host-tree mutations into a compact binary
// operation stream and replays such streams onto in-memory trees.
//
// The Recorder implements vdom.NodeOps over a server-side shadow tree:
// every structural operation the reconciler performs is both applied to
// the shadow and appended to the current frame. Flushing yields a
// sequence-numbered Frame whose encoded form a transport (see pkg/live)
// ships to the peer, where Apply replays it onto a Tree.
//
// The wire format is length-prefixed varint fields with a one-byte
// opcode per operation. Node identity crosses the wire as a uint64
// assigned at creation; id zero is reserved to mean "no node".
package oplog
