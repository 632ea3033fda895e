package live

import (
	"errors"

	"github.com/ripple-ui/ripple/pkg/oplog"
)

// Event is one client-to-server message: a named interaction with an
// opaque payload the handler interprets.
type Event struct {
	Seq     uint64
	Name    string
	Payload string
}

// ErrEmptyEventName rejects events with no name; nothing could dispatch
// them.
var ErrEmptyEventName = errors.New("live: event name is empty")

// EncodeEvent encodes an event to its wire form.
func EncodeEvent(ev *Event) []byte {
	e := oplog.NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteString(ev.Name)
	e.WriteString(ev.Payload)
	return e.Bytes()
}

// DecodeEvent decodes an event from its wire form.
func DecodeEvent(data []byte) (*Event, error) {
	d := oplog.NewDecoder(data)
	ev := &Event{}
	var err error
	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Name, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Name == "" {
		return nil, ErrEmptyEventName
	}
	if ev.Payload, err = d.ReadString(); err != nil {
		return nil, err
	}
	return ev, nil
}
