// Package packet defines the packet model shared by the connection engine
// and the packet tables: protocol states and directions, type tags with
// single inheritance, schema-bound fields, and the (state, direction, id)
// registry.
package packet

import "fmt"

// State is a protocol state. A connection only ever moves forward through
// states.
type State uint8

// Protocol states.
const (
	Handshaking State = iota
	Status
	Login
	Play
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "Handshaking"
	case Status:
		return "Status"
	case Login:
		return "Login"
	case Play:
		return "Play"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// CanTransition reports whether a connection in state s may move to next.
// Handshaking leads to Status or Login, Login leads to Play; Status and Play
// are terminal.
func (s State) CanTransition(next State) bool {
	switch s {
	case Handshaking:
		return next == Status || next == Login
	case Login:
		return next == Play
	}
	return false
}

// Direction is the flow of a packet relative to the client.
type Direction uint8

// Packet directions.
const (
	Clientbound Direction = iota // server to client
	Serverbound                  // client to server
)

func (d Direction) String() string {
	switch d {
	case Clientbound:
		return "Clientbound"
	case Serverbound:
		return "Serverbound"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Type tags a family of packets. Listener matching walks the parent chain,
// so a listener registered on a tag also sees every packet of a derived tag.
type Type struct {
	name   string
	parent *Type
}

// Any is the root tag. Every packet, known or not, is an Any.
var Any = &Type{name: "Packet"}

// UnknownType tags packets whose id is not in the registry.
var UnknownType = NewType("Unknown", Any)

// NewType returns a tag derived from parent. A nil parent means Any.
func NewType(name string, parent *Type) *Type {
	if parent == nil {
		parent = Any
	}
	return &Type{name: name, parent: parent}
}

// Name returns the tag's name.
func (t *Type) Name() string { return t.name }

// Parent returns the tag t derives from, or nil for Any.
func (t *Type) Parent() *Type { return t.parent }

// Is reports whether t is other or derives from it.
func (t *Type) Is(other *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

func (t *Type) String() string { return t.name }
