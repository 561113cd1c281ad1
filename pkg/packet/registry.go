package packet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vango-dev/craftwire/pkg/protocol"
)

// Registry errors.
var (
	// ErrDuplicateBinding is returned by NewRegistry when two bindings claim
	// the same (state, direction, id) or the same type within a state and
	// direction.
	ErrDuplicateBinding = errors.New("packet: duplicate binding")

	// ErrUnregistered is returned when a packet type has no id in the
	// requested state and direction.
	ErrUnregistered = errors.New("packet: type not registered")

	// ErrTrailingData reports bytes left over after a known packet's last
	// field. The frame and the schema disagree, so the stream is treated as
	// desynchronized.
	ErrTrailingData = fmt.Errorf("%w: unconsumed bytes after last field", protocol.ErrFraming)
)

// Binding maps a packet id in one state and direction to a constructor.
type Binding struct {
	State     State
	Direction Direction
	ID        int32
	New       func() Packet
}

type idKey struct {
	state State
	dir   Direction
	id    int32
}

type typeKey struct {
	state State
	dir   Direction
	typ   *Type
}

// Registry resolves packet ids to packet types and back. It is immutable
// after NewRegistry and safe for concurrent use.
type Registry struct {
	bindings []Binding
	byID     map[idKey]Binding
	byType   map[typeKey]int32
}

// NewRegistry builds a registry from bindings.
func NewRegistry(bindings ...Binding) (*Registry, error) {
	r := &Registry{
		bindings: make([]Binding, 0, len(bindings)),
		byID:     make(map[idKey]Binding, len(bindings)),
		byType:   make(map[typeKey]int32, len(bindings)),
	}
	for _, b := range bindings {
		if b.New == nil {
			return nil, fmt.Errorf("packet: %s %s 0x%02X: nil constructor", b.State, b.Direction, b.ID)
		}
		ik := idKey{b.State, b.Direction, b.ID}
		if prev, ok := r.byID[ik]; ok {
			return nil, fmt.Errorf("%w: %s %s 0x%02X bound to both %s and %s",
				ErrDuplicateBinding, b.State, b.Direction, b.ID, prev.New().Type(), b.New().Type())
		}
		tk := typeKey{b.State, b.Direction, b.New().Type()}
		if prev, ok := r.byType[tk]; ok {
			return nil, fmt.Errorf("%w: %s %s type %s bound to both 0x%02X and 0x%02X",
				ErrDuplicateBinding, b.State, b.Direction, tk.typ, prev, b.ID)
		}
		r.byID[ik] = b
		r.byType[tk] = b.ID
		r.bindings = append(r.bindings, b)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. It is meant for
// package-level tables.
func MustRegistry(bindings ...Binding) *Registry {
	r, err := NewRegistry(bindings...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the binding for id in state and direction.
func (r *Registry) Lookup(state State, dir Direction, id int32) (Binding, bool) {
	b, ok := r.byID[idKey{state, dir, id}]
	return b, ok
}

// IDOf returns the id a packet type is sent with in state and direction.
func (r *Registry) IDOf(state State, dir Direction, t *Type) (int32, bool) {
	id, ok := r.byType[typeKey{state, dir, t}]
	return id, ok
}

// Bindings returns every binding, ordered by state, direction and id.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, len(r.bindings))
	copy(out, r.bindings)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.State != b.State {
			return a.State < b.State
		}
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		return a.ID < b.ID
	})
	return out
}

// Decode turns a packet body (VarInt id followed by fields) into a packet.
// Ids without a binding yield an *Unknown, never an error. A known packet
// must consume the body exactly.
func (r *Registry) Decode(state State, dir Direction, body []byte) (Packet, error) {
	d := protocol.NewDecoder(body)
	id, err := d.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("packet: %s %s: reading id: %w", state, dir, err)
	}
	b, ok := r.byID[idKey{state, dir, id}]
	if !ok {
		return &Unknown{ID: id, Data: d.ReadRest()}, nil
	}
	p := b.New()
	if err := Decode(p, d); err != nil {
		return nil, fmt.Errorf("packet: %s %s 0x%02X: %w", state, dir, id, err)
	}
	if !d.EOF() {
		return nil, fmt.Errorf("packet: %s %s 0x%02X %s: %d bytes: %w",
			state, dir, id, p.Type(), d.Remaining(), ErrTrailingData)
	}
	return p, nil
}

// Marshal encodes p as a packet body for state and direction. An *Unknown
// is written with its own id.
func (r *Registry) Marshal(state State, dir Direction, p Packet) ([]byte, error) {
	var id int32
	if u, ok := p.(*Unknown); ok {
		id = u.ID
	} else {
		var found bool
		if id, found = r.IDOf(state, dir, p.Type()); !found {
			return nil, fmt.Errorf("%w: %s in %s %s", ErrUnregistered, p.Type(), state, dir)
		}
	}
	e := protocol.NewEncoderWithCap(64)
	e.WriteVarInt(id)
	if err := Encode(p, e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
