package packet

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/vango-dev/craftwire/pkg/protocol"
)

// Packet is a decoded or outgoing protocol packet.
type Packet interface {
	// Type returns the packet's tag.
	Type() *Type

	// Fields returns the packet's schema bound to its own storage, in wire
	// order. Each call returns fresh bindings.
	Fields() []Field
}

// Field is one named entry of a packet schema, bound to the storage it
// reads into and writes from.
type Field struct {
	Name string

	read   func(*protocol.Decoder) error
	write  func(*protocol.Encoder) error
	str    func() string
	quoted bool
}

// Bind returns a field named name, encoded with codec and stored in *v.
func Bind[T any](name string, codec protocol.Codec[T], v *T) Field {
	f := Field{
		Name: name,
		read: func(d *protocol.Decoder) error {
			x, err := codec.Read(d)
			if err != nil {
				return err
			}
			*v = x
			return nil
		},
		write: func(e *protocol.Encoder) error {
			return codec.Write(e, *v)
		},
		str: func() string { return valueString(*v) },
	}
	if _, ok := any(v).(*string); ok {
		f.quoted = true
	}
	return f
}

// String returns the text form of the field's current value. Strings are
// returned as is.
func (f Field) String() string {
	return f.str()
}

func valueString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return hex.EncodeToString(x)
	}
	// fmt prints a nil Stringer pointer as <nil>.
	return fmt.Sprint(v)
}

// Decode reads p's fields from d in schema order. On failure the error of
// the first failing field is returned and p must be discarded.
func Decode(p Packet, d *protocol.Decoder) error {
	for _, f := range p.Fields() {
		if err := f.read(d); err != nil {
			return &FieldError{Packet: p.Type().Name(), Field: f.Name, Err: err}
		}
	}
	return nil
}

// Encode writes p's fields to e in schema order.
func Encode(p Packet, e *protocol.Encoder) error {
	for _, f := range p.Fields() {
		if err := f.write(e); err != nil {
			return &FieldError{Packet: p.Type().Name(), Field: f.Name, Err: err}
		}
	}
	return nil
}

// FieldString returns the text form of the field called name.
func FieldString(p Packet, name string) (string, bool) {
	for _, f := range p.Fields() {
		if f.Name == name {
			return f.String(), true
		}
	}
	return "", false
}

// Format renders p as Name(field=value, ...) for logs.
func Format(p Packet) string {
	var sb strings.Builder
	if u, ok := p.(*Unknown); ok {
		fmt.Fprintf(&sb, "Unknown[0x%02X]", u.ID)
	} else {
		sb.WriteString(p.Type().Name())
	}
	sb.WriteByte('(')
	for i, f := range p.Fields() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		if f.quoted {
			sb.WriteString(strconv.Quote(f.String()))
		} else {
			sb.WriteString(f.String())
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// FieldError attaches the packet and field name to a codec error.
type FieldError struct {
	Packet string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("packet: %s.%s: %v", e.Packet, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
