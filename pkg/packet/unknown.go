package packet

import "github.com/vango-dev/craftwire/pkg/protocol"

// Unknown holds a packet whose id has no registry binding in the current
// state and direction. Encoding it reproduces Data exactly.
type Unknown struct {
	ID   int32
	Data []byte
}

func (*Unknown) Type() *Type { return UnknownType }

func (u *Unknown) Fields() []Field {
	return []Field{Bind("data", protocol.RestOfBuffer, &u.Data)}
}
