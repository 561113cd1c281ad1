package packets

import (
	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/protocol"
)

// Status packet tags.
var (
	StatusRequestType  = packet.NewType("StatusRequest", nil)
	StatusResponseType = packet.NewType("StatusResponse", nil)
	StatusPingType     = packet.NewType("StatusPing", nil)
	StatusPongType     = packet.NewType("StatusPong", nil)
)

// StatusRequest asks for the server list status. It has no fields.
type StatusRequest struct{}

func (*StatusRequest) Type() *packet.Type     { return StatusRequestType }
func (*StatusRequest) Fields() []packet.Field { return nil }

// StatusResponse carries the server status as a JSON document.
type StatusResponse struct {
	JSONResponse string
}

func (*StatusResponse) Type() *packet.Type { return StatusResponseType }

func (p *StatusResponse) Fields() []packet.Field {
	return []packet.Field{packet.Bind("json_response", protocol.String, &p.JSONResponse)}
}

// StatusPing carries a client chosen payload the server echoes in a
// StatusPong.
type StatusPing struct {
	Payload int64
}

func (*StatusPing) Type() *packet.Type { return StatusPingType }

func (p *StatusPing) Fields() []packet.Field {
	return []packet.Field{packet.Bind("payload", protocol.Long, &p.Payload)}
}

type StatusPong struct {
	Payload int64
}

func (*StatusPong) Type() *packet.Type { return StatusPongType }

func (p *StatusPong) Fields() []packet.Field {
	return []packet.Field{packet.Bind("payload", protocol.Long, &p.Payload)}
}
