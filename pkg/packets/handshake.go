// Package packets holds the packet types of protocol 47 (1.8.x) and their
// default registry.
//
// Each packet is a plain struct whose Fields method binds its storage to the
// wire schema. Types are tagged with a package-level *packet.Type so
// listeners can match them exactly:
//
//	conn.Register(func(p packet.Packet) error {
//		msg := p.(*packets.ChatMessage)
//		fmt.Println(msg.JSONData)
//		return nil
//	}, packets.ChatMessageType)
package packets

import (
	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/protocol"
)

// ProtocolVersion is the protocol number these tables implement.
const ProtocolVersion = 47

// Handshake next-state values.
const (
	NextStateStatus = 1
	NextStateLogin  = 2
)

// HandshakeType tags Handshake.
var HandshakeType = packet.NewType("Handshake", nil)

// Handshake opens every connection and selects the next state.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

func (*Handshake) Type() *packet.Type { return HandshakeType }

func (p *Handshake) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("protocol_version", protocol.VarInt, &p.ProtocolVersion),
		packet.Bind("server_address", protocol.String, &p.ServerAddress),
		packet.Bind("server_port", protocol.UnsignedShort, &p.ServerPort),
		packet.Bind("next_state", protocol.VarInt, &p.NextState),
	}
}
