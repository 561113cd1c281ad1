package packets

import (
	"sync"

	"github.com/vango-dev/craftwire/pkg/packet"
)

const (
	hs = packet.Handshaking
	st = packet.Status
	lg = packet.Login
	pl = packet.Play
	cb = packet.Clientbound
	sb = packet.Serverbound
)

// Bindings returns the protocol 47 packet table. Callers may append their
// own bindings and build a wider registry with packet.NewRegistry.
func Bindings() []packet.Binding {
	return []packet.Binding{
		{State: hs, Direction: sb, ID: 0x00, New: func() packet.Packet { return &Handshake{} }},

		{State: st, Direction: sb, ID: 0x00, New: func() packet.Packet { return &StatusRequest{} }},
		{State: st, Direction: sb, ID: 0x01, New: func() packet.Packet { return &StatusPing{} }},
		{State: st, Direction: cb, ID: 0x00, New: func() packet.Packet { return &StatusResponse{} }},
		{State: st, Direction: cb, ID: 0x01, New: func() packet.Packet { return &StatusPong{} }},

		{State: lg, Direction: sb, ID: 0x00, New: func() packet.Packet { return &LoginStart{} }},
		{State: lg, Direction: sb, ID: 0x01, New: func() packet.Packet { return &EncryptionResponse{} }},
		{State: lg, Direction: cb, ID: 0x00, New: func() packet.Packet { return &LoginDisconnect{} }},
		{State: lg, Direction: cb, ID: 0x01, New: func() packet.Packet { return &EncryptionRequest{} }},
		{State: lg, Direction: cb, ID: 0x02, New: func() packet.Packet { return &LoginSuccess{} }},
		{State: lg, Direction: cb, ID: 0x03, New: func() packet.Packet { return &SetCompression{} }},

		{State: pl, Direction: cb, ID: 0x00, New: func() packet.Packet { return &KeepAlive{} }},
		{State: pl, Direction: cb, ID: 0x01, New: func() packet.Packet { return &JoinGame{} }},
		{State: pl, Direction: cb, ID: 0x02, New: func() packet.Packet { return &ChatMessage{} }},
		{State: pl, Direction: cb, ID: 0x08, New: func() packet.Packet { return &PlayerPositionAndLook{} }},
		{State: pl, Direction: cb, ID: 0x3A, New: func() packet.Packet { return &TabCompleteResponse{} }},
		{State: pl, Direction: cb, ID: 0x40, New: func() packet.Packet { return &Disconnect{} }},

		{State: pl, Direction: sb, ID: 0x00, New: func() packet.Packet { return &KeepAlive{} }},
		{State: pl, Direction: sb, ID: 0x01, New: func() packet.Packet { return &SendChatMessage{} }},
		{State: pl, Direction: sb, ID: 0x06, New: func() packet.Packet { return &PositionAndLook{} }},
		{State: pl, Direction: sb, ID: 0x14, New: func() packet.Packet { return &TabComplete{} }},
		{State: pl, Direction: sb, ID: 0x16, New: func() packet.Packet { return &ClientStatus{} }},
	}
}

// Built lazily. The type tags are reached only through interface calls,
// which package initialization order does not follow.
var defaultRegistry = sync.OnceValue(func() *packet.Registry {
	return packet.MustRegistry(Bindings()...)
})

// Registry returns the shared protocol 47 registry.
func Registry() *packet.Registry {
	return defaultRegistry()
}
