package packets

import (
	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/protocol"
)

// Play packet tags.
var (
	KeepAliveType             = packet.NewType("KeepAlive", nil)
	JoinGameType              = packet.NewType("JoinGame", nil)
	ChatMessageType           = packet.NewType("ChatMessage", nil)
	PlayerPositionAndLookType = packet.NewType("PlayerPositionAndLook", nil)
	TabCompleteResponseType   = packet.NewType("TabCompleteResponse", nil)
	DisconnectType            = packet.NewType("Disconnect", nil)

	SendChatMessageType = packet.NewType("SendChatMessage", nil)
	PositionAndLookType = packet.NewType("PositionAndLook", nil)
	TabCompleteType     = packet.NewType("TabComplete", nil)
	ClientStatusType    = packet.NewType("ClientStatus", nil)
)

// Chat positions of ChatMessage.
const (
	ChatPositionChat   int8 = 0
	ChatPositionSystem int8 = 1
	ChatPositionHotbar int8 = 2
)

// ClientStatus actions.
const (
	ClientStatusRespawn      int32 = 0
	ClientStatusRequestStats int32 = 1
	ClientStatusOpenInvAchv  int32 = 2
)

// KeepAlive is sent by the server periodically; the client echoes the id
// back in a KeepAlive of its own. The layout is the same in both
// directions.
type KeepAlive struct {
	ID int32
}

func (*KeepAlive) Type() *packet.Type { return KeepAliveType }

func (p *KeepAlive) Fields() []packet.Field {
	return []packet.Field{packet.Bind("keep_alive_id", protocol.VarInt, &p.ID)}
}

// JoinGame is the first Play packet after login.
type JoinGame struct {
	EntityID         int32
	GameMode         uint8
	Dimension        int8
	Difficulty       uint8
	MaxPlayers       uint8
	LevelType        string
	ReducedDebugInfo bool
}

func (*JoinGame) Type() *packet.Type { return JoinGameType }

func (p *JoinGame) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("entity_id", protocol.Integer, &p.EntityID),
		packet.Bind("game_mode", protocol.UnsignedByte, &p.GameMode),
		packet.Bind("dimension", protocol.Byte, &p.Dimension),
		packet.Bind("difficulty", protocol.UnsignedByte, &p.Difficulty),
		packet.Bind("max_players", protocol.UnsignedByte, &p.MaxPlayers),
		packet.Bind("level_type", protocol.String, &p.LevelType),
		packet.Bind("reduced_debug_info", protocol.Boolean, &p.ReducedDebugInfo),
	}
}

// ChatMessage delivers a JSON chat component to the client.
type ChatMessage struct {
	JSONData string
	Position int8
}

func (*ChatMessage) Type() *packet.Type { return ChatMessageType }

func (p *ChatMessage) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("json_data", protocol.String, &p.JSONData),
		packet.Bind("position", protocol.Byte, &p.Position),
	}
}

// PlayerPositionAndLook teleports the player. Bits set in Flags mark the
// matching coordinate as relative.
type PlayerPositionAndLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      int8
}

func (*PlayerPositionAndLook) Type() *packet.Type { return PlayerPositionAndLookType }

func (p *PlayerPositionAndLook) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("x", protocol.Double, &p.X),
		packet.Bind("y", protocol.Double, &p.Y),
		packet.Bind("z", protocol.Double, &p.Z),
		packet.Bind("yaw", protocol.Float, &p.Yaw),
		packet.Bind("pitch", protocol.Float, &p.Pitch),
		packet.Bind("flags", protocol.Byte, &p.Flags),
	}
}

// TabCompleteResponse lists completions for a TabComplete request.
type TabCompleteResponse struct {
	Matches []string
}

func (*TabCompleteResponse) Type() *packet.Type { return TabCompleteResponseType }

func (p *TabCompleteResponse) Fields() []packet.Field {
	return []packet.Field{packet.Bind("matches", protocol.Array(protocol.String), &p.Matches)}
}

// Disconnect ends a Play session. Reason is a JSON chat component.
type Disconnect struct {
	Reason string
}

func (*Disconnect) Type() *packet.Type { return DisconnectType }

func (p *Disconnect) Fields() []packet.Field {
	return []packet.Field{packet.Bind("reason", protocol.String, &p.Reason)}
}

// SendChatMessage sends a chat line or command typed by the player.
type SendChatMessage struct {
	Message string
}

func (*SendChatMessage) Type() *packet.Type { return SendChatMessageType }

func (p *SendChatMessage) Fields() []packet.Field {
	return []packet.Field{packet.Bind("message", protocol.String, &p.Message)}
}

// PositionAndLook reports the player's position. FeetY is the y of the
// player's feet.
type PositionAndLook struct {
	X, FeetY, Z float64
	Yaw, Pitch  float32
	OnGround    bool
}

func (*PositionAndLook) Type() *packet.Type { return PositionAndLookType }

func (p *PositionAndLook) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("x", protocol.Double, &p.X),
		packet.Bind("feet_y", protocol.Double, &p.FeetY),
		packet.Bind("z", protocol.Double, &p.Z),
		packet.Bind("yaw", protocol.Float, &p.Yaw),
		packet.Bind("pitch", protocol.Float, &p.Pitch),
		packet.Bind("on_ground", protocol.Boolean, &p.OnGround),
	}
}

// TabComplete requests completions for Text. LookedAtBlock is the block
// under the crosshair, if any.
type TabComplete struct {
	Text          string
	LookedAtBlock *protocol.Position
}

func (*TabComplete) Type() *packet.Type { return TabCompleteType }

func (p *TabComplete) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("text", protocol.String, &p.Text),
		packet.Bind("looked_at_block", protocol.Optional(protocol.PositionType), &p.LookedAtBlock),
	}
}

// ClientStatus requests a respawn or statistics.
type ClientStatus struct {
	ActionID int32
}

func (*ClientStatus) Type() *packet.Type { return ClientStatusType }

func (p *ClientStatus) Fields() []packet.Field {
	return []packet.Field{packet.Bind("action_id", protocol.VarInt, &p.ActionID)}
}
