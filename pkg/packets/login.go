package packets

import (
	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/protocol"
)

// Login packet tags.
var (
	LoginStartType         = packet.NewType("LoginStart", nil)
	EncryptionResponseType = packet.NewType("EncryptionResponse", nil)
	LoginDisconnectType    = packet.NewType("LoginDisconnect", nil)
	EncryptionRequestType  = packet.NewType("EncryptionRequest", nil)
	LoginSuccessType       = packet.NewType("LoginSuccess", nil)
	SetCompressionType     = packet.NewType("SetCompression", nil)
)

// LoginStart names the player logging in.
type LoginStart struct {
	Name string
}

func (*LoginStart) Type() *packet.Type { return LoginStartType }

func (p *LoginStart) Fields() []packet.Field {
	return []packet.Field{packet.Bind("name", protocol.String, &p.Name)}
}

// EncryptionResponse returns the shared secret and verify token, both
// encrypted with the server's public key.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (*EncryptionResponse) Type() *packet.Type { return EncryptionResponseType }

func (p *EncryptionResponse) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("shared_secret", protocol.ByteArray, &p.SharedSecret),
		packet.Bind("verify_token", protocol.ByteArray, &p.VerifyToken),
	}
}

// LoginDisconnect rejects the login. Reason is a JSON chat component.
type LoginDisconnect struct {
	Reason string
}

func (*LoginDisconnect) Type() *packet.Type { return LoginDisconnectType }

func (p *LoginDisconnect) Fields() []packet.Field {
	return []packet.Field{packet.Bind("reason", protocol.String, &p.Reason)}
}

// EncryptionRequest starts online-mode authentication. PublicKey is a DER
// encoded PKIX RSA key.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

func (*EncryptionRequest) Type() *packet.Type { return EncryptionRequestType }

func (p *EncryptionRequest) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("server_id", protocol.String, &p.ServerID),
		packet.Bind("public_key", protocol.ByteArray, &p.PublicKey),
		packet.Bind("verify_token", protocol.ByteArray, &p.VerifyToken),
	}
}

// LoginSuccess ends the Login state. UUID is the hyphenated text form.
type LoginSuccess struct {
	UUID     string
	Username string
}

func (*LoginSuccess) Type() *packet.Type { return LoginSuccessType }

func (p *LoginSuccess) Fields() []packet.Field {
	return []packet.Field{
		packet.Bind("uuid", protocol.String, &p.UUID),
		packet.Bind("username", protocol.String, &p.Username),
	}
}

// SetCompression enables compression for bodies of at least Threshold bytes.
// A negative threshold disables it.
type SetCompression struct {
	Threshold int32
}

func (*SetCompression) Type() *packet.Type { return SetCompressionType }

func (p *SetCompression) Fields() []packet.Field {
	return []packet.Field{packet.Bind("threshold", protocol.VarInt, &p.Threshold)}
}
