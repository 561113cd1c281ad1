package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/packets"
	"github.com/vango-dev/craftwire/pkg/protocol"
	"github.com/vango-dev/craftwire/pkg/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// maxUsernameLen is the longest name LoginStart accepts.
const maxUsernameLen = 16

// Credentials identify an online-mode player to the session server.
type Credentials struct {
	// Username is the player name sent in LoginStart.
	Username string

	// ProfileID is the undashed profile UUID.
	ProfileID string

	// AccessToken is the bearer token obtained from the account service.
	AccessToken string
}

// Config holds configuration for a connection.
type Config struct {
	// Identity

	// Username is the offline-mode player name. Ignored when Credentials is
	// set.
	Username string

	// Credentials enable online mode. Nil means offline mode.
	Credentials *Credentials

	// ProtocolVersion is sent in the handshake.
	// Default: 47.
	ProtocolVersion int32

	// Timeouts

	// ReadTimeout is the read deadline per frame. A timeout is counted and
	// logged; the connection stays open. Zero disables read deadlines.
	// Default: 30 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the deadline for writing one frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HandshakeTimeout bounds Connect and Ping.
	// Default: 30 seconds.
	HandshakeTimeout time.Duration

	// Limits

	// WriteQueueSize is the capacity of the outbound queue.
	// Default: 256.
	WriteQueueSize int

	// Collaborators

	// Dialer opens the socket.
	// Default: transport.TCPDialer with a 10 second timeout.
	Dialer transport.Dialer

	// Registry maps packet ids to types.
	// Default: packets.Registry().
	Registry *packet.Registry

	// Compressor handles compressed frames once the server enables them.
	// Default: protocol.ZlibCompressor{}.
	Compressor protocol.Compressor

	// SessionJoiner announces online-mode logins.
	// Default: HTTPSessionJoiner with the public session server.
	SessionJoiner SessionJoiner

	// Observability

	// Logger receives connection logs.
	// Default: slog.Default().
	Logger *slog.Logger

	// Metrics records Prometheus metrics. Nil disables metrics.
	Metrics *Metrics

	// Tracer creates the connect and ping spans.
	// Default: otel.Tracer("craftwire").
	Tracer trace.Tracer
}

// DefaultConfig returns a Config with sensible defaults and no identity.
func DefaultConfig() *Config {
	return &Config{
		ProtocolVersion:  packets.ProtocolVersion,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 30 * time.Second,
		WriteQueueSize:   256,
		Dialer:           transport.TCPDialer{Timeout: 10 * time.Second},
		Registry:         packets.Registry(),
		Compressor:       protocol.ZlibCompressor{},
		SessionJoiner:    &HTTPSessionJoiner{},
		Logger:           slog.Default(),
		Tracer:           otel.Tracer(tracerName),
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Credentials != nil {
		creds := *c.Credentials
		clone.Credentials = &creds
	}
	return &clone
}

// withDefaults fills zero-valued collaborators and limits from
// DefaultConfig. Durations are left alone so zero can disable them where
// documented.
func (c *Config) withDefaults() *Config {
	out := c.Clone()
	def := DefaultConfig()
	if out.ProtocolVersion == 0 {
		out.ProtocolVersion = def.ProtocolVersion
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = def.HandshakeTimeout
	}
	if out.WriteQueueSize <= 0 {
		out.WriteQueueSize = def.WriteQueueSize
	}
	if out.Dialer == nil {
		out.Dialer = def.Dialer
	}
	if out.Registry == nil {
		out.Registry = def.Registry
	}
	if out.Compressor == nil {
		out.Compressor = def.Compressor
	}
	if out.SessionJoiner == nil {
		out.SessionJoiner = def.SessionJoiner
	}
	if out.Logger == nil {
		out.Logger = def.Logger
	}
	if out.Tracer == nil {
		out.Tracer = def.Tracer
	}
	return out
}

// username returns the name sent in LoginStart.
func (c *Config) username() string {
	if c.Credentials != nil {
		return c.Credentials.Username
	}
	return c.Username
}

// Online reports whether the config authenticates with the session server.
func (c *Config) Online() bool {
	return c.Credentials != nil
}

// Validate reports whether the config can log in.
func (c *Config) Validate() error {
	name := c.username()
	if name == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidConfig)
	}
	if len(name) > maxUsernameLen {
		return fmt.Errorf("%w: username %q is longer than %d bytes", ErrInvalidConfig, name, maxUsernameLen)
	}
	if c.Credentials != nil && (c.Credentials.AccessToken == "" || c.Credentials.ProfileID == "") {
		return fmt.Errorf("%w: online mode needs an access token and profile id", ErrInvalidConfig)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}
