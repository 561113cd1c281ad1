package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/craftwire/internal/errors"
	"github.com/vango-dev/craftwire/pkg/client"
	"github.com/vango-dev/craftwire/pkg/transport"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "craftwire.json"

	// DefaultTransport is the default transport kind.
	DefaultTransport = "tcp"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "craftwire"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Config represents the complete craftwire.json configuration.
type Config struct {
	// Server is the server address, "host[:port]".
	Server string `json:"server,omitempty"`

	// Username is the player name.
	Username string `json:"username,omitempty"`

	// Offline disables online-mode authentication even when Auth is set.
	Offline bool `json:"offline,omitempty"`

	// Auth contains online-mode authentication settings.
	Auth AuthConfig `json:"auth,omitempty"`

	// Timeouts contains connection timeouts as duration strings.
	Timeouts TimeoutsConfig `json:"timeouts,omitempty"`

	// Transport selects how the socket is opened.
	Transport TransportConfig `json:"transport,omitempty"`

	// Capture configures packet capture.
	Capture CaptureConfig `json:"capture,omitempty"`

	// Admin configures the admin HTTP server.
	Admin AdminConfig `json:"admin,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Log configures logging.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// AuthConfig contains online-mode authentication settings.
type AuthConfig struct {
	// TokenEnv names the environment variable holding the access token.
	// The token itself is never stored in the file.
	TokenEnv string `json:"tokenEnv,omitempty"`

	// ProfileID is the account's profile UUID without dashes.
	ProfileID string `json:"profileId,omitempty"`

	// SessionEndpoint overrides the session server join URL.
	SessionEndpoint string `json:"sessionEndpoint,omitempty"`
}

// TimeoutsConfig contains connection timeouts (e.g., "30s").
type TimeoutsConfig struct {
	Dial      string `json:"dial,omitempty"`
	Handshake string `json:"handshake,omitempty"`
	Read      string `json:"read,omitempty"`
	Write     string `json:"write,omitempty"`
}

// TransportConfig selects the transport.
type TransportConfig struct {
	// Kind is "tcp" or "websocket".
	Kind string `json:"kind,omitempty"`

	// Scheme is the WebSocket scheme, "ws" or "wss".
	Scheme string `json:"scheme,omitempty"`

	// Path is the WebSocket request path.
	Path string `json:"path,omitempty"`
}

// CaptureConfig configures packet capture.
type CaptureConfig struct {
	// Target is a file path or an s3://bucket/key URL. Empty disables capture.
	Target string `json:"target,omitempty"`

	// S3 configures the client used for s3:// targets.
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config configures the capture upload client.
type S3Config struct {
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	// Address is the listen address. Empty disables the server.
	Address string `json:"address,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads craftwire.json from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("CW101").
				WithDetail("No config file at " + path).
				Wrap(err)
		}
		return nil, errors.New("CW102").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("CW102").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("CW102").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("CW102").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Timeouts.Dial == "" {
		c.Timeouts.Dial = "10s"
	}
	if c.Timeouts.Handshake == "" {
		c.Timeouts.Handshake = "30s"
	}
	if c.Timeouts.Read == "" {
		c.Timeouts.Read = "30s"
	}
	if c.Timeouts.Write == "" {
		c.Timeouts.Write = "10s"
	}
	if c.Transport.Kind == "" {
		c.Transport.Kind = DefaultTransport
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks if the configuration is valid. It does not require a
// server or username; commands check those once flags are applied.
func (c *Config) Validate() error {
	for _, d := range []struct{ name, value string }{
		{"timeouts.dial", c.Timeouts.Dial},
		{"timeouts.handshake", c.Timeouts.Handshake},
		{"timeouts.read", c.Timeouts.Read},
		{"timeouts.write", c.Timeouts.Write},
	} {
		if _, err := parseDuration(d.name, d.value); err != nil {
			return err
		}
	}
	switch c.Transport.Kind {
	case "tcp", "websocket":
	default:
		return errors.New("CW103").
			WithDetail(fmt.Sprintf("transport.kind %q must be \"tcp\" or \"websocket\"", c.Transport.Kind))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Server != "" {
		if _, err := transport.ParseAddress(c.Server); err != nil {
			return errors.New("CW103").WithDetail("server: " + err.Error()).Wrap(err)
		}
	}
	if !c.Offline && c.Auth.TokenEnv != "" && c.Auth.ProfileID == "" {
		return errors.New("CW103").
			WithDetail("auth.tokenEnv is set but auth.profileId is empty")
	}
	return nil
}

// Online reports whether the config authenticates with the session server.
func (c *Config) Online() bool {
	return !c.Offline && c.Auth.TokenEnv != ""
}

// ClientConfig builds a connection config. getenv resolves Auth.TokenEnv;
// pass os.Getenv outside tests.
func (c *Config) ClientConfig(getenv func(string) string) (*client.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := client.DefaultConfig()
	cfg.Username = c.Username
	cfg.ReadTimeout, _ = parseDuration("timeouts.read", c.Timeouts.Read)
	cfg.WriteTimeout, _ = parseDuration("timeouts.write", c.Timeouts.Write)
	cfg.HandshakeTimeout, _ = parseDuration("timeouts.handshake", c.Timeouts.Handshake)
	dial, _ := parseDuration("timeouts.dial", c.Timeouts.Dial)

	switch c.Transport.Kind {
	case "websocket":
		cfg.Dialer = transport.WebSocketDialer{
			Scheme:           c.Transport.Scheme,
			Path:             c.Transport.Path,
			HandshakeTimeout: dial,
		}
	default:
		cfg.Dialer = transport.TCPDialer{Timeout: dial}
	}

	if c.Online() {
		token := getenv(c.Auth.TokenEnv)
		if token == "" {
			return nil, errors.New("CW304").
				WithDetail("Environment variable " + c.Auth.TokenEnv + " is empty")
		}
		cfg.Credentials = &client.Credentials{
			Username:    c.Username,
			ProfileID:   c.Auth.ProfileID,
			AccessToken: token,
		}
		if c.Auth.SessionEndpoint != "" {
			cfg.SessionJoiner = &client.HTTPSessionJoiner{Endpoint: c.Auth.SessionEndpoint}
		}
	}
	return cfg, nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, errors.New("CW103").
			WithDetail(fmt.Sprintf("log.level %q must be debug, info, warn or error", name))
	}
	return level, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.New("CW103").
			WithDetail(fmt.Sprintf("%s: %q is not a duration (e.g., \"30s\")", name, value))
	}
	if d < 0 {
		return 0, errors.New("CW103").
			WithDetail(fmt.Sprintf("%s must not be negative", name))
	}
	return d, nil
}
