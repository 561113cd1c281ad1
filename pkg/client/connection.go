package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/packets"
	"github.com/vango-dev/craftwire/pkg/protocol"
	"github.com/vango-dev/craftwire/pkg/transport"
	"go.opentelemetry.io/otel/trace"
)

// Connection is a client connection to one server. It is created with New,
// started once with Connect or Ping, and ended with Close or by the server.
//
// A Connection runs two goroutines once started: the read goroutine decodes
// frames, updates protocol state and runs inbound listeners; the write
// goroutine owns the socket writes. All exported methods are safe for
// concurrent use.
type Connection struct {
	addr   transport.Address
	cfg    *Config
	logger *slog.Logger

	listeners listenerSet

	started atomic.Bool
	opened  atomic.Bool
	state   atomic.Int32

	// Set once by open, before either loop starts.
	stream transport.Stream
	reader *protocol.FrameReader
	writer *protocol.FrameWriter
	out    chan outbound

	mu       sync.Mutex // guards stream, pending, joined, profile
	pending  []packet.Packet
	joined   bool
	profile  *packets.LoginSuccess
	joinedCh chan struct{}

	statusCh chan *ServerStatus
	status   *ServerStatus // read goroutine only
	pingSent time.Time     // read goroutine only

	threshold atomic.Int32
	encrypted atomic.Bool
	span      atomic.Pointer[trace.Span]

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool
	errMu  sync.Mutex
	err    error
}

// Info is a snapshot of a connection for admin endpoints and logs.
type Info struct {
	Server    string       `json:"server"`
	State     packet.State `json:"-"`
	StateName string       `json:"state"`
	Username  string       `json:"username,omitempty"`
	UUID      string       `json:"uuid,omitempty"`
	Threshold int          `json:"compression_threshold"`
	Encrypted bool         `json:"encrypted"`
	Closed    bool         `json:"closed"`
	Error     string       `json:"error,omitempty"`
}

// New returns an unstarted connection to address ("host[:port]"). A nil
// cfg uses DefaultConfig; zero-valued collaborators are filled from it.
func New(address string, cfg *Config) (*Connection, error) {
	addr, err := transport.ParseAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.withDefaults()
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return nil, fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		addr:     addr,
		cfg:      cfg,
		logger:   cfg.Logger.With("server", addr.String()),
		joinedCh: make(chan struct{}),
		statusCh: make(chan *ServerStatus, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	c.threshold.Store(protocol.CompressionDisabled)
	return c, nil
}

// Register adds a listener for packets whose type is typ or derives from it.
// A nil typ means packet.Any. Listeners registered during dispatch take
// effect from the next packet.
func (c *Connection) Register(fn Listener, typ *packet.Type, opts ...ListenerOption) ListenerID {
	return c.listeners.add(fn, typ, opts)
}

// Unregister removes a listener. It reports whether id was registered.
func (c *Connection) Unregister(id ListenerID) bool {
	return c.listeners.remove(id)
}

// Connect dials the server, logs in and returns once the connection is in
// the Play state. Packets passed to Write before then are sent right after
// login succeeds. Connect fails with an *AuthError when the server or the
// session server rejects the login, and with ErrHandshakeTimeout when login
// takes longer than Config.HandshakeTimeout. On failure the connection is
// closed.
func (c *Connection) Connect(ctx context.Context) (err error) {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, span := c.startSpan(ctx, "craftwire.connect")
	c.span.Store(&span)
	defer func() {
		c.span.Store(nil)
		endSpan(span, err)
		c.cfg.Metrics.connectResult("connect", err)
		if err != nil {
			c.closeWith(err)
		}
	}()

	if err := c.open(ctx); err != nil {
		return err
	}
	if err := c.handshake(packets.NextStateLogin, packet.Login); err != nil {
		return err
	}
	if err := c.send(&packets.LoginStart{Name: c.cfg.username()}); err != nil {
		return err
	}
	go c.readLoop()

	if err := c.await(ctx, c.joinedCh); err != nil {
		return err
	}
	c.logger.Info("connected", "username", c.cfg.username(), "online", c.cfg.Online())
	return nil
}

// Ping requests the server list status and measures the round trip of a
// status ping. The connection is closed when Ping returns.
func (c *Connection) Ping(ctx context.Context) (status *ServerStatus, err error) {
	if !c.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	ctx, span := c.startSpan(ctx, "craftwire.ping")
	defer func() {
		endSpan(span, err)
		c.cfg.Metrics.connectResult("ping", err)
		if err != nil {
			c.closeWith(err)
		} else {
			c.Close()
		}
	}()

	if err := c.open(ctx); err != nil {
		return nil, err
	}
	if err := c.handshake(packets.NextStateStatus, packet.Status); err != nil {
		return nil, err
	}
	if err := c.send(&packets.StatusRequest{}); err != nil {
		return nil, err
	}
	go c.readLoop()

	ready := make(chan struct{})
	var result *ServerStatus
	go func() {
		select {
		case result = <-c.statusCh:
			close(ready)
		case <-c.done:
		}
	}()
	if err := c.await(ctx, ready); err != nil {
		return nil, err
	}
	return result, nil
}

// Write sends p. Before login has completed, p is queued and sent, in order,
// right after LoginSuccess.
func (c *Connection) Write(p packet.Packet) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.mu.Lock()
	if !c.joined {
		c.pending = append(c.pending, p)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.send(p)
}

// ForceWrite sends p at once, in the current protocol state, skipping the
// pre-login queue.
func (c *Connection) ForceWrite(p packet.Packet) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.opened.Load() {
		return ErrNotConnected
	}
	return c.send(p)
}

// Close closes the connection. It is idempotent and does not wait for the
// loops to exit, so it may be called from a listener. No listener runs
// after Close returns, except one already running.
func (c *Connection) Close() error {
	c.closeWith(ErrClosed)
	return nil
}

// Done returns a channel closed when the connection ends.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection ended: ErrClosed after Close, or
// the failure that ended it. It returns nil while the connection is open.
func (c *Connection) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// State returns the current protocol state.
func (c *Connection) State() packet.State {
	return packet.State(c.state.Load())
}

// Address returns the server address.
func (c *Connection) Address() transport.Address {
	return c.addr
}

// Info returns a snapshot of the connection.
func (c *Connection) Info() Info {
	state := c.State()
	info := Info{
		Server:    c.addr.String(),
		State:     state,
		StateName: state.String(),
		Threshold: int(c.threshold.Load()),
		Encrypted: c.encrypted.Load(),
		Closed:    c.closed.Load(),
	}
	c.mu.Lock()
	if c.profile != nil {
		info.Username = c.profile.Username
		info.UUID = c.profile.UUID
	}
	c.mu.Unlock()
	if err := c.Err(); err != nil && !errors.Is(err, ErrClosed) {
		info.Error = err.Error()
	}
	return info
}

// open dials the server and starts the write goroutine.
func (c *Connection) open(ctx context.Context) error {
	stream, err := c.cfg.Dialer.Dial(ctx, c.addr.String())
	if err != nil {
		return &ConnError{Address: c.addr.String(), Op: "dial", Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		_ = stream.Close()
		return ErrClosed
	}
	c.stream = stream
	c.mu.Unlock()

	counted := &countingStream{Stream: stream, metrics: c.cfg.Metrics}
	c.reader = protocol.NewFrameReader(counted)
	c.writer = protocol.NewFrameWriter(counted)
	c.out = make(chan outbound, c.cfg.WriteQueueSize)
	c.logger.Debug("dialed")

	go c.writeLoop()
	c.opened.Store(true)
	return nil
}

// handshake sends the Handshake packet and moves to next. It runs before
// the read goroutine starts.
func (c *Connection) handshake(nextState int32, next packet.State) error {
	err := c.send(&packets.Handshake{
		ProtocolVersion: c.cfg.ProtocolVersion,
		ServerAddress:   c.addr.Host,
		ServerPort:      c.addr.Port,
		NextState:       nextState,
	})
	if err != nil {
		return err
	}
	return c.setState(next)
}

// await blocks until ready is closed, the connection ends, ctx is done or
// the handshake timeout passes.
func (c *Connection) await(ctx context.Context, ready <-chan struct{}) error {
	timer := time.NewTimer(c.cfg.HandshakeTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		return nil
	case <-c.done:
		select {
		case <-ready:
			return nil
		default:
		}
		return c.Err()
	case <-ctx.Done():
		return &ConnError{Address: c.addr.String(), Op: "handshake", Err: ctx.Err()}
	case <-timer.C:
		return &ConnError{Address: c.addr.String(), Op: "handshake", Err: ErrHandshakeTimeout}
	}
}

// closeWith ends the connection with reason err. Only the first call has an
// effect.
func (c *Connection) closeWith(err error) {
	if c.closed.Swap(true) {
		return
	}
	if err == nil {
		err = ErrClosed
	}

	c.errMu.Lock()
	c.err = err
	c.errMu.Unlock()

	close(c.done)
	c.cancel()

	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream != nil {
		_ = stream.Close()
	}

	if errors.Is(err, ErrClosed) {
		c.logger.Info("connection closed", "state", c.State())
	} else {
		c.logger.Error("connection failed", "state", c.State(), "error", err, "class", errorClass(err))
	}
}
