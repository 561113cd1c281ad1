package capture

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/craftwire/pkg/client"
	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/protocol"
)

// ErrRecorderClosed is returned by Record after Close.
var ErrRecorderClosed = errors.New("capture: recorder closed")

// Conn is the part of a connection a Recorder attaches to.
// *client.Connection implements it.
type Conn interface {
	Register(fn client.Listener, typ *packet.Type, opts ...client.ListenerOption) client.ListenerID
	Unregister(id client.ListenerID) bool
	State() packet.State
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock sets the time source used for record offsets.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithLogger sets the logger for write failures.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// WithFilter records only packets for which keep returns true.
func WithFilter(keep func(packet.Packet) bool) Option {
	return func(r *Recorder) { r.keep = keep }
}

// Recorder appends packets to a sink in capture format. It is safe for
// concurrent use: inbound and outbound packets arrive on different
// goroutines.
type Recorder struct {
	reg    *packet.Registry
	now    func() time.Time
	logger *slog.Logger
	keep   func(packet.Packet) bool

	mu      sync.Mutex
	sink    io.WriteCloser
	enc     *protocol.Encoder
	start   time.Time
	count   int
	err     error
	closed  bool
	handles []client.ListenerID
	conn    Conn
}

// NewRecorder writes the capture header to sink and returns a Recorder that
// encodes packets through reg.
func NewRecorder(sink io.WriteCloser, reg *packet.Registry, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		reg:    reg,
		now:    time.Now,
		logger: slog.Default(),
		sink:   sink,
		enc:    protocol.NewEncoderWithCap(256),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.start = r.now()
	if _, err := io.WriteString(sink, Magic); err != nil {
		return nil, err
	}
	return r, nil
}

// Attach registers early listeners on c for every inbound and outbound
// packet. Early inbound listeners run before the connection reacts to a
// packet, so each record carries the state the packet was decoded in.
func (r *Recorder) Attach(c Conn) {
	inbound := c.Register(func(p packet.Packet) error {
		r.observe(c.State(), packet.Clientbound, p)
		return nil
	}, packet.Any, client.Early())
	outbound := c.Register(func(p packet.Packet) error {
		r.observe(c.State(), packet.Serverbound, p)
		return nil
	}, packet.Any, client.Early(), client.Outgoing())

	r.mu.Lock()
	r.conn = c
	r.handles = append(r.handles, inbound, outbound)
	r.mu.Unlock()
}

// observe records p, logging instead of failing the connection when the
// sink breaks.
func (r *Recorder) observe(state packet.State, dir packet.Direction, p packet.Packet) {
	if r.keep != nil && !r.keep(p) {
		return
	}
	if err := r.Record(state, dir, p); err != nil && !errors.Is(err, ErrRecorderClosed) {
		r.logger.Warn("capture write failed", "packet", p.Type().Name(), "error", err)
	}
}

// Record encodes p and appends it. After the first write error the recorder
// stops writing and returns that error.
func (r *Recorder) Record(state packet.State, dir packet.Direction, p packet.Packet) error {
	body, err := r.reg.Marshal(state, dir, p)
	if err != nil {
		return err
	}
	id, n := protocol.DecodeVarInt(body)
	if n <= 0 {
		return protocol.ErrVarintOverflow
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return ErrRecorderClosed
	case r.err != nil:
		return r.err
	}

	r.enc.Reset()
	appendRecord(r.enc, Record{
		Offset:    r.now().Sub(r.start),
		Direction: dir,
		State:     state,
		ID:        id,
		Payload:   body[n:],
	})
	if _, err := r.sink.Write(r.enc.Bytes()); err != nil {
		r.err = err
		return err
	}
	r.count++
	return nil
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close detaches from the connection and closes the sink. It returns the
// first write error, if any, or the sink's close error.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	conn, handles := r.conn, r.handles
	r.handles = nil
	werr := r.err
	r.mu.Unlock()

	for _, id := range handles {
		conn.Unregister(id)
	}
	cerr := r.sink.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
