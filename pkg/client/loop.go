package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/packets"
	"github.com/vango-dev/craftwire/pkg/protocol"
	"github.com/vango-dev/craftwire/pkg/transport"
	"go.opentelemetry.io/otel/attribute"
)

// outbound is one item of the write queue: a packet body to frame, a
// change to the outbound framing, or both. When both are set, apply runs
// right after the body is written, so no other frame can sit between them.
type outbound struct {
	body  []byte
	apply func(*protocol.FrameWriter)
}

// readLoop reads frames until the connection ends. It is the only goroutine
// that changes protocol state or touches the frame reader after open.
func (c *Connection) readLoop() {
	for !c.closed.Load() {
		if c.cfg.ReadTimeout > 0 {
			_ = c.stream.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}

		body, err := c.reader.ReadFrame()
		if err != nil {
			if isTimeout(err) {
				c.cfg.Metrics.readTimeout()
				c.logger.Debug("read timeout", "error", ErrReadTimeout, "buffered", c.reader.Buffered())
				continue
			}
			if c.closed.Load() {
				return
			}
			c.closeWith(c.readError(err))
			return
		}

		if err := c.handleFrame(body); err != nil {
			c.closeWith(err)
			return
		}
	}
}

func (c *Connection) readError(err error) error {
	if errors.Is(err, protocol.ErrFraming) || errors.Is(err, protocol.ErrValue) {
		return &ConnError{Address: c.addr.String(), Op: "read", Err: err}
	}
	return &ConnError{Address: c.addr.String(), Op: "read", Err: fmt.Errorf("%w: %w", ErrTransport, err)}
}

// handleFrame decodes one body and dispatches it: early listeners, then the
// connection's own reaction, then normal listeners. A reaction error still
// lets the normal pass see the packet.
func (c *Connection) handleFrame(body []byte) error {
	state := c.State()
	p, err := c.cfg.Registry.Decode(state, packet.Clientbound, body)
	if err != nil {
		return &ConnError{Address: c.addr.String(), Op: "decode", Err: err}
	}
	c.cfg.Metrics.packetReceived(state, p)
	if c.logger.Enabled(c.ctx, slog.LevelDebug) {
		c.logger.Debug("packet received", "state", state, "packet", packet.Format(p))
	}

	if err := c.dispatch(p, false, true); err != nil {
		return err
	}
	reactErr := c.react(state, p)
	if err := c.dispatch(p, false, false); err != nil && reactErr == nil {
		return err
	}
	return reactErr
}

// react applies the protocol's required response to an inbound packet.
func (c *Connection) react(state packet.State, p packet.Packet) error {
	switch p := p.(type) {
	case *packets.SetCompression:
		threshold := int(p.Threshold)
		c.reader.SetCompression(threshold, c.cfg.Compressor)
		if err := c.control(func(fw *protocol.FrameWriter) {
			fw.SetCompression(threshold, c.cfg.Compressor)
		}); err != nil {
			return err
		}
		if threshold < 0 {
			threshold = protocol.CompressionDisabled
		}
		c.threshold.Store(int32(threshold))
		c.spanEvent(eventCompression, attribute.Int("craftwire.threshold", threshold))
		c.logger.Info("compression enabled", "threshold", threshold)

	case *packets.EncryptionRequest:
		return c.handleEncryption(p)

	case *packets.LoginDisconnect:
		return &AuthError{Op: "login", Reason: p.Reason}

	case *packets.LoginSuccess:
		if err := c.setState(packet.Play); err != nil {
			return err
		}
		c.mu.Lock()
		c.profile = p
		c.mu.Unlock()
		c.spanEvent(eventLogin, attribute.String("craftwire.uuid", p.UUID))
		if err := c.flushPending(); err != nil {
			return err
		}
		close(c.joinedCh)

	case *packets.KeepAlive:
		if state == packet.Play {
			return c.send(&packets.KeepAlive{ID: p.ID})
		}

	case *packets.Disconnect:
		return &DisconnectError{Reason: p.Reason}

	case *packets.StatusResponse:
		status, err := ParseServerStatus(p.JSONResponse)
		if err != nil {
			return &ConnError{Address: c.addr.String(), Op: "status", Err: err}
		}
		c.status = status
		c.pingSent = time.Now()
		return c.send(&packets.StatusPing{Payload: c.pingSent.UnixMilli()})

	case *packets.StatusPong:
		if c.status == nil {
			return nil
		}
		c.status.Latency = time.Since(c.pingSent)
		select {
		case c.statusCh <- c.status:
		default:
		}
		c.status = nil
	}
	return nil
}

// dispatch runs one listener pass. Every matching listener runs even if an
// earlier one failed; the failures are returned together.
func (c *Connection) dispatch(p packet.Packet, outgoing, early bool) error {
	var errs []error
	for _, l := range c.listeners.pass(outgoing, early) {
		if c.closed.Load() {
			return nil
		}
		if !l.matches(p) {
			continue
		}
		if err := callListener(l.fn, p); err != nil {
			c.logger.Warn("listener failed", "packet", p.Type().Name(), "outgoing", outgoing, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	c.cfg.Metrics.listenerError(outgoing, len(errs))
	return &ListenerError{Packet: p.Type().Name(), Outgoing: outgoing, Errs: errs}
}

// send encodes p in the current state, runs outgoing listeners and queues
// the body for the write goroutine.
func (c *Connection) send(p packet.Packet) error {
	return c.sendThen(p, nil)
}

// sendThen is send with a framing change applied once p is on the wire.
func (c *Connection) sendThen(p packet.Packet, after func(*protocol.FrameWriter)) error {
	state := c.State()
	body, err := c.cfg.Registry.Marshal(state, packet.Serverbound, p)
	if err != nil {
		return &ConnError{Address: c.addr.String(), Op: "encode", Err: err}
	}

	for _, early := range []bool{true, false} {
		if err := c.dispatch(p, true, early); err != nil {
			c.closeWith(err)
			return err
		}
	}
	if err := c.enqueue(outbound{body: body, apply: after}); err != nil {
		return err
	}

	c.cfg.Metrics.packetSent(state, p)
	if c.logger.Enabled(c.ctx, slog.LevelDebug) {
		c.logger.Debug("packet sent", "state", state, "packet", packet.Format(p))
	}
	return nil
}

// control queues a change to the outbound framing behind every body
// already queued.
func (c *Connection) control(apply func(*protocol.FrameWriter)) error {
	return c.enqueue(outbound{apply: apply})
}

func (c *Connection) enqueue(item outbound) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.out <- item:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// flushPending sends the packets written before login, then lets Write send
// directly. Packets written while flushing are queued behind the batch.
func (c *Connection) flushPending() error {
	for {
		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		if len(batch) == 0 {
			c.joined = true
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		for _, p := range batch {
			if err := c.send(p); err != nil {
				return err
			}
		}
	}
}

// setState moves the state machine to next.
func (c *Connection) setState(next packet.State) error {
	cur := c.State()
	if !cur.CanTransition(next) {
		return &ConnError{
			Address: c.addr.String(),
			Op:      "transition",
			Err:     fmt.Errorf("%w: %s to %s", ErrInvalidTransition, cur, next),
		}
	}
	c.state.Store(int32(next))
	c.cfg.Metrics.stateChanged(next)
	c.logger.Info("state changed", "from", cur, "to", next)
	return nil
}

// writeLoop writes queued frames until the connection ends.
func (c *Connection) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case item := <-c.out:
			if len(item.body) == 0 {
				if item.apply != nil {
					item.apply(c.writer)
				}
				continue
			}
			if c.cfg.WriteTimeout > 0 {
				_ = c.stream.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			}
			if _, err := c.writer.WriteFrame(item.body); err != nil {
				if !c.closed.Load() {
					c.closeWith(&ConnError{Address: c.addr.String(), Op: "write", Err: fmt.Errorf("%w: %w", ErrTransport, err)})
				}
				return
			}
			if item.apply != nil {
				item.apply(c.writer)
			}
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// countingStream feeds the byte counters.
type countingStream struct {
	transport.Stream
	metrics *Metrics
}

func (s *countingStream) Read(p []byte) (int, error) {
	n, err := s.Stream.Read(p)
	s.metrics.received(n)
	return n, err
}

func (s *countingStream) Write(p []byte) (int, error) {
	n, err := s.Stream.Write(p)
	s.metrics.sent(n)
	return n, err
}
