package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/packets"
	"github.com/vango-dev/craftwire/pkg/protocol"
	"github.com/vango-dev/craftwire/pkg/transport"
)

// fakeServer is the server end of a net.Pipe speaking the packet tables
// from the server's side.
type fakeServer struct {
	conn   net.Conn
	reader *protocol.FrameReader
	writer *protocol.FrameWriter
	reg    *packet.Registry
	state  packet.State
}

// newFakeServer returns a server and a config whose dialer connects to it.
func newFakeServer(t *testing.T) (*fakeServer, *Config) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() {
		clientSide.Close()
		serverSide.Close()
	})

	s := &fakeServer{
		conn:   serverSide,
		reader: protocol.NewFrameReader(serverSide),
		writer: protocol.NewFrameWriter(serverSide),
		reg:    packets.Registry(),
	}

	cfg := DefaultConfig()
	cfg.Username = "Steve"
	cfg.ReadTimeout = 0
	cfg.HandshakeTimeout = 5 * time.Second
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.Dialer = transport.DialerFunc(func(ctx context.Context, address string) (transport.Stream, error) {
		return clientSide, nil
	})
	return s, cfg
}

// expect reads the next serverbound packet.
func (s *fakeServer) expect() (packet.Packet, error) {
	_ = s.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	body, err := s.reader.ReadFrame()
	if err != nil {
		return nil, err
	}
	return s.reg.Decode(s.state, packet.Serverbound, body)
}

// expectType reads the next packet and checks its type.
func (s *fakeServer) expectType(t *packet.Type) (packet.Packet, error) {
	p, err := s.expect()
	if err != nil {
		return nil, err
	}
	if p.Type() != t {
		return nil, fmt.Errorf("got %s, want %s", packet.Format(p), t.Name())
	}
	return p, nil
}

// send writes a clientbound packet in the current state.
func (s *fakeServer) send(p packet.Packet) error {
	body, err := s.reg.Marshal(s.state, packet.Clientbound, p)
	if err != nil {
		return err
	}
	return s.sendRaw(body)
}

func (s *fakeServer) sendRaw(body []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := s.writer.WriteFrame(body)
	return err
}

// acceptHandshake reads the handshake and moves to the requested state.
func (s *fakeServer) acceptHandshake() (*packets.Handshake, error) {
	p, err := s.expectType(packets.HandshakeType)
	if err != nil {
		return nil, err
	}
	hs := p.(*packets.Handshake)
	switch hs.NextState {
	case packets.NextStateStatus:
		s.state = packet.Status
	case packets.NextStateLogin:
		s.state = packet.Login
	default:
		return nil, fmt.Errorf("unexpected next state %d", hs.NextState)
	}
	return hs, nil
}

// acceptLogin reads the handshake and LoginStart, leaving the server in the
// Login state.
func (s *fakeServer) acceptLogin() (*packets.LoginStart, error) {
	if _, err := s.acceptHandshake(); err != nil {
		return nil, err
	}
	p, err := s.expectType(packets.LoginStartType)
	if err != nil {
		return nil, err
	}
	return p.(*packets.LoginStart), nil
}

// finishLogin sends LoginSuccess and moves to Play.
func (s *fakeServer) finishLogin(name string) error {
	if err := s.send(&packets.LoginSuccess{UUID: "069a79f4-44e9-4726-a5be-fca90e38aaf5", Username: name}); err != nil {
		return err
	}
	s.state = packet.Play
	return nil
}

// login runs a complete offline login.
func (s *fakeServer) login() error {
	ls, err := s.acceptLogin()
	if err != nil {
		return err
	}
	return s.finishLogin(ls.Name)
}

// serve runs script on its own goroutine. The returned func waits for it
// and fails the test on error.
func serve(t *testing.T, script func() error) func() {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- script() }()
	return func() {
		t.Helper()
		select {
		case err := <-errc:
			if err != nil {
				t.Fatalf("server: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("server script did not finish")
		}
	}
}

// connect creates a connection from cfg and logs in.
func connect(t *testing.T, cfg *Config) *Connection {
	t.Helper()
	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return c
}

// waitDone waits for the connection to end.
func waitDone(t *testing.T, c *Connection) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection did not close")
	}
}

func dialerFailing(err error) transport.Dialer {
	return transport.DialerFunc(func(context.Context, string) (transport.Stream, error) {
		return nil, err
	})
}
