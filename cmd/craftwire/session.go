package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/vango-dev/craftwire/pkg/client"
	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/packets"
)

const (
	// startX is the x coordinate assumed before the first teleport.
	startX = -7.5

	// The "test" input line moves the player to
	// (x+testStepX, testFeetY, testZ).
	testLine  = "test"
	testStepX = 0.5
	testFeetY = 68.0
	testZ     = -1.5
)

// relativeX is the PlayerPositionAndLook flag bit marking x as relative.
const relativeX = 0x01

// sessionConn is the part of a connection the session drives.
// *client.Connection implements it.
type sessionConn interface {
	Register(fn client.Listener, typ *packet.Type, opts ...client.ListenerOption) client.ListenerID
	Write(p packet.Packet) error
	ForceWrite(p packet.Packet) error
}

// positionTracker holds the player's last known x coordinate.
type positionTracker struct {
	mu sync.Mutex
	x  float64
}

func (t *positionTracker) X() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.x
}

// teleport applies a server PlayerPositionAndLook.
func (t *positionTracker) teleport(p *packets.PlayerPositionAndLook) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.Flags&relativeX != 0 {
		t.x += p.X
	} else {
		t.x = p.X
	}
	return t.x
}

// step advances x by d and returns the new value.
func (t *positionTracker) step(d float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.x += d
	return t.x
}

type sessionOptions struct {
	dumpPackets bool
	dumpUnknown bool
}

// session renders a connection to the terminal and turns input lines into
// packets.
type session struct {
	conn     sessionConn
	out      io.Writer
	dump     io.Writer
	opts     sessionOptions
	position positionTracker

	outMu sync.Mutex
}

func newSession(conn sessionConn, out, dump io.Writer, opts sessionOptions) *session {
	return &session{
		conn:     conn,
		out:      out,
		dump:     dump,
		opts:     opts,
		position: positionTracker{x: startX},
	}
}

// attach registers the session's listeners.
func (s *session) attach() {
	if s.opts.dumpPackets {
		s.conn.Register(s.dumpIncoming, packet.Any, client.Early())
		s.conn.Register(s.dumpOutgoing, packet.Any, client.Outgoing())
	}
	s.conn.Register(s.onJoinGame, packets.JoinGameType)
	s.conn.Register(s.onChat, packets.ChatMessageType)
	s.conn.Register(s.onPosition, packets.PlayerPositionAndLookType)
}

func (s *session) printf(w io.Writer, format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(w, format, args...)
}

func (s *session) dumpIncoming(p packet.Packet) error {
	if p.Type().Is(packet.UnknownType) {
		if s.opts.dumpUnknown {
			s.printf(s.dump, "--> [unknown packet] %s\n", packet.Format(p))
		}
		return nil
	}
	s.printf(s.dump, "--> %s\n", packet.Format(p))
	return nil
}

func (s *session) dumpOutgoing(p packet.Packet) error {
	s.printf(s.dump, "<-- %s\n", packet.Format(p))
	return nil
}

func (s *session) onJoinGame(packet.Packet) error {
	s.printf(s.out, "Connected.\n")
	return nil
}

func (s *session) onChat(p packet.Packet) error {
	msg := p.(*packets.ChatMessage)
	pos, _ := packet.FieldString(p, "position")
	s.printf(s.out, "Message (%s): %s\n", pos, msg.JSONData)
	return nil
}

func (s *session) onPosition(p packet.Packet) error {
	x := s.position.teleport(p.(*packets.PlayerPositionAndLook))
	s.printf(s.out, "Position: x=%g\n", x)
	return nil
}

// handleLine sends line as chat. The line "test" instead moves the player
// half a block along x, bypassing the login queue.
func (s *session) handleLine(line string) error {
	if line != testLine {
		return s.conn.Write(&packets.SendChatMessage{Message: line})
	}

	from := s.position.X()
	s.printf(s.out, "Testing, current x: %g\n", from)
	err := s.conn.ForceWrite(&packets.PositionAndLook{
		X:     from + testStepX,
		FeetY: testFeetY,
		Z:     testZ,
	})
	if err != nil {
		return err
	}
	s.position.step(testStepX)
	return nil
}
