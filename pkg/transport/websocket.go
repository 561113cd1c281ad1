package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketDialer tunnels the stream through binary WebSocket messages, for
// servers sitting behind a WebSocket proxy.
type WebSocketDialer struct {
	// Scheme is "ws" or "wss". Default: "ws".
	Scheme string

	// Path is the request path on the proxy. Default: "/".
	Path string

	// Header is sent with the upgrade request.
	Header http.Header

	// HandshakeTimeout bounds the upgrade. Default: 10s.
	HandshakeTimeout time.Duration
}

func (d WebSocketDialer) Dial(ctx context.Context, address string) (Stream, error) {
	scheme := d.Scheme
	if scheme == "" {
		scheme = "ws"
	}
	path := d.Path
	if path == "" {
		path = "/"
	}
	timeout := d.HandshakeTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}
	conn, resp, err := dialer.DialContext(ctx, scheme+"://"+address+path, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return NewWebSocketStream(conn), nil
}

// NewWebSocketStream adapts an established WebSocket connection to a
// Stream. Binary messages are concatenated into the read side; each Write
// is sent as one binary message. Text messages are dropped.
//
// A gorilla connection is unusable after a read times out, so messages are
// read by a background goroutine and read deadlines are applied to the
// hand-off instead.
func NewWebSocketStream(conn *websocket.Conn) Stream {
	s := &wsStream{
		conn: conn,
		msgs: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

type wsStream struct {
	conn *websocket.Conn
	msgs chan []byte
	done chan struct{}

	// readErr is set by pump before msgs is closed.
	readErr error
	cur     []byte

	mu       sync.Mutex
	deadline time.Time

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *wsStream) pump() {
	defer close(s.msgs)
	for {
		typ, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = err
			return
		}
		if typ != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		select {
		case s.msgs <- data:
		case <-s.done:
			return
		}
	}
}

func (s *wsStream) Read(p []byte) (int, error) {
	for len(s.cur) == 0 {
		s.mu.Lock()
		deadline := s.deadline
		s.mu.Unlock()

		var (
			timer   *time.Timer
			timeout <-chan time.Time
		)
		if !deadline.IsZero() {
			wait := time.Until(deadline)
			if wait <= 0 {
				return 0, os.ErrDeadlineExceeded
			}
			timer = time.NewTimer(wait)
			timeout = timer.C
		}

		var (
			data []byte
			ok   bool
		)
		select {
		case data, ok = <-s.msgs:
		case <-timeout:
			return 0, os.ErrDeadlineExceeded
		}
		if timer != nil {
			timer.Stop()
		}
		if !ok {
			return 0, s.closedErr()
		}
		s.cur = data
	}
	n := copy(p, s.cur)
	s.cur = s.cur[n:]
	return n, nil
}

func (s *wsStream) closedErr() error {
	err := s.readErr
	switch {
	case err == nil,
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway),
		errors.Is(err, net.ErrClosed):
		return io.EOF
	}
	return err
}

func (s *wsStream) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) SetReadDeadline(t time.Time) error {
	s.mu.Lock()
	s.deadline = t
	s.mu.Unlock()
	return nil
}

func (s *wsStream) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}
