// Package transport provides the byte streams a connection runs over: plain
// TCP and binary WebSocket messages adapted to a stream.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the port used when an address names none.
const DefaultPort = 25565

// ErrInvalidAddress is returned by ParseAddress.
var ErrInvalidAddress = errors.New("transport: invalid server address")

// Stream is a bidirectional byte stream with deadlines. A net.Conn is a
// Stream. A timed out Read returns an error for which os.IsTimeout is true
// and leaves the stream usable.
type Stream interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer opens streams to a server address ("host:port").
type Dialer interface {
	Dial(ctx context.Context, address string) (Stream, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, address string) (Stream, error)

func (f DialerFunc) Dial(ctx context.Context, address string) (Stream, error) {
	return f(ctx, address)
}

// TCPDialer dials plain TCP.
type TCPDialer struct {
	// Timeout bounds the connect. Zero means no timeout beyond ctx.
	Timeout time.Duration

	// KeepAlive is the TCP keep-alive period. Zero uses the system default,
	// negative disables keep-alives.
	KeepAlive time.Duration
}

func (d TCPDialer) Dial(ctx context.Context, address string) (Stream, error) {
	nd := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	conn, err := nd.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Address is a parsed server address.
type Address struct {
	Host string
	Port uint16
}

// String returns host:port, bracketing IPv6 hosts.
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// ParseAddress parses "host", "host:port", "[ipv6]" or "[ipv6]:port".
// The port defaults to DefaultPort.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	host, portStr := s, ""
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return Address{}, fmt.Errorf("%w: %q: missing ']'", ErrInvalidAddress, s)
		}
		host = s[1:end]
		rest := s[end+1:]
		switch {
		case rest == "":
		case strings.HasPrefix(rest, ":"):
			portStr = rest[1:]
		default:
			return Address{}, fmt.Errorf("%w: %q: unexpected %q after ']'", ErrInvalidAddress, s, rest)
		}
	} else if i := strings.IndexByte(s, ':'); i >= 0 {
		if strings.Count(s, ":") > 1 {
			return Address{}, fmt.Errorf("%w: %q: IPv6 addresses must be enclosed in brackets", ErrInvalidAddress, s)
		}
		host, portStr = s[:i], s[i+1:]
	}

	if host == "" || strings.ContainsAny(host, "[]") {
		return Address{}, fmt.Errorf("%w: %q: bad host", ErrInvalidAddress, s)
	}

	port := uint64(DefaultPort)
	if portStr != "" {
		var err error
		port, err = strconv.ParseUint(portStr, 10, 16)
		if err != nil || port == 0 {
			return Address{}, fmt.Errorf("%w: %q: bad port %q", ErrInvalidAddress, s, portStr)
		}
	}
	return Address{Host: host, Port: uint16(port)}, nil
}
