package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/vango-dev/craftwire/pkg/protocol"
)

// Sentinel errors for connection failures.
var (
	// ErrClosed is returned by operations on a closed connection and is the
	// close reason after an explicit Close.
	ErrClosed = errors.New("client: connection closed")

	// ErrAlreadyStarted is returned when Connect or Ping is called on a
	// connection that was already used.
	ErrAlreadyStarted = errors.New("client: connection already started")

	// ErrNotConnected is returned by ForceWrite before Connect or Ping has
	// opened the socket.
	ErrNotConnected = errors.New("client: not connected")

	// ErrTransport wraps socket failures: refused dials, resets, EOF.
	ErrTransport = errors.New("client: transport error")

	// ErrReadTimeout marks a read deadline that passed without data. It is
	// transient and never closes the connection.
	ErrReadTimeout = errors.New("client: read timeout")

	// ErrHandshakeTimeout is returned when login or status does not finish
	// within Config.HandshakeTimeout.
	ErrHandshakeTimeout = errors.New("client: handshake timeout")

	// ErrAuth is matched by every *AuthError.
	ErrAuth = errors.New("client: authentication failed")

	// ErrInvalidConfig is returned by New for unusable configurations.
	ErrInvalidConfig = errors.New("client: invalid config")

	// ErrInvalidTransition reports a protocol state change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("client: invalid state transition")

	// ErrOnlineModeRequired is the cause of an AuthError when an offline
	// connection receives an encryption request.
	ErrOnlineModeRequired = errors.New("client: server requires online mode")
)

// ConnError wraps an error with the server address and the operation that
// failed.
type ConnError struct {
	Address string
	Op      string // Operation that failed
	Err     error  // Underlying error
}

// Error returns the error message with connection context.
func (e *ConnError) Error() string {
	return fmt.Sprintf("client: %s: %s: %v", e.Address, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ConnError) Unwrap() error {
	return e.Err
}

// AuthError reports a failed login: the server rejected the client, the
// session server refused the join, or the server requires online mode.
type AuthError struct {
	Op     string // "login", "join" or "encryption"
	Reason string // Server or session server message, if any
	Err    error
}

func (e *AuthError) Error() string {
	msg := "client: authentication failed: " + e.Op
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes every AuthError match ErrAuth.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// DisconnectError is the close reason when the server ends a Play session.
type DisconnectError struct {
	Reason string // JSON chat component
}

func (e *DisconnectError) Error() string {
	return "client: disconnected by server: " + e.Reason
}

// ListenerError is the close reason when one or more listeners failed
// during a dispatch pass.
type ListenerError struct {
	Packet   string
	Outgoing bool
	Errs     []error
}

func (e *ListenerError) Error() string {
	dir := "inbound"
	if e.Outgoing {
		dir = "outgoing"
	}
	if len(e.Errs) == 1 {
		return fmt.Sprintf("client: %s listener for %s: %v", dir, e.Packet, e.Errs[0])
	}
	return fmt.Sprintf("client: %d %s listeners for %s failed: %v", len(e.Errs), dir, e.Packet, errors.Join(e.Errs...))
}

// Unwrap returns the listener errors for errors.Is/As.
func (e *ListenerError) Unwrap() []error {
	return e.Errs
}

// PanicError wraps a panic recovered from a listener.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("client: listener panic: %v", e.Value)
}

// errorClass buckets a close reason for metric labels and span attributes.
func errorClass(err error) string {
	var (
		auth       *AuthError
		disconnect *DisconnectError
		listener   *ListenerError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &auth):
		return "auth"
	case errors.As(err, &disconnect):
		return "disconnect"
	case errors.As(err, &listener):
		return "listener"
	case errors.Is(err, ErrHandshakeTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrClosed), errors.Is(err, context.Canceled):
		return "closed"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, protocol.ErrFraming), errors.Is(err, protocol.ErrValue), errors.Is(err, protocol.ErrType):
		return "protocol"
	}
	return "error"
}
