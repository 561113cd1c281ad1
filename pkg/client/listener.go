package client

import (
	"runtime/debug"
	"sync"

	"github.com/vango-dev/craftwire/pkg/packet"
)

// Listener receives packets matching its registration. Returning an error
// fails the connection once the current dispatch pass has finished.
type Listener func(p packet.Packet) error

// ListenerID identifies a registration for Unregister.
type ListenerID uint64

// ListenerOption configures a registration.
type ListenerOption func(*listenerEntry)

// Early runs the listener in the first pass. For inbound packets the early
// pass runs before the connection reacts to the packet (state changes,
// keep-alive replies), the normal pass after.
func Early() ListenerOption {
	return func(l *listenerEntry) { l.early = true }
}

// Outgoing registers the listener for packets the client sends instead of
// packets it receives.
func Outgoing() ListenerOption {
	return func(l *listenerEntry) { l.outgoing = true }
}

type listenerEntry struct {
	id       ListenerID
	fn       Listener
	typ      *packet.Type
	early    bool
	outgoing bool
}

func (l *listenerEntry) matches(p packet.Packet) bool {
	return p.Type().Is(l.typ)
}

// listenerSet is safe for concurrent registration and dispatch. Dispatch
// works on a snapshot, so registrations made by a listener take effect from
// the next packet on.
type listenerSet struct {
	mu      sync.RWMutex
	next    ListenerID
	entries []*listenerEntry
}

func (s *listenerSet) add(fn Listener, typ *packet.Type, opts []ListenerOption) ListenerID {
	if typ == nil {
		typ = packet.Any
	}
	l := &listenerEntry{fn: fn, typ: typ}
	for _, opt := range opts {
		opt(l)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	l.id = s.next
	s.entries = append(s.entries, l)
	return l.id
}

func (s *listenerSet) remove(id ListenerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.entries {
		if l.id == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// pass returns, in registration order, the listeners of one pass.
func (s *listenerSet) pass(outgoing, early bool) []*listenerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*listenerEntry
	for _, l := range s.entries {
		if l.outgoing == outgoing && l.early == early {
			out = append(out, l)
		}
	}
	return out
}

// callListener runs fn, turning a panic into a *PanicError.
func callListener(fn Listener, p packet.Packet) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(p)
}
