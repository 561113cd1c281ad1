package client

import (
	"errors"
	"testing"

	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/packets"
)

func TestListenerSet(t *testing.T) {
	var s listenerSet
	noop := func(packet.Packet) error { return nil }

	a := s.add(noop, packets.ChatMessageType, nil)
	b := s.add(noop, nil, []ListenerOption{Early()})
	c := s.add(noop, packets.KeepAliveType, []ListenerOption{Outgoing()})
	d := s.add(noop, nil, []ListenerOption{Outgoing(), Early()})

	if a == b || b == c || c == d {
		t.Fatalf("ids not unique: %d %d %d %d", a, b, c, d)
	}

	tests := []struct {
		name     string
		outgoing bool
		early    bool
		want     []ListenerID
	}{
		{"inbound normal", false, false, []ListenerID{a}},
		{"inbound early", false, true, []ListenerID{b}},
		{"outgoing normal", true, false, []ListenerID{c}},
		{"outgoing early", true, true, []ListenerID{d}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.pass(tt.outgoing, tt.early)
			if len(got) != len(tt.want) {
				t.Fatalf("pass() = %d listeners, want %d", len(got), len(tt.want))
			}
			for i, l := range got {
				if l.id != tt.want[i] {
					t.Errorf("pass()[%d] = %d, want %d", i, l.id, tt.want[i])
				}
			}
		})
	}

	if pass := s.pass(false, true); pass[0].typ != packet.Any {
		t.Errorf("nil type registered as %v, want Any", pass[0].typ)
	}

	if !s.remove(a) {
		t.Error("remove() of a registered id = false")
	}
	if s.remove(a) {
		t.Error("remove() twice = true")
	}
	if got := s.pass(false, false); len(got) != 0 {
		t.Errorf("removed listener still in pass: %d", len(got))
	}
}

func TestListenerMatches(t *testing.T) {
	chat := &listenerEntry{typ: packets.ChatMessageType}
	base := &listenerEntry{typ: packet.Any}
	unknown := &listenerEntry{typ: packet.UnknownType}

	tests := []struct {
		name string
		l    *listenerEntry
		p    packet.Packet
		want bool
	}{
		{"concrete matches itself", chat, &packets.ChatMessage{}, true},
		{"concrete ignores other concrete", chat, &packets.KeepAlive{}, false},
		{"concrete ignores unknown", chat, &packet.Unknown{ID: 0x02}, false},
		{"base sees concrete", base, &packets.KeepAlive{}, true},
		{"base sees unknown", base, &packet.Unknown{ID: 0x7F}, true},
		{"unknown sees unknown", unknown, &packet.Unknown{ID: 0x7F}, true},
		{"unknown ignores concrete", unknown, &packets.ChatMessage{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.l.matches(tt.p); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCallListenerRecoversPanic(t *testing.T) {
	err := callListener(func(packet.Packet) error { panic("listener blew up") }, &packets.KeepAlive{})
	var perr *PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("callListener() = %v, want *PanicError", err)
	}
	if perr.Value != "listener blew up" || len(perr.Stack) == 0 {
		t.Errorf("PanicError = %+v", perr)
	}

	want := errors.New("plain")
	if err := callListener(func(packet.Packet) error { return want }, &packets.KeepAlive{}); err != want {
		t.Errorf("callListener() = %v, want %v", err, want)
	}
}
