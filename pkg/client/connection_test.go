package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/packets"
	"github.com/vango-dev/craftwire/pkg/protocol"
	"github.com/vango-dev/craftwire/pkg/transport"
)

func TestConnectOffline(t *testing.T) {
	s, cfg := newFakeServer(t)

	var hs *packets.Handshake
	var loginName, queued string
	wait := serve(t, func() error {
		var err error
		if hs, err = s.acceptHandshake(); err != nil {
			return err
		}
		p, err := s.expectType(packets.LoginStartType)
		if err != nil {
			return err
		}
		loginName = p.(*packets.LoginStart).Name
		if err := s.finishLogin(loginName); err != nil {
			return err
		}
		p, err = s.expectType(packets.SendChatMessageType)
		if err != nil {
			return err
		}
		queued = p.(*packets.SendChatMessage).Message
		return nil
	})

	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if err := c.Write(&packets.SendChatMessage{Message: "queued before login"}); err != nil {
		t.Fatalf("Write() before Connect error = %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	wait()

	if hs.ProtocolVersion != 47 || hs.ServerAddress != "localhost" || hs.ServerPort != 25565 || hs.NextState != packets.NextStateLogin {
		t.Errorf("handshake = %+v", hs)
	}
	if loginName != "Steve" {
		t.Errorf("LoginStart name = %q, want Steve", loginName)
	}
	if queued != "queued before login" {
		t.Errorf("queued chat = %q", queued)
	}
	if got := c.State(); got != packet.Play {
		t.Errorf("State() = %v, want Play", got)
	}

	info := c.Info()
	if info.Username != "Steve" || info.StateName != "Play" || info.Closed || info.Encrypted {
		t.Errorf("Info() = %+v", info)
	}
	if info.Threshold != protocol.CompressionDisabled {
		t.Errorf("Info().Threshold = %d, want %d", info.Threshold, protocol.CompressionDisabled)
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v on open connection", c.Err())
	}
}

func TestConnectCompression(t *testing.T) {
	s, cfg := newFakeServer(t)
	long := "{\"text\":\"" + strings.Repeat("compress me ", 20) + "\"}"

	var echoed string
	wait := serve(t, func() error {
		if _, err := s.acceptLogin(); err != nil {
			return err
		}
		if err := s.send(&packets.SetCompression{Threshold: 16}); err != nil {
			return err
		}
		s.reader.SetCompression(16, protocol.ZlibCompressor{})
		s.writer.SetCompression(16, protocol.ZlibCompressor{})
		if err := s.finishLogin("Steve"); err != nil {
			return err
		}
		if err := s.send(&packets.ChatMessage{JSONData: long}); err != nil {
			return err
		}
		p, err := s.expectType(packets.SendChatMessageType)
		if err != nil {
			return err
		}
		echoed = p.(*packets.SendChatMessage).Message
		return nil
	})

	chats := make(chan string, 1)
	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.Register(func(p packet.Packet) error {
		chats <- p.(*packets.ChatMessage).JSONData
		return nil
	}, packets.ChatMessageType)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	select {
	case got := <-chats:
		if got != long {
			t.Errorf("chat = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no chat received")
	}

	reply := strings.Repeat("x", 100)
	if err := c.Write(&packets.SendChatMessage{Message: reply}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	wait()

	if echoed != reply {
		t.Errorf("server got %q", echoed)
	}
	if got := c.Info().Threshold; got != 16 {
		t.Errorf("Info().Threshold = %d, want 16", got)
	}
}

func testServerKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	return key, der
}

func TestConnectOnline(t *testing.T) {
	s, cfg := newFakeServer(t)
	key, der := testServerKey(t)
	token := []byte{9, 8, 7, 6}

	var joinedHash string
	var joinedCreds Credentials
	cfg.Credentials = &Credentials{Username: "Alex", ProfileID: "ec561538f3fd461daff5086b22154bce", AccessToken: "token"}
	cfg.SessionJoiner = SessionJoinerFunc(func(ctx context.Context, creds Credentials, serverHash string) error {
		joinedCreds = creds
		joinedHash = serverHash
		return nil
	})

	var wantHash, loginName, chat string
	wait := serve(t, func() error {
		ls, err := s.acceptLogin()
		if err != nil {
			return err
		}
		loginName = ls.Name
		if err := s.send(&packets.EncryptionRequest{ServerID: "", PublicKey: der, VerifyToken: token}); err != nil {
			return err
		}
		p, err := s.expectType(packets.EncryptionResponseType)
		if err != nil {
			return err
		}
		resp := p.(*packets.EncryptionResponse)
		secret, err := rsa.DecryptPKCS1v15(nil, key, resp.SharedSecret)
		if err != nil {
			return fmt.Errorf("decrypt secret: %w", err)
		}
		gotToken, err := rsa.DecryptPKCS1v15(nil, key, resp.VerifyToken)
		if err != nil {
			return fmt.Errorf("decrypt token: %w", err)
		}
		if !bytes.Equal(gotToken, token) {
			return fmt.Errorf("verify token = %x, want %x", gotToken, token)
		}
		if len(secret) != 16 {
			return fmt.Errorf("secret length = %d", len(secret))
		}
		wantHash = ServerHash("", secret, der)

		enc, dec, err := protocol.NewSharedSecretStreams(secret)
		if err != nil {
			return err
		}
		s.reader.EnableEncryption(dec)
		s.writer.EnableEncryption(enc)
		if err := s.finishLogin("Alex"); err != nil {
			return err
		}
		p, err = s.expectType(packets.SendChatMessageType)
		if err != nil {
			return err
		}
		chat = p.(*packets.SendChatMessage).Message
		return nil
	})

	c := connect(t, cfg)
	if err := c.Write(&packets.SendChatMessage{Message: "over the cipher"}); err != nil {
		t.Fatal(err)
	}
	wait()

	if loginName != "Alex" {
		t.Errorf("LoginStart name = %q, want credentials username", loginName)
	}
	if joinedHash != wantHash {
		t.Errorf("joined with hash %q, want %q", joinedHash, wantHash)
	}
	if joinedCreds.AccessToken != "token" {
		t.Errorf("joined with creds %+v", joinedCreds)
	}
	if chat != "over the cipher" {
		t.Errorf("server decrypted %q", chat)
	}
	if !c.Info().Encrypted {
		t.Error("Info().Encrypted = false")
	}
}

func TestConnectAuthFailures(t *testing.T) {
	_, der := testServerKey(t)

	tests := []struct {
		name   string
		online bool
		joiner SessionJoiner
		reply  packet.Packet
		op     string
		cause  error
		reason string
	}{
		{
			name:  "offline client gets encryption request",
			reply: &packets.EncryptionRequest{PublicKey: der, VerifyToken: []byte{1}},
			op:    "encryption",
			cause: ErrOnlineModeRequired,
		},
		{
			name:   "server rejects login",
			reply:  &packets.LoginDisconnect{Reason: `{"text":"You are banned"}`},
			op:     "login",
			reason: `{"text":"You are banned"}`,
		},
		{
			name:   "session server refuses join",
			online: true,
			joiner: SessionJoinerFunc(func(context.Context, Credentials, string) error {
				return errors.New("unreachable")
			}),
			reply: &packets.EncryptionRequest{PublicKey: der, VerifyToken: []byte{1}},
			op:    "join",
		},
		{
			name:   "bad server key",
			online: true,
			joiner: SessionJoinerFunc(func(context.Context, Credentials, string) error { return nil }),
			reply:  &packets.EncryptionRequest{PublicKey: []byte{1, 2, 3}, VerifyToken: []byte{1}},
			op:     "encryption",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, cfg := newFakeServer(t)
			if tt.online {
				cfg.Credentials = &Credentials{Username: "Alex", ProfileID: "id", AccessToken: "token"}
				cfg.SessionJoiner = tt.joiner
			}
			wait := serve(t, func() error {
				if _, err := s.acceptLogin(); err != nil {
					return err
				}
				return s.send(tt.reply)
			})

			c, err := New("localhost", cfg)
			if err != nil {
				t.Fatal(err)
			}
			err = c.Connect(context.Background())
			wait()

			if !errors.Is(err, ErrAuth) {
				t.Fatalf("Connect() error = %v, want ErrAuth", err)
			}
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("Connect() error %T is not *AuthError", err)
			}
			if authErr.Op != tt.op {
				t.Errorf("Op = %q, want %q", authErr.Op, tt.op)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("error %v does not wrap %v", err, tt.cause)
			}
			if authErr.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", authErr.Reason, tt.reason)
			}
			waitDone(t, c)
			if !errors.Is(c.Err(), ErrAuth) {
				t.Errorf("Err() = %v", c.Err())
			}
		})
	}
}

func TestDispatchOrder(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, func() error {
		if err := s.login(); err != nil {
			return err
		}
		return s.send(&packets.ChatMessage{JSONData: `"hi"`})
	})

	var mu sync.Mutex
	var order []string
	record := func(name string) Listener {
		return func(packet.Packet) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Register(record("normal#1"), packets.ChatMessageType)
	c.Register(record("early#1"), packets.ChatMessageType, Early())
	c.Register(record("early#2"), packets.ChatMessageType, Early())
	seen := make(chan struct{})
	c.Register(func(packet.Packet) error { close(seen); return nil }, packets.ChatMessageType)

	var earlyState, normalState packet.State
	c.Register(func(packet.Packet) error { earlyState = c.State(); return nil }, packets.LoginSuccessType, Early())
	c.Register(func(packet.Packet) error { normalState = c.State(); return nil }, packets.LoginSuccessType)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	wait()
	<-seen

	mu.Lock()
	defer mu.Unlock()
	want := []string{"early#1", "early#2", "normal#1"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("dispatch order = %v, want %v", order, want)
	}
	if earlyState != packet.Login || normalState != packet.Play {
		t.Errorf("LoginSuccess seen in %v (early) and %v (normal), want Login and Play", earlyState, normalState)
	}
}

func TestUnknownPacketDispatch(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, func() error {
		if err := s.login(); err != nil {
			return err
		}
		if err := s.sendRaw([]byte{0x7F, 0xAA, 0xBB}); err != nil {
			return err
		}
		return s.send(&packets.ChatMessage{JSONData: `"after"`})
	})

	var mu sync.Mutex
	var anyNames []string
	var unknowns []*packet.Unknown
	concrete := 0
	seen := make(chan struct{})

	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Register(func(p packet.Packet) error {
		mu.Lock()
		anyNames = append(anyNames, p.Type().Name())
		mu.Unlock()
		return nil
	}, nil)
	c.Register(func(p packet.Packet) error {
		mu.Lock()
		unknowns = append(unknowns, p.(*packet.Unknown))
		mu.Unlock()
		return nil
	}, packet.UnknownType)
	c.Register(func(p packet.Packet) error {
		if _, ok := p.(*packets.ChatMessage); !ok {
			t.Errorf("chat listener got %s", packet.Format(p))
		}
		close(seen)
		return nil
	}, packets.ChatMessageType)
	c.Register(func(p packet.Packet) error {
		mu.Lock()
		concrete++
		mu.Unlock()
		return nil
	}, packets.JoinGameType)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	wait()
	<-seen

	mu.Lock()
	defer mu.Unlock()
	if want := "[LoginSuccess Unknown ChatMessage]"; fmt.Sprint(anyNames) != want {
		t.Errorf("Any listener saw %v, want %s", anyNames, want)
	}
	if len(unknowns) != 1 {
		t.Fatalf("Unknown listener saw %d packets, want 1", len(unknowns))
	}
	if unknowns[0].ID != 0x7F || !bytes.Equal(unknowns[0].Data, []byte{0xAA, 0xBB}) {
		t.Errorf("unknown = id 0x%02X data %x", unknowns[0].ID, unknowns[0].Data)
	}
	if concrete != 0 {
		t.Errorf("JoinGame listener called %d times", concrete)
	}
	if c.Err() != nil {
		t.Errorf("unknown packet closed the connection: %v", c.Err())
	}
}

func TestListenerFailureClosesConnection(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, func() error {
		if err := s.login(); err != nil {
			return err
		}
		if err := s.send(&packets.ChatMessage{JSONData: `"one"`}); err != nil {
			return err
		}
		_ = s.send(&packets.ChatMessage{JSONData: `"two"`})
		return nil
	})

	var mu sync.Mutex
	calls := map[string]int{}
	count := func(name string) {
		mu.Lock()
		calls[name]++
		mu.Unlock()
	}

	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	c.Register(func(packet.Packet) error { count("fails"); return errors.New("bad listener") }, packets.ChatMessageType)
	c.Register(func(packet.Packet) error { count("panics"); panic("boom") }, packets.ChatMessageType)
	c.Register(func(packet.Packet) error { count("after"); return nil }, packets.ChatMessageType)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)
	wait()

	var lerr *ListenerError
	if !errors.As(c.Err(), &lerr) {
		t.Fatalf("Err() = %v, want *ListenerError", c.Err())
	}
	if len(lerr.Errs) != 2 || lerr.Packet != "ChatMessage" || lerr.Outgoing {
		t.Errorf("ListenerError = %+v", lerr)
	}
	var perr *PanicError
	if !errors.As(c.Err(), &perr) || perr.Value != "boom" || len(perr.Stack) == 0 {
		t.Errorf("PanicError = %+v", perr)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, name := range []string{"fails", "panics", "after"} {
		if calls[name] != 1 {
			t.Errorf("%s called %d times, want 1", name, calls[name])
		}
	}
}

func TestOutgoingListeners(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, s.login)

	var mu sync.Mutex
	var sent []string
	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.Register(func(p packet.Packet) error {
		mu.Lock()
		sent = append(sent, p.Type().Name())
		mu.Unlock()
		return nil
	}, nil, Outgoing())

	inbound := 0
	c.Register(func(packet.Packet) error { inbound++; return nil }, packets.HandshakeType)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	wait()

	mu.Lock()
	defer mu.Unlock()
	if want := "[Handshake LoginStart]"; fmt.Sprint(sent) != want {
		t.Errorf("outgoing listener saw %v, want %s", sent, want)
	}
	if inbound != 0 {
		t.Errorf("inbound Handshake listener ran for an outgoing packet")
	}
}

func TestOutgoingListenerErrorFailsWrite(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, s.login)

	c := connect(t, cfg)
	wait()
	c.Register(func(packet.Packet) error { return errors.New("veto") }, packets.SendChatMessageType, Outgoing())

	err := c.Write(&packets.SendChatMessage{Message: "blocked"})
	var lerr *ListenerError
	if !errors.As(err, &lerr) || !lerr.Outgoing {
		t.Fatalf("Write() error = %v, want outgoing *ListenerError", err)
	}
	waitDone(t, c)
}

func TestKeepAliveEcho(t *testing.T) {
	s, cfg := newFakeServer(t)
	var echoed int32
	wait := serve(t, func() error {
		if err := s.login(); err != nil {
			return err
		}
		if err := s.send(&packets.KeepAlive{ID: 42}); err != nil {
			return err
		}
		p, err := s.expectType(packets.KeepAliveType)
		if err != nil {
			return err
		}
		echoed = p.(*packets.KeepAlive).ID
		return nil
	})

	connect(t, cfg)
	wait()
	if echoed != 42 {
		t.Errorf("keep alive echo id = %d, want 42", echoed)
	}
}

func TestServerDisconnect(t *testing.T) {
	s, cfg := newFakeServer(t)
	reason := `{"text":"Server closed"}`
	wait := serve(t, func() error {
		if err := s.login(); err != nil {
			return err
		}
		return s.send(&packets.Disconnect{Reason: reason})
	})

	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(chan string, 1)
	c.Register(func(p packet.Packet) error {
		seen <- p.(*packets.Disconnect).Reason
		return nil
	}, packets.DisconnectType)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, c)
	wait()

	var derr *DisconnectError
	if !errors.As(c.Err(), &derr) || derr.Reason != reason {
		t.Errorf("Err() = %v, want DisconnectError", c.Err())
	}
	select {
	case got := <-seen:
		if got != reason {
			t.Errorf("listener saw reason %q", got)
		}
	default:
		t.Error("Disconnect listener did not run")
	}
}

func TestServerEOF(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, func() error {
		if err := s.login(); err != nil {
			return err
		}
		return s.conn.Close()
	})

	c := connect(t, cfg)
	waitDone(t, c)
	wait()

	var cerr *ConnError
	if !errors.As(c.Err(), &cerr) || cerr.Op != "read" {
		t.Fatalf("Err() = %v, want read ConnError", c.Err())
	}
	if !errors.Is(c.Err(), ErrTransport) {
		t.Errorf("Err() = %v, want ErrTransport", c.Err())
	}
}

func TestTrailingBytesAreFatal(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, func() error {
		if err := s.login(); err != nil {
			return err
		}
		body, err := s.reg.Marshal(packet.Play, packet.Clientbound, &packets.KeepAlive{ID: 1})
		if err != nil {
			return err
		}
		return s.sendRaw(append(body, 0xFF))
	})

	c := connect(t, cfg)
	waitDone(t, c)
	wait()

	if !errors.Is(c.Err(), protocol.ErrFraming) {
		t.Errorf("Err() = %v, want ErrFraming", c.Err())
	}
}

func TestClose(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, s.login)
	c := connect(t, cfg)
	wait()

	calls := 0
	c.Register(func(packet.Packet) error { calls++; return nil }, nil)

	c.Close()
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("Done() not closed after Close")
	}
	if !errors.Is(c.Err(), ErrClosed) {
		t.Errorf("Err() = %v, want ErrClosed", c.Err())
	}
	if err := c.Write(&packets.SendChatMessage{Message: "late"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after Close = %v, want ErrClosed", err)
	}
	if err := c.ForceWrite(&packets.SendChatMessage{Message: "late"}); !errors.Is(err, ErrClosed) {
		t.Errorf("ForceWrite() after Close = %v, want ErrClosed", err)
	}
	if !c.Info().Closed {
		t.Error("Info().Closed = false")
	}
	if calls != 0 {
		t.Errorf("listener ran %d times after Close", calls)
	}
}

func TestCloseBeforeConnect(t *testing.T) {
	_, cfg := newFakeServer(t)
	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.ForceWrite(&packets.SendChatMessage{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ForceWrite() before Connect = %v, want ErrNotConnected", err)
	}
	c.Close()
	if err := c.Connect(context.Background()); err == nil {
		t.Error("Connect() after Close succeeded")
	}
}

func TestConnectTwice(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, s.login)
	c := connect(t, cfg)
	wait()

	if err := c.Connect(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Connect() = %v, want ErrAlreadyStarted", err)
	}
	if _, err := c.Ping(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Ping() after Connect = %v, want ErrAlreadyStarted", err)
	}
}

func TestForceWriteDuringLogin(t *testing.T) {
	s, cfg := newFakeServer(t)
	var names []string
	var chat string
	wait := serve(t, func() error {
		if _, err := s.acceptHandshake(); err != nil {
			return err
		}
		for i := 0; i < 2; i++ {
			p, err := s.expectType(packets.LoginStartType)
			if err != nil {
				return err
			}
			names = append(names, p.(*packets.LoginStart).Name)
		}
		if err := s.finishLogin("Steve"); err != nil {
			return err
		}
		p, err := s.expectType(packets.SendChatMessageType)
		if err != nil {
			return err
		}
		chat = p.(*packets.SendChatMessage).Message
		return nil
	})

	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Outgoing listeners run before the packet is queued, so the forced
	// packet goes out ahead of the LoginStart that triggered it.
	var fired atomic.Bool
	c.Register(func(packet.Packet) error {
		if fired.Swap(true) {
			return nil
		}
		if err := c.Write(&packets.SendChatMessage{Message: "after login"}); err != nil {
			return err
		}
		return c.ForceWrite(&packets.LoginStart{Name: "Forced"})
	}, packets.LoginStartType, Outgoing())

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	wait()
	if fmt.Sprint(names) != "[Forced Steve]" {
		t.Errorf("LoginStart names = %v, want [Forced Steve]", names)
	}
	if chat != "after login" {
		t.Errorf("queued chat = %q", chat)
	}
}

func TestSendThenSwitchesFramingAfterBody(t *testing.T) {
	s, cfg := newFakeServer(t)
	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.open(context.Background()); err != nil {
		t.Fatal(err)
	}

	secret := bytes.Repeat([]byte{0x2A}, 16)
	enc, dec, err := protocol.NewSharedSecretStreams(secret)
	if err != nil {
		t.Fatal(err)
	}

	// The second packet is queued before the first is written; it must
	// still go out encrypted.
	first := &packets.Handshake{ProtocolVersion: 47, ServerAddress: "localhost", ServerPort: 25565, NextState: 1}
	second := &packets.Handshake{ProtocolVersion: 47, ServerAddress: "localhost", ServerPort: 25565, NextState: 2}
	if err := c.sendThen(first, func(fw *protocol.FrameWriter) { fw.EnableEncryption(enc) }); err != nil {
		t.Fatal(err)
	}
	if err := c.send(second); err != nil {
		t.Fatal(err)
	}

	p, err := s.expect()
	if err != nil {
		t.Fatalf("plain frame: %v", err)
	}
	if got := p.(*packets.Handshake).NextState; got != 1 {
		t.Fatalf("first frame NextState = %d, want 1", got)
	}
	s.reader.EnableEncryption(dec)
	p, err = s.expect()
	if err != nil {
		t.Fatalf("encrypted frame: %v", err)
	}
	if got := p.(*packets.Handshake).NextState; got != 2 {
		t.Errorf("second frame NextState = %d, want 2", got)
	}
}

func TestConnectTimeouts(t *testing.T) {
	t.Run("handshake timeout", func(t *testing.T) {
		s, cfg := newFakeServer(t)
		cfg.HandshakeTimeout = 50 * time.Millisecond
		wait := serve(t, func() error {
			_, err := s.acceptLogin()
			return err
		})

		c, err := New("localhost", cfg)
		if err != nil {
			t.Fatal(err)
		}
		err = c.Connect(context.Background())
		wait()
		if !errors.Is(err, ErrHandshakeTimeout) {
			t.Fatalf("Connect() = %v, want ErrHandshakeTimeout", err)
		}
		waitDone(t, c)
	})

	t.Run("context deadline", func(t *testing.T) {
		s, cfg := newFakeServer(t)
		wait := serve(t, func() error {
			_, err := s.acceptLogin()
			return err
		})

		c, err := New("localhost", cfg)
		if err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err = c.Connect(ctx)
		wait()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Connect() = %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestReadTimeoutIsTransient(t *testing.T) {
	s, cfg := newFakeServer(t)
	cfg.ReadTimeout = 10 * time.Millisecond
	m := newTestMetrics(t)
	cfg.Metrics = m

	wait := serve(t, func() error {
		if _, err := s.acceptLogin(); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
		return s.finishLogin("Steve")
	})

	c := connect(t, cfg)
	wait()
	if c.Err() != nil {
		t.Fatalf("read timeout closed the connection: %v", c.Err())
	}
	if got := counterValue(m.readTimeouts); got < 1 {
		t.Errorf("read_timeouts_total = %v, want >= 1", got)
	}
}

func TestDialFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Username = "Steve"
	cfg.Dialer = transport.DialerFunc(func(context.Context, string) (transport.Stream, error) {
		return nil, errors.New("connection refused")
	})

	c, err := New("mc.example.net:25570", cfg)
	if err != nil {
		t.Fatal(err)
	}
	err = c.Connect(context.Background())

	var cerr *ConnError
	if !errors.As(err, &cerr) || cerr.Op != "dial" || cerr.Address != "mc.example.net:25570" {
		t.Fatalf("Connect() = %v, want dial ConnError", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Connect() = %v, want ErrTransport", err)
	}
	if !errors.Is(c.Err(), ErrTransport) {
		t.Errorf("Err() = %v after failed dial", c.Err())
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		address string
		cfg     *Config
	}{
		{"bad address", "host:notaport", nil},
		{"empty address", "", nil},
		{"negative read timeout", "localhost", &Config{Username: "Steve", ReadTimeout: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.address, tt.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConnectValidatesConfig(t *testing.T) {
	c, err := New("localhost", &Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Connect(context.Background()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Connect() without username = %v, want ErrInvalidConfig", err)
	}
}

func TestPing(t *testing.T) {
	s, cfg := newFakeServer(t)
	cfg.Username = ""
	const statusJSON = `{
		"version": {"name": "1.8.9", "protocol": 47},
		"players": {"max": 20, "online": 3, "sample": [{"name": "Notch", "id": "069a79f4-44e9-4726-a5be-fca90e38aaf5"}]},
		"description": {"text": "A ", "extra": [{"text": "Minecraft"}, " Server"]}
	}`

	var hs *packets.Handshake
	wait := serve(t, func() error {
		var err error
		if hs, err = s.acceptHandshake(); err != nil {
			return err
		}
		if _, err := s.expectType(packets.StatusRequestType); err != nil {
			return err
		}
		if err := s.send(&packets.StatusResponse{JSONResponse: statusJSON}); err != nil {
			return err
		}
		p, err := s.expectType(packets.StatusPingType)
		if err != nil {
			return err
		}
		return s.send(&packets.StatusPong{Payload: p.(*packets.StatusPing).Payload})
	})

	c, err := New("mc.example.net:25570", cfg)
	if err != nil {
		t.Fatal(err)
	}
	status, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	wait()

	if hs.NextState != packets.NextStateStatus || hs.ServerAddress != "mc.example.net" || hs.ServerPort != 25570 {
		t.Errorf("handshake = %+v", hs)
	}
	if status.Version.Name != "1.8.9" || status.Version.Protocol != 47 {
		t.Errorf("version = %+v", status.Version)
	}
	if status.Players.Online != 3 || status.Players.Max != 20 || len(status.Players.Sample) != 1 {
		t.Errorf("players = %+v", status.Players)
	}
	if got := status.DescriptionText(); got != "A Minecraft Server" {
		t.Errorf("DescriptionText() = %q", got)
	}
	if status.Latency < 0 {
		t.Errorf("Latency = %v", status.Latency)
	}
	if c.State() != packet.Status {
		t.Errorf("State() = %v, want Status", c.State())
	}
	waitDone(t, c)
	if !errors.Is(c.Err(), ErrClosed) {
		t.Errorf("Err() after Ping = %v, want ErrClosed", c.Err())
	}
}

func TestPingInvalidStatus(t *testing.T) {
	s, cfg := newFakeServer(t)
	wait := serve(t, func() error {
		if _, err := s.acceptHandshake(); err != nil {
			return err
		}
		if _, err := s.expectType(packets.StatusRequestType); err != nil {
			return err
		}
		return s.send(&packets.StatusResponse{JSONResponse: "not json"})
	})

	c, err := New("localhost", cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Ping(context.Background())
	wait()

	var cerr *ConnError
	if !errors.As(err, &cerr) || cerr.Op != "status" {
		t.Errorf("Ping() = %v, want status ConnError", err)
	}
}
