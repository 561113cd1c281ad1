package main

import (
	stderrors "errors"

	"github.com/vango-dev/craftwire/internal/errors"
	"github.com/vango-dev/craftwire/pkg/client"
	"github.com/vango-dev/craftwire/pkg/protocol"
)

// classify maps a command failure to a coded error for display. Errors
// that are already coded, and errors it does not recognize, pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *errors.CraftError
	if stderrors.As(err, &ce) {
		return err
	}

	var (
		authErr *client.AuthError
		discErr *client.DisconnectError
		connErr *client.ConnError
	)
	switch {
	case stderrors.Is(err, client.ErrOnlineModeRequired):
		return errors.New("CW302").Wrap(err)
	case stderrors.As(err, &authErr) && authErr.Op == "join":
		return errors.New("CW303").Wrap(err)
	case stderrors.As(err, &authErr):
		return errors.New("CW301").WithDetail(client.ChatText([]byte(authErr.Reason))).Wrap(err)
	case stderrors.As(err, &discErr):
		return errors.New("CW203").WithDetail(client.ChatText([]byte(discErr.Reason))).Wrap(err)
	case stderrors.Is(err, client.ErrHandshakeTimeout):
		return errors.New("CW202").Wrap(err)
	case stderrors.Is(err, client.ErrInvalidConfig):
		return errors.New("CW103").Wrap(err)
	case stderrors.As(err, &connErr) && connErr.Op == "dial":
		return errors.New("CW201").Wrap(err)
	case stderrors.Is(err, protocol.ErrFraming),
		stderrors.Is(err, protocol.ErrValue),
		stderrors.Is(err, protocol.ErrType):
		return errors.New("CW204").WithDetail(err.Error()).Wrap(err)
	case stderrors.Is(err, client.ErrTransport):
		return errors.New("CW205").Wrap(err)
	}
	return err
}
