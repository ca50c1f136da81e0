package server

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/chazu/liveprog/bridge"
	"github.com/chazu/liveprog/liveprog"
	"github.com/chazu/liveprog/store"
)

// connectError maps bridge, store and script errors to Connect codes.
func connectError(err error) error {
	if err == nil {
		return nil
	}
	var code connect.Code
	switch {
	case errors.Is(err, bridge.ErrNotAvailable):
		code = connect.CodeUnavailable
	case errors.Is(err, bridge.ErrNotFound), errors.Is(err, store.ErrPresetNotFound),
		errors.Is(err, liveprog.ErrUnknownParam):
		code = connect.CodeNotFound
	case errors.Is(err, bridge.ErrTypeMismatch), errors.Is(err, liveprog.ErrNoAssignment):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, ErrWorkerStopped):
		code = connect.CodeUnavailable
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
