// Package backend defines the boundary to a synthesis backend: the settings
// sent to it, the network streams exchanged with it, the statistics it
// returns, and ownership of the program text it emits. Backends run in
// process or behind the msgpack wire protocol implemented by Client and
// Serve.
package backend

import (
	"errors"

	"github.com/tliron/commonlog"

	"github.com/CapZTr/lime/internal/network"
)

var log = commonlog.GetLogger("lime.backend")

var (
	// ErrInvalidFrame reports a malformed or out of order wire frame.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrBackend wraps failures reported by a remote backend.
	ErrBackend = errors.New("backend failure")
)

// Validator checks a candidate network against a reference behavior.
type Validator interface {
	Validate(candidate *network.Network) bool
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(candidate *network.Network) bool

func (f ValidatorFunc) Validate(candidate *network.Network) bool {
	return f(candidate)
}

// Sink receives the network of one session. Finish blocks until the backend
// has produced its statistics. If the session was opened with an output
// receiver, the rewritten network has been streamed into it by then.
type Sink interface {
	network.Receiver
	Finish() (*Statistics, error)
}

// Backend compiles streamed networks. A Statistics.Program returned by a
// session is released through the same backend's ReleaseProgram.
type Backend interface {
	Releaser
	// Open starts a session for a network of the given technology. out may
	// be nil when no network is wanted back.
	Open(tech network.Technology, settings Settings, out network.Receiver) (Sink, error)
}
