// Package session couples the optimizer with a backend: it preoptimizes a
// network when the settings ask for it, streams it to the backend, and
// collects the rewritten network, the statistics and the emitted program.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/equiv"
	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/optimize"
)

var log = commonlog.GetLogger("lime.session")

// ErrIncompleteResponse is returned when the backend finished without
// streaming the rewritten network back.
var ErrIncompleteResponse = errors.New("backend did not return a complete network")

// Result is the outcome of one session. Close releases the program.
type Result struct {
	ID uuid.UUID
	// Network is the network rebuilt from the backend's stream. It is nil
	// for Compile.
	Network *network.Network
	Stats   *backend.Statistics
	Program *backend.ProgramString
	// Preoptimization is nil when the settings disabled preoptimization.
	Preoptimization *optimize.Stats
	Duration        time.Duration
}

// Close releases the program buffer.
func (r *Result) Close() error {
	return r.Program.Close()
}

// Session runs compilations against one backend with fixed settings.
type Session struct {
	Backend   backend.Backend
	Settings  backend.Settings
	Optimizer optimize.Options
}

// New returns a session with the default optimizer options.
func New(b backend.Backend, settings backend.Settings) *Session {
	return &Session{Backend: b, Settings: settings, Optimizer: optimize.DefaultOptions()}
}

// Rewrite compiles ntk and returns the rewritten network along with the
// statistics and program. When preoptimization is enabled ntk is optimized
// in place first.
func (s *Session) Rewrite(ntk *network.Network) (*Result, error) {
	return s.run(ntk, true)
}

// Compile is Rewrite without the network coming back.
func (s *Session) Compile(ntk *network.Network) (*Result, error) {
	return s.run(ntk, false)
}

func (s *Session) run(ntk *network.Network, wantNetwork bool) (*Result, error) {
	res := &Result{ID: uuid.New()}
	start := time.Now()

	if s.Settings.Preoptimize {
		st := optimize.New(ntk.Technology(), s.Optimizer).Run(ntk)
		res.Preoptimization = &st
		log.Infof("session %s: preoptimized %d -> %d nodes in %d rounds",
			res.ID, st.InitialSize, st.FinalSize, st.Rounds)
	}

	var out *network.Builder
	var recv network.Receiver
	if wantNetwork {
		out = network.NewBuilder(ntk.Technology())
		recv = out
	}
	sink, err := s.Backend.Open(ntk.Technology(), s.Settings, recv)
	if err != nil {
		return nil, fmt.Errorf("session %s: opening backend: %w", res.ID, err)
	}
	network.Send(ntk, sink)
	st, err := sink.Finish()
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", res.ID, err)
	}

	res.Program = backend.NewProgramString(st.Program, s.Backend)
	st.Program = nil
	res.Stats = st
	if out != nil {
		if !out.Finished() {
			res.Program.Reset()
			return nil, fmt.Errorf("session %s: %w", res.ID, ErrIncompleteResponse)
		}
		res.Network = out.Network()
	}
	res.Duration = time.Since(start)

	log.Debugf("session %s: runner %s, extractor %s, compiler %s",
		res.ID, st.TRunner, st.TExtractor, st.TCompiler)
	if !st.ValidationSuccess {
		log.Warningf("session %s: backend reports failed validation", res.ID)
	}
	return res, nil
}

// Rewrite runs a single Rewrite session with default optimizer options.
func Rewrite(b backend.Backend, settings backend.Settings, ntk *network.Network) (*Result, error) {
	return New(b, settings).Rewrite(ntk)
}

// Compile runs a single Compile session with default optimizer options.
func Compile(b backend.Backend, settings backend.Settings, ntk *network.Network) (*Result, error) {
	return New(b, settings).Compile(ntk)
}

// NewValidator returns a validator accepting candidates that compute the
// same outputs as original. original is copied, so later changes to it do
// not affect the validator.
func NewValidator(original *network.Network) backend.Validator {
	ref := original.Clone()
	return backend.ValidatorFunc(func(candidate *network.Network) bool {
		ok, err := equiv.Equivalent(ref, candidate)
		if err != nil {
			log.Warningf("validation failed: %s", err)
			return false
		}
		return ok
	})
}
