package backend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/CapZTr/lime/internal/network"
)

// Client is a Backend reached over a single connection speaking the wire
// protocol. A connection carries one session.
type Client struct {
	ProgramArena

	r    io.Reader
	w    io.Writer
	used bool
}

// NewClient returns a client reading responses from r and writing requests
// to w.
func NewClient(r io.Reader, w io.Writer) *Client {
	return &Client{r: r, w: w}
}

func (c *Client) Open(tech network.Technology, settings Settings, out network.Receiver) (Sink, error) {
	if c.used {
		return nil, errors.New("backend: connection already carried a session")
	}
	c.used = true
	return openSession(c.r, c.w, &c.ProgramArena, tech, settings, out)
}

// Pipe runs a backend behind in-memory pipes, so every session goes through
// the wire protocol while staying in process.
type Pipe struct {
	ProgramArena

	Backend Backend
}

func (p *Pipe) Open(tech network.Technology, settings Settings, out network.Receiver) (Sink, error) {
	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()

	var g errgroup.Group
	g.Go(func() error {
		defer serverR.Close()
		defer serverW.Close()
		return Serve(serverR, serverW, p.Backend)
	})

	sink, err := openSession(clientR, clientW, &p.ProgramArena, tech, settings, out)
	if err != nil {
		clientW.Close()
		return nil, errors.Join(err, g.Wait())
	}
	return &supervisedSink{clientSink: sink, wait: func() error {
		clientW.Close()
		return g.Wait()
	}}, nil
}

// Remote runs a backend server process per session and talks to it over
// its standard input and output.
type Remote struct {
	ProgramArena

	Path string
	Args []string
}

func (r *Remote) Open(tech network.Technology, settings Settings, out network.Receiver) (Sink, error) {
	cmd := exec.Command(r.Path, r.Args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("backend: starting %s: %w", r.Path, err)
	}
	log.Debugf("started backend process %s (pid %d)", r.Path, cmd.Process.Pid)

	sink, err := openSession(stdout, stdin, &r.ProgramArena, tech, settings, out)
	if err != nil {
		stdin.Close()
		return nil, errors.Join(err, cmd.Wait())
	}
	return &supervisedSink{clientSink: sink, wait: func() error {
		stdin.Close()
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("backend: %s: %w", r.Path, err)
		}
		return nil
	}}, nil
}

type supervisedSink struct {
	*clientSink
	wait func() error
}

func (s *supervisedSink) Finish() (*Statistics, error) {
	st, err := s.clientSink.Finish()
	if werr := s.wait(); werr != nil {
		err = errors.Join(err, werr)
	}
	if err != nil {
		if st != nil && st.Program != nil {
			s.arena.ReleaseProgram(st.Program)
		}
		return nil, err
	}
	return st, nil
}

// clientSink writes the network to the server and, on Finish, consumes the
// response: the rewritten network, validation requests and the statistics.
type clientSink struct {
	*encoder

	dec       *decoder
	out       network.Receiver
	validator Validator
	arena     *ProgramArena
}

func openSession(r io.Reader, w io.Writer, arena *ProgramArena, tech network.Technology, settings Settings, out network.Receiver) (*clientSink, error) {
	enc := newEncoder(w)
	enc.send(&frame{
		Op:            opSettings,
		Settings:      &settings,
		Technology:    uint8(tech),
		WantNetwork:   out != nil,
		WantValidator: settings.Validator != nil,
	})
	if err := enc.flush(); err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	return &clientSink{
		encoder:   enc,
		dec:       newDecoder(r),
		out:       out,
		validator: settings.Validator,
		arena:     arena,
	}, nil
}

func (s *clientSink) Finish() (*Statistics, error) {
	s.send(&frame{Op: opEnd})
	if err := s.flush(); err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	var rp *replayer
	if s.out != nil {
		rp = newReplayer(s.out)
	}
	for {
		f, err := s.dec.next()
		if err != nil {
			return nil, fmt.Errorf("backend: reading response: %w", err)
		}
		switch f.Op {
		case opInput, opGate, opOutputs:
			if rp == nil {
				return nil, fmt.Errorf("backend: %w: unrequested %s frame", ErrInvalidFrame, f.Op)
			}
			if err := rp.apply(f); err != nil {
				return nil, fmt.Errorf("backend: %w", err)
			}
		case opValidate:
			s.send(&frame{Op: opVerdict, Ok: s.validate(f.Network)})
			if err := s.flush(); err != nil {
				return nil, fmt.Errorf("backend: %w", err)
			}
		case opStats:
			if f.Stats == nil {
				return nil, fmt.Errorf("backend: %w: empty stats frame", ErrInvalidFrame)
			}
			if rp != nil && !rp.done {
				return nil, fmt.Errorf("backend: %w: statistics before the network outputs", ErrInvalidFrame)
			}
			if f.Program != nil {
				f.Stats.Program = s.arena.Alloc(*f.Program)
			}
			return f.Stats, nil
		case opError:
			return nil, fmt.Errorf("%w: %s", ErrBackend, f.Error)
		default:
			return nil, fmt.Errorf("backend: %w: unexpected %s frame", ErrInvalidFrame, f.Op)
		}
	}
}

func (s *clientSink) validate(w *wireNetwork) bool {
	if s.validator == nil || w == nil {
		return false
	}
	candidate, err := w.unpack()
	if err != nil {
		log.Warningf("rejecting malformed candidate: %s", err)
		return false
	}
	return s.validator.Validate(candidate)
}
