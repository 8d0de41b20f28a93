package backend

import (
	"fmt"
	"io"

	"github.com/CapZTr/lime/internal/network"
)

// Serve runs one session of b over the wire protocol: it reads settings and
// a network from r, and writes the rewritten network, validation requests
// and the statistics to w. Program text is copied into the response and the
// buffer released through b. Failures are reported to the client as an
// error frame and returned.
func Serve(r io.Reader, w io.Writer, b Backend) error {
	dec := newDecoder(r)
	enc := newEncoder(w)
	ended := false
	// fail consumes the rest of the request before answering, so a client
	// still streaming its network is never blocked on a full pipe.
	fail := func(err error) error {
		for !ended {
			f, rerr := dec.next()
			ended = rerr != nil || f.Op == opEnd
		}
		enc.send(&frame{Op: opError, Error: err.Error()})
		_ = enc.flush()
		return err
	}

	f, err := dec.next()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	if f.Op != opSettings || f.Settings == nil {
		return fail(fmt.Errorf("%w: expected settings, got %s", ErrInvalidFrame, f.Op))
	}
	tech := network.Technology(f.Technology)
	if tech < network.MIG || tech > network.XAG {
		return fail(fmt.Errorf("%w: technology %d", ErrInvalidFrame, f.Technology))
	}
	settings := *f.Settings
	var proxy *remoteValidator
	if f.WantValidator {
		proxy = &remoteValidator{enc: enc, dec: dec}
		settings.Validator = proxy
	}
	var out network.Receiver
	if f.WantNetwork {
		out = enc
	}
	log.Debugf("serving %s session for %s network", settings.Architecture, tech)

	sink, err := b.Open(tech, settings, out)
	if err != nil {
		return fail(err)
	}
	rp := newReplayer(sink)
	for {
		f, err := dec.next()
		if err != nil {
			return fmt.Errorf("reading network: %w", err)
		}
		if f.Op == opEnd {
			ended = true
			break
		}
		if err := rp.apply(f); err != nil {
			return fail(err)
		}
	}
	if !rp.done {
		return fail(fmt.Errorf("%w: session ended before outputs", ErrInvalidFrame))
	}

	st, err := sink.Finish()
	if err == nil && proxy != nil {
		err = proxy.err
	}
	if err != nil {
		if st != nil && st.Program != nil {
			b.ReleaseProgram(st.Program)
		}
		return fail(err)
	}
	resp := &frame{Op: opStats, Stats: st}
	if st.Program != nil {
		text := st.Program.Text()
		b.ReleaseProgram(st.Program)
		st.Program = nil
		resp.Program = &text
	}
	enc.send(resp)
	return enc.flush()
}

// remoteValidator forwards validation requests to the client. The first
// transport error sticks and fails every later request.
type remoteValidator struct {
	enc *encoder
	dec *decoder
	err error
}

func (v *remoteValidator) Validate(candidate *network.Network) bool {
	if v.err != nil {
		return false
	}
	v.enc.send(&frame{Op: opValidate, Network: packNetwork(candidate)})
	if v.err = v.enc.flush(); v.err != nil {
		return false
	}
	f, err := v.dec.next()
	if err != nil {
		v.err = fmt.Errorf("reading verdict: %w", err)
		return false
	}
	if f.Op != opVerdict {
		v.err = fmt.Errorf("%w: expected verdict, got %s", ErrInvalidFrame, f.Op)
		return false
	}
	return f.Ok
}
