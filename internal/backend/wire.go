package backend

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/CapZTr/lime/internal/network"
)

type op uint8

const (
	opSettings op = iota + 1
	opInput
	opGate
	opOutputs
	opEnd
	opValidate
	opVerdict
	opStats
	opError
)

func (o op) String() string {
	names := [...]string{"", "settings", "input", "gate", "outputs", "end", "validate", "verdict", "stats", "error"}
	if int(o) < len(names) && o != 0 {
		return names[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// frame is the unit of the wire protocol. Signals are stream positions with
// the complement in bit 0.
type frame struct {
	Op      op          `msgpack:"op"`
	Kind    uint8       `msgpack:"kind,omitempty"`
	Signals []uint32    `msgpack:"in,omitempty"`
	Ok      bool        `msgpack:"ok,omitempty"`
	Error   string      `msgpack:"error,omitempty"`
	Program *string     `msgpack:"program,omitempty"`
	Stats   *Statistics `msgpack:"stats,omitempty"`

	Settings      *Settings    `msgpack:"settings,omitempty"`
	Technology    uint8        `msgpack:"technology,omitempty"`
	WantNetwork   bool         `msgpack:"want_network,omitempty"`
	WantValidator bool         `msgpack:"want_validator,omitempty"`
	Network       *wireNetwork `msgpack:"network,omitempty"`
}

// encoder writes frames and keeps the first error. Frames are buffered until
// flush.
type encoder struct {
	buf *bufio.Writer
	enc *msgpack.Encoder
	err error
}

func newEncoder(w io.Writer) *encoder {
	buf := bufio.NewWriter(w)
	return &encoder{buf: buf, enc: msgpack.NewEncoder(buf)}
}

func (e *encoder) send(f *frame) {
	if e.err != nil {
		return
	}
	if err := e.enc.Encode(f); err != nil {
		e.err = fmt.Errorf("encoding %s frame: %w", f.Op, err)
	}
}

func (e *encoder) flush() error {
	if e.err == nil {
		if err := e.buf.Flush(); err != nil {
			e.err = fmt.Errorf("flushing frames: %w", err)
		}
	}
	return e.err
}

// Input, Gate and Outputs make the encoder a network.Receiver that writes
// network frames.
func (e *encoder) Input() {
	e.send(&frame{Op: opInput})
}

func (e *encoder) Gate(kind network.Kind, fanins []network.Signal) {
	e.send(&frame{Op: opGate, Kind: uint8(kind), Signals: encodeSignals(fanins)})
}

func (e *encoder) Outputs(outputs []network.Signal) {
	e.send(&frame{Op: opOutputs, Signals: encodeSignals(outputs)})
}

func encodeSignals(sigs []network.Signal) []uint32 {
	out := make([]uint32, len(sigs))
	for i, s := range sigs {
		out[i] = uint32(s)
	}
	return out
}

type decoder struct {
	dec *msgpack.Decoder
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{dec: msgpack.NewDecoder(bufio.NewReader(r))}
}

func (d *decoder) next() (*frame, error) {
	var f frame
	if err := d.dec.Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// replayer forwards network frames to a receiver after checking that every
// signal references a position already defined.
type replayer struct {
	out       network.Receiver
	positions int
	done      bool
}

func newReplayer(out network.Receiver) *replayer {
	return &replayer{out: out, positions: 1}
}

func (r *replayer) apply(f *frame) error {
	if r.done {
		return fmt.Errorf("%w: %s frame after outputs", ErrInvalidFrame, f.Op)
	}
	switch f.Op {
	case opInput:
		r.out.Input()
		r.positions++
	case opGate:
		kind := network.Kind(f.Kind)
		if !kind.IsGate() || len(f.Signals) != kind.Arity() {
			return fmt.Errorf("%w: %s gate with %d fanins", ErrInvalidFrame, kind, len(f.Signals))
		}
		sigs, err := r.signals(f.Signals)
		if err != nil {
			return err
		}
		r.out.Gate(kind, sigs)
		r.positions++
	case opOutputs:
		sigs, err := r.signals(f.Signals)
		if err != nil {
			return err
		}
		r.out.Outputs(sigs)
		r.done = true
	default:
		return fmt.Errorf("%w: %s is not a network frame", ErrInvalidFrame, f.Op)
	}
	return nil
}

func (r *replayer) signals(raw []uint32) ([]network.Signal, error) {
	sigs := make([]network.Signal, len(raw))
	for i, v := range raw {
		s := network.Signal(v)
		if int(s.Node()) >= r.positions {
			return nil, fmt.Errorf("%w: reference to undefined position %d", ErrInvalidFrame, s.Node())
		}
		sigs[i] = s
	}
	return sigs, nil
}

// wireNetwork is a complete network carried inside a single frame.
type wireNetwork struct {
	Technology uint8      `msgpack:"technology"`
	Nodes      []wireNode `msgpack:"nodes"`
	Outputs    []uint32   `msgpack:"outputs"`
}

type wireNode struct {
	Kind    uint8    `msgpack:"kind"`
	Signals []uint32 `msgpack:"in,omitempty"`
}

// recorder is a network.Receiver collecting a wireNetwork.
type recorder struct {
	w wireNetwork
}

func (r *recorder) Input() {
	r.w.Nodes = append(r.w.Nodes, wireNode{Kind: uint8(network.KindInput)})
}

func (r *recorder) Gate(kind network.Kind, fanins []network.Signal) {
	r.w.Nodes = append(r.w.Nodes, wireNode{Kind: uint8(kind), Signals: encodeSignals(fanins)})
}

func (r *recorder) Outputs(outputs []network.Signal) {
	r.w.Outputs = encodeSignals(outputs)
}

func packNetwork(n *network.Network) *wireNetwork {
	r := &recorder{w: wireNetwork{Technology: uint8(n.Technology())}}
	network.Send(n, r)
	return &r.w
}

func (w *wireNetwork) unpack() (*network.Network, error) {
	tech := network.Technology(w.Technology)
	if tech < network.MIG || tech > network.XAG {
		return nil, fmt.Errorf("%w: technology %d", ErrInvalidFrame, w.Technology)
	}
	b := network.NewBuilder(tech)
	rp := newReplayer(b)
	for _, nd := range w.Nodes {
		f := &frame{Op: opGate, Kind: nd.Kind, Signals: nd.Signals}
		if network.Kind(nd.Kind) == network.KindInput {
			f = &frame{Op: opInput}
		}
		if err := rp.apply(f); err != nil {
			return nil, err
		}
	}
	if err := rp.apply(&frame{Op: opOutputs, Signals: w.Outputs}); err != nil {
		return nil, err
	}
	return b.Network(), nil
}
