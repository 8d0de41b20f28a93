package network

import "fmt"

// Receiver consumes a network as a stream of construction events. Every
// Input or Gate call allocates the next stream position, starting at 1;
// position 0 is the constant. Signals passed to Gate and Outputs reference
// positions, not node IDs of any particular network.
type Receiver interface {
	Input()
	Gate(kind Kind, fanins []Signal)
	Outputs(outputs []Signal)
}

// Send replays n into r in creation order. The stream position of each node
// equals its NodeID.
func Send(n *Network, r Receiver) {
	for i := 1; i < len(n.nodes); i++ {
		nd := &n.nodes[i]
		if nd.kind == KindInput {
			r.Input()
			continue
		}
		r.Gate(nd.kind, nd.fanins[:nd.kind.Arity()])
	}
	r.Outputs(n.outputs)
}

// Builder is a Receiver that reconstructs a network. Structural hashing
// applies, so the rebuilt network may be smaller than the stream.
type Builder struct {
	ntk       *Network
	positions []Signal
	finished  bool
}

// NewBuilder returns a Builder producing a network of the given technology.
func NewBuilder(tech Technology) *Builder {
	return &Builder{ntk: New(tech), positions: []Signal{False}}
}

// Positions returns the number of stream positions seen so far, including
// the constant.
func (b *Builder) Positions() int {
	return len(b.positions)
}

func (b *Builder) Input() {
	b.positions = append(b.positions, b.ntk.CreateInput())
}

func (b *Builder) Gate(kind Kind, fanins []Signal) {
	var mapped [3]Signal
	for i, f := range fanins {
		mapped[i] = b.translate(f)
	}
	b.positions = append(b.positions, b.ntk.CreateGate(kind, mapped[:len(fanins)]))
}

func (b *Builder) Outputs(outputs []Signal) {
	for _, o := range outputs {
		b.ntk.CreateOutput(b.translate(o))
	}
	b.finished = true
}

func (b *Builder) translate(s Signal) Signal {
	pos := int(s.Node())
	if pos >= len(b.positions) {
		panic(fmt.Sprintf("network: stream position %d not yet defined", pos))
	}
	return b.positions[pos].NotIf(s.IsComplemented())
}

// Finished reports whether the outputs have been received.
func (b *Builder) Finished() bool {
	return b.finished
}

// Network returns the network built so far.
func (b *Builder) Network() *Network {
	return b.ntk
}
