// Package equiv decides functional equivalence of networks, by exhaustive
// simulation for small input counts and by SAT on a miter otherwise.
package equiv

import (
	"errors"
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/CapZTr/lime/internal/network"
)

// ErrInterfaceMismatch is returned when two networks do not have the same
// number of inputs and outputs.
var ErrInterfaceMismatch = errors.New("equiv: networks have different interfaces")

// Equivalent reports whether a and b compute the same output functions,
// pairing inputs and outputs by position.
func Equivalent(a, b *network.Network) (bool, error) {
	if a.NumInputs() != b.NumInputs() || a.NumOutputs() != b.NumOutputs() {
		return false, fmt.Errorf("%w: %d/%d vs %d/%d inputs/outputs", ErrInterfaceMismatch,
			a.NumInputs(), a.NumOutputs(), b.NumInputs(), b.NumOutputs())
	}
	if a.NumInputs() <= network.MaxExhaustiveInputs {
		return Exhaustive(a, b), nil
	}
	return Miter(a, b), nil
}

// Exhaustive compares a and b on every input assignment. Both networks must
// have the same interface and at most network.MaxExhaustiveInputs inputs.
func Exhaustive(a, b *network.Network) bool {
	pats := network.ExhaustivePatterns(a.NumInputs())
	oa := network.SimulateOutputs(a, pats)
	ob := network.SimulateOutputs(b, pats)
	for i := range oa {
		for w := range oa[i] {
			if oa[i][w] != ob[i][w] {
				return false
			}
		}
	}
	return true
}

// TruthTables returns the exhaustive output tables of n.
func TruthTables(n *network.Network) [][]uint64 {
	return network.SimulateOutputs(n, network.ExhaustivePatterns(n.NumInputs()))
}

// Miter proves equivalence of a and b with a SAT solver.
func Miter(a, b *network.Network) bool {
	c := logic.NewC()
	ins := make([]z.Lit, a.NumInputs())
	for i := range ins {
		ins[i] = c.Lit()
	}
	la := Encode(c, a, ins)
	lb := Encode(c, b, ins)

	diffs := make([]z.Lit, a.NumOutputs())
	for i := range diffs {
		diffs[i] = c.Xor(outputLit(la, a.Output(i)), outputLit(lb, b.Output(i)))
	}
	m := c.Ors(diffs...)
	switch m {
	case c.F:
		return true
	case c.T:
		return false
	}
	s := gini.New()
	c.ToCnfFrom(s, m)
	s.Assume(m)
	return s.Solve() == -1
}

// Encode adds n to c over the given input literals and returns one literal
// per node of n.
func Encode(c *logic.C, n *network.Network, ins []z.Lit) []z.Lit {
	lits := make([]z.Lit, n.Size())
	lits[0] = c.F
	for i, in := range n.Inputs() {
		lits[in] = ins[i]
	}
	n.ForEachGate(func(id network.NodeID) {
		fs := n.Fanins(id)
		var f [3]z.Lit
		for i, s := range fs {
			f[i] = outputLit(lits, s)
		}
		switch n.Kind(id) {
		case network.KindAnd:
			lits[id] = c.And(f[0], f[1])
		case network.KindXor:
			lits[id] = c.Xor(f[0], f[1])
		default:
			lits[id] = c.Ors(c.And(f[0], f[1]), c.And(f[0], f[2]), c.And(f[1], f[2]))
		}
	})
	return lits
}

func outputLit(lits []z.Lit, s network.Signal) z.Lit {
	m := lits[s.Node()]
	if s.IsComplemented() {
		return m.Not()
	}
	return m
}

// Prover checks equivalence of signal pairs inside one network. The network
// is encoded once; every query builds a fresh solver over the cone of its
// miter.
type Prover struct {
	c    *logic.C
	lits []z.Lit
	// Calls counts the queries that needed the solver.
	Calls int
}

// NewProver encodes n.
func NewProver(n *network.Network) *Prover {
	c := logic.NewC()
	ins := make([]z.Lit, n.NumInputs())
	for i := range ins {
		ins[i] = c.Lit()
	}
	return &Prover{c: c, lits: Encode(c, n, ins)}
}

// Equal reports whether a and b compute the same function.
func (p *Prover) Equal(a, b network.Signal) bool {
	m := p.c.Xor(outputLit(p.lits, a), outputLit(p.lits, b))
	switch m {
	case p.c.F:
		return true
	case p.c.T:
		return false
	}
	p.Calls++
	s := gini.New()
	p.c.ToCnfFrom(s, m)
	s.Assume(m)
	return s.Solve() == -1
}
