package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CapZTr/lime/internal/equiv"
	"github.com/CapZTr/lime/internal/network"
)

var technologies = []network.Technology{network.MIG, network.AIG, network.XAG}

func adderChain(tech network.Technology) *network.Network {
	n := network.New(tech)
	in := make([]network.Signal, 5)
	for i := range in {
		in[i] = n.CreateInput()
	}
	fa := func(a, b, c network.Signal) (network.Signal, network.Signal) {
		return n.CreateXor(n.CreateXor(a, b), c), n.CreateMaj(a, b, c)
	}
	s, c := fa(in[0], in[1], in[2])
	s, c = fa(s, in[3], c)
	s, c = fa(s, in[4], c)
	n.CreateOutput(s)
	n.CreateOutput(c)
	return n
}

func TestSingleGateIsUnchanged(t *testing.T) {
	for _, tech := range technologies {
		ntk := network.New(tech)
		a := ntk.CreateInput()
		b := ntk.CreateInput()
		ntk.CreateOutput(ntk.CreateAnd(a, b))
		before := network.Print(ntk)

		st := Preoptimize(ntk)
		assert.Equal(t, 1, ntk.NumGates(), tech.String())
		assert.Equal(t, before, network.Print(ntk))
		assert.Equal(t, st.InitialSize, st.FinalSize)
	}
}

func TestAdderChainShrinksAndKeepsFunction(t *testing.T) {
	for _, tech := range technologies {
		ntk := adderChain(tech)
		original := ntk.Clone()

		st := Preoptimize(ntk)
		assert.LessOrEqual(t, ntk.Size(), original.Size(), tech.String())
		assert.Equal(t, 5, ntk.NumInputs())
		assert.Equal(t, 2, ntk.NumOutputs())
		assert.Equal(t, equiv.TruthTables(original), equiv.TruthTables(ntk), tech.String())
		assert.GreaterOrEqual(t, st.Rounds, 1)
		assert.Equal(t, ntk.Size(), st.FinalSize)
	}
}

func TestRedundancyIsRemoved(t *testing.T) {
	for _, tech := range technologies {
		ntk := network.New(tech)
		a := ntk.CreateInput()
		b := ntk.CreateInput()
		c := ntk.CreateInput()
		x := ntk.CreateAnd(a, ntk.CreateAnd(b, c))
		y := ntk.CreateAnd(ntk.CreateAnd(a, b), c)
		ntk.CreateOutput(ntk.CreateOr(x, y))

		Preoptimize(ntk)
		assert.Equal(t, 2, ntk.NumGates(), tech.String())
	}
}

func TestPreoptimizeIsIdempotent(t *testing.T) {
	for _, tech := range technologies {
		ntk := adderChain(tech)
		Preoptimize(ntk)
		once := network.Print(ntk)

		st := Preoptimize(ntk)
		assert.Equal(t, once, network.Print(ntk), tech.String())
		assert.Equal(t, st.InitialSize, st.FinalSize)
		require.NotEmpty(t, st.History)
		assert.False(t, st.History[len(st.History)-1].Kept)
	}
}

func TestDanglingNodesAreEliminated(t *testing.T) {
	for _, tech := range technologies {
		ntk := network.New(tech)
		a := ntk.CreateInput()
		b := ntk.CreateInput()
		c := ntk.CreateInput()
		ntk.CreateXor(b, c)
		ntk.CreateOutput(ntk.CreateAnd(a, b))

		Preoptimize(ntk)
		fanout := network.NewFanoutView(ntk)
		ntk.ForEachGate(func(id network.NodeID) {
			assert.Positive(t, fanout.FanoutSize(id), "dangling n%d in %s", id, tech)
		})
		assert.Equal(t, 3, ntk.NumInputs(), "inputs survive even when unused")
	}
}

func TestRoundLimit(t *testing.T) {
	ntk := adderChain(network.MIG)
	opts := DefaultOptions()
	opts.MaxRounds = 1
	st := New(network.MIG, opts).Run(ntk)
	assert.Equal(t, 1, st.Rounds)
}

func TestTechnologyMismatchPanics(t *testing.T) {
	ntk := adderChain(network.AIG)
	assert.Panics(t, func() { New(network.MIG, DefaultOptions()).Run(ntk) })
}

func TestPipelineOrder(t *testing.T) {
	o := New(network.MIG, DefaultOptions())
	var names []string
	for _, p := range o.Pipelines() {
		for _, pass := range p.Passes() {
			names = append(names, pass.Name())
		}
	}
	assert.Equal(t, []string{
		"resubstitution2", "resubstitution", "inverter propagation", "inverter optimization",
		"functional reduction", "algebraic depth rewriting", "cut rewriting",
	}, names)
}
