package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/equiv"
	"github.com/CapZTr/lime/internal/network"
)

func andNetwork(tech network.Technology) *network.Network {
	n := network.New(tech)
	a := n.CreateInput()
	b := n.CreateInput()
	n.CreateOutput(n.CreateAnd(a, b))
	return n
}

func compile(t *testing.T, b backend.Backend, ntk *network.Network, settings backend.Settings, out network.Receiver) *backend.Statistics {
	t.Helper()
	sink, err := b.Open(ntk.Technology(), settings, out)
	require.NoError(t, err)
	network.Send(ntk, sink)
	st, err := sink.Finish()
	require.NoError(t, err)
	return st
}

func TestSingleAndGate(t *testing.T) {
	b := New()
	settings := backend.DefaultSettings()
	settings.Rewrite = false
	out := network.NewBuilder(network.MIG)

	st := compile(t, b, andNetwork(network.MIG), settings, out)
	assert.Equal(t, uint64(1), st.InstructionCount)
	assert.Equal(t, uint64(1), st.NumInstr)
	assert.Equal(t, uint64(3), st.NumCells)
	assert.True(t, st.ValidationSuccess)
	assert.Equal(t, 1, out.Network().NumGates())

	require.NotNil(t, st.Program)
	assert.Equal(t, "; ambit program: 2 inputs, 1 outputs\nr3 = tra 0, r1, r2\nout0 = r3\n", st.Program.Text())
	assert.Equal(t, 1, b.Outstanding())
	b.ReleaseProgram(st.Program)
	assert.Zero(t, b.Outstanding())
	assert.Panics(t, func() { b.ReleaseProgram(st.Program) })
}

func TestMnemonicsFollowArchitecture(t *testing.T) {
	cases := []struct {
		arch backend.Architecture
		want string
	}{
		{backend.SIMDRAM, "r3 = maj 0, r1, r2"},
		{backend.PLiM, "r3 = rm3 0, r1, r2"},
		{backend.Imply, "r3 = imp r1, r2"},
		{backend.Felix, "r3 = fand r1, r2"},
	}
	for _, tc := range cases {
		b := New()
		settings := backend.DefaultSettings()
		settings.Architecture = tc.arch
		st := compile(t, b, andNetwork(tc.arch.Technology()), settings, nil)
		assert.Contains(t, st.Program.Text(), tc.want, tc.arch.String())
		b.ReleaseProgram(st.Program)
	}
}

func TestComplementedOperandsCost(t *testing.T) {
	ntk := network.New(network.AIG)
	a := ntk.CreateInput()
	b := ntk.CreateInput()
	ntk.CreateOutput(ntk.CreateAnd(a.Not(), b.Not()))

	be := New()
	settings := backend.DefaultSettings()
	settings.Architecture = backend.Imply
	st := compile(t, be, ntk, settings, nil)
	assert.InDelta(t, 2.0, st.Cost, 1e-9)
	be.ReleaseProgram(st.Program)
}

func TestRewritingStrategiesPreserveFunction(t *testing.T) {
	ntk := network.New(network.MIG)
	a := ntk.CreateInput()
	b := ntk.CreateInput()
	c := ntk.CreateInput()
	x := ntk.CreateAnd(a, ntk.CreateAnd(b, c))
	y := ntk.CreateAnd(ntk.CreateAnd(a, b), c)
	ntk.CreateOutput(ntk.CreateOr(x, y))

	for _, r := range []backend.RewritingStrategy{
		backend.RewritingNone, backend.RewritingLP, backend.RewritingCompiling,
		backend.RewritingCompilingMemUsage, backend.RewritingGreedy,
	} {
		be := New()
		settings := backend.DefaultSettings()
		settings.Rewriting = r
		settings.SizeFactor = 2
		out := network.NewBuilder(network.MIG)
		st := compile(t, be, ntk, settings, out)

		assert.True(t, equiv.Exhaustive(ntk, out.Network()), r.String())
		assert.LessOrEqual(t, st.Rewrite.NodesPostTrim, st.Rewrite.NodesPreTrim)
		assert.LessOrEqual(t, st.NetworkSize, uint64(ntk.Size()))
		be.ReleaseProgram(st.Program)
	}
}

func TestValidatorSeesCompiledNetwork(t *testing.T) {
	ntk := andNetwork(network.AIG)
	be := New()
	settings := backend.DefaultSettings()
	settings.Validator = backend.ValidatorFunc(func(c *network.Network) bool {
		return equiv.Exhaustive(ntk, c)
	})
	st := compile(t, be, ntk, settings, nil)
	assert.True(t, st.ValidationSuccess)
	be.ReleaseProgram(st.Program)

	settings.Validator = backend.ValidatorFunc(func(*network.Network) bool { return false })
	st = compile(t, be, ntk, settings, nil)
	assert.False(t, st.ValidationSuccess)
	be.ReleaseProgram(st.Program)
}

func TestFinishWithoutOutputs(t *testing.T) {
	be := New()
	sink, err := be.Open(network.AIG, backend.DefaultSettings(), nil)
	require.NoError(t, err)
	sink.Input()
	_, err = sink.Finish()
	assert.ErrorIs(t, err, ErrIncompleteNetwork)
	assert.Zero(t, be.Outstanding())
}

func TestServedOverPipe(t *testing.T) {
	ntk := andNetwork(network.XAG)
	be := New()
	pipe := &backend.Pipe{Backend: be}
	settings := backend.DefaultSettings()
	settings.Architecture = backend.Felix
	out := network.NewBuilder(network.XAG)

	st := compile(t, pipe, ntk, settings, out)
	assert.Equal(t, uint64(1), st.InstructionCount)
	assert.True(t, equiv.Exhaustive(ntk, out.Network()))
	assert.Zero(t, be.Outstanding())

	p := backend.NewProgramString(st.Program, pipe)
	defer p.Close()
	assert.Contains(t, p.String(), "fand")
}
