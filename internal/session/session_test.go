package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/backend/reference"
	"github.com/CapZTr/lime/internal/equiv"
	"github.com/CapZTr/lime/internal/network"
)

func andNetwork() *network.Network {
	n := network.New(network.MIG)
	a := n.CreateInput()
	b := n.CreateInput()
	n.CreateOutput(n.CreateAnd(a, b))
	return n
}

// adderChain builds three full adders over five inputs with majority
// carries.
func adderChain() *network.Network {
	n := network.New(network.MIG)
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

func TestSingleAndGateSession(t *testing.T) {
	be := reference.New()
	settings := backend.DefaultSettings()
	settings.Preoptimize = true
	settings.Rewrite = false

	res, err := Rewrite(be, settings, andNetwork())
	require.NoError(t, err)
	defer res.Close()

	require.NotNil(t, res.Preoptimization)
	assert.Equal(t, res.Preoptimization.InitialSize, res.Preoptimization.FinalSize)
	assert.Equal(t, 1, res.Network.NumGates())
	assert.Equal(t, uint64(1), res.Stats.InstructionCount)
	assert.Nil(t, res.Stats.Program, "ownership moved into the result")
	assert.True(t, res.Program.Valid())
	assert.NotEqual(t, uuid.Nil, res.ID)
}

func TestAdderChainWithoutPreoptimization(t *testing.T) {
	ntk := adderChain()
	size := ntk.Size()
	oracle := equiv.TruthTables(ntk)

	settings := backend.DefaultSettings()
	settings.Preoptimize = false
	res, err := Rewrite(reference.New(), settings, ntk)
	require.NoError(t, err)
	defer res.Close()

	assert.Nil(t, res.Preoptimization)
	assert.Equal(t, size, ntk.Size(), "input left untouched")
	assert.LessOrEqual(t, res.Network.Size(), size)
	assert.Equal(t, 5, res.Network.NumInputs())
	assert.Equal(t, 2, res.Network.NumOutputs())
	assert.Equal(t, oracle, equiv.TruthTables(res.Network))
}

func TestAdderChainWithPreoptimization(t *testing.T) {
	ntk := adderChain()
	size := ntk.Size()
	oracle := equiv.TruthTables(ntk)

	settings := backend.DefaultSettings()
	settings.Validator = NewValidator(ntk)
	res, err := Rewrite(reference.New(), settings, ntk)
	require.NoError(t, err)
	defer res.Close()

	require.NotNil(t, res.Preoptimization)
	assert.GreaterOrEqual(t, res.Preoptimization.Rounds, 1)
	assert.LessOrEqual(t, ntk.Size(), size, "optimized in place")
	assert.Equal(t, oracle, equiv.TruthTables(ntk))
	assert.Equal(t, oracle, equiv.TruthTables(res.Network))
	assert.True(t, res.Stats.ValidationSuccess)
}

func TestCompileReturnsNoNetwork(t *testing.T) {
	be := reference.New()
	res, err := Compile(be, backend.DefaultSettings(), andNetwork())
	require.NoError(t, err)
	assert.Nil(t, res.Network)
	assert.Contains(t, res.Program.String(), "tra")

	assert.Equal(t, 1, be.Outstanding())
	require.NoError(t, res.Close())
	assert.Zero(t, be.Outstanding())
}

func TestSessionOverWire(t *testing.T) {
	be := reference.New()
	pipe := &backend.Pipe{Backend: be}
	ntk := adderChain()
	settings := backend.DefaultSettings()
	settings.Validator = NewValidator(ntk)

	res, err := Rewrite(pipe, settings, ntk)
	require.NoError(t, err)
	assert.True(t, res.Stats.ValidationSuccess)
	assert.True(t, equiv.Exhaustive(ntk, res.Network))
	assert.Equal(t, 1, pipe.Outstanding())
	require.NoError(t, res.Close())
	assert.Zero(t, pipe.Outstanding())
	assert.Zero(t, be.Outstanding())
}

func TestValidatorRejectsDifferentFunction(t *testing.T) {
	v := NewValidator(andNetwork())

	or := network.New(network.MIG)
	a := or.CreateInput()
	b := or.CreateInput()
	or.CreateOutput(or.CreateOr(a, b))
	assert.False(t, v.Validate(or))
	assert.True(t, v.Validate(andNetwork()))

	wide := network.New(network.MIG)
	wide.CreateInput()
	assert.False(t, v.Validate(wide), "interface mismatch")
}

func TestValidatorChecksConstantNetworks(t *testing.T) {
	one := network.New(network.AIG)
	one.CreateOutput(network.True)
	zero := network.New(network.AIG)
	zero.CreateOutput(network.False)

	v := NewValidator(one)
	assert.False(t, v.Validate(zero))
	assert.True(t, v.Validate(one.Clone()))
}

type brokenBackend struct {
	backend.ProgramArena
}

func (b *brokenBackend) Open(network.Technology, backend.Settings, network.Receiver) (backend.Sink, error) {
	return nil, errors.New("no rows left")
}

func TestBackendErrorsPropagate(t *testing.T) {
	_, err := Compile(&brokenBackend{}, backend.DefaultSettings(), andNetwork())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows left")
}
