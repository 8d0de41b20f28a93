package backend

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CapZTr/lime/internal/equiv"
	"github.com/CapZTr/lime/internal/network"
)

// echoBackend rebuilds the streamed network and sends it back unchanged.
type echoBackend struct {
	ProgramArena

	fail     error
	settings Settings
}

func (e *echoBackend) Open(tech network.Technology, settings Settings, out network.Receiver) (Sink, error) {
	e.settings = settings
	return &echoSink{Builder: network.NewBuilder(tech), b: e, settings: settings, out: out}, nil
}

type echoSink struct {
	*network.Builder
	b        *echoBackend
	settings Settings
	out      network.Receiver
}

func (s *echoSink) Finish() (*Statistics, error) {
	if s.b.fail != nil {
		return nil, s.b.fail
	}
	ntk := s.Network()
	st := &Statistics{InstructionCount: uint64(ntk.NumGates()), ValidationSuccess: true}
	if s.settings.Validator != nil {
		st.ValidationSuccess = s.settings.Validator.Validate(ntk)
	}
	st.Program = s.b.Alloc(fmt.Sprintf("%d gates", ntk.NumGates()))
	if s.out != nil {
		network.Send(ntk, s.out)
	}
	return st, nil
}

func sampleNetwork() *network.Network {
	n := network.New(network.MIG)
	a := n.CreateInput()
	b := n.CreateInput()
	c := n.CreateInput()
	m := n.CreateMaj(a, b.Not(), c)
	n.CreateOutput(n.CreateAnd(m, a).Not())
	n.CreateOutput(c)
	n.CreateOutput(network.True)
	return n
}

func TestPipeRoundTrip(t *testing.T) {
	ntk := sampleNetwork()
	echo := &echoBackend{}
	pipe := &Pipe{Backend: echo}

	validated := 0
	settings := DefaultSettings()
	settings.Architecture = PLiM
	settings.Mode = ModeExhaustive
	settings.SizeFactor = 3
	settings.Validator = ValidatorFunc(func(c *network.Network) bool {
		validated++
		return equiv.Exhaustive(ntk, c)
	})

	out := network.NewBuilder(network.MIG)
	sink, err := pipe.Open(network.MIG, settings, out)
	require.NoError(t, err)
	network.Send(ntk, sink)
	st, err := sink.Finish()
	require.NoError(t, err)

	assert.Equal(t, 1, validated)
	assert.True(t, st.ValidationSuccess)
	assert.Equal(t, uint64(ntk.NumGates()), st.InstructionCount)
	require.True(t, out.Finished())
	got := out.Network()
	assert.Equal(t, ntk.NumInputs(), got.NumInputs())
	assert.Equal(t, ntk.NumOutputs(), got.NumOutputs())
	for i := range ntk.Outputs() {
		assert.Equal(t, ntk.Output(i).IsComplemented(), got.Output(i).IsComplemented(), "output %d", i)
	}
	assert.True(t, equiv.Exhaustive(ntk, got))

	assert.Equal(t, PLiM, echo.settings.Architecture)
	assert.Equal(t, ModeExhaustive, echo.settings.Mode)
	assert.Equal(t, uint64(3), echo.settings.SizeFactor)
	assert.False(t, echo.settings.Preoptimize, "preoptimize stays on the client")
	assert.Zero(t, echo.Outstanding(), "server releases its buffer after copying")

	require.NotNil(t, st.Program)
	p := NewProgramString(st.Program, pipe)
	st.Program = nil
	assert.Equal(t, "2 gates", p.String())
	assert.Equal(t, 1, pipe.Outstanding())
	p.Reset()
	assert.Zero(t, pipe.Outstanding())
}

func TestPipeWithoutNetworkBack(t *testing.T) {
	ntk := sampleNetwork()
	pipe := &Pipe{Backend: &echoBackend{}}
	sink, err := pipe.Open(network.MIG, DefaultSettings(), nil)
	require.NoError(t, err)
	network.Send(ntk, sink)
	st, err := sink.Finish()
	require.NoError(t, err)
	assert.True(t, st.ValidationSuccess)
	pipe.ReleaseProgram(st.Program)
}

func TestRejectedCandidateIsData(t *testing.T) {
	pipe := &Pipe{Backend: &echoBackend{}}
	settings := DefaultSettings()
	settings.Validator = ValidatorFunc(func(*network.Network) bool { return false })
	sink, err := pipe.Open(network.MIG, settings, nil)
	require.NoError(t, err)
	network.Send(sampleNetwork(), sink)
	st, err := sink.Finish()
	require.NoError(t, err)
	assert.False(t, st.ValidationSuccess)
	pipe.ReleaseProgram(st.Program)
}

func TestBackendFailureIsReported(t *testing.T) {
	pipe := &Pipe{Backend: &echoBackend{fail: errors.New("out of rows")}}
	sink, err := pipe.Open(network.MIG, DefaultSettings(), nil)
	require.NoError(t, err)
	network.Send(sampleNetwork(), sink)
	_, err = sink.Finish()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.Contains(t, err.Error(), "out of rows")
	assert.Zero(t, pipe.Outstanding())
}

func TestServeRejectsUndefinedPosition(t *testing.T) {
	var req bytes.Buffer
	enc := newEncoder(&req)
	settings := DefaultSettings()
	enc.send(&frame{Op: opSettings, Settings: &settings, Technology: uint8(network.AIG)})
	enc.Input()
	enc.Gate(network.KindAnd, []network.Signal{network.MakeSignal(1, false), network.MakeSignal(5, false)})
	enc.send(&frame{Op: opEnd})
	require.NoError(t, enc.flush())

	var resp bytes.Buffer
	err := Serve(&req, &resp, &echoBackend{})
	assert.ErrorIs(t, err, ErrInvalidFrame)

	f, err := newDecoder(&resp).next()
	require.NoError(t, err)
	assert.Equal(t, opError, f.Op)
	assert.Contains(t, f.Error, "undefined position 5")
}

func TestServeRequiresSettingsFirst(t *testing.T) {
	var req bytes.Buffer
	enc := newEncoder(&req)
	enc.Input()
	enc.send(&frame{Op: opEnd})
	require.NoError(t, enc.flush())

	var resp bytes.Buffer
	err := Serve(&req, &resp, &echoBackend{})
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestReplayerChecksFrames(t *testing.T) {
	b := network.NewBuilder(network.AIG)
	rp := newReplayer(b)
	require.NoError(t, rp.apply(&frame{Op: opInput}))
	assert.ErrorIs(t, rp.apply(&frame{Op: opGate, Kind: uint8(network.KindAnd), Signals: []uint32{2}}), ErrInvalidFrame)
	assert.ErrorIs(t, rp.apply(&frame{Op: opGate, Kind: uint8(network.KindInput)}), ErrInvalidFrame)
	require.NoError(t, rp.apply(&frame{Op: opOutputs, Signals: []uint32{3}}))
	assert.ErrorIs(t, rp.apply(&frame{Op: opInput}), ErrInvalidFrame)
	assert.Equal(t, network.MakeSignal(b.Network().Input(0), true), b.Network().Output(0))
}

func TestPackedNetworkRoundTrip(t *testing.T) {
	ntk := sampleNetwork()
	got, err := packNetwork(ntk).unpack()
	require.NoError(t, err)
	assert.Equal(t, network.Print(ntk), network.Print(got))

	_, err = (&wireNetwork{Technology: 9}).unpack()
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestClientCarriesOneSession(t *testing.T) {
	var w bytes.Buffer
	c := NewClient(&bytes.Buffer{}, &w)
	_, err := c.Open(network.AIG, DefaultSettings(), nil)
	require.NoError(t, err)
	_, err = c.Open(network.AIG, DefaultSettings(), nil)
	assert.Error(t, err)
}

func TestSettingsTokens(t *testing.T) {
	arch, err := ParseArchitecture("felix")
	require.NoError(t, err)
	assert.Equal(t, Felix, arch)
	assert.Equal(t, network.XAG, arch.Technology())
	assert.Equal(t, network.AIG, Imply.Technology())
	assert.Equal(t, network.MIG, SIMDRAM.Technology())

	_, err = ParseArchitecture("risc")
	assert.ErrorIs(t, err, ErrUnknownArchitecture)
	_, err = ParseMode("lazy")
	assert.ErrorIs(t, err, ErrUnknownMode)
	_, err = ParseCandidateSelection("some")
	assert.ErrorIs(t, err, ErrUnknownCandidateSelection)
	_, err = ParseRewriting("sat")
	assert.ErrorIs(t, err, ErrUnknownRewriting)

	var r RewritingStrategy
	require.NoError(t, r.UnmarshalText([]byte("compiling_memusage")))
	assert.Equal(t, RewritingCompilingMemUsage, r)
	var c CandidateSelection
	require.NoError(t, c.UnmarshalText([]byte("plim_compiler")))
	assert.Equal(t, CandidatesGraphCompiler, c)
	assert.Equal(t, "plim_compiler", c.String())

	for _, names := range [][]string{ArchitectureNames(), ModeNames(), CandidateSelectionNames(), RewritingNames()} {
		assert.NotEmpty(t, names)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.Preoptimize)
	assert.True(t, s.Rewrite)
	assert.Equal(t, RewritingNone, s.Rewriting)
	assert.Equal(t, ModeGreedy, s.Mode)
	assert.Equal(t, CandidatesAll, s.CandidateSelection)
	assert.Nil(t, s.Validator)
}
