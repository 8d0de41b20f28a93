package rewrite

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CapZTr/lime/internal/equiv"
	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/truth"
)

// randomNetwork builds a reproducible network with redundancy for the passes
// to find.
func randomNetwork(tech network.Technology, inputs, gates int, seed uint64) *network.Network {
	rng := rand.New(rand.NewPCG(seed, 7))
	n := network.New(tech)
	sigs := []network.Signal{}
	for i := 0; i < inputs; i++ {
		sigs = append(sigs, n.CreateInput())
	}
	pick := func() network.Signal {
		return sigs[rng.IntN(len(sigs))].NotIf(rng.IntN(2) == 0)
	}
	for i := 0; i < gates; i++ {
		var s network.Signal
		switch rng.IntN(4) {
		case 0:
			s = n.CreateAnd(pick(), pick())
		case 1:
			s = n.CreateOr(pick(), pick())
		case 2:
			s = n.CreateXor(pick(), pick())
		default:
			s = n.CreateMaj(pick(), pick(), pick())
		}
		sigs = append(sigs, s)
	}
	for i := 0; i < 4; i++ {
		n.CreateOutput(sigs[len(sigs)-1-i])
	}
	return network.Cleanup(n)
}

func allPasses(tech network.Technology) []Pass {
	return []Pass{
		NewResubstitution("resub", ResubOptions{MaxInserts: 2, Majority: tech == network.MIG, Xor: tech == network.XAG}),
		InverterPropagation{},
		InverterOptimization{},
		DefaultFunctionalReduction(),
		AlgebraicDepthRewriting{},
		DefaultCutRewriting(),
	}
}

func TestPassesPreserveFunctionAndNeverGrow(t *testing.T) {
	for _, tech := range []network.Technology{network.MIG, network.AIG, network.XAG} {
		for seed := uint64(1); seed <= 3; seed++ {
			ntk := randomNetwork(tech, 6, 60, seed)
			for _, p := range allPasses(tech) {
				var st Stats
				out := Run(p, ntk, &st)
				assert.LessOrEqual(t, out.Size(), ntk.Size(), "%s on %s", p.Name(), tech)
				ok, err := equiv.Equivalent(ntk, out)
				require.NoError(t, err)
				assert.True(t, ok, "%s on %s seed %d changed the function", p.Name(), tech, seed)
				assert.Equal(t, p.Name(), st.Pass)
				assert.Equal(t, out.Size(), st.SizeAfter)
			}
		}
	}
}

type growingPass struct{}

func (growingPass) Name() string        { return "grow" }
func (growingPass) Description() string { return "adds an input" }
func (growingPass) Requires() ViewSet   { return 0 }
func (growingPass) Apply(ntk *network.Network, _ *Views, _ *Stats) *network.Network {
	out := ntk.Clone()
	out.CreateInput()
	return out
}

func TestRunPanicsOnGrowth(t *testing.T) {
	ntk := randomNetwork(network.AIG, 3, 5, 1)
	var st Stats
	assert.Panics(t, func() { Run(growingPass{}, ntk, &st) })
}

type danglingPass struct{}

func (danglingPass) Name() string        { return "dangle" }
func (danglingPass) Description() string { return "adds an unused gate" }
func (danglingPass) Requires() ViewSet   { return 0 }
func (danglingPass) Apply(ntk *network.Network, _ *Views, _ *Stats) *network.Network {
	out := ntk.Clone()
	out.CreateMaj(out.Output(0), out.Output(1), out.Output(2).Not())
	return out
}

func TestRunRemovesDanglingNodes(t *testing.T) {
	ntk := randomNetwork(network.MIG, 4, 12, 2)
	var st Stats
	out := Run(danglingPass{}, ntk, &st)
	assert.Equal(t, ntk.Size(), out.Size())
	assert.Equal(t, ntk.Size(), st.SizeAfter)
	assert.True(t, equiv.Exhaustive(ntk, out))
}

// associativeTwins returns a network computing a&b&c twice, as a&(b&c) and
// (a&b)&c.
func associativeTwins(tech network.Technology) *network.Network {
	n := network.New(tech)
	a := n.CreateInput()
	b := n.CreateInput()
	c := n.CreateInput()
	x := n.CreateAnd(a, n.CreateAnd(b, c))
	y := n.CreateAnd(n.CreateAnd(a, b), c)
	n.CreateOutput(x)
	n.CreateOutput(y)
	return n
}

func TestResubstitutionFindsExistingDivisor(t *testing.T) {
	ntk := associativeTwins(network.AIG)
	require.Equal(t, 4, ntk.NumGates())

	var st Stats
	out := Run(NewResubstitution("resub", DefaultResubOptions()), ntk, &st)
	assert.Equal(t, 2, out.NumGates())
	assert.Equal(t, 1, st.Applied)
	assert.Equal(t, out.Output(0), out.Output(1))
	assert.True(t, equiv.Exhaustive(ntk, out))
}

func TestFunctionalReductionMergesTwins(t *testing.T) {
	for _, tech := range []network.Technology{network.MIG, network.AIG, network.XAG} {
		ntk := associativeTwins(tech)
		var st Stats
		out := Run(DefaultFunctionalReduction(), ntk, &st)
		assert.Equal(t, 2, out.NumGates(), tech.String())
		assert.True(t, equiv.Exhaustive(ntk, out))
	}
}

func TestFunctionalReductionProvesWithSolver(t *testing.T) {
	ntk := associativeTwins(network.AIG)
	p := &FunctionalReduction{ExhaustiveInputs: 0, RandomWords: 4, MaxProofs: 10}
	var st Stats
	out := Run(p, ntk, &st)
	assert.Equal(t, 2, out.NumGates())
	assert.True(t, equiv.Exhaustive(ntk, out))
}

func complementedEdges(ntk *network.Network) int {
	count := 0
	ntk.ForEachGate(func(id network.NodeID) {
		for _, f := range ntk.Fanins(id) {
			if f.IsComplemented() && f.Node() != 0 {
				count++
			}
		}
	})
	for _, o := range ntk.Outputs() {
		if o.IsComplemented() {
			count++
		}
	}
	return count
}

func TestInverterOptimization(t *testing.T) {
	ntk := network.New(network.MIG)
	a := ntk.CreateInput()
	b := ntk.CreateInput()
	c := ntk.CreateInput()
	ntk.CreateOutput(ntk.CreateMaj(a.Not(), b.Not(), c).Not())
	require.Equal(t, 3, complementedEdges(ntk))

	var st Stats
	out := Run(InverterOptimization{}, ntk, &st)
	assert.Equal(t, 1, complementedEdges(out))
	assert.Equal(t, ntk.NumGates(), out.NumGates())
	assert.True(t, equiv.Exhaustive(ntk, out))
}

func TestInverterPropagation(t *testing.T) {
	ntk := network.New(network.MIG)
	a := ntk.CreateInput()
	b := ntk.CreateInput()
	c := ntk.CreateInput()
	ntk.CreateOutput(ntk.CreateMaj(a.Not(), b.Not(), c))

	var st Stats
	out := Run(InverterPropagation{}, ntk, &st)
	out.ForEachGate(func(id network.NodeID) {
		n := 0
		for _, f := range out.Fanins(id) {
			if f.IsComplemented() {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1)
	})
	assert.True(t, out.Output(0).IsComplemented())
	assert.True(t, equiv.Exhaustive(ntk, out))
}

func TestInverterPassesIgnoreOtherTechnologies(t *testing.T) {
	ntk := associativeTwins(network.AIG)
	var st Stats
	assert.Same(t, ntk, Run(InverterOptimization{}, ntk, &st))
	assert.Same(t, ntk, Run(InverterPropagation{}, ntk, &st))
	assert.Same(t, ntk, Run(AlgebraicDepthRewriting{}, ntk, &st))
}

func TestAlgebraicDepthRewritingShortensCriticalPath(t *testing.T) {
	ntk := network.New(network.MIG)
	var in []network.Signal
	for i := 0; i < 7; i++ {
		in = append(in, ntk.CreateInput())
	}
	x, u, y := in[0], in[1], in[2]
	deep := ntk.CreateMaj(ntk.CreateMaj(in[3], in[4], in[5]), in[6], in[3].Not())
	inner := ntk.CreateMaj(y, u, deep)
	ntk.CreateOutput(ntk.CreateMaj(x, u, inner))

	before := network.NewDepthView(ntk).Depth()
	var st Stats
	out := Run(AlgebraicDepthRewriting{}, ntk, &st)
	after := network.NewDepthView(out).Depth()

	assert.Equal(t, 4, before)
	assert.Equal(t, 3, after)
	assert.LessOrEqual(t, out.Size(), ntk.Size())
	assert.True(t, equiv.Exhaustive(ntk, out))
}

// A rewrite attempted and abandoned at the output gate materializes the
// inner gate n10 before the gate feeding the output rewrites n10 away. The
// pass must keep its depth gain once n10 is discarded.
func TestAlgebraicDepthRewritingKeepsGainAfterAbandonedAttempt(t *testing.T) {
	ntk := network.New(network.MIG)
	in := map[string]network.Signal{}
	for _, name := range []string{"u", "y", "p", "e", "f", "g", "h", "i", "j", "k", "l"} {
		in[name] = ntk.CreateInput()
	}
	d := ntk.CreateMaj(in["e"], in["f"], in["g"])
	n10 := ntk.CreateMaj(in["p"], in["u"], d)
	n11 := ntk.CreateMaj(in["y"], in["u"], n10)
	x := ntk.CreateMaj(in["h"], in["i"], ntk.CreateMaj(in["j"], in["k"], in["l"]))
	ntk.CreateOutput(ntk.CreateMaj(x, in["u"], n11))

	var st Stats
	out := Run(AlgebraicDepthRewriting{}, ntk, &st)

	assert.Equal(t, 1, st.Applied)
	assert.Equal(t, 4, network.NewDepthView(ntk).Depth())
	assert.Equal(t, 3, network.NewDepthView(out).Depth())
	assert.Equal(t, ntk.Size(), out.Size())
	assert.True(t, equiv.Exhaustive(ntk, out))
}

func TestCutRewritingCollapsesRedundantCone(t *testing.T) {
	for _, tech := range []network.Technology{network.AIG, network.XAG, network.MIG} {
		ntk := network.New(tech)
		a := ntk.CreateInput()
		b := ntk.CreateInput()
		c := ntk.CreateInput()
		ntk.CreateOutput(ntk.CreateAnd(ntk.CreateAnd(a, b), ntk.CreateAnd(a, c)))
		require.Equal(t, 3, ntk.NumGates())

		var st Stats
		out := Run(DefaultCutRewriting(), ntk, &st)
		assert.Equal(t, 2, out.NumGates(), tech.String())
		assert.True(t, equiv.Exhaustive(ntk, out))
	}
}

func TestLibraryTemplateSizes(t *testing.T) {
	and3 := truth.And(truth.Var(0), truth.And(truth.Var(1), truth.Var(2)))
	xor2 := truth.Xor(truth.Var(0), truth.Var(1))
	maj3 := truth.Maj(truth.Var(0), truth.Var(1), truth.Var(2))

	cases := []struct {
		tech network.Technology
		f    truth.Table
		size int
	}{
		{network.AIG, and3, 2},
		{network.AIG, xor2, 3},
		{network.XAG, xor2, 1},
		{network.XAG, and3, 2},
		{network.MIG, maj3, 1},
		{network.MIG, and3, 2},
	}
	for _, tc := range cases {
		m, ok := libraryFor(tc.tech).lookup(tc.f)
		require.True(t, ok, "%s %s", tc.tech, tc.f)
		assert.Equal(t, tc.size, m.tmpl.size(), "%s %s", tc.tech, tc.f)
		assert.Equal(t, tc.f, m.eval(truth.Vars))
	}
}

func TestLibraryMatchesAreExact(t *testing.T) {
	lib := libraryFor(network.AIG)
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		f := truth.Table(rng.Uint32())
		m, ok := lib.lookup(f)
		if !ok {
			continue
		}
		assert.Equal(t, f, m.eval(truth.Vars), "function %s", f)
	}
}

func TestExpandCut(t *testing.T) {
	// x0 & x1 over leaves {3, 7} re-expressed over {3, 5, 7}
	f := truth.And(truth.Var(0), truth.Var(1))
	got := expand(f, []network.NodeID{3, 7}, []network.NodeID{3, 5, 7})
	assert.Equal(t, truth.And(truth.Var(0), truth.Var(2)), got)
}

func TestCutDominance(t *testing.T) {
	small := cut{leaves: []network.NodeID{2, 4}}
	big := cut{leaves: []network.NodeID{2, 3, 4}}
	assert.True(t, small.dominates(big))
	assert.False(t, big.dominates(small))

	set := addCut(nil, big)
	set = addCut(set, small)
	require.Len(t, set, 1)
	assert.Equal(t, small.leaves, set[0].leaves)
}
