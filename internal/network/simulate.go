package network

// Projection words for the first six variables of a truth table.
var projections = [6]uint64{
	0xaaaaaaaaaaaaaaaa,
	0xcccccccccccccccc,
	0xf0f0f0f0f0f0f0f0,
	0xff00ff00ff00ff00,
	0xffff0000ffff0000,
	0xffffffff00000000,
}

// MaxExhaustiveInputs bounds the input count for which ExhaustivePatterns
// is defined.
const MaxExhaustiveInputs = 16

// ExhaustivePatterns returns input patterns enumerating every assignment of
// k variables, one word slice per variable. With fewer than six variables a
// single word is used and the assignments repeat inside it.
func ExhaustivePatterns(k int) [][]uint64 {
	if k > MaxExhaustiveInputs {
		panic("network: too many inputs for exhaustive simulation")
	}
	words := 1
	if k > 6 {
		words = 1 << (k - 6)
	}
	pats := make([][]uint64, k)
	for i := range pats {
		pats[i] = make([]uint64, words)
		for w := range pats[i] {
			switch {
			case i < 6:
				pats[i][w] = projections[i]
			case w>>(i-6)&1 == 1:
				pats[i][w] = ^uint64(0)
			}
		}
	}
	return pats
}

// Simulate evaluates every node of n in parallel over the given patterns.
// patterns[i] holds the words for input i; all slices must have the same
// length. With no inputs a single word is simulated. The result is indexed
// by NodeID.
func Simulate(n *Network, patterns [][]uint64) [][]uint64 {
	if len(patterns) != len(n.inputs) {
		panic("network: pattern count does not match input count")
	}
	// A network without inputs still has one assignment to evaluate.
	words := 1
	if len(patterns) > 0 {
		words = len(patterns[0])
	}
	vals := make([][]uint64, n.Size())
	vals[0] = make([]uint64, words)
	for i, in := range n.inputs {
		vals[in] = patterns[i]
	}
	for i := range n.nodes {
		nd := &n.nodes[i]
		if !nd.kind.IsGate() {
			continue
		}
		out := make([]uint64, words)
		for w := range out {
			out[w] = evalWord(nd, vals, w)
		}
		vals[i] = out
	}
	return vals
}

// SimulateOutputs returns the output words of n for the given patterns.
func SimulateOutputs(n *Network, patterns [][]uint64) [][]uint64 {
	vals := Simulate(n, patterns)
	outs := make([][]uint64, len(n.outputs))
	for i, o := range n.outputs {
		outs[i] = SignalWords(vals, o)
	}
	return outs
}

// SignalWords returns the simulated words of s, complementing if needed.
func SignalWords(vals [][]uint64, s Signal) []uint64 {
	src := vals[s.Node()]
	out := make([]uint64, len(src))
	for w, v := range src {
		if s.IsComplemented() {
			v = ^v
		}
		out[w] = v
	}
	return out
}

func evalWord(nd *node, vals [][]uint64, w int) uint64 {
	var in [3]uint64
	for j, f := range nd.fanins[:nd.kind.Arity()] {
		v := vals[f.Node()][w]
		if f.IsComplemented() {
			v = ^v
		}
		in[j] = v
	}
	switch nd.kind {
	case KindAnd:
		return in[0] & in[1]
	case KindXor:
		return in[0] ^ in[1]
	default:
		return in[0]&in[1] | in[0]&in[2] | in[1]&in[2]
	}
}

// Evaluate computes the outputs of n for one input assignment.
func Evaluate(n *Network, assignment []bool) []bool {
	pats := make([][]uint64, len(assignment))
	for i, a := range assignment {
		if a {
			pats[i] = []uint64{1}
		} else {
			pats[i] = []uint64{0}
		}
	}
	outs := SimulateOutputs(n, pats)
	res := make([]bool, len(outs))
	for i, o := range outs {
		res[i] = o[0]&1 == 1
	}
	return res
}
