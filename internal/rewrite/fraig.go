package rewrite

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/CapZTr/lime/internal/equiv"
	"github.com/CapZTr/lime/internal/network"
)

// FunctionalReduction merges nodes computing the same function, up to
// complementation, into the earliest such node. Candidates come from
// simulation signatures; unless simulation was exhaustive every merge is
// proven by SAT first.
type FunctionalReduction struct {
	// ExhaustiveInputs is the largest input count simulated exhaustively.
	ExhaustiveInputs int
	// RandomWords is the number of 64-bit random patterns per input.
	RandomWords int
	// MaxProofs bounds the SAT queries per application.
	MaxProofs int
}

// DefaultFunctionalReduction returns the pass with the optimizer's limits.
func DefaultFunctionalReduction() *FunctionalReduction {
	return &FunctionalReduction{ExhaustiveInputs: 12, RandomWords: 16, MaxProofs: 1000}
}

func (*FunctionalReduction) Name() string { return "functional reduction" }

func (*FunctionalReduction) Description() string {
	return "Merge functionally equivalent nodes"
}

func (*FunctionalReduction) Requires() ViewSet { return 0 }

// signature key seed, fixed so that applications are reproducible
const fraigSeed = 0x6c696d65

func (p *FunctionalReduction) Apply(ntk *network.Network, _ *Views, st *Stats) *network.Network {
	if ntk.NumInputs() == 0 {
		return ntk
	}
	exact := ntk.NumInputs() <= p.ExhaustiveInputs && ntk.NumInputs() <= network.MaxExhaustiveInputs
	var pats [][]uint64
	if exact {
		pats = network.ExhaustivePatterns(ntk.NumInputs())
	} else {
		rng := rand.New(rand.NewPCG(fraigSeed, uint64(ntk.Size())))
		pats = make([][]uint64, ntk.NumInputs())
		for i := range pats {
			pats[i] = make([]uint64, p.RandomWords)
			for w := range pats[i] {
				pats[i][w] = rng.Uint64()
			}
		}
	}
	vals := network.Simulate(ntk, pats)

	// classes are keyed by the signature normalized to a cleared first bit
	classes := make(map[string]network.NodeID)
	key := func(words []uint64, flip bool) string {
		buf := make([]byte, 8*len(words))
		for i, w := range words {
			if flip {
				w = ^w
			}
			binary.LittleEndian.PutUint64(buf[8*i:], w)
		}
		return string(buf)
	}

	var prover *equiv.Prover
	proofs := 0
	merged := make(map[network.NodeID]network.Signal)
	for id := 0; id < ntk.Size(); id++ {
		nid := network.NodeID(id)
		words := vals[nid]
		phase := len(words) > 0 && words[0]&1 == 1
		k := key(words, phase)
		rep, ok := classes[k]
		if !ok {
			classes[k] = nid
			continue
		}
		if !ntk.IsGate(nid) {
			continue
		}
		repPhase := vals[rep][0]&1 == 1
		cand := network.MakeSignal(rep, repPhase != phase)
		if !exact {
			if proofs >= p.MaxProofs {
				continue
			}
			if prover == nil {
				prover = equiv.NewProver(ntk)
			}
			proofs++
			if !prover.Equal(cand, network.MakeSignal(nid, false)) {
				continue
			}
		}
		merged[nid] = cand
		st.Applied++
	}

	if !exact && proofs >= p.MaxProofs {
		log.Debugf("%s: proof budget of %d queries exhausted", p.Name(), p.MaxProofs)
	}
	if len(merged) == 0 {
		return ntk
	}
	return network.Rebuild(ntk, func(dst *network.Network, id network.NodeID, get func(network.Signal) network.Signal) (network.Signal, bool) {
		s, ok := merged[id]
		if !ok {
			return 0, false
		}
		return get(s), true
	})
}
