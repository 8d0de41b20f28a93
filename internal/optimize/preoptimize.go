// Package optimize drives the convergent preoptimization of boolean
// networks: a technology-specific sequence of rewrite pipelines is repeated
// until a round no longer shrinks the network.
package optimize

import (
	"fmt"
	"time"

	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/rewrite"
)

// Options bounds the optimizer.
type Options struct {
	MaxRounds     int `toml:"max_rounds"`
	CutSize       int `toml:"cut_size"`
	CutLimit      int `toml:"cut_limit"`
	ResubLeaves   int `toml:"resub_leaves"`
	ResubDivisors int `toml:"resub_divisors"`
	MaxProofs     int `toml:"max_proofs"`
}

// DefaultOptions returns the limits used by Preoptimize.
func DefaultOptions() Options {
	return Options{
		MaxRounds:     100000,
		CutSize:       4,
		CutLimit:      8,
		ResubLeaves:   8,
		ResubDivisors: 50,
		MaxProofs:     1000,
	}
}

// RoundStats describes one optimization round.
type RoundStats struct {
	Round      int
	SizeBefore int
	SizeAfter  int
	Kept       bool
	Passes     []rewrite.Stats
}

// Stats summarizes a Preoptimize run.
type Stats struct {
	Technology  network.Technology
	Rounds      int
	InitialSize int
	FinalSize   int
	Duration    time.Duration
	History     []RoundStats
}

// Optimizer holds the pipelines of one technology.
type Optimizer struct {
	tech      network.Technology
	opts      Options
	pipelines []*Pipeline
}

// New builds the optimizer for tech.
func New(tech network.Technology, opts Options) *Optimizer {
	o := &Optimizer{tech: tech, opts: opts}
	resub := func(inserts int) rewrite.ResubOptions {
		return rewrite.ResubOptions{
			MaxLeaves:   opts.ResubLeaves,
			MaxDivisors: opts.ResubDivisors,
			MaxInserts:  inserts,
			Majority:    tech == network.MIG && inserts == 1,
			Xor:         tech == network.XAG,
		}
	}
	fraig := rewrite.DefaultFunctionalReduction()
	fraig.MaxProofs = opts.MaxProofs
	cuts := &rewrite.CutRewriting{CutSize: opts.CutSize, CutLimit: opts.CutLimit}

	local := NewPipeline("local")
	switch tech {
	case network.MIG:
		local.AddPass(rewrite.NewResubstitution("resubstitution2", resub(2)))
		local.AddPass(rewrite.NewResubstitution("resubstitution", resub(1)))
		local.AddPass(rewrite.InverterPropagation{})
		local.AddPass(rewrite.InverterOptimization{})
		local.AddPass(fraig)
		local.AddPass(rewrite.AlgebraicDepthRewriting{})
	case network.AIG:
		local.AddPass(rewrite.NewResubstitution("resubstitution2", resub(2)))
		local.AddPass(rewrite.NewResubstitution("resubstitution", resub(1)))
		local.AddPass(fraig)
	default:
		local.AddPass(rewrite.NewResubstitution("resubstitution", resub(1)))
		local.AddPass(fraig)
	}
	cut := NewPipeline("cut")
	cut.AddPass(cuts)
	o.pipelines = []*Pipeline{local, cut}
	return o
}

// Pipelines returns the pipelines run in each round.
func (o *Optimizer) Pipelines() []*Pipeline {
	return o.pipelines
}

// Run optimizes ntk in place. Rounds repeat while the previous round
// strictly reduced the size, up to MaxRounds. A round that does not reduce
// the size is discarded, so running Run on its own output changes nothing.
// Run panics if a round grows the network.
func (o *Optimizer) Run(ntk *network.Network) Stats {
	if ntk.Technology() != o.tech {
		panic(fmt.Sprintf("optimize: %s optimizer applied to %s network", o.tech, ntk.Technology()))
	}
	start := time.Now()
	st := Stats{Technology: o.tech, InitialSize: ntk.Size()}
	cur := ntk
	lastSize := cur.Size() + 1
	for round := 0; round < o.opts.MaxRounds && lastSize > cur.Size(); round++ {
		lastSize = cur.Size()
		next := cur
		rs := RoundStats{Round: round, SizeBefore: lastSize}
		for _, p := range o.pipelines {
			var ps []rewrite.Stats
			next, ps = p.Run(next)
			rs.Passes = append(rs.Passes, ps...)
		}
		rs.SizeAfter = next.Size()
		if rs.SizeAfter > lastSize {
			panic(fmt.Sprintf("optimize: round %d grew the network from %d to %d nodes", round, lastSize, rs.SizeAfter))
		}
		st.Rounds++
		if rs.SizeAfter < lastSize {
			cur = next
			rs.Kept = true
		}
		st.History = append(st.History, rs)
		log.Debugf("round %d: %d -> %d nodes", round, rs.SizeBefore, rs.SizeAfter)
	}
	if cur != ntk {
		*ntk = *cur
	}
	st.FinalSize = ntk.Size()
	st.Duration = time.Since(start)
	log.Infof("preoptimized %s network in %d rounds: %d -> %d nodes (%s)",
		o.tech, st.Rounds, st.InitialSize, st.FinalSize, st.Duration)
	return st
}

// Preoptimize runs the default optimizer for the network's technology and
// replaces ntk with the result.
func Preoptimize(ntk *network.Network) Stats {
	return New(ntk.Technology(), DefaultOptions()).Run(ntk)
}
