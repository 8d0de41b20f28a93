package optimize

import (
	"github.com/tliron/commonlog"

	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/rewrite"
)

var log = commonlog.GetLogger("lime.optimize")

// Pipeline runs a fixed sequence of rewrite passes
type Pipeline struct {
	name   string
	passes []rewrite.Pass
}

// NewPipeline creates an empty pipeline
func NewPipeline(name string) *Pipeline {
	return &Pipeline{name: name}
}

// AddPass appends a pass to the pipeline
func (p *Pipeline) AddPass(pass rewrite.Pass) {
	p.passes = append(p.passes, pass)
}

// Passes returns the passes in execution order
func (p *Pipeline) Passes() []rewrite.Pass {
	return p.passes
}

// Run applies every pass in order and finishes with a cleanup. Views are
// recomputed for each pass.
func (p *Pipeline) Run(ntk *network.Network) (*network.Network, []rewrite.Stats) {
	stats := make([]rewrite.Stats, len(p.passes))
	for i, pass := range p.passes {
		ntk = rewrite.Run(pass, ntk, &stats[i])
		log.Debugf("  %s/%s: %d rewrites, %d -> %d nodes",
			p.name, pass.Name(), stats[i].Applied, stats[i].SizeBefore, stats[i].SizeAfter)
	}
	return network.Cleanup(ntk), stats
}
