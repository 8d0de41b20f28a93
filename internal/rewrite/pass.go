// Package rewrite contains the logic-rewriting passes applied by the
// optimizer. Every pass maps a network to a functionally equivalent network
// that, once dangling nodes are removed, is no larger than its input.
package rewrite

import (
	"fmt"
	"time"

	"github.com/tliron/commonlog"

	"github.com/CapZTr/lime/internal/network"
)

var log = commonlog.GetLogger("lime.rewrite")

// ViewSet selects the derived views a pass consumes.
type ViewSet uint8

const (
	NeedDepth ViewSet = 1 << iota
	NeedFanout
)

// Views holds derived views computed on the pass input. They are never
// carried across passes.
type Views struct {
	Depth  *network.DepthView
	Fanout *network.FanoutView
}

// ComputeViews builds the requested views of ntk.
func ComputeViews(ntk *network.Network, need ViewSet) *Views {
	v := &Views{}
	if need&NeedDepth != 0 {
		v.Depth = network.NewDepthView(ntk)
	}
	if need&NeedFanout != 0 {
		v.Fanout = network.NewFanoutView(ntk)
	}
	return v
}

// Stats records what one pass application did.
type Stats struct {
	Pass       string
	Applied    int // local rewrites committed
	SizeBefore int
	SizeAfter  int
	Duration   time.Duration
}

// Pass is a single rewriting transformation
type Pass interface {
	Name() string
	Description() string
	Requires() ViewSet
	Apply(ntk *network.Network, views *Views, st *Stats) *network.Network
}

// Run computes the views p requires, applies it and removes the nodes the
// pass left dangling, recording statistics into st. A pass that grows the
// network is a defect and Run panics.
func Run(p Pass, ntk *network.Network, st *Stats) *network.Network {
	start := time.Now()
	*st = Stats{Pass: p.Name(), SizeBefore: ntk.Size()}
	out := p.Apply(ntk, ComputeViews(ntk, p.Requires()), st)
	if out != ntk {
		raw := out.Size()
		out = network.Cleanup(out)
		if raw > out.Size() {
			log.Debugf("%s: discarded %d dangling nodes", p.Name(), raw-out.Size())
		}
	}
	if out.Size() > ntk.Size() {
		panic(fmt.Sprintf("rewrite: %s grew the network from %d to %d nodes", p.Name(), ntk.Size(), out.Size()))
	}
	st.SizeAfter = out.Size()
	st.Duration = time.Since(start)
	return out
}
