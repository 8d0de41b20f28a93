package rewrite

import (
	"github.com/CapZTr/lime/internal/network"
)

// CutRewriting replaces the cone of a node over one of its four-leaf cuts
// by the minimum template of the cut function's NPN class, when that frees
// more gates than the template adds.
type CutRewriting struct {
	CutSize  int
	CutLimit int
}

// DefaultCutRewriting returns the pass with four-leaf cuts.
func DefaultCutRewriting() *CutRewriting {
	return &CutRewriting{CutSize: 4, CutLimit: 8}
}

func (*CutRewriting) Name() string { return "cut rewriting" }

func (*CutRewriting) Description() string {
	return "Resynthesize small cuts from an NPN template library"
}

func (*CutRewriting) Requires() ViewSet { return NeedFanout }

type cutPlan struct {
	leaves []network.NodeID
	m      match
}

func (c *CutRewriting) Apply(ntk *network.Network, views *Views, st *Stats) *network.Network {
	lib := libraryFor(ntk.Technology())
	cuts := enumerateCuts(ntk, c.CutSize, c.CutLimit)
	refs := newRefCounter(ntk, views.Fanout)
	plans := make(map[network.NodeID]cutPlan)

	ntk.ForEachGate(func(id network.NodeID) {
		if refs.dead(id) {
			return
		}
		var best cutPlan
		bestGain := 0
		for _, ct := range cuts[id][1:] {
			if anyDead(refs, ct.leaves) {
				continue
			}
			m, ok := lib.lookup(ct.table)
			if !ok || m.eval(len(ct.leaves)) != ct.table {
				continue
			}
			isLeaf := func(n network.NodeID) bool { return containsID(ct.leaves, n) }
			gain := refs.mffcSize(id, isLeaf) - m.tmpl.size()
			if gain > bestGain {
				best, bestGain = cutPlan{leaves: ct.leaves, m: m}, gain
			}
		}
		if bestGain == 0 {
			return
		}
		refs.replace(id, best.leaves)
		plans[id] = best
		st.Applied++
	})

	if len(plans) == 0 {
		return ntk
	}
	return network.Rebuild(ntk, func(dst *network.Network, id network.NodeID, get func(network.Signal) network.Signal) (network.Signal, bool) {
		p, ok := plans[id]
		if !ok {
			return 0, false
		}
		leaves := make([]network.Signal, len(p.leaves))
		for i, l := range p.leaves {
			leaves[i] = get(network.MakeSignal(l, false))
		}
		return p.m.build(dst, leaves), true
	})
}

func anyDead(refs *refCounter, ids []network.NodeID) bool {
	for _, id := range ids {
		if refs.dead(id) {
			return true
		}
	}
	return false
}
