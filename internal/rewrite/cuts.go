package rewrite

import (
	"sort"

	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/truth"
)

// cut is a set of at most four leaves separating a node from the inputs,
// together with the node's function over them. Variable i of table is
// leaves[i].
type cut struct {
	leaves []network.NodeID
	table  truth.Table
}

func (c cut) dominates(o cut) bool {
	if len(c.leaves) > len(o.leaves) {
		return false
	}
	j := 0
	for _, l := range c.leaves {
		for j < len(o.leaves) && o.leaves[j] < l {
			j++
		}
		if j == len(o.leaves) || o.leaves[j] != l {
			return false
		}
	}
	return true
}

// enumerateCuts computes up to limit cuts with at most k leaves for every
// node. The first cut of each gate or input is the trivial cut.
func enumerateCuts(ntk *network.Network, k, limit int) [][]cut {
	if k > truth.Vars {
		k = truth.Vars
	}
	cuts := make([][]cut, ntk.Size())
	cuts[0] = []cut{{}}
	for i := 1; i < ntk.Size(); i++ {
		id := network.NodeID(i)
		trivial := cut{leaves: []network.NodeID{id}, table: truth.Var(0)}
		if !ntk.IsGate(id) {
			cuts[i] = []cut{trivial}
			continue
		}
		fs := ntk.Fanins(id)
		var set []cut
		var walk func(pos int, parts []cut)
		walk = func(pos int, parts []cut) {
			if pos == len(fs) {
				c, ok := mergeCuts(ntk.Kind(id), fs, parts, k)
				if ok {
					set = addCut(set, c)
				}
				return
			}
			for _, c := range cuts[fs[pos].Node()] {
				walk(pos+1, append(parts, c))
			}
		}
		walk(0, make([]cut, 0, 3))

		sort.SliceStable(set, func(a, b int) bool { return len(set[a].leaves) < len(set[b].leaves) })
		if len(set) > limit {
			set = set[:limit]
		}
		cuts[i] = append([]cut{trivial}, set...)
	}
	return cuts
}

func addCut(set []cut, c cut) []cut {
	out := set[:0]
	for _, o := range set {
		if o.dominates(c) {
			return set
		}
	}
	for _, o := range set {
		if !c.dominates(o) {
			out = append(out, o)
		}
	}
	return append(out, c)
}

func mergeCuts(kind network.Kind, fs []network.Signal, parts []cut, k int) (cut, bool) {
	var leaves []network.NodeID
	for _, p := range parts {
		for _, l := range p.leaves {
			if !containsID(leaves, l) {
				leaves = append(leaves, l)
			}
		}
	}
	if len(leaves) > k {
		return cut{}, false
	}
	sortIDs(leaves)

	var in [3]truth.Table
	for i, p := range parts {
		in[i] = expand(p.table, p.leaves, leaves)
		if fs[i].IsComplemented() {
			in[i] = in[i].Not()
		}
	}
	var t truth.Table
	switch kind {
	case network.KindAnd:
		t = truth.And(in[0], in[1])
	case network.KindXor:
		t = truth.Xor(in[0], in[1])
	default:
		t = truth.Maj(in[0], in[1], in[2])
	}
	return cut{leaves: leaves, table: t}, true
}

// expand re-expresses t, a function over from, as a function over to, a
// superset of from.
func expand(t truth.Table, from, to []network.NodeID) truth.Table {
	var pos [truth.Vars]int
	for j, l := range from {
		for i, m := range to {
			if m == l {
				pos[j] = i
			}
		}
	}
	var r truth.Table
	for x := 0; x < 1<<truth.Vars; x++ {
		y := 0
		for j := range from {
			y |= (x >> pos[j] & 1) << j
		}
		if t.Bit(y) {
			r |= 1 << x
		}
	}
	return r
}

func containsID(ids []network.NodeID, id network.NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
