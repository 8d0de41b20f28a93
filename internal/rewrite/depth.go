package rewrite

import "github.com/CapZTr/lime/internal/network"

// AlgebraicDepthRewriting shortens critical paths of majority networks with
// the associativity rule
//
//	maj(x, u, maj(y, u, z)) = maj(z, u, maj(y, u, x))
//
// moving the deeper of the inner operands up one level. The inner gate must
// have no other consumer, so the rewrite never adds gates.
type AlgebraicDepthRewriting struct{}

func (AlgebraicDepthRewriting) Name() string { return "algebraic depth rewriting" }

func (AlgebraicDepthRewriting) Description() string {
	return "Reduce depth with majority associativity"
}

func (AlgebraicDepthRewriting) Requires() ViewSet { return NeedDepth | NeedFanout }

func (AlgebraicDepthRewriting) Apply(ntk *network.Network, views *Views, st *Stats) *network.Network {
	if ntk.Technology() != network.MIG {
		return ntk
	}
	var levels []int
	level := func(dst *network.Network, s network.Signal) int {
		for id := len(levels); id < dst.Size(); id++ {
			lvl := 0
			for _, f := range dst.Fanins(network.NodeID(id)) {
				if l := levels[f.Node()] + 1; l > lvl {
					lvl = l
				}
			}
			levels = append(levels, lvl)
		}
		return levels[s.Node()]
	}

	out := network.Rebuild(ntk, func(dst *network.Network, id network.NodeID, get func(network.Signal) network.Signal) (network.Signal, bool) {
		fs := ntk.Fanins(id)
		for gi, g := range fs {
			gid := g.Node()
			if g.IsComplemented() || !ntk.IsGate(gid) || views.Fanout.FanoutSize(gid) != 1 {
				continue
			}
			x, u, y, z, ok := associativeOperands(ntk, fs, gi)
			if !ok || views.Depth.Level(gid) <= max(views.Depth.Level(x.Node()), views.Depth.Level(u.Node())) {
				continue
			}
			mx, mu, my, mz := get(x), get(u), get(y), get(z)
			lx, lu, ly, lz := level(dst, mx), level(dst, mu), level(dst, my), level(dst, mz)
			if ly > lz {
				my, mz = mz, my
				ly, lz = lz, ly
			}
			before := 1 + max(lx, lu, 1+max(ly, lu, lz))
			after := 1 + max(lz, lu, 1+max(ly, lu, lx))
			if after >= before {
				continue
			}
			st.Applied++
			return dst.CreateMaj(mz, mu, dst.CreateMaj(my, mu, mx)), true
		}
		return 0, false
	})
	if st.Applied == 0 {
		return ntk
	}
	return out
}

// associativeOperands matches maj(x, u, g) with g = maj(y, u, z) where g is
// fanin gi of the outer gate.
func associativeOperands(ntk *network.Network, outer []network.Signal, gi int) (x, u, y, z network.Signal, ok bool) {
	inner := ntk.Fanins(outer[gi].Node())
	var rest []network.Signal
	for i, f := range outer {
		if i != gi {
			rest = append(rest, f)
		}
	}
	for ri, cand := range rest {
		for ii, f := range inner {
			if f != cand {
				continue
			}
			var others []network.Signal
			for j, g := range inner {
				if j != ii {
					others = append(others, g)
				}
			}
			return rest[1-ri], cand, others[0], others[1], true
		}
	}
	return 0, 0, 0, 0, false
}
