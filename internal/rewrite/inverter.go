package rewrite

import "github.com/CapZTr/lime/internal/network"

// InverterPropagation pushes complemented edges of majority networks
// towards the outputs using maj(!a, !b, !c) = !maj(a, b, c): a gate reading
// two or more complemented signals is stored in its dual form.
type InverterPropagation struct{}

func (InverterPropagation) Name() string { return "inverter propagation" }

func (InverterPropagation) Description() string {
	return "Move complemented edges towards the outputs"
}

func (InverterPropagation) Requires() ViewSet { return 0 }

func (InverterPropagation) Apply(ntk *network.Network, _ *Views, st *Stats) *network.Network {
	if ntk.Technology() != network.MIG {
		return ntk
	}
	return network.Rebuild(ntk, func(dst *network.Network, id network.NodeID, get func(network.Signal) network.Signal) (network.Signal, bool) {
		var fs [3]network.Signal
		complemented := 0
		for i, f := range ntk.Fanins(id) {
			fs[i] = get(f)
			if fs[i].IsComplemented() && fs[i].Node() != 0 {
				complemented++
			}
		}
		if complemented < 2 {
			return dst.CreateMaj(fs[0], fs[1], fs[2]), true
		}
		st.Applied++
		return dst.CreateMaj(fs[0].Not(), fs[1].Not(), fs[2].Not()).Not(), true
	})
}

// InverterOptimization flips majority gates to their dual form whenever
// that lowers the number of complemented edges around them. Edges from the
// constant are free and not counted; primary outputs count as edges.
type InverterOptimization struct{}

func (InverterOptimization) Name() string { return "inverter optimization" }

func (InverterOptimization) Description() string {
	return "Minimize complemented edges by dualizing majority gates"
}

func (InverterOptimization) Requires() ViewSet { return NeedFanout }

const maxInverterSweeps = 8

func (InverterOptimization) Apply(ntk *network.Network, views *Views, st *Stats) *network.Network {
	if ntk.Technology() != network.MIG {
		return ntk
	}
	flip := make([]bool, ntk.Size())
	// edge polarity after flips: fanin complement ^ flip[source] ^ flip[sink]
	gain := func(id network.NodeID) int {
		g := 0
		count := func(c bool) {
			if c {
				g++
			} else {
				g--
			}
		}
		for _, f := range ntk.Fanins(id) {
			if f.Node() != 0 {
				count(f.IsComplemented() != flip[f.Node()] != flip[id])
			}
		}
		for _, consumer := range views.Fanout.Fanouts(id) {
			for _, f := range ntk.Fanins(consumer) {
				if f.Node() == id {
					count(f.IsComplemented() != flip[id] != flip[consumer])
				}
			}
		}
		for _, o := range views.Fanout.OutputRefs(id) {
			count(ntk.Output(o).IsComplemented() != flip[id])
		}
		return g
	}

	for sweep := 0; sweep < maxInverterSweeps; sweep++ {
		changed := false
		ntk.ForEachGate(func(id network.NodeID) {
			if gain(id) > 0 {
				flip[id] = !flip[id]
				st.Applied++
				changed = true
			}
		})
		if !changed {
			break
		}
	}
	if st.Applied == 0 {
		return ntk
	}

	return network.Rebuild(ntk, func(dst *network.Network, id network.NodeID, get func(network.Signal) network.Signal) (network.Signal, bool) {
		if !flip[id] {
			return 0, false
		}
		fs := ntk.Fanins(id)
		return dst.CreateMaj(get(fs[0]).Not(), get(fs[1]).Not(), get(fs[2]).Not()).Not(), true
	})
}
