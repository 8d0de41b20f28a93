package rewrite

import "github.com/CapZTr/lime/internal/network"

// refCounter tracks reference counts of a network while local rewrites are
// planned. A gate whose count drops to zero is dead: it would vanish from the
// rebuilt network.
type refCounter struct {
	ntk      *network.Network
	refs     []int32
	replaced []bool
}

func newRefCounter(ntk *network.Network, fanout *network.FanoutView) *refCounter {
	r := &refCounter{ntk: ntk, refs: make([]int32, ntk.Size()), replaced: make([]bool, ntk.Size())}
	for i := range r.refs {
		r.refs[i] = int32(fanout.FanoutSize(network.NodeID(i)))
	}
	return r
}

// dead reports whether id was replaced or lost all its references.
// Replaced nodes keep their structural consumers but are skipped by
// reference counting.
func (r *refCounter) dead(id network.NodeID) bool {
	return r.replaced[id] || (r.ntk.IsGate(id) && r.refs[id] == 0)
}

// deref releases the fanins of id and, recursively, every gate that loses
// its last reference. Nodes for which stop returns true are not entered.
// It returns the number of gates freed, id included.
func (r *refCounter) deref(id network.NodeID, stop func(network.NodeID) bool, freed *[]network.NodeID) int {
	count := 1
	if freed != nil {
		*freed = append(*freed, id)
	}
	for _, f := range r.ntk.Fanins(id) {
		fid := f.Node()
		if r.replaced[fid] {
			continue
		}
		r.refs[fid]--
		if r.refs[fid] == 0 && r.ntk.IsGate(fid) && (stop == nil || !stop(fid)) {
			count += r.deref(fid, stop, freed)
		}
	}
	return count
}

// ref undoes deref.
func (r *refCounter) ref(id network.NodeID, stop func(network.NodeID) bool) int {
	count := 1
	for _, f := range r.ntk.Fanins(id) {
		fid := f.Node()
		if r.replaced[fid] {
			continue
		}
		if r.refs[fid] == 0 && r.ntk.IsGate(fid) && (stop == nil || !stop(fid)) {
			count += r.ref(fid, stop)
		}
		r.refs[fid]++
	}
	return count
}

// mffcSize returns the size of the maximum fanout-free cone of id bounded
// by stop, leaving the counts unchanged.
func (r *refCounter) mffcSize(id network.NodeID, stop func(network.NodeID) bool) int {
	n := r.deref(id, stop, nil)
	r.ref(id, stop)
	return n
}

// mffcNodes returns the gates of the maximum fanout-free cone of id.
func (r *refCounter) mffcNodes(id network.NodeID, stop func(network.NodeID) bool) []network.NodeID {
	var nodes []network.NodeID
	r.deref(id, stop, &nodes)
	r.ref(id, stop)
	return nodes
}

// replace commits the substitution of id by new logic reading the nodes in
// uses, and releases the cone of id.
func (r *refCounter) replace(id network.NodeID, uses []network.NodeID) {
	for _, u := range uses {
		r.refs[u]++
	}
	r.deref(id, nil, nil)
	r.refs[id] = 0
	r.replaced[id] = true
}

// forward commits the substitution of id by the existing node d.
func (r *refCounter) forward(id, d network.NodeID) {
	r.refs[d] += r.refs[id]
	r.deref(id, nil, nil)
	r.refs[id] = 0
	r.replaced[id] = true
}
