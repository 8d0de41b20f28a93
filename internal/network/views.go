package network

// DepthView holds the logic level of every node of one network snapshot.
// Inputs and the constant are at level 0.
type DepthView struct {
	levels []int
	depth  int
}

// NewDepthView computes levels for n.
func NewDepthView(n *Network) *DepthView {
	v := &DepthView{levels: make([]int, n.Size())}
	for i := range n.nodes {
		nd := &n.nodes[i]
		lvl := 0
		for _, f := range nd.fanins[:nd.kind.Arity()] {
			if l := v.levels[f.Node()] + 1; l > lvl {
				lvl = l
			}
		}
		v.levels[i] = lvl
	}
	for _, o := range n.outputs {
		if l := v.levels[o.Node()]; l > v.depth {
			v.depth = l
		}
	}
	return v
}

// Level returns the level of id.
func (v *DepthView) Level(id NodeID) int {
	return v.levels[id]
}

// Depth returns the largest level among the outputs.
func (v *DepthView) Depth() int {
	return v.depth
}

// FanoutView holds the consumers of every node of one network snapshot.
type FanoutView struct {
	fanouts [][]NodeID
	refs    []int
	outRefs [][]int
}

// NewFanoutView computes the fanouts of n.
func NewFanoutView(n *Network) *FanoutView {
	v := &FanoutView{
		fanouts: make([][]NodeID, n.Size()),
		refs:    make([]int, n.Size()),
		outRefs: make([][]int, n.Size()),
	}
	for i := range n.nodes {
		nd := &n.nodes[i]
		for j, f := range nd.fanins[:nd.kind.Arity()] {
			id := f.Node()
			v.refs[id]++
			if !repeated(nd.fanins[:j], id) {
				v.fanouts[id] = append(v.fanouts[id], NodeID(i))
			}
		}
	}
	for i, o := range n.outputs {
		v.refs[o.Node()]++
		v.outRefs[o.Node()] = append(v.outRefs[o.Node()], i)
	}
	return v
}

func repeated(prev []Signal, id NodeID) bool {
	for _, p := range prev {
		if p.Node() == id {
			return true
		}
	}
	return false
}

// Fanouts returns the distinct gates consuming id, in ascending order.
func (v *FanoutView) Fanouts(id NodeID) []NodeID {
	return v.fanouts[id]
}

// FanoutSize returns the number of references to id, counting every fanin
// edge and every primary output.
func (v *FanoutView) FanoutSize(id NodeID) int {
	return v.refs[id]
}

// OutputRefs returns the indices of the primary outputs driven by id.
func (v *FanoutView) OutputRefs(id NodeID) []int {
	return v.outRefs[id]
}
