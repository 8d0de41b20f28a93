package rewrite

import (
	"sort"

	"github.com/CapZTr/lime/internal/network"
)

// windowTT is the truth table of a node over at most eight window leaves.
type windowTT [4]uint64

var windowProjections = func() [8]windowTT {
	base := [6]uint64{
		0xaaaaaaaaaaaaaaaa, 0xcccccccccccccccc, 0xf0f0f0f0f0f0f0f0,
		0xff00ff00ff00ff00, 0xffff0000ffff0000, 0xffffffff00000000,
	}
	var p [8]windowTT
	for i := 0; i < 6; i++ {
		p[i] = windowTT{base[i], base[i], base[i], base[i]}
	}
	p[6] = windowTT{0, ^uint64(0), 0, ^uint64(0)}
	p[7] = windowTT{0, 0, ^uint64(0), ^uint64(0)}
	return p
}()

func (t windowTT) not() windowTT {
	return windowTT{^t[0], ^t[1], ^t[2], ^t[3]}
}

func (t windowTT) notIf(c bool) windowTT {
	if c {
		return t.not()
	}
	return t
}

func (t windowTT) and(o windowTT) windowTT {
	return windowTT{t[0] & o[0], t[1] & o[1], t[2] & o[2], t[3] & o[3]}
}

func (t windowTT) xor(o windowTT) windowTT {
	return windowTT{t[0] ^ o[0], t[1] ^ o[1], t[2] ^ o[2], t[3] ^ o[3]}
}

func (t windowTT) maj(b, c windowTT) windowTT {
	var r windowTT
	for i := range r {
		r[i] = t[i]&b[i] | t[i]&c[i] | b[i]&c[i]
	}
	return r
}

// implies reports whether t is contained in o.
func (t windowTT) implies(o windowTT) bool {
	return t[0]&^o[0] == 0 && t[1]&^o[1] == 0 && t[2]&^o[2] == 0 && t[3]&^o[3] == 0
}

// window is the neighborhood of a resubstitution root: a reconvergence
// driven cut, the cone above it, and the divisors usable to re-express the
// root.
type window struct {
	root     network.NodeID
	leaves   []network.NodeID
	interior []network.NodeID
	mffc     []network.NodeID
	divisors []network.NodeID
	tts      map[network.NodeID]windowTT
}

type windowBuilder struct {
	ntk         *network.Network
	fanout      *network.FanoutView
	refs        *refCounter
	maxLeaves   int
	maxDivisors int
}

func (b *windowBuilder) build(root network.NodeID) *window {
	w := &window{root: root, tts: make(map[network.NodeID]windowTT)}
	inWin := map[network.NodeID]bool{root: true}
	w.interior = append(w.interior, root)
	for _, f := range b.ntk.Fanins(root) {
		if id := f.Node(); id != 0 && !inWin[id] {
			inWin[id] = true
			w.leaves = append(w.leaves, id)
		}
	}

	for {
		best, bestCost := -1, 0
		for i, l := range w.leaves {
			if !b.ntk.IsGate(l) {
				continue
			}
			cost := 0
			for _, f := range b.ntk.Fanins(l) {
				if id := f.Node(); id != 0 && !inWin[id] {
					cost++
				}
			}
			if best < 0 || cost < bestCost || (cost == bestCost && l > w.leaves[best]) {
				best, bestCost = i, cost
			}
		}
		if best < 0 || len(w.leaves)-1+bestCost > b.maxLeaves {
			break
		}
		l := w.leaves[best]
		w.leaves = append(w.leaves[:best], w.leaves[best+1:]...)
		w.interior = append(w.interior, l)
		for _, f := range b.ntk.Fanins(l) {
			if id := f.Node(); id != 0 && !inWin[id] {
				inWin[id] = true
				w.leaves = append(w.leaves, id)
			}
		}
	}
	if len(w.leaves) > len(windowProjections) {
		return nil
	}
	sortIDs(w.leaves)
	sortIDs(w.interior)

	isLeaf := make(map[network.NodeID]bool, len(w.leaves))
	for _, l := range w.leaves {
		isLeaf[l] = true
	}
	w.mffc = b.refs.mffcNodes(root, func(id network.NodeID) bool { return isLeaf[id] })
	inMFFC := make(map[network.NodeID]bool, len(w.mffc))
	for _, m := range w.mffc {
		inMFFC[m] = true
	}

	isDiv := map[network.NodeID]bool{}
	for _, l := range w.leaves {
		if !b.refs.dead(l) {
			w.divisors = append(w.divisors, l)
			isDiv[l] = true
		}
	}
	for _, n := range w.interior {
		if !inMFFC[n] && !b.refs.dead(n) {
			w.divisors = append(w.divisors, n)
			isDiv[n] = true
		}
	}

	var side []network.NodeID
	for i := 0; i < len(w.divisors) && len(w.divisors) < b.maxDivisors; i++ {
		for _, f := range b.fanout.Fanouts(w.divisors[i]) {
			if len(w.divisors) >= b.maxDivisors {
				break
			}
			if f >= root || inWin[f] || isDiv[f] || b.refs.dead(f) {
				continue
			}
			usable := true
			for _, s := range b.ntk.Fanins(f) {
				if id := s.Node(); id != 0 && !isDiv[id] {
					usable = false
					break
				}
			}
			if usable {
				w.divisors = append(w.divisors, f)
				isDiv[f] = true
				side = append(side, f)
			}
		}
	}

	w.tts[0] = windowTT{}
	for i, l := range w.leaves {
		w.tts[l] = windowProjections[i]
	}
	inner := append(append([]network.NodeID(nil), w.interior...), side...)
	sortIDs(inner)
	for _, n := range inner {
		w.tts[n] = simulateNode(b.ntk, n, w.tts)
	}
	return w
}

func simulateNode(ntk *network.Network, id network.NodeID, tts map[network.NodeID]windowTT) windowTT {
	var in [3]windowTT
	for i, f := range ntk.Fanins(id) {
		in[i] = tts[f.Node()].notIf(f.IsComplemented())
	}
	switch ntk.Kind(id) {
	case network.KindAnd:
		return in[0].and(in[1])
	case network.KindXor:
		return in[0].xor(in[1])
	default:
		return in[0].maj(in[1], in[2])
	}
}

func sortIDs(ids []network.NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
