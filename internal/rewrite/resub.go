package rewrite

import (
	"sort"

	"github.com/CapZTr/lime/internal/network"
)

// ResubOptions configures a Resubstitution pass.
type ResubOptions struct {
	MaxLeaves   int  // window cut size, at most 8
	MaxDivisors int  // divisors considered per root
	MaxInserts  int  // gates a replacement may add: 0, 1 or 2
	Majority    bool // allow maj of three divisors
	Xor         bool // allow xor of two divisors
}

// DefaultResubOptions returns the window limits used by the optimizer.
func DefaultResubOptions() ResubOptions {
	return ResubOptions{MaxLeaves: 8, MaxDivisors: 50, MaxInserts: 1}
}

// Resubstitution re-expresses nodes through other nodes already present in
// their neighborhood. A root is replaced when a divisor, or a small function
// of divisors, computes the same local function with fewer gates than the
// root's maximum fanout-free cone.
type Resubstitution struct {
	name string
	opts ResubOptions
}

// NewResubstitution returns a resubstitution pass.
func NewResubstitution(name string, opts ResubOptions) *Resubstitution {
	if opts.MaxLeaves <= 0 || opts.MaxLeaves > len(windowProjections) {
		opts.MaxLeaves = len(windowProjections)
	}
	if opts.MaxDivisors <= 0 {
		opts.MaxDivisors = DefaultResubOptions().MaxDivisors
	}
	return &Resubstitution{name: name, opts: opts}
}

func (r *Resubstitution) Name() string { return r.name }

func (r *Resubstitution) Description() string {
	return "Replace nodes by functions of existing divisors"
}

func (r *Resubstitution) Requires() ViewSet { return NeedDepth | NeedFanout }

type planKind uint8

const (
	planDivisor planKind = iota
	planAnd
	planXor
	planMaj
	planAndAnd
)

// plan is a replacement expressed over literals of the source network.
type plan struct {
	kind  planKind
	lits  [3]network.Signal
	inner bool
	out   bool
}

func (p plan) build(dst *network.Network, get func(network.Signal) network.Signal) network.Signal {
	var s network.Signal
	switch p.kind {
	case planDivisor:
		s = get(p.lits[0])
	case planAnd:
		s = dst.CreateAnd(get(p.lits[0]), get(p.lits[1]))
	case planXor:
		s = dst.CreateXor(get(p.lits[0]), get(p.lits[1]))
	case planMaj:
		s = dst.CreateMaj(get(p.lits[0]), get(p.lits[1]), get(p.lits[2]))
	case planAndAnd:
		in := dst.CreateAnd(get(p.lits[1]), get(p.lits[2])).NotIf(p.inner)
		s = dst.CreateAnd(get(p.lits[0]), in)
	}
	return s.NotIf(p.out)
}

func (p plan) uses() []network.NodeID {
	n := map[planKind]int{planDivisor: 1, planAnd: 2, planXor: 2, planMaj: 3, planAndAnd: 3}[p.kind]
	ids := make([]network.NodeID, n)
	for i := range ids {
		ids[i] = p.lits[i].Node()
	}
	return ids
}

func (p plan) inserts() int {
	switch p.kind {
	case planDivisor:
		return 0
	case planAndAnd:
		return 2
	default:
		return 1
	}
}

// literal is a divisor with a polarity and its local function.
type literal struct {
	sig network.Signal
	tt  windowTT
}

func (r *Resubstitution) Apply(ntk *network.Network, views *Views, st *Stats) *network.Network {
	refs := newRefCounter(ntk, views.Fanout)
	wb := &windowBuilder{
		ntk:         ntk,
		fanout:      views.Fanout,
		refs:        refs,
		maxLeaves:   r.opts.MaxLeaves,
		maxDivisors: r.opts.MaxDivisors,
	}
	plans := make(map[network.NodeID]plan)

	ntk.ForEachGate(func(root network.NodeID) {
		if refs.dead(root) {
			return
		}
		w := wb.build(root)
		if w == nil {
			return
		}
		p, ok := r.search(w, views.Depth, len(w.mffc))
		if !ok {
			return
		}
		if p.kind == planDivisor {
			refs.forward(root, p.lits[0].Node())
		} else {
			refs.replace(root, p.uses())
		}
		plans[root] = p
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
		return p.build(dst, get), true
	})
}

func (r *Resubstitution) search(w *window, depth *network.DepthView, gain int) (plan, bool) {
	target := w.tts[w.root]

	if target == (windowTT{}) {
		return plan{kind: planDivisor, lits: [3]network.Signal{network.False}}, true
	}
	if target == (windowTT{}).not() {
		return plan{kind: planDivisor, lits: [3]network.Signal{network.True}}, true
	}

	divs := append([]network.NodeID(nil), w.divisors...)
	sort.SliceStable(divs, func(i, j int) bool {
		return depth.Level(divs[i]) < depth.Level(divs[j])
	})

	for _, d := range divs {
		switch w.tts[d] {
		case target:
			return plan{kind: planDivisor, lits: [3]network.Signal{network.MakeSignal(d, false)}}, true
		case target.not():
			return plan{kind: planDivisor, lits: [3]network.Signal{network.MakeSignal(d, true)}}, true
		}
	}
	if r.opts.MaxInserts < 1 || gain < 2 {
		return plan{}, false
	}

	lits := make([]literal, 0, 2*len(divs))
	for _, d := range divs {
		tt := w.tts[d]
		lits = append(lits, literal{network.MakeSignal(d, false), tt}, literal{network.MakeSignal(d, true), tt.not()})
	}

	if p, ok := findAnd(lits, target); ok {
		return p, true
	}
	if r.opts.Xor {
		if p, ok := findXor(lits, target); ok {
			return p, true
		}
	}
	if r.opts.Majority {
		if p, ok := findMaj(divs, w.tts, target); ok {
			return p, true
		}
	}

	if r.opts.MaxInserts < 2 || gain < 3 {
		return plan{}, false
	}
	return findAndAnd(lits, target)
}

// covering returns the literals containing t.
func covering(lits []literal, t windowTT) []literal {
	var out []literal
	for _, l := range lits {
		if t.implies(l.tt) {
			out = append(out, l)
		}
	}
	return out
}

// findAnd looks for target = a & b or target = !( a & b ).
func findAnd(lits []literal, target windowTT) (plan, bool) {
	for _, out := range []bool{false, true} {
		t := target.notIf(out)
		cov := covering(lits, t)
		for i := 0; i < len(cov); i++ {
			for j := i + 1; j < len(cov); j++ {
				if cov[i].sig.Node() == cov[j].sig.Node() {
					continue
				}
				if cov[i].tt.and(cov[j].tt) == t {
					return plan{kind: planAnd, lits: [3]network.Signal{cov[i].sig, cov[j].sig}, out: out}, true
				}
			}
		}
	}
	return plan{}, false
}

// findXor looks for target = a ^ b.
func findXor(lits []literal, target windowTT) (plan, bool) {
	index := make(map[windowTT]network.Signal, len(lits))
	for _, l := range lits {
		if !l.sig.IsComplemented() {
			if _, ok := index[l.tt]; !ok {
				index[l.tt] = l.sig
			}
		}
	}
	for _, l := range lits {
		if l.sig.IsComplemented() {
			continue
		}
		for _, out := range []bool{false, true} {
			want := target.notIf(out).xor(l.tt)
			if s, ok := index[want]; ok && s.Node() != l.sig.Node() {
				return plan{kind: planXor, lits: [3]network.Signal{l.sig, s}, out: out}, true
			}
		}
	}
	return plan{}, false
}

const maxMajDivisors = 16

// findMaj looks for target = maj(a, b, c), the constant counting as a
// divisor so that and/or forms are covered.
func findMaj(divs []network.NodeID, tts map[network.NodeID]windowTT, target windowTT) (plan, bool) {
	cand := []network.NodeID{0}
	for _, d := range divs {
		if len(cand) > maxMajDivisors {
			break
		}
		cand = append(cand, d)
	}
	for i := 0; i < len(cand); i++ {
		for j := i + 1; j < len(cand); j++ {
			for k := j + 1; k < len(cand); k++ {
				for pol := 0; pol < 8; pol++ {
					a := tts[cand[i]].notIf(pol&1 != 0)
					b := tts[cand[j]].notIf(pol&2 != 0)
					c := tts[cand[k]].notIf(pol&4 != 0)
					if a.maj(b, c) == target {
						return plan{kind: planMaj, lits: [3]network.Signal{
							network.MakeSignal(cand[i], pol&1 != 0),
							network.MakeSignal(cand[j], pol&2 != 0),
							network.MakeSignal(cand[k], pol&4 != 0),
						}}, true
					}
				}
			}
		}
	}
	return plan{}, false
}

// findAndAnd looks for target = +-(a & +-(b & c)).
func findAndAnd(lits []literal, target windowTT) (plan, bool) {
	for _, out := range []bool{false, true} {
		t := target.notIf(out)
		cov := covering(lits, t)
		for _, a := range cov {
			// b & c must contain t; !(b & c) must vanish on a & !t
			if p, ok := pairAnd(a, cov, t, false); ok {
				p.out = out
				return p, true
			}
			if p, ok := pairAnd(a, covering(lits, a.tt.and(t.not())), t, true); ok {
				p.out = out
				return p, true
			}
		}
	}
	return plan{}, false
}

func pairAnd(a literal, cand []literal, t windowTT, inner bool) (plan, bool) {
	for i := 0; i < len(cand); i++ {
		for j := i + 1; j < len(cand); j++ {
			b, c := cand[i], cand[j]
			if b.sig.Node() == c.sig.Node() || b.sig.Node() == a.sig.Node() || c.sig.Node() == a.sig.Node() {
				continue
			}
			if a.tt.and(b.tt.and(c.tt).notIf(inner)) == t {
				return plan{kind: planAndAnd, lits: [3]network.Signal{a.sig, b.sig, c.sig}, inner: inner}, true
			}
		}
	}
	return plan{}, false
}
