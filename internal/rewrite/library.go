package rewrite

import (
	"sync"

	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/truth"
)

// tlit references a signal inside a template: 0 is the constant, 1 to 4 the
// template inputs, and 5 onwards the template gates, shifted left by one
// with the complement in the low bit.
type tlit uint8

func makeTlit(ref int, c bool) tlit {
	l := tlit(ref << 1)
	if c {
		l |= 1
	}
	return l
}

func (l tlit) ref() int { return int(l >> 1) }
func (l tlit) complemented() bool { return l&1 == 1 }

const firstGateRef = 1 + truth.Vars

type templateGate struct {
	kind   network.Kind
	fanins [3]tlit
}

// template is a minimum-size implementation of a four-input function.
type template struct {
	gates []templateGate
	out   tlit
}

func (t *template) size() int {
	return len(t.gates)
}

func (t *template) eval(in [truth.Vars]truth.Table) truth.Table {
	sigs := make([]truth.Table, firstGateRef, firstGateRef+len(t.gates))
	copy(sigs[1:], in[:])
	get := func(l tlit) truth.Table {
		v := sigs[l.ref()]
		if l.complemented() {
			v = v.Not()
		}
		return v
	}
	for _, g := range t.gates {
		switch g.kind {
		case network.KindAnd:
			sigs = append(sigs, truth.And(get(g.fanins[0]), get(g.fanins[1])))
		case network.KindXor:
			sigs = append(sigs, truth.Xor(get(g.fanins[0]), get(g.fanins[1])))
		default:
			sigs = append(sigs, truth.Maj(get(g.fanins[0]), get(g.fanins[1]), get(g.fanins[2])))
		}
	}
	return get(t.out)
}

func (t *template) build(dst *network.Network, in [truth.Vars]network.Signal) network.Signal {
	sigs := make([]network.Signal, firstGateRef, firstGateRef+len(t.gates))
	copy(sigs[1:], in[:])
	get := func(l tlit) network.Signal {
		return sigs[l.ref()].NotIf(l.complemented())
	}
	for _, g := range t.gates {
		var fs [3]network.Signal
		k := g.kind.Arity()
		for i := 0; i < k; i++ {
			fs[i] = get(g.fanins[i])
		}
		sigs = append(sigs, dst.CreateGate(g.kind, fs[:k]))
	}
	return get(t.out)
}

// library maps every four-input function realizable within the size bound
// to a minimum template. It is consulted through NPN classes: lookups
// canonize the function and instantiate the template of the class
// representative.
type library struct {
	best [1 << 16]*template
}

var (
	libraryOnce [4]sync.Once
	libraries   [4]*library
)

// libraryFor returns the template library of tech, building it on first use.
func libraryFor(tech network.Technology) *library {
	libraryOnce[tech].Do(func() {
		switch tech {
		case network.MIG:
			libraries[tech] = buildLibrary([]network.Kind{network.KindMaj}, 3)
		case network.XAG:
			libraries[tech] = buildLibrary([]network.Kind{network.KindAnd, network.KindXor}, 4)
		default:
			libraries[tech] = buildLibrary([]network.Kind{network.KindAnd}, 4)
		}
	})
	return libraries[tech]
}

// match is a template instantiated for one function: template input j reads
// leaf inputs[j].leaf, or the constant when leaf is negative.
type match struct {
	tmpl   *template
	inputs [truth.Vars]matchInput
	out    bool
}

type matchInput struct {
	leaf int
	c    bool
}

func (l *library) lookup(f truth.Table) (match, bool) {
	canon, tr := truth.Canonical(f)
	tmpl := l.best[canon]
	if tmpl == nil {
		return match{}, false
	}
	m := match{tmpl: tmpl, out: tr.Output}
	for j := range m.inputs {
		m.inputs[j].leaf = -1
	}
	for i := 0; i < truth.Vars; i++ {
		j := tr.Perm[i]
		m.inputs[j].leaf = i
		m.inputs[j].c = tr.Negations>>i&1 == 1
	}
	return m, true
}

// eval computes the matched function over the given leaf tables; leaves
// beyond nleaves read the constant.
func (m match) eval(nleaves int) truth.Table {
	var in [truth.Vars]truth.Table
	for j, src := range m.inputs {
		if src.leaf >= 0 && src.leaf < nleaves {
			in[j] = truth.Var(src.leaf)
			if src.c {
				in[j] = in[j].Not()
			}
		}
	}
	t := m.tmpl.eval(in)
	if m.out {
		t = t.Not()
	}
	return t
}

func (m match) build(dst *network.Network, leaves []network.Signal) network.Signal {
	var in [truth.Vars]network.Signal
	for j, src := range m.inputs {
		if src.leaf >= 0 && src.leaf < len(leaves) {
			in[j] = leaves[src.leaf].NotIf(src.c)
		}
	}
	return m.tmpl.build(dst, in).NotIf(m.out)
}

type enumerator struct {
	kinds    []network.Kind
	maxGates int
	tts      []truth.Table
	gates    []templateGate
	keys     []gateKey
	size     [1 << 16]int8
	lib      *library
}

type gateKey struct {
	kind   network.Kind
	fanins [3]tlit
}

func (k gateKey) less(o gateKey) bool {
	if k.kind != o.kind {
		return k.kind < o.kind
	}
	for i := range k.fanins {
		if k.fanins[i] != o.fanins[i] {
			return k.fanins[i] < o.fanins[i]
		}
	}
	return false
}

func buildLibrary(kinds []network.Kind, maxGates int) *library {
	e := &enumerator{kinds: kinds, maxGates: maxGates, lib: &library{}}
	for i := range e.size {
		e.size[i] = -1
	}
	e.tts = append(e.tts, 0)
	e.record(0, makeTlit(0, false))
	for i := 0; i < truth.Vars; i++ {
		e.tts = append(e.tts, truth.Var(i))
		e.record(truth.Var(i), makeTlit(i+1, false))
	}
	e.extend()
	return e.lib
}

func (e *enumerator) record(tt truth.Table, out tlit) {
	n := int8(len(e.gates))
	for _, c := range []bool{false, true} {
		t := tt
		if c {
			t = t.Not()
		}
		if s := e.size[t]; s >= 0 && s <= n {
			continue
		}
		e.size[t] = n
		e.lib.best[t] = &template{
			gates: append([]templateGate(nil), e.gates...),
			out:   out ^ tlit(boolBit(c)),
		}
	}
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// extend appends one more gate in every possible way. Consecutive gates
// that do not depend on each other are only generated in increasing key
// order, which skips reorderings of the same structure.
func (e *enumerator) extend() {
	if len(e.gates) == e.maxGates {
		return
	}
	n := len(e.tts)
	last := -1
	if len(e.gates) > 0 {
		last = n - 1
	}
	for _, kind := range e.kinds {
		first := 1
		if kind == network.KindMaj {
			first = 0
		}
		polarities := 1 << kind.Arity()
		if kind == network.KindXor {
			polarities = 1
		}
		var idx [3]int
		var rec func(pos, from int)
		rec = func(pos, from int) {
			if pos < kind.Arity() {
				for i := from; i < n; i++ {
					idx[pos] = i
					rec(pos+1, i+1)
				}
				return
			}
			for pol := 0; pol < polarities; pol++ {
				e.try(kind, idx, pol, last)
			}
		}
		rec(0, first)
	}
}

func (e *enumerator) try(kind network.Kind, idx [3]int, pol, last int) {
	k := kind.Arity()
	key := gateKey{kind: kind}
	usesLast := false
	var in [3]truth.Table
	for i := 0; i < k; i++ {
		c := pol>>i&1 == 1
		key.fanins[i] = makeTlit(idx[i], c)
		in[i] = e.tts[idx[i]]
		if c {
			in[i] = in[i].Not()
		}
		if idx[i] == last {
			usesLast = true
		}
	}
	if last >= 0 && !usesLast && !e.keys[len(e.keys)-1].less(key) {
		return
	}
	var tt truth.Table
	switch kind {
	case network.KindAnd:
		tt = truth.And(in[0], in[1])
	case network.KindXor:
		tt = truth.Xor(in[0], in[1])
	default:
		tt = truth.Maj(in[0], in[1], in[2])
	}
	for _, s := range e.tts {
		if s == tt || s == tt.Not() {
			return
		}
	}

	e.tts = append(e.tts, tt)
	e.gates = append(e.gates, templateGate{kind: kind, fanins: key.fanins})
	e.keys = append(e.keys, key)
	e.record(tt, makeTlit(len(e.tts)-1, false))
	e.extend()
	e.tts = e.tts[:len(e.tts)-1]
	e.gates = e.gates[:len(e.gates)-1]
	e.keys = e.keys[:len(e.keys)-1]
}
