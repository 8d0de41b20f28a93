// Package network provides the boolean network used throughout the
// compiler: a DAG of fixed-arity logic nodes over primary inputs, with
// logical NOT folded into edges as a complement bit.
//
// Nodes live in an arena indexed by NodeID. Creation always appends, so the
// arena is topologically ordered. Gate creation simplifies trivial cases and
// performs structural hashing; a structurally equal gate is never created
// twice. For majority gates the hash also recognizes the self-dual form
// maj(!a, !b, !c) == !maj(a, b, c), and XOR gates are stored with regular
// fanins, so subgraphs differing only in complement placement share a node.
package network

import (
	"fmt"
	"sort"
	"strings"
)

// Technology selects the gate basis of a network.
type Technology uint8

const (
	// MIG networks are built from majority-of-three gates.
	MIG Technology = iota + 1
	// AIG networks are built from two-input AND gates.
	AIG
	// XAG networks are built from two-input AND and XOR gates.
	XAG
)

func (t Technology) String() string {
	switch t {
	case MIG:
		return "mig"
	case AIG:
		return "aig"
	case XAG:
		return "xag"
	default:
		return fmt.Sprintf("technology(%d)", uint8(t))
	}
}

// ParseTechnology decodes a technology name such as "mig".
func ParseTechnology(s string) (Technology, error) {
	switch strings.ToLower(s) {
	case "mig":
		return MIG, nil
	case "aig":
		return AIG, nil
	case "xag":
		return XAG, nil
	}
	return 0, fmt.Errorf("unknown technology %q", s)
}

// Kind is the function computed by a node.
type Kind uint8

const (
	KindConst Kind = iota
	KindInput
	KindAnd
	KindXor
	KindMaj
)

// Arity returns the number of fanins of a node of this kind.
func (k Kind) Arity() int {
	switch k {
	case KindAnd, KindXor:
		return 2
	case KindMaj:
		return 3
	default:
		return 0
	}
}

// IsGate reports whether k is a logic gate.
func (k Kind) IsGate() bool {
	return k.Arity() > 0
}

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindInput:
		return "input"
	case KindAnd:
		return "and"
	case KindXor:
		return "xor"
	case KindMaj:
		return "maj"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type node struct {
	kind   Kind
	fanins [3]Signal
}

type strashKey struct {
	kind    Kind
	a, b, c Signal
}

// Network is a combinational boolean network.
type Network struct {
	tech    Technology
	nodes   []node
	inputs  []NodeID
	outputs []Signal
	strash  map[strashKey]NodeID
}

// New creates an empty network holding only the constant node.
func New(tech Technology) *Network {
	return NewCap(tech, 64)
}

// NewCap creates an empty network with room for capHint nodes.
func NewCap(tech Technology, capHint int) *Network {
	if capHint < 1 {
		capHint = 1
	}
	n := &Network{
		tech:   tech,
		nodes:  make([]node, 1, capHint),
		strash: make(map[strashKey]NodeID, capHint),
	}
	n.nodes[0] = node{kind: KindConst}
	return n
}

// Technology returns the gate basis of the network.
func (n *Network) Technology() Technology {
	return n.tech
}

// Size returns the number of nodes, including the constant and the inputs.
func (n *Network) Size() int {
	return len(n.nodes)
}

// NumInputs returns the number of primary inputs.
func (n *Network) NumInputs() int {
	return len(n.inputs)
}

// NumOutputs returns the number of primary outputs.
func (n *Network) NumOutputs() int {
	return len(n.outputs)
}

// NumGates returns the number of logic gates.
func (n *Network) NumGates() int {
	return len(n.nodes) - 1 - len(n.inputs)
}

// Kind returns the kind of node id.
func (n *Network) Kind(id NodeID) Kind {
	return n.nodes[id].kind
}

// IsGate reports whether id is a logic gate.
func (n *Network) IsGate(id NodeID) bool {
	return n.nodes[id].kind.IsGate()
}

// IsInput reports whether id is a primary input.
func (n *Network) IsInput(id NodeID) bool {
	return n.nodes[id].kind == KindInput
}

// Fanins returns the fanins of id. The slice aliases network storage and
// must not be modified.
func (n *Network) Fanins(id NodeID) []Signal {
	nd := &n.nodes[id]
	k := nd.kind.Arity()
	return nd.fanins[:k:k]
}

// Input returns the node of the i'th primary input.
func (n *Network) Input(i int) NodeID {
	return n.inputs[i]
}

// Inputs returns the primary inputs in creation order.
func (n *Network) Inputs() []NodeID {
	return append([]NodeID(nil), n.inputs...)
}

// Output returns the i'th primary output.
func (n *Network) Output(i int) Signal {
	return n.outputs[i]
}

// Outputs returns the primary outputs in declaration order.
func (n *Network) Outputs() []Signal {
	return append([]Signal(nil), n.outputs...)
}

// CreateInput appends a primary input.
func (n *Network) CreateInput() Signal {
	id := n.appendNode(node{kind: KindInput})
	n.inputs = append(n.inputs, id)
	return MakeSignal(id, false)
}

// CreateOutput declares s as the next primary output and returns its index.
func (n *Network) CreateOutput(s Signal) int {
	n.check(s)
	n.outputs = append(n.outputs, s)
	return len(n.outputs) - 1
}

// CreateNot returns the complement of a.
func (n *Network) CreateNot(a Signal) Signal {
	return a.Not()
}

// CreateAnd returns a signal computing a AND b. Majority networks realize
// it as maj(0, a, b).
func (n *Network) CreateAnd(a, b Signal) Signal {
	if n.tech == MIG {
		return n.createMaj(False, a, b)
	}
	return n.createAnd(a, b)
}

// CreateOr returns a signal computing a OR b.
func (n *Network) CreateOr(a, b Signal) Signal {
	if n.tech == MIG {
		return n.createMaj(True, a, b)
	}
	return n.createAnd(a.Not(), b.Not()).Not()
}

// CreateXor returns a signal computing a XOR b.
func (n *Network) CreateXor(a, b Signal) Signal {
	if n.tech == XAG {
		return n.createXor(a, b)
	}
	return n.CreateOr(n.CreateAnd(a, b.Not()), n.CreateAnd(a.Not(), b))
}

// CreateMaj returns a signal computing the majority of a, b and c.
func (n *Network) CreateMaj(a, b, c Signal) Signal {
	switch n.tech {
	case MIG:
		return n.createMaj(a, b, c)
	case XAG:
		// maj(a, b, c) = a ^ ((a ^ b) & (a ^ c))
		return n.createXor(a, n.createAnd(n.createXor(a, b), n.createXor(a, c)))
	default:
		return n.CreateOr(n.CreateAnd(a, b), n.CreateAnd(c, n.CreateOr(a, b)))
	}
}

// CreateMux returns sel ? t : e.
func (n *Network) CreateMux(sel, t, e Signal) Signal {
	return n.CreateOr(n.CreateAnd(sel, t), n.CreateAnd(sel.Not(), e))
}

// CreateGate creates a gate of the given kind. Kinds that are not native to
// the network's technology are decomposed.
func (n *Network) CreateGate(kind Kind, fanins []Signal) Signal {
	if len(fanins) != kind.Arity() || !kind.IsGate() {
		panic(fmt.Sprintf("network: %s gate with %d fanins", kind, len(fanins)))
	}
	switch kind {
	case KindAnd:
		return n.CreateAnd(fanins[0], fanins[1])
	case KindXor:
		return n.CreateXor(fanins[0], fanins[1])
	default:
		return n.CreateMaj(fanins[0], fanins[1], fanins[2])
	}
}

func (n *Network) createAnd(a, b Signal) Signal {
	n.check(a)
	n.check(b)
	if a > b {
		a, b = b, a
	}
	switch {
	case a == b:
		return a
	case a == b.Not():
		return False
	case a == False:
		return False
	case a == True:
		return b
	}
	return n.lookupOrCreate(strashKey{kind: KindAnd, a: a, b: b})
}

func (n *Network) createXor(a, b Signal) Signal {
	n.check(a)
	n.check(b)
	c := a.IsComplemented() != b.IsComplemented()
	a, b = a.Regular(), b.Regular()
	if a > b {
		a, b = b, a
	}
	switch {
	case a == b:
		return False.NotIf(c)
	case a == False:
		return b.NotIf(c)
	}
	return n.lookupOrCreate(strashKey{kind: KindXor, a: a, b: b}).NotIf(c)
}

func (n *Network) createMaj(a, b, c Signal) Signal {
	n.check(a)
	n.check(b)
	n.check(c)
	s := [3]Signal{a, b, c}
	sort.Slice(s[:], func(i, j int) bool { return s[i] < s[j] })
	a, b, c = s[0], s[1], s[2]
	switch {
	case a == b:
		return a
	case b == c:
		return b
	case a == b.Not():
		return c
	case b == c.Not():
		return a
	case a == c.Not():
		return b
	}
	key := strashKey{kind: KindMaj, a: a, b: b, c: c}
	if id, ok := n.strash[key]; ok {
		return MakeSignal(id, false)
	}
	dual := strashKey{kind: KindMaj, a: a.Not(), b: b.Not(), c: c.Not()}
	if id, ok := n.strash[dual]; ok {
		return MakeSignal(id, true)
	}
	return n.lookupOrCreate(key)
}

func (n *Network) lookupOrCreate(key strashKey) Signal {
	if id, ok := n.strash[key]; ok {
		return MakeSignal(id, false)
	}
	id := n.appendNode(node{kind: key.kind, fanins: [3]Signal{key.a, key.b, key.c}})
	n.strash[key] = id
	return MakeSignal(id, false)
}

func (n *Network) appendNode(nd node) NodeID {
	id := NodeID(len(n.nodes))
	n.nodes = append(n.nodes, nd)
	return id
}

func (n *Network) check(s Signal) {
	if int(s.Node()) >= len(n.nodes) {
		panic(fmt.Sprintf("network: signal %s out of range (size %d)", s, len(n.nodes)))
	}
}

// Clone returns an independent copy of the network with identical node IDs.
func (n *Network) Clone() *Network {
	c := &Network{
		tech:    n.tech,
		nodes:   append([]node(nil), n.nodes...),
		inputs:  append([]NodeID(nil), n.inputs...),
		outputs: append([]Signal(nil), n.outputs...),
		strash:  make(map[strashKey]NodeID, len(n.strash)),
	}
	for k, v := range n.strash {
		c.strash[k] = v
	}
	return c
}

// ForEachGate calls fn for every gate in topological order.
func (n *Network) ForEachGate(fn func(id NodeID)) {
	for i := 1; i < len(n.nodes); i++ {
		if n.nodes[i].kind.IsGate() {
			fn(NodeID(i))
		}
	}
}
