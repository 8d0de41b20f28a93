package netlist

import (
	"fmt"
	"sort"

	"github.com/CapZTr/lime/internal/network"
)

type generator func(n *network.Network) (inputs, outputs []string)

var builtins = map[string]generator{
	"fa":   fullAdder,
	"fs":   fullSubtractor,
	"add2": adder(2),
	"add4": adder(4),
	"mux1": multiplexer(1),
	"mux3": multiplexer(3),
	"mul2": multiplier(2),
	"mul4": multiplier(4),
}

// BuiltinNames lists the generated benchmarks.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Builtin generates a built-in benchmark in the given technology.
func Builtin(id string, tech network.Technology) (*Design, bool) {
	gen, ok := builtins[id]
	if !ok {
		return nil, false
	}
	ntk := network.New(tech)
	ins, outs := gen(ntk)
	return &Design{Name: id, Network: ntk, InputNames: ins, OutputNames: outs}, true
}

// Get returns the built-in benchmark id, or loads id as a netlist file.
func Get(id string, tech network.Technology) (*Design, error) {
	if d, ok := Builtin(id, tech); ok {
		return d, nil
	}
	return Load(id, tech)
}

func inputs(n *network.Network, prefix string, count int, names *[]string) []network.Signal {
	sigs := make([]network.Signal, count)
	for i := range sigs {
		sigs[i] = n.CreateInput()
		*names = append(*names, fmt.Sprintf("%s%d", prefix, i))
	}
	return sigs
}

func addBits(n *network.Network, a, b, c network.Signal) (sum, carry network.Signal) {
	return n.CreateXor(n.CreateXor(a, b), c), n.CreateMaj(a, b, c)
}

func fullAdder(n *network.Network) ([]string, []string) {
	a, b, c := n.CreateInput(), n.CreateInput(), n.CreateInput()
	s, co := addBits(n, a, b, c)
	n.CreateOutput(s)
	n.CreateOutput(co)
	return []string{"a", "b", "cin"}, []string{"sum", "cout"}
}

func fullSubtractor(n *network.Network) ([]string, []string) {
	a, b, c := n.CreateInput(), n.CreateInput(), n.CreateInput()
	n.CreateOutput(n.CreateXor(n.CreateXor(a, b), c))
	n.CreateOutput(n.CreateMaj(a.Not(), b, c))
	return []string{"a", "b", "bin"}, []string{"diff", "bout"}
}

// adder is a ripple-carry adder of two width-bit operands.
func adder(width int) generator {
	return func(n *network.Network) ([]string, []string) {
		var ins, outs []string
		a := inputs(n, "a", width, &ins)
		b := inputs(n, "b", width, &ins)
		carry := network.False
		for i := 0; i < width; i++ {
			var s network.Signal
			s, carry = addBits(n, a[i], b[i], carry)
			n.CreateOutput(s)
			outs = append(outs, fmt.Sprintf("s%d", i))
		}
		n.CreateOutput(carry)
		outs = append(outs, "cout")
		return ins, outs
	}
}

// multiplexer selects one of 2^sel data inputs.
func multiplexer(sel int) generator {
	return func(n *network.Network) ([]string, []string) {
		var ins []string
		s := inputs(n, "s", sel, &ins)
		level := inputs(n, "d", 1<<sel, &ins)
		for _, bit := range s {
			next := make([]network.Signal, len(level)/2)
			for i := range next {
				next[i] = n.CreateMux(bit, level[2*i+1], level[2*i])
			}
			level = next
		}
		n.CreateOutput(level[0])
		return ins, []string{"y"}
	}
}

// multiplier is an array multiplier of two width-bit operands with a
// 2*width-bit product.
func multiplier(width int) generator {
	return func(n *network.Network) ([]string, []string) {
		var ins, outs []string
		a := inputs(n, "a", width, &ins)
		b := inputs(n, "b", width, &ins)

		acc := make([]network.Signal, 2*width)
		for i := range acc {
			acc[i] = network.False
		}
		for j := 0; j < width; j++ {
			carry := network.False
			for i := 0; i < width; i++ {
				pp := n.CreateAnd(a[i], b[j])
				acc[i+j], carry = addBits(n, acc[i+j], pp, carry)
			}
			for k := j + width; k < 2*width && carry != network.False; k++ {
				acc[k], carry = addBits(n, acc[k], carry, network.False)
			}
		}
		for i, p := range acc {
			n.CreateOutput(p)
			outs = append(outs, fmt.Sprintf("p%d", i))
		}
		return ins, outs
	}
}
