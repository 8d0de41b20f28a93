package network

import (
	"fmt"
	"strings"
)

// Printer provides a textual listing of a network
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new network printer
func NewPrinter() *Printer {
	return &Printer{}
}

// Print returns the listing of n
func Print(n *Network) string {
	p := NewPrinter()
	p.printNetwork(n)
	return p.output.String()
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.output.WriteString(strings.Repeat("  ", p.indent))
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printNetwork(n *Network) {
	p.writeLine("NETWORK %s (%d nodes, %d gates)", n.tech, n.Size(), n.NumGates())

	names := make([]string, len(n.inputs))
	for i, in := range n.inputs {
		names[i] = MakeSignal(in, false).String()
	}
	p.writeLine("INPUTS: %s", strings.Join(names, " "))

	p.writeLine("GATES:")
	p.indent++
	n.ForEachGate(func(id NodeID) {
		fanins := n.Fanins(id)
		ops := make([]string, len(fanins))
		for i, f := range fanins {
			ops[i] = f.String()
		}
		p.writeLine("n%d = %s(%s)", id, n.Kind(id), strings.Join(ops, ", "))
	})
	p.indent--

	p.writeLine("OUTPUTS:")
	p.indent++
	for i, o := range n.outputs {
		p.writeLine("po%d = %s", i, o)
	}
	p.indent--
}
