package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/CapZTr/lime/internal/network"
)

// Write prints d in the netlist format. Gates are named after their node ID.
// Inputs and outputs keep the design's names where present.
func Write(w io.Writer, d *Design) error {
	ntk := d.Network
	bw := bufio.NewWriter(w)
	names := make(map[network.NodeID]string, ntk.Size())

	if d.Name != "" {
		fmt.Fprintf(bw, "# %s\n", d.Name)
	}
	if ntk.NumInputs() > 0 {
		ins := make([]string, ntk.NumInputs())
		for i, id := range ntk.Inputs() {
			ins[i] = fmt.Sprintf("x%d", i)
			if i < len(d.InputNames) {
				ins[i] = d.InputNames[i]
			}
			names[id] = ins[i]
		}
		fmt.Fprintf(bw, "input %s\n", strings.Join(ins, " "))
	}

	prefix := "g"
	for hasPrefix(d.InputNames, prefix) {
		prefix = "_" + prefix
	}

	operand := func(s network.Signal) string {
		var name string
		switch s.Node() {
		case 0:
			name = "0"
		default:
			name = names[s.Node()]
		}
		if s.IsComplemented() {
			return "!" + name
		}
		return name
	}

	ntk.ForEachGate(func(id network.NodeID) {
		names[id] = fmt.Sprintf("%s%d", prefix, id)
		fanins := ntk.Fanins(id)
		ops := make([]string, len(fanins))
		for i, f := range fanins {
			ops[i] = operand(f)
		}
		fmt.Fprintf(bw, "%s %s = %s\n", ntk.Kind(id), names[id], strings.Join(ops, " "))
	})

	for i, o := range ntk.Outputs() {
		name := fmt.Sprintf("y%d", i)
		if i < len(d.OutputNames) {
			name = d.OutputNames[i]
		}
		fmt.Fprintf(bw, "output %s = %s\n", name, operand(o))
	}
	return bw.Flush()
}

func hasPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}
