// Package netlist loads boolean networks from a line-oriented netlist format
// and generates the built-in benchmark circuits.
//
//	# full adder
//	input a b cin
//	xor  t = a b
//	xor  s = t cin
//	maj  co = a b cin
//	output sum = s
//	output carry = co
//
// Operands may be negated with "!" and may be the constants 0 and 1. Names
// must be defined before they are used.
package netlist

import (
	"fmt"
	"os"
	"sort"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/CapZTr/lime/internal/errors"
	"github.com/CapZTr/lime/internal/network"
)

var parser = participle.MustBuild[File](
	participle.Lexer(netlistLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Design is a network together with the names of its inputs and outputs.
type Design struct {
	Name        string
	Network     *network.Network
	InputNames  []string
	OutputNames []string
}

// Load reads and parses a netlist file.
func Load(path string, tech network.Technology) (*Design, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read netlist: %w", err)
	}
	return Parse(path, string(source), tech)
}

// Parse parses netlist source. Syntax and naming errors are returned as
// errors.CompilerError values carrying the source position.
func Parse(filename, source string, tech network.Technology) (*Design, error) {
	file, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, syntaxError(err)
	}
	el := NewElaborator(filename, tech)
	for _, st := range file.Statements {
		if err := el.Statement(st); err != nil {
			return nil, err
		}
	}
	if len(el.design.OutputNames) == 0 {
		return nil, errors.NoOutputs(filename)
	}
	return el.Design(), nil
}

// ParseLine parses the statements on one line of netlist source.
func ParseLine(filename, line string) ([]*Statement, error) {
	file, err := parser.ParseString(filename, line)
	if err != nil {
		return nil, syntaxError(err)
	}
	return file.Statements, nil
}

func syntaxError(err error) error {
	pe, ok := err.(participle.Error)
	if !ok {
		return err
	}
	return errors.NetlistSyntax(pe.Message(), position(pe.Position()))
}

func position(p lexer.Position) errors.Position {
	return errors.Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
}

type definition struct {
	signal network.Signal
	pos    lexer.Position
}

// Elaborator turns statements into a network, checking names as it goes.
type Elaborator struct {
	design  *Design
	names   map[string]definition
	outputs map[string]lexer.Position
}

// NewElaborator starts an empty design.
func NewElaborator(name string, tech network.Technology) *Elaborator {
	return &Elaborator{
		design:  &Design{Name: name, Network: network.New(tech)},
		names:   make(map[string]definition),
		outputs: make(map[string]lexer.Position),
	}
}

// Design returns the design built so far.
func (e *Elaborator) Design() *Design {
	return e.design
}

// Lookup returns the signal bound to name.
func (e *Elaborator) Lookup(name string) (network.Signal, bool) {
	d, ok := e.names[name]
	return d.signal, ok
}

// Statement adds one statement to the design.
func (e *Elaborator) Statement(st *Statement) error {
	switch {
	case st.Input != nil:
		for _, n := range st.Input.Names {
			if err := e.define(n, e.design.Network.CreateInput()); err != nil {
				return err
			}
			e.design.InputNames = append(e.design.InputNames, n.Value)
		}
	case st.Output != nil:
		name := st.Output.Name
		if prev, ok := e.outputs[name.Value]; ok {
			return errors.DuplicateOutput(name.Value, position(name.Pos), position(prev))
		}
		s, err := e.operand(st.Output.Operand)
		if err != nil {
			return err
		}
		e.outputs[name.Value] = name.Pos
		e.design.Network.CreateOutput(s)
		e.design.OutputNames = append(e.design.OutputNames, st.Output.Name.Value)
	case st.Gate != nil:
		s, err := e.gate(st.Gate)
		if err != nil {
			return err
		}
		return e.define(st.Gate.Name, s)
	}
	return nil
}

func (e *Elaborator) define(n *Name, s network.Signal) error {
	if prev, ok := e.names[n.Value]; ok {
		return errors.DuplicateSignal(n.Value, position(n.Pos), position(prev.pos))
	}
	e.names[n.Value] = definition{signal: s, pos: n.Pos}
	return nil
}

func (e *Elaborator) operand(o *Operand) (network.Signal, error) {
	if o.Const != nil {
		switch *o.Const {
		case "0":
			return network.False.NotIf(o.Complemented()), nil
		case "1":
			return network.True.NotIf(o.Complemented()), nil
		}
		return 0, errors.NetlistSyntax(fmt.Sprintf("constant must be 0 or 1, got %s", *o.Const), position(o.Pos))
	}
	d, ok := e.names[o.Name]
	if !ok {
		return 0, errors.UndefinedSignal(o.Name, position(o.Pos), e.definedNames())
	}
	return d.signal.NotIf(o.Complemented()), nil
}

func (e *Elaborator) definedNames() []string {
	names := make([]string, 0, len(e.names))
	for n := range e.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type gateSpec struct {
	arity int // 0 for two or more operands
	build func(n *network.Network, ops []network.Signal) network.Signal
}

func fold(op func(n *network.Network, a, b network.Signal) network.Signal, negate bool) func(*network.Network, []network.Signal) network.Signal {
	return func(n *network.Network, ops []network.Signal) network.Signal {
		acc := ops[0]
		for _, s := range ops[1:] {
			acc = op(n, acc, s)
		}
		return acc.NotIf(negate)
	}
}

var gates = map[string]gateSpec{
	"and":  {build: fold((*network.Network).CreateAnd, false)},
	"or":   {build: fold((*network.Network).CreateOr, false)},
	"xor":  {build: fold((*network.Network).CreateXor, false)},
	"nand": {build: fold((*network.Network).CreateAnd, true)},
	"nor":  {build: fold((*network.Network).CreateOr, true)},
	"xnor": {build: fold((*network.Network).CreateXor, true)},
	"maj": {arity: 3, build: func(n *network.Network, ops []network.Signal) network.Signal {
		return n.CreateMaj(ops[0], ops[1], ops[2])
	}},
	"mux": {arity: 3, build: func(n *network.Network, ops []network.Signal) network.Signal {
		return n.CreateMux(ops[0], ops[1], ops[2])
	}},
	"not": {arity: 1, build: func(_ *network.Network, ops []network.Signal) network.Signal { return ops[0].Not() }},
	"buf": {arity: 1, build: func(_ *network.Network, ops []network.Signal) network.Signal { return ops[0] }},
}

// GateNames lists the gate operators of the netlist format.
func GateNames() []string {
	names := make([]string, 0, len(gates))
	for n := range gates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (e *Elaborator) gate(g *GateDecl) (network.Signal, error) {
	spec, ok := gates[g.Op]
	if !ok {
		return 0, errors.UnknownGate(g.Op, position(g.Pos), GateNames())
	}
	switch {
	case spec.arity > 0 && len(g.Operands) != spec.arity:
		return 0, errors.GateArity(g.Op, spec.arity, len(g.Operands), position(g.Pos))
	case spec.arity == 0 && len(g.Operands) < 2:
		return 0, errors.GateArity(g.Op, 2, len(g.Operands), position(g.Pos))
	}
	ops := make([]network.Signal, len(g.Operands))
	for i, o := range g.Operands {
		s, err := e.operand(o)
		if err != nil {
			return 0, err
		}
		ops[i] = s
	}
	return spec.build(e.design.Network, ops), nil
}
