// Package repl is an interactive netlist shell: statements build a network
// line by line and colon commands inspect or optimize it.
package repl

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/CapZTr/lime/internal/equiv"
	"github.com/CapZTr/lime/internal/errors"
	"github.com/CapZTr/lime/internal/netlist"
	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/optimize"
)

const PROMPT = ">> "

const help = `statements:
  input a b c          declare inputs
  and g = a !b         define a gate (and or xor nand nor xnor maj mux not buf)
  output f = g         declare an output
commands:
  :print               print the network
  :netlist             print the network as a netlist
  :optimize            preoptimize a copy and print it
  :tech mig|aig|xag    start over with another technology
  :reset               start over
  :quit                leave
`

type shell struct {
	out  io.Writer
	tech network.Technology
	el   *netlist.Elaborator
}

func (s *shell) reset(tech network.Technology) {
	s.tech = tech
	s.el = netlist.NewElaborator("repl", tech)
}

// Start reads lines from in until it is exhausted or :quit is entered.
func Start(in io.Reader, out io.Writer, tech network.Technology) {
	s := &shell{out: out}
	s.reset(tech)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ":") {
			if !s.command(line) {
				return
			}
			continue
		}
		s.statement(line)
	}
}

func (s *shell) report(line string, err error) {
	var ce errors.CompilerError
	if stderrors.As(err, &ce) {
		fmt.Fprint(s.out, errors.NewErrorReporter("repl", line).FormatError(ce))
		return
	}
	fmt.Fprintf(s.out, "error: %s\n", err)
}

func (s *shell) statement(line string) {
	sts, err := netlist.ParseLine("repl", line)
	if err != nil {
		s.report(line, err)
		return
	}
	for _, st := range sts {
		if err := s.el.Statement(st); err != nil {
			s.report(line, err)
			return
		}
	}
}

func (s *shell) command(line string) bool {
	fields := strings.Fields(line)
	d := s.el.Design()
	switch fields[0] {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Fprint(s.out, help)
	case ":print":
		fmt.Fprint(s.out, network.Print(d.Network))
	case ":netlist":
		if err := netlist.Write(s.out, d); err != nil {
			s.report(line, err)
		}
	case ":optimize":
		opt := &netlist.Design{Name: "optimized", Network: d.Network.Clone(), InputNames: d.InputNames, OutputNames: d.OutputNames}
		st := optimize.New(s.tech, optimize.DefaultOptions()).Run(opt.Network)
		if err := netlist.Write(s.out, opt); err != nil {
			s.report(line, err)
			return true
		}
		same, err := equiv.Equivalent(d.Network, opt.Network)
		if err != nil {
			s.report(line, err)
			return true
		}
		fmt.Fprintf(s.out, "%d -> %d nodes in %d rounds, equivalent: %t\n", st.InitialSize, st.FinalSize, st.Rounds, same)
	case ":tech":
		if len(fields) != 2 {
			fmt.Fprintln(s.out, "usage: :tech mig|aig|xag")
			return true
		}
		tech, err := network.ParseTechnology(fields[1])
		if err != nil {
			s.report(line, err)
			return true
		}
		s.reset(tech)
		fmt.Fprintf(s.out, "new %s network\n", tech)
	case ":reset":
		s.reset(s.tech)
		fmt.Fprintf(s.out, "new %s network\n", s.tech)
	default:
		fmt.Fprintf(s.out, "unknown command %s, try :help\n", fields[0])
	}
	return true
}
