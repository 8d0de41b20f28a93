package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/backend/reference"
	"github.com/CapZTr/lime/internal/cli"
	"github.com/CapZTr/lime/internal/netlist"
	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/session"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Rewrite and compile a one-bit multiplexer for Ambit",
	Long: `demo builds O = m ? b_next : b as a majority network, preoptimizes it,
rewrites and compiles it with the Ambit settings, and prints the program,
the instruction count and the backend timings.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func muxDesign() *netlist.Design {
	ntk := network.New(network.MIG)
	b := ntk.CreateInput()
	bNext := ntk.CreateInput()
	m := ntk.CreateInput()
	o1 := ntk.CreateAnd(m, bNext)
	o2 := ntk.CreateAnd(m.Not(), b)
	ntk.CreateOutput(ntk.CreateOr(o1, o2))
	return &netlist.Design{
		Name:        "mux",
		Network:     ntk,
		InputNames:  []string{"b", "b_next", "m"},
		OutputNames: []string{"O"},
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	d := muxDesign()
	if err := netlist.Write(out, d); err != nil {
		return err
	}

	settings := backend.DefaultSettings()
	settings.Architecture = backend.Ambit
	settings.Preoptimize = true
	settings.Rewrite = true
	settings.Validator = session.NewValidator(d.Network)

	res, err := session.Rewrite(reference.New(), settings, d.Network)
	if err != nil {
		return cli.BackendError(cfg.Bench, err)
	}
	defer res.Close()

	fmt.Fprintf(out, "\nGenerated program:\n%s\n", res.Program)
	fmt.Fprintf(out, "IC: %d\n", res.Stats.InstructionCount)
	fmt.Fprintf(out, "t1: %s\n", cli.FormatDuration(res.Stats.TRunner))
	fmt.Fprintf(out, "t2: %s\n", cli.FormatDuration(res.Stats.TExtractor))
	fmt.Fprintf(out, "t3: %s\n\n", cli.FormatDuration(res.Stats.TCompiler))

	rewritten := &netlist.Design{Name: "mux (rewritten)", Network: res.Network, InputNames: d.InputNames, OutputNames: d.OutputNames}
	return netlist.Write(out, rewritten)
}
