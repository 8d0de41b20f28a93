package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/CapZTr/lime/internal/bench"
	"github.com/CapZTr/lime/internal/cli"
	"github.com/CapZTr/lime/internal/netlist"
	"github.com/CapZTr/lime/internal/optimize"
)

var optimizeFlags struct {
	tech    string
	output  string
	rounds  bool
	maxIter int
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <benchmark>",
	Short: "Preoptimize a benchmark and print the resulting netlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptimize,
}

func init() {
	fs := optimizeCmd.Flags()
	fs.StringVarP(&optimizeFlags.tech, "tech", "t", "mig", "network technology: mig, aig or xag")
	fs.StringVarP(&optimizeFlags.output, "output", "o", "", "write the netlist to this file instead of stdout")
	fs.BoolVar(&optimizeFlags.rounds, "rounds", false, "print the size after every round and pass")
	fs.IntVar(&optimizeFlags.maxIter, "max-rounds", 0, "override optimizer.max_rounds")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	tech, err := parseTechnology(optimizeFlags.tech)
	if err != nil {
		return err
	}
	d, err := bench.Load(args[0], tech)
	if err != nil {
		return err
	}
	opts := cfg.Optimizer
	if optimizeFlags.maxIter > 0 {
		opts.MaxRounds = optimizeFlags.maxIter
	}

	st := optimize.New(tech, opts).Run(d.Network)
	stderr := cmd.ErrOrStderr()
	if optimizeFlags.rounds {
		printRounds(stderr, st)
	}

	out := cmd.OutOrStdout()
	if optimizeFlags.output != "" {
		f, err := os.Create(optimizeFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := netlist.Write(out, d); err != nil {
		return fmt.Errorf("failed to write netlist: %w", err)
	}
	cli.Succeeded(stderr, "Optimized %s (%s): %d -> %d nodes in %d rounds, %s",
		args[0], tech, st.InitialSize, st.FinalSize, st.Rounds, cli.FormatDuration(st.Duration))
	return nil
}

func printRounds(w io.Writer, st optimize.Stats) {
	for _, r := range st.History {
		kept := "kept"
		if !r.Kept {
			kept = "discarded"
		}
		fmt.Fprintf(w, "round %d: %d -> %d (%s)\n", r.Round, r.SizeBefore, r.SizeAfter, kept)
		for _, p := range r.Passes {
			fmt.Fprintf(w, "  %-24s %d -> %d, %d applied, %s\n",
				p.Pass, p.SizeBefore, p.SizeAfter, p.Applied, cli.FormatDuration(p.Duration))
		}
	}
}
