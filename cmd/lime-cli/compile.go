package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CapZTr/lime/internal/bench"
	"github.com/CapZTr/lime/internal/cli"
	"github.com/CapZTr/lime/internal/errors"
	"github.com/CapZTr/lime/internal/netlist"
	"github.com/CapZTr/lime/internal/session"
)

var compileFlags struct {
	compilerFlags
	backend       string
	network       bool
	noPreoptimize bool
	noRewrite     bool
	stats         bool
}

var compileCmd = &cobra.Command{
	Use:   "compile <benchmark>",
	Short: "Compile a benchmark and print the generated program",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileFlags.register(compileCmd)
	fs := compileCmd.Flags()
	fs.StringVar(&compileFlags.backend, "backend", "", "backend server command (default: built-in reference backend)")
	fs.BoolVar(&compileFlags.network, "network", false, "also print the network the backend rewrote")
	fs.BoolVar(&compileFlags.noPreoptimize, "no-preoptimize", false, "skip preoptimization")
	fs.BoolVar(&compileFlags.noRewrite, "no-rewrite", false, "ask the backend not to rewrite the network")
	fs.BoolVar(&compileFlags.stats, "stats", true, "print the backend statistics")
}

func runCompile(cmd *cobra.Command, args []string) error {
	start := time.Now()
	settings := cfg.Compiler
	if err := compileFlags.apply(cmd, &settings); err != nil {
		return err
	}
	if compileFlags.noPreoptimize {
		settings.Preoptimize = false
	}
	if compileFlags.noRewrite {
		settings.Rewrite = false
	}
	if compileFlags.backend != "" {
		cfg.Bench.Backend = compileFlags.backend
	}

	d, err := bench.Load(args[0], settings.Architecture.Technology())
	if err != nil {
		return err
	}
	settings.Validator = session.NewValidator(d.Network)

	s := session.New(cli.Backend(cfg.Bench), settings)
	s.Optimizer = cfg.Optimizer
	run := s.Compile
	if compileFlags.network {
		run = s.Rewrite
	}
	res, err := run(d.Network)
	if err != nil {
		return cli.BackendError(cfg.Bench, err)
	}
	defer res.Close()

	out := cmd.OutOrStdout()
	fmt.Fprint(out, res.Program.String())
	if compileFlags.network {
		fmt.Fprintln(out)
		if err := netlist.Write(out, &netlist.Design{Name: d.Name + " (rewritten)", Network: res.Network,
			InputNames: d.InputNames, OutputNames: d.OutputNames}); err != nil {
			return err
		}
	}

	stderr := cmd.ErrOrStderr()
	if p := res.Preoptimization; p != nil {
		fmt.Fprintf(stderr, "preoptimized %d -> %d nodes in %d rounds (%s)\n",
			p.InitialSize, p.FinalSize, p.Rounds, cli.FormatDuration(p.Duration))
	}
	if compileFlags.stats {
		fmt.Fprintln(stderr, res.Stats)
	}
	if !res.Stats.ValidationSuccess {
		cli.Report(stderr, errors.ValidationFailed(args[0]))
		cli.Failed(stderr, "Compiled %s for %s in %s, validation failed", args[0], settings.Architecture, cli.FormatDuration(time.Since(start)))
		return nil
	}
	cli.Succeeded(stderr, "Compiled %s for %s in %s (session %s)", args[0], settings.Architecture, cli.FormatDuration(time.Since(start)), res.ID)
	return nil
}
