// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	_ "github.com/tliron/commonlog/simple"

	"github.com/CapZTr/lime/internal/bench"
	"github.com/CapZTr/lime/internal/cli"
	"github.com/CapZTr/lime/internal/errors"
)

var (
	configPath string
	backendCmd string
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:   "lime-bench " + bench.Usage,
	Short: "Preoptimize and compile one benchmark and print its RESULTS line",
	Long: `lime-bench loads a benchmark (a built-in circuit or a netlist file),
preoptimizes it for the architecture's technology and compiles it.

  <arch>                 ambit / simdram / imply / plim / felix
  <mode>                 greedy / exhaustive
  <candidate-selection>  all / plim_compiler
  <rewriting>            none / compiling / compiling_memusage / lp / greedy
  <size-factor>          unsigned integer`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func run(cmd *cobra.Command, args []string) error {
	cli.ConfigureLogging(verbosity)

	b, err := bench.ParseArgs(args)
	if err != nil {
		return err
	}
	cfg, err := cli.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if backendCmd != "" {
		cfg.Bench.Backend = backendCmd
	}

	rec, err := bench.Run(b, cli.Backend(cfg.Bench), cfg.Optimizer, os.Stderr)
	if err != nil {
		return cli.BackendError(cfg.Bench, err)
	}
	if !rec.ValidationSuccess {
		cli.Report(os.Stderr, errors.ValidationFailed(b.Benchmark))
	}
	fmt.Fprintln(cmd.OutOrStdout(), bench.FormatResults(rec))
	return nil
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.Flags().StringVar(&backendCmd, "backend", "", "backend server command (default: built-in reference backend)")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	if err := rootCmd.Execute(); err != nil {
		cli.Report(os.Stderr, err)
		os.Exit(1)
	}
}
