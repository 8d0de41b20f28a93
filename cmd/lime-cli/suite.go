package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/CapZTr/lime/internal/bench"
	"github.com/CapZTr/lime/internal/cli"
	"github.com/CapZTr/lime/internal/errors"
)

var suiteFlags struct {
	suites     []string
	benchmarks []string
	store      string
	jobs       int
	reuse      bool
	driver     string
	backend    string
	noReport   bool
}

var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Run the benchmark matrices and store the results",
	Args:  cobra.NoArgs,
	RunE:  runSuite,
}

var reportFlags struct {
	store      string
	benchmarks []string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the comparison tables from a result store",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	fs := suiteCmd.Flags()
	fs.StringSliceVar(&suiteFlags.suites, "suite", []string{"compiler", "rewrite", "simdram"}, "suites to run: compiler, rewrite, simdram")
	fs.StringSliceVarP(&suiteFlags.benchmarks, "bench", "b", nil, "benchmark ids (default: the built-in circuits)")
	fs.StringVar(&suiteFlags.store, "store", "", "result store directory (overrides bench.store)")
	fs.IntVarP(&suiteFlags.jobs, "jobs", "j", 0, "concurrent benchmarks (overrides bench.jobs)")
	fs.BoolVar(&suiteFlags.reuse, "reuse", false, "keep successful results already in the store")
	fs.StringVar(&suiteFlags.driver, "driver", "", "run each benchmark through this lime-bench executable")
	fs.StringVar(&suiteFlags.backend, "backend", "", "backend server command (default: built-in reference backend)")
	fs.BoolVar(&suiteFlags.noReport, "no-report", false, "do not print the tables")

	rfs := reportCmd.Flags()
	rfs.StringVar(&reportFlags.store, "store", "", "result store directory (overrides bench.store)")
	rfs.StringSliceVarP(&reportFlags.benchmarks, "bench", "b", nil, "benchmark ids (default: the built-in circuits)")
}

func suiteBenchmarks(names, ids []string) ([]bench.Benchmark, error) {
	var out []bench.Benchmark
	for _, name := range names {
		switch strings.ToLower(name) {
		case "compiler":
			out = append(out, bench.CompilerBenchmarks(ids)...)
		case "rewrite":
			out = append(out, bench.RewriteBenchmarks(ids)...)
		case "simdram":
			out = append(out, bench.SimdramBenchmarks()...)
		default:
			return nil, errors.UnknownToken(errors.ErrorInvalidConfig, "suite", name, []string{"compiler", "rewrite", "simdram"})
		}
	}
	return out, nil
}

func openStore(flag string) (*bench.Store, error) {
	path := cfg.Bench.Store
	if flag != "" {
		path = flag
	}
	store, err := bench.OpenStore(path)
	if err != nil {
		return nil, errors.ResultStore(path, err)
	}
	return store, nil
}

func runSuite(cmd *cobra.Command, args []string) error {
	ids := suiteFlags.benchmarks
	if len(ids) == 0 {
		ids = bench.Benchmarks
	}
	benchmarks, err := suiteBenchmarks(suiteFlags.suites, ids)
	if err != nil {
		return err
	}
	if suiteFlags.backend != "" {
		cfg.Bench.Backend = suiteFlags.backend
	}
	if suiteFlags.driver != "" {
		cfg.Bench.Driver = suiteFlags.driver
	}
	if suiteFlags.jobs > 0 {
		cfg.Bench.Jobs = suiteFlags.jobs
	}

	store, err := openStore(suiteFlags.store)
	if err != nil {
		return err
	}
	defer store.Close()

	var runner bench.Runner = &bench.InProcess{Backend: cli.Backend(cfg.Bench), Options: cfg.Optimizer}
	if cfg.Bench.Driver != "" {
		var driverArgs []string
		if configPath != "" {
			driverArgs = append(driverArgs, "--config", configPath)
		}
		if cfg.Bench.Backend != "" {
			driverArgs = append(driverArgs, "--backend", cfg.Bench.Backend)
		}
		runner = &bench.Command{Path: cfg.Bench.Driver, Args: driverArgs}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stderr := cmd.ErrOrStderr()
	var done atomic.Int32
	suite := &bench.Suite{
		Runner:  runner,
		Store:   store,
		Jobs:    cfg.Bench.Jobs,
		Reuse:   suiteFlags.reuse || cfg.Bench.Reuse,
		Timeout: cfg.Bench.Timeout,
		OnResult: func(e bench.Entry) {
			status := e.Result.Failure.String()
			if e.Result.OK() && !e.Result.Record.ValidationSuccess {
				status = "invalid"
			}
			fmt.Fprintf(stderr, "[%d/%d] %s: %s (%s)\n", done.Add(1), len(benchmarks), e.Benchmark, status, cli.FormatDuration(e.Result.Total))
		},
	}
	entries, err := suite.Run(ctx, benchmarks)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("suite interrupted: %w", err)
		}
		return errors.ResultStore(store.Path(), err)
	}

	failed := 0
	for _, e := range entries {
		if !e.Result.OK() {
			failed++
		}
	}
	if !suiteFlags.noReport {
		printReports(cmd, bench.NewIndex(entries), ids)
	}
	if failed > 0 {
		cli.Failed(stderr, "%d of %d benchmarks did not produce results", failed, len(entries))
		return nil
	}
	cli.Succeeded(stderr, "Ran %d benchmarks", len(entries))
	return nil
}

func printReports(cmd *cobra.Command, idx bench.Index, ids []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Code generation")
	fmt.Fprintln(out, bench.CodegenReport(idx, ids))
	fmt.Fprintln(out, "Rewriting")
	fmt.Fprintln(out, bench.RewritingReport(idx, ids))
}

func runReport(cmd *cobra.Command, args []string) error {
	store, err := openStore(reportFlags.store)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.All()
	if err != nil {
		return errors.ResultStore(store.Path(), err)
	}
	ids := reportFlags.benchmarks
	if len(ids) == 0 {
		ids = bench.Benchmarks
	}
	printReports(cmd, bench.NewIndex(entries), ids)
	return nil
}
