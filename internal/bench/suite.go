package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/CapZTr/lime/internal/backend"
)

// Benchmarks are the default benchmark ids of the suites.
var Benchmarks = []string{"fa", "add2", "add4", "mux1", "mux3", "mul2", "mul4"}

// Architectures are the targets compared by the compiler and rewrite
// suites.
var Architectures = []backend.Architecture{backend.Imply, backend.PLiM, backend.Felix, backend.Ambit}

// CompilerBenchmarks compares compilation modes and candidate selections
// without rewriting.
func CompilerBenchmarks(ids []string) []Benchmark {
	var out []Benchmark
	for _, id := range ids {
		for _, arch := range Architectures {
			for _, mode := range []backend.CompilationMode{backend.ModeGreedy, backend.ModeExhaustive} {
				for _, cand := range []backend.CandidateSelection{backend.CandidatesAll, backend.CandidatesGraphCompiler} {
					out = append(out, Benchmark{
						Benchmark:          id,
						Architecture:       arch,
						Mode:               mode,
						CandidateSelection: cand,
						Rewriting:          backend.RewritingNone,
					})
				}
			}
		}
	}
	return out
}

// RewriteBenchmarks compares the rewriting strategies.
func RewriteBenchmarks(ids []string) []Benchmark {
	var out []Benchmark
	for _, id := range ids {
		for _, arch := range Architectures {
			for _, rw := range []backend.RewritingStrategy{backend.RewritingCompiling, backend.RewritingLP, backend.RewritingGreedy} {
				out = append(out, Benchmark{
					Benchmark:          id,
					Architecture:       arch,
					Mode:               backend.ModeGreedy,
					CandidateSelection: backend.CandidatesAll,
					Rewriting:          rw,
					SizeFactor:         100,
				})
			}
		}
	}
	return out
}

// SimdramBenchmarks runs the SIMDRAM target on its own small circuits.
func SimdramBenchmarks() []Benchmark {
	var out []Benchmark
	for _, id := range []string{"fa", "fs", "mux1"} {
		out = append(out, Benchmark{
			Benchmark:          id,
			Architecture:       backend.SIMDRAM,
			Mode:               backend.ModeExhaustive,
			CandidateSelection: backend.CandidatesAll,
			Rewriting:          backend.RewritingNone,
			SizeFactor:         100,
		})
		for _, rw := range []backend.RewritingStrategy{backend.RewritingLP, backend.RewritingCompiling, backend.RewritingGreedy} {
			out = append(out, Benchmark{
				Benchmark:          id,
				Architecture:       backend.SIMDRAM,
				Mode:               backend.ModeGreedy,
				CandidateSelection: backend.CandidatesAll,
				Rewriting:          rw,
				SizeFactor:         100,
			})
		}
	}
	return out
}

// AllBenchmarks is every suite over ids.
func AllBenchmarks(ids []string) []Benchmark {
	out := CompilerBenchmarks(ids)
	out = append(out, RewriteBenchmarks(ids)...)
	return append(out, SimdramBenchmarks()...)
}

// Suite runs benchmarks concurrently and records their results.
type Suite struct {
	Runner Runner
	// Store receives every result. It may be nil.
	Store *Store
	Jobs  int
	// Reuse takes successful results from Store instead of running again.
	Reuse bool
	// Timeout bounds each run. Zero disables it.
	Timeout time.Duration
	// OnResult is called after each benchmark, from the worker goroutine.
	OnResult func(Entry)
}

// Run executes benchmarks and returns their entries in the same order.
// Failed benchmarks are entries, not errors; Run fails only on store
// errors or cancellation of ctx.
func (s *Suite) Run(ctx context.Context, benchmarks []Benchmark) ([]Entry, error) {
	entries := make([]Entry, len(benchmarks))
	if len(benchmarks) == 0 {
		return entries, nil
	}
	jobs := s.Jobs
	if jobs <= 0 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(benchmarks)))
	for i, b := range benchmarks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := s.runOne(gctx, b)
			if err != nil {
				return err
			}
			entries[i] = e
			if s.OnResult != nil {
				s.OnResult(e)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Suite) runOne(ctx context.Context, b Benchmark) (Entry, error) {
	if s.Reuse && s.Store != nil {
		prev, ok, err := s.Store.Get(b)
		if err != nil {
			return Entry{}, err
		}
		if ok && prev.Result.OK() {
			log.Debugf("reusing stored result for %s", b)
			return prev, nil
		}
	}

	log.Infof("running benchmark %s", b)
	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	res := s.Runner.Run(runCtx, b)
	if res.Failure == Timeout && ctx.Err() != nil {
		return Entry{}, ctx.Err()
	}
	e := Entry{ID: uuid.New(), Benchmark: b, Result: res, Finished: time.Now()}
	if !res.OK() {
		log.Warningf("benchmark %s: %s %s", b, res.Failure, res.Message)
	}
	if s.Store != nil {
		if err := s.Store.Put(e); err != nil {
			return Entry{}, fmt.Errorf("storing %s: %w", b, err)
		}
	}
	return e, nil
}
