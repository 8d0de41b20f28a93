// Package bench drives compilation benchmarks: it decodes benchmark
// configurations, runs them in process or as lime-bench processes, stores
// the results and renders comparison tables.
package bench

import (
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/errors"
)

var log = commonlog.GetLogger("lime.bench")

// Usage lists the positional arguments of a benchmark run.
const Usage = "<benchmark> <arch> <mode> <candidate-selection> <rewriting> <size-factor>"

// Benchmark identifies one benchmark configuration. It is comparable and
// used as a map key.
type Benchmark struct {
	Benchmark          string                     `msgpack:"benchmark"`
	Architecture       backend.Architecture       `msgpack:"arch"`
	Mode               backend.CompilationMode    `msgpack:"mode"`
	CandidateSelection backend.CandidateSelection `msgpack:"candidate_selection"`
	Rewriting          backend.RewritingStrategy  `msgpack:"rewriting"`
	SizeFactor         uint64                     `msgpack:"size_factor"`
}

// ParseArgs decodes the six positional arguments. Errors are
// errors.CompilerError values naming the offending argument.
func ParseArgs(args []string) (Benchmark, error) {
	if len(args) != 6 {
		return Benchmark{}, errors.ArgumentCount(Usage, len(args))
	}
	b := Benchmark{Benchmark: args[0]}
	var err error
	if b.Architecture, err = backend.ParseArchitecture(args[1]); err != nil {
		return Benchmark{}, errors.UnknownToken(errors.ErrorUnknownArchitecture, "architecture", args[1], backend.ArchitectureNames())
	}
	if b.Mode, err = backend.ParseMode(args[2]); err != nil {
		return Benchmark{}, errors.UnknownToken(errors.ErrorUnknownMode, "mode", args[2], backend.ModeNames())
	}
	if b.CandidateSelection, err = backend.ParseCandidateSelection(args[3]); err != nil {
		return Benchmark{}, errors.UnknownToken(errors.ErrorUnknownCandidateSelection, "candidate selection strategy", args[3], backend.CandidateSelectionNames())
	}
	if b.Rewriting, err = backend.ParseRewriting(args[4]); err != nil {
		return Benchmark{}, errors.UnknownToken(errors.ErrorUnknownRewriting, "rewriting strategy", args[4], backend.RewritingNames())
	}
	if b.SizeFactor, err = strconv.ParseUint(args[5], 10, 64); err != nil {
		return Benchmark{}, errors.InvalidNumber("rewriting size factor", args[5])
	}
	return b, nil
}

// Args returns the positional arguments that ParseArgs decodes into b.
func (b Benchmark) Args() []string {
	return []string{
		b.Benchmark,
		b.Architecture.String(),
		b.Mode.String(),
		b.CandidateSelection.String(),
		b.Rewriting.String(),
		strconv.FormatUint(b.SizeFactor, 10),
	}
}

func (b Benchmark) String() string {
	return strings.Join(b.Args(), " ")
}

// Settings returns the compiler settings of b. Preoptimization is left to
// the benchmark run so it can be timed on its own.
func (b Benchmark) Settings() backend.Settings {
	s := backend.DefaultSettings()
	s.Architecture = b.Architecture
	s.Mode = b.Mode
	s.CandidateSelection = b.CandidateSelection
	s.Rewriting = b.Rewriting
	s.SizeFactor = b.SizeFactor
	s.Preoptimize = false
	return s
}

// Name strips a directory and an extension from the benchmark id.
func (b Benchmark) Name() string {
	name := b.Benchmark
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
