// Package reference implements an in-process backend. It rebuilds the
// streamed network, optionally rewrites it with the strategy selected in the
// settings, and emits one instruction per gate for the target architecture.
package reference

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/tliron/commonlog"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/rewrite"
)

var log = commonlog.GetLogger("lime.backend.reference")

// ErrIncompleteNetwork is returned when a session finishes before the
// network outputs were streamed.
var ErrIncompleteNetwork = errors.New("network stream has no outputs")

// Backend is the reference backend. Program buffers it returns must be
// released through ReleaseProgram; Outstanding reports the ones that were
// not.
type Backend struct {
	backend.ProgramArena
}

// New returns a reference backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Open(tech network.Technology, settings backend.Settings, out network.Receiver) (backend.Sink, error) {
	return &session{
		Builder:  network.NewBuilder(tech),
		backend:  b,
		settings: settings,
		out:      out,
	}, nil
}

type session struct {
	*network.Builder

	backend  *Backend
	settings backend.Settings
	out      network.Receiver
}

func (s *session) Finish() (*backend.Statistics, error) {
	if !s.Finished() {
		return nil, ErrIncompleteNetwork
	}
	ntk := s.Network()
	st := &backend.Statistics{}

	start := time.Now()
	if s.settings.Rewrite {
		ntk, st.Rewrite = rewriteNetwork(ntk, s.settings)
	}
	st.TRunner = time.Since(start)
	st.EGraphClasses = count(ntk.NumGates())
	st.EGraphNodes = count(s.Network().NumGates())
	st.EGraphSize = count(ntk.Size())

	start = time.Now()
	prog := emit(s.settings.Architecture, ntk)
	st.TExtractor = time.Since(start)
	st.Rewrite.TExtractor = st.TExtractor
	st.Rewrite.RebuiltCost = prog.cost

	start = time.Now()
	st.ValidationSuccess = true
	if s.settings.Validator != nil {
		st.ValidationSuccess = s.settings.Validator.Validate(ntk)
	}
	st.TCompiler = time.Since(start)
	st.TCompile = st.TExtractor + st.TCompiler

	st.InstructionCount = count(len(prog.instructions))
	st.NumInstr = st.InstructionCount
	st.NumCells = count(ntk.NumInputs() + ntk.NumGates())
	st.NetworkSize = count(ntk.Size())
	st.Cost = prog.cost

	text := prog.String()
	if s.settings.PrintProgram {
		log.Infof("program:\n%s", text)
	}
	if s.settings.Verbose {
		log.Infof("compiled %d nodes into %d instructions (cost %g)", ntk.Size(), st.InstructionCount, st.Cost)
	}
	st.Program = s.backend.Alloc(text)

	if s.out != nil {
		network.Send(ntk, s.out)
	}
	return st, nil
}

// rewriteNetwork applies the passes of the rewriting strategy followed by a
// trim of dangling nodes.
func rewriteNetwork(ntk *network.Network, settings backend.Settings) (*network.Network, backend.RewritingStatistics) {
	var rs backend.RewritingStatistics
	start := time.Now()
	for _, p := range strategyPasses(ntk.Technology(), settings) {
		var st rewrite.Stats
		ntk = rewrite.Run(p, ntk, &st)
	}
	rs.TRunner = time.Since(start)
	rs.NodesPreTrim = count(ntk.Size())

	start = time.Now()
	ntk = network.Cleanup(ntk)
	rs.TTrim = time.Since(start)
	rs.NodesPostTrim = count(ntk.Size())
	return ntk, rs
}

func strategyPasses(tech network.Technology, settings backend.Settings) []rewrite.Pass {
	limit := 8
	if settings.SizeFactor > 0 {
		limit = int(min(settings.SizeFactor, 64)) * 4
	}
	cuts := &rewrite.CutRewriting{CutSize: 4, CutLimit: limit}
	resub := rewrite.NewResubstitution("resubstitution", rewrite.ResubOptions{
		MaxLeaves:   8,
		MaxDivisors: 50,
		MaxInserts:  1,
		Majority:    tech == network.MIG,
		Xor:         tech == network.XAG,
	})
	switch settings.Rewriting {
	case backend.RewritingGreedy:
		return []rewrite.Pass{cuts}
	case backend.RewritingLP:
		return []rewrite.Pass{resub}
	case backend.RewritingCompiling, backend.RewritingCompilingMemUsage:
		return []rewrite.Pass{resub, cuts, rewrite.DefaultFunctionalReduction()}
	default:
		return nil
	}
}

func count(n int) uint64 {
	v, err := safecast.Conv[uint64](n)
	if err != nil {
		panic(fmt.Errorf("statistics counter overflow: %w", err))
	}
	return v
}

type program struct {
	header       string
	instructions []string
	outputs      []string
	cost         float64
}

func (p *program) String() string {
	var b strings.Builder
	b.WriteString(p.header)
	b.WriteByte('\n')
	for _, in := range p.instructions {
		b.WriteString(in)
		b.WriteByte('\n')
	}
	for _, out := range p.outputs {
		b.WriteString(out)
		b.WriteByte('\n')
	}
	return b.String()
}

var mnemonics = map[backend.Architecture]map[network.Kind]string{
	backend.Ambit:   {network.KindMaj: "tra", network.KindAnd: "and", network.KindXor: "xor"},
	backend.SIMDRAM: {network.KindMaj: "maj", network.KindAnd: "and", network.KindXor: "xor"},
	backend.PLiM:    {network.KindMaj: "rm3", network.KindAnd: "rm3", network.KindXor: "rm3x"},
	backend.Imply:   {network.KindMaj: "imaj", network.KindAnd: "imp", network.KindXor: "impx"},
	backend.Felix:   {network.KindMaj: "fmaj", network.KindAnd: "fand", network.KindXor: "fxor"},
}

// emit writes one instruction per gate. A complemented operand adds half a
// step to the cost, except on PLiM where the operation inverts for free.
func emit(arch backend.Architecture, ntk *network.Network) *program {
	p := &program{
		header: fmt.Sprintf("; %s program: %d inputs, %d outputs", arch, ntk.NumInputs(), ntk.NumOutputs()),
	}
	names := mnemonics[arch]
	ntk.ForEachGate(func(id network.NodeID) {
		ops := make([]string, 0, 3)
		for _, f := range ntk.Fanins(id) {
			ops = append(ops, operand(f))
			if f.IsComplemented() && f.Node() != 0 && arch != backend.PLiM {
				p.cost += 0.5
			}
		}
		p.instructions = append(p.instructions,
			fmt.Sprintf("r%d = %s %s", id, names[ntk.Kind(id)], strings.Join(ops, ", ")))
		p.cost++
	})
	for i, o := range ntk.Outputs() {
		p.outputs = append(p.outputs, fmt.Sprintf("out%d = %s", i, operand(o)))
	}
	return p
}

func operand(s network.Signal) string {
	switch s {
	case network.False:
		return "0"
	case network.True:
		return "1"
	}
	name := fmt.Sprintf("r%d", s.Node())
	if s.IsComplemented() {
		return "!" + name
	}
	return name
}
