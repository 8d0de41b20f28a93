package bench

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/errors"
	"github.com/CapZTr/lime/internal/netlist"
	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/internal/optimize"
	"github.com/CapZTr/lime/internal/session"
)

// ErrNoResults is returned by ParseResults when the output has no RESULTS
// line.
var ErrNoResults = stderrors.New("no RESULTS line")

const resultsTag = "RESULTS"

// Record is what one benchmark run reports.
type Record struct {
	TPreopt           time.Duration               `msgpack:"t_preopt"`
	Size              uint64                      `msgpack:"n_nodes"`
	Inputs            uint64                      `msgpack:"n_inputs"`
	Outputs           uint64                      `msgpack:"n_outputs"`
	Rewrite           backend.RewritingStatistics `msgpack:"rewrite"`
	NetworkSize       uint64                      `msgpack:"ntk_size"`
	TCompile          time.Duration               `msgpack:"t_compile"`
	Cost              float64                     `msgpack:"cost"`
	NumCells          uint64                      `msgpack:"num_cells"`
	NumInstr          uint64                      `msgpack:"num_instr"`
	ValidationSuccess bool                        `msgpack:"validation_success"`
}

func count(n int) uint64 {
	v, err := safecast.Conv[uint64](n)
	if err != nil {
		panic(err)
	}
	return v
}

// Load returns the built-in benchmark id or reads it as a netlist file.
// Netlist diagnostics are returned as they are; other failures become an
// unreadable benchmark diagnostic.
func Load(id string, tech network.Technology) (*netlist.Design, error) {
	d, err := netlist.Get(id, tech)
	if err != nil {
		var ce errors.CompilerError
		if stderrors.As(err, &ce) {
			return nil, ce
		}
		return nil, errors.UnreadableBenchmark(id, err, netlist.BuiltinNames())
	}
	return d, nil
}

// Run loads b, preoptimizes it, and compiles it on be with a validator
// built from the preoptimized network. Progress lines go to progress.
func Run(b Benchmark, be backend.Backend, opts optimize.Options, progress io.Writer) (*Record, error) {
	tech := b.Architecture.Technology()
	d, err := Load(b.Benchmark, tech)
	if err != nil {
		return nil, err
	}
	ntk := d.Network

	start := time.Now()
	optimize.New(tech, opts).Run(ntk)
	rec := &Record{TPreopt: time.Since(start)}
	fmt.Fprintln(progress, "preoptimize done")

	settings := b.Settings()
	settings.Validator = session.NewValidator(ntk)
	res, err := session.New(be, settings).Compile(ntk)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	fmt.Fprintln(progress, "done")

	st := res.Stats
	rec.Size = count(ntk.Size())
	rec.Inputs = count(ntk.NumInputs())
	rec.Outputs = count(ntk.NumOutputs())
	rec.Rewrite = st.Rewrite
	rec.NetworkSize = st.NetworkSize
	rec.TCompile = st.TCompile
	rec.Cost = st.Cost
	rec.NumCells = st.NumCells
	rec.NumInstr = st.NumInstr
	rec.ValidationSuccess = st.ValidationSuccess
	return rec, nil
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func float(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatResults renders r as a tab separated RESULTS line. Durations are in
// milliseconds.
func FormatResults(r *Record) string {
	validation := "0"
	if r.ValidationSuccess {
		validation = "1"
	}
	fields := []string{
		resultsTag,
		millis(r.TPreopt),
		strconv.FormatUint(r.Size, 10),
		strconv.FormatUint(r.Inputs, 10),
		strconv.FormatUint(r.Outputs, 10),
		millis(r.Rewrite.TRunner),
		strconv.FormatUint(r.Rewrite.NodesPreTrim, 10),
		millis(r.Rewrite.TTrim),
		strconv.FormatUint(r.Rewrite.NodesPostTrim, 10),
		millis(r.Rewrite.TExtractor),
		float(r.Rewrite.RebuiltCost),
		strconv.FormatUint(r.NetworkSize, 10),
		millis(r.TCompile),
		float(r.Cost),
		strconv.FormatUint(r.NumCells, 10),
		strconv.FormatUint(r.NumInstr, 10),
		validation,
	}
	return strings.Join(fields, "\t")
}

type fieldParser struct {
	fields []string
	i      int
	err    error
}

func (p *fieldParser) next() string {
	s := p.fields[p.i]
	p.i++
	return s
}

func (p *fieldParser) uint() uint64 {
	s := p.next()
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("field %d: %w", p.i, err)
	}
	return v
}

func (p *fieldParser) millis() time.Duration {
	ms, err := safecast.Conv[int64](p.uint())
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("field %d: %w", p.i, err)
	}
	return time.Duration(ms) * time.Millisecond
}

func (p *fieldParser) float() float64 {
	s := p.next()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("field %d: %w", p.i, err)
	}
	return v
}

// ParseResults finds the RESULTS line in the output of a benchmark run and
// decodes it.
func ParseResults(output string) (*Record, error) {
	var line string
	for _, l := range strings.Split(output, "\n") {
		if strings.HasPrefix(l, resultsTag) {
			line = strings.TrimRight(l, "\r")
			break
		}
	}
	if line == "" {
		return nil, ErrNoResults
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 17 {
		return nil, fmt.Errorf("RESULTS line has %d fields, want 16", len(fields)-1)
	}
	p := &fieldParser{fields: fields, i: 1}
	r := &Record{}
	r.TPreopt = p.millis()
	r.Size = p.uint()
	r.Inputs = p.uint()
	r.Outputs = p.uint()
	r.Rewrite.TRunner = p.millis()
	r.Rewrite.NodesPreTrim = p.uint()
	r.Rewrite.TTrim = p.millis()
	r.Rewrite.NodesPostTrim = p.uint()
	r.Rewrite.TExtractor = p.millis()
	r.Rewrite.RebuiltCost = p.float()
	r.NetworkSize = p.uint()
	r.TCompile = p.millis()
	r.Cost = p.float()
	r.NumCells = p.uint()
	r.NumInstr = p.uint()
	r.ValidationSuccess = p.uint() == 1
	if p.err != nil {
		return nil, fmt.Errorf("malformed RESULTS line: %w", p.err)
	}
	return r, nil
}
