package bench

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/CapZTr/lime/internal/backend"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	bestStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
)

// Group is a column group of a report: one compiler configuration applied
// to every benchmark of an architecture.
type Group struct {
	Title              string
	Mode               backend.CompilationMode
	CandidateSelection backend.CandidateSelection
	Rewriting          backend.RewritingStrategy
	SizeFactor         uint64
}

func (g Group) benchmark(id string, arch backend.Architecture) Benchmark {
	return Benchmark{
		Benchmark:          id,
		Architecture:       arch,
		Mode:               g.Mode,
		CandidateSelection: g.CandidateSelection,
		Rewriting:          g.Rewriting,
		SizeFactor:         g.SizeFactor,
	}
}

// Index maps benchmark configurations to their results.
type Index map[Benchmark]Result

// NewIndex indexes entries. Later entries win.
func NewIndex(entries []Entry) Index {
	idx := make(Index, len(entries))
	for _, e := range entries {
		idx[e.Benchmark] = e.Result
	}
	return idx
}

// Metric is one column of a group.
type Metric struct {
	Title string
	// Highlight marks the smallest value of a row.
	Highlight bool
	Value     func(b Benchmark, r Result, idx Index) (float64, bool)
	Format    func(v float64) string
}

func formatFloat(v float64) string { return fmt.Sprintf("%g", math.Round(v*10)/10) }
func formatInt(v float64) string   { return fmt.Sprintf("%d", int64(v)) }
func formatTime(v float64) string  { return fmt.Sprintf("%.1fs", v) }
func formatPct(v float64) string   { return fmt.Sprintf("%.1f%%", v) }

func recordMetric(title string, format func(float64) string, get func(*Record) float64) Metric {
	return Metric{
		Title:     title,
		Highlight: true,
		Format:    format,
		Value: func(_ Benchmark, r Result, _ Index) (float64, bool) {
			if !r.OK() {
				return 0, false
			}
			return get(r.Record), true
		},
	}
}

// CostMetric is the program cost.
func CostMetric() Metric {
	return recordMetric("cost", formatFloat, func(r *Record) float64 { return r.Cost })
}

// CellsMetric is the number of cells the program uses.
func CellsMetric() Metric {
	return recordMetric("#C", formatInt, func(r *Record) float64 { return float64(r.NumCells) })
}

// InstructionsMetric is the number of instructions of the program.
func InstructionsMetric() Metric {
	return recordMetric("#I", formatInt, func(r *Record) float64 { return float64(r.NumInstr) })
}

// TimeMetric is the wall time of the whole run in seconds.
func TimeMetric() Metric {
	return Metric{
		Title:  "t",
		Format: formatTime,
		Value: func(_ Benchmark, r Result, _ Index) (float64, bool) {
			return r.Total.Seconds(), r.OK()
		},
	}
}

// Improvement reports m relative to the same benchmark compiled with the
// base group, in percent of the base value.
func Improvement(m Metric, base Group) Metric {
	return Metric{
		Title:  "impr.",
		Format: formatPct,
		Value: func(b Benchmark, r Result, idx Index) (float64, bool) {
			v, ok := m.Value(b, r, idx)
			if !ok {
				return 0, false
			}
			other := base.benchmark(b.Benchmark, b.Architecture)
			ov, ok := m.Value(other, idx[other], idx)
			if !ok || ov == 0 {
				return 0, false
			}
			return (ov - v) / ov * 100, true
		},
	}
}

// CodegenGroups compare compilation modes and candidate selections.
func CodegenGroups() []Group {
	var groups []Group
	for _, mode := range []backend.CompilationMode{backend.ModeGreedy, backend.ModeExhaustive} {
		for _, cand := range []backend.CandidateSelection{backend.CandidatesAll, backend.CandidatesGraphCompiler} {
			groups = append(groups, Group{
				Title:              mode.String() + " / " + cand.String(),
				Mode:               mode,
				CandidateSelection: cand,
				Rewriting:          backend.RewritingNone,
			})
		}
	}
	return groups
}

// RewritingGroups compare the rewriting strategies.
func RewritingGroups() []Group {
	var groups []Group
	for _, rw := range []backend.RewritingStrategy{backend.RewritingCompiling, backend.RewritingLP, backend.RewritingGreedy} {
		groups = append(groups, Group{
			Title:              "rewriting " + rw.String(),
			Mode:               backend.ModeGreedy,
			CandidateSelection: backend.CandidatesAll,
			Rewriting:          rw,
			SizeFactor:         100,
		})
	}
	return groups
}

// rewritingBase is the configuration rewriting improvements are measured
// against.
var rewritingBase = Group{Mode: backend.ModeGreedy, CandidateSelection: backend.CandidatesAll, Rewriting: backend.RewritingNone}

// CodegenReport renders the code generation comparison.
func CodegenReport(idx Index, ids []string) string {
	return Render(idx, Architectures, ids, CodegenGroups(), []Metric{CostMetric(), CellsMetric(), TimeMetric()})
}

// RewritingReport renders the rewriting comparison.
func RewritingReport(idx Index, ids []string) string {
	metrics := []Metric{CostMetric(), Improvement(CostMetric(), rewritingBase), TimeMetric()}
	return Render(idx, Architectures, ids, RewritingGroups(), metrics)
}

func failureCell(r Result, present bool) string {
	switch {
	case !present:
		return "-"
	case r.Failure == Timeout:
		return "timeout"
	case r.Failure == Infeasible:
		return "infeasible"
	case r.OK() && !r.Record.ValidationSuccess:
		return "invalid"
	default:
		return "error"
	}
}

// Render prints one table per architecture with a row per benchmark and a
// column group per compiler configuration.
func Render(idx Index, archs []backend.Architecture, ids []string, groups []Group, metrics []Metric) string {
	var sb strings.Builder
	for _, arch := range archs {
		headers := []string{"benchmark", "|N|"}
		for _, g := range groups {
			for _, m := range metrics {
				headers = append(headers, g.Title+" "+m.Title)
			}
		}

		var rows [][]string
		for _, id := range ids {
			rows = append(rows, renderRow(idx, arch, id, groups, metrics))
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(borderStyle).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col > 1 {
					return cellStyle.Align(lipgloss.Right)
				}
				return cellStyle
			})
		sb.WriteString(titleStyle.Render(arch.String()))
		sb.WriteString("\n")
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderRow(idx Index, arch backend.Architecture, id string, groups []Group, metrics []Metric) []string {
	row := []string{id, "-"}
	for _, g := range groups {
		if r, ok := idx[g.benchmark(id, arch)]; ok && r.OK() {
			rec := r.Record
			row[0] = fmt.Sprintf("%s (%d/%d)", g.benchmark(id, arch).Name(), rec.Inputs, rec.Outputs)
			row[1] = fmt.Sprintf("%d", rec.Size)
			break
		}
	}

	best := make([]float64, len(metrics))
	for i, m := range metrics {
		best[i] = math.Inf(1)
		for _, g := range groups {
			b := g.benchmark(id, arch)
			r := idx[b]
			if !r.OK() || !r.Record.ValidationSuccess {
				continue
			}
			if v, ok := m.Value(b, r, idx); ok && v < best[i] {
				best[i] = v
			}
		}
	}

	for _, g := range groups {
		b := g.benchmark(id, arch)
		r, present := idx[b]
		if !r.OK() || !r.Record.ValidationSuccess {
			cell := failureCell(r, present)
			for range metrics {
				row = append(row, cell)
			}
			continue
		}
		for i, m := range metrics {
			v, ok := m.Value(b, r, idx)
			switch {
			case !ok:
				row = append(row, "-")
			case m.Highlight && v <= best[i]:
				row = append(row, bestStyle.Render(m.Format(v)))
			default:
				row = append(row, m.Format(v))
			}
		}
	}
	return row
}
