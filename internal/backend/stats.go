package backend

import (
	"fmt"
	"strings"
	"time"
)

// RewritingStatistics describe the rewriting phase of the generic pipeline.
type RewritingStatistics struct {
	TRunner       time.Duration `msgpack:"t_runner"`
	NodesPreTrim  uint64        `msgpack:"n_nodes_pre_trim"`
	TTrim         time.Duration `msgpack:"t_trim"`
	NodesPostTrim uint64        `msgpack:"n_nodes_post_trim"`
	TExtractor    time.Duration `msgpack:"t_extractor"`
	RebuiltCost   float64       `msgpack:"rebuilt_ntk_cost"`
}

// Statistics is the record a backend returns for one session.
type Statistics struct {
	EGraphClasses    uint64        `msgpack:"egraph_classes"`
	EGraphNodes      uint64        `msgpack:"egraph_nodes"`
	EGraphSize       uint64        `msgpack:"egraph_size"`
	InstructionCount uint64        `msgpack:"instruction_count"`
	TRunner          time.Duration `msgpack:"t_runner"`
	TExtractor       time.Duration `msgpack:"t_extractor"`
	TCompiler        time.Duration `msgpack:"t_compiler"`

	Rewrite           RewritingStatistics `msgpack:"rewrite"`
	NetworkSize       uint64              `msgpack:"ntk_size"`
	TCompile          time.Duration       `msgpack:"t_compile"`
	Cost              float64             `msgpack:"cost"`
	NumCells          uint64              `msgpack:"num_cells"`
	NumInstr          uint64              `msgpack:"num_instr"`
	ValidationSuccess bool                `msgpack:"validation_success"`

	// Program is owned by the backend until a session moves it into a
	// ProgramString and clears this field.
	Program *ProgramBuffer `msgpack:"-"`
}

func (s *Statistics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "instructions: %d\n", s.InstructionCount)
	fmt.Fprintf(&b, "e-graph: %d classes, %d nodes, size %d\n", s.EGraphClasses, s.EGraphNodes, s.EGraphSize)
	fmt.Fprintf(&b, "runner: %s, extractor: %s, compiler: %s\n", s.TRunner, s.TExtractor, s.TCompiler)
	fmt.Fprintf(&b, "network size: %d, cost: %g, cells: %d, validated: %t", s.NetworkSize, s.Cost, s.NumCells, s.ValidationSuccess)
	return b.String()
}
