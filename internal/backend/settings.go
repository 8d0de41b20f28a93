package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CapZTr/lime/internal/network"
)

var (
	ErrUnknownArchitecture       = errors.New("unknown architecture")
	ErrUnknownMode               = errors.New("unknown compilation mode")
	ErrUnknownCandidateSelection = errors.New("unknown candidate selection")
	ErrUnknownRewriting          = errors.New("unknown rewriting strategy")
)

// Architecture is a compilation target.
type Architecture uint8

const (
	Ambit Architecture = iota
	SIMDRAM
	Imply
	Felix
	PLiM
)

var architectureNames = []string{"ambit", "simdram", "imply", "felix", "plim"}

// ArchitectureNames lists the accepted architecture tokens.
func ArchitectureNames() []string { return append([]string(nil), architectureNames...) }

func (a Architecture) String() string { return enumName(architectureNames, int(a), "architecture") }

// Technology returns the network technology the architecture computes on.
func (a Architecture) Technology() network.Technology {
	switch a {
	case Imply:
		return network.AIG
	case Felix:
		return network.XAG
	default:
		return network.MIG
	}
}

// ParseArchitecture decodes an architecture token such as "plim".
func ParseArchitecture(s string) (Architecture, error) {
	i, err := parseEnum(architectureNames, s, ErrUnknownArchitecture)
	return Architecture(i), err
}

func (a *Architecture) UnmarshalText(text []byte) error {
	v, err := ParseArchitecture(string(text))
	*a = v
	return err
}

func (a Architecture) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// CompilationMode selects how the backend searches for a program.
type CompilationMode uint8

const (
	ModeGreedy CompilationMode = iota
	ModeExhaustive
)

var modeNames = []string{"greedy", "exhaustive"}

// ModeNames lists the accepted mode tokens.
func ModeNames() []string { return append([]string(nil), modeNames...) }

func (m CompilationMode) String() string { return enumName(modeNames, int(m), "mode") }

// ParseMode decodes a mode token.
func ParseMode(s string) (CompilationMode, error) {
	i, err := parseEnum(modeNames, s, ErrUnknownMode)
	return CompilationMode(i), err
}

func (m *CompilationMode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	*m = v
	return err
}

func (m CompilationMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// CandidateSelection selects which candidates the compiler considers.
type CandidateSelection uint8

const (
	CandidatesAll CandidateSelection = iota
	// CandidatesGraphCompiler follows the order of the majority graph
	// compiler.
	CandidatesGraphCompiler
)

var candidateNames = []string{"all", "plim_compiler"}

// CandidateSelectionNames lists the accepted candidate selection tokens.
func CandidateSelectionNames() []string { return append([]string(nil), candidateNames...) }

func (c CandidateSelection) String() string {
	return enumName(candidateNames, int(c), "candidate selection")
}

// ParseCandidateSelection decodes a candidate selection token.
func ParseCandidateSelection(s string) (CandidateSelection, error) {
	i, err := parseEnum(candidateNames, s, ErrUnknownCandidateSelection)
	return CandidateSelection(i), err
}

func (c *CandidateSelection) UnmarshalText(text []byte) error {
	v, err := ParseCandidateSelection(string(text))
	*c = v
	return err
}

func (c CandidateSelection) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// RewritingStrategy selects how the backend rewrites the network before
// compiling it.
type RewritingStrategy uint8

const (
	RewritingNone RewritingStrategy = iota
	RewritingLP
	RewritingCompiling
	RewritingCompilingMemUsage
	RewritingGreedy
)

var rewritingNames = []string{"none", "lp", "compiling", "compiling_memusage", "greedy"}

// RewritingNames lists the accepted rewriting tokens.
func RewritingNames() []string { return append([]string(nil), rewritingNames...) }

func (r RewritingStrategy) String() string { return enumName(rewritingNames, int(r), "rewriting") }

// ParseRewriting decodes a rewriting token.
func ParseRewriting(s string) (RewritingStrategy, error) {
	i, err := parseEnum(rewritingNames, s, ErrUnknownRewriting)
	return RewritingStrategy(i), err
}

func (r *RewritingStrategy) UnmarshalText(text []byte) error {
	v, err := ParseRewriting(string(text))
	*r = v
	return err
}

func (r RewritingStrategy) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func enumName(names []string, i int, what string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", what, i)
}

func parseEnum(names []string, s string, sentinel error) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w %q", sentinel, s)
}

// Settings configure one compilation session. Preoptimize is consumed by the
// session and Validator is a local capability; neither travels to the
// backend as data.
type Settings struct {
	Architecture       Architecture       `msgpack:"architecture" toml:"architecture"`
	PrintProgram       bool               `msgpack:"print_program" toml:"print_program"`
	Verbose            bool               `msgpack:"verbose" toml:"verbose"`
	Preoptimize        bool               `msgpack:"-" toml:"preoptimize"`
	Rewrite            bool               `msgpack:"rewrite" toml:"rewrite"`
	Rewriting          RewritingStrategy  `msgpack:"rewriting" toml:"rewriting"`
	SizeFactor         uint64             `msgpack:"size_factor" toml:"size_factor"`
	Mode               CompilationMode    `msgpack:"mode" toml:"mode"`
	CandidateSelection CandidateSelection `msgpack:"candidate_selection" toml:"candidate_selection"`
	Validator          Validator          `msgpack:"-" toml:"-"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Architecture:       Ambit,
		Preoptimize:        true,
		Rewrite:            true,
		Rewriting:          RewritingNone,
		Mode:               ModeGreedy,
		CandidateSelection: CandidatesAll,
	}
}
