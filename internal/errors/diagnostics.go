package errors

import (
	"fmt"
	"strings"
)

// DiagnosticBuilder provides a fluent interface for creating diagnostics
type DiagnosticBuilder struct {
	err CompilerError
}

// NewError creates an error builder
func NewError(code, message string, pos Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1}}
}

// NewWarning creates a warning builder
func NewWarning(code, message string, pos Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{err: CompilerError{Level: Warning, Code: code, Message: message, Position: pos, Length: 1}}
}

// WithLength sets the length of the marked span
func (b *DiagnosticBuilder) WithLength(length int) *DiagnosticBuilder {
	b.err.Length = length
	return b
}

// WithSuggestion adds a suggestion
func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithReplacement adds a suggestion with replacement text
func (b *DiagnosticBuilder) WithReplacement(message, replacement string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message, Replacement: replacement})
	return b
}

// WithNote adds a note
func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp sets the help text
func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed diagnostic
func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// UnknownToken reports a command line or configuration token outside the
// allowed set. what names the argument, such as "architecture".
func UnknownToken(code, what, token string, allowed []string) CompilerError {
	builder := NewError(code, fmt.Sprintf("invalid %s '%s'", what, token), Position{})
	if similar := findSimilarNames(token, allowed); len(similar) > 0 {
		builder = builder.WithSuggestion(didYouMean(similar))
	}
	return builder.WithNote(fmt.Sprintf("expected one of: %s", strings.Join(allowed, ", "))).Build()
}

// InvalidNumber reports an argument that is not an unsigned integer
func InvalidNumber(what, value string) CompilerError {
	return NewError(ErrorInvalidNumber, fmt.Sprintf("invalid %s '%s'", what, value), Position{}).
		WithHelp(fmt.Sprintf("%s must be an unsigned integer", what)).
		Build()
}

// ArgumentCount reports a wrong number of positional arguments
func ArgumentCount(usage string, got int) CompilerError {
	return NewError(ErrorArgumentCount, fmt.Sprintf("expected %d arguments, got %d", len(strings.Fields(usage)), got), Position{}).
		WithNote("usage: " + usage).
		Build()
}

// InvalidConfig reports a configuration file that cannot be used
func InvalidConfig(path string, cause error) CompilerError {
	return NewError(ErrorInvalidConfig, fmt.Sprintf("invalid configuration: %s", cause), Position{Filename: path}).Build()
}

// NetlistSyntax reports a parse error at pos
func NetlistSyntax(message string, pos Position) CompilerError {
	return NewError(ErrorNetlistSyntax, message, pos).
		WithHelp("statements are 'input a b', '<gate> name = operands' and 'output name = operand'").
		Build()
}

// UndefinedSignal reports a use of a name that was not defined before
func UndefinedSignal(name string, pos Position, defined []string) CompilerError {
	builder := NewError(ErrorUndefinedSignal, fmt.Sprintf("undefined signal '%s'", name), pos).
		WithLength(len(name))
	if similar := findSimilarNames(name, defined); len(similar) > 0 {
		builder = builder.WithSuggestion(didYouMean(similar))
	} else {
		builder = builder.WithSuggestion("declare it with 'input' or define it with a gate before this line")
	}
	return builder.WithNote("netlists are combinational: every operand must be defined earlier").Build()
}

// DuplicateSignal reports a second definition of name
func DuplicateSignal(name string, pos Position, first Position) CompilerError {
	return NewError(ErrorDuplicateSignal, fmt.Sprintf("signal '%s' is defined more than once", name), pos).
		WithLength(len(name)).
		WithNote(fmt.Sprintf("first defined at %s", first)).
		Build()
}

// DuplicateOutput reports a second output declared under name
func DuplicateOutput(name string, pos Position, first Position) CompilerError {
	return NewError(ErrorDuplicateSignal, fmt.Sprintf("output '%s' is declared more than once", name), pos).
		WithLength(len(name)).
		WithNote(fmt.Sprintf("first declared at %s", first)).
		Build()
}

// GateArity reports a gate with the wrong number of operands
func GateArity(gate string, want, got int, pos Position) CompilerError {
	return NewError(ErrorGateArity, fmt.Sprintf("'%s' takes %d operands, got %d", gate, want, got), pos).
		WithLength(len(gate)).
		Build()
}

// UnknownGate reports a gate operator outside the netlist vocabulary
func UnknownGate(op string, pos Position, known []string) CompilerError {
	builder := NewError(ErrorNetlistSyntax, fmt.Sprintf("unknown gate '%s'", op), pos).WithLength(len(op))
	if similar := findSimilarNames(op, known); len(similar) > 0 {
		builder = builder.WithSuggestion(didYouMean(similar))
	}
	return builder.WithNote(fmt.Sprintf("gates: %s", strings.Join(known, ", "))).Build()
}

// NoOutputs reports a netlist that declares no outputs
func NoOutputs(filename string) CompilerError {
	return NewError(ErrorNoOutputs, "netlist declares no outputs", Position{Filename: filename}).
		WithSuggestion("add a line such as 'output f = g1'").
		Build()
}

// UnreadableBenchmark reports a benchmark that cannot be loaded
func UnreadableBenchmark(id string, cause error, builtins []string) CompilerError {
	builder := NewError(ErrorUnreadableBenchmark, fmt.Sprintf("cannot load benchmark '%s': %s", id, cause), Position{})
	if similar := findSimilarNames(id, builtins); len(similar) > 0 {
		builder = builder.WithSuggestion(didYouMean(similar))
	}
	return builder.WithNote(fmt.Sprintf("built-in benchmarks: %s; anything else is read as a netlist file", strings.Join(builtins, ", "))).Build()
}

// ResultStore reports a result store failure
func ResultStore(path string, cause error) CompilerError {
	return NewError(ErrorResultStore, fmt.Sprintf("result store %s: %s", path, cause), Position{}).Build()
}

// BackendFailure reports an error returned by a backend session
func BackendFailure(cause error) CompilerError {
	return NewError(ErrorBackendFailure, cause.Error(), Position{}).Build()
}

// BackendUnavailable reports a backend process that could not be started
func BackendUnavailable(command string, cause error) CompilerError {
	return NewError(ErrorBackendUnavailable, fmt.Sprintf("cannot start backend '%s': %s", command, cause), Position{}).
		WithHelp("omit --backend to use the built-in reference backend").
		Build()
}

// ValidationFailed warns that the backend could not validate its program
func ValidationFailed(benchmark string) CompilerError {
	return NewWarning(WarningValidationFailed, fmt.Sprintf("program for '%s' failed validation", benchmark), Position{}).Build()
}

func didYouMean(similar []string) string {
	if len(similar) == 1 {
		return fmt.Sprintf("did you mean '%s'?", similar[0])
	}
	return fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similar, "', '"))
}

func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		d := levenshteinDistance(strings.ToLower(target), strings.ToLower(candidate))
		if d <= 2 && d < len(candidate) || strings.HasPrefix(candidate, target) && target != "" {
			similar = append(similar, candidate)
		}
	}
	return similar
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
