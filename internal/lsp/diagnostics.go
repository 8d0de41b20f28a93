package lsp

import (
	stderrors "errors"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/CapZTr/lime/internal/errors"
)

// Diagnostics converts a netlist parse error into editor diagnostics. A nil
// error clears the document's diagnostics.
func Diagnostics(text string, err error) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	if err == nil {
		return diagnostics
	}

	var ce errors.CompilerError
	if !stderrors.As(err, &ce) {
		return append(diagnostics, protocol.Diagnostic{
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("lime"),
			Message:  err.Error(),
		})
	}

	line := uint32(max(ce.Position.Line-1, 0))
	start := uint32(max(ce.Position.Column-1, 0))
	length := ce.Length
	if length == 0 {
		length = wordLength(text, ce.Position.Line, ce.Position.Column)
	}

	message := ce.Message
	for _, s := range ce.Suggestions {
		message += "\n" + s.Message
	}
	if ce.HelpText != "" {
		message += "\n" + ce.HelpText
	}

	severity := protocol.DiagnosticSeverityError
	if ce.Level == errors.Warning {
		severity = protocol.DiagnosticSeverityWarning
	}

	return append(diagnostics, protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: start},
			End:   protocol.Position{Line: line, Character: start + uint32(length)},
		},
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: ce.Code},
		Source:   ptrString("lime"),
		Message:  message,
	})
}

// wordLength measures the word starting at the 1-based line and column, or
// 1 when there is none.
func wordLength(text string, line, column int) int {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) || column < 1 || column > len(lines[line-1]) {
		return 1
	}
	rest := lines[line-1][column-1:]
	if end := strings.IndexAny(rest, " \t\r,="); end > 0 {
		return end
	} else if end < 0 {
		return len(rest)
	}
	return 1
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}
