package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a diagnostic
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// Position is a location in a netlist or on the command line. A zero Line
// means the diagnostic has no source location.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Line == 0 {
		return p.Filename
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// CompilerError is a structured diagnostic with suggestions and context
type CompilerError struct {
	Level       ErrorLevel
	Code        string   // Error code like E0001
	Message     string   // Primary message
	Position    Position // Location in source, if any
	Length      int      // Length of the problematic region
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

// Error renders the diagnostic on one line, without source context.
func (e CompilerError) Error() string {
	var b strings.Builder
	if e.Position.Line > 0 {
		b.WriteString(e.Position.String())
		b.WriteString(": ")
	}
	if e.Code != "" {
		fmt.Fprintf(&b, "%s[%s]: %s", e.Level, e.Code, e.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s", e.Level, e.Message)
	}
	for _, s := range e.Suggestions {
		fmt.Fprintf(&b, " (%s)", s.Message)
	}
	return b.String()
}

// Suggestion is a suggested fix
type Suggestion struct {
	Message     string
	Replacement string
}

// ErrorReporter formats diagnostics against one source text
type ErrorReporter struct {
	filename string
	lines    []string
}

// NewErrorReporter creates a reporter for a file. source may be empty for
// diagnostics about command line arguments.
func NewErrorReporter(filename, source string) *ErrorReporter {
	er := &ErrorReporter{filename: filename}
	if source != "" {
		er.lines = strings.Split(source, "\n")
	}
	return er
}

// FormatError formats a diagnostic with a source excerpt, an underline
// marker, suggestions, notes and help
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var result strings.Builder

	levelColor := er.getLevelColor(err.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if err.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n",
			levelColor(string(err.Level)), err.Code, err.Message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n",
			levelColor(string(err.Level)), err.Message))
	}

	lineNumberWidth := er.getLineNumberWidth(err.Position.Line)
	indent := strings.Repeat(" ", lineNumberWidth)

	line := err.Position.Line
	if line > 0 {
		filename := err.Position.Filename
		if filename == "" {
			filename = er.filename
		}
		result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
			indent, dim("-->"), filename, line, err.Position.Column))
	}

	if line > 0 && line <= len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		if line > 1 {
			result.WriteString(fmt.Sprintf("%s %s %s\n",
				dim(fmt.Sprintf("%*d", lineNumberWidth, line-1)), dim("│"), er.lines[line-2]))
		}
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", lineNumberWidth, line)), dim("│"), er.lines[line-1]))
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			indent, dim("│"), er.createMarker(err.Position.Column, err.Length, err.Level)))
		if line < len(er.lines) {
			result.WriteString(fmt.Sprintf("%s %s %s\n",
				dim(fmt.Sprintf("%*d", lineNumberWidth, line+1)), dim("│"), er.lines[line]))
		}
	}

	if len(err.Suggestions) > 0 {
		result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		suggestionColor := color.New(color.FgCyan).SprintFunc()
		for i, suggestion := range err.Suggestions {
			if i == 0 {
				result.WriteString(fmt.Sprintf("%s %s %s: %s\n",
					indent, suggestionColor("help"), suggestionColor("try"), suggestion.Message))
			} else {
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					indent, suggestionColor("    "), suggestion.Message))
			}
			if suggestion.Replacement != "" {
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					indent, suggestionColor("│"), suggestionColor(suggestion.Replacement)))
			}
		}
	}

	noteColor := color.New(color.FgBlue).SprintFunc()
	for _, note := range err.Notes {
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), noteColor("note:"), note))
	}

	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), helpColor("help:"), err.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

func (er *ErrorReporter) getLevelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// createMarker creates the underline marker
func (er *ErrorReporter) createMarker(column, length int, level ErrorLevel) string {
	if length <= 0 {
		length = 1
	}
	markerColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == Warning {
		markerColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return strings.Repeat(" ", max(0, column-1)) + markerColor(strings.Repeat("^", length))
}

// getLineNumberWidth calculates the width needed for line numbers
func (er *ErrorReporter) getLineNumberWidth(line int) int {
	return max(3, len(fmt.Sprintf("%d", line)))
}
