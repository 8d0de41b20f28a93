package errors

// Diagnostic codes used by the lime tools.
//
// Code ranges:
// E0001-E0099: Argument and configuration errors
// E0100-E0199: Netlist errors
// E0200-E0299: Benchmark and input errors
// E0300-E0399: Backend and transport errors
// W0001-W0099: Warnings

const (
	// E0001: Unknown target architecture
	ErrorUnknownArchitecture = "E0001"

	// E0002: Unknown compilation mode
	ErrorUnknownMode = "E0002"

	// E0003: Unknown candidate selection
	ErrorUnknownCandidateSelection = "E0003"

	// E0004: Unknown rewriting strategy
	ErrorUnknownRewriting = "E0004"

	// E0005: Malformed numeric argument
	ErrorInvalidNumber = "E0005"

	// E0006: Wrong number of arguments
	ErrorArgumentCount = "E0006"

	// E0007: Invalid configuration file
	ErrorInvalidConfig = "E0007"

	// E0008: Unknown technology
	ErrorUnknownTechnology = "E0008"

	// E0100: Netlist syntax error
	ErrorNetlistSyntax = "E0100"

	// E0101: Reference to an undefined signal
	ErrorUndefinedSignal = "E0101"

	// E0102: Signal defined twice
	ErrorDuplicateSignal = "E0102"

	// E0103: Gate with the wrong number of operands
	ErrorGateArity = "E0103"

	// E0104: Netlist without outputs
	ErrorNoOutputs = "E0104"

	// E0200: Benchmark could not be loaded
	ErrorUnreadableBenchmark = "E0200"

	// E0201: Result store could not be opened or written
	ErrorResultStore = "E0201"

	// E0300: Backend failed
	ErrorBackendFailure = "E0300"

	// E0301: Backend process could not be started
	ErrorBackendUnavailable = "E0301"

	// W0001: Backend reported a failed validation
	WarningValidationFailed = "W0001"
)

// GetErrorDescription returns a human-readable description of the code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUnknownArchitecture:
		return "Architecture is not one of the supported targets"
	case ErrorUnknownMode:
		return "Compilation mode is neither greedy nor exhaustive"
	case ErrorUnknownCandidateSelection:
		return "Candidate selection is not supported"
	case ErrorUnknownRewriting:
		return "Rewriting strategy is not supported"
	case ErrorInvalidNumber:
		return "Argument is not an unsigned integer"
	case ErrorArgumentCount:
		return "Wrong number of arguments"
	case ErrorInvalidConfig:
		return "Configuration file is invalid"
	case ErrorUnknownTechnology:
		return "Network technology is not supported"
	case ErrorNetlistSyntax:
		return "Netlist does not follow the netlist grammar"
	case ErrorUndefinedSignal:
		return "Signal is used before it is defined"
	case ErrorDuplicateSignal:
		return "Signal name is defined more than once"
	case ErrorGateArity:
		return "Gate has the wrong number of operands"
	case ErrorNoOutputs:
		return "Netlist declares no outputs"
	case ErrorUnreadableBenchmark:
		return "Benchmark could not be loaded"
	case ErrorResultStore:
		return "Result store could not be accessed"
	case ErrorBackendFailure:
		return "Backend reported a failure"
	case ErrorBackendUnavailable:
		return "Backend could not be reached"
	case WarningValidationFailed:
		return "Compiled program did not pass validation"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the code represents a warning
func IsWarning(code string) bool {
	return code != "" && code[0] == 'W'
}

// GetErrorCategory returns the category of the code
func GetErrorCategory(code string) string {
	switch {
	case IsWarning(code):
		return "Warning"
	case code >= "E0001" && code < "E0100":
		return "Arguments"
	case code >= "E0100" && code < "E0200":
		return "Netlist"
	case code >= "E0200" && code < "E0300":
		return "Benchmark"
	case code >= "E0300" && code < "E0400":
		return "Backend"
	default:
		return "Unknown"
	}
}
