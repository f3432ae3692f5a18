package core

// Level specifies the severity of a trace event.
//
// The ordinals follow the firmware convention this package interoperates
// with: 0 disables output entirely and higher values are progressively more
// verbose. JSON sinks emit the ordinal as-is, so the numbering is part of
// the output contract.
type Level int

const (
	// NoneLevel suppresses output.
	NoneLevel Level = iota

	// ErrorLevel is for errors.
	ErrorLevel

	// WarningLevel is for warnings.
	WarningLevel

	// InfoLevel is for informational messages.
	InfoLevel

	// DebugLevel is for debugging information.
	DebugLevel

	// VerboseLevel is the most detailed level.
	VerboseLevel
)

// String returns the short display tag for the level.
func (l Level) String() string {
	switch l {
	case NoneLevel:
		return "NON"
	case ErrorLevel:
		return "ERR"
	case WarningLevel:
		return "WRN"
	case InfoLevel:
		return "INF"
	case DebugLevel:
		return "DBG"
	case VerboseLevel:
		return "VRB"
	default:
		return "UNK"
	}
}

// IgnoreCode is the sentinel error code that suppresses scalar trace output.
// Callers use it to turn a trace call site into a no-op without removing it.
const IgnoreCode int32 = 0x7fffffff
