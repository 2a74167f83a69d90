package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 13000-13999: Submission & Execution errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002

	// Filesystem errors (10400-10499)
	WorkspaceError ErrorCode = 10400
	FileReadFailed ErrorCode = 10401

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300
	InvalidValue     ErrorCode = 10302

	// ========== Submission & Execution Errors (13000-13999) ==========

	// Submission input (13000-13099)
	InvalidJSON  ErrorCode = 13000
	CodeRequired ErrorCode = 13001
	NoEntryPoint ErrorCode = 13002

	// Execution (13100-13199)
	JudgeSystemError ErrorCode = 13101
	CompilationError ErrorCode = 13102
	RuntimeError     ErrorCode = 13103
	CompileTimeout   ErrorCode = 13104
	RunTimeout       ErrorCode = 13105
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",

	// Filesystem
	WorkspaceError: "Workspace operation failed",
	FileReadFailed: "Failed to read file",

	// Validation
	ValidationFailed: "Validation failed",
	InvalidValue:     "Invalid value",

	// Submission input
	InvalidJSON:  "Invalid JSON input",
	CodeRequired: "No code provided",
	NoEntryPoint: "Could not find public class in code",

	// Execution
	JudgeSystemError: "System error",
	CompilationError: "Compilation error",
	RuntimeError:     "Runtime error",
	CompileTimeout:   "Compilation timed out",
	RunTimeout:       "Code execution timed out",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// IsInputError reports whether the code describes a rejected submission
// rather than a failure while compiling or running it.
func (c ErrorCode) IsInputError() bool {
	switch {
	case c == InvalidJSON, c == CodeRequired, c == InvalidParams:
		return true
	case c >= 10300 && c < 10400: // Validation errors
		return true
	default:
		return false
	}
}

// IsTimeout reports whether the code is one of the deadline codes.
func (c ErrorCode) IsTimeout() bool {
	return c == CompileTimeout || c == RunTimeout
}
