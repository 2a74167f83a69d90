// Package result defines the submission model, raw process results and per-phase outcomes.
package result

import "time"

// SubmissionRequest is one decoded submission.
type SubmissionRequest struct {
	Code  string
	Stdin string
}

// RunResult captures raw engine execution data.
type RunResult struct {
	ExitCode  int
	TimedOut  bool
	Stdout    string
	Stderr    string
	Truncated bool
	Elapsed   time.Duration
}

// CompileStatus is the tag of a CompileOutcome.
type CompileStatus string

const (
	CompileSucceeded CompileStatus = "Succeeded"
	CompileFailed    CompileStatus = "Failed"
	CompileTimedOut  CompileStatus = "TimedOut"
)

// EntryPoint is the runnable class the toolchain is told to execute.
type EntryPoint struct {
	ClassName  string
	SourceFile string
}

// CompileOutcome contains the compilation outcome.
// Diagnostic is set only for CompileFailed, EntryPoint only for CompileSucceeded.
type CompileOutcome struct {
	Status     CompileStatus
	Diagnostic string
	EntryPoint EntryPoint
	ExitCode   int
	Elapsed    time.Duration
}

// RunStatus is the tag of a RunOutcome.
type RunStatus string

const (
	RunCompleted RunStatus = "Completed"
	RunTimedOut  RunStatus = "TimedOut"
)

// RunOutcome contains the execution outcome of the compiled artifact.
type RunOutcome struct {
	Status    RunStatus
	ExitCode  int
	Stdout    string
	Stderr    string
	Truncated bool
	Elapsed   time.Duration
}

// ExecutionResult is the unified result of one submission.
type ExecutionResult struct {
	Success         bool   `json:"success"`
	Output          string `json:"output"`
	Error           string `json:"error"`
	ExecutionTimeMs int64  `json:"execution_time"`
	MemoryUsedMb    int64  `json:"memory_used"`
}
