// Package spec defines the execution specification for one child process.
package spec

import "time"

// RunSpec is the unified execution specification for one toolchain step.
type RunSpec struct {
	SubmissionID string
	// Phase names the step for logs and metrics ("compile" or "run").
	Phase   string
	WorkDir string
	Cmd     []string
	Env     []string
	Stdin   string
	// MergeOutput writes stderr into the stdout buffer.
	MergeOutput bool
	// Timeout is the wall-clock budget; the deadline is fixed at spawn time.
	Timeout time.Duration
	// MaxOutputBytes caps each captured stream; zero uses the engine default.
	MaxOutputBytes int64
}
