package runner

import (
	"context"
	"time"

	"javaexec/internal/sandbox/profile"
	"javaexec/internal/sandbox/result"
	"javaexec/internal/sandbox/workspace"
)

// CompileRequest describes one compilation task.
type CompileRequest struct {
	SubmissionID string
	Workspace    *workspace.Workspace
	EntryPoint   result.EntryPoint
	Toolchain    profile.Toolchain
	Timeout      time.Duration
}

// RunRequest describes one execution task.
type RunRequest struct {
	SubmissionID   string
	Workspace      *workspace.Workspace
	EntryPoint     result.EntryPoint
	Toolchain      profile.Toolchain
	Stdin          string
	Timeout        time.Duration
	MemoryLimitMB  int
	MaxOutputBytes int64
}

// Runner orchestrates compile and run workflows.
// A returned error means the step could not be carried out at all
// (spawn or filesystem fault); timeouts and failures are outcomes.
type Runner interface {
	Compile(ctx context.Context, req CompileRequest) (result.CompileOutcome, error)
	Run(ctx context.Context, req RunRequest) (result.RunOutcome, error)
}
