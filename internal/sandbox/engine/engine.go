package engine

import (
	"context"
	"time"

	"javaexec/internal/sandbox/result"
	"javaexec/internal/sandbox/spec"
)

// Engine executes a RunSpec as a child process bounded by its deadline.
type Engine interface {
	Run(ctx context.Context, runSpec spec.RunSpec) (result.RunResult, error)
}

// Config controls engine behavior.
type Config struct {
	// StdoutStderrMaxBytes caps each captured stream when RunSpec.MaxOutputBytes is unset.
	StdoutStderrMaxBytes int64
	// WaitDelay bounds how long Wait keeps draining pipes after the child is gone.
	WaitDelay time.Duration
	// InheritEnv passes the executor's own environment to the child before RunSpec.Env.
	InheritEnv bool
}
