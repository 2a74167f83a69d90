package runner

import (
	"context"

	"javaexec/internal/sandbox/engine"
	"javaexec/internal/sandbox/observer"
	"javaexec/internal/sandbox/profile"
	"javaexec/internal/sandbox/result"
	"javaexec/internal/sandbox/spec"
	appErr "javaexec/pkg/errors"
	"javaexec/pkg/utils/contextkey"
)

const (
	phaseCompile = "compile"
	phaseRun     = "run"
)

// DefaultRunner implements compile/run workflows on top of the process engine.
type DefaultRunner struct {
	eng     engine.Engine
	metrics observer.MetricsRecorder
}

// NewRunner creates a new runner backed by the engine.
func NewRunner(eng engine.Engine) *DefaultRunner {
	return NewRunnerWithObserver(eng, observer.NoopMetricsRecorder{})
}

// NewRunnerWithObserver creates a new runner with metrics hooks.
func NewRunnerWithObserver(eng engine.Engine, metrics observer.MetricsRecorder) *DefaultRunner {
	if metrics == nil {
		metrics = observer.NoopMetricsRecorder{}
	}
	return &DefaultRunner{eng: eng, metrics: metrics}
}

// Compile runs the compiler inside the workspace. The diagnostic of a failed
// compile is the merged stdout+stderr of the compiler.
func (r *DefaultRunner) Compile(ctx context.Context, req CompileRequest) (result.CompileOutcome, error) {
	if err := validateCompileRequest(req); err != nil {
		return result.CompileOutcome{}, err
	}
	ctx = context.WithValue(ctx, contextkey.Stage, phaseCompile)
	toolchain := req.Toolchain.WithDefaults()
	workDir := req.Workspace.Path()
	cmd, err := toolchain.CompileCommand(profile.CommandVars{
		WorkDir:   workDir,
		Source:    req.EntryPoint.SourceFile,
		ClassName: req.EntryPoint.ClassName,
	})
	if err != nil {
		return result.CompileOutcome{}, appErr.SystemError(err, "build compile command failed")
	}

	runRes, err := r.eng.Run(ctx, spec.RunSpec{
		SubmissionID: req.SubmissionID,
		Phase:        phaseCompile,
		WorkDir:      workDir,
		Cmd:          cmd,
		Env:          toolchain.Env,
		MergeOutput:  true,
		Timeout:      req.Timeout,
	})
	if err != nil {
		return result.CompileOutcome{}, appErr.SystemError(err, "compile step failed")
	}

	outcome := result.CompileOutcome{
		ExitCode: runRes.ExitCode,
		Elapsed:  runRes.Elapsed,
	}
	switch {
	case runRes.TimedOut:
		outcome.Status = result.CompileTimedOut
	case runRes.ExitCode != 0:
		outcome.Status = result.CompileFailed
		outcome.Diagnostic = runRes.Stdout
	default:
		outcome.Status = result.CompileSucceeded
		outcome.EntryPoint = req.EntryPoint
	}
	r.metrics.ObserveCompile(ctx, toolchain.ID, string(outcome.Status), outcome.Elapsed)
	return outcome, nil
}

// Run executes the compiled entry point inside the workspace.
func (r *DefaultRunner) Run(ctx context.Context, req RunRequest) (result.RunOutcome, error) {
	if err := validateRunRequest(req); err != nil {
		return result.RunOutcome{}, err
	}
	ctx = context.WithValue(ctx, contextkey.Stage, phaseRun)
	toolchain := req.Toolchain.WithDefaults()
	workDir := req.Workspace.Path()
	cmd, err := toolchain.RunCommand(profile.CommandVars{
		WorkDir:   workDir,
		Source:    req.EntryPoint.SourceFile,
		ClassName: req.EntryPoint.ClassName,
		MemoryMB:  req.MemoryLimitMB,
	})
	if err != nil {
		return result.RunOutcome{}, appErr.SystemError(err, "build run command failed")
	}

	runRes, err := r.eng.Run(ctx, spec.RunSpec{
		SubmissionID:   req.SubmissionID,
		Phase:          phaseRun,
		WorkDir:        workDir,
		Cmd:            cmd,
		Env:            toolchain.Env,
		Stdin:          req.Stdin,
		Timeout:        req.Timeout,
		MaxOutputBytes: req.MaxOutputBytes,
	})
	if err != nil {
		return result.RunOutcome{}, appErr.SystemError(err, "run step failed")
	}

	outcome := result.RunOutcome{
		Status:    result.RunCompleted,
		ExitCode:  runRes.ExitCode,
		Stdout:    runRes.Stdout,
		Stderr:    runRes.Stderr,
		Truncated: runRes.Truncated,
		Elapsed:   runRes.Elapsed,
	}
	if runRes.TimedOut {
		outcome = result.RunOutcome{Status: result.RunTimedOut, ExitCode: -1, Elapsed: runRes.Elapsed}
	}
	r.metrics.ObserveRun(ctx, toolchain.ID, string(outcome.Status), outcome.ExitCode, outcome.Elapsed, outcome.Truncated)
	return outcome, nil
}

func validateCompileRequest(req CompileRequest) error {
	if req.Workspace == nil {
		return appErr.ValidationError("workspace", "required")
	}
	if req.EntryPoint.SourceFile == "" {
		return appErr.ValidationError("source_file", "required")
	}
	if req.EntryPoint.ClassName == "" {
		return appErr.ValidationError("class_name", "required")
	}
	if req.Timeout <= 0 {
		return appErr.ValidationError("timeout", "must be positive")
	}
	return nil
}

func validateRunRequest(req RunRequest) error {
	if req.Workspace == nil {
		return appErr.ValidationError("workspace", "required")
	}
	if req.EntryPoint.ClassName == "" {
		return appErr.ValidationError("class_name", "required")
	}
	if req.Timeout <= 0 {
		return appErr.ValidationError("timeout", "must be positive")
	}
	if req.MemoryLimitMB <= 0 {
		return appErr.ValidationError("memory_limit_mb", "must be positive")
	}
	return nil
}
