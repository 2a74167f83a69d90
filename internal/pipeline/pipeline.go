// Package pipeline sequences one submission through materialize, compile and run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"javaexec/internal/codec"
	"javaexec/internal/config"
	"javaexec/internal/sandbox/result"
	"javaexec/internal/sandbox/runner"
	"javaexec/internal/sandbox/source"
	"javaexec/internal/sandbox/workspace"
	appErr "javaexec/pkg/errors"
	"javaexec/pkg/utils/contextkey"
	"javaexec/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline executes submissions. It holds no per-submission state, so one
// value may serve any number of sequential invocations.
type Pipeline struct {
	cfg          config.Config
	materializer *source.Materializer
	runner       runner.Runner
	reporter     StatusReporter
	newID        func() string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStatusReporter replaces the default logging reporter.
func WithStatusReporter(r StatusReporter) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.reporter = r
		}
	}
}

// WithIDGenerator sets the submission id source.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a pipeline for cfg backed by r.
func New(cfg config.Config, r runner.Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:          cfg,
		materializer: source.NewMaterializer(cfg.EntryPointPolicy, cfg.Toolchain),
		runner:       r,
		reporter:     LogStatusReporter{},
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HandleEnvelope decodes a JSON request and executes it.
func (p *Pipeline) HandleEnvelope(ctx context.Context, raw []byte) result.ExecutionResult {
	req, err := codec.Decode(raw)
	if err != nil {
		logger.Info(ctx, "request rejected", zap.Error(err))
		return FailureResult(err, 0)
	}
	return p.Execute(ctx, req)
}

// HandleFile executes the source text stored at path.
func (p *Pipeline) HandleFile(ctx context.Context, path string) result.ExecutionResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return FailureResult(appErr.Wrapf(err, appErr.FileReadFailed, "read source file failed: %v", err), 0)
	}
	if len(data) == 0 {
		return FailureResult(appErr.New(appErr.CodeRequired), 0)
	}
	return p.Execute(ctx, result.SubmissionRequest{Code: string(data)})
}

// Execute runs one submission to completion. It never panics and always
// removes the workspace before returning.
func (p *Pipeline) Execute(ctx context.Context, req result.SubmissionRequest) (res result.ExecutionResult) {
	submissionID := p.newID()
	ctx = context.WithValue(ctx, contextkey.SubmissionID, submissionID)
	st := &tracker{submissionID: submissionID, current: StateIdle, reporter: p.reporter}

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "pipeline panic outside stages", zap.Any("panic", r))
			res = panicResult(r)
		}
	}()

	if req.Code == "" {
		st.moveTo(ctx, StateInputRejected)
		st.moveTo(ctx, StateDone)
		return FailureResult(appErr.New(appErr.CodeRequired), 0)
	}

	ws, err := workspace.Acquire(p.cfg.WorkRoot, submissionID)
	if err != nil {
		st.moveTo(ctx, StateSystemFailed)
		st.moveTo(ctx, StateDone)
		return FailureResult(err, 0)
	}
	defer func() {
		st.moveTo(ctx, StateCleanup)
		ws.Release(ctx)
		st.moveTo(ctx, StateDone)
	}()

	return p.guardedExecute(ctx, st, ws, req)
}

// guardedExecute maps a panic in any stage to SystemFailed.
func (p *Pipeline) guardedExecute(ctx context.Context, st *tracker, ws *workspace.Workspace, req result.SubmissionRequest) (res result.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "pipeline panic", zap.Any("panic", r), zap.String("state", string(st.current)))
			st.moveTo(ctx, StateSystemFailed)
			res = panicResult(r)
		}
	}()
	return p.execute(ctx, st, ws, req)
}

func (p *Pipeline) execute(ctx context.Context, st *tracker, ws *workspace.Workspace, req result.SubmissionRequest) result.ExecutionResult {
	st.moveTo(ctx, StateMaterializing)
	entry, err := p.materializer.Materialize(req.Code, ws)
	if err != nil {
		if appErr.Is(err, appErr.NoEntryPoint) {
			st.moveTo(ctx, StateNoEntryPoint)
		} else {
			st.moveTo(ctx, StateSystemFailed)
		}
		return FailureResult(err, 0)
	}

	// execution_time spans compile and run.
	start := time.Now()
	elapsedMs := func() int64 { return time.Since(start).Milliseconds() }

	st.moveTo(ctx, StateCompiling)
	compiled, err := p.runner.Compile(ctx, runner.CompileRequest{
		SubmissionID: st.submissionID,
		Workspace:    ws,
		EntryPoint:   entry,
		Toolchain:    p.cfg.Toolchain,
		Timeout:      p.cfg.ExecutionTimeout,
	})
	if err != nil {
		st.moveTo(ctx, StateSystemFailed)
		logger.Error(ctx, "compile step failed", zap.Error(err))
		return FailureResult(err, elapsedMs())
	}
	switch compiled.Status {
	case result.CompileTimedOut:
		st.moveTo(ctx, StateCompileTimedOut)
		return FailureResult(appErr.New(appErr.CompileTimeout), elapsedMs())
	case result.CompileFailed:
		st.moveTo(ctx, StateCompileFailed)
		return FailureResult(compileError(compiled), elapsedMs())
	}
	st.moveTo(ctx, StateCompiled)

	st.moveTo(ctx, StateRunning)
	ran, err := p.runner.Run(ctx, runner.RunRequest{
		SubmissionID:   st.submissionID,
		Workspace:      ws,
		EntryPoint:     compiled.EntryPoint,
		Toolchain:      p.cfg.Toolchain,
		Stdin:          req.Stdin,
		Timeout:        p.cfg.ExecutionTimeout,
		MemoryLimitMB:  p.cfg.MemoryLimitMB,
		MaxOutputBytes: p.cfg.MaxOutputBytes,
	})
	if err != nil {
		st.moveTo(ctx, StateSystemFailed)
		logger.Error(ctx, "run step failed", zap.Error(err))
		return FailureResult(err, elapsedMs())
	}
	if ran.Status == result.RunTimedOut {
		st.moveTo(ctx, StateRunTimedOut)
		return FailureResult(appErr.Newf(appErr.RunTimeout, "%s after %s",
			appErr.RunTimeout.Message(), formatTimeout(p.cfg.ExecutionTimeout)), elapsedMs())
	}
	if ran.Truncated {
		logger.Info(ctx, "program output truncated", zap.Int64("max_bytes", p.cfg.MaxOutputBytes))
	}

	output := strings.TrimSpace(ran.Stdout)
	if ran.ExitCode != 0 {
		st.moveTo(ctx, StateRunFailed)
		res := FailureResult(runtimeError(ran), elapsedMs())
		res.Output = output
		return res
	}

	st.moveTo(ctx, StateRunSucceeded)
	return result.ExecutionResult{
		Success:         true,
		Output:          output,
		ExecutionTimeMs: elapsedMs(),
	}
}

// FailureResult maps a taxonomy error to a failed ExecutionResult. Only
// faults of the executor itself carry the "System error: " prefix.
func FailureResult(err error, elapsedMs int64) result.ExecutionResult {
	code := appErr.GetCode(err)
	var msg string
	switch {
	case code.IsInputError(), code.IsTimeout(), code == appErr.NoEntryPoint,
		code == appErr.CompilationError, code == appErr.RuntimeError:
		msg = appErr.GetError(err).Error()
	default:
		msg = "System error: " + errorText(err)
	}
	return failure(msg, elapsedMs)
}

func panicResult(r interface{}) result.ExecutionResult {
	return FailureResult(appErr.New(appErr.JudgeSystemError).WithMessagef("unexpected fault: %v", r), 0)
}

func failure(msg string, elapsedMs int64) result.ExecutionResult {
	return result.ExecutionResult{
		Success:         false,
		Error:           msg,
		ExecutionTimeMs: elapsedMs,
	}
}

func compileError(outcome result.CompileOutcome) error {
	diag := strings.TrimSpace(outcome.Diagnostic)
	if diag == "" {
		diag = fmt.Sprintf("compiler exited with code %d", outcome.ExitCode)
	}
	return appErr.Newf(appErr.CompilationError, "%s: %s", appErr.CompilationError.Message(), diag).
		WithDetail("exit_code", outcome.ExitCode)
}

func runtimeError(outcome result.RunOutcome) error {
	msg := strings.TrimSpace(outcome.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("Process exited with code %d", outcome.ExitCode)
	}
	return appErr.Newf(appErr.RuntimeError, "%s", msg).WithDetail("exit_code", outcome.ExitCode)
}

func errorText(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

func formatTimeout(d time.Duration) string {
	if d > 0 && d%time.Second == 0 {
		secs := int64(d / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	return d.String()
}
