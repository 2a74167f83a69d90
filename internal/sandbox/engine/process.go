package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"javaexec/internal/sandbox/result"
	"javaexec/internal/sandbox/spec"
	"javaexec/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultStdoutStderrMaxBytes int64 = 64 * 1024
	defaultWaitDelay                  = 500 * time.Millisecond
)

type processEngine struct {
	cfg Config
}

// NewEngine creates a process engine that kills the whole process tree on deadline.
func NewEngine(cfg Config) Engine {
	if cfg.StdoutStderrMaxBytes <= 0 {
		cfg.StdoutStderrMaxBytes = defaultStdoutStderrMaxBytes
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = defaultWaitDelay
	}
	return &processEngine{cfg: cfg}
}

func (e *processEngine) Run(ctx context.Context, runSpec spec.RunSpec) (result.RunResult, error) {
	if err := validateRunSpec(runSpec); err != nil {
		return result.RunResult{}, err
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if runSpec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, runSpec.Timeout)
	}
	defer cancel()

	maxBytes := runSpec.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = e.cfg.StdoutStderrMaxBytes
	}
	stdout := newLimitedBuffer(maxBytes)
	stderr := newLimitedBuffer(maxBytes)

	cmd := exec.Command(runSpec.Cmd[0], runSpec.Cmd[1:]...)
	cmd.Dir = runSpec.WorkDir
	cmd.Env = e.buildEnv(runSpec.Env)
	cmd.SysProcAttr = buildSysProcAttr()
	cmd.WaitDelay = e.cfg.WaitDelay
	cmd.Stdout = stdout
	if runSpec.MergeOutput {
		cmd.Stderr = stdout
	} else {
		cmd.Stderr = stderr
	}

	var stdin io.WriteCloser
	if runSpec.Stdin != "" {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return result.RunResult{}, fmt.Errorf("open stdin pipe: %w", err)
		}
		stdin = pipe
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result.RunResult{}, fmt.Errorf("start %s: %w", runSpec.Cmd[0], err)
	}

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		select {
		case <-runCtx.Done():
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				timedOut.Store(true)
			}
			killProcessTree(cmd)
		case <-done:
		}
	}()

	// The writer must not share a goroutine with Wait: a child that never
	// reads would fill the pipe and block both.
	var feeder errgroup.Group
	if stdin != nil {
		feeder.Go(func() error {
			defer stdin.Close()
			_, err := io.WriteString(stdin, runSpec.Stdin)
			return err
		})
	}

	waitErr := cmd.Wait()
	close(done)
	elapsed := time.Since(start)
	// Background grandchildren must not outlive the phase.
	killProcessTree(cmd)

	if err := feeder.Wait(); err != nil && !isClosedPipe(err) {
		logger.Debug(ctx, "stdin feed interrupted", zap.String("phase", runSpec.Phase), zap.Error(err))
	}

	runResult := result.RunResult{
		ExitCode:  exitCodeFromErr(waitErr, cmd.ProcessState),
		TimedOut:  timedOut.Load(),
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
		Elapsed:   elapsed,
	}
	if runResult.TimedOut {
		runResult.ExitCode = -1
		return runResult, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return runResult, fmt.Errorf("%s interrupted: %w", runSpec.Phase, ctxErr)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
		case errors.Is(waitErr, exec.ErrWaitDelay):
			logger.Warn(ctx, "child left output pipes open after exit", zap.String("phase", runSpec.Phase))
		default:
			return runResult, fmt.Errorf("wait %s: %w", runSpec.Cmd[0], waitErr)
		}
	}
	return runResult, nil
}

func (e *processEngine) buildEnv(extra []string) []string {
	var env []string
	if e.cfg.InheritEnv {
		env = append(env, os.Environ()...)
	}
	return append(env, extra...)
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func isClosedPipe(err error) bool {
	return errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}

func validateRunSpec(runSpec spec.RunSpec) error {
	if runSpec.WorkDir == "" {
		return fmt.Errorf("work dir is required")
	}
	if len(runSpec.Cmd) == 0 || runSpec.Cmd[0] == "" {
		return fmt.Errorf("command is required")
	}
	if runSpec.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
