package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"javaexec/internal/codec"
	"javaexec/internal/config"
	"javaexec/internal/pipeline"
	"javaexec/internal/sandbox/engine"
	"javaexec/internal/sandbox/observer"
	"javaexec/internal/sandbox/result"
	"javaexec/internal/sandbox/runner"
	appErr "javaexec/pkg/errors"
	"javaexec/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	modeEnvelope = "envelope"
	modeFile     = "file"

	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.LookupEnv))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, lookup config.LookupFunc) int {
	flags := flag.NewFlagSet("executor", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to optional YAML config file")
	mode := flags.String("mode", modeEnvelope, "Invocation mode: envelope (JSON on stdin) or file (source path argument)")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  executor [-config path] < request.json\n  executor [-config path] [-mode file] <source-file>\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	// A positional argument alone selects file mode.
	if *mode == modeEnvelope && flags.NArg() > 0 {
		*mode = modeFile
	}
	switch *mode {
	case modeEnvelope:
	case modeFile:
		if flags.NArg() != 1 {
			flags.Usage()
			return exitUsage
		}
	default:
		fmt.Fprintf(stderr, "unknown mode %q\n", *mode)
		flags.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath, lookup)
	if err != nil {
		fmt.Fprintf(stderr, "load config failed: %v\n", err)
		if *mode == modeFile {
			return exitError
		}
		return emit(stdout, pipeline.FailureResult(appErr.SystemError(err, "load config failed"), 0))
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(stderr, "init logger failed: %v\n", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()
	eng := engine.NewEngine(engine.Config{
		StdoutStderrMaxBytes: cfg.MaxOutputBytes,
		InheritEnv:           true,
	})
	p := pipeline.New(cfg, runner.NewRunnerWithObserver(eng, observer.LogMetricsRecorder{}))

	if *mode == modeFile {
		return emit(stdout, p.HandleFile(ctx, flags.Arg(0)))
	}

	raw, err := io.ReadAll(stdin)
	if err != nil {
		logger.Error(ctx, "read request failed", zap.Error(err))
		return emit(stdout, pipeline.FailureResult(appErr.SystemError(err, "read request failed"), 0))
	}
	return emit(stdout, p.HandleEnvelope(ctx, raw))
}

// emit writes the payload; the exit status never reflects the submission outcome.
func emit(stdout io.Writer, res result.ExecutionResult) int {
	if err := codec.Write(stdout, res); err != nil {
		logger.Error(context.Background(), "write result failed", zap.Error(err))
	}
	return exitOK
}
