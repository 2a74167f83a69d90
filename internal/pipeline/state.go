package pipeline

import (
	"context"
	"time"

	"javaexec/pkg/utils/logger"

	"go.uber.org/zap"
)

// State is one node of the submission state machine.
type State string

const (
	StateIdle            State = "Idle"
	StateInputRejected   State = "InputRejected"
	StateMaterializing   State = "Materializing"
	StateNoEntryPoint    State = "NoEntryPoint"
	StateCompiling       State = "Compiling"
	StateCompileTimedOut State = "CompileTimedOut"
	StateCompileFailed   State = "CompileFailed"
	StateCompiled        State = "Compiled"
	StateRunning         State = "Running"
	StateRunTimedOut     State = "RunTimedOut"
	StateRunFailed       State = "RunFailed"
	StateRunSucceeded    State = "RunSucceeded"
	StateSystemFailed    State = "SystemFailed"
	StateCleanup         State = "Cleanup"
	StateDone            State = "Done"
)

// Transition carries one state change of a submission.
type Transition struct {
	SubmissionID string
	From         State
	To           State
	At           time.Time
}

// StatusReporter observes state transitions.
type StatusReporter interface {
	ReportTransition(ctx context.Context, t Transition)
}

// LogStatusReporter writes every transition at debug level.
type LogStatusReporter struct{}

func (LogStatusReporter) ReportTransition(ctx context.Context, t Transition) {
	logger.Debug(ctx, "pipeline transition",
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
	)
}

// tracker records the current state and forwards transitions.
type tracker struct {
	submissionID string
	current      State
	reporter     StatusReporter
}

func (t *tracker) moveTo(ctx context.Context, next State) {
	prev := t.current
	t.current = next
	if t.reporter != nil {
		t.reporter.ReportTransition(ctx, Transition{
			SubmissionID: t.submissionID,
			From:         prev,
			To:           next,
			At:           time.Now(),
		})
	}
}
