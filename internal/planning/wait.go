package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/ctxlog"
)

// waitPollInterval bounds how long a wait task takes to notice an abort or a
// changed IO line.
const waitPollInterval = 10 * time.Millisecond

// NewWaitTask builds a task that executes one wait instruction. Timed waits
// sleep for the instruction's duration; IO waits poll the provider on the io
// input port until the line reaches the requested state. Both unwind early on
// context cancellation or run abort.
func NewWaitTask(id string, wait command.WaitInstruction, opts ...composer.TaskOption) *composer.Task {
	ports := composer.Ports{Inputs: []composer.Port{{Name: PortIO}}}
	fn := func(ctx context.Context, run *composer.TaskRun) error {
		return runWait(ctx, run, wait)
	}
	return composer.NewTask(id, ports, fn, opts...)
}

func runWait(ctx context.Context, run *composer.TaskRun, wait command.WaitInstruction) error {
	logger := ctxlog.FromContext(ctx).With("task", "wait", "kind", wait.Kind, "run", run.RunID())

	if wait.Kind == command.WaitTime {
		logger.Debug("waiting", "seconds", wait.Seconds)
		return sleep(ctx, run, time.Duration(wait.Seconds*float64(time.Second)))
	}

	v, present := run.Input(PortIO)
	if !present {
		return fmt.Errorf("wait kind %d requires the %q input port", wait.Kind, PortIO)
	}
	io, ok := v.(IOProvider)
	if !ok {
		return fmt.Errorf("input port %q holds %T, want planning.IOProvider", PortIO, v)
	}

	logger.Debug("waiting on digital line", "line", wait.IO)
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		reached, err := ioLineReached(io, wait)
		if err != nil {
			return err
		}
		if reached {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if run.Aborted() {
				return nil
			}
		}
	}
}

func ioLineReached(io IOProvider, wait command.WaitInstruction) (bool, error) {
	switch wait.Kind {
	case command.WaitDigitalInputHigh, command.WaitDigitalInputLow:
		state, err := io.DigitalInput(wait.IO)
		if err != nil {
			return false, fmt.Errorf("reading digital input %d: %w", wait.IO, err)
		}
		return state == (wait.Kind == command.WaitDigitalInputHigh), nil
	case command.WaitDigitalOutputHigh, command.WaitDigitalOutputLow:
		state, err := io.DigitalOutput(wait.IO)
		if err != nil {
			return false, fmt.Errorf("reading digital output %d: %w", wait.IO, err)
		}
		return state == (wait.Kind == command.WaitDigitalOutputHigh), nil
	default:
		return false, fmt.Errorf("unsupported wait kind %d", wait.Kind)
	}
}

// sleep waits for d, returning early on cancellation or abort. An aborted
// sleep returns nil and lets the task layer record the aborted status.
func sleep(ctx context.Context, run *composer.TaskRun, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-ticker.C:
			if run.Aborted() {
				return nil
			}
		}
	}
}
