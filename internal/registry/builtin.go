package registry

import (
	"fmt"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/planning"
)

// Built-in task kind names.
const (
	KindContactCheck = "contact_check"
	KindProblem      = "problem"
	KindWait         = "wait"
)

// Default returns a registry with the bundled planning task kinds.
func Default() *Registry {
	r := New()
	r.Register(KindContactCheck, buildContactCheck)
	r.Register(KindProblem, buildProblem)
	r.Register(KindWait, buildWait)
	return r
}

func taskOptions(spec TaskSpec) []composer.TaskOption {
	var opts []composer.TaskOption
	if spec.Name != "" {
		opts = append(opts, composer.WithName(spec.Name))
	}
	if len(spec.Bindings) > 0 {
		opts = append(opts, composer.WithBindings(spec.Bindings))
	}
	return opts
}

func buildContactCheck(spec TaskSpec) (composer.Node, error) {
	return planning.NewContactCheckTask(spec.ID, taskOptions(spec)...), nil
}

func buildProblem(spec TaskSpec) (composer.Node, error) {
	return planning.NewProblemTask(spec.ID, taskOptions(spec)...), nil
}

// waitKinds maps description option values to wait kinds.
var waitKinds = map[string]command.WaitKind{
	"time":                command.WaitTime,
	"digital_input_high":  command.WaitDigitalInputHigh,
	"digital_input_low":   command.WaitDigitalInputLow,
	"digital_output_high": command.WaitDigitalOutputHigh,
	"digital_output_low":  command.WaitDigitalOutputLow,
}

func buildWait(spec TaskSpec) (composer.Node, error) {
	kindName, _ := spec.Options["kind"].(string)
	kind, ok := waitKinds[kindName]
	if !ok {
		return nil, fmt.Errorf("wait option %q must be one of time, digital_input_high, digital_input_low, digital_output_high, digital_output_low; got %q", "kind", kindName)
	}

	var wait command.WaitInstruction
	if kind == command.WaitTime {
		seconds, ok := spec.Options["seconds"].(float64)
		if !ok || seconds < 0 {
			return nil, fmt.Errorf("timed wait requires a non-negative %q option", "seconds")
		}
		wait = command.NewTimedWait(seconds)
	} else {
		line, ok := numberOption(spec.Options["line"])
		if !ok {
			return nil, fmt.Errorf("wait on %s requires a %q option", kindName, "line")
		}
		var err error
		wait, err = command.NewIOWait(kind, line)
		if err != nil {
			return nil, err
		}
	}
	return planning.NewWaitTask(spec.ID, wait, taskOptions(spec)...), nil
}

// numberOption accepts the integer encodings a decoded description may carry.
func numberOption(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
