package planning

import (
	"context"
	"fmt"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/ctxlog"
)

// ProblemStep is one planned motion of a Problem: a target waypoint, the
// resolved profile governing it, and an interpolated seed trajectory from the
// previous joint state.
type ProblemStep struct {
	Description string
	Kind        command.MoveKind
	Target      command.Waypoint
	Profile     command.Profile
	// Seed holds interpolated joint states leading to the target, used to
	// initialize the optimizer. Empty when either endpoint is cartesian.
	Seed [][]float64
	// Fixed pins the step's final state during optimization.
	Fixed bool
}

// Problem is the planner-ready form of a program: a flat step sequence with
// every profile resolved and seed trajectories attached.
type Problem struct {
	Description string
	Manipulator ManipulatorInfo
	JointNames  []string
	Start       command.Waypoint
	Steps       []ProblemStep
}

// NewProblemTask builds a task that translates a validated program into a
// Problem and publishes it on the problem output port. Wait instructions are
// ignored here; they gate execution, not planning.
func NewProblemTask(id string, opts ...composer.TaskOption) *composer.Task {
	ports := composer.Ports{
		Inputs:  planningInputs(),
		Outputs: []composer.Port{{Name: PortProblem, Required: true}},
	}
	return composer.NewTask(id, ports, runProblem, opts...)
}

func runProblem(ctx context.Context, run *composer.TaskRun) error {
	program, err := programInput(run)
	if err != nil {
		return err
	}
	env, err := environmentInput(run)
	if err != nil {
		return err
	}
	profiles, err := profilesInput(run)
	if err != nil {
		return err
	}
	manip, err := manipInput(run)
	if err != nil {
		return err
	}
	if err := program.Validate(); err != nil {
		return err
	}
	if err := validateWaypoint(program.Start.Waypoint); err != nil {
		return fmt.Errorf("start instruction: %w", err)
	}

	names, err := env.JointNames(manip.Manipulator)
	if err != nil {
		return fmt.Errorf("resolving joint names: %w", err)
	}

	problem := &Problem{
		Description: program.Description,
		Manipulator: manip,
		JointNames:  names,
		Start:       program.Start.Waypoint,
	}

	prev := jointState(program.Start)
	for si, seg := range program.Segments {
		if seg.Start != nil {
			if err := validateWaypoint(seg.Start.Waypoint); err != nil {
				return fmt.Errorf("segment %d start: %w", si, err)
			}
			prev = jointState(seg.Start)
		}
		for _, move := range seg.Moves() {
			if err := validateWaypoint(move.Waypoint); err != nil {
				return fmt.Errorf("segment %d %q: %w", si, move.Description, err)
			}
			if move.Kind == command.MoveStart {
				prev = jointState(move)
				continue
			}
			profile := segmentProfile(profiles, seg, move)
			step := ProblemStep{
				Description: move.Description,
				Kind:        move.Kind,
				Target:      move.Waypoint,
				Profile:     profile,
			}
			if target := jointState(move); prev != nil && target != nil {
				step.Seed, err = interpolate(prev, target, profile.InterpolateCnt)
				if err != nil {
					return fmt.Errorf("segment %d %q: %w", si, move.Description, err)
				}
			}
			prev = jointState(move)
			problem.Steps = append(problem.Steps, step)
		}
	}
	if len(problem.Steps) == 0 {
		return fmt.Errorf("program %q contains no plannable moves", program.Description)
	}

	// The final state is pinned when its resolved profile asks for it.
	last := &problem.Steps[len(problem.Steps)-1]
	last.Fixed = last.Profile.FixedFinalState

	ctxlog.FromContext(ctx).Debug("problem constructed",
		"run", run.RunID(), "steps", len(problem.Steps), "joints", len(names))
	run.SetOutput(PortProblem, problem)
	return nil
}

func validateWaypoint(wp command.Waypoint) error {
	switch wp.Kind {
	case command.JointWaypoint:
		if len(wp.Joints) == 0 {
			return fmt.Errorf("joint waypoint has no joint values")
		}
		return nil
	case command.CartesianWaypoint:
		return nil
	default:
		return fmt.Errorf("unsupported waypoint kind %q", wp.Kind)
	}
}

// interpolate returns count joint states linearly spaced from just after from
// up to and including to.
func interpolate(from, to []float64, count int) ([][]float64, error) {
	if len(from) != len(to) {
		return nil, fmt.Errorf("joint state length mismatch: %d vs %d", len(from), len(to))
	}
	if count < 1 {
		count = 1
	}
	out := make([][]float64, count)
	for i := 1; i <= count; i++ {
		t := float64(i) / float64(count)
		state := make([]float64, len(from))
		for j := range from {
			state[j] = from[j] + (to[j]-from[j])*t
		}
		out[i-1] = state
	}
	return out, nil
}
