package planning

import (
	"context"
	"fmt"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/ctxlog"
)

// ContactCheckDetail is the diagnostic payload a contact-check task attaches
// to its NodeInfo. It is kept out of the shared context on purpose: failed
// diagnostics belong in the audit trail, not in downstream task inputs.
type ContactCheckDetail struct {
	Revision int
	Checked  int
	Contacts []ContactResult
}

// NewContactCheckTask builds a task that validates every joint-space state
// and motion of the program against the environment. Cartesian waypoints are
// skipped; they have no joint state to check until a planner resolves them.
// Any contact within the profile's margin fails the task.
func NewContactCheckTask(id string, opts ...composer.TaskOption) *composer.Task {
	ports := composer.Ports{Inputs: planningInputs()}
	return composer.NewTask(id, ports, runContactCheck, opts...)
}

func runContactCheck(ctx context.Context, run *composer.TaskRun) error {
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

	logger := ctxlog.FromContext(ctx).With("task", "contact_check", "run", run.RunID())

	detail := &ContactCheckDetail{Revision: env.Revision()}
	defer run.SetDetail(detail)

	for si, seg := range program.Segments {
		prev := jointState(program.Start)
		if seg.Start != nil {
			prev = jointState(seg.Start)
		}
		for _, move := range seg.Moves() {
			if run.Aborted() {
				return nil
			}
			profile := segmentProfile(profiles, seg, move)
			state := jointState(move)
			if state == nil {
				prev = nil
				continue
			}
			contacts, err := env.CheckState(manip.Manipulator, state, profile.ContactMargin)
			if err != nil {
				return fmt.Errorf("segment %d %q: checking state: %w", si, move.Description, err)
			}
			detail.Checked++
			detail.Contacts = append(detail.Contacts, contacts...)
			if prev != nil && move.Kind != command.MoveStart {
				contacts, err := env.CheckMotion(manip.Manipulator, prev, state, profile.ContactMargin, profile.LongestValidStep)
				if err != nil {
					return fmt.Errorf("segment %d %q: checking motion: %w", si, move.Description, err)
				}
				detail.Checked++
				detail.Contacts = append(detail.Contacts, contacts...)
			}
			prev = state
		}
	}

	if len(detail.Contacts) > 0 {
		logger.Warn("contacts found", "count", len(detail.Contacts), "checked", detail.Checked)
		return fmt.Errorf("found %d contacts across %d checks", len(detail.Contacts), detail.Checked)
	}
	logger.Debug("program is contact free", "checked", detail.Checked)
	return nil
}

// jointState extracts the joint state of a move, or nil when the move is nil
// or targets a cartesian waypoint.
func jointState(move *command.MoveInstruction) []float64 {
	if move == nil || move.Waypoint.Kind != command.JointWaypoint {
		return nil
	}
	return move.Waypoint.Joints
}
