package planning_test

import (
	"fmt"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/planning"
)

// fakeEnv is a deterministic Environment for tests. CheckState reports the
// configured contacts whenever the checked state matches badState.
type fakeEnv struct {
	revision    int
	joints      []string
	badState    []float64
	contact     []planning.ContactResult
	stateCalls  int
	motionCalls int
	margins     []float64
}

func (f *fakeEnv) Revision() int { return f.revision }

func (f *fakeEnv) JointNames(string) ([]string, error) {
	if f.joints == nil {
		return []string{"j1", "j2"}, nil
	}
	return f.joints, nil
}

func (f *fakeEnv) CheckState(_ string, state []float64, margin float64) ([]planning.ContactResult, error) {
	f.stateCalls++
	f.margins = append(f.margins, margin)
	if equalStates(state, f.badState) {
		return f.contact, nil
	}
	return nil, nil
}

func (f *fakeEnv) CheckMotion(_ string, _, _ []float64, _, _ float64) ([]planning.ContactResult, error) {
	f.motionCalls++
	return nil, nil
}

func equalStates(a, b []float64) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fakeIO is an IOProvider whose lines flip high after a number of reads.
type fakeIO struct {
	highAfter int
	inReads   int
	outReads  int
}

func (f *fakeIO) DigitalInput(int) (bool, error) {
	f.inReads++
	return f.inReads > f.highAfter, nil
}

func (f *fakeIO) DigitalOutput(int) (bool, error) {
	f.outReads++
	return f.outReads > f.highAfter, nil
}

func move(desc string, joints ...float64) command.Instruction {
	return command.Instruction{Move: &command.MoveInstruction{
		Description: desc,
		Kind:        command.MoveFreespace,
		Waypoint:    command.Waypoint{Kind: command.JointWaypoint, Joints: joints},
	}}
}

func testProgram(segments int) *command.Program {
	p := &command.Program{
		Description: "test program",
		Start: &command.MoveInstruction{
			Kind:     command.MoveStart,
			Waypoint: command.Waypoint{Kind: command.JointWaypoint, Joints: []float64{0, 0}},
		},
	}
	for i := 0; i < segments; i++ {
		p.Segments = append(p.Segments, &command.Segment{
			Description: fmt.Sprintf("segment %d", i),
			Instructions: []command.Instruction{
				move(fmt.Sprintf("s%d m1", i), float64(i), 0.1),
				move(fmt.Sprintf("s%d m2", i), float64(i), 0.2),
			},
		})
	}
	return p
}

// seededContext returns a run context carrying the standard planning inputs.
func seededContext(p *command.Program, env planning.Environment, profiles command.ProfileMap) *composer.Context {
	ec := composer.NewContext()
	ec.Set("program", p)
	ec.Set("environment", env)
	ec.Set("profiles", profiles)
	return ec
}
