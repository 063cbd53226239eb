package planning

import (
	"fmt"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
)

// Port names shared by the bundled planning tasks.
const (
	PortProgram          = "program"
	PortEnvironment      = "environment"
	PortProfiles         = "profiles"
	PortManipInfo        = "manip_info"
	PortProfileRemapping = "profile_remapping"
	PortProblem          = "problem"
	PortIO               = "io"
)

// planningInputs is the standard input schema: program, environment, and
// profiles are required; the manipulator override and composite profile
// remapping are optional.
func planningInputs() []composer.Port {
	return []composer.Port{
		{Name: PortProgram, Required: true},
		{Name: PortEnvironment, Required: true},
		{Name: PortProfiles, Required: true},
		{Name: PortManipInfo},
		{Name: PortProfileRemapping},
	}
}

func programInput(run *composer.TaskRun) (*command.Program, error) {
	v, _ := run.Input(PortProgram)
	p, ok := v.(*command.Program)
	if !ok {
		return nil, fmt.Errorf("input port %q holds %T, want *command.Program", PortProgram, v)
	}
	return p, nil
}

func environmentInput(run *composer.TaskRun) (Environment, error) {
	v, _ := run.Input(PortEnvironment)
	env, ok := v.(Environment)
	if !ok {
		return nil, fmt.Errorf("input port %q holds %T, want planning.Environment", PortEnvironment, v)
	}
	return env, nil
}

// profilesInput resolves the profile map, applying the optional composite
// profile remapping when present.
func profilesInput(run *composer.TaskRun) (command.ProfileMap, error) {
	v, _ := run.Input(PortProfiles)
	profiles, ok := v.(command.ProfileMap)
	if !ok {
		return nil, fmt.Errorf("input port %q holds %T, want command.ProfileMap", PortProfiles, v)
	}
	raw, present := run.Input(PortProfileRemapping)
	if !present {
		return profiles, nil
	}
	remap, ok := raw.(map[string]string)
	if !ok {
		return nil, fmt.Errorf("input port %q holds %T, want map[string]string", PortProfileRemapping, raw)
	}
	return profiles.Remap(remap), nil
}

func manipInput(run *composer.TaskRun) (ManipulatorInfo, error) {
	v, present := run.Input(PortManipInfo)
	if !present {
		return ManipulatorInfo{}, nil
	}
	info, ok := v.(ManipulatorInfo)
	if !ok {
		return ManipulatorInfo{}, fmt.Errorf("input port %q holds %T, want planning.ManipulatorInfo", PortManipInfo, v)
	}
	return info, nil
}

// segmentProfile resolves the profile for a move: the instruction's own
// profile wins, then the segment's composite profile, then the default.
func segmentProfile(profiles command.ProfileMap, seg *command.Segment, move *command.MoveInstruction) command.Profile {
	name := move.Profile
	if name == "" {
		name = seg.Profile
	}
	return profiles.Lookup(name)
}
