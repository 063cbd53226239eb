package command

import (
	"errors"
	"fmt"
)

// WaypointKind identifies the representation of a waypoint.
type WaypointKind int

const (
	// JointWaypoint is a target expressed in joint space.
	JointWaypoint WaypointKind = iota
	// CartesianWaypoint is a target pose expressed in task space.
	CartesianWaypoint
)

func (k WaypointKind) String() string {
	switch k {
	case JointWaypoint:
		return "joint"
	case CartesianWaypoint:
		return "cartesian"
	default:
		return fmt.Sprintf("waypoint(%d)", int(k))
	}
}

// Pose is a task-space position and orientation (quaternion).
type Pose struct {
	XYZ  [3]float64
	Quat [4]float64
}

// Waypoint is a single motion target in either joint or cartesian space.
type Waypoint struct {
	Kind   WaypointKind
	Joints []float64
	Names  []string // joint names, parallel to Joints
	Pose   Pose
}

// MoveKind identifies how a move instruction reaches its waypoint.
type MoveKind int

const (
	// MoveFreespace allows the planner to choose any collision-free path.
	MoveFreespace MoveKind = iota
	// MoveLinear constrains the tool to a straight-line path.
	MoveLinear
	// MoveStart marks the starting state of a segment; it produces no motion.
	MoveStart
)

func (k MoveKind) String() string {
	switch k {
	case MoveFreespace:
		return "freespace"
	case MoveLinear:
		return "linear"
	case MoveStart:
		return "start"
	default:
		return fmt.Sprintf("move(%d)", int(k))
	}
}

// MoveInstruction commands a motion to a waypoint using the named profile.
// An empty Profile resolves to the DefaultProfileName at lookup time.
type MoveInstruction struct {
	Description string
	Kind        MoveKind
	Waypoint    Waypoint
	Profile     string
}

// WaitKind enumerates the modes of a wait instruction, mirroring the wait
// modes found on industrial controllers.
type WaitKind int

const (
	// WaitTime waits a fixed duration and then continues.
	WaitTime WaitKind = iota
	// WaitDigitalInputHigh waits for a digital input to go high.
	WaitDigitalInputHigh
	// WaitDigitalInputLow waits for a digital input to go low.
	WaitDigitalInputLow
	// WaitDigitalOutputHigh waits for a digital output to go high.
	WaitDigitalOutputHigh
	// WaitDigitalOutputLow waits for a digital output to go low.
	WaitDigitalOutputLow
)

// WaitInstruction pauses execution until a timer expires or a digital IO
// line reaches the requested state.
type WaitInstruction struct {
	Description string
	Kind        WaitKind
	Seconds     float64
	IO          int
}

// NewTimedWait returns a WaitInstruction of kind WaitTime.
func NewTimedWait(seconds float64) WaitInstruction {
	return WaitInstruction{Kind: WaitTime, Seconds: seconds}
}

// NewIOWait returns a WaitInstruction gated on a digital IO line. Kind must
// not be WaitTime.
func NewIOWait(kind WaitKind, io int) (WaitInstruction, error) {
	if kind == WaitTime {
		return WaitInstruction{}, errors.New("command: WaitTime requires NewTimedWait")
	}
	return WaitInstruction{Kind: kind, IO: io}, nil
}

// Instruction is one entry of a program segment. Exactly one of the pointer
// fields is set.
type Instruction struct {
	Move *MoveInstruction
	Wait *WaitInstruction
}

// Segment is a flat sequence of instructions with an optional explicit start
// state. Raster and transition segments share this representation.
type Segment struct {
	Description  string
	Profile      string // composite profile applied across the segment
	Start        *MoveInstruction
	Instructions []Instruction
}

// LastMove returns the final move instruction of the segment, or nil if the
// segment contains no moves.
func (s *Segment) LastMove() *MoveInstruction {
	for i := len(s.Instructions) - 1; i >= 0; i-- {
		if m := s.Instructions[i].Move; m != nil {
			return m
		}
	}
	return s.Start
}

// Moves returns the segment's move instructions in order.
func (s *Segment) Moves() []*MoveInstruction {
	var out []*MoveInstruction
	for _, ins := range s.Instructions {
		if ins.Move != nil {
			out = append(out, ins.Move)
		}
	}
	return out
}

// Program is a composite motion program: an ordered list of segments that, in
// the raster pipelines, alternate between raster and transition sections.
type Program struct {
	Description string
	Profile     string
	Start       *MoveInstruction
	Segments    []*Segment
}

// HasStart reports whether the program carries an explicit start instruction.
func (p *Program) HasStart() bool { return p.Start != nil }

// Validate checks the structural requirements shared by the raster pipeline
// generators: a non-empty segment list and an explicit start instruction.
func (p *Program) Validate() error {
	if p == nil {
		return errors.New("command: program is nil")
	}
	if len(p.Segments) == 0 {
		return errors.New("command: program has no segments")
	}
	if !p.HasStart() {
		return errors.New("command: program has no start instruction")
	}
	for i, seg := range p.Segments {
		if seg == nil {
			return fmt.Errorf("command: segment %d is nil", i)
		}
	}
	return nil
}
