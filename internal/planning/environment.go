package planning

// ManipulatorInfo names the kinematic chain a pipeline plans for. The zero
// value selects the environment's default manipulator.
type ManipulatorInfo struct {
	Manipulator  string `yaml:"manipulator"`
	WorkingFrame string `yaml:"working_frame"`
	TCPFrame     string `yaml:"tcp_frame"`
}

// Merge fills empty fields from other, so a segment-level override only has
// to name what it changes.
func (m ManipulatorInfo) Merge(other ManipulatorInfo) ManipulatorInfo {
	if m.Manipulator == "" {
		m.Manipulator = other.Manipulator
	}
	if m.WorkingFrame == "" {
		m.WorkingFrame = other.WorkingFrame
	}
	if m.TCPFrame == "" {
		m.TCPFrame = other.TCPFrame
	}
	return m
}

// ContactResult describes one contact found between two links.
type ContactResult struct {
	LinkA string
	LinkB string
	// Distance is signed; negative values indicate penetration depth.
	Distance float64
	// State is the joint state at which the contact was found.
	State []float64
}

// Environment is the scene handle the planning tasks query. Implementations
// snapshot the scene state at construction, so concurrently running tasks
// holding the same handle see one consistent world.
type Environment interface {
	// Revision identifies the scene snapshot.
	Revision() int
	// JointNames returns the active joint names of the named manipulator.
	JointNames(manipulator string) ([]string, error)
	// CheckState returns contacts at the given joint state closer than margin.
	CheckState(manipulator string, state []float64, margin float64) ([]ContactResult, error)
	// CheckMotion checks the interpolated motion between two states, sampling
	// no coarser than longestValidStep in joint space.
	CheckMotion(manipulator string, from, to []float64, margin, longestValidStep float64) ([]ContactResult, error)
}

// IOProvider reads the digital IO lines wait instructions are gated on.
type IOProvider interface {
	DigitalInput(line int) (bool, error)
	DigitalOutput(line int) (bool, error)
}
