package command

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultProfileName is the profile key used when an instruction leaves its
// profile unspecified.
const DefaultProfileName = "DEFAULT"

// Profile is a named set of planning parameters applied to instructions or
// whole segments. The engine treats the values as opaque; the bundled
// planning tasks consume them.
type Profile struct {
	Name string `yaml:"name"`

	// Contact checking
	ContactMargin    float64 `yaml:"contact_margin"`
	LongestValidStep float64 `yaml:"longest_valid_step"`

	// Problem construction
	CollisionCost   float64 `yaml:"collision_cost"`
	SmoothVelocity  bool    `yaml:"smooth_velocity"`
	InterpolateCnt  int     `yaml:"interpolate_count"`
	FixedFinalState bool    `yaml:"fixed_final_state"`
}

// defaultProfile is returned when a lookup falls back to DefaultProfileName
// and no profile is registered under that name.
var defaultProfile = Profile{
	Name:             DefaultProfileName,
	ContactMargin:    0.025,
	LongestValidStep: 0.05,
	CollisionCost:    20,
	SmoothVelocity:   true,
	InterpolateCnt:   10,
	FixedFinalState:  true,
}

// DefaultProfile returns the built-in default profile.
func DefaultProfile() Profile { return defaultProfile }

// ProfileMap holds profiles keyed by name.
type ProfileMap map[string]Profile

// Lookup resolves a profile name. An empty name falls back to
// DefaultProfileName; a name (after fallback) with no registered profile
// yields the built-in default rather than an error.
func (m ProfileMap) Lookup(name string) Profile {
	if name == "" {
		name = DefaultProfileName
	}
	if p, ok := m[name]; ok {
		return p
	}
	return defaultProfile
}

// Remap returns the profile map with names rewritten per the remapping
// table. Names absent from the table pass through unchanged.
func (m ProfileMap) Remap(remap map[string]string) ProfileMap {
	if len(remap) == 0 {
		return m
	}
	out := make(ProfileMap, len(m))
	for name, p := range m {
		if to, ok := remap[name]; ok {
			name = to
		}
		out[name] = p
	}
	return out
}

// profileDoc is the YAML document shape for a profile set.
type profileDoc struct {
	Profiles []Profile `yaml:"profiles"`
}

// DecodeProfiles reads a YAML profile-set document.
func DecodeProfiles(r io.Reader) (ProfileMap, error) {
	var doc profileDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding profile set: %w", err)
	}
	out := make(ProfileMap, len(doc.Profiles))
	for _, p := range doc.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile set contains a profile with no name")
		}
		if _, exists := out[p.Name]; exists {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		out[p.Name] = p
	}
	return out, nil
}

// LoadProfiles reads a YAML profile-set file from disk.
func LoadProfiles(path string) (ProfileMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening profile set: %w", err)
	}
	defer f.Close()
	return DecodeProfiles(f)
}
