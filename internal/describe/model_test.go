package describe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/registry"
)

func TestPipelineBuild(t *testing.T) {
	reg := registry.Default()

	t.Run("builds and validates a planning pipeline", func(t *testing.T) {
		p := &Pipeline{
			Name: "freeform",
			Seed: []string{"program", "environment", "profiles"},
			Tasks: []TaskDecl{
				{ID: "check", Kind: "contact_check"},
				{ID: "build", Kind: "problem", DependsOn: []string{"check"}},
			},
		}

		g, err := p.Build(reg)
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())
		assert.Equal(t, []string{"check", "build"}, g.NodeIDs())
	})

	t.Run("missing seed keys fail validation", func(t *testing.T) {
		p := &Pipeline{
			Name:  "freeform",
			Seed:  []string{"program"},
			Tasks: []TaskDecl{{ID: "check", Kind: "contact_check"}},
		}

		_, err := p.Build(reg)
		assert.ErrorIs(t, err, composer.ErrUnboundPort)
	})

	t.Run("unknown task kind", func(t *testing.T) {
		p := &Pipeline{
			Name:  "freeform",
			Tasks: []TaskDecl{{ID: "x", Kind: "teleport"}},
		}

		_, err := p.Build(reg)
		assert.ErrorContains(t, err, `unknown task kind "teleport"`)
	})

	t.Run("guarded edges resolve", func(t *testing.T) {
		p := &Pipeline{
			Name: "gated",
			Tasks: []TaskDecl{
				{ID: "pause", Kind: "wait", Options: map[string]any{"kind": "time", "seconds": 0.0}},
				{ID: "after", Kind: "wait", Options: map[string]any{"kind": "time", "seconds": 0.0}},
			},
			Edges: []EdgeDecl{{From: "pause", To: "after", On: OnSuccess}},
		}

		_, err := p.Build(reg)
		require.NoError(t, err)
	})

	t.Run("unknown guard name", func(t *testing.T) {
		p := &Pipeline{
			Name: "gated",
			Tasks: []TaskDecl{
				{ID: "a", Kind: "wait", Options: map[string]any{"kind": "time", "seconds": 0.0}},
				{ID: "b", Kind: "wait", Options: map[string]any{"kind": "time", "seconds": 0.0}},
			},
			Edges: []EdgeDecl{{From: "a", To: "b", On: "sometimes"}},
		}

		_, err := p.Build(reg)
		assert.ErrorContains(t, err, `unknown guard "sometimes"`)
	})

	t.Run("cyclic depends_on", func(t *testing.T) {
		p := &Pipeline{
			Name: "loop",
			Tasks: []TaskDecl{
				{ID: "a", Kind: "wait", Options: map[string]any{"kind": "time", "seconds": 0.0}, DependsOn: []string{"b"}},
				{ID: "b", Kind: "wait", Options: map[string]any{"kind": "time", "seconds": 0.0}, DependsOn: []string{"a"}},
			},
		}

		_, err := p.Build(reg)
		assert.ErrorIs(t, err, composer.ErrCycle)
	})
}
