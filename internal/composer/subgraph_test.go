package composer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/testutil"
)

func innerGraph(t *testing.T, id string, rec *testutil.Recorder) *composer.Graph {
	t.Helper()
	g := composer.NewGraph(id)
	require.NoError(t, g.AddNode(testutil.OK("step", rec)))
	return g
}

func TestSubGraphNodeSuccess(t *testing.T) {
	rec := &testutil.Recorder{}
	var successes []*composer.NodeInfo
	adapter := composer.NewSubGraphNode("segment", innerGraph(t, "inner", rec),
		composer.WithSubGraphName("Raster #1"),
		composer.OnSuccessCallback(func(i *composer.NodeInfo) { successes = append(successes, i) }),
	)

	ec := composer.NewContext()
	status, info := adapter.Run(context.Background(), ec)

	assert.Equal(t, composer.StatusSuccess, status)
	assert.Equal(t, "segment", info.NodeID)
	assert.Equal(t, "Raster #1", info.Name)
	require.Len(t, successes, 1)
	assert.True(t, rec.Has("step"))

	// Inner audit entries are namespaced under the adapter's id.
	assert.Equal(t, []string{"segment/step"}, ec.InfoIDs())
}

func TestSubGraphNodeRemappedBindings(t *testing.T) {
	rec := &testutil.Recorder{}
	inner := composer.NewGraph("inner")
	require.NoError(t, inner.AddNode(testutil.Consumer("solve", "program", rec)))
	require.NoError(t, inner.AddNode(testutil.Producer("emit", "result", "trajectory")))
	require.NoError(t, inner.AddEdge("solve", "emit"))

	adapter := composer.NewSubGraphNode("segment", inner,
		composer.WithSubGraphPorts(composer.Ports{
			Inputs:  []composer.Port{{Name: "program", Required: true}},
			Outputs: []composer.Port{{Name: "result", Required: true}},
		}),
		composer.WithSubGraphBindings(composer.Bindings{
			"program": "outer_program",
			"result":  "outer_result",
		}),
	)

	ec := composer.NewContext()
	ec.Set("outer_program", "raster program")

	// The inner run validates against the view, so the seeded outer key must
	// satisfy the consumer's "program" binding through the remap table.
	status, info := adapter.Run(context.Background(), ec)
	require.Equal(t, composer.StatusSuccess, status, info.Message)
	assert.True(t, rec.Has("solve"))

	// The inner output lands under the outer key, not the port name.
	v, err := ec.Get("outer_result")
	require.NoError(t, err)
	assert.Equal(t, "trajectory", v)
	assert.False(t, ec.Has("result"))
}

func TestSubGraphNodeFailureAbortsSiblings(t *testing.T) {
	rec := &testutil.Recorder{}
	group := composer.NewGroup()

	failing := composer.NewGraph("failing")
	require.NoError(t, failing.AddNode(testutil.Fail("step", rec, "unreachable kinematics")))

	var failures []*composer.NodeInfo
	bad := composer.NewSubGraphNode("raster[2]", failing,
		composer.InGroup(group),
		composer.OnFailureCallback(func(i *composer.NodeInfo) { failures = append(failures, i) }),
	)
	sibling := composer.NewSubGraphNode("raster[3]", innerGraph(t, "inner", rec),
		composer.InGroup(group),
		composer.OnFailureCallback(func(i *composer.NodeInfo) { failures = append(failures, i) }),
	)

	ec := composer.NewContext()
	status, info := bad.Run(context.Background(), ec.View("", nil))
	assert.Equal(t, composer.StatusFailure, status)
	assert.Equal(t, "raster[2]", info.NodeID)

	// The sibling was cancelled sideways and refuses to start; its failure
	// callback stays silent, so exactly one failure fires for the pair.
	siblingStatus, siblingInfo := sibling.Run(context.Background(), composer.NewContext())
	assert.Equal(t, composer.StatusAborted, siblingStatus)
	assert.Equal(t, "aborted before start", siblingInfo.Message)
	// Only the failing segment's task ever ran.
	assert.Equal(t, []string{"step"}, rec.IDs())

	require.Len(t, failures, 1)
	assert.Equal(t, "raster[2]", failures[0].NodeID)
}

func TestSubGraphNodeReset(t *testing.T) {
	rec := &testutil.Recorder{}
	adapter := composer.NewSubGraphNode("segment", innerGraph(t, "inner", rec))

	status, _ := adapter.Run(context.Background(), composer.NewContext())
	require.Equal(t, composer.StatusSuccess, status)

	// Without a reset the inner graph still carries run state.
	status, info := adapter.Run(context.Background(), composer.NewContext())
	assert.Equal(t, composer.StatusFailure, status)
	assert.Contains(t, info.Message, "cleared")

	adapter.Abort()
	adapter.Reset()
	status, _ = adapter.Run(context.Background(), composer.NewContext())
	assert.Equal(t, composer.StatusSuccess, status)
	assert.Equal(t, []string{"step", "step"}, rec.IDs())
}

func TestSubGraphNodeInOuterGraph(t *testing.T) {
	rec := &testutil.Recorder{}
	outer := composer.NewGraph("outer")
	require.NoError(t, outer.AddNode(testutil.OK("before", rec)))
	require.NoError(t, outer.AddNode(composer.NewSubGraphNode("segment", innerGraph(t, "inner", rec))))
	require.NoError(t, outer.AddEdge("before", "segment"))

	ec := composer.NewContext()
	info, err := composer.NewExecutor().Execute(context.Background(), outer, ec, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, composer.StatusSuccess, info.Status)
	assert.Equal(t, []string{"before", "segment/step", "segment"}, ec.InfoIDs())
}
