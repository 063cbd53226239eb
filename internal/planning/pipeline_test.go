package planning_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/planning"
)

func rasterProgram(segments int) *command.Program {
	p := testProgram(segments)
	for i, seg := range p.Segments {
		if i%2 == 0 {
			seg.Description = fmt.Sprintf("Raster #%d", i/2+1)
		} else {
			seg.Description = fmt.Sprintf("Transition #%d", (i+1)/2)
		}
	}
	return p
}

func okGenerator(rec func(int)) planning.GeneratorFunc {
	return func(index int, seg *command.Segment) (*composer.Graph, error) {
		g := composer.NewGraph(fmt.Sprintf("seg-%d", index))
		task := composer.NewTask("plan", composer.Ports{}, func(ctx context.Context, run *composer.TaskRun) error {
			if rec != nil {
				rec(index)
			}
			return nil
		})
		if err := g.AddNode(task); err != nil {
			return nil, err
		}
		return g, nil
	}
}

func TestNewRasterPipelineValidation(t *testing.T) {
	gen := okGenerator(nil)

	t.Run("even segment count is rejected", func(t *testing.T) {
		_, err := planning.NewRasterPipeline(planning.RasterPipelineConfig{
			Program: rasterProgram(4),
			Raster:  gen, Transition: gen,
		})
		assert.ErrorContains(t, err, "odd count")
	})

	t.Run("program without start is rejected", func(t *testing.T) {
		p := rasterProgram(3)
		p.Start = nil
		_, err := planning.NewRasterPipeline(planning.RasterPipelineConfig{
			Program: p,
			Raster:  gen, Transition: gen,
		})
		assert.ErrorContains(t, err, "no start")
	})

	t.Run("missing generator is rejected", func(t *testing.T) {
		_, err := planning.NewRasterPipeline(planning.RasterPipelineConfig{
			Program: rasterProgram(3),
			Raster:  gen,
		})
		assert.ErrorContains(t, err, "generators")
	})

	t.Run("generator errors propagate", func(t *testing.T) {
		boom := func(int, *command.Segment) (*composer.Graph, error) {
			return nil, errors.New("solver unavailable")
		}
		_, err := planning.NewRasterPipeline(planning.RasterPipelineConfig{
			Program: rasterProgram(3),
			Raster:  boom, Transition: gen,
		})
		assert.ErrorContains(t, err, "solver unavailable")
	})
}

func TestRasterPipelineTopology(t *testing.T) {
	// Segment starts are stitched from the previous segment's last move.
	var stitched []*command.Segment
	capture := func(index int, seg *command.Segment) (*composer.Graph, error) {
		stitched = append(stitched, seg)
		return okGenerator(nil)(index, seg)
	}

	program := rasterProgram(5)
	pipeline, err := planning.NewRasterPipeline(planning.RasterPipelineConfig{
		Program: program,
		Raster:  capture, Transition: capture,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, pipeline.Graph.Len())
	assert.Equal(t,
		[]string{"raster[1]", "transition[1]", "raster[2]", "transition[2]", "raster[3]"},
		pipeline.Graph.NodeIDs(),
	)

	require.Len(t, stitched, 5)
	require.NotNil(t, stitched[0].Start)
	assert.Equal(t, program.Start.Waypoint, stitched[0].Start.Waypoint)
	for i := 1; i < 5; i++ {
		require.NotNil(t, stitched[i].Start, "segment %d", i)
		assert.Equal(t, command.MoveStart, stitched[i].Start.Kind)
		prevLast := stitched[i-1].LastMove()
		assert.Equal(t, prevLast.Waypoint, stitched[i].Start.Waypoint, "segment %d", i)
	}

	// The original program is untouched.
	for _, seg := range program.Segments {
		assert.Nil(t, seg.Start)
	}
}

func TestRasterPipelineFailureScenario(t *testing.T) {
	// Three rasters and two transitions where raster #2 fails: rasters #1
	// and #3 complete, the transitions never reach SUCCESS, the overall
	// status is FAILURE, and exactly one failure callback names raster #2.
	program := rasterProgram(5)

	raster1Done := make(chan struct{})
	raster3Done := make(chan struct{})

	raster := func(index int, seg *command.Segment) (*composer.Graph, error) {
		g := composer.NewGraph(fmt.Sprintf("seg-%d", index))
		task := composer.NewTask("plan", composer.Ports{}, func(ctx context.Context, run *composer.TaskRun) error {
			if index == 2 {
				// Fail only after the sibling rasters have committed, so
				// their terminal states are deterministic.
				<-raster1Done
				<-raster3Done
				return errors.New("unreachable kinematics")
			}
			return nil
		})
		if err := g.AddNode(task); err != nil {
			return nil, err
		}
		return g, nil
	}

	var mu sync.Mutex
	var failureNames []string
	pipeline, err := planning.NewRasterPipeline(planning.RasterPipelineConfig{
		Program:    program,
		Raster:     raster,
		Transition: okGenerator(nil),
		OnSegmentSuccess: func(info *composer.NodeInfo) {
			switch info.Name {
			case "Raster #1":
				close(raster1Done)
			case "Raster #3":
				close(raster3Done)
			}
		},
		OnSegmentFailure: func(info *composer.NodeInfo) {
			mu.Lock()
			failureNames = append(failureNames, info.Name)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	ec := composer.NewContext()
	var runFailures []*composer.NodeInfo
	exec := composer.NewExecutor(composer.WithWorkers(4))
	info, err := exec.Execute(context.Background(), pipeline.Graph, ec, nil,
		func(i *composer.NodeInfo) { runFailures = append(runFailures, i) },
	)
	require.NoError(t, err)

	assert.Equal(t, composer.StatusFailure, info.Status)
	assert.True(t, ec.Aborted())

	status := func(id string) composer.Status {
		nodeInfo, err := ec.Info(id)
		require.NoError(t, err, id)
		return nodeInfo.Status
	}
	assert.Equal(t, composer.StatusSuccess, status("raster[1]"))
	assert.Equal(t, composer.StatusFailure, status("raster[2]"))
	assert.Equal(t, composer.StatusSuccess, status("raster[3]"))
	for _, id := range []string{"transition[1]", "transition[2]"} {
		got := status(id)
		assert.NotEqual(t, composer.StatusSuccess, got, id)
		assert.Contains(t, []composer.Status{composer.StatusSkipped, composer.StatusAborted}, got, id)
	}

	mu.Lock()
	assert.Equal(t, []string{"Raster #2"}, failureNames)
	mu.Unlock()
	require.Len(t, runFailures, 1)
	assert.Equal(t, "raster[2]", runFailures[0].NodeID)
}

func TestRasterPipelineSuccessAndReset(t *testing.T) {
	var mu sync.Mutex
	ran := make(map[int]int)
	rec := func(index int) {
		mu.Lock()
		ran[index]++
		mu.Unlock()
	}

	pipeline, err := planning.NewRasterPipeline(planning.RasterPipelineConfig{
		Program: rasterProgram(3),
		Raster:  okGenerator(rec), Transition: okGenerator(rec),
	})
	require.NoError(t, err)

	exec := composer.NewExecutor()
	info, err := exec.Execute(context.Background(), pipeline.Graph, composer.NewContext(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, composer.StatusSuccess, info.Status)

	pipeline.Reset()
	info, err = exec.Execute(context.Background(), pipeline.Graph, composer.NewContext(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, composer.StatusSuccess, info.Status)

	mu.Lock()
	defer mu.Unlock()
	for index := 0; index < 3; index++ {
		assert.Equal(t, 2, ran[index], "segment %d", index)
	}
}
