package planning

import (
	"fmt"

	"github.com/Jm20010201/tesseract-planning/internal/command"
	"github.com/Jm20010201/tesseract-planning/internal/composer"
)

// GeneratorFunc produces the sub-graph that plans one program segment. The
// segment passed in already carries a stitched start instruction; generators
// capture it in their task closures rather than reading it from the context.
type GeneratorFunc func(index int, seg *command.Segment) (*composer.Graph, error)

// RasterPipelineConfig configures NewRasterPipeline.
type RasterPipelineConfig struct {
	// Program must alternate raster and transition segments, starting and
	// ending with a raster (so an odd segment count).
	Program *command.Program
	// Raster and Transition generate the per-segment sub-graphs.
	Raster     GeneratorFunc
	Transition GeneratorFunc
	// Executor runs the generated sub-graphs. Defaults to a fresh executor.
	Executor *composer.Executor
	// OnSegmentSuccess and OnSegmentFailure observe per-segment outcomes. The
	// failure callback fires for the segment that failed, not for siblings
	// aborted in its wake.
	OnSegmentSuccess composer.Callback
	OnSegmentFailure composer.Callback
}

// RasterPipeline is a built raster/transition graph together with the sibling
// group of its segment adapters.
type RasterPipeline struct {
	Graph *composer.Graph
	Group *composer.Group

	adapters []*composer.SubGraphNode
}

// Reset clears the pipeline graph and every segment adapter so the pipeline
// can be executed again.
func (p *RasterPipeline) Reset() {
	for _, a := range p.adapters {
		a.Reset()
	}
	p.Graph.Clear()
}

// Abort cancels the pipeline's segment adapters.
func (p *RasterPipeline) Abort() { p.Group.AbortAll() }

// NewRasterPipeline builds the alternating raster/transition topology: all
// rasters start immediately and run in parallel, and each transition is gated
// on the success of both adjacent rasters. Each segment's start state is
// stitched from the previous segment's last move, so generators always see a
// self-contained segment.
func NewRasterPipeline(cfg RasterPipelineConfig) (*RasterPipeline, error) {
	if err := validateRasterProgram(cfg.Program); err != nil {
		return nil, err
	}
	if cfg.Raster == nil || cfg.Transition == nil {
		return nil, fmt.Errorf("raster pipeline: both generators are required")
	}

	segments := stitchStarts(cfg.Program)
	graph := composer.NewGraph("raster-pipeline", composer.WithGraphName(cfg.Program.Description))
	group := composer.NewGroup()
	pipeline := &RasterPipeline{Graph: graph, Group: group}

	for i, seg := range segments {
		var (
			id  string
			gen GeneratorFunc
		)
		if i%2 == 0 {
			id = fmt.Sprintf("raster[%d]", i/2+1)
			gen = cfg.Raster
		} else {
			id = fmt.Sprintf("transition[%d]", (i+1)/2)
			gen = cfg.Transition
		}

		sub, err := gen(i, seg)
		if err != nil {
			return nil, fmt.Errorf("raster pipeline: generating %s: %w", id, err)
		}

		name := seg.Description
		if name == "" {
			name = id
		}
		opts := []composer.SubGraphOption{
			composer.WithSubGraphName(name),
			composer.InGroup(group),
			composer.OnSuccessCallback(cfg.OnSegmentSuccess),
			composer.OnFailureCallback(cfg.OnSegmentFailure),
		}
		if cfg.Executor != nil {
			opts = append(opts, composer.WithSubGraphExecutor(cfg.Executor))
		}
		adapter := composer.NewSubGraphNode(id, sub, opts...)
		if err := graph.AddNode(adapter); err != nil {
			return nil, fmt.Errorf("raster pipeline: %w", err)
		}
		pipeline.adapters = append(pipeline.adapters, adapter)
	}

	// Transition k is gated on raster k and raster k+1 both succeeding.
	for t := 1; t < len(segments); t += 2 {
		transition := pipeline.adapters[t].ID()
		for _, r := range []int{t - 1, t + 1} {
			raster := pipeline.adapters[r].ID()
			if err := graph.AddConditionalEdge(raster, transition, composer.OnSuccess); err != nil {
				return nil, fmt.Errorf("raster pipeline: %w", err)
			}
		}
	}

	return pipeline, nil
}

// validateRasterProgram enforces the structural contract of raster programs:
// an explicit start instruction and an odd number of segments so that rasters
// and transitions alternate with rasters at both ends.
func validateRasterProgram(p *command.Program) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("raster pipeline: %w", err)
	}
	if len(p.Segments)%2 == 0 {
		return fmt.Errorf("raster pipeline: program %q has %d segments, want an odd count alternating raster and transition",
			p.Description, len(p.Segments))
	}
	return nil
}

// stitchStarts returns copies of the program's segments with each segment's
// start instruction filled in from the previous segment's last move. The
// input program is not modified.
func stitchStarts(p *command.Program) []*command.Segment {
	out := make([]*command.Segment, len(p.Segments))
	prev := p.Start
	for i, seg := range p.Segments {
		copied := *seg
		if copied.Start == nil && prev != nil {
			start := *prev
			start.Kind = command.MoveStart
			copied.Start = &start
		}
		if last := copied.LastMove(); last != nil {
			prev = last
		}
		out[i] = &copied
	}
	return out
}
