package describe

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/Jm20010201/tesseract-planning/internal/ctxlog"
	"github.com/Jm20010201/tesseract-planning/internal/fsutil"
)

// hclFile represents the top-level structure of a description file.
type hclFile struct {
	Pipelines []*hclPipeline `hcl:"pipeline,block"`
}

type hclPipeline struct {
	Name        string     `hcl:"name,label"`
	Description string     `hcl:"description,optional"`
	Seed        []string   `hcl:"seed,optional"`
	Tasks       []*hclTask `hcl:"task,block"`
	Edges       []*hclEdge `hcl:"edge,block"`
}

type hclTask struct {
	ID        string            `hcl:"id,label"`
	Kind      string            `hcl:"kind"`
	Name      string            `hcl:"name,optional"`
	Remap     map[string]string `hcl:"remap,optional"`
	Options   cty.Value         `hcl:"options,optional"`
	DependsOn []string          `hcl:"depends_on,optional"`
}

type hclEdge struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
	On   string `hcl:"on,optional"`
}

// loadFile parses one HCL description file into pipelines.
func loadFile(filePath string, parser *hclparse.Parser) ([]*Pipeline, error) {
	hclF, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(hclF.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	pipelines := make([]*Pipeline, 0, len(parsed.Pipelines))
	for _, raw := range parsed.Pipelines {
		p, err := newPipeline(raw)
		if err != nil {
			return nil, fmt.Errorf("error in pipeline %q of file %s: %w", raw.Name, filePath, err)
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

func newPipeline(raw *hclPipeline) (*Pipeline, error) {
	p := &Pipeline{
		Name:        raw.Name,
		Description: raw.Description,
		Seed:        raw.Seed,
	}
	for _, t := range raw.Tasks {
		options, err := optionsMap(t.Options)
		if err != nil {
			return nil, fmt.Errorf("task %q: options: %w", t.ID, err)
		}
		p.Tasks = append(p.Tasks, TaskDecl{
			ID:        t.ID,
			Kind:      t.Kind,
			Name:      t.Name,
			Remap:     t.Remap,
			Options:   options,
			DependsOn: t.DependsOn,
		})
	}
	for _, e := range raw.Edges {
		p.Edges = append(p.Edges, EdgeDecl{From: e.From, To: e.To, On: e.On})
	}
	return p, nil
}

// optionsMap converts a task's options attribute to a plain Go map.
func optionsMap(val cty.Value) (map[string]any, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, nil
	}
	converted, err := ctyValueToInterface(val)
	if err != nil {
		return nil, err
	}
	m, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("want an object, got %s", val.Type().FriendlyName())
	}
	return m, nil
}

// LoadRecursively finds and parses all HCL description files under a path.
func LoadRecursively(ctx context.Context, descPath string) ([]*Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading pipeline descriptions from path", "path", descPath)

	files, err := fsutil.FindFilesByExtension(descPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find description files in %s: %w", descPath, err)
	}
	if len(files) == 0 {
		logger.Warn("No .hcl description files found in path", "path", descPath)
		return nil, nil
	}

	var pipelines []*Pipeline
	parser := hclparse.NewParser()
	seen := make(map[string]string)
	for _, file := range files {
		loaded, err := loadFile(file, parser)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			if prev, dup := seen[p.Name]; dup {
				return nil, fmt.Errorf("pipeline %q defined in both %s and %s", p.Name, prev, file)
			}
			seen[p.Name] = file
		}
		pipelines = append(pipelines, loaded...)
	}
	return pipelines, nil
}
