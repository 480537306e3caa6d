package gridconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/kenwatanabe/taskcrdgo/internal/ctxlog"
	"github.com/kenwatanabe/taskcrdgo/internal/fsutil"
)

// Load parses every .hcl file reachable from paths (files and recursively
// searched directories, per fsutil.FindFilesByExtension) and merges their
// step and link_steps blocks into one Model. The same file collected
// through two different paths is only read once.
func Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("gridconfig.Load started.", "path_count", len(paths))

	model := &Model{}
	parser := hclparse.NewParser()
	seen := make(map[string]struct{})

	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("gridconfig: scanning %s: %w", path, err)
		}
		for _, file := range files {
			if _, ok := seen[file]; ok {
				continue
			}
			seen[file] = struct{}{}

			hclFile, diags := parser.ParseHCLFile(file)
			if diags.HasErrors() {
				return nil, fmt.Errorf("gridconfig: parsing %s: %w", file, diags)
			}

			var parsed fileRoot
			if diags := gohcl.DecodeBody(hclFile.Body, nil, &parsed); diags.HasErrors() {
				return nil, fmt.Errorf("gridconfig: decoding %s: %w", file, diags)
			}

			if err := mergeFile(model, &parsed); err != nil {
				return nil, fmt.Errorf("gridconfig: %s: %w", file, err)
			}
		}
	}

	logger.Debug("gridconfig.Load finished.", "steps", len(model.Steps), "step_links", len(model.StepLinks))
	return model, nil
}

func mergeFile(model *Model, root *fileRoot) error {
	for _, s := range root.Steps {
		step := &Step{Name: s.Name, Handler: s.Handler}
		for _, f := range s.Fields {
			if _, err := typeTagFor(f.Type); err != nil {
				return fmt.Errorf("step %q, field %q: %w", s.Name, f.Name, err)
			}
			usage, err := usageFor(f.Usage)
			if err != nil {
				return fmt.Errorf("step %q, field %q: %w", s.Name, f.Name, err)
			}
			step.Fields = append(step.Fields, &Field{Name: f.Name, Type: f.Type, Usage: usage})
		}
		model.Steps = append(model.Steps, step)
	}
	for _, l := range root.StepLinks {
		trust, err := trustFor(l.Trust)
		if err != nil {
			return fmt.Errorf("link_steps %q %q: %w", l.Before, l.After, err)
		}
		model.StepLinks = append(model.StepLinks, &StepLink{Before: l.Before, After: l.After, Trust: trust})
	}
	return nil
}
