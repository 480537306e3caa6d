package gridconfig

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kenwatanabe/taskcrdgo/internal/ctxlog"
	"github.com/kenwatanabe/taskcrdgo/internal/graphbuilder"
	"github.com/kenwatanabe/taskcrdgo/internal/graphcore"
	"github.com/kenwatanabe/taskcrdgo/internal/stepapi"
	"github.com/kenwatanabe/taskcrdgo/internal/stepdata"
)

// fieldClass tracks, for one field name shared across steps, the data
// object every genericField of that name is constructed to point at and
// the first field registered under that name, which LinkFields unions
// every later field against.
type fieldClass struct {
	typ   reflect.Type
	data  stepapi.Data
	first *genericField
}

// Apply registers model's steps and fields with b and unions same-named,
// same-typed fields across different steps into one equivalence class —
// inferred class membership, since this schema has no explicit
// link_fields block: two fields with the same name denote the same data
// object, the same convention the worked example's "payload" field
// relies on across its fetch/transform/archive chain. It then records
// every explicit link_steps ordering. It returns every step's handle
// keyed by its declared name, for a caller that wants to look one up
// after Build (for logging, or to correlate plan indices back to names).
func Apply(ctx context.Context, model *Model, b *graphbuilder.Builder, reg *Registry) (map[string]stepapi.Step, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("gridconfig.Apply started.", "steps", len(model.Steps), "step_links", len(model.StepLinks))

	classes := make(map[string]*fieldClass)
	steps := make(map[string]stepapi.Step, len(model.Steps))

	for _, s := range model.Steps {
		if _, dup := steps[s.Name]; dup {
			return nil, fmt.Errorf("gridconfig: duplicate step name %q", s.Name)
		}
		gs := &genericStep{name: s.Name, handler: s.Handler, registry: reg}

		for _, f := range s.Fields {
			typ, err := typeTagFor(f.Type)
			if err != nil {
				return nil, fmt.Errorf("gridconfig: step %q, field %q: %w", s.Name, f.Name, err)
			}

			cls, ok := classes[f.Name]
			if !ok {
				cls = &fieldClass{typ: typ, data: stepdata.New(stepapi.NoToken, nil, stepapi.NoToken, false)}
				classes[f.Name] = cls
			} else if cls.typ != typ {
				return nil, fmt.Errorf("gridconfig: field %q has conflicting types %s and %s across steps", f.Name, cls.typ, typ)
			}

			gf := &genericField{owning: gs, name: f.Name, typ: typ, usage: f.Usage, data: cls.data}
			gs.fields = append(gs.fields, gf)

			if cls.first == nil {
				cls.first = gf
			} else {
				if err := b.LinkFields(cls.first, gf, graphcore.Low); err != nil {
					return nil, fmt.Errorf("gridconfig: linking field %q of step %q: %w", f.Name, s.Name, err)
				}
			}
		}

		if _, err := b.AddStep(gs); err != nil {
			return nil, fmt.Errorf("gridconfig: registering step %q: %w", s.Name, err)
		}
		steps[s.Name] = gs
	}

	for _, l := range model.StepLinks {
		before, ok := steps[l.Before]
		if !ok {
			return nil, fmt.Errorf("gridconfig: link_steps references unknown step %q", l.Before)
		}
		after, ok := steps[l.After]
		if !ok {
			return nil, fmt.Errorf("gridconfig: link_steps references unknown step %q", l.After)
		}
		if err := b.LinkSteps(before, after, l.Trust); err != nil {
			return nil, fmt.Errorf("gridconfig: link_steps %q %q: %w", l.Before, l.After, err)
		}
	}

	logger.Debug("gridconfig.Apply finished.", "field_classes", len(classes))
	return steps, nil
}
