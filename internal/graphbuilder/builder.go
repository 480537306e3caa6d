package graphbuilder

import (
	"context"
	"sort"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
	"github.com/kenwatanabe/taskcrdgo/internal/ctxlog"
	"github.com/kenwatanabe/taskcrdgo/internal/graphcore"
	"github.com/kenwatanabe/taskcrdgo/internal/plan"
	"github.com/kenwatanabe/taskcrdgo/internal/stepapi"
)

// Builder registers Step and Field handles, resolves them into a graph
// core's dense indices, and composes the resulting execution plan. A
// Builder is used once: construct it, register everything, call Build.
type Builder struct {
	core *graphcore.Core

	stepIndex map[stepapi.Step]int
	stepOrder []stepapi.Step

	fieldIndex map[stepapi.Field]int
	fieldOrder []stepapi.Field
}

// New returns an empty Builder. eager selects the core's validation mode:
// true rejects cycle- and usage-constraint violations as soon as a link
// call would introduce one, false defers those checks to Build. Index and
// type mismatches, and step self-loops, are rejected at the call in both
// modes.
func New(eager bool) *Builder {
	return &Builder{
		core:       graphcore.New(eager),
		stepIndex:  make(map[stepapi.Step]int),
		fieldIndex: make(map[stepapi.Field]int),
	}
}

// AddStep registers step, idempotently, and every field it exposes. It
// returns step's dense index in the graph core.
func (b *Builder) AddStep(step stepapi.Step) (int, error) {
	if idx, ok := b.stepIndex[step]; ok {
		return idx, nil
	}
	idx := len(b.stepOrder)
	if err := b.core.AddStep(idx); err != nil {
		return 0, err
	}
	b.stepIndex[step] = idx
	b.stepOrder = append(b.stepOrder, step)

	for _, f := range step.Fields() {
		if _, err := b.AddField(f); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// AddField registers field, idempotently, first ensuring its owning step
// is registered. It returns field's dense index in the graph core.
func (b *Builder) AddField(field stepapi.Field) (int, error) {
	if idx, ok := b.fieldIndex[field]; ok {
		return idx, nil
	}
	stepIdx, err := b.AddStep(field.OwningStep())
	if err != nil {
		return 0, err
	}
	// Registering the owning step registers every field it exposes, which
	// may include this one.
	if idx, ok := b.fieldIndex[field]; ok {
		return idx, nil
	}
	idx := len(b.fieldOrder)
	if err := b.core.AddField(stepIdx, idx, field.TypeTag(), field.Usage()); err != nil {
		return 0, err
	}
	b.fieldIndex[field] = idx
	b.fieldOrder = append(b.fieldOrder, field)
	return idx, nil
}

// LinkSteps resolves before and after to their dense indices, registering
// them first if needed, and records an explicit step ordering edge.
func (b *Builder) LinkSteps(before, after stepapi.Step, trust graphcore.TrustLevel) error {
	bi, err := b.AddStep(before)
	if err != nil {
		return err
	}
	ai, err := b.AddStep(after)
	if err != nil {
		return err
	}
	return b.core.LinkSteps(bi, ai, trust)
}

// LinkFields resolves f1 and f2 to their dense indices, registering them
// first if needed, and unites the data objects they describe.
func (b *Builder) LinkFields(f1, f2 stepapi.Field, trust graphcore.TrustLevel) error {
	i1, err := b.AddField(f1)
	if err != nil {
		return err
	}
	i2, err := b.AddField(f2)
	if err != nil {
		return err
	}
	return b.core.LinkFields(i1, i2, trust)
}

// Build validates the registered graph as sealed and, if valid, composes
// the execution plan: step and data handles in dense index order,
// deduplicated predecessor counts and successor lists, one token per step,
// and each step's access rights over its data objects. Data handles that
// implement stepapi.Authorizer are granted their final tokens before
// Build returns.
//
// Build fails with a *crderrors.ValidationFailedError, carrying the
// diagnostics report, if the registered graph has any error-severity
// diagnostic.
func (b *Builder) Build(ctx context.Context) (*plan.Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: validating graph.", "step_count", b.core.StepCount(), "field_count", b.core.FieldCount())

	diags := b.core.GetDiagnostics(true)
	if !diags.IsValid() {
		logger.Warn("Build: graph failed validation.", "errors", len(diags.Errors), "warnings", len(diags.Warnings))
		return nil, crderrors.NewValidationFailed(diags)
	}
	if len(diags.Warnings) > 0 {
		logger.Info("Build: graph valid with warnings.", "warnings", len(diags.Warnings))
	}

	exported, err := b.core.ExportGraph()
	if err != nil {
		return nil, err
	}

	n := len(b.stepOrder)
	successors, predecessorCounts := dedupEdges(n, exported.CombinedStepLinks)

	tokens := make([]stepapi.Token, n)
	for i := 0; i < n; i++ {
		tokens[i] = stepapi.Token(i + 1)
	}

	steps := append([]stepapi.Step{}, b.stepOrder...)
	for i, step := range steps {
		if tr, ok := step.(stepapi.TokenReceiver); ok {
			tr.SetToken(tokens[i])
		}
	}
	data := make([]stepapi.Data, len(exported.DataInfos))
	accessRights := make([][]plan.AccessRight, n)

	for _, info := range exported.DataInfos {
		handle := b.dataHandleFor(info)
		data[info.Data] = handle

		var createTok stepapi.Token
		var readToks []stepapi.Token
		var destroyTok stepapi.Token
		var hasDestroy bool
		for _, rec := range info.Usage {
			tok := tokens[rec.Step]
			switch rec.Usage {
			case graphcore.Create:
				createTok = tok
			case graphcore.Read:
				readToks = append(readToks, tok)
			case graphcore.Destroy:
				destroyTok, hasDestroy = tok, true
			}
			accessRights[rec.Step] = append(accessRights[rec.Step], plan.AccessRight{
				DataIdx: info.Data,
				Usage:   rec.Usage,
			})
		}
		if auth, ok := handle.(stepapi.Authorizer); ok {
			auth.Authorize(createTok, readToks, destroyTok, hasDestroy)
		}
	}

	logger.Info("Build: plan composed.", "steps", n, "data_objects", len(data))
	return plan.New(steps, data, predecessorCounts, successors, tokens, accessRights, exported.DataInfos), nil
}

// dataHandleFor returns the stepapi.Data handle shared by every field in
// info's equivalence class. Any field's handle works: export_graph already
// guarantees they all describe the same data object.
func (b *Builder) dataHandleFor(info graphcore.DataInfo) stepapi.Data {
	rec := info.Usage[0]
	return b.fieldOrder[rec.Field].DataHandle()
}

// dedupEdges folds a possibly-repeated edge list into, for each of n
// steps, a sorted, deduplicated successor list and a predecessor count.
func dedupEdges(n int, links []graphcore.StepLink) ([][]int, []int) {
	seen := make([]map[int]struct{}, n)
	for i := range seen {
		seen[i] = make(map[int]struct{})
	}
	for _, l := range links {
		seen[l.Before][l.After] = struct{}{}
	}
	successors := make([][]int, n)
	predecessorCounts := make([]int, n)
	for s := 0; s < n; s++ {
		afters := make([]int, 0, len(seen[s]))
		for a := range seen[s] {
			afters = append(afters, a)
		}
		sort.Ints(afters)
		successors[s] = afters
		for _, a := range afters {
			predecessorCounts[a]++
		}
	}
	return successors, predecessorCounts
}
