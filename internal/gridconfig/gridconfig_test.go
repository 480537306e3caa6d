package gridconfig

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/kenwatanabe/taskcrdgo/internal/ctxlog"
	"github.com/kenwatanabe/taskcrdgo/internal/executor"
	"github.com/kenwatanabe/taskcrdgo/internal/graphbuilder"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

const chainHCL = `
step "fetch" {
  handler = "fetch"
  field "payload" {
    type  = "string"
    usage = "create"
  }
}

step "transform" {
  handler = "transform"
  field "payload" {
    type  = "string"
    usage = "read"
  }
}

step "archive" {
  handler = "archive"
  field "payload" {
    type  = "string"
    usage = "destroy"
  }
}

link_steps "fetch" "archive" {
  trust = "low"
}
`

func writeGrid(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return dir
}

func TestLoadParsesWorkedExample(t *testing.T) {
	ctx := testContext(t)
	dir := writeGrid(t, chainHCL)

	model, err := Load(ctx, dir)
	require.NoError(t, err)
	require.Len(t, model.Steps, 3)
	require.Len(t, model.StepLinks, 1)

	byName := map[string]*Step{}
	for _, s := range model.Steps {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "fetch")
	require.Contains(t, byName, "transform")
	require.Contains(t, byName, "archive")
	require.Equal(t, "payload", byName["fetch"].Fields[0].Name)
}

// TestApplyRunsSharedDataThroughChain proves the inferred field-class
// unification is real plumbing, not just bookkeeping: fetch's handler
// writes the shared "payload" data object, transform's handler reads
// back exactly what fetch wrote, and archive's handler removes it.
func TestApplyRunsSharedDataThroughChain(t *testing.T) {
	ctx := testContext(t)
	dir := writeGrid(t, chainHCL)

	model, err := Load(ctx, dir)
	require.NoError(t, err)

	var transformSaw any
	reg := NewRegistry()
	reg.Register("fetch", func(ctx context.Context, fields map[string]*StepField) error {
		return fields["payload"].Set(ctx, "hello")
	})
	reg.Register("transform", func(ctx context.Context, fields map[string]*StepField) error {
		v, err := fields["payload"].Get(ctx)
		transformSaw = v
		return err
	})
	reg.Register("archive", func(ctx context.Context, fields map[string]*StepField) error {
		return fields["payload"].Remove(ctx)
	})

	b := graphbuilder.New(false)
	_, err = Apply(ctx, model, b, reg)
	require.NoError(t, err)

	p, err := b.Build(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, p.StepCount())

	exec := executor.New(executor.Config{ThreadCount: 1}, nil)
	result := exec.Execute(ctx, p)

	require.True(t, result.Success, result.Summary())
	require.Equal(t, "hello", transformSaw)
}

func TestApplyDuplicateStepNameFails(t *testing.T) {
	ctx := testContext(t)
	model := &Model{Steps: []*Step{
		{Name: "a"},
		{Name: "a"},
	}}
	b := graphbuilder.New(false)
	_, err := Apply(ctx, model, b, NewRegistry())
	require.Error(t, err)
}

func TestApplyConflictingFieldTypesFails(t *testing.T) {
	ctx := testContext(t)
	model := &Model{Steps: []*Step{
		{Name: "a", Fields: []*Field{{Name: "x", Type: "string", Usage: 0}}},
		{Name: "b", Fields: []*Field{{Name: "x", Type: "number", Usage: 1}}},
	}}
	b := graphbuilder.New(false)
	_, err := Apply(ctx, model, b, NewRegistry())
	require.Error(t, err)
}

func TestLoadUnknownUsageFails(t *testing.T) {
	ctx := testContext(t)
	dir := writeGrid(t, `
step "bad" {
  field "x" {
    type  = "string"
    usage = "update"
  }
}
`)
	_, err := Load(ctx, dir)
	require.Error(t, err)
}

func TestApplyMissingStepLinkTargetFails(t *testing.T) {
	ctx := testContext(t)
	dir := writeGrid(t, `
step "only" {}

link_steps "only" "ghost" {}
`)
	model, err := Load(ctx, dir)
	require.NoError(t, err)

	b := graphbuilder.New(false)
	_, err = Apply(ctx, model, b, NewRegistry())
	require.Error(t, err)
}
