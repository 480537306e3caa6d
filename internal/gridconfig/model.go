package gridconfig

import "github.com/kenwatanabe/taskcrdgo/internal/graphcore"

// Model is the unified, format-agnostic description of a task graph,
// translated from one or more HCL files: the same separation of concerns
// as the teacher's config.Model relative to its HCL-specific schema.
type Model struct {
	Steps     []*Step
	StepLinks []*StepLink
}

// Step is the format-agnostic representation of a `step` block. Handler
// names a function registered in a Registry that the step calls whenever
// it executes; an empty Handler makes the step a no-op.
type Step struct {
	Name    string
	Handler string
	Fields  []*Field
}

// Field is the format-agnostic representation of a `field` block nested
// in a step. Fields in different steps that share a Name and Type are
// unified into one data object's equivalence class by Apply, mirroring
// how the worked example's "payload" field recurs across three steps
// without an explicit link_fields block.
type Field struct {
	Name  string
	Type  string
	Usage graphcore.Usage
}

// StepLink is the format-agnostic representation of an explicit
// `link_steps` block.
type StepLink struct {
	Before string
	After  string
	Trust  graphcore.TrustLevel
}
