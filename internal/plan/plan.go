package plan

import (
	"github.com/kenwatanabe/taskcrdgo/internal/graphcore"
	"github.com/kenwatanabe/taskcrdgo/internal/stepapi"
)

// AccessRight is one step's authorization over one data object.
type AccessRight struct {
	DataIdx int
	Usage   graphcore.Usage
}

// Plan is the immutable result of a successful Build. Callers never
// mutate it; the executor reads it to construct task wrappers.
type Plan struct {
	steps []stepapi.Step
	data  []stepapi.Data

	predecessorCounts []int
	successors        [][]int
	tokens            []stepapi.Token
	accessRights      [][]AccessRight
	dataInfos         []graphcore.DataInfo
}

// New constructs a Plan from already-computed, already-deduplicated
// per-step state. The graph builder is the only intended caller; it owns
// deduplicating combined_step_links and assigning tokens before calling
// this.
func New(
	steps []stepapi.Step,
	data []stepapi.Data,
	predecessorCounts []int,
	successors [][]int,
	tokens []stepapi.Token,
	accessRights [][]AccessRight,
	dataInfos []graphcore.DataInfo,
) *Plan {
	return &Plan{
		steps:             steps,
		data:              data,
		predecessorCounts: predecessorCounts,
		successors:        successors,
		tokens:            tokens,
		accessRights:      accessRights,
		dataInfos:         dataInfos,
	}
}

// StepCount returns the number of steps in the plan.
func (p *Plan) StepCount() int {
	return len(p.steps)
}

// Step returns the handle for step i.
func (p *Plan) Step(i int) stepapi.Step {
	return p.steps[i]
}

// DataCount returns the number of data objects in the plan.
func (p *Plan) DataCount() int {
	return len(p.data)
}

// Data returns the handle for data object i.
func (p *Plan) Data(i int) stepapi.Data {
	return p.data[i]
}

// DataInfo returns the descriptor for data object i.
func (p *Plan) DataInfo(i int) graphcore.DataInfo {
	return p.dataInfos[i]
}

// PredecessorCount returns how many distinct predecessors step i has in
// the combined (explicit + implicit) edge set.
func (p *Plan) PredecessorCount(i int) int {
	return p.predecessorCounts[i]
}

// Successors returns the deduplicated list of steps that step i directly
// precedes.
func (p *Plan) Successors(i int) []int {
	return p.successors[i]
}

// Token returns the token granted to step i.
func (p *Plan) Token(i int) stepapi.Token {
	return p.tokens[i]
}

// AccessRights returns the (data object, usage) pairs step i is
// authorized for.
func (p *Plan) AccessRights(i int) []AccessRight {
	return p.accessRights[i]
}

// InitialReadySteps returns the indices of every step with zero
// predecessors: the set the executor enqueues before running anything
// else.
func (p *Plan) InitialReadySteps() []int {
	var ready []int
	for i, n := range p.predecessorCounts {
		if n == 0 {
			ready = append(ready, i)
		}
	}
	return ready
}
