package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kenwatanabe/taskcrdgo/internal/plan"
	"github.com/kenwatanabe/taskcrdgo/internal/stepapi"
	"github.com/kenwatanabe/taskcrdgo/internal/taskrun"
	"github.com/stretchr/testify/require"
)

// fakeStep is a minimal stepapi.Step for exercising the executor directly,
// without going through graphbuilder at all: run records that it executed
// and returns failErr, if set.
type fakeStep struct {
	name    string
	failErr error
	ran     bool
	mu      sync.Mutex
}

func (s *fakeStep) Execute(ctx context.Context) error {
	s.mu.Lock()
	s.ran = true
	s.mu.Unlock()
	return s.failErr
}
func (s *fakeStep) Fields() []stepapi.Field { return nil }
func (s *fakeStep) ClassName() string       { return "fakeStep" }
func (s *fakeStep) FriendlyName() string    { return s.name }
func (s *fakeStep) UniqueName() string      { return s.name }

func (s *fakeStep) hasRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ran
}

// linearPlan builds a plan chaining steps in order (steps[i] -> steps[i+1]),
// with no data objects.
func linearPlan(steps ...*fakeStep) *plan.Plan {
	n := len(steps)
	stepHandles := make([]stepapi.Step, n)
	tokens := make([]stepapi.Token, n)
	predecessorCounts := make([]int, n)
	successors := make([][]int, n)
	for i, s := range steps {
		stepHandles[i] = s
		tokens[i] = stepapi.Token(i + 1)
		if i > 0 {
			predecessorCounts[i] = 1
			successors[i-1] = []int{i}
		}
	}
	return plan.New(stepHandles, nil, predecessorCounts, successors, tokens, make([][]plan.AccessRight, n), nil)
}

func TestSingleThreadedRunsLinearChainInOrder(t *testing.T) {
	a, b, c := &fakeStep{name: "a"}, &fakeStep{name: "b"}, &fakeStep{name: "c"}
	p := linearPlan(a, b, c)

	exec := New(Config{ThreadCount: 1}, nil)
	result := exec.Execute(context.Background(), p)

	require.True(t, result.Success, result.Summary())
	require.Equal(t, []int{0, 1, 2}, result.CompletedStepIndices)
	require.True(t, a.hasRun())
	require.True(t, b.hasRun())
	require.True(t, c.hasRun())
}

func TestParallelRunsLinearChain(t *testing.T) {
	a, b, c := &fakeStep{name: "a"}, &fakeStep{name: "b"}, &fakeStep{name: "c"}
	p := linearPlan(a, b, c)

	exec := New(Config{ThreadCount: 4}, nil)
	result := exec.Execute(context.Background(), p)

	require.True(t, result.Success, result.Summary())
	require.ElementsMatch(t, []int{0, 1, 2}, result.CompletedStepIndices)
}

func TestFailedStepCancelsSuccessors(t *testing.T) {
	a := &fakeStep{name: "a", failErr: errors.New("boom")}
	b := &fakeStep{name: "b"}
	p := linearPlan(a, b)

	exec := New(Config{ThreadCount: 1}, nil)
	result := exec.Execute(context.Background(), p)

	require.False(t, result.Success)
	require.Equal(t, []int{0}, result.FailedStepIndices)
	require.Equal(t, []int{1}, result.CancelledStepIndices)
	require.False(t, b.hasRun())
	require.Contains(t, result.Summary(), "boom")
}

func TestAbortOnFailureStopsBeforeLaterIndependentSteps(t *testing.T) {
	a := &fakeStep{name: "a", failErr: errors.New("boom")}
	b := &fakeStep{name: "b"}
	// a and b are independent (no edge between them); with AbortOnFailure,
	// observing a's failure must stop b from ever running.
	p := plan.New(
		[]stepapi.Step{a, b},
		nil,
		[]int{0, 0},
		[][]int{{}, {}},
		[]stepapi.Token{1, 2},
		make([][]plan.AccessRight, 2),
		nil,
	)

	exec := New(Config{ThreadCount: 1, AbortOnFailure: true}, nil)
	result := exec.Execute(context.Background(), p)

	require.False(t, result.Success)
	require.True(t, result.Stopped)
	require.False(t, b.hasRun())
}

func TestEmptyPlanSucceedsTrivially(t *testing.T) {
	p := plan.New(nil, nil, nil, nil, nil, nil, nil)
	exec := New(Config{ThreadCount: 1}, nil)
	result := exec.Execute(context.Background(), p)
	require.True(t, result.Success)
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) OnStateChange(stepIdx int, state taskrun.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, fmt.Sprintf("%d:%s", stepIdx, state))
}

func TestProgressSinkObservesTransitions(t *testing.T) {
	a := &fakeStep{name: "a"}
	p := linearPlan(a)
	sink := &recordingSink{}

	exec := New(Config{ThreadCount: 1}, sink)
	result := exec.Execute(context.Background(), p)
	require.True(t, result.Success)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Contains(t, sink.events, "0:Succeeded")
}

func TestCollectTimingRecordsPerStepDuration(t *testing.T) {
	a := &fakeStep{name: "a"}
	p := linearPlan(a)

	exec := New(Config{ThreadCount: 1, CollectTiming: true}, nil)
	result := exec.Execute(context.Background(), p)

	require.True(t, result.Success)
	require.Len(t, result.PerStepDurations, 1)
}
