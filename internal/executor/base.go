package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kenwatanabe/taskcrdgo/internal/plan"
	"github.com/kenwatanabe/taskcrdgo/internal/taskrun"
)

// Config is the executor's construction-time behavior.
type Config struct {
	// ThreadCount selects the variant: 0 means "auto" (runtime.GOMAXPROCS),
	// 1 means the single-threaded reference variant, anything above 1
	// means the parallel variant with that many workers.
	ThreadCount int
	// CollectTiming enables per-step duration recording in the result.
	CollectTiming bool
	// AbortOnFailure requests a stop as soon as any step ends Failed.
	AbortOnFailure bool
}

// ProgressSink observes every task wrapper state transition as it happens.
// A nil sink is a no-op; OnStateChange must not block or re-enter the
// executor.
type ProgressSink interface {
	OnStateChange(stepIdx int, state taskrun.State)
}

// Executor runs one plan to completion.
type Executor interface {
	// Execute runs plan and returns once every step has reached a
	// terminal state. It never returns an error: every outcome, including
	// failure and cancellation, is carried in the result.
	Execute(ctx context.Context, p *plan.Plan) *ExecutionResult
	RequestStop()
	StopRequested() bool
}

// New returns the Executor variant cfg.ThreadCount selects: the
// single-threaded reference implementation for 1, the parallel
// worker-pool implementation otherwise (GOMAXPROCS workers for 0).
func New(cfg Config, sink ProgressSink) Executor {
	if cfg.ThreadCount == 1 {
		return newSingleThreaded(cfg, sink)
	}
	return newParallel(cfg, sink)
}

// base holds the state and helpers shared by both executor variants:
// configuration, the stop flag, the progress sink, and plan-to-wrapper
// construction.
type base struct {
	cfg  Config
	sink ProgressSink

	stopRequested atomic.Bool
	wrappers      []*taskrun.Wrapper
}

func newBase(cfg Config, sink ProgressSink) base {
	return base{cfg: cfg, sink: sink}
}

func (b *base) RequestStop()        { b.stopRequested.Store(true) }
func (b *base) StopRequested() bool { return b.stopRequested.Load() }

// NotifyCompletion is taskrun.Notifier's completion hook. Neither
// executor variant needs to react to it directly: the single-threaded
// variant drains its queue synchronously and the parallel variant tracks
// idleness itself in finishOne, so this is intentionally a no-op.
func (b *base) NotifyCompletion(*taskrun.Wrapper) {}

// buildWrappers constructs one taskrun.Wrapper per plan step, wires
// successors from the plan's deduplicated successor lists, and installs
// the progress sink hook. notifier is the shared enqueue/stop/completion
// target every wrapper reports to — the concrete executor variant, which
// embeds base and therefore implements taskrun.Notifier itself.
func buildWrappers(p *plan.Plan, notifier taskrun.Notifier, sink ProgressSink) ([]*taskrun.Wrapper, error) {
	n := p.StepCount()
	wrappers := make([]*taskrun.Wrapper, n)
	for i := 0; i < n; i++ {
		w := taskrun.New(p.Step(i), i, p.Token(i), notifier, p.PredecessorCount(i))
		if sink != nil {
			stepIdx := i
			w.SetOnTransition(func(s taskrun.State) {
				sink.OnStateChange(stepIdx, s)
			})
		}
		wrappers[i] = w
	}
	for i := 0; i < n; i++ {
		for _, succIdx := range p.Successors(i) {
			if err := wrappers[i].AddSuccessor(wrappers[succIdx]); err != nil {
				return nil, fmt.Errorf("wiring successor %d of step %d: %w", succIdx, i, err)
			}
		}
	}
	return wrappers, nil
}

// assembleResult walks every wrapper after the run loop has drained and
// classifies it into the result's completed/failed/cancelled buckets, per
// the spec's result-assembly rules: Executing left over is an invariant
// violation, recorded as a failure.
func assembleResult(wrappers []*taskrun.Wrapper, collectTiming bool, total time.Duration, stopped bool) *ExecutionResult {
	r := &ExecutionResult{
		Stopped:       stopped,
		TotalDuration: total,
	}
	if collectTiming {
		r.PerStepDurations = make([]time.Duration, len(wrappers))
	}

	for _, w := range wrappers {
		idx := w.StepIndex()
		if collectTiming {
			r.PerStepDurations[idx] = w.Duration()
		}
		switch w.State() {
		case taskrun.Succeeded:
			r.CompletedStepIndices = append(r.CompletedStepIndices, idx)
		case taskrun.Failed:
			r.FailedStepIndices = append(r.FailedStepIndices, idx)
			r.ErrorMessages = append(r.ErrorMessages, errorMessage(w.Err()))
		case taskrun.Cancelled:
			r.CancelledStepIndices = append(r.CancelledStepIndices, idx)
		default:
			r.FailedStepIndices = append(r.FailedStepIndices, idx)
			r.ErrorMessages = append(r.ErrorMessages, fmt.Sprintf("step %d ended in unknown state %s", idx, w.State()))
		}
	}

	r.Success = len(r.FailedStepIndices) == 0 && len(r.CancelledStepIndices) == 0
	return r
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
