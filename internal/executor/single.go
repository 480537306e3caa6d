package executor

import (
	"context"
	"time"

	"github.com/kenwatanabe/taskcrdgo/internal/plan"
	"github.com/kenwatanabe/taskcrdgo/internal/taskrun"
)

// singleThreaded is the reference executor: one goroutine, a plain FIFO
// ready queue, no synchronization needed because nothing runs
// concurrently with it.
type singleThreaded struct {
	base
	queue []*taskrun.Wrapper
}

func newSingleThreaded(cfg Config, sink ProgressSink) *singleThreaded {
	return &singleThreaded{base: newBase(cfg, sink)}
}

// Enqueue appends w to the ready queue. Called only from within Run, which
// this executor drives synchronously, so no locking is needed.
func (e *singleThreaded) Enqueue(w *taskrun.Wrapper) {
	e.queue = append(e.queue, w)
}

func (e *singleThreaded) Execute(ctx context.Context, p *plan.Plan) *ExecutionResult {
	e.stopRequested.Store(false)
	e.queue = nil

	if p.StepCount() == 0 {
		return &ExecutionResult{Success: true}
	}

	wrappers, err := buildWrappers(p, e, e.sink)
	if err != nil {
		return &ExecutionResult{
			Success:           false,
			FailedStepIndices: []int{},
			ErrorMessages:     []string{err.Error()},
		}
	}
	e.wrappers = wrappers

	start := time.Now()
	for _, idx := range p.InitialReadySteps() {
		e.readyToQueued(wrappers[idx])
	}

	for len(e.queue) > 0 {
		if e.StopRequested() || ctx.Err() != nil {
			e.RequestStop()
			break
		}
		w := e.queue[0]
		e.queue = e.queue[1:]
		w.Run(ctx)

		if e.cfg.AbortOnFailure && w.State() == taskrun.Failed {
			e.RequestStop()
		}
	}
	// Every wrapper that never reached a terminal state — because it was
	// still queued when a stop was requested, or because its predecessor
	// failed and so never notified it — settles to Cancelled here.
	e.cancelRemaining(wrappers)
	total := time.Since(start)

	return assembleResult(wrappers, e.cfg.CollectTiming, total, e.StopRequested())
}

func (e *singleThreaded) readyToQueued(w *taskrun.Wrapper) {
	if w.MarkQueued() {
		e.queue = append(e.queue, w)
	}
}

// cancelRemaining settles every wrapper that never got to run once a stop
// has been observed.
func (e *singleThreaded) cancelRemaining(wrappers []*taskrun.Wrapper) {
	for _, w := range wrappers {
		w.Cancel()
	}
}
