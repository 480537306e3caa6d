package executor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/kenwatanabe/taskcrdgo/internal/plan"
	"github.com/kenwatanabe/taskcrdgo/internal/taskrun"
)

// parallel is the worker-pool executor: a condition-guarded shared ready
// queue, cfg.ThreadCount (or GOMAXPROCS, if 0) workers cooperatively
// popping and running tasks. Every shared mutation of a task's lifecycle,
// its predecessor counter, and the queue itself happens through atomics
// or the queue's own monitor; wrappers hold no locks across the user
// callback.
//
// Termination is detected by idleness, not by a completed-task count: a
// failed task does not notify its successors (see taskrun.Wrapper.Run),
// so some wrappers can remain permanently NotReady. The system is done
// once the ready queue is empty and no worker is mid-task, since nothing
// left running could ever make another wrapper ready.
type parallel struct {
	base

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*taskrun.Wrapper
	inFlight int
	done     bool
	workers  int
}

func newParallel(cfg Config, sink ProgressSink) *parallel {
	workers := cfg.ThreadCount
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	e := &parallel{base: newBase(cfg, sink), workers: workers}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// RequestStop shadows base.RequestStop to also wake every worker blocked
// in next, so a stop requested while all workers are idle-waiting is
// observed promptly instead of only at the next natural wakeup.
func (e *parallel) RequestStop() {
	e.base.RequestStop()
	e.cond.Broadcast()
}

// Enqueue adds w to the shared ready queue and wakes every waiting worker.
func (e *parallel) Enqueue(w *taskrun.Wrapper) {
	e.mu.Lock()
	e.queue = append(e.queue, w)
	e.mu.Unlock()
	e.cond.Broadcast()
}

// next blocks until there is a task to run, the system has gone idle with
// an empty queue (in which case it returns ok=false, the signal to stop),
// or a stop has been requested.
func (e *parallel) next() (w *taskrun.Wrapper, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		if e.done || e.StopRequested() {
			return nil, false
		}
		if len(e.queue) > 0 {
			w := e.queue[0]
			e.queue = e.queue[1:]
			e.inFlight++
			return w, true
		}
		if e.inFlight == 0 {
			e.done = true
			e.cond.Broadcast()
			return nil, false
		}
		e.cond.Wait()
	}
}

func (e *parallel) finishOne() {
	e.mu.Lock()
	e.inFlight--
	idle := e.inFlight == 0 && len(e.queue) == 0
	if idle {
		e.done = true
	}
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *parallel) Execute(ctx context.Context, p *plan.Plan) *ExecutionResult {
	e.stopRequested.Store(false)
	e.mu.Lock()
	e.queue = nil
	e.done = false
	e.inFlight = 0
	e.mu.Unlock()

	if p.StepCount() == 0 {
		return &ExecutionResult{Success: true}
	}

	wrappers, err := buildWrappers(p, e, e.sink)
	if err != nil {
		return &ExecutionResult{
			Success:       false,
			ErrorMessages: []string{err.Error()},
		}
	}
	e.wrappers = wrappers

	start := time.Now()
	for _, idx := range p.InitialReadySteps() {
		if wrappers[idx].MarkQueued() {
			e.Enqueue(wrappers[idx])
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go e.workerLoop(ctx, &wg)
	}
	wg.Wait()

	// Anything never picked up — because its predecessor failed and so
	// never notified it, or because a stop arrived first — settles here.
	for _, w := range wrappers {
		w.Cancel()
	}

	return assembleResult(wrappers, e.cfg.CollectTiming, time.Since(start), e.StopRequested())
}

func (e *parallel) workerLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		if ctx.Err() != nil {
			e.RequestStop()
		}
		w, ok := e.next()
		if !ok {
			return
		}
		w.Run(ctx)
		if e.cfg.AbortOnFailure && w.State() == taskrun.Failed {
			e.RequestStop()
		}
		e.finishOne()
	}
}
