package taskrun

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kenwatanabe/taskcrdgo/internal/ptrregistry"
	"github.com/kenwatanabe/taskcrdgo/internal/stepapi"
)

// Notifier is the executor-facing half of a task wrapper's contract:
// enqueue a now-ready task, and learn when one has settled into a terminal
// state. A Wrapper holds its owning executor only through this interface,
// never through a concrete reference — Go's tracing collector reclaims the
// wrapper/executor reference cycle on its own, so nothing here needs the
// weak-pointer indirection a reference-counted runtime would require.
type Notifier interface {
	Enqueue(w *Wrapper)
	NotifyCompletion(w *Wrapper)
	StopRequested() bool
}

// Wrapper is the per-step runtime object an executor drives: lifecycle
// state, outstanding-predecessor counter, and the successor list it
// notifies on completion. Successors are held only by weak reference —
// ownership of every Wrapper in a plan is anchored in the executor's own
// step-indexed slice, per the spec's "weak references to successor
// wrappers" contract — which a ptrregistry.Registry implements directly.
type Wrapper struct {
	step      stepapi.Step
	stepIndex int
	token     stepapi.Token
	notifier  Notifier

	successors *ptrregistry.Registry[Wrapper]

	state     atomic.Int32
	predCount atomic.Int32

	startedAt time.Time
	duration  time.Duration
	taskErr   error

	onTransition func(State)
}

// New returns a Wrapper for step at stepIndex, holding token, not yet
// wired to any predecessors or successors. predecessorCount is the number
// of distinct predecessors the plan assigned this step; a step with zero
// predecessors starts Ready instead of NotReady.
func New(step stepapi.Step, stepIndex int, token stepapi.Token, notifier Notifier, predecessorCount int) *Wrapper {
	w := &Wrapper{
		step:       step,
		stepIndex:  stepIndex,
		token:      token,
		notifier:   notifier,
		successors: ptrregistry.New[Wrapper](),
	}
	w.predCount.Store(int32(predecessorCount))
	if predecessorCount == 0 {
		w.state.Store(int32(Ready))
	} else {
		w.state.Store(int32(NotReady))
	}
	return w
}

// SetOnTransition installs fn to be called after every subsequent state
// transition this wrapper makes. It is not called for the initial state
// set by New; a caller that needs that should read State() itself right
// after wiring the callback.
func (w *Wrapper) SetOnTransition(fn func(State)) {
	w.onTransition = fn
}

// StepIndex returns the plan index of the wrapped step.
func (w *Wrapper) StepIndex() int { return w.stepIndex }

// Token returns the token the plan granted this step.
func (w *Wrapper) Token() stepapi.Token { return w.token }

// State returns the wrapper's current lifecycle state.
func (w *Wrapper) State() State { return State(w.state.Load()) }

// Err returns the captured execute failure, if the wrapper ended Failed.
func (w *Wrapper) Err() error { return w.taskErr }

// Duration returns how long the wrapped step's execute call ran. Zero
// until the task has run.
func (w *Wrapper) Duration() time.Duration { return w.duration }

func (w *Wrapper) cas(from, to State) bool {
	ok := w.state.CompareAndSwap(int32(from), int32(to))
	if ok && w.onTransition != nil {
		w.onTransition(to)
	}
	return ok
}

func (w *Wrapper) store(to State) {
	w.state.Store(int32(to))
	if w.onTransition != nil {
		w.onTransition(to)
	}
}

// AddSuccessor registers succ as a task this wrapper notifies on
// completion. The registry stores it weakly: succ's lifetime is anchored
// by the executor's own step slice, not by this wrapper.
func (w *Wrapper) AddSuccessor(succ *Wrapper) error {
	idx, err := w.successors.Insert(succ)
	if err != nil {
		return err
	}
	return w.successors.Weaken(idx)
}

// DecrementPredecessorCount atomically decrements the outstanding
// predecessor count. The single call that observes the count reach zero
// also transitions the wrapper from NotReady to Ready and returns true;
// every other caller returns false.
func (w *Wrapper) DecrementPredecessorCount() bool {
	remaining := w.predCount.Add(-1)
	if remaining != 0 {
		return false
	}
	return w.cas(NotReady, Ready)
}

// MarkQueued transitions the wrapper from Ready to Queued, the step an
// executor takes for every initially-ready task before its first run
// through the loop. Returns false if the wrapper was not Ready.
func (w *Wrapper) MarkQueued() bool {
	return w.cas(Ready, Queued)
}

// Cancel transitions the wrapper to Cancelled from any non-terminal state
// prior to Executing. Returns false if the wrapper had already started
// executing or settled.
func (w *Wrapper) Cancel() bool {
	for _, from := range []State{NotReady, Ready, Queued} {
		if w.cas(from, Cancelled) {
			return true
		}
	}
	return false
}

// Run executes the wrapped step and cascades completion to successors.
// It never panics the caller with the step's own failure: execute errors
// are captured into Err and reflected in the final state.
func (w *Wrapper) Run(ctx context.Context) {
	if w.notifier == nil || w.notifier.StopRequested() {
		w.cas(Queued, Cancelled)
		w.notifyExecutorCompletion()
		return
	}
	if !w.cas(Queued, Executing) {
		w.notifyExecutorCompletion()
		return
	}

	w.startedAt = time.Now()
	err := w.guardedExecute(ctx)
	w.duration = time.Since(w.startedAt)

	if err != nil {
		w.taskErr = err
		w.store(Failed)
		// A failed task does not notify successors: they observe a
		// predecessor that never decremented and remain NotReady, which
		// settles them to Cancelled once the executor stops rather than
		// propagating failure as if it were completion.
	} else {
		w.store(Succeeded)
		w.notifySuccessors()
	}

	w.notifyExecutorCompletion()
}

// guardedExecute recovers a panicking step so one misbehaving callback
// cannot take the whole executor down with it; the spec's captured-error
// slot is the portable substitute for an in-band exception.
func (w *Wrapper) guardedExecute(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %q panicked: %v", w.step.UniqueName(), r)
		}
	}()
	return w.step.Execute(ctx)
}

func (w *Wrapper) notifySuccessors() {
	w.successors.Enumerate(func(_ int, succ *Wrapper, _ bool, expired bool) {
		if expired || succ == nil {
			return
		}
		if !succ.DecrementPredecessorCount() {
			return
		}
		if succ.cas(Ready, Queued) {
			w.notifier.Enqueue(succ)
		}
	})
}

func (w *Wrapper) notifyExecutorCompletion() {
	if w.notifier != nil {
		w.notifier.NotifyCompletion(w)
	}
}
