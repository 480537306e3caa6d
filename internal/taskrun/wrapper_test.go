package taskrun

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kenwatanabe/taskcrdgo/internal/stepapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStep struct {
	name string
	fn   func(ctx context.Context) error
}

func (s *fakeStep) Execute(ctx context.Context) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx)
}
func (s *fakeStep) Fields() []stepapi.Field { return nil }
func (s *fakeStep) ClassName() string       { return "fakeStep" }
func (s *fakeStep) FriendlyName() string    { return s.name }
func (s *fakeStep) UniqueName() string      { return s.name }

type fakeNotifier struct {
	mu        sync.Mutex
	enqueued  []*Wrapper
	completed []*Wrapper
	stop      bool
}

func (n *fakeNotifier) Enqueue(w *Wrapper) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enqueued = append(n.enqueued, w)
}
func (n *fakeNotifier) NotifyCompletion(w *Wrapper) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, w)
}
func (n *fakeNotifier) StopRequested() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stop
}

func TestNewStartsReadyWithoutPredecessors(t *testing.T) {
	w := New(&fakeStep{name: "s0"}, 0, 1, &fakeNotifier{}, 0)
	assert.Equal(t, Ready, w.State())
}

func TestNewStartsNotReadyWithPredecessors(t *testing.T) {
	w := New(&fakeStep{name: "s0"}, 0, 1, &fakeNotifier{}, 2)
	assert.Equal(t, NotReady, w.State())
}

func TestDecrementPredecessorCountReachesZeroOnce(t *testing.T) {
	w := New(&fakeStep{name: "s0"}, 0, 1, &fakeNotifier{}, 2)

	assert.False(t, w.DecrementPredecessorCount())
	assert.Equal(t, NotReady, w.State())
	assert.True(t, w.DecrementPredecessorCount())
	assert.Equal(t, Ready, w.State())
}

func TestRunSucceeds(t *testing.T) {
	n := &fakeNotifier{}
	w := New(&fakeStep{name: "s0"}, 0, 1, n, 0)
	w.cas(Ready, Queued)

	w.Run(context.Background())

	assert.Equal(t, Succeeded, w.State())
	require.Len(t, n.completed, 1)
	assert.Same(t, w, n.completed[0])
}

func TestRunCapturesFailure(t *testing.T) {
	n := &fakeNotifier{}
	boom := errors.New("boom")
	w := New(&fakeStep{name: "s0", fn: func(context.Context) error { return boom }}, 0, 1, n, 0)
	w.cas(Ready, Queued)

	w.Run(context.Background())

	assert.Equal(t, Failed, w.State())
	assert.ErrorIs(t, w.Err(), boom)
}

func TestRunRecoversPanic(t *testing.T) {
	n := &fakeNotifier{}
	w := New(&fakeStep{name: "s0", fn: func(context.Context) error { panic("kaboom") }}, 0, 1, n, 0)
	w.cas(Ready, Queued)

	w.Run(context.Background())

	assert.Equal(t, Failed, w.State())
	require.Error(t, w.Err())
	assert.Contains(t, w.Err().Error(), "kaboom")
}

func TestRunCancelsWhenStopRequested(t *testing.T) {
	n := &fakeNotifier{stop: true}
	w := New(&fakeStep{name: "s0"}, 0, 1, n, 0)
	w.cas(Ready, Queued)

	w.Run(context.Background())

	assert.Equal(t, Cancelled, w.State())
	require.Len(t, n.completed, 1)
}

func TestRunNotifiesSuccessorAndEnqueues(t *testing.T) {
	n := &fakeNotifier{}
	parent := New(&fakeStep{name: "p"}, 0, 1, n, 0)
	child := New(&fakeStep{name: "c"}, 1, 2, n, 1)
	require.NoError(t, parent.AddSuccessor(child))

	parent.cas(Ready, Queued)
	parent.Run(context.Background())

	assert.Equal(t, Succeeded, parent.State())
	assert.Equal(t, Queued, child.State())
	require.Len(t, n.enqueued, 1)
	assert.Same(t, child, n.enqueued[0])
}

func TestCancelFromReady(t *testing.T) {
	w := New(&fakeStep{name: "s0"}, 0, 1, &fakeNotifier{}, 0)
	assert.True(t, w.Cancel())
	assert.Equal(t, Cancelled, w.State())
}

func TestCancelFailsOnceExecuting(t *testing.T) {
	w := New(&fakeStep{name: "s0"}, 0, 1, &fakeNotifier{}, 0)
	w.cas(Ready, Queued)
	w.cas(Queued, Executing)
	assert.False(t, w.Cancel())
}
