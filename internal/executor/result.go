package executor

import (
	"fmt"
	"strings"
	"time"
)

// ExecutionResult is the outcome of one Execute call. It is always
// returned, never an error: every way a run can end is represented here.
type ExecutionResult struct {
	Success bool
	Stopped bool

	FailedStepIndices    []int
	ErrorMessages        []string
	CancelledStepIndices []int
	CompletedStepIndices []int

	TotalDuration time.Duration
	// PerStepDurations is nil unless the executor was configured with
	// CollectTiming.
	PerStepDurations []time.Duration
}

// Summary renders a human-readable multi-line description of the result.
func (r *ExecutionResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "execution %s in %s (completed=%d failed=%d cancelled=%d)",
		successWord(r.Success), r.TotalDuration,
		len(r.CompletedStepIndices), len(r.FailedStepIndices), len(r.CancelledStepIndices))
	if r.Stopped {
		b.WriteString(" [stopped]")
	}
	for i, msg := range r.ErrorMessages {
		if i < len(r.FailedStepIndices) {
			fmt.Fprintf(&b, "\n  step %d: %s", r.FailedStepIndices[i], msg)
		} else {
			fmt.Fprintf(&b, "\n  %s", msg)
		}
	}
	return b.String()
}

func successWord(ok bool) string {
	if ok {
		return "succeeded"
	}
	return "failed"
}
