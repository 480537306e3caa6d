package graphcore

import (
	"fmt"
	"reflect"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
	"github.com/kenwatanabe/taskcrdgo/internal/disjoint"
)

// Core holds the step/field/link state of one task graph.
//
// Not safe for concurrent use; callers synchronize externally.
type Core struct {
	eager bool

	stepFields [][]int

	fieldOwnerStep []int
	fieldType      []reflect.Type
	fieldUsage     []Usage

	explicitLinks []StepLink
	fieldLinks    []FieldLink

	uf *disjoint.Set[uint32]

	// successors is only populated in eager mode, to support incremental
	// reachability checks before recording a new edge.
	successors [][]int
}

// New returns an empty Core. eager selects eager (synchronous) validation
// of usage/cycle violations; false selects deferred validation, where such
// violations surface only from GetDiagnostics. Index and type violations,
// and step self-loops, fail at the mutating call in both modes.
func New(eager bool) *Core {
	return &Core{uf: disjoint.New[uint32](), eager: eager}
}

// StepCount returns the number of steps added so far.
func (c *Core) StepCount() int {
	return len(c.stepFields)
}

// FieldCount returns the number of fields added so far.
func (c *Core) FieldCount() int {
	return len(c.fieldOwnerStep)
}

func (c *Core) validateStepExists(idx int) error {
	if idx < 0 || idx >= len(c.stepFields) {
		return fmt.Errorf("%w: step index %d does not exist", crderrors.ErrInvalidStepIndex, idx)
	}
	return nil
}

func (c *Core) validateFieldExists(idx int) error {
	if idx < 0 || idx >= len(c.fieldOwnerStep) {
		return fmt.Errorf("%w: field index %d does not exist", crderrors.ErrInvalidFieldIndex, idx)
	}
	return nil
}

// AddStep registers the next step. stepIdx must equal StepCount().
func (c *Core) AddStep(stepIdx int) error {
	if stepIdx != len(c.stepFields) {
		if stepIdx < len(c.stepFields) {
			return fmt.Errorf("%w: step index %d already exists", crderrors.ErrDuplicateStepIndex, stepIdx)
		}
		return fmt.Errorf("%w: step index %d is out of sequence; expected %d", crderrors.ErrInvalidStepIndex, stepIdx, len(c.stepFields))
	}
	c.stepFields = append(c.stepFields, nil)
	if c.eager {
		c.successors = append(c.successors, nil)
	}
	return nil
}

// AddField registers the next field, owned by stepIdx, tagged with typ and
// usage. fieldIdx must equal FieldCount().
func (c *Core) AddField(stepIdx, fieldIdx int, typ reflect.Type, usage Usage) error {
	if err := c.validateStepExists(stepIdx); err != nil {
		return err
	}
	if fieldIdx != len(c.fieldOwnerStep) {
		if fieldIdx < len(c.fieldOwnerStep) {
			return fmt.Errorf("%w: field index %d already exists", crderrors.ErrDuplicateFieldIndex, fieldIdx)
		}
		return fmt.Errorf("%w: field index %d is out of sequence; expected %d", crderrors.ErrInvalidFieldIndex, fieldIdx, len(c.fieldOwnerStep))
	}

	if _, err := c.uf.MakeSet(); err != nil {
		return err
	}

	c.stepFields[stepIdx] = append(c.stepFields[stepIdx], fieldIdx)
	c.fieldOwnerStep = append(c.fieldOwnerStep, stepIdx)
	c.fieldType = append(c.fieldType, typ)
	c.fieldUsage = append(c.fieldUsage, usage)
	return nil
}

// canReach reports whether to is reachable from from via the eager
// successor graph. Only meaningful in eager mode.
func (c *Core) canReach(from, to int) bool {
	if from == to {
		return true
	}
	visited := make([]bool, len(c.successors))
	stack := []int{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		for _, s := range c.successors[n] {
			if s == to {
				return true
			}
			if !visited[s] {
				stack = append(stack, s)
			}
		}
	}
	return false
}

// LinkSteps records an explicit ordering constraint before -> after.
// Self-loops always fail with CycleDetected. In eager mode, a constraint
// that would let after already reach before fails with CycleDetected too.
func (c *Core) LinkSteps(before, after int, trust TrustLevel) error {
	if err := c.validateStepExists(before); err != nil {
		return err
	}
	if err := c.validateStepExists(after); err != nil {
		return err
	}
	if before == after {
		return fmt.Errorf("%w: cannot link step %d to itself", crderrors.ErrCycleDetected, before)
	}
	if c.eager && c.canReach(after, before) {
		return fmt.Errorf("%w: step %d can already reach step %d", crderrors.ErrCycleDetected, after, before)
	}
	c.explicitLinks = append(c.explicitLinks, StepLink{Before: before, After: after, Trust: trust})
	if c.eager {
		c.successors[before] = append(c.successors[before], after)
	}
	return nil
}

// LinkFields unites the equivalence classes of f1 and f2, recording trust
// for blame bookkeeping. Self-links (f1 == f2) are no-ops. In eager mode,
// the merge is validated before being committed: on any failure the graph
// is left exactly as it was before the call.
func (c *Core) LinkFields(f1, f2 int, trust TrustLevel) error {
	if err := c.validateFieldExists(f1); err != nil {
		return err
	}
	if err := c.validateFieldExists(f2); err != nil {
		return err
	}
	if f1 == f2 {
		return nil
	}
	if c.fieldType[f1] != c.fieldType[f2] {
		return fmt.Errorf("%w: field %d (%s) and field %d (%s)", crderrors.ErrTypeMismatch, f1, c.fieldType[f1], f2, c.fieldType[f2])
	}

	same, err := c.uf.SameClass(uint32(f1), uint32(f2))
	if err != nil {
		return err
	}
	if same {
		c.fieldLinks = append(c.fieldLinks, FieldLink{F1: f1, F2: f2, Trust: trust})
		return nil
	}

	if c.eager {
		if err := c.validateMerge(f1, f2); err != nil {
			return err
		}
	}

	if _, err := c.uf.Unite(uint32(f1), uint32(f2)); err != nil {
		return err
	}
	c.fieldLinks = append(c.fieldLinks, FieldLink{F1: f1, F2: f2, Trust: trust})
	return nil
}

// validateMerge runs the eager-mode pre-union checks for merging the
// classes containing f1 and f2: usage-constraint checks across the
// combined membership, then cycle checks for every cross-class implicit
// edge the merge would induce. On success, accepted edges are committed
// to c.successors; on any failure, none are.
func (c *Core) validateMerge(f1, f2 int) error {
	membersA, err := c.uf.GetClassMembers(uint32(f1), nil)
	if err != nil {
		return err
	}
	membersB, err := c.uf.GetClassMembers(uint32(f2), nil)
	if err != nil {
		return err
	}

	creates, destroys := 0, 0
	stepUsages := make(map[int][]Usage)
	all := append(append([]uint32{}, membersA...), membersB...)
	for _, m := range all {
		u := c.fieldUsage[m]
		switch u {
		case Create:
			creates++
		case Destroy:
			destroys++
		}
		s := c.fieldOwnerStep[m]
		stepUsages[s] = append(stepUsages[s], u)
	}
	if creates > 1 {
		return fmt.Errorf("%w: merging fields %d and %d would give their data object more than one create field", crderrors.ErrMultipleCreate, f1, f2)
	}
	if destroys > 1 {
		return fmt.Errorf("%w: merging fields %d and %d would give their data object more than one destroy field", crderrors.ErrMultipleDestroy, f1, f2)
	}
	for s, usages := range stepUsages {
		if len(usages) > 1 && !allRead(usages) {
			return fmt.Errorf("%w: step %d would have incompatible field usages for the same data object", crderrors.ErrUnsafeSelfAliasing, s)
		}
	}

	type edge struct{ from, to int }
	var newEdges []edge
	for _, a := range membersA {
		for _, b := range membersB {
			sa, sb := c.fieldOwnerStep[a], c.fieldOwnerStep[b]
			if sa == sb {
				continue
			}
			ua, ub := c.fieldUsage[a], c.fieldUsage[b]
			switch {
			case ua.Rank() < ub.Rank():
				newEdges = append(newEdges, edge{from: sa, to: sb})
			case ua.Rank() > ub.Rank():
				newEdges = append(newEdges, edge{from: sb, to: sa})
			}
		}
	}

	committed := 0
	for _, e := range newEdges {
		if c.canReach(e.to, e.from) {
			// Roll back everything this call already committed.
			for i := 0; i < committed; i++ {
				se := newEdges[i]
				c.successors[se.from] = c.successors[se.from][:len(c.successors[se.from])-1]
			}
			return fmt.Errorf("%w: linking fields %d and %d would close a cycle between step %d and step %d", crderrors.ErrCycleDetected, f1, f2, e.from, e.to)
		}
		c.successors[e.from] = append(c.successors[e.from], e.to)
		committed++
	}
	return nil
}

func allRead(usages []Usage) bool {
	for _, u := range usages {
		if u != Read {
			return false
		}
	}
	return true
}
