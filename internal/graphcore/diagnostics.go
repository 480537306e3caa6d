package graphcore

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies a diagnostic item.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "Error"
	}
	return "Warning"
}

// Category names the kind of condition a diagnostic item reports.
type Category int

const (
	CategoryMultipleCreate Category = iota
	CategoryMultipleDestroy
	CategoryUnsafeSelfAliasing
	CategoryMissingCreate
	CategoryOrphanStep
	CategoryUnusedData
	CategoryCycle
)

func (c Category) String() string {
	switch c {
	case CategoryMultipleCreate:
		return "MultipleCreate"
	case CategoryMultipleDestroy:
		return "MultipleDestroy"
	case CategoryUnsafeSelfAliasing:
		return "UnsafeSelfAliasing"
	case CategoryMissingCreate:
		return "MissingCreate"
	case CategoryOrphanStep:
		return "OrphanStep"
	case CategoryUnusedData:
		return "UnusedData"
	case CategoryCycle:
		return "Cycle"
	default:
		return "Unknown"
	}
}

// Item is one diagnostic finding, with the steps and fields it implicates
// and blame-ranked link suspects (sorted by trust ascending, Low first).
type Item struct {
	Severity        Severity
	Category        Category
	Message         string
	InvolvedSteps   []int
	InvolvedFields  []int
	BlamedFieldLink []int
	BlamedStepLink  []int
}

// Diagnostics is the structured result of GetDiagnostics. It satisfies
// crderrors.DiagnosticsReport via Summary.
type Diagnostics struct {
	Errors   []Item
	Warnings []Item
}

// IsValid reports whether the diagnostics contain no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Summary renders a multi-line, human-readable report.
func (d *Diagnostics) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s), %d warning(s)", len(d.Errors), len(d.Warnings))
	for _, it := range d.Errors {
		fmt.Fprintf(&b, "\n  [Error] %s: %s (steps=%v fields=%v)", it.Category, it.Message, it.InvolvedSteps, it.InvolvedFields)
	}
	for _, it := range d.Warnings {
		fmt.Fprintf(&b, "\n  [Warning] %s: %s (steps=%v fields=%v)", it.Category, it.Message, it.InvolvedSteps, it.InvolvedFields)
	}
	return b.String()
}

type fieldInfo struct {
	field int
	step  int
	usage Usage
}

// GetDiagnostics never mutates the graph. When treatAsSealed is true, a
// data object with no Create field is reported as an Error; otherwise as a
// a Warning, so that the user can keep building incrementally. All other
// diagnostics have fixed severity.
func (c *Core) GetDiagnostics(treatAsSealed bool) *Diagnostics {
	d := &Diagnostics{}

	classes := c.equivalenceClasses()

	roots := make([]uint32, 0, len(classes))
	for root := range classes {
		roots = append(roots, root)
	}
	// classes[root][0] is always the lowest field index in that class: f is
	// walked ascending when equivalenceClasses groups by current root, so
	// the first field appended to each bucket is its minimum member.
	sort.Slice(roots, func(i, j int) bool { return classes[roots[i]][0].field < classes[roots[j]][0].field })

	for _, root := range roots {
		fields := classes[root]
		c.checkUsageConstraints(d, fields, treatAsSealed)
	}

	c.checkOrphans(d, classes)
	c.checkCycles(d)

	return d
}

// equivalenceClasses groups every field by its union-find root, in
// ascending field-index order within each class.
func (c *Core) equivalenceClasses() map[uint32][]fieldInfo {
	classes := make(map[uint32][]fieldInfo)
	for f := 0; f < len(c.fieldOwnerStep); f++ {
		root, err := c.uf.Find(uint32(f))
		if err != nil {
			// Every field index registered via AddField has a corresponding
			// union-find element; this would indicate an internal
			// inconsistency rather than a user error.
			panic(err)
		}
		classes[root] = append(classes[root], fieldInfo{field: f, step: c.fieldOwnerStep[f], usage: c.fieldUsage[f]})
	}
	return classes
}

func (c *Core) checkUsageConstraints(d *Diagnostics, fields []fieldInfo, treatAsSealed bool) {
	var creates, destroys []int
	stepUsages := make(map[int][]int) // step -> field indices
	for _, fi := range fields {
		stepUsages[fi.step] = append(stepUsages[fi.step], fi.field)
		switch fi.usage {
		case Create:
			creates = append(creates, fi.field)
		case Destroy:
			destroys = append(destroys, fi.field)
		}
	}

	if len(creates) > 1 {
		item := Item{Severity: SeverityError, Category: CategoryMultipleCreate, Message: "multiple create fields for the same data object"}
		item.InvolvedFields = append(item.InvolvedFields, creates...)
		for _, f := range creates {
			item.InvolvedSteps = append(item.InvolvedSteps, c.fieldOwnerStep[f])
		}
		c.addFieldLinkBlame(&item, item.InvolvedFields)
		d.Errors = append(d.Errors, item)
	}

	if len(destroys) > 1 {
		item := Item{Severity: SeverityError, Category: CategoryMultipleDestroy, Message: "multiple destroy fields for the same data object"}
		item.InvolvedFields = append(item.InvolvedFields, destroys...)
		for _, f := range destroys {
			item.InvolvedSteps = append(item.InvolvedSteps, c.fieldOwnerStep[f])
		}
		c.addFieldLinkBlame(&item, item.InvolvedFields)
		d.Errors = append(d.Errors, item)
	}

	if len(creates) == 0 {
		if len(fields) == 1 {
			// Singleton Read or Destroy: covered by MissingCreate, not
			// UnusedData.
			item := Item{Severity: missingCreateSeverity(treatAsSealed), Category: CategoryMissingCreate, Message: "data object has no create field"}
			item.InvolvedFields = append(item.InvolvedFields, fields[0].field)
			item.InvolvedSteps = append(item.InvolvedSteps, fields[0].step)
			d.pushMissingCreate(item)
		} else {
			item := Item{Severity: missingCreateSeverity(treatAsSealed), Category: CategoryMissingCreate, Message: "data object has no create field"}
			var all []int
			for _, fi := range fields {
				item.InvolvedFields = append(item.InvolvedFields, fi.field)
				item.InvolvedSteps = append(item.InvolvedSteps, fi.step)
				all = append(all, fi.field)
			}
			c.addFieldLinkBlame(&item, all)
			d.pushMissingCreate(item)
		}
	} else if len(fields) == 1 {
		// Singleton class whose sole member is a Create field: nothing
		// ever reads or destroys it.
		item := Item{Severity: SeverityWarning, Category: CategoryUnusedData, Message: "data object is created but never read or destroyed"}
		item.InvolvedFields = append(item.InvolvedFields, fields[0].field)
		item.InvolvedSteps = append(item.InvolvedSteps, fields[0].step)
		d.Warnings = append(d.Warnings, item)
	}

	steps := make([]int, 0, len(stepUsages))
	for step := range stepUsages {
		steps = append(steps, step)
	}
	sort.Ints(steps)

	for _, step := range steps {
		fieldsForStep := stepUsages[step]
		if len(fieldsForStep) <= 1 {
			continue
		}
		usages := make([]Usage, len(fieldsForStep))
		for i, f := range fieldsForStep {
			usages[i] = c.fieldUsage[f]
		}
		if allRead(usages) {
			continue
		}
		item := Item{Severity: SeverityError, Category: CategoryUnsafeSelfAliasing, Message: fmt.Sprintf("step %d has incompatible field usages for the same data object", step)}
		item.InvolvedSteps = append(item.InvolvedSteps, step)
		item.InvolvedFields = append(item.InvolvedFields, fieldsForStep...)
		c.addFieldLinkBlame(&item, item.InvolvedFields)
		d.Errors = append(d.Errors, item)
	}
}

func missingCreateSeverity(treatAsSealed bool) Severity {
	if treatAsSealed {
		return SeverityError
	}
	return SeverityWarning
}

func (d *Diagnostics) pushMissingCreate(item Item) {
	if item.Severity == SeverityError {
		d.Errors = append(d.Errors, item)
	} else {
		d.Warnings = append(d.Warnings, item)
	}
}

func (c *Core) checkOrphans(d *Diagnostics, classes map[uint32][]fieldInfo) {
	stepHasLink := make([]bool, len(c.stepFields))
	for _, l := range c.explicitLinks {
		stepHasLink[l.Before] = true
		stepHasLink[l.After] = true
	}

	for s := 0; s < len(c.stepFields); s++ {
		if len(c.stepFields[s]) == 0 && !stepHasLink[s] {
			item := Item{Severity: SeverityWarning, Category: CategoryOrphanStep, Message: fmt.Sprintf("step %d has no fields and no links", s)}
			item.InvolvedSteps = append(item.InvolvedSteps, s)
			d.Warnings = append(d.Warnings, item)
		}
	}
}

func (c *Core) checkCycles(d *Diagnostics) {
	combined := c.combinedStepLinks()

	n := len(c.stepFields)
	if n == 0 {
		return
	}
	inDegree := make([]int, n)
	successors := make([][]int, n)
	for _, e := range combined {
		successors[e.Before] = append(successors[e.Before], e.After)
		inDegree[e.After]++
	}

	var ready []int
	for s := 0; s < n; s++ {
		if inDegree[s] == 0 {
			ready = append(ready, s)
		}
	}

	processed := 0
	for len(ready) > 0 {
		s := ready[0]
		ready = ready[1:]
		processed++
		for _, succ := range successors[s] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}

	if processed < n {
		item := Item{Severity: SeverityError, Category: CategoryCycle, Message: "cycle detected in step ordering"}
		for s := 0; s < n; s++ {
			if inDegree[s] > 0 {
				item.InvolvedSteps = append(item.InvolvedSteps, s)
			}
		}
		c.addStepLinkBlame(&item, item.InvolvedSteps)
		d.Errors = append(d.Errors, item)
	}
}

// addFieldLinkBlame appends, sorted by trust ascending, the index of every
// recorded field link touching any of involvedFields.
func (c *Core) addFieldLinkBlame(item *Item, involvedFields []int) {
	set := make(map[int]bool, len(involvedFields))
	for _, f := range involvedFields {
		set[f] = true
	}
	type blamed struct {
		idx   int
		trust TrustLevel
	}
	var candidates []blamed
	for i, l := range c.fieldLinks {
		if set[l.F1] || set[l.F2] {
			candidates = append(candidates, blamed{idx: i, trust: l.Trust})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].trust < candidates[j].trust })
	for _, b := range candidates {
		item.BlamedFieldLink = append(item.BlamedFieldLink, b.idx)
	}
}

// addStepLinkBlame appends, sorted by trust ascending, the index of every
// recorded explicit step link whose both endpoints lie in involvedSteps.
func (c *Core) addStepLinkBlame(item *Item, involvedSteps []int) {
	set := make(map[int]bool, len(involvedSteps))
	for _, s := range involvedSteps {
		set[s] = true
	}
	type blamed struct {
		idx   int
		trust TrustLevel
	}
	var candidates []blamed
	for i, l := range c.explicitLinks {
		if set[l.Before] && set[l.After] {
			candidates = append(candidates, blamed{idx: i, trust: l.Trust})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].trust < candidates[j].trust })
	for _, b := range candidates {
		item.BlamedStepLink = append(item.BlamedStepLink, b.idx)
	}
}
