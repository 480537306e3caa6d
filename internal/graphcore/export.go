package graphcore

import (
	"fmt"
	"reflect"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
)

// FieldUsageRecord is one field's contribution to a data object, as seen
// from the exported graph.
type FieldUsageRecord struct {
	Step  int
	Field int
	Usage Usage
}

// DataInfo describes one data object: the type every linked field shares,
// and every (step, field, usage) record that belongs to it.
type DataInfo struct {
	Data  int
	Type  reflect.Type
	Usage []FieldUsageRecord
}

// FieldDataPair maps one field to the data object it belongs to.
type FieldDataPair struct {
	Field int
	Data  int
}

// ExportedGraph is the immutable result of a successful ExportGraph call.
type ExportedGraph struct {
	FieldDataPairs    []FieldDataPair
	DataInfos         []DataInfo
	ExplicitStepLinks []StepLink
	ImplicitStepLinks []StepLink
	CombinedStepLinks []StepLink
}

// implicitStepLinksFor returns every Create/Read/Destroy cross-product
// edge for one data object's usage records, skipping step == step.
func implicitStepLinksFor(usage []FieldUsageRecord) []StepLink {
	var creates, reads, destroys []int
	for _, u := range usage {
		switch u.Usage {
		case Create:
			creates = append(creates, u.Step)
		case Read:
			reads = append(reads, u.Step)
		case Destroy:
			destroys = append(destroys, u.Step)
		}
	}

	var links []StepLink
	for _, cs := range creates {
		for _, rs := range reads {
			if cs != rs {
				links = append(links, StepLink{Before: cs, After: rs})
			}
		}
	}
	for _, cs := range creates {
		for _, ds := range destroys {
			if cs != ds {
				links = append(links, StepLink{Before: cs, After: ds})
			}
		}
	}
	for _, rs := range reads {
		for _, ds := range destroys {
			if rs != ds {
				links = append(links, StepLink{Before: rs, After: ds})
			}
		}
	}
	return links
}

// combinedStepLinks concatenates the explicit links with every implicit
// link derivable from the current field equivalence classes. Used both by
// cycle detection and by ExportGraph.
func (c *Core) combinedStepLinks() []StepLink {
	classes := c.equivalenceClasses()
	roots := make([]uint32, 0, len(classes))
	for root := range classes {
		roots = append(roots, root)
	}

	combined := append([]StepLink{}, c.explicitLinks...)
	for _, root := range roots {
		fields := classes[root]
		usage := make([]FieldUsageRecord, len(fields))
		for i, fi := range fields {
			usage[i] = FieldUsageRecord{Step: fi.step, Field: fi.field, Usage: fi.usage}
		}
		combined = append(combined, implicitStepLinksFor(usage)...)
	}
	return combined
}

// ExportGraph validates the graph as sealed (GetDiagnostics(true)) and,
// if it has no errors, emits the dense data-object view consumed by the
// graph builder to compose an execution plan.
func (c *Core) ExportGraph() (*ExportedGraph, error) {
	diagnostics := c.GetDiagnostics(true)
	if !diagnostics.IsValid() {
		return nil, fmt.Errorf("%w: cannot export a graph with unresolved errors", crderrors.ErrInvalidState)
	}

	rootToData := make(map[uint32]int)
	var dataInfoByIdx []DataInfo
	var fieldDataPairs []FieldDataPair

	for f := 0; f < len(c.fieldOwnerStep); f++ {
		root, err := c.uf.Find(uint32(f))
		if err != nil {
			panic(err)
		}
		didx, ok := rootToData[root]
		if !ok {
			didx = len(dataInfoByIdx)
			rootToData[root] = didx
			dataInfoByIdx = append(dataInfoByIdx, DataInfo{Data: didx, Type: c.fieldType[f]})
		}
		fieldDataPairs = append(fieldDataPairs, FieldDataPair{Field: f, Data: didx})
		dataInfoByIdx[didx].Usage = append(dataInfoByIdx[didx].Usage, FieldUsageRecord{
			Step:  c.fieldOwnerStep[f],
			Field: f,
			Usage: c.fieldUsage[f],
		})
	}

	var implicit []StepLink
	for _, info := range dataInfoByIdx {
		implicit = append(implicit, implicitStepLinksFor(info.Usage)...)
	}

	combined := append([]StepLink{}, c.explicitLinks...)
	combined = append(combined, implicit...)

	return &ExportedGraph{
		FieldDataPairs:    fieldDataPairs,
		DataInfos:         dataInfoByIdx,
		ExplicitStepLinks: append([]StepLink{}, c.explicitLinks...),
		ImplicitStepLinks: implicit,
		CombinedStepLinks: combined,
	}, nil
}
