// Package stepapi defines the boundary contracts an embedder implements to
// plug user code into the graph: Step (a unit of work), Field (a step's
// declared CRD access to a data object), and Data (the concrete storage
// behind one data object, token-checked against the access the execution
// plan granted).
//
// Nothing in this package depends on graphbuilder, plan, taskrun, or
// executor, so all of them can depend on it without creating an import
// cycle.
package stepapi
