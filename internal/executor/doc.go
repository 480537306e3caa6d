// Package executor runs a plan's task graph to completion. It exposes one
// interface with a single-threaded reference implementation and a
// parallel, worker-pool implementation behind it, mirroring the spec's
// "abstract base plus two concrete variants" shape.
package executor
