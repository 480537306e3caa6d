// Package plan implements the immutable execution plan a graph builder
// composes once a graph core has been validated and exported: step and
// data-object handles in dense index order, per-step predecessor counts
// and deduplicated successor lists, the token each step was granted, and
// each step's access rights over its data objects.
package plan
