// Package disjoint implements a union-by-rank, path-compressing disjoint-set
// (union-find) over dense nonnegative integer indices, extended with an
// intrusive circular linked list per class so that class membership can be
// enumerated in O(class size) instead of O(n).
//
// Set is not safe for concurrent use; callers synchronize externally, the
// same contract the graph core relies on for its field-equivalence tracking.
package disjoint
