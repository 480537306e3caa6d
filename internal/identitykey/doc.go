// Package identitykey implements a non-dereferenceable, hashable identifier
// derived from a pointer's address.
//
// Key[T] captures a *T's address at construction time. It cannot be used to
// recover the pointer; it serves only for identity comparison and hashing.
// It is non-owning: correctness of identity lookups after construction
// requires that the referent outlive any key used to look it up, which is
// normally ensured by a registry holding a strong reference (see
// internal/ptrregistry).
package identitykey
