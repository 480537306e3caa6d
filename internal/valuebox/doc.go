// Package valuebox implements a type-erased, shared-ownership container
// holding at most one value of any type, with type-tag checked access.
//
// A Box is empty iff its stored type tag is nil. Typed access goes through
// the package-level generic functions (As, TryAs, Get, Release) rather than
// generic methods, since Go methods cannot introduce their own type
// parameters.
package valuebox
