// Package graphcore implements the central validated representation of a
// task graph: steps, the fields they declare, the CRD usage each field
// carries against some data object, explicit step ordering, and field
// links that merge fields into data-object equivalence classes.
//
// Core is single-threaded; all mutating operations require exclusive
// access. A construction-time flag selects eager validation (usage/cycle
// violations raised synchronously at the mutating call) or deferred
// validation (usage/cycle violations collected by GetDiagnostics on
// demand). Index and type violations fail at the mutating call either way.
// Field equivalence is tracked with internal/disjoint so that class
// membership can be enumerated without a full field scan.
package graphcore
