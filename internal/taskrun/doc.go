// Package taskrun implements the per-step task wrapper an executor drives:
// an atomic lifecycle state machine, an atomic outstanding-predecessor
// counter, and the notify-on-completion cascade that wakes a step's
// successors once every one of their predecessors has succeeded.
package taskrun
