// Package gridconfig loads a declarative, HCL-based description of a task
// graph — steps, their typed fields, and explicit step orderings — and
// turns it into calls against a graphbuilder.Builder. It plays the same
// role for the task-graph core that internal/config and internal/hcl play
// for the grid/module model: a format-agnostic Model produced by parsing,
// kept separate from the parser itself.
//
// gridconfig is optional plumbing. The graph builder and executor are
// fully usable without ever touching HCL; a caller that constructs its
// own stepapi.Step/Field implementations in Go has no reason to import
// this package.
package gridconfig
