// Package app contains the core application logic. It wires gridconfig's
// HCL loader, graphbuilder's graph construction, and an executor together
// into a single run, decoupled from any specific entrypoint like a CLI.
package app
