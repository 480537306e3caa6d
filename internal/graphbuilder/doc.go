// Package graphbuilder turns a sequence of Step and Field handles into a
// validated execution plan. It owns one graph core and the bookkeeping
// needed to translate handle identity into the core's dense indices,
// mirroring the teacher's internal/builder package: register everything,
// validate once, then export.
package graphbuilder
