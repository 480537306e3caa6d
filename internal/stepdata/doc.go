// Package stepdata implements stepapi.Data, the concrete storage behind
// one data object. Values are held as cty.Value
// (github.com/zclconf/go-cty), the same structurally-typed representation
// internal/gridconfig uses to decode step arguments, so a step built from
// HCL configuration and a step built by hand share one value vocabulary.
package stepdata
