package gridconfig

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a grid file may contain.
type fileRoot struct {
	Steps     []*stepSchema     `hcl:"step,block"`
	StepLinks []*stepLinkSchema `hcl:"link_steps,block"`
	Remain    hcl.Body          `hcl:",remain"`
}

// stepSchema is the HCL shape of a `step "name" { ... }` block.
type stepSchema struct {
	Name    string         `hcl:"name,label"`
	Handler string         `hcl:"handler,optional"`
	Fields  []*fieldSchema `hcl:"field,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

// fieldSchema is the HCL shape of a `field "name" { type = ...; usage = ... }`
// block nested inside a step.
type fieldSchema struct {
	Name   string   `hcl:"name,label"`
	Type   string   `hcl:"type"`
	Usage  string   `hcl:"usage"`
	Remain hcl.Body `hcl:",remain"`
}

// stepLinkSchema is the HCL shape of a `link_steps "before" "after" { trust = ... }`
// block.
type stepLinkSchema struct {
	Before string   `hcl:"before,label"`
	After  string   `hcl:"after,label"`
	Trust  string   `hcl:"trust,optional"`
	Remain hcl.Body `hcl:",remain"`
}
