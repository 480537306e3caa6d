package gridconfig

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kenwatanabe/taskcrdgo/internal/graphcore"
	"github.com/kenwatanabe/taskcrdgo/internal/stepapi"
	"github.com/zclconf/go-cty/cty"
)

// StepField is a handler's view of one of its owning step's fields: the
// usage it declared and the token-bound read/write operations over its
// data object. Handlers never see a raw stepapi.Data or stepapi.Token;
// SetValue/GetValue's token argument is always the token the graph
// builder granted the owning step.
type StepField struct {
	name  string
	usage graphcore.Usage
	data  stepapi.Data
	token stepapi.Token
}

// Name returns the field's declared name.
func (f *StepField) Name() string { return f.name }

// Usage returns the field's declared CRD usage.
func (f *StepField) Usage() graphcore.Usage { return f.usage }

// Set writes value to the field's data object. Valid only for a Create
// field's first call or a Read/Destroy's-sibling Create field.
func (f *StepField) Set(ctx context.Context, value any) error {
	cv, err := toCtyValue(value)
	if err != nil {
		return err
	}
	return f.data.SetValue(ctx, f.token, cv)
}

// Get reads the field's data object. Valid only for a Read field.
func (f *StepField) Get(ctx context.Context) (any, error) {
	v, err := f.data.GetValue(ctx, f.token)
	if err != nil {
		return nil, err
	}
	cv, ok := v.(cty.Value)
	if !ok {
		return nil, fmt.Errorf("gridconfig: field %q: unexpected value type %T", f.name, v)
	}
	return fromCtyValue(cv)
}

// Remove clears the field's data object. Valid only for a Destroy field.
func (f *StepField) Remove(ctx context.Context) error {
	return f.data.RemoveValue(ctx, f.token)
}

// genericField is the stepapi.Field implementation backing every field a
// gridconfig step declares.
type genericField struct {
	owning *genericStep
	name   string
	typ    reflect.Type
	usage  graphcore.Usage
	data   stepapi.Data
}

func (f *genericField) OwningStep() stepapi.Step  { return f.owning }
func (f *genericField) DataHandle() stepapi.Data  { return f.data }
func (f *genericField) TypeTag() reflect.Type     { return f.typ }
func (f *genericField) Usage() graphcore.Usage    { return f.usage }

// genericStep is the stepapi.Step implementation backing every step a
// Model declares. Its Execute dispatches to the handler its Model.Step
// named, if any, passing every field it owns keyed by name; a step with
// no handler is a structural no-op, useful for exercising graph shape
// without writing Go.
type genericStep struct {
	name     string
	handler  string
	fields   []*genericField
	registry *Registry
	token    stepapi.Token
}

func (s *genericStep) Fields() []stepapi.Field {
	fields := make([]stepapi.Field, len(s.fields))
	for i, f := range s.fields {
		fields[i] = f
	}
	return fields
}

func (s *genericStep) ClassName() string    { return "gridconfig.Step" }
func (s *genericStep) FriendlyName() string { return s.name }
func (s *genericStep) UniqueName() string   { return s.name }

// SetToken implements stepapi.TokenReceiver.
func (s *genericStep) SetToken(t stepapi.Token) { s.token = t }

func (s *genericStep) Execute(ctx context.Context) error {
	if s.handler == "" {
		return nil
	}
	fn, err := s.registry.Lookup(s.handler)
	if err != nil {
		return err
	}
	fields := make(map[string]*StepField, len(s.fields))
	for _, f := range s.fields {
		fields[f.name] = &StepField{name: f.name, usage: f.usage, data: f.data, token: s.token}
	}
	return fn(ctx, fields)
}
