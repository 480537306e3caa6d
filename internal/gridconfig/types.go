package gridconfig

import (
	"fmt"
	"reflect"

	"github.com/kenwatanabe/taskcrdgo/internal/graphcore"
	"github.com/zclconf/go-cty/cty"
)

var (
	stringType = reflect.TypeOf("")
	numberType = reflect.TypeOf(float64(0))
	boolType   = reflect.TypeOf(false)
)

// typeTagFor maps a field's declared type name to the reflect.Type that
// stepapi.Field.TypeTag reports, the same three primitives the teacher's
// HCL type parser recognizes (string, number, bool) minus the collection
// constructors this schema has no use for.
func typeTagFor(name string) (reflect.Type, error) {
	switch name {
	case "string":
		return stringType, nil
	case "number":
		return numberType, nil
	case "bool":
		return boolType, nil
	default:
		return nil, fmt.Errorf("gridconfig: unknown field type %q", name)
	}
}

// usageFor maps a field's declared usage name to a graphcore.Usage.
func usageFor(name string) (graphcore.Usage, error) {
	switch name {
	case "create":
		return graphcore.Create, nil
	case "read":
		return graphcore.Read, nil
	case "destroy":
		return graphcore.Destroy, nil
	default:
		return 0, fmt.Errorf("gridconfig: unknown field usage %q", name)
	}
}

// trustFor maps a link's declared trust name to a graphcore.TrustLevel.
// An empty name defaults to Low, the weakest blame-ranking trust level.
func trustFor(name string) (graphcore.TrustLevel, error) {
	switch name {
	case "", "low":
		return graphcore.Low, nil
	case "middle":
		return graphcore.Middle, nil
	case "high":
		return graphcore.High, nil
	default:
		return 0, fmt.Errorf("gridconfig: unknown trust level %q", name)
	}
}

// toCtyValue wraps a plain Go value in the cty.Value stepapi.Data requires,
// covering the same three primitives typeTagFor recognizes.
func toCtyValue(value any) (cty.Value, error) {
	switch v := value.(type) {
	case cty.Value:
		return v, nil
	case string:
		return cty.StringVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case bool:
		return cty.BoolVal(v), nil
	default:
		return cty.NilVal, fmt.Errorf("gridconfig: cannot convert %T to a field value", value)
	}
}

// fromCtyValue unwraps a cty.Value returned by stepapi.Data into the plain
// Go value a handler expects, adapted from the teacher's
// internal/dag/node_runner.go's ctyValueToInterface for the primitive
// types this schema supports.
func fromCtyValue(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	switch val.Type() {
	case cty.String:
		return val.AsString(), nil
	case cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case cty.Bool:
		return val.True(), nil
	default:
		return nil, fmt.Errorf("gridconfig: unsupported field value type %s", val.Type().FriendlyName())
	}
}
