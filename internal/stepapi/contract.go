package stepapi

import (
	"context"
	"reflect"

	"github.com/kenwatanabe/taskcrdgo/internal/graphcore"
)

// Token is an opaque authorization value the executor grants to each step
// for accessing the data objects its fields declared. Zero is reserved for
// the graph itself and is never assigned to a step.
type Token uint64

// NoToken is the reserved graph token; no step is ever granted it.
const NoToken Token = 0

// Step is a unit of work. Fields is enumerated exactly once, at
// registration with the graph builder; Execute may be called many times
// across a process's lifetime but at most once per execution.
type Step interface {
	Execute(ctx context.Context) error
	Fields() []Field
	ClassName() string
	FriendlyName() string
	UniqueName() string
}

// Field is one step's typed, CRD-tagged declared access to a data object.
type Field interface {
	OwningStep() Step
	DataHandle() Data
	TypeTag() reflect.Type
	Usage() graphcore.Usage
}

// Authorizer is implemented by Data handles that need the plan's token
// assignment communicated to them once the graph builder has computed it
// (tokens are not known until Build, since they are assigned densely over
// every step in the finished graph). The graph builder calls Authorize,
// if present, on every exported data handle right after composing the
// plan; handles that manage authorization another way can leave it
// unimplemented.
type Authorizer interface {
	Authorize(create Token, reads []Token, destroy Token, hasDestroy bool)
}

// TokenReceiver is implemented by Step handles that need their own granted
// token communicated to them once the graph builder has computed it, for
// the same reason Authorizer exists for Data: a Step is constructed before
// Build assigns tokens, so it cannot capture its token at construction
// time. The graph builder calls SetToken, if present, on every registered
// step right after composing the plan.
type TokenReceiver interface {
	SetToken(Token)
}

// Data is the concrete storage behind one data object. SetValue
// corresponds to a Create field, GetValue to a Read field, RemoveValue to
// a Destroy field; implementations validate the token against whichever
// one the plan granted the calling step for that usage.
//
// Thread-safety contract: SetValue and RemoveValue calls are exclusive
// with respect to every other call; GetValue calls are mutually shareable
// with each other.
type Data interface {
	SetValue(ctx context.Context, token Token, value any) error
	GetValue(ctx context.Context, token Token) (any, error)
	RemoveValue(ctx context.Context, token Token) error
}
