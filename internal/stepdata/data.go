package stepdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
	"github.com/kenwatanabe/taskcrdgo/internal/stepapi"
	"github.com/zclconf/go-cty/cty"
)

// Data is the cty.Value-backed implementation of stepapi.Data. A Data is
// constructed by the caller that declares the fields, once per data
// object; the graph builder then calls Authorize with exactly the tokens
// the execution plan granted for that object's Create, Read, and
// (optional) Destroy fields.
type Data struct {
	mu sync.RWMutex

	createToken stepapi.Token
	readTokens  map[stepapi.Token]struct{}

	destroyToken stepapi.Token
	hasDestroy   bool

	value cty.Value
	set   bool
}

// New returns a Data authorized for createToken to SetValue, any of
// readTokens to GetValue, and destroyToken (if hasDestroy) to RemoveValue.
func New(createToken stepapi.Token, readTokens []stepapi.Token, destroyToken stepapi.Token, hasDestroy bool) *Data {
	rt := make(map[stepapi.Token]struct{}, len(readTokens))
	for _, t := range readTokens {
		rt[t] = struct{}{}
	}
	return &Data{
		createToken:  createToken,
		readTokens:   rt,
		destroyToken: destroyToken,
		hasDestroy:   hasDestroy,
		value:        cty.NilVal,
	}
}

// Authorize re-grants this Data object's tokens. The graph builder calls
// it on every exported data handle that implements stepapi.Authorizer
// once Build has assigned tokens, since a Data object built ahead of the
// plan (as in New) cannot know its tokens until then.
func (d *Data) Authorize(create stepapi.Token, reads []stepapi.Token, destroy stepapi.Token, hasDestroy bool) {
	rt := make(map[stepapi.Token]struct{}, len(reads))
	for _, t := range reads {
		rt[t] = struct{}{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.createToken = create
	d.readTokens = rt
	d.destroyToken = destroy
	d.hasDestroy = hasDestroy
}

// SetValue stores value, authorized only for the Create token. value must
// be a cty.Value.
func (d *Data) SetValue(_ context.Context, token stepapi.Token, value any) error {
	cv, ok := value.(cty.Value)
	if !ok {
		return fmt.Errorf("%w: stepdata.Data stores cty.Value, got %T", crderrors.ErrTypeMismatch, value)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if token != d.createToken {
		return fmt.Errorf("%w: token not authorized to create this data object", crderrors.ErrInvalidState)
	}
	d.value = cv
	d.set = true
	return nil
}

// GetValue returns the stored value, authorized only for one of the Read
// tokens. Fails with Empty if no value has been set yet.
func (d *Data) GetValue(_ context.Context, token stepapi.Token) (any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.readTokens[token]; !ok {
		return nil, fmt.Errorf("%w: token not authorized to read this data object", crderrors.ErrInvalidState)
	}
	if !d.set {
		return nil, fmt.Errorf("%w: data object has no value", crderrors.ErrEmpty)
	}
	return d.value, nil
}

// RemoveValue clears the stored value, authorized only for the Destroy
// token (if the data object has one).
func (d *Data) RemoveValue(_ context.Context, token stepapi.Token) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasDestroy || token != d.destroyToken {
		return fmt.Errorf("%w: token not authorized to destroy this data object", crderrors.ErrInvalidState)
	}
	d.value = cty.NilVal
	d.set = false
	return nil
}
