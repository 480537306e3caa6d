package valuebox

import (
	"fmt"
	"reflect"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
)

// Box is a type-erased, shared-ownership container holding at most one
// value. The zero value is an empty Box.
//
// Box is not safe for concurrent use; callers synchronize externally.
type Box struct {
	value any
	tag   reflect.Type
}

// checkAllowed rejects the type parameters that would make a Box's contract
// ambiguous: the box's own erased type (storing a Box inside a Box collapses
// the type tag to "whatever is currently inside", which defeats tag-checked
// access), and fixed-size arrays (a slice is the idiomatic stand-in and has
// unambiguous value semantics).
func checkAllowed[T any]() error {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	if t.Kind() == reflect.Array {
		return fmt.Errorf("%w: array type %s cannot be stored in a Box, use a slice", crderrors.ErrTypeMismatch, t)
	}
	if t == reflect.TypeOf(Box{}) {
		return fmt.Errorf("%w: Box cannot store itself", crderrors.ErrTypeMismatch)
	}
	return nil
}

// Empty reports whether the box currently holds no value.
func (b *Box) Empty() bool {
	return b.tag == nil
}

// Tag returns the reflect.Type of the stored value, or nil if empty.
func (b *Box) Tag() reflect.Type {
	return b.tag
}

// Emplace constructs a value of type T from v and stores it, replacing any
// prior value. It is equivalent to Set but gives the caller a compile-time
// guarantee of which type is being stored.
func Emplace[T any](b *Box, v T) error {
	if err := checkAllowed[T](); err != nil {
		return err
	}
	b.value = v
	b.tag = reflect.TypeOf(v)
	if b.tag == nil {
		// v is a nil interface/pointer/etc of concrete type T; fall back to
		// T's static type so the box is not left with a nil tag while
		// non-empty.
		b.tag = reflect.TypeOf((*T)(nil)).Elem()
	}
	return nil
}

// Set stores v under its dynamic type, replacing any prior value.
func Set(b *Box, v any) error {
	t := reflect.TypeOf(v)
	if t == nil {
		return fmt.Errorf("%w: cannot Set a nil value", crderrors.ErrNullArgument)
	}
	if t.Kind() == reflect.Array {
		return fmt.Errorf("%w: array type %s cannot be stored in a Box, use a slice", crderrors.ErrTypeMismatch, t)
	}
	if t == reflect.TypeOf(Box{}) {
		return fmt.Errorf("%w: Box cannot store itself", crderrors.ErrTypeMismatch)
	}
	b.value = v
	b.tag = t
	return nil
}

// As returns the stored value as T. It fails with Empty if the box holds
// nothing, or TypeMismatch if the stored tag differs from T.
func As[T any](b *Box) (T, error) {
	var zero T
	if b.Empty() {
		return zero, fmt.Errorf("%w: box is empty", crderrors.ErrEmpty)
	}
	v, ok := b.value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: box holds %s, not %T", crderrors.ErrTypeMismatch, b.tag, zero)
	}
	return v, nil
}

// TryAs returns the stored value as T and true, or the zero value and false
// if the box is empty or the tag mismatches. It never returns an error.
func TryAs[T any](b *Box) (T, bool) {
	v, ok := b.value.(T)
	return v, ok
}

// Get returns a pointer to the stored value's T-typed backing, or nil if
// the box is empty or the tag mismatches. Since Go values are not shared
// between a Box and its caller the way a C++ shared_ptr aliases storage,
// Get hands back a pointer into a fresh copy; mutations through it do not
// propagate back into the Box.
func Get[T any](b *Box) *T {
	v, ok := b.value.(T)
	if !ok {
		return nil
	}
	return &v
}

// Release returns the stored value as T and empties the box on success. On
// mismatch or empty box it leaves the box untouched and returns an error.
func Release[T any](b *Box) (T, error) {
	v, err := As[T](b)
	if err != nil {
		return v, err
	}
	b.value = nil
	b.tag = nil
	return v, nil
}
