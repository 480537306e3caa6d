package ptrregistry

import (
	"fmt"
	"weak"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
	"github.com/kenwatanabe/taskcrdgo/internal/identitykey"
)

// NotFound is the sentinel index returned by Find when no slot matches.
const NotFound = -1

type slot[T any] struct {
	key      identitykey.Key[T]
	strong   *T
	weak     weak.Pointer[T]
	isStrong bool
}

// Registry is an insertion-ordered, deduplicated list of handles to objects
// of type T.
//
// Not safe for concurrent use; callers synchronize externally.
type Registry[T any] struct {
	slots []slot[T]
	index map[identitykey.Key[T]]int
}

// New returns an empty Registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{index: make(map[identitykey.Key[T]]int)}
}

// Insert adds ptr, storing it strongly. If ptr is nil, fails with
// NullArgument. If an equal-address entry already exists, its index is
// returned unchanged (storage mode is not altered by a duplicate insert).
func (r *Registry[T]) Insert(ptr *T) (int, error) {
	if ptr == nil {
		return NotFound, fmt.Errorf("%w: cannot insert a nil handle", crderrors.ErrNullArgument)
	}
	key := identitykey.FromPointer(ptr)
	if idx, ok := r.index[key]; ok {
		return idx, nil
	}
	idx := len(r.slots)
	r.slots = append(r.slots, slot[T]{key: key, strong: ptr, isStrong: true})
	r.index[key] = idx
	return idx, nil
}

func (r *Registry[T]) validate(i int) error {
	if i < 0 || i >= len(r.slots) {
		return crderrors.NewIndexOutOfRange(i, len(r.slots))
	}
	return nil
}

// Weaken converts slot i to weak storage. Idempotent.
func (r *Registry[T]) Weaken(i int) error {
	if err := r.validate(i); err != nil {
		return err
	}
	s := &r.slots[i]
	if !s.isStrong {
		return nil
	}
	s.weak = weak.Make(s.strong)
	s.strong = nil
	s.isStrong = false
	return nil
}

// Strengthen converts slot i back to strong storage. Fails with
// ExpiredEntry if the weak referent no longer resolves. Idempotent if
// already strong.
func (r *Registry[T]) Strengthen(i int) error {
	if err := r.validate(i); err != nil {
		return err
	}
	s := &r.slots[i]
	if s.isStrong {
		return nil
	}
	v := s.weak.Value()
	if v == nil {
		return fmt.Errorf("%w: slot %d's referent has expired", crderrors.ErrExpiredEntry, i)
	}
	s.strong = v
	s.isStrong = true
	return nil
}

// At returns the live handle at slot i. Fails with ExpiredEntry if the slot
// is weak and its referent has expired.
func (r *Registry[T]) At(i int) (*T, error) {
	if err := r.validate(i); err != nil {
		return nil, err
	}
	s := &r.slots[i]
	if s.isStrong {
		return s.strong, nil
	}
	v := s.weak.Value()
	if v == nil {
		return nil, fmt.Errorf("%w: slot %d's referent has expired", crderrors.ErrExpiredEntry, i)
	}
	return v, nil
}

// Get returns the live handle at slot i and true, or nil and false if the
// index is invalid or the referent has expired. It never returns an error.
func (r *Registry[T]) Get(i int) (*T, bool) {
	v, err := r.At(i)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Find returns the index of the slot holding ptr's address, or NotFound.
// The key is retained even after a slot's referent expires, so Find still
// succeeds against the stored key for any address that was once inserted.
func (r *Registry[T]) Find(ptr *T) int {
	if ptr == nil {
		return NotFound
	}
	idx, ok := r.index[identitykey.FromPointer(ptr)]
	if !ok {
		return NotFound
	}
	return idx
}

// FindKey is Find for a caller that already holds the identity key.
func (r *Registry[T]) FindKey(key identitykey.Key[T]) int {
	idx, ok := r.index[key]
	if !ok {
		return NotFound
	}
	return idx
}

// IsStrong reports whether slot i currently stores a strong handle.
func (r *Registry[T]) IsStrong(i int) (bool, error) {
	if err := r.validate(i); err != nil {
		return false, err
	}
	return r.slots[i].isStrong, nil
}

// IsExpired reports whether slot i is weak and its referent no longer
// resolves. A strong slot is never expired.
func (r *Registry[T]) IsExpired(i int) (bool, error) {
	if err := r.validate(i); err != nil {
		return false, err
	}
	s := &r.slots[i]
	if s.isStrong {
		return false, nil
	}
	return s.weak.Value() == nil, nil
}

// KeyAt returns the identity key assigned to slot i at insertion time.
func (r *Registry[T]) KeyAt(i int) (identitykey.Key[T], error) {
	if err := r.validate(i); err != nil {
		var zero identitykey.Key[T]
		return zero, err
	}
	return r.slots[i].key, nil
}

// Size returns the number of slots, including expired ones.
func (r *Registry[T]) Size() int {
	return len(r.slots)
}

// Enumerate calls fn for every slot in insertion order, passing the current
// handle (nil if expired), whether it is strong, and whether it is
// expired.
func (r *Registry[T]) Enumerate(fn func(idx int, handle *T, isStrong bool, isExpired bool)) {
	for i := range r.slots {
		s := &r.slots[i]
		if s.isStrong {
			fn(i, s.strong, true, false)
			continue
		}
		v := s.weak.Value()
		fn(i, v, false, v == nil)
	}
}
