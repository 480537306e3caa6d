package valuebox

import (
	"testing"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyBox(t *testing.T) {
	var b Box
	assert.True(t, b.Empty())
	assert.Nil(t, b.Tag())

	_, err := As[int](&b)
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrEmpty)
}

func TestEmplaceAndAs(t *testing.T) {
	var b Box
	require.NoError(t, Emplace(&b, 42))
	assert.False(t, b.Empty())

	v, err := As[int](&b)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = As[string](&b)
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrTypeMismatch)
}

func TestEmplaceReplacesPriorValue(t *testing.T) {
	var b Box
	require.NoError(t, Emplace(&b, "first"))
	require.NoError(t, Emplace(&b, 7))

	v, err := As[int](&b)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = As[string](&b)
	require.Error(t, err)
}

func TestSetDecaysToDynamicType(t *testing.T) {
	var b Box
	require.NoError(t, Set(&b, 3.14))

	v, err := As[float64](&b)
	require.NoError(t, err)
	assert.InDelta(t, 3.14, v, 0.0001)
}

func TestSetRejectsNil(t *testing.T) {
	var b Box
	err := Set(&b, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrNullArgument)
}

func TestTryAs(t *testing.T) {
	var b Box
	require.NoError(t, Emplace(&b, "hello"))

	v, ok := TryAs[string](&b)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	_, ok = TryAs[int](&b)
	assert.False(t, ok)
}

func TestGet(t *testing.T) {
	var b Box
	require.NoError(t, Emplace(&b, 10))

	p := Get[int](&b)
	require.NotNil(t, p)
	assert.Equal(t, 10, *p)

	assert.Nil(t, Get[string](&b))
}

func TestRelease(t *testing.T) {
	var b Box
	require.NoError(t, Emplace(&b, 99))

	v, err := Release[int](&b)
	require.NoError(t, err)
	assert.Equal(t, 99, v)
	assert.True(t, b.Empty())
}

func TestReleaseMismatchLeavesBoxIntact(t *testing.T) {
	var b Box
	require.NoError(t, Emplace(&b, 99))

	_, err := Release[string](&b)
	require.Error(t, err)
	assert.False(t, b.Empty())

	v, err := As[int](&b)
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestEmplaceRejectsArrayType(t *testing.T) {
	var b Box
	err := Emplace(&b, [3]int{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrTypeMismatch)
	assert.True(t, b.Empty())
}

func TestEmplaceRejectsSelf(t *testing.T) {
	var b Box
	var inner Box
	require.NoError(t, Emplace(&inner, 1))

	err := Emplace(&b, inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrTypeMismatch)
}
