package disjoint

import (
	"errors"
	"testing"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeSet(t *testing.T) {
	s := New[uint32]()

	a, err := s.MakeSet()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), a)

	b, err := s.MakeSet()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), b)

	assert.Equal(t, 2, s.Len())
}

func TestInitSets(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(5))
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 5, s.NumClasses())

	err := s.InitSets(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrInvariantViolation)
}

func TestMakeSetCapacityExceeded(t *testing.T) {
	s := New[uint8]()
	for i := 0; i < 255; i++ {
		_, err := s.MakeSet()
		require.NoError(t, err)
	}

	_, err := s.MakeSet()
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrCapacityExceeded)

	// Prior elements remain fully usable.
	root, err := s.Find(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), root)
}

func TestFindPathCompression(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(4))

	_, err := s.Unite(0, 1)
	require.NoError(t, err)
	_, err = s.Unite(1, 2)
	require.NoError(t, err)
	_, err = s.Unite(2, 3)
	require.NoError(t, err)

	root, err := s.Find(3)
	require.NoError(t, err)

	for i := uint32(0); i < 4; i++ {
		r, err := s.Find(i)
		require.NoError(t, err)
		assert.Equal(t, root, r)
	}
}

func TestUniteIdempotent(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(2))

	merged, err := s.Unite(0, 1)
	require.NoError(t, err)
	assert.True(t, merged)

	merged, err = s.Unite(0, 1)
	require.NoError(t, err)
	assert.False(t, merged)

	merged, err = s.Unite(1, 0)
	require.NoError(t, err)
	assert.False(t, merged)
}

func TestSameClassAndSize(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(3))

	same, err := s.SameClass(0, 1)
	require.NoError(t, err)
	assert.False(t, same)

	_, err = s.Unite(0, 1)
	require.NoError(t, err)

	same, err = s.SameClass(0, 1)
	require.NoError(t, err)
	assert.True(t, same)

	size, err := s.ClassSize(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), size)

	size, err = s.ClassSize(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), size)
}

func TestGetClassMembersAllPresentExactlyOnce(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(5))

	_, err := s.Unite(0, 1)
	require.NoError(t, err)
	_, err = s.Unite(2, 3)
	require.NoError(t, err)
	_, err = s.Unite(1, 2)
	require.NoError(t, err)

	members, err := s.GetClassMembers(0, nil)
	require.NoError(t, err)

	// The tie-break rule for iteration order is implementation-defined
	// (it depends on where the circular lists were spliced); only the
	// membership set is a contract.
	seen := make(map[uint32]int)
	for _, m := range members {
		seen[m]++
	}
	assert.Equal(t, map[uint32]int{0: 1, 1: 1, 2: 1, 3: 1}, seen)

	members, err = s.GetClassMembers(4, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{4}, members)
}

func TestNumClassesAndRepresentatives(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(4))
	assert.Equal(t, 4, s.NumClasses())

	_, err := s.Unite(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumClasses())

	reps := s.GetClassRepresentatives()
	assert.Len(t, reps, 3)
}

func TestGetClasses(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(4))
	_, err := s.Unite(0, 2)
	require.NoError(t, err)

	classes, err := s.GetClasses()
	require.NoError(t, err)
	assert.Len(t, classes, 3)

	total := 0
	for _, members := range classes {
		total += len(members)
	}
	assert.Equal(t, 4, total)
}

func TestIndexOutOfRange(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(2))

	_, err := s.Find(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrIndexOutOfRange)

	var oor *crderrors.IndexOutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, 5, oor.Index)
	assert.Equal(t, 2, oor.Bound)

	_, err = s.Unite(0, 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, crderrors.ErrIndexOutOfRange)
}

func TestExportNodes(t *testing.T) {
	s := New[uint32]()
	require.NoError(t, s.InitSets(2))
	_, err := s.Unite(0, 1)
	require.NoError(t, err)

	nodes := s.ExportNodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, uint32(2), nodes[0].Size)
	assert.Equal(t, uint32(0), nodes[1].Size)
}
