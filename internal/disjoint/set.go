package disjoint

import (
	"fmt"

	"github.com/kenwatanabe/taskcrdgo/internal/crderrors"
)

// Unsigned is the set of index types a Set can be parameterized over.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Node is the per-element union-find metadata. Size is only meaningful at a
// class root; it is zeroed on every other element by Unite.
type Node[Idx Unsigned] struct {
	Parent Idx
	Rank   Idx
	Size   Idx
	Next   Idx
}

// Set is a union-by-rank, path-compressing disjoint-set with O(class size)
// enumeration via a circular intrusive list threaded through Node.Next.
//
// Not safe for concurrent use.
type Set[Idx Unsigned] struct {
	nodes []Node[Idx]
}

// New returns an empty Set.
func New[Idx Unsigned]() *Set[Idx] {
	return &Set[Idx]{}
}

// Len returns the total number of elements ever created.
func (s *Set[Idx]) Len() int {
	return len(s.nodes)
}

// MakeSet creates a new singleton class and returns its index.
func (s *Set[Idx]) MakeSet() (Idx, error) {
	var maxIdx Idx = ^Idx(0)
	if uint64(len(s.nodes)) >= uint64(maxIdx) {
		return 0, fmt.Errorf("%w: disjoint set cannot hold more than %d elements", crderrors.ErrCapacityExceeded, uint64(maxIdx))
	}
	x := Idx(len(s.nodes))
	s.nodes = append(s.nodes, Node[Idx]{Parent: x, Rank: 0, Size: 1, Next: x})
	return x, nil
}

// InitSets is equivalent to calling MakeSet n times. It fails if the set is
// not currently empty.
func (s *Set[Idx]) InitSets(n int) error {
	if len(s.nodes) != 0 {
		return fmt.Errorf("%w: InitSets requires an empty disjoint set, has %d elements", crderrors.ErrInvariantViolation, len(s.nodes))
	}
	for i := 0; i < n; i++ {
		if _, err := s.MakeSet(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set[Idx]) validate(x Idx) error {
	if uint64(x) >= uint64(len(s.nodes)) {
		return crderrors.NewIndexOutOfRange(int(x), len(s.nodes))
	}
	return nil
}

// Find returns the root of the class containing x, compressing the path
// from x to the root in two passes: one to locate the root, one to rewrite
// every intermediate parent pointer.
func (s *Set[Idx]) Find(x Idx) (Idx, error) {
	if err := s.validate(x); err != nil {
		return 0, err
	}
	root := x
	for s.nodes[root].Parent != root {
		root = s.nodes[root].Parent
	}
	for s.nodes[x].Parent != root {
		next := s.nodes[x].Parent
		s.nodes[x].Parent = root
		x = next
	}
	return root, nil
}

// ClassRoot returns the root of the class containing x without performing
// path compression.
func (s *Set[Idx]) ClassRoot(x Idx) (Idx, error) {
	if err := s.validate(x); err != nil {
		return 0, err
	}
	for s.nodes[x].Parent != x {
		x = s.nodes[x].Parent
	}
	return x, nil
}

// ClassSize returns the number of elements in the class containing x.
func (s *Set[Idx]) ClassSize(x Idx) (Idx, error) {
	root, err := s.ClassRoot(x)
	if err != nil {
		return 0, err
	}
	return s.nodes[root].Size, nil
}

// SameClass reports whether a and b belong to the same class.
func (s *Set[Idx]) SameClass(a, b Idx) (bool, error) {
	ra, err := s.ClassRoot(a)
	if err != nil {
		return false, err
	}
	rb, err := s.ClassRoot(b)
	if err != nil {
		return false, err
	}
	return ra == rb, nil
}

// Unite merges the classes containing a and b using union-by-rank. It
// returns false without modifying anything if a and b were already in the
// same class.
//
// The two circular membership lists are spliced by swapping the Next
// pointers at the input positions a and b, not at the roots discovered by
// Find: swapping Next at any one position per list merges two disjoint
// circular lists into one, and keying the swap off the caller's arguments
// makes the resulting list's break point deterministic from the call site
// rather than from whichever element path compression happened to promote
// to root.
func (s *Set[Idx]) Unite(a, b Idx) (bool, error) {
	rootA, err := s.Find(a)
	if err != nil {
		return false, err
	}
	rootB, err := s.Find(b)
	if err != nil {
		return false, err
	}
	if rootA == rootB {
		return false, nil
	}

	combinedSize := s.nodes[rootA].Size + s.nodes[rootB].Size

	var newRoot, oldRoot Idx
	switch {
	case s.nodes[rootA].Rank < s.nodes[rootB].Rank:
		s.nodes[rootA].Parent = rootB
		newRoot, oldRoot = rootB, rootA
	case s.nodes[rootA].Rank > s.nodes[rootB].Rank:
		s.nodes[rootB].Parent = rootA
		newRoot, oldRoot = rootA, rootB
	default:
		s.nodes[rootB].Parent = rootA
		s.nodes[rootA].Rank++
		newRoot, oldRoot = rootA, rootB
	}

	s.nodes[newRoot].Size = combinedSize
	s.nodes[oldRoot].Size = 0

	s.nodes[a].Next, s.nodes[b].Next = s.nodes[b].Next, s.nodes[a].Next

	return true, nil
}

// GetClassMembers appends every member of the class containing x to out
// (which is truncated to length 0 first) and returns the result.
func (s *Set[Idx]) GetClassMembers(x Idx, out []Idx) ([]Idx, error) {
	if err := s.validate(x); err != nil {
		return out, err
	}
	out = out[:0]
	current := x
	for {
		out = append(out, current)
		current = s.nodes[current].Next
		if current == x {
			break
		}
	}
	return out, nil
}

// NumClasses returns the number of distinct classes currently tracked.
func (s *Set[Idx]) NumClasses() int {
	n := 0
	for i := range s.nodes {
		if s.nodes[i].Parent == Idx(i) {
			n++
		}
	}
	return n
}

// GetClassRepresentatives returns the root index of every class, in
// ascending index order.
func (s *Set[Idx]) GetClassRepresentatives() []Idx {
	var out []Idx
	for i := range s.nodes {
		if s.nodes[i].Parent == Idx(i) {
			out = append(out, Idx(i))
		}
	}
	return out
}

// GetClasses returns every class, keyed by its root, with members in the
// circular-list order produced by the unions that built it.
func (s *Set[Idx]) GetClasses() (map[Idx][]Idx, error) {
	classes := make(map[Idx][]Idx, s.NumClasses())
	for _, root := range s.GetClassRepresentatives() {
		members, err := s.GetClassMembers(root, nil)
		if err != nil {
			return nil, err
		}
		classes[root] = members
	}
	return classes, nil
}

// ExportNodes returns a copy of the raw per-element metadata, for
// diagnostics and testing.
func (s *Set[Idx]) ExportNodes() []Node[Idx] {
	out := make([]Node[Idx], len(s.nodes))
	copy(out, s.nodes)
	return out
}
