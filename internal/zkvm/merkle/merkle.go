// Package merkle implements the Rescue-backed Merkle accumulator used both
// to commit to the extended trace / composition polynomial (spec §4.5) and,
// one level down, to hash a program's blocks into its program hash
// (spec §4.3).
package merkle

import (
	"fmt"

	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/hash"
)

// Digest is a Rescue digest: two field elements.
type Digest = [2]field.Element

// Tree is a binary Merkle tree over Rescue digests. Leaves are hashed from
// caller-supplied row data; internal nodes are the Rescue two-to-one
// compression of their children, following core/merkle.go's level-by-level
// construction.
type Tree struct {
	levels [][]Digest // levels[0] = leaves, levels[len-1] = [root]
}

// New builds a tree over the given leaf digests. len(leaves) must be a
// power of two (the trace and composition domains this module commits to
// always are).
func New(leaves []Digest) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("merkle: cannot build a tree with no leaves")
	}
	if !field.IsPowerOfTwo(len(leaves)) {
		return nil, fmt.Errorf("merkle: leaf count must be a power of two, got %d", len(leaves))
	}

	levels := make([][]Digest, 0, bitLenInt(len(leaves))+1)
	cur := append([]Digest(nil), leaves...)
	levels = append(levels, cur)
	for len(cur) > 1 {
		next := make([]Digest, len(cur)/2)
		for i := range next {
			next[i] = hash.HashDigests(cur[2*i], cur[2*i+1])
		}
		levels = append(levels, next)
		cur = next
	}
	return &Tree{levels: levels}, nil
}

// HashRow reduces a trace/composition row to a single leaf digest.
func HashRow(row []field.Element) Digest {
	return hash.HashElements(row)
}

// Root returns the tree's root digest.
func (t *Tree) Root() Digest {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Path is a Merkle authentication path: the sibling digest at every level
// from the leaf up to (excluding) the root.
type Path [][2]field.Element

// Open returns the authentication path for the leaf at index.
func (t *Tree) Open(index int) (Path, error) {
	numLeaves := len(t.levels[0])
	if index < 0 || index >= numLeaves {
		return nil, fmt.Errorf("merkle: index %d out of range [0, %d)", index, numLeaves)
	}
	path := make(Path, 0, len(t.levels)-1)
	idx := index
	for level := 0; level < len(t.levels)-1; level++ {
		siblingIdx := idx ^ 1
		path = append(path, t.levels[level][siblingIdx])
		idx /= 2
	}
	return path, nil
}

// Leaf returns the digest stored at the given leaf index.
func (t *Tree) Leaf(index int) Digest {
	return t.levels[0][index]
}

// Verify reconstructs the root from a leaf digest, its index, and an
// authentication path, and reports whether it matches root.
func Verify(root Digest, leaf Digest, index int, path Path) bool {
	cur := leaf
	idx := index
	for _, sibling := range path {
		if idx%2 == 0 {
			cur = hash.HashDigests(cur, sibling)
		} else {
			cur = hash.HashDigests(sibling, cur)
		}
		idx /= 2
	}
	return cur[0].Equal(root[0]) && cur[1].Equal(root[1])
}

func bitLenInt(n int) int {
	l := 0
	for n > 1 {
		l++
		n >>= 1
	}
	return l
}
