package merkle

import (
	"testing"

	"github.com/starkvm/distaff/internal/zkvm/field"
)

func leavesOf(n int) []Digest {
	leaves := make([]Digest, n)
	for i := range leaves {
		leaves[i] = HashRow([]field.Element{field.FromInt64(int64(i))})
	}
	return leaves
}

func TestOpenAndVerify(t *testing.T) {
	tree, err := New(leavesOf(8))
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	for i := 0; i < 8; i++ {
		path, err := tree.Open(i)
		if err != nil {
			t.Fatalf("open(%d): %v", i, err)
		}
		if !Verify(root, tree.Leaf(i), i, path) {
			t.Fatalf("verify failed at index %d", i)
		}
	}
}

func TestVerifyRejectsTamperedLeaf(t *testing.T) {
	tree, err := New(leavesOf(4))
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	path, err := tree.Open(2)
	if err != nil {
		t.Fatal(err)
	}
	tampered := HashRow([]field.Element{field.FromInt64(999)})
	if Verify(root, tampered, 2, path) {
		t.Fatal("expected verification to fail for a tampered leaf")
	}
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := New(leavesOf(3)); err == nil {
		t.Fatal("expected error for non-power-of-two leaf count")
	}
}
