package hash

import (
	"testing"

	"github.com/starkvm/distaff/internal/zkvm/field"
)

func TestPermuteInvertsSbox(t *testing.T) {
	// A round's forward S-box (x^3) and backward inverse S-box (x^(1/3))
	// must cancel when composed directly (ignoring MDS/constants), which
	// is what makes Rescue's round relation symmetric and checkable
	// without exhibiting the inverse (spec §4.4).
	x := field.FromInt64(12345)
	cubed := sbox(x)
	back := inverseSbox(cubed)
	if !back.Equal(x) {
		t.Fatalf("inverseSbox(sbox(x)) != x: got %s want %s", back, x)
	}
}

func TestHashElementsDeterministic(t *testing.T) {
	in := []field.Element{field.FromInt64(1), field.FromInt64(2), field.FromInt64(3), field.FromInt64(4)}
	a := HashElements(in)
	b := HashElements(in)
	if !a[0].Equal(b[0]) || !a[1].Equal(b[1]) {
		t.Fatalf("HashElements is not deterministic: %v vs %v", a, b)
	}
}

func TestHashElementsSensitiveToInput(t *testing.T) {
	a := HashElements([]field.Element{field.FromInt64(1), field.FromInt64(2)})
	b := HashElements([]field.Element{field.FromInt64(1), field.FromInt64(3)})
	if a[0].Equal(b[0]) && a[1].Equal(b[1]) {
		t.Fatal("different inputs produced the same digest")
	}
}

func TestMDSIsInvertible(t *testing.T) {
	// mdsInv * mds should be the identity matrix.
	for i := 0; i < StateWidth; i++ {
		for j := 0; j < StateWidth; j++ {
			acc := field.Zero()
			for k := 0; k < StateWidth; k++ {
				acc = acc.Add(mdsInv[i][k].Mul(mds[k][j]))
			}
			want := field.Zero()
			if i == j {
				want = field.One()
			}
			if !acc.Equal(want) {
				t.Fatalf("mdsInv*mds[%d][%d] = %s, want %s", i, j, acc, want)
			}
		}
	}
}

func TestPermuteOneRoundMatchesFullPermutation(t *testing.T) {
	var s State
	for i := range s {
		s[i] = field.FromInt64(int64(i + 1))
	}
	stepwise := s
	for r := 0; r < Rounds; r++ {
		stepwise = PermuteOneRound(stepwise, r)
	}
	full := Permute(s)
	for i := range full {
		if !stepwise[i].Equal(full[i]) {
			t.Fatalf("stepwise permutation diverged from Permute: %v vs %v", stepwise, full)
		}
	}
}
