package field

import (
	"math/big"
	"testing"
)

func TestArithmeticRoundTrip(t *testing.T) {
	cases := []struct {
		a, b int64
	}{
		{1, 2},
		{0, 5},
		{-1, 7},
		{1000000007, 998244353},
	}
	for _, c := range cases {
		a := FromInt64(c.a)
		b := FromInt64(c.b)

		sum := a.Add(b)
		if !sum.Sub(b).Equal(a) {
			t.Errorf("Add/Sub round trip failed for %d,%d", c.a, c.b)
		}

		prod := a.Mul(b)
		if !b.IsZero() {
			quot, err := prod.Div(b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !quot.Equal(a) {
				t.Errorf("Mul/Div round trip failed for %d,%d", c.a, c.b)
			}
		}
	}
}

func TestInvOfZeroFails(t *testing.T) {
	if _, err := Zero().Inv(); err == nil {
		t.Fatal("expected error inverting zero")
	}
}

func TestNegAndIsBinary(t *testing.T) {
	one := One()
	if !one.IsBinary() {
		t.Fatal("one should be binary")
	}
	two := FromInt64(2)
	if two.IsBinary() {
		t.Fatal("two should not be binary")
	}
	if !one.Neg().Add(one).IsZero() {
		t.Fatal("x + (-x) should be zero")
	}
}

func TestPrimitiveRootOfUnityOrder(t *testing.T) {
	for _, n := range []uint64{2, 4, 8, 16, 1024} {
		root, err := PrimitiveRootOfUnity(n)
		if err != nil {
			t.Fatalf("unexpected error for n=%d: %v", n, err)
		}
		if !root.ExpUint64(n).IsOne() {
			t.Fatalf("root^n != 1 for n=%d", n)
		}
		if root.ExpUint64(n / 2).IsOne() {
			t.Fatalf("root has order < n for n=%d", n)
		}
	}
}

func TestPrimitiveRootOfUnityRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := PrimitiveRootOfUnity(6); err == nil {
		t.Fatal("expected error for non-power-of-two order")
	}
}

func TestFFTInverts(t *testing.T) {
	n := 8
	coeffs := make([]Element, n)
	for i := range coeffs {
		coeffs[i] = FromInt64(int64(i + 1))
	}
	omega, err := PrimitiveRootOfUnity(uint64(n))
	if err != nil {
		t.Fatal(err)
	}
	evals, err := FFT(coeffs, omega)
	if err != nil {
		t.Fatal(err)
	}
	back, err := IFFT(evals, omega)
	if err != nil {
		t.Fatal(err)
	}
	for i := range coeffs {
		if !back[i].Equal(coeffs[i]) {
			t.Fatalf("IFFT(FFT(x)) mismatch at %d: got %s want %s", i, back[i], coeffs[i])
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	e := New(big.NewInt(123456789))
	b := e.Bytes()
	back := FromBytes(b[:])
	if !back.Equal(e) {
		t.Fatalf("byte round trip failed: got %s want %s", back, e)
	}
}
