package field

import "fmt"

// FFT evaluates the polynomial with coefficients `values` (low-degree term
// first) over the multiplicative subgroup generated by omega, using the
// iterative Cooley-Tukey radix-2 decimation-in-time algorithm. len(values)
// must be a power of two and omega must have exactly that order.
func FFT(values []Element, omega Element) ([]Element, error) {
	n := len(values)
	if n == 0 {
		return nil, nil
	}
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("field: FFT requires a power-of-two length, got %d", n)
	}

	result := make([]Element, n)
	copy(result, values)

	logN := bitLen(uint64(n)) - 1
	for i := 0; i < n; i++ {
		j := reverseBits(i, logN)
		if i < j {
			result[i], result[j] = result[j], result[i]
		}
	}

	for s := 1; s <= logN; s++ {
		m := 1 << s
		half := m >> 1
		wm := omega.ExpUint64(uint64(n / m))
		for k := 0; k < n; k += m {
			w := One()
			for j := 0; j < half; j++ {
				t := w.Mul(result[k+j+half])
				u := result[k+j]
				result[k+j] = u.Add(t)
				result[k+j+half] = u.Sub(t)
				w = w.Mul(wm)
			}
		}
	}
	return result, nil
}

// IFFT recovers coefficients from evaluations over the subgroup generated
// by omega.
func IFFT(values []Element, omega Element) ([]Element, error) {
	n := len(values)
	if n == 0 {
		return nil, nil
	}
	omegaInv, err := omega.Inv()
	if err != nil {
		return nil, fmt.Errorf("field: IFFT: %w", err)
	}
	coeffs, err := FFT(values, omegaInv)
	if err != nil {
		return nil, err
	}
	nInv, err := FromUint64(uint64(n)).Inv()
	if err != nil {
		return nil, fmt.Errorf("field: IFFT: %w", err)
	}
	for i := range coeffs {
		coeffs[i] = coeffs[i].Mul(nInv)
	}
	return coeffs, nil
}

func reverseBits(n, bitLength int) int {
	result := 0
	for i := 0; i < bitLength; i++ {
		if n&(1<<i) != 0 {
			result |= 1 << (bitLength - 1 - i)
		}
	}
	return result
}

// Domain is a coset of a multiplicative subgroup: {offset * generator^i}.
// Every evaluation domain the STARK engine uses (trace LDE, FRI layers,
// the quotient domain) is one of these.
type Domain struct {
	Offset    Element
	Generator Element
	Length    int
}

// NewDomain builds the subgroup of the given power-of-two length (no
// coset offset).
func NewDomain(length int) (Domain, error) {
	if !IsPowerOfTwo(length) {
		return Domain{}, fmt.Errorf("field: domain length must be a power of two, got %d", length)
	}
	gen, err := PrimitiveRootOfUnity(uint64(length))
	if err != nil {
		return Domain{}, err
	}
	return Domain{Offset: One(), Generator: gen, Length: length}, nil
}

// WithOffset returns a coset of d shifted by offset.
func (d Domain) WithOffset(offset Element) Domain {
	return Domain{Offset: offset, Generator: d.Generator, Length: d.Length}
}

// Elements materializes every point of the domain.
func (d Domain) Elements() []Element {
	out := make([]Element, d.Length)
	cur := d.Offset
	for i := range out {
		out[i] = cur
		cur = cur.Mul(d.Generator)
	}
	return out
}

// EvaluatePoly evaluates coefficients (low-degree term first) over d via
// NTT when d has no offset, or via a coset NTT (scale-then-NTT) otherwise.
func (d Domain) EvaluatePoly(coeffs []Element) ([]Element, error) {
	padded := make([]Element, d.Length)
	copy(padded, coeffs)
	if !d.Offset.IsOne() {
		scale := One()
		for i := range padded {
			padded[i] = padded[i].Mul(scale)
			scale = scale.Mul(d.Offset)
		}
	}
	return FFT(padded, d.Generator)
}

// InterpolatePoly recovers coefficients from evaluations over d.
func (d Domain) InterpolatePoly(values []Element) ([]Element, error) {
	coeffs, err := IFFT(values, d.Generator)
	if err != nil {
		return nil, err
	}
	if !d.Offset.IsOne() {
		offsetInv, err := d.Offset.Inv()
		if err != nil {
			return nil, err
		}
		scale := One()
		for i := range coeffs {
			coeffs[i] = coeffs[i].Mul(scale)
			scale = scale.Mul(offsetInv)
		}
	}
	return coeffs, nil
}
