package field

// Polynomial represents a univariate polynomial over the field, stored as
// coefficients with the constant term first.
type Polynomial struct {
	coeffs []Element
}

// NewPolynomial builds a polynomial from coefficients (constant term
// first), trimming trailing zero coefficients.
func NewPolynomial(coeffs []Element) Polynomial {
	n := len(coeffs)
	for n > 0 && coeffs[n-1].IsZero() {
		n--
	}
	out := make([]Element, n)
	copy(out, coeffs[:n])
	return Polynomial{coeffs: out}
}

// Degree returns the polynomial's degree; the zero polynomial has degree -1.
func (p Polynomial) Degree() int {
	return len(p.coeffs) - 1
}

// Coefficients returns the coefficient slice, constant term first.
func (p Polynomial) Coefficients() []Element {
	return p.coeffs
}

// Eval evaluates the polynomial at x using Horner's method.
func (p Polynomial) Eval(x Element) Element {
	if len(p.coeffs) == 0 {
		return Zero()
	}
	acc := p.coeffs[len(p.coeffs)-1]
	for i := len(p.coeffs) - 2; i >= 0; i-- {
		acc = acc.Mul(x).Add(p.coeffs[i])
	}
	return acc
}

// Add returns p + o.
func (p Polynomial) Add(o Polynomial) Polynomial {
	n := len(p.coeffs)
	if len(o.coeffs) > n {
		n = len(o.coeffs)
	}
	out := make([]Element, n)
	for i := 0; i < n; i++ {
		var a, b Element
		if i < len(p.coeffs) {
			a = p.coeffs[i]
		}
		if i < len(o.coeffs) {
			b = o.coeffs[i]
		}
		out[i] = a.Add(b)
	}
	return NewPolynomial(out)
}

// Sub returns p - o.
func (p Polynomial) Sub(o Polynomial) Polynomial {
	n := len(p.coeffs)
	if len(o.coeffs) > n {
		n = len(o.coeffs)
	}
	out := make([]Element, n)
	for i := 0; i < n; i++ {
		var a, b Element
		if i < len(p.coeffs) {
			a = p.coeffs[i]
		}
		if i < len(o.coeffs) {
			b = o.coeffs[i]
		}
		out[i] = a.Sub(b)
	}
	return NewPolynomial(out)
}

// Mul returns p * o via schoolbook multiplication (the composition
// polynomial's degree stays low enough that NTT multiplication isn't
// warranted here).
func (p Polynomial) Mul(o Polynomial) Polynomial {
	if len(p.coeffs) == 0 || len(o.coeffs) == 0 {
		return Polynomial{}
	}
	out := make([]Element, len(p.coeffs)+len(o.coeffs)-1)
	for i, a := range p.coeffs {
		if a.IsZero() {
			continue
		}
		for j, b := range o.coeffs {
			out[i+j] = out[i+j].Add(a.Mul(b))
		}
	}
	return NewPolynomial(out)
}

// MulScalar returns p scaled by s.
func (p Polynomial) MulScalar(s Element) Polynomial {
	out := make([]Element, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = c.Mul(s)
	}
	return NewPolynomial(out)
}

// DivRem performs polynomial long division, returning quotient and
// remainder such that p = quotient*o + remainder.
func (p Polynomial) DivRem(o Polynomial) (quotient, remainder Polynomial, err error) {
	if len(o.coeffs) == 0 {
		return Polynomial{}, Polynomial{}, errDivByZeroPoly
	}
	lead, invErr := o.coeffs[len(o.coeffs)-1].Inv()
	if invErr != nil {
		return Polynomial{}, Polynomial{}, invErr
	}
	rem := make([]Element, len(p.coeffs))
	copy(rem, p.coeffs)
	degO := o.Degree()
	quotLen := len(p.coeffs) - degO
	if quotLen < 1 {
		quotLen = 0
	}
	quot := make([]Element, quotLen)
	for deg := len(rem) - 1; deg >= degO && degO >= 0; deg-- {
		if rem[deg].IsZero() {
			continue
		}
		coeff := rem[deg].Mul(lead)
		qIdx := deg - degO
		if qIdx < len(quot) {
			quot[qIdx] = coeff
		}
		for j, oc := range o.coeffs {
			rem[deg-degO+j] = rem[deg-degO+j].Sub(coeff.Mul(oc))
		}
	}
	return NewPolynomial(quot), NewPolynomial(rem), nil
}

// VanishingPolynomial returns X^n - 1, which vanishes on every element of
// the order-n multiplicative subgroup. Used as the transition-constraint
// denominator over the whole trace domain.
func VanishingPolynomial(n int) Polynomial {
	coeffs := make([]Element, n+1)
	coeffs[0] = One().Neg()
	coeffs[n] = One()
	return NewPolynomial(coeffs)
}

// LinearVanishingPolynomial returns X - point, the denominator for a
// boundary constraint pinned at a single domain point.
func LinearVanishingPolynomial(point Element) Polynomial {
	return NewPolynomial([]Element{point.Neg(), One()})
}

type polyError string

func (e polyError) Error() string { return string(e) }

const errDivByZeroPoly = polyError("field: division by the zero polynomial")
