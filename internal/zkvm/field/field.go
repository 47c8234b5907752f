// Package field implements arithmetic over the 128-bit prime field used by
// the processor, the Rescue hasher, and the STARK engine.
//
// The modulus p = 2^128 - 45*2^40 + 1 is 40-smooth: (p-1) is divisible by
// 2^40, so the field admits a radix-2 multiplicative subgroup of order up
// to 2^40, large enough for any trace length this VM can produce.
package field

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Modulus is the field prime p = 2^128 - 45*2^40 + 1.
var Modulus = mustParse("340282366920938463463374557953744961537")

// twoAdicity is the largest k such that 2^k divides (p-1).
const twoAdicity = 40

// twoAdicRoot is a primitive 2^40-th root of unity mod p, computed as
// 3^((p-1)/2^40). Every power-of-two root the prover needs is derived from
// it by repeated squaring.
var twoAdicRoot = mustParse("23953097886125630542083529559205016746")

func mustParse(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("field: invalid constant " + s)
	}
	return n
}

// Element is a residue modulo Modulus. The zero value is the field's
// additive identity.
type Element struct {
	v *big.Int
}

var (
	zeroBig = big.NewInt(0)
	oneBig  = big.NewInt(1)
)

// Zero is the additive identity.
func Zero() Element { return Element{v: zeroBig} }

// One is the multiplicative identity.
func One() Element { return Element{v: oneBig} }

// New reduces v modulo Modulus and returns the resulting element.
func New(v *big.Int) Element {
	r := new(big.Int).Mod(v, Modulus)
	return Element{v: r}
}

// FromUint64 builds an element from a uint64 value.
func FromUint64(v uint64) Element {
	return Element{v: new(big.Int).SetUint64(v)}
}

// FromInt64 builds an element from an int64 value, reducing negative
// inputs into [0, p).
func FromInt64(v int64) Element {
	return New(big.NewInt(v))
}

// FromBytes interprets b as a big-endian integer and reduces it mod p.
func FromBytes(b []byte) Element {
	return New(new(big.Int).SetBytes(b))
}

// Random draws a uniformly random field element.
func Random() (Element, error) {
	n, err := rand.Int(rand.Reader, Modulus)
	if err != nil {
		return Element{}, fmt.Errorf("field: failed to draw random element: %w", err)
	}
	return Element{v: n}, nil
}

func (e Element) big() *big.Int {
	if e.v == nil {
		return zeroBig
	}
	return e.v
}

// Big returns the canonical residue as a big.Int, always in [0, p).
func (e Element) Big() *big.Int {
	return new(big.Int).Set(e.big())
}

// Uint64 truncates the residue to its low 64 bits. Used only where the
// caller has already established the value fits (tape indices, opcode
// immediates read back for display); not a general narrowing conversion.
func (e Element) Uint64() uint64 {
	return e.big().Uint64()
}

// Add returns e + o mod p.
func (e Element) Add(o Element) Element {
	return New(new(big.Int).Add(e.big(), o.big()))
}

// Sub returns e - o mod p.
func (e Element) Sub(o Element) Element {
	return New(new(big.Int).Sub(e.big(), o.big()))
}

// Mul returns e * o mod p.
func (e Element) Mul(o Element) Element {
	return New(new(big.Int).Mul(e.big(), o.big()))
}

// Neg returns p - e mod p.
func (e Element) Neg() Element {
	return New(new(big.Int).Neg(e.big()))
}

// Square returns e^2 mod p.
func (e Element) Square() Element {
	return e.Mul(e)
}

// Exp returns e^n mod p for a non-negative exponent.
func (e Element) Exp(n *big.Int) Element {
	return Element{v: new(big.Int).Exp(e.big(), n, Modulus)}
}

// ExpUint64 returns e^n mod p.
func (e Element) ExpUint64(n uint64) Element {
	return e.Exp(new(big.Int).SetUint64(n))
}

// Div returns e / o, failing if o is zero.
func (e Element) Div(o Element) (Element, error) {
	inv, err := o.Inv()
	if err != nil {
		return Element{}, fmt.Errorf("field: division by zero")
	}
	return e.Mul(inv), nil
}

// Inv returns the multiplicative inverse of e. DivideByZero-shaped callers
// (processor INV) are expected to check IsZero first; Inv itself reports
// the error rather than panicking so library callers can decide.
func (e Element) Inv() (Element, error) {
	if e.IsZero() {
		return Element{}, fmt.Errorf("field: cannot invert zero")
	}
	inv := new(big.Int).ModInverse(e.big(), Modulus)
	if inv == nil {
		return Element{}, fmt.Errorf("field: no inverse exists for %s", e.big())
	}
	return Element{v: inv}, nil
}

// Equal reports whether e and o are the same residue.
func (e Element) Equal(o Element) bool {
	return e.big().Cmp(o.big()) == 0
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	return e.big().Sign() == 0
}

// IsOne reports whether e is the multiplicative identity.
func (e Element) IsOne() bool {
	return e.big().Cmp(oneBig) == 0
}

// IsBinary reports whether e is 0 or 1, the precondition many opcodes
// (CHOOSE, AND, OR, NOT, Switch/Loop conditions) place on their operands.
func (e Element) IsBinary() bool {
	return e.IsZero() || e.IsOne()
}

// String renders the canonical decimal residue.
func (e Element) String() string {
	return e.big().String()
}

// Bytes returns the big-endian, fixed 16-byte encoding of the element, the
// framing used by proof serialization and the program hash.
func (e Element) Bytes() [16]byte {
	var out [16]byte
	e.big().FillBytes(out[:])
	return out
}

// PrimitiveRootOfUnity returns a generator of the unique cyclic subgroup of
// order n, where n is a power of two not exceeding 2^40. It returns an
// error if n isn't such a power of two.
func PrimitiveRootOfUnity(n uint64) (Element, error) {
	if n == 0 || n&(n-1) != 0 {
		return Element{}, fmt.Errorf("field: order %d is not a power of two", n)
	}
	k := bitLen(n) - 1
	if k > twoAdicity {
		return Element{}, fmt.Errorf("field: order %d exceeds the field's 2-adicity of 2^%d", n, twoAdicity)
	}
	root := Element{v: twoAdicRoot}
	// twoAdicRoot has order 2^40; squaring (twoAdicity - k) times yields an
	// element of order 2^k = n.
	for i := 0; i < twoAdicity-k; i++ {
		root = root.Square()
	}
	return root, nil
}

// CosetGenerator returns a fixed element outside every power-of-two-order
// subgroup the STARK engine builds domains from, used to shift a domain
// into a disjoint coset for low-degree extension (the conventional choice
// of a small non-residue, as in Winterfell/Miden-style STARK engines).
func CosetGenerator() Element {
	return FromUint64(7)
}

func bitLen(n uint64) int {
	l := 0
	for n > 0 {
		l++
		n >>= 1
	}
	return l
}

// IsPowerOfTwo reports whether n is a power of two (n > 0).
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
