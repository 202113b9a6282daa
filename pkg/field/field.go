// Package field implements BN254 scalar field arithmetic. This is the
// field the specification calls p: the field Poseidon2 hashes over, and
// the field Grumpkin's base field equals (spec.md §4.1 — "Grumpkin is
// chosen because its scalar field equals BN254's base field").
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zvault/core/pkg/types"
)

// Element is a BN254 scalar field element, reduced mod p.
type Element struct {
	inner fr.Element
}

// Zero is the additive identity.
func Zero() Element {
	return Element{}
}

// One is the multiplicative identity.
func One() Element {
	var e Element
	e.inner.SetOne()
	return e
}

// FromUint64 reduces v mod p.
func FromUint64(v uint64) Element {
	var e Element
	e.inner.SetUint64(v)
	return e
}

// FromBigInt reduces n mod p.
func FromBigInt(n *big.Int) Element {
	var e Element
	e.inner.SetBigInt(n)
	return e
}

// FromBytes interprets b as a big-endian integer and reduces it mod p,
// per spec.md §4.1 field_reduce(bytes_32) -> FieldElement. Any length is
// accepted; the wire format always uses exactly 32 bytes, but reduction
// itself does not depend on that.
func FromBytes(b []byte) Element {
	var e Element
	e.inner.SetBytes(b)
	return e
}

// FromHash32 reduces a 32-byte wire value mod p.
func FromHash32(h types.Hash32) Element {
	return FromBytes(h[:])
}

// Bytes returns the 32-byte big-endian encoding of e, matching
// spec.md §3's "serialization is 32-byte big-endian" invariant.
func (e Element) Bytes() [32]byte {
	return e.inner.Bytes()
}

// Hash32 returns e encoded as a types.Hash32.
func (e Element) Hash32() types.Hash32 {
	return types.Hash32(e.Bytes())
}

// BigInt returns e as a big.Int in [0, p).
func (e Element) BigInt() *big.Int {
	var z big.Int
	e.inner.BigInt(&z)
	return &z
}

// IsZero reports whether e is the zero element.
func (e Element) IsZero() bool {
	return e.inner.IsZero()
}

// Equal reports whether e and other represent the same field element.
func (e Element) Equal(other Element) bool {
	return e.inner.Equal(&other.inner)
}

// Add returns e + other mod p.
func (e Element) Add(other Element) Element {
	var z Element
	z.inner.Add(&e.inner, &other.inner)
	return z
}

// Sub returns e - other mod p.
func (e Element) Sub(other Element) Element {
	var z Element
	z.inner.Sub(&e.inner, &other.inner)
	return z
}

// Mul returns e * other mod p.
func (e Element) Mul(other Element) Element {
	var z Element
	z.inner.Mul(&e.inner, &other.inner)
	return z
}

// Sqrt returns the square root of e, if one exists, and whether it did.
// Used by curve.decompress to recover y from x.
func (e Element) Sqrt() (Element, bool) {
	var z Element
	root := z.inner.Sqrt(&e.inner)
	return z, root != nil
}

// Modulus returns p as a big.Int.
func Modulus() *big.Int {
	return fr.Modulus()
}

// frElement returns the underlying gnark-crypto element. It is
// unexported, so only code inside this package can call it.
func (e Element) frElement() fr.Element {
	return e.inner
}

// FromFrElement constructs an Element from a gnark-crypto fr.Element,
// which operates on the same underlying field.
func FromFrElement(inner fr.Element) Element {
	return Element{inner: inner}
}

// FrElement returns the underlying gnark-crypto representation, for use
// by sibling packages that call directly into gnark-crypto APIs
// (poseidon2, grumpkin) operating on this field.
func (e Element) FrElement() fr.Element {
	return e.inner
}
