package curve

import (
	"math/big"
	"testing"

	"github.com/zvault/core/pkg/field"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		s, err := RandomScalar()
		if err != nil {
			t.Fatalf("RandomScalar: %v", err)
		}
		p := Generator().ScalarMul(s)

		compressed, err := Compress(p)
		if err != nil {
			t.Fatalf("Compress: %v", err)
		}
		decompressed, err := Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		if !p.Equal(decompressed) {
			t.Fatalf("round trip mismatch for scalar index %d", i)
		}
	}
}

func TestDecompressRejectsBadPrefix(t *testing.T) {
	p := Generator()
	compressed, err := Compress(p)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	compressed[0] = 0x04

	if _, err := Decompress(compressed); err == nil {
		t.Fatal("expected error decompressing buffer with invalid prefix byte")
	}
}

func TestDecompressRejectsOffCurveX(t *testing.T) {
	var buf [33]byte
	buf[0] = 0x02
	// x = 3 is below p, and 3³ - 17 = 10 is a quadratic non-residue mod
	// p, so no curve point has this x and only the square-root check can
	// reject it.
	buf[32] = 3
	if _, err := Decompress(buf); err == nil {
		t.Fatal("expected error decompressing an x with no curve point")
	}
}

func TestDecompressRejectsNonCanonicalX(t *testing.T) {
	g := Generator()
	compressed, err := Compress(g)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	// x' = x + p reduces onto the generator's own x under field.FromBytes,
	// so only an explicit x >= p rejection (not the curve check) can
	// catch this non-canonical encoding.
	xPrime := new(big.Int).Add(g.X().BigInt(), field.Modulus())
	if xPrime.BitLen() > 256 {
		t.Fatal("test assumption violated: x + p overflowed 256 bits")
	}

	var buf [33]byte
	buf[0] = compressed[0]
	xBytes := xPrime.Bytes()
	copy(buf[33-len(xBytes):], xBytes)

	if _, err := Decompress(buf); err == nil {
		t.Fatal("expected error decompressing an x >= p")
	}
}

func TestCompressRejectsIdentity(t *testing.T) {
	if _, err := Compress(Identity()); err == nil {
		t.Fatal("expected error compressing the identity")
	}
}

func TestPointArithmeticConsistency(t *testing.T) {
	g := Generator()
	two := g.Add(g)
	doubled := g.Double()
	if !two.Equal(doubled) {
		t.Fatal("Add(g, g) should equal Double(g)")
	}

	three := two.Add(g)
	threeScalar := FromUint64Scalar(3)
	viaScalarMul := g.ScalarMul(threeScalar)
	if !three.Equal(viaScalarMul) {
		t.Fatal("repeated addition should match scalar multiplication by 3")
	}
}

// FromUint64Scalar is a tiny test helper, not part of the public API:
// it builds a Scalar from a small uint64 via its canonical byte form.
func FromUint64Scalar(v uint64) Scalar {
	var b [32]byte
	for i := 0; i < 8; i++ {
		b[31-i] = byte(v >> (8 * i))
	}
	return ScalarFromBytes(b[:])
}
