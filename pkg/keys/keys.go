// Package keys implements wallet-derived key pairs, the stealth
// meta-address codec, and both sides of stealth address derivation
// (spec.md §4.3). The ECDH/tagged-hash shape follows the sip SDK's
// GenerateStealthAddress/DeriveStealthPrivateKey
// (other_examples/276f7458_..._sip-stealth.go.go), translated from
// secp256k1 to Grumpkin and from a single shared-secret hash to a
// BN254-field-friendly tagged hash.
package keys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"runtime"

	"github.com/zvault/core/internal/wallet"
	"github.com/zvault/core/pkg/curve"
	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/poseidon"
	"github.com/zvault/core/pkg/types"
)

// stealthDomainTag is mixed into the tagged hash of every stealth
// derivation, binding it to this protocol version (spec.md §4.3 step 4).
const stealthDomainTag = "zVault-stealth-v1"

// minAmountSats and maxAmountSats bound the per-note amount accepted
// during a scan (spec.md §4.3 step 1): 1 satoshi to 21 million BTC.
const (
	minAmountSats = 1
	maxAmountSats = 21_000_000 * 100_000_000
)

// KeyPair is a wallet-derived (spendingPriv, viewingPriv) pair and its
// public counterparts. Private scalars are zeroized on Drop and on
// finalization, since this is the one place in the module secret key
// material is held resident in memory.
type KeyPair struct {
	SpendingPriv curve.Scalar
	ViewingPriv  curve.Scalar
	SpendingPub  curve.Point
	ViewingPub   curve.Point

	dropped bool
}

// MetaAddress is the shareable public half of a KeyPair: a (spendingPub,
// viewingPub) pair, encoded as 66 bytes / 132 hex characters.
type MetaAddress struct {
	SpendingPub curve.Point
	ViewingPub  curve.Point
}

// StealthOutput is what a sender computes and publishes for one
// outgoing note (spec.md §3 StealthOutput).
type StealthOutput struct {
	EphemeralPub curve.Point
	Amount       uint64
	Commitment   field.Element
}

// Note is what a recipient holds once a scan matches (spec.md §3 Note).
type Note struct {
	StealthPriv   curve.Scalar
	Amount        uint64
	LeafIndex     uint64
	Commitment    field.Element
	Nullifier     field.Element
	NullifierHash field.Element
}

// DeriveKeyPair derives (spendingPriv, viewingPriv) from a KeySource,
// per spec.md §4.3 steps 1–4. When source.Wallet is set, this requests
// a signature over wallet.DomainMessage and derives from it; when
// source.Derived is set, it skips the signature round-trip and derives
// directly from the stored seeds.
func DeriveKeyPair(ctx context.Context, source wallet.KeySource) (*KeyPair, error) {
	var seedSpend, seedView [32]byte

	switch {
	case source.Wallet != nil:
		sig, err := source.Wallet.Sign(ctx, []byte(wallet.DomainMessage))
		if err != nil {
			return nil, err
		}
		seedSpend = sha256.Sum256(append([]byte("zVault-spend-v1"), sig...))
		seedView = sha256.Sum256(append([]byte("zVault-view-v1"), sig...))
	case source.Derived != nil:
		seedSpend = source.Derived.SeedSpend
		seedView = source.Derived.SeedView
	default:
		return nil, types.ErrInvalidInput
	}

	spendingPriv := nonZeroScalar(seedSpend)
	viewingPriv := nonZeroScalar(seedView)

	kp := &KeyPair{
		SpendingPriv: spendingPriv,
		ViewingPriv:  viewingPriv,
		SpendingPub:  curve.Generator().ScalarMul(spendingPriv),
		ViewingPub:   curve.Generator().ScalarMul(viewingPriv),
	}
	runtime.SetFinalizer(kp, (*KeyPair).Drop)
	return kp, nil
}

// nonZeroScalar reduces seed mod q, re-hashing with a counter suffix in
// the negligible-probability case the result is zero (spec.md §4.3
// step 3).
func nonZeroScalar(seed [32]byte) curve.Scalar {
	s := curve.ScalarFromBytes(seed[:])
	counter := byte(0)
	for s.IsZero() {
		h := sha256.Sum256(append(seed[:], counter))
		s = curve.ScalarFromBytes(h[:])
		counter++
	}
	return s
}

// MetaAddress returns the shareable public address for kp.
func (kp *KeyPair) MetaAddress() MetaAddress {
	return MetaAddress{SpendingPub: kp.SpendingPub, ViewingPub: kp.ViewingPub}
}

// Drop zeroizes kp's private scalars. Safe to call more than once.
func (kp *KeyPair) Drop() {
	if kp.dropped {
		return
	}
	kp.SpendingPriv = curve.Scalar{}
	kp.ViewingPriv = curve.Scalar{}
	kp.dropped = true
}

// EncodeMetaAddress returns compress(spendingPub) || compress(viewingPub)
// as 132 lowercase hex characters (spec.md §4.3 meta-address codec).
func EncodeMetaAddress(m MetaAddress) (string, error) {
	sBytes, err := curve.Compress(m.SpendingPub)
	if err != nil {
		return "", err
	}
	vBytes, err := curve.Compress(m.ViewingPub)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, 66)
	buf = append(buf, sBytes[:]...)
	buf = append(buf, vBytes[:]...)
	return hex.EncodeToString(buf), nil
}

// DecodeMetaAddress parses a 132-hex-character meta-address, validating
// both points are well-formed curve points.
func DecodeMetaAddress(s string) (MetaAddress, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 66 {
		return MetaAddress{}, types.ErrInvalidInput
	}
	var sBuf, vBuf [33]byte
	copy(sBuf[:], raw[:33])
	copy(vBuf[:], raw[33:])

	spendingPub, err := curve.Decompress(sBuf)
	if err != nil {
		return MetaAddress{}, err
	}
	viewingPub, err := curve.Decompress(vBuf)
	if err != nil {
		return MetaAddress{}, err
	}
	return MetaAddress{SpendingPub: spendingPub, ViewingPub: viewingPub}, nil
}

// NewStealthOutput implements the sender side of spec.md §4.3: given
// the recipient's meta-address and an amount, samples an ephemeral key,
// derives the stealth public key via ECDH, and returns the record to
// publish as an Announcement.
func NewStealthOutput(recipient MetaAddress, amount uint64) (StealthOutput, error) {
	e, err := curve.RandomScalar()
	if err != nil {
		return StealthOutput{}, err
	}
	ephemeralPub := curve.Generator().ScalarMul(e)
	sharedSecret := recipient.ViewingPub.ScalarMul(e)

	k, err := taggedScalar(sharedSecret)
	if err != nil {
		return StealthOutput{}, err
	}
	stealthPub := recipient.SpendingPub.Add(curve.Generator().ScalarMul(k))

	commitment := poseidon.Commit(stealthPub.X(), field.FromUint64(amount))
	return StealthOutput{
		EphemeralPub: ephemeralPub,
		Amount:       amount,
		Commitment:   commitment,
	}, nil
}

// ScanAnnouncement implements the recipient side of spec.md §4.3 steps
// 1–5: using only the viewing key, it recomputes the stealth public key
// for an announcement and reports whether it matches the published
// commitment. It never requires, and cannot derive, a spendable key.
func ScanAnnouncement(kp *KeyPair, ephemeralPub curve.Point, amount uint64, commitment field.Element) (matched bool, stealthPubX field.Element, err error) {
	if amount < minAmountSats || amount > maxAmountSats {
		return false, field.Element{}, nil
	}
	sharedSecret := ephemeralPub.ScalarMul(kp.ViewingPriv)
	k, err := taggedScalar(sharedSecret)
	if err != nil {
		return false, field.Element{}, err
	}
	stealthPub := kp.SpendingPub.Add(curve.Generator().ScalarMul(k))
	candidate := poseidon.Commit(stealthPub.X(), field.FromUint64(amount))
	return candidate.Equal(commitment), stealthPub.X(), nil
}

// DeriveStealthPrivateKey completes the recipient side of spec.md §4.3
// steps 6–7: only a holder of the spending key can reach this point, and
// doing so yields a note ready to spend. leafIndex is the commitment's
// position in the accumulator, fixed once the commitment is appended.
func DeriveStealthPrivateKey(kp *KeyPair, ephemeralPub curve.Point, amount uint64, leafIndex uint64) (Note, error) {
	sharedSecret := ephemeralPub.ScalarMul(kp.ViewingPriv)
	k, err := taggedScalar(sharedSecret)
	if err != nil {
		return Note{}, err
	}
	stealthPriv := kp.SpendingPriv.Add(k)

	stealthPub := curve.Generator().ScalarMul(stealthPriv)
	expectedPub := kp.SpendingPub.Add(curve.Generator().ScalarMul(k))
	if !stealthPub.Equal(expectedPub) {
		return Note{}, types.ErrInvalidInput
	}

	commitment := poseidon.Commit(stealthPub.X(), field.FromUint64(amount))
	leafIndexField := field.FromUint64(leafIndex)
	nullifier := poseidon.Nullifier(field.FromBigInt(stealthPriv.BigInt()), leafIndexField)
	nullifierHash := poseidon.NullifierHash(nullifier)

	return Note{
		StealthPriv:   stealthPriv,
		Amount:        amount,
		LeafIndex:     leafIndex,
		Commitment:    commitment,
		Nullifier:     nullifier,
		NullifierHash: nullifierHash,
	}, nil
}

// taggedScalar computes t = sha256(compress(point) || domainTag),
// k = scalar_from_bytes(t): the shared tagged hash used by both the
// sender and recipient derivations (spec.md §4.3 step 4).
func taggedScalar(sharedSecret curve.Point) (curve.Scalar, error) {
	compressed, err := curve.Compress(sharedSecret)
	if err != nil {
		return curve.Scalar{}, err
	}
	h := sha256.New()
	h.Write(compressed[:])
	h.Write([]byte(stealthDomainTag))
	return curve.ScalarFromBytes(h.Sum(nil)), nil
}
