// Package chain implements the on-chain boundary: account/instruction
// wire layouts, discriminators, the claim-link codec, and the legacy
// note-derivation function. Endianness follows spec.md §6 exactly:
// little-endian for u32/u64/i64 integers, big-endian for 32-byte field
// elements. Grounded on the teacher's internal/p2p/messages.go framing
// idiom (binary.{Big,Little}Endian-based fixed encoders, no reflection).
package chain

import (
	"encoding/binary"

	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/types"
)

// Tree depths. Two independent constants, never derived from one
// another (spec.md §9 item 4): the main deposit tree and the
// split/partial-withdraw tree are sized differently.
const (
	MainTreeDepth  = 20
	SplitTreeDepth = 10
)

// Account discriminators (first byte of an account's data).
const (
	DiscriminatorCommitmentTree byte = 0x05
	DiscriminatorAnnouncement   byte = 0x08
)

// Instruction discriminators (first byte of instruction data).
const (
	InstrInitializePool           byte = 0x00
	InstrInitializeCommitmentTree byte = 0x01
	InstrClaim                    byte = 0x03
	InstrSpendSplit               byte = 0x04
	InstrSpendPartialPublic       byte = 0x0A
	InstrDemoAddStealth           byte = 0x08
)

// AnnouncementRecordSize is the fixed on-wire size of an Announcement
// account (spec.md §4.4).
const AnnouncementRecordSize = 98

// AnnouncementRecord mirrors the on-chain Announcement account layout.
type AnnouncementRecord struct {
	Bump         byte
	EphemeralPub [33]byte
	Amount       uint64
	Commitment   types.Hash32
	LeafIndex    uint64
	CreatedAt    int64
}

// EncodeAnnouncement serializes a into the 98-byte on-chain layout.
func EncodeAnnouncement(a AnnouncementRecord) [AnnouncementRecordSize]byte {
	var buf [AnnouncementRecordSize]byte
	buf[0] = DiscriminatorAnnouncement
	buf[1] = a.Bump
	copy(buf[2:35], a.EphemeralPub[:])
	binary.LittleEndian.PutUint64(buf[35:43], a.Amount)
	copy(buf[43:75], a.Commitment[:])
	binary.LittleEndian.PutUint64(buf[75:83], a.LeafIndex)
	binary.LittleEndian.PutUint64(buf[83:91], uint64(a.CreatedAt))
	return buf
}

// DecodeAnnouncement parses the 98-byte on-chain layout.
func DecodeAnnouncement(buf [AnnouncementRecordSize]byte) (AnnouncementRecord, error) {
	if buf[0] != DiscriminatorAnnouncement {
		return AnnouncementRecord{}, types.ErrInvalidInput
	}
	var a AnnouncementRecord
	a.Bump = buf[1]
	copy(a.EphemeralPub[:], buf[2:35])
	a.Amount = binary.LittleEndian.Uint64(buf[35:43])
	a.Commitment = types.Hash32FromBytes(buf[43:75])
	a.LeafIndex = binary.LittleEndian.Uint64(buf[75:83])
	a.CreatedAt = int64(binary.LittleEndian.Uint64(buf[83:91]))
	return a, nil
}

// CommitmentTreeAccountSize is the fixed on-chain mirror size: 8-byte
// header region (discriminator + bump/padding) + root + nextIndex +
// 100-entry history + history index.
const CommitmentTreeAccountSize = 8 + 32 + 8 + accumulator100*32 + 4

const accumulator100 = 100

// CommitmentTreeAccount mirrors the on-chain CommitmentTree account.
type CommitmentTreeAccount struct {
	CurrentRoot      types.Hash32
	NextIndex        uint64
	RootHistory      [accumulator100]types.Hash32
	RootHistoryIndex uint32
}

// EncodeCommitmentTreeAccount serializes t into its on-chain layout.
// The header region (offsets 1..8, bump + padding) is left zeroed; the
// caller is expected to fill in a real bump seed at those offsets if
// required by the on-chain program.
func EncodeCommitmentTreeAccount(t CommitmentTreeAccount) []byte {
	buf := make([]byte, CommitmentTreeAccountSize)
	buf[0] = DiscriminatorCommitmentTree
	copy(buf[8:40], t.CurrentRoot[:])
	binary.LittleEndian.PutUint64(buf[40:48], t.NextIndex)
	for i := 0; i < accumulator100; i++ {
		off := 48 + i*32
		copy(buf[off:off+32], t.RootHistory[i][:])
	}
	binary.LittleEndian.PutUint32(buf[3248:3252], t.RootHistoryIndex)
	return buf
}

// DecodeCommitmentTreeAccount parses the on-chain CommitmentTree layout.
func DecodeCommitmentTreeAccount(buf []byte) (CommitmentTreeAccount, error) {
	if len(buf) < CommitmentTreeAccountSize || buf[0] != DiscriminatorCommitmentTree {
		return CommitmentTreeAccount{}, types.ErrInvalidInput
	}
	var t CommitmentTreeAccount
	t.CurrentRoot = types.Hash32FromBytes(buf[8:40])
	t.NextIndex = binary.LittleEndian.Uint64(buf[40:48])
	for i := 0; i < accumulator100; i++ {
		off := 48 + i*32
		t.RootHistory[i] = types.Hash32FromBytes(buf[off : off+32])
	}
	t.RootHistoryIndex = binary.LittleEndian.Uint32(buf[3248:3252])
	return t, nil
}

// EncodeFieldElements concatenates each element's 32-byte big-endian
// encoding, in order, per spec.md §4.5 step 4 ("marshal as 32-byte
// big-endian field elements in the order the circuit expects").
func EncodeFieldElements(elems ...field.Element) []byte {
	buf := make([]byte, 0, len(elems)*32)
	for _, e := range elems {
		b := e.Bytes()
		buf = append(buf, b[:]...)
	}
	return buf
}

// ClaimInstructionData is the conceptual layout of a claim (0x03)
// instruction, spec.md §6.
type ClaimInstructionData struct {
	ProofInline           bool
	MerkleRoot            types.Hash32
	NullifierHash         types.Hash32
	Amount                uint64
	RecipientFieldReduced types.Address
	VKHash                types.Hash32
	Proof                 []byte // only present when ProofInline
}

// EncodeClaimInstruction serializes d per spec.md §6's claim layout.
func EncodeClaimInstruction(d ClaimInstructionData) []byte {
	buf := make([]byte, 0, 2+32+32+8+32+32+len(d.Proof))
	buf = append(buf, InstrClaim)
	if d.ProofInline {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
	}
	buf = append(buf, d.MerkleRoot[:]...)
	buf = append(buf, d.NullifierHash[:]...)

	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], d.Amount)
	buf = append(buf, amt[:]...)

	buf = append(buf, d.RecipientFieldReduced[:]...)
	buf = append(buf, d.VKHash[:]...)
	if d.ProofInline {
		buf = append(buf, d.Proof...)
	}
	return buf
}

// StealthBlob is the per-output (ephemeralPubX, encryptedAmountWithSign)
// pair attached to spend-split and spend-partial-public outputs.
type StealthBlob struct {
	EphemeralPubX           types.Hash32
	EncryptedAmountWithSign types.Hash32
}
