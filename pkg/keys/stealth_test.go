package keys

import (
	"context"
	"testing"

	"github.com/zvault/core/internal/wallet"
)

func testKeyPair(t *testing.T, seed byte) *KeyPair {
	t.Helper()
	var m wallet.DerivedKeyMaterial
	for i := range m.SeedSpend {
		m.SeedSpend[i] = seed + byte(i)
		m.SeedView[i] = seed + byte(i) + 1
	}
	kp, err := DeriveKeyPair(context.Background(), wallet.FromDerived(&m))
	if err != nil {
		t.Fatalf("DeriveKeyPair: %v", err)
	}
	return kp
}

func TestMetaAddressRoundTrip(t *testing.T) {
	kp := testKeyPair(t, 1)
	meta := kp.MetaAddress()

	encoded, err := EncodeMetaAddress(meta)
	if err != nil {
		t.Fatalf("EncodeMetaAddress: %v", err)
	}
	if len(encoded) != 132 {
		t.Fatalf("expected 132 hex chars, got %d", len(encoded))
	}

	decoded, err := DecodeMetaAddress(encoded)
	if err != nil {
		t.Fatalf("DecodeMetaAddress: %v", err)
	}
	if !decoded.SpendingPub.Equal(meta.SpendingPub) || !decoded.ViewingPub.Equal(meta.ViewingPub) {
		t.Fatal("decoded meta-address does not match original")
	}
}

func TestStealthRoundTrip(t *testing.T) {
	recipient := testKeyPair(t, 10)
	meta := recipient.MetaAddress()

	const amount = 100_000
	out, err := NewStealthOutput(meta, amount)
	if err != nil {
		t.Fatalf("NewStealthOutput: %v", err)
	}

	matched, _, err := ScanAnnouncement(recipient, out.EphemeralPub, amount, out.Commitment)
	if err != nil {
		t.Fatalf("ScanAnnouncement: %v", err)
	}
	if !matched {
		t.Fatal("expected recipient's own viewing key to match the announcement")
	}

	note, err := DeriveStealthPrivateKey(recipient, out.EphemeralPub, amount, 0)
	if err != nil {
		t.Fatalf("DeriveStealthPrivateKey: %v", err)
	}
	if !note.Commitment.Equal(out.Commitment) {
		t.Fatal("derived note commitment does not match sender's commitment")
	}
}

func TestScanRejectsWrongViewingKey(t *testing.T) {
	recipient := testKeyPair(t, 20)
	impostor := testKeyPair(t, 99)

	const amount = 5_000
	out, err := NewStealthOutput(recipient.MetaAddress(), amount)
	if err != nil {
		t.Fatalf("NewStealthOutput: %v", err)
	}

	matched, _, err := ScanAnnouncement(impostor, out.EphemeralPub, amount, out.Commitment)
	if err != nil {
		t.Fatalf("ScanAnnouncement: %v", err)
	}
	if matched {
		t.Fatal("a different wallet's viewing key must not match")
	}
}

func TestScanRejectsOutOfRangeAmount(t *testing.T) {
	recipient := testKeyPair(t, 30)
	out, err := NewStealthOutput(recipient.MetaAddress(), 1)
	if err != nil {
		t.Fatalf("NewStealthOutput: %v", err)
	}

	matched, _, err := ScanAnnouncement(recipient, out.EphemeralPub, 0, out.Commitment)
	if err != nil {
		t.Fatalf("ScanAnnouncement: %v", err)
	}
	if matched {
		t.Fatal("amount of 0 is out of range and must not match")
	}
}

func TestScanPrecisionAmongManyAnnouncements(t *testing.T) {
	recipient := testKeyPair(t, 40)
	bystander := testKeyPair(t, 41)

	const total = 50
	const addressedToRecipient = 5

	matches := 0
	for i := 0; i < total; i++ {
		to := bystander
		if i%(total/addressedToRecipient) == 0 {
			to = recipient
		}
		out, err := NewStealthOutput(to.MetaAddress(), 1000+uint64(i))
		if err != nil {
			t.Fatalf("NewStealthOutput: %v", err)
		}

		matched, _, err := ScanAnnouncement(recipient, out.EphemeralPub, 1000+uint64(i), out.Commitment)
		if err != nil {
			t.Fatalf("ScanAnnouncement: %v", err)
		}
		if matched {
			matches++
		}
	}

	if matches != addressedToRecipient {
		t.Fatalf("expected %d matches, got %d", addressedToRecipient, matches)
	}
}
