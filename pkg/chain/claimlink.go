package chain

import (
	"encoding/base64"
	"encoding/json"
	"math/big"

	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/poseidon"
	"github.com/zvault/core/pkg/types"
)

// claimLinkPayload is the base64(JSON) body of a claim link: the two
// seed field elements deriveNote builds a legacy note from, encoded as
// decimal strings (spec.md §6).
type claimLinkPayload struct {
	N string `json:"n"`
	S string `json:"s"`
}

// claimLinkEnvelope is the future-proofing wrapper a claim link MAY be
// nested in, per spec.md §6: "{ v: 1, payload: <b64> }".
type claimLinkEnvelope struct {
	V       int    `json:"v"`
	Payload string `json:"payload"`
}

// ClaimLink holds the two legacy seed field elements recovered from a
// claim link.
type ClaimLink struct {
	NullifierSeed field.Element
	SecretSeed    field.Element
}

// EncodeClaimLink produces the base64(JSON) claim link for (n, s).
func EncodeClaimLink(n, s field.Element) string {
	payload := claimLinkPayload{
		N: n.BigInt().String(),
		S: s.BigInt().String(),
	}
	raw, _ := json.Marshal(payload)
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeClaimLink parses a claim link. It accepts both URL-safe and
// standard base64, and tolerates the envelope form
// { v: 1, payload: <b64> } by unwrapping it before parsing the inner
// payload, per spec.md §6.
func DecodeClaimLink(s string) (ClaimLink, error) {
	raw, err := decodeBase64Either(s)
	if err != nil {
		return ClaimLink{}, types.ErrInvalidInput
	}

	var payload claimLinkPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.N != "" && payload.S != "" {
		return parseClaimLinkPayload(payload)
	}

	var env claimLinkEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Payload != "" {
		inner, err := decodeBase64Either(env.Payload)
		if err != nil {
			return ClaimLink{}, types.ErrInvalidInput
		}
		if err := json.Unmarshal(inner, &payload); err != nil {
			return ClaimLink{}, types.ErrInvalidInput
		}
		return parseClaimLinkPayload(payload)
	}

	return ClaimLink{}, types.ErrInvalidInput
}

func parseClaimLinkPayload(p claimLinkPayload) (ClaimLink, error) {
	n, ok := new(big.Int).SetString(p.N, 10)
	if !ok {
		return ClaimLink{}, types.ErrInvalidInput
	}
	s, ok := new(big.Int).SetString(p.S, 10)
	if !ok {
		return ClaimLink{}, types.ErrInvalidInput
	}
	return ClaimLink{
		NullifierSeed: field.FromBigInt(n),
		SecretSeed:    field.FromBigInt(s),
	}, nil
}

func decodeBase64Either(s string) ([]byte, error) {
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

// LegacyNote is the result of deriveNote: a note reconstructed purely
// from the two claim-link seeds, the legacy path orthogonal to the
// stealth-address path in pkg/keys (spec.md §9 item 2 — do NOT mix the
// two commitment formulas).
type LegacyNote struct {
	Nullifier  field.Element
	Secret     field.Element
	Commitment field.Element
}

// DeriveLegacyNote implements deriveNote(seed, index, amount) per the
// spec's resolved Open Question #2: nullifier = H(seed, index),
// secret = H(seed, index+1), commitment = H(H(nullifier, secret),
// amount). seed is the claim link's NullifierSeed; index is always 0
// at claim-link creation time per spec.md §4.5 step 1.
func DeriveLegacyNote(seed field.Element, index uint64, amount uint64) LegacyNote {
	indexField := field.FromUint64(index)
	nextIndexField := field.FromUint64(index + 1)

	nullifier := poseidon.Hash2(seed, indexField)
	secret := poseidon.Hash2(seed, nextIndexField)
	inner := poseidon.Hash2(nullifier, secret)
	commitment := poseidon.Hash2(inner, field.FromUint64(amount))

	return LegacyNote{Nullifier: nullifier, Secret: secret, Commitment: commitment}
}
