package scanner

import (
	"github.com/zvault/core/pkg/curve"
	"github.com/zvault/core/pkg/field"
	"github.com/zvault/core/pkg/types"
)

func decompressEphemeral(compressed [33]byte) (curve.Point, error) {
	return curve.Decompress(compressed)
}

func fieldFromHash(h types.Hash32) field.Element {
	return field.FromHash32(h)
}
