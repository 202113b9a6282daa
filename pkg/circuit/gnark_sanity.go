package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/poseidon2"
)

// GnarkClaimCircuit is a reduced-constraint stand-in for the real claim
// circuit: it only checks that a leaf re-hashed up a Merkle path with
// (siblings, indices) yields the claimed root. It is a local
// constraint-sanity harness for the witness ordering produced by
// AssembleClaimInputs; no test in this module compiles or proves it,
// and it never drives the production proving path, which is the
// external UltraHonk prover behind ProverClient.
//
// Grounded on the teacher's TransactionCircuit
// (internal/zkp/circuits.go), which likewise defines a gnark
// frontend.Circuit with public/private frontend.Variable fields and a
// Define method building the constraint system; depth is fixed at
// compile time here, mirroring the teacher's MerklePaths/PathBits
// per-transaction slices.
type GnarkClaimCircuit struct {
	// Public.
	MerkleRoot frontend.Variable `gnark:",public"`

	// Private.
	Leaf     frontend.Variable
	Siblings []frontend.Variable
	Indices  []frontend.Variable
}

// NewGnarkClaimCircuit allocates a circuit shaped for the given tree
// depth, with unset variables ready for witness assignment.
func NewGnarkClaimCircuit(depth int) *GnarkClaimCircuit {
	return &GnarkClaimCircuit{
		Siblings: make([]frontend.Variable, depth),
		Indices:  make([]frontend.Variable, depth),
	}
}

// Define builds the constraint system: recompute the root from Leaf,
// Siblings, and Indices using the in-circuit Poseidon2 permutation, and
// assert it equals MerkleRoot.
func (c *GnarkClaimCircuit) Define(api frontend.API) error {
	hasher, err := poseidon2.NewMerkleDamgardHasher(api)
	if err != nil {
		return err
	}

	cur := c.Leaf
	for i := range c.Siblings {
		left := api.Select(c.Indices[i], c.Siblings[i], cur)
		right := api.Select(c.Indices[i], cur, c.Siblings[i])

		hasher.Reset()
		hasher.Write(left, right)
		cur = hasher.Sum()
	}

	api.AssertIsEqual(cur, c.MerkleRoot)
	return nil
}
