package stark

import (
	"github.com/starkvm/distaff/internal/zkvm/constraints"
	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/merkle"
)

// Proof is everything the verifier needs to check a program executed to
// a claimed output without re-running it (spec §4.5's Prove output / §6's
// deterministic framing): the two Merkle commitments, the out-of-domain
// evaluations DEEP-ALI reveals, and the low-degree proof over their
// merged quotient.
type Proof struct {
	Options ProofOptions

	TraceLength int
	HashStep    int
	TraceRoot   merkle.Digest
	CompRoot    merkle.Digest

	OOD OutOfDomainEvaluations

	TraceQueries []TraceQuery
	CompQueries  []CompQuery
	FRI          *FRIProof
}

// TraceQuery is one FRI query position's opening into the committed
// trace: the full row (every column) at that LDE index plus its Merkle
// path, so the verifier can recompute the constraint residual itself
// rather than trusting the prover's composition value at that point.
type TraceQuery struct {
	Position int
	Row      []field.Element
	Path     merkle.Path
}

// CompQuery is the composition codeword's opening at the same query
// position: together with the matching TraceQuery, it gives the verifier
// everything deepQuotientAt needs to recompute that point's DEEP
// quotient value itself, and check it against the FRI proof's own first
// layer opening at that position.
type CompQuery struct {
	Position int
	Value    field.Element
	Path     merkle.Path
}

// BuildBoundaries assembles the statement both prover and verifier build
// boundary constraints from (spec §4.2): the public inputs at step 0,
// and the program hash plus claimed outputs at hashStep, the row the
// program-hash accumulator's final fold landed on. Since both sides call
// this with the same (hashStep, programHash, publicInputs, outputs) — the
// public instance being proven — they always derive identical boundaries
// without the prover needing to send them explicitly.
func BuildBoundaries(hashStep int, programHash merkle.Digest, publicInputs, outputs []field.Element) []constraints.Boundary {
	out := constraints.InputBoundaries(publicInputs)
	out = append(out, constraints.OutputBoundaries(hashStep, programHash, outputs)...)
	return out
}
