package stark

import (
	"fmt"

	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/merkle"
	"github.com/starkvm/distaff/internal/zkvm/processor"
	"github.com/starkvm/distaff/internal/zkvm/transcript"
)

// Verify checks a Proof against the public statement it claims to prove
// (spec §4.5's Verify steps 1-5): the program's declared hash, its
// public inputs, and its claimed outputs. It replays exactly the
// transcript sequence Prove did, so every challenge the verifier derives
// matches what the prover committed to ahead of time.
func Verify(proof *Proof, programHash merkle.Digest, publicInputs, outputs []field.Element) error {
	opts := proof.Options
	if err := opts.Validate(); err != nil {
		return err
	}
	if !field.IsPowerOfTwo(proof.TraceLength) || proof.TraceLength < processor.MinTraceLength {
		return fmt.Errorf("verification of program execution path failed: invalid trace length %d", proof.TraceLength)
	}

	doms, err := NewDomains(proof.TraceLength, opts.ExtensionFactor)
	if err != nil {
		return err
	}

	ch := transcript.New()
	ch.SendDigest(proof.TraceRoot)

	boundaries := BuildBoundaries(proof.HashStep, programHash, publicInputs, outputs)
	transitionWeights := ch.ReceiveFields(NumTransitionWeights)
	boundaryWeights := ch.ReceiveFields(len(boundaries))

	ch.SendDigest(proof.CompRoot)

	z := ch.ReceiveField()
	if !z.Equal(proof.OOD.Z) {
		return fmt.Errorf("verification of program execution path failed: out-of-domain point mismatch")
	}

	lastPoint := doms.Trace.Generator.ExpUint64(uint64(proof.TraceLength - 1))
	expectedPath, expectedValue, err := CompositionPartsAt(z, proof.OOD.CurrentRow, proof.OOD.NextRow, proof.TraceLength, lastPoint, transitionWeights, doms.Trace, boundaries, boundaryWeights)
	if err != nil {
		return fmt.Errorf("verification of program execution path failed: %w", err)
	}

	// The value portion (public-input/output boundaries) and the path
	// portion (transition residual plus program-hash boundaries) are
	// checked independently, so a wrong public input/output and a wrong
	// program hash surface through their own canonical messages (spec
	// §7's input-sensitivity law and §8 scenario 6) instead of being
	// folded into one generic mismatch.
	actualValue := proof.OOD.ValueComposition
	actualPath := proof.OOD.Composition.Sub(actualValue)
	if !expectedValue.Equal(actualValue) {
		return fmt.Errorf("verification of low-degree proof failed: evaluations did not match column value at depth 0")
	}
	if !expectedPath.Equal(actualPath) {
		return fmt.Errorf("verification of program execution path failed")
	}

	ch.SendElements(proof.OOD.CurrentRow.Flatten())
	ch.SendElements(proof.OOD.NextRow.Flatten())
	compBytes := proof.OOD.Composition.Bytes()
	ch.Send(compBytes[:])
	valueBytes := proof.OOD.ValueComposition.Bytes()
	ch.Send(valueBytes[:])

	gammas := ch.ReceiveFields(NumDeepWeights())

	if len(proof.TraceQueries) != len(proof.CompQueries) {
		return fmt.Errorf("verification of low-degree proof failed: mismatched trace/composition query counts")
	}
	if len(proof.FRI.Queries) != len(proof.TraceQueries) {
		return fmt.Errorf("verification of low-degree proof failed: mismatched FRI/trace query counts")
	}

	lde := doms.LDE
	for i, tq := range proof.TraceQueries {
		cq := proof.CompQueries[i]
		fq := proof.FRI.Queries[i]
		if tq.Position != fq.Position || cq.Position != fq.Position {
			return fmt.Errorf("verification of low-degree proof failed: query position mismatch at %d", i)
		}

		traceLeaf := merkle.HashRow(tq.Row)
		if !merkle.Verify(proof.TraceRoot, traceLeaf, tq.Position, tq.Path) {
			return fmt.Errorf("verification of program execution path failed: trace opening at query %d did not match the committed root", i)
		}
		compLeaf := merkle.HashRow([]field.Element{cq.Value})
		if !merkle.Verify(proof.CompRoot, compLeaf, cq.Position, cq.Path) {
			return fmt.Errorf("verification of low-degree proof failed: evaluations did not match column value at depth 0")
		}

		x := lde.Offset.Mul(lde.Generator.ExpUint64(uint64(tq.Position)))
		deepVal, err := deepQuotientAt(x, tq.Row, cq.Value, proof.OOD, doms.Trace.Generator, gammas)
		if err != nil {
			return fmt.Errorf("verification of low-degree proof failed: %w", err)
		}
		if len(fq.LayerValues) == 0 || !deepVal.Equal(fq.LayerValues[0][0]) {
			return fmt.Errorf("verification of low-degree proof failed: evaluations did not match column value at depth 0")
		}
	}

	if err := verifyFRI(proof.FRI, lde, ch, finalFRILayerLength, opts.NumQueries); err != nil {
		return err
	}
	return nil
}
