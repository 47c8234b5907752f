package stark

import (
	"fmt"

	"github.com/starkvm/distaff/internal/zkvm/constraints"
	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/processor"
)

// NumTransitionWeights is one challenge per stack residual slot plus one
// for the binary-purity residual (constraints.Transition's two return
// values), the α coefficients of spec §4.5 step 4.
const NumTransitionWeights = processor.MaxStackDepth + 1

// CompositionAt evaluates the combined, challenge-weighted composition
// identity at a single point x (spec §4.4's second paragraph, §4.5 step
// 4): the transition residual divided by the vanishing polynomial of the
// trace domain (excluding the final row, whose "next" row wraps around
// and isn't a real transition — protocols/air.go's own boundary/
// transition split makes the same exclusion), plus every boundary
// residual divided by its own single-point vanishing polynomial.
//
// x must not be a trace-domain point (the LDE domain's coset offset and
// any honestly-sampled out-of-domain point both guarantee this), or the
// vanishing-polynomial division below is undefined.
func CompositionAt(
	x field.Element,
	curRow, nextRow processor.Row,
	traceLen int,
	lastPoint field.Element,
	transitionWeights []field.Element,
	traceDomain field.Domain,
	boundaries []constraints.Boundary,
	boundaryWeights []field.Element,
) (field.Element, error) {
	pathPart, valuePart, err := CompositionPartsAt(x, curRow, nextRow, traceLen, lastPoint, transitionWeights, traceDomain, boundaries, boundaryWeights)
	if err != nil {
		return field.Element{}, err
	}
	return pathPart.Add(valuePart), nil
}

// CompositionPartsAt splits CompositionAt's result into the
// program-execution-path portion (the transition residual and every
// sponge/program-hash boundary) and the public-value portion (the
// public-input and output stack boundaries). A verifier checks each
// independently against the proof's own split (constraints.Boundary.
// IsPathBoundary): a mismatch in the value portion means a wrong public
// input or output, a mismatch in the path portion means a wrong program
// hash or a corrupted execution trace, and the spec's two canonical
// failure messages follow that split directly.
func CompositionPartsAt(
	x field.Element,
	curRow, nextRow processor.Row,
	traceLen int,
	lastPoint field.Element,
	transitionWeights []field.Element,
	traceDomain field.Domain,
	boundaries []constraints.Boundary,
	boundaryWeights []field.Element,
) (pathPart, valuePart field.Element, err error) {
	stackRes, purity := constraints.Transition(curRow, nextRow)

	transitionSum := field.Zero()
	for i, v := range stackRes {
		transitionSum = transitionSum.Add(transitionWeights[i].Mul(v))
	}
	transitionSum = transitionSum.Add(transitionWeights[processor.MaxStackDepth].Mul(purity))

	zH := x.ExpUint64(uint64(traceLen)).Sub(field.One())
	zHInv, err := zH.Inv()
	if err != nil {
		return field.Element{}, field.Element{}, fmt.Errorf("stark: composition point lies in the trace domain: %w", err)
	}
	lastPointFactor := x.Sub(lastPoint)
	transitionTerm := transitionSum.Mul(lastPointFactor).Mul(zHInv)

	pathBoundary, valueBoundary, err := boundaryTermsAt(x, curRow, traceDomain, boundaries, boundaryWeights)
	if err != nil {
		return field.Element{}, field.Element{}, err
	}

	return transitionTerm.Add(pathBoundary), valueBoundary, nil
}

// boundaryTermsAt evaluates every boundary's weighted, vanishing-divided
// residual at x, accumulating path (sponge) boundaries and value (stack)
// boundaries into separate sums.
func boundaryTermsAt(
	x field.Element,
	curRow processor.Row,
	traceDomain field.Domain,
	boundaries []constraints.Boundary,
	boundaryWeights []field.Element,
) (pathTerm, valueTerm field.Element, err error) {
	if len(boundaries) != len(boundaryWeights) {
		return field.Element{}, field.Element{}, fmt.Errorf("stark: %d boundaries but %d boundary weights", len(boundaries), len(boundaryWeights))
	}
	pathTerm = field.Zero()
	valueTerm = field.Zero()
	for i, b := range boundaries {
		res := b.Evaluate(curRow)
		domainPoint := traceDomain.Offset.Mul(traceDomain.Generator.ExpUint64(uint64(b.Step)))
		denom := x.Sub(domainPoint)
		denomInv, invErr := denom.Inv()
		if invErr != nil {
			return field.Element{}, field.Element{}, fmt.Errorf("stark: composition point coincides with boundary step %d: %w", b.Step, invErr)
		}
		term := boundaryWeights[i].Mul(res).Mul(denomInv)
		if b.IsPathBoundary() {
			pathTerm = pathTerm.Add(term)
		} else {
			valueTerm = valueTerm.Add(term)
		}
	}
	return pathTerm, valueTerm, nil
}

// CompositionCodeword evaluates CompositionAt over the entire LDE
// domain, the composition polynomial's low-degree extension the prover
// commits to (spec §4.5 step 4).
func CompositionCodeword(
	ct *CommittedTrace,
	extensionFactor, traceLen int,
	transitionWeights []field.Element,
	boundaries []constraints.Boundary,
	boundaryWeights []field.Element,
) ([]field.Element, error) {
	lastPoint := ct.Domains.Trace.Generator.ExpUint64(uint64(traceLen - 1))
	n := ct.Domains.LDE.Length
	out := make([]field.Element, n)
	for i := 0; i < n; i++ {
		x := ct.Domains.LDE.Offset.Mul(ct.Domains.LDE.Generator.ExpUint64(uint64(i)))
		curRow := ct.RowAt(i)
		nextRow := ct.RowAt(ct.Domains.NextRowIndex(i, extensionFactor))
		v, err := CompositionAt(x, curRow, nextRow, traceLen, lastPoint, transitionWeights, ct.Domains.Trace, boundaries, boundaryWeights)
		if err != nil {
			return nil, fmt.Errorf("stark: composition codeword at LDE index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
