package stark

import (
	"fmt"

	"github.com/starkvm/distaff/internal/zkvm/constraints"
	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/processor"
)

// OutOfDomainEvaluations is everything DEEP-ALI reveals about the
// committed polynomials at the verifier-chosen out-of-domain point z
// (spec §4.5 step 5): every column's value at z and at the next trace
// step (z shifted by the trace generator), plus the composition
// identity's own value at z.
type OutOfDomainEvaluations struct {
	Z           field.Element
	CurrentRow  processor.Row
	NextRow     processor.Row
	Composition field.Element

	// ValueComposition is the public-input/output boundary portion of
	// Composition alone (constraints.Boundary.IsPathBoundary), so a
	// verifier can check it against its own public inputs and outputs
	// independently of the program-hash/transition portion
	// (Composition.Sub(ValueComposition)) and report the spec's two
	// distinct canonical failure messages accordingly.
	ValueComposition field.Element
}

// NumDeepWeights is two challenges per committed column (one merging in
// its current-row evaluation, one its next-row evaluation) plus one for
// the composition polynomial.
func NumDeepWeights() int {
	return 2*processor.Width() + 1
}

// EvaluateOOD evaluates every committed column's interpolating
// polynomial at z and z*generator using exact polynomial evaluation
// (field.Polynomial.Eval), since z sits outside every domain this engine
// constructs, then evaluates the composition identity at the same point
// using the same formula CompositionCodeword used on-domain.
func EvaluateOOD(
	ct *CommittedTrace,
	z field.Element,
	traceLen int,
	transitionWeights []field.Element,
	boundaries []constraints.Boundary,
	boundaryWeights []field.Element,
) (OutOfDomainEvaluations, error) {
	width := len(ct.ColumnPolys)
	curCols := make([]field.Element, width)
	zNext := z.Mul(ct.Domains.Trace.Generator)
	nextCols := make([]field.Element, width)
	for c := 0; c < width; c++ {
		curCols[c] = ct.ColumnPolys[c].Eval(z)
		nextCols[c] = ct.ColumnPolys[c].Eval(zNext)
	}
	curRow := processor.RowFromColumns(curCols)
	nextRow := processor.RowFromColumns(nextCols)

	lastPoint := ct.Domains.Trace.Generator.ExpUint64(uint64(traceLen - 1))
	pathPart, valuePart, err := CompositionPartsAt(z, curRow, nextRow, traceLen, lastPoint, transitionWeights, ct.Domains.Trace, boundaries, boundaryWeights)
	if err != nil {
		return OutOfDomainEvaluations{}, fmt.Errorf("stark: out-of-domain composition evaluation: %w", err)
	}
	return OutOfDomainEvaluations{
		Z:                z,
		CurrentRow:       curRow,
		NextRow:          nextRow,
		Composition:      pathPart.Add(valuePart),
		ValueComposition: valuePart,
	}, nil
}

// DeepQuotient merges every committed column and the composition
// polynomial into the single low-degree codeword FRI tests (spec §4.5
// step 5): a random linear combination of each polynomial's DEEP
// quotient (f(x)-f(z))/(x-z), so one FRI run stands in for a low-degree
// test on every committed polynomial at once. gammas must have
// NumDeepWeights() entries: two per column (current-row, next-row) then
// one for the composition polynomial.
func DeepQuotient(ct *CommittedTrace, ood OutOfDomainEvaluations, compositionLDE []field.Element, gammas []field.Element) ([]field.Element, error) {
	if len(gammas) != NumDeepWeights() {
		return nil, fmt.Errorf("stark: expected %d DEEP weights, got %d", NumDeepWeights(), len(gammas))
	}

	n := ct.Domains.LDE.Length
	lde := ct.Domains.LDE.Elements()
	traceGen := ct.Domains.Trace.Generator

	width := len(ct.ColumnPolys)
	out := make([]field.Element, n)
	for i, x := range lde {
		row := make([]field.Element, width)
		for c := 0; c < width; c++ {
			row[c] = ct.Columns[c][i]
		}
		v, err := deepQuotientAt(x, row, compositionLDE[i], ood, traceGen, gammas)
		if err != nil {
			return nil, fmt.Errorf("stark: DEEP quotient at LDE index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// deepQuotientAt evaluates the DEEP quotient at a single point x, given
// that point's already-committed row and composition value: the prover
// calls this once per LDE index to build the full codeword, the verifier
// calls it once per sampled query position using the openings the proof
// reveals, so both sides are checking exactly the same formula.
func deepQuotientAt(x field.Element, row []field.Element, compVal field.Element, ood OutOfDomainEvaluations, traceGen field.Element, gammas []field.Element) (field.Element, error) {
	zNext := ood.Z.Mul(traceGen)
	zInvDen, err := x.Sub(ood.Z).Inv()
	if err != nil {
		return field.Element{}, fmt.Errorf("point coincides with z: %w", err)
	}
	zgInvDen, err := x.Sub(zNext).Inv()
	if err != nil {
		return field.Element{}, fmt.Errorf("point coincides with z*generator: %w", err)
	}

	curCols := ood.CurrentRow.Flatten()
	nextCols := ood.NextRow.Flatten()

	out := field.Zero()
	for c, v := range row {
		g1, g2 := gammas[2*c], gammas[2*c+1]
		term1 := v.Sub(curCols[c]).Mul(zInvDen).Mul(g1)
		term2 := v.Sub(nextCols[c]).Mul(zgInvDen).Mul(g2)
		out = out.Add(term1).Add(term2)
	}

	gH := gammas[2*len(row)]
	out = out.Add(compVal.Sub(ood.Composition).Mul(zInvDen).Mul(gH))
	return out, nil
}
