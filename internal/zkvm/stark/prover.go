package stark

import (
	"fmt"

	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/merkle"
	"github.com/starkvm/distaff/internal/zkvm/processor"
	"github.com/starkvm/distaff/internal/zkvm/transcript"
)

// finalFRILayerLength bounds how far FRI folds before revealing
// coefficients in the clear: below processor.MinTraceLength the
// remaining polynomial is cheap enough to send outright without costing
// meaningful soundness, mirroring the teacher's own minimum-trace-length
// floor (processor/constants.go) rather than inventing a new constant.
const finalFRILayerLength = processor.MinTraceLength

// Prove runs the full STARK prover (spec §4.5's Prove steps 1-7): commit
// the execution trace, build and commit the composition polynomial,
// reveal out-of-domain evaluations, merge every committed polynomial
// into one DEEP quotient, and run fold-by-4 FRI over it.
func Prove(trace *processor.Trace, programHash merkle.Digest, opts ProofOptions) (*Proof, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	traceLen := len(trace.Rows)
	ct, err := CommitTrace(trace.Rows, opts.ExtensionFactor)
	if err != nil {
		return nil, fmt.Errorf("stark: committing trace: %w", err)
	}

	ch := transcript.New()
	ch.SendDigest(ct.Tree.Root())

	var publicInputs []field.Element
	if len(trace.Rows) > 0 {
		publicInputs = trace.Rows[0].Stack[:]
	}
	boundaries := BuildBoundaries(trace.HashStep, programHash, publicInputs, trace.Outputs)
	transitionWeights := ch.ReceiveFields(NumTransitionWeights)
	boundaryWeights := ch.ReceiveFields(len(boundaries))

	compLDE, err := CompositionCodeword(ct, opts.ExtensionFactor, traceLen, transitionWeights, boundaries, boundaryWeights)
	if err != nil {
		return nil, fmt.Errorf("stark: building composition codeword: %w", err)
	}
	compLeaves := make([]merkle.Digest, len(compLDE))
	for i, v := range compLDE {
		compLeaves[i] = merkle.HashRow([]field.Element{v})
	}
	compTree, err := merkle.New(compLeaves)
	if err != nil {
		return nil, fmt.Errorf("stark: committing composition codeword: %w", err)
	}
	ch.SendDigest(compTree.Root())

	z := ch.ReceiveField()
	ood, err := EvaluateOOD(ct, z, traceLen, transitionWeights, boundaries, boundaryWeights)
	if err != nil {
		return nil, fmt.Errorf("stark: out-of-domain evaluation: %w", err)
	}
	ch.SendElements(ood.CurrentRow.Flatten())
	ch.SendElements(ood.NextRow.Flatten())
	compBytes := ood.Composition.Bytes()
	ch.Send(compBytes[:])
	valueBytes := ood.ValueComposition.Bytes()
	ch.Send(valueBytes[:])

	gammas := ch.ReceiveFields(NumDeepWeights())
	deepValues, err := DeepQuotient(ct, ood, compLDE, gammas)
	if err != nil {
		return nil, fmt.Errorf("stark: building DEEP quotient: %w", err)
	}
	deepCoeffs, err := ct.Domains.LDE.InterpolatePoly(deepValues)
	if err != nil {
		return nil, fmt.Errorf("stark: interpolating DEEP quotient: %w", err)
	}

	friProof, err := proveFRI(deepCoeffs, ct.Domains.LDE, ch, finalFRILayerLength, opts.NumQueries)
	if err != nil {
		return nil, fmt.Errorf("stark: running FRI: %w", err)
	}

	queryPositions := make([]int, len(friProof.Queries))
	for i, q := range friProof.Queries {
		queryPositions[i] = q.Position
	}
	traceQueries, err := openTraceQueries(ct, queryPositions)
	if err != nil {
		return nil, fmt.Errorf("stark: opening trace queries: %w", err)
	}
	compQueries, err := openCompQueries(compTree, compLDE, queryPositions)
	if err != nil {
		return nil, fmt.Errorf("stark: opening composition queries: %w", err)
	}

	return &Proof{
		Options:      opts,
		TraceLength:  traceLen,
		HashStep:     trace.HashStep,
		TraceRoot:    ct.Tree.Root(),
		CompRoot:     compTree.Root(),
		OOD:          ood,
		TraceQueries: traceQueries,
		CompQueries:  compQueries,
		FRI:          friProof,
	}, nil
}

// openTraceQueries opens the committed trace at exactly the query
// positions FRI sampled in the DEEP-quotient domain (both live over the
// same LDE domain, so the same index space applies).
func openTraceQueries(ct *CommittedTrace, positions []int) ([]TraceQuery, error) {
	out := make([]TraceQuery, len(positions))
	for i, pos := range positions {
		path, err := ct.Tree.Open(pos)
		if err != nil {
			return nil, err
		}
		out[i] = TraceQuery{Position: pos, Row: ct.RowAt(pos).Flatten(), Path: path}
	}
	return out, nil
}

// openCompQueries opens the committed composition codeword at the same
// positions FRI and the trace commitment are opened at.
func openCompQueries(tree *merkle.Tree, compLDE []field.Element, positions []int) ([]CompQuery, error) {
	out := make([]CompQuery, len(positions))
	for i, pos := range positions {
		path, err := tree.Open(pos)
		if err != nil {
			return nil, err
		}
		out[i] = CompQuery{Position: pos, Value: compLDE[pos], Path: path}
	}
	return out, nil
}
