package stark

import (
	"testing"

	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/processor"
)

// testOptions keeps proof size small enough for a test run: a shallow
// extension factor and few queries trade away real-world soundness for
// speed, the way the teacher's own test suite dials down its STARK
// parameters for unit tests rather than running at production security.
func testOptions() ProofOptions {
	return DefaultProofOptions().WithExtensionFactor(16).WithNumQueries(12)
}

func buildTrace(t *testing.T, ops []processor.Instruction, public []field.Element) (*processor.Trace, *processor.Program) {
	t.Helper()
	prog := processor.FromProc([]processor.Block{processor.Span{Ops: ops}})
	tr, err := processor.Execute(prog, processor.FromPublic(public), 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return tr, prog
}

func TestProveVerifyRoundTrip(t *testing.T) {
	public := []field.Element{field.FromInt64(3), field.FromInt64(4)}
	tr, prog := buildTrace(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)}, public)

	proof, err := Prove(tr, prog.Hash(), testOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(proof, prog.Hash(), public, tr.Outputs); err != nil {
		t.Fatalf("Verify rejected an honest proof: %v", err)
	}
}

// canonical failure messages (spec §7's input-sensitivity law, §8
// scenario 6): a wrong public input or output is a low-degree-proof
// failure, a wrong program hash is a bare execution-path failure.
const (
	lowDegreeFailureMsg  = "verification of low-degree proof failed: evaluations did not match column value at depth 0"
	executionPathFailMsg = "verification of program execution path failed"
)

func TestVerifyRejectsWrongOutput(t *testing.T) {
	public := []field.Element{field.FromInt64(3), field.FromInt64(4)}
	tr, prog := buildTrace(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)}, public)

	proof, err := Prove(tr, prog.Hash(), testOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	wrongOutputs := []field.Element{field.FromInt64(999)}
	err = Verify(proof, prog.Hash(), public, wrongOutputs)
	if err == nil {
		t.Fatal("expected verification to fail for a wrong claimed output")
	}
	if err.Error() != lowDegreeFailureMsg {
		t.Fatalf("got error %q, want %q", err.Error(), lowDegreeFailureMsg)
	}
}

func TestVerifyRejectsWrongProgramHash(t *testing.T) {
	public := []field.Element{field.FromInt64(3), field.FromInt64(4)}
	tr, prog := buildTrace(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)}, public)

	proof, err := Prove(tr, prog.Hash(), testOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	otherTr, otherProg := buildTrace(t, []processor.Instruction{processor.NewInstruction(processor.OpMul)}, public)
	_ = otherTr
	err = Verify(proof, otherProg.Hash(), public, tr.Outputs)
	if err == nil {
		t.Fatal("expected verification to fail against a different program hash")
	}
	if err.Error() != executionPathFailMsg {
		t.Fatalf("got error %q, want bare %q", err.Error(), executionPathFailMsg)
	}
}

func TestVerifyRejectsWrongPublicInput(t *testing.T) {
	public := []field.Element{field.FromInt64(3), field.FromInt64(4)}
	tr, prog := buildTrace(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)}, public)

	proof, err := Prove(tr, prog.Hash(), testOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	wrongPublic := []field.Element{field.FromInt64(3), field.FromInt64(5)}
	err = Verify(proof, prog.Hash(), wrongPublic, tr.Outputs)
	if err == nil {
		t.Fatal("expected verification to fail for a different claimed public input")
	}
	if err.Error() != lowDegreeFailureMsg {
		t.Fatalf("got error %q, want %q", err.Error(), lowDegreeFailureMsg)
	}
}

func TestVerifyRejectsTamperedTraceQuery(t *testing.T) {
	public := []field.Element{field.FromInt64(7)}
	tr, prog := buildTrace(t, []processor.Instruction{
		processor.NewInstruction(processor.OpDup),
		processor.NewInstruction(processor.OpAdd),
	}, public)

	proof, err := Prove(tr, prog.Hash(), testOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if len(proof.TraceQueries) == 0 {
		t.Fatal("expected at least one trace query")
	}
	proof.TraceQueries[0].Row[0] = proof.TraceQueries[0].Row[0].Add(field.One())

	if err := Verify(proof, prog.Hash(), public, tr.Outputs); err == nil {
		t.Fatal("expected verification to reject a tampered trace opening")
	}
}

func TestVerifyRejectsTamperedFRILayer(t *testing.T) {
	public := []field.Element{field.FromInt64(1)}
	tr, prog := buildTrace(t, []processor.Instruction{
		processor.NewInstruction(processor.OpDup),
		processor.NewInstruction(processor.OpMul),
	}, public)

	proof, err := Prove(tr, prog.Hash(), testOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.FRI.Queries[0].LayerValues[0][0] = proof.FRI.Queries[0].LayerValues[0][0].Add(field.One())

	if err := Verify(proof, prog.Hash(), public, tr.Outputs); err == nil {
		t.Fatal("expected verification to reject a tampered FRI opening")
	}
}

func TestDomainsExtensionFactorRatio(t *testing.T) {
	doms, err := NewDomains(16, 16)
	if err != nil {
		t.Fatalf("NewDomains: %v", err)
	}
	if doms.LDE.Length != doms.Trace.Length*16 {
		t.Fatalf("LDE length %d, want %d", doms.LDE.Length, doms.Trace.Length*16)
	}
	if doms.LDE.Offset.Equal(field.One()) {
		t.Fatal("LDE domain should sit on a coset, not the trace subgroup itself")
	}
}

func TestFriFoldRoundTripsThroughIFFT(t *testing.T) {
	domain, err := field.NewDomain(16)
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	coeffs := make([]field.Element, 16)
	for i := range coeffs {
		coeffs[i] = field.FromInt64(int64(i + 1))
	}
	challenge := field.FromInt64(5)
	folded := friFold(coeffs, challenge)
	if len(folded) != 4 {
		t.Fatalf("folded length %d, want 4", len(folded))
	}

	evals, err := domain.EvaluatePoly(coeffs)
	if err != nil {
		t.Fatalf("EvaluatePoly: %v", err)
	}
	foldedDomain, err := foldDomain(domain)
	if err != nil {
		t.Fatalf("foldDomain: %v", err)
	}
	foldedEvals, err := foldedDomain.EvaluatePoly(folded)
	if err != nil {
		t.Fatalf("EvaluatePoly on folded coeffs: %v", err)
	}

	gSize := domain.Length / friFoldFactor
	for pos := 0; pos < gSize; pos++ {
		var vals [friFoldFactor]field.Element
		for r := 0; r < friFoldFactor; r++ {
			vals[r] = evals[pos+r*gSize]
		}
		got, err := verifyFoldStep(domain, gSize, pos, vals, challenge)
		if err != nil {
			t.Fatalf("verifyFoldStep: %v", err)
		}
		if !got.Equal(foldedEvals[pos]) {
			t.Fatalf("fold mismatch at position %d", pos)
		}
	}
}
