package zkvm

import "testing"

func smallOptions() Options {
	return DefaultOptions().WithExtensionFactor(16).WithNumQueries(12)
}

func TestExecuteProveVerifyRoundTrip(t *testing.T) {
	prog := NewProgram(SpanOf(Op(OpAdd)))
	inputs := PublicInputs(3, 4)

	result, err := Execute(prog, inputs, 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Outputs) != 1 || !result.Outputs[0].Equal(FieldElements(7)[0]) {
		t.Fatalf("got outputs %v, want [7]", result.Outputs)
	}

	proof, err := Prove(prog, result, smallOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(proof, prog.Hash(), inputs.Public, result.Outputs); err != nil {
		t.Fatalf("Verify rejected an honest proof: %v", err)
	}
}

func TestVerifyRejectsForgedOutput(t *testing.T) {
	prog := NewProgram(SpanOf(Op(OpAdd)))
	inputs := PublicInputs(3, 4)

	result, err := Execute(prog, inputs, 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	proof, err := Prove(prog, result, smallOptions())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := Verify(proof, prog.Hash(), inputs.Public, FieldElements(8)); err == nil {
		t.Fatal("expected verification to reject a forged output")
	}
}

func TestExecuteReportsStackUnderflow(t *testing.T) {
	prog := NewProgram(SpanOf(Op(OpAdd)))
	if _, err := Execute(prog, PublicInputs(1), 1); err == nil {
		t.Fatal("expected execution to fail with only one operand on the stack")
	}
}

func TestProgramHashStableAcrossRuns(t *testing.T) {
	prog := NewProgram(SpanOf(Op(OpDup), Op(OpMul)))
	h1 := prog.Hash()

	rebuilt := NewProgram(SpanOf(Op(OpDup), Op(OpMul)))
	h2 := rebuilt.Hash()

	if !h1[0].Equal(h2[0]) || !h1[1].Equal(h2[1]) {
		t.Fatal("identical programs produced different hashes")
	}
}

func TestDifferentProgramsHaveDifferentHashes(t *testing.T) {
	add := NewProgram(SpanOf(Op(OpAdd)))
	mul := NewProgram(SpanOf(Op(OpMul)))
	ha, hm := add.Hash(), mul.Hash()
	if ha[0].Equal(hm[0]) && ha[1].Equal(hm[1]) {
		t.Fatal("distinct programs hashed to the same value")
	}
}

func TestLoopAndSwitchBuildPrograms(t *testing.T) {
	body := SpanOf(Op(OpDup), Op(OpMul))
	loopProg := NewProgram(LoopOf(body))
	switchProg := NewProgram(SwitchOf(body, SpanOf(Op(OpNoop))))
	hl, hs := loopProg.Hash(), switchProg.Hash()
	if hl[0].Equal(hs[0]) && hl[1].Equal(hs[1]) {
		t.Fatal("a loop and a switch over the same body should not collide")
	}
}
