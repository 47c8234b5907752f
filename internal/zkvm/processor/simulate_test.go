package processor

import (
	"errors"
	"testing"

	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/hash"
)

func mustExecute(t *testing.T, prog *Program, in ProgramInputs, numOutputs int) *Trace {
	t.Helper()
	tr, err := Execute(prog, in, numOutputs)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return tr
}

func TestExecuteAddition(t *testing.T) {
	prog := FromProc([]Block{Span{Ops: []Instruction{NewInstruction(OpAdd)}}})
	in := FromPublic([]field.Element{field.FromInt64(3), field.FromInt64(4)})
	tr := mustExecute(t, prog, in, 1)
	if !tr.Outputs[0].Equal(field.FromInt64(7)) {
		t.Fatalf("got %s, want 7", tr.Outputs[0])
	}
}

func TestExecuteAssertFailure(t *testing.T) {
	prog := FromProc([]Block{Span{Ops: []Instruction{NewPush(field.Zero()), NewInstruction(OpAssert)}}})
	_, err := Execute(prog, FromPublic(nil), 1)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.Code != ErrAssertFailed {
		t.Fatalf("expected ErrAssertFailed, got %v", err)
	}
}

func TestExecuteAssertSuccess(t *testing.T) {
	prog := FromProc([]Block{Span{Ops: []Instruction{NewPush(field.One()), NewInstruction(OpAssert), NewPush(field.FromInt64(9))}}})
	tr := mustExecute(t, prog, FromPublic(nil), 1)
	if !tr.Outputs[0].Equal(field.FromInt64(9)) {
		t.Fatalf("got %s, want 9", tr.Outputs[0])
	}
}

func TestExecuteReadTapes(t *testing.T) {
	prog := FromProc([]Block{Span{Ops: []Instruction{
		NewInstruction(OpRead),
		NewInstruction(OpRead2),
		NewInstruction(OpAdd),
		NewInstruction(OpAdd),
	}}})
	in := NewProgramInputs(nil,
		[]field.Element{field.FromInt64(5), field.FromInt64(10)},
		[]field.Element{field.FromInt64(2)})
	tr := mustExecute(t, prog, in, 1)
	if !tr.Outputs[0].Equal(field.FromInt64(17)) {
		t.Fatalf("got %s, want 17", tr.Outputs[0])
	}
}

func TestExecuteTapeExhausted(t *testing.T) {
	prog := FromProc([]Block{Span{Ops: []Instruction{NewInstruction(OpRead)}}})
	_, err := Execute(prog, FromPublic(nil), 1)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.Code != ErrTapeExhausted {
		t.Fatalf("expected ErrTapeExhausted, got %v", err)
	}
}

func TestExecuteRescrMatchesTenRounds(t *testing.T) {
	prog := FromProc([]Block{Span{Ops: []Instruction{
		NewInstruction(OpRescr), NewInstruction(OpRescr), NewInstruction(OpRescr), NewInstruction(OpRescr), NewInstruction(OpRescr),
		NewInstruction(OpRescr), NewInstruction(OpRescr), NewInstruction(OpRescr), NewInstruction(OpRescr), NewInstruction(OpRescr),
	}}})
	in := FromPublic(make([]field.Element, 6)) // all-zero initial state
	tr := mustExecute(t, prog, in, 2)

	want := hash.Permute(hash.State{})
	if !tr.Outputs[0].Equal(want[0]) || !tr.Outputs[1].Equal(want[1]) {
		t.Fatalf("RESCR x10 = (%s, %s), want (%s, %s)", tr.Outputs[0], tr.Outputs[1], want[0], want[1])
	}
}

func TestExecuteSwitchTakesTrueBranch(t *testing.T) {
	prog := FromProc([]Block{Switch{
		True:  Span{Ops: []Instruction{NewPush(field.FromInt64(111))}},
		False: Span{Ops: []Instruction{NewPush(field.FromInt64(222))}},
	}})
	in := FromPublic([]field.Element{field.One()})
	tr := mustExecute(t, prog, in, 1)
	if !tr.Outputs[0].Equal(field.FromInt64(111)) {
		t.Fatalf("got %s, want 111", tr.Outputs[0])
	}
}

func TestExecuteSwitchTakesFalseBranch(t *testing.T) {
	prog := FromProc([]Block{Switch{
		True:  Span{Ops: []Instruction{NewPush(field.FromInt64(111))}},
		False: Span{Ops: []Instruction{NewPush(field.FromInt64(222))}},
	}})
	in := FromPublic([]field.Element{field.Zero()})
	tr := mustExecute(t, prog, in, 1)
	if !tr.Outputs[0].Equal(field.FromInt64(222)) {
		t.Fatalf("got %s, want 222", tr.Outputs[0])
	}
}

func TestExecuteLoopCountsDownToZero(t *testing.T) {
	// Loop invariant on entry to each iteration: (continueFlag, counter, ...).
	// The body consumes the flag, decrements counter, and recomputes the
	// flag as "counter != 0" so the loop naturally halts at counter == 0.
	body := Span{Ops: []Instruction{
		NewInstruction(OpDrop),
		NewPush(field.FromInt64(-1)),
		NewInstruction(OpAdd),
		NewInstruction(OpDup),
		NewPush(field.Zero()),
		NewInstruction(OpEq),
		NewInstruction(OpNot),
	}}
	prog := FromProc([]Block{Loop{Body: body}})
	in := FromPublic([]field.Element{field.One(), field.FromInt64(3)})
	tr := mustExecute(t, prog, in, 1)
	if !tr.Outputs[0].IsZero() {
		t.Fatalf("got %s, want 0", tr.Outputs[0])
	}
}

func TestExecuteNonBinaryLoopConditionFails(t *testing.T) {
	prog := FromProc([]Block{Loop{Body: Span{Ops: []Instruction{NewInstruction(OpNoop)}}}})
	in := FromPublic([]field.Element{field.FromInt64(5)})
	_, err := Execute(prog, in, 1)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.Code != ErrNonBinaryBranch {
		t.Fatalf("expected ErrNonBinaryBranch, got %v", err)
	}
}

func TestExecuteStackUnderflow(t *testing.T) {
	prog := FromProc([]Block{Span{Ops: []Instruction{NewInstruction(OpAdd)}}})
	_, err := Execute(prog, FromPublic(nil), 1)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.Code != ErrStackUnderflow {
		t.Fatalf("expected ErrStackUnderflow, got %v", err)
	}
}

func TestProgramHashStableAcrossPushImmediates(t *testing.T) {
	p1 := FromProc([]Block{Span{Ops: []Instruction{NewPush(field.FromInt64(1))}}})
	p2 := FromProc([]Block{Span{Ops: []Instruction{NewPush(field.FromInt64(2))}}})
	h1, h2 := p1.Hash(), p2.Hash()
	if h1[0].Equal(h2[0]) && h1[1].Equal(h2[1]) {
		t.Fatal("programs pushing different constants must have different program hashes")
	}
}

func TestExecuteTraceLengthIsPowerOfTwoAndAtLeastMinimum(t *testing.T) {
	prog := FromProc([]Block{Span{Ops: []Instruction{NewInstruction(OpAdd)}}})
	tr := mustExecute(t, prog, FromPublic([]field.Element{field.FromInt64(1), field.FromInt64(2)}), 1)
	if !field.IsPowerOfTwo(len(tr.Rows)) {
		t.Fatalf("trace length %d is not a power of two", len(tr.Rows))
	}
	if len(tr.Rows) < MinTraceLength {
		t.Fatalf("trace length %d is below the minimum %d", len(tr.Rows), MinTraceLength)
	}
}
