package constraints

import (
	"testing"

	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/processor"
)

func traceFor(t *testing.T, ops []processor.Instruction, public []field.Element) *processor.Trace {
	t.Helper()
	prog := processor.FromProc([]processor.Block{processor.Span{Ops: ops}})
	tr, err := processor.Execute(prog, processor.FromPublic(public), 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return tr
}

func assertVanishes(t *testing.T, tr *processor.Trace, upTo int) {
	t.Helper()
	for i := 0; i < upTo; i++ {
		stackRes, purity := Transition(tr.Rows[i], tr.Rows[i+1])
		for j, v := range stackRes {
			if !v.IsZero() {
				t.Fatalf("step %d: stack residual slot %d nonzero: %s", i, j, v)
			}
		}
		if !purity.IsZero() {
			t.Fatalf("step %d: purity residual nonzero: %s", i, purity)
		}
	}
}

func TestTransitionVanishesOnAdd(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)},
		[]field.Element{field.FromInt64(3), field.FromInt64(4)})
	assertVanishes(t, tr, 1)
}

func TestTransitionVanishesOnDup(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpDup)},
		[]field.Element{field.FromInt64(5)})
	assertVanishes(t, tr, 1)
}

func TestTransitionVanishesOnSwap(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpSwap)},
		[]field.Element{field.FromInt64(1), field.FromInt64(2)})
	assertVanishes(t, tr, 1)
}

func TestTransitionVanishesOnDrop(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpDrop)},
		[]field.Element{field.FromInt64(1), field.FromInt64(2)})
	assertVanishes(t, tr, 1)
}

func TestTransitionVanishesOnMulAndNeg(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{
		processor.NewInstruction(processor.OpMul),
		processor.NewInstruction(processor.OpNeg),
	}, []field.Element{field.FromInt64(3), field.FromInt64(4)})
	assertVanishes(t, tr, 2)
}

func TestTransitionVanishesOnRoll4(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpRoll4)},
		[]field.Element{field.FromInt64(1), field.FromInt64(2), field.FromInt64(3), field.FromInt64(4)})
	assertVanishes(t, tr, 1)
}

func TestTransitionVanishesOnChoose(t *testing.T) {
	// a=10, b=20, condition=1 (third from top) selects a.
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpChoose)},
		[]field.Element{field.FromInt64(10), field.FromInt64(20), field.One()})
	assertVanishes(t, tr, 1)
}

func TestTransitionCatchesCorruptedStack(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)},
		[]field.Element{field.FromInt64(3), field.FromInt64(4)})
	tr.Rows[1].Stack[0] = field.FromInt64(999)
	stackRes, _ := Transition(tr.Rows[0], tr.Rows[1])
	if stackRes[0].IsZero() {
		t.Fatal("expected nonzero residual on a corrupted next-stack value")
	}
}

func TestOpFlagIsOneHot(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)},
		[]field.Element{field.FromInt64(1), field.FromInt64(2)})
	row := tr.Rows[0]
	total := field.Zero()
	for _, op := range []processor.Opcode{
		processor.OpNoop, processor.OpPush, processor.OpRead, processor.OpRead2,
		processor.OpDup, processor.OpDup2, processor.OpDup4, processor.OpPad2,
		processor.OpDrop, processor.OpDrop4, processor.OpSwap, processor.OpSwap2,
		processor.OpSwap4, processor.OpRoll4, processor.OpRoll8, processor.OpChoose,
		processor.OpChoose2, processor.OpAdd, processor.OpMul, processor.OpInv,
	} {
		f := OpFlag(row, op)
		if !f.IsZero() && !f.IsOne() {
			t.Fatalf("flag for %v not boolean: %s", op, f)
		}
		total = total.Add(f)
	}
	if !total.IsOne() {
		t.Fatalf("exactly one ld-class opcode flag should be set, got sum %s", total)
	}
}

func TestBoundaryInputPinsPublicStack(t *testing.T) {
	public := []field.Element{field.FromInt64(3), field.FromInt64(4)}
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)}, public)
	for _, b := range InputBoundaries(public) {
		if !b.Evaluate(tr.Rows[0]).IsZero() {
			t.Fatalf("input boundary column %d failed: %s", b.Column, b.Evaluate(tr.Rows[0]))
		}
	}
}

func TestBoundaryOutputPinsClaimedOutput(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)},
		[]field.Element{field.FromInt64(3), field.FromInt64(4)})
	prog := processor.FromProc([]processor.Block{processor.Span{Ops: []processor.Instruction{processor.NewInstruction(processor.OpAdd)}}})
	for _, b := range OutputBoundaries(tr.HashStep, prog.Hash(), tr.Outputs) {
		if !b.Evaluate(tr.Rows[tr.HashStep]).IsZero() {
			t.Fatalf("output boundary column %d failed: %s", b.Column, b.Evaluate(tr.Rows[tr.HashStep]))
		}
	}
}

func TestBoundaryOutputCatchesWrongClaim(t *testing.T) {
	tr := traceFor(t, []processor.Instruction{processor.NewInstruction(processor.OpAdd)},
		[]field.Element{field.FromInt64(3), field.FromInt64(4)})
	prog := processor.FromProc([]processor.Block{processor.Span{Ops: []processor.Instruction{processor.NewInstruction(processor.OpAdd)}}})
	bad := []field.Element{field.FromInt64(999)}
	for _, b := range OutputBoundaries(tr.HashStep, prog.Hash(), bad) {
		if b.Column == spongeColumns && b.Evaluate(tr.Rows[tr.HashStep]).IsZero() {
			t.Fatal("expected a wrong output claim to fail its boundary check")
		}
	}
}
