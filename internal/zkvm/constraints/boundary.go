package constraints

import (
	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/merkle"
	"github.com/starkvm/distaff/internal/zkvm/processor"
)

// Boundary is one pinned value: the trace's step-`Step` row must equal
// `Value` at column `Column` (spec §4.4's second paragraph — sponge lanes
// at step 0 and at the trace's HashStep, the public-input-padded initial stack, and
// the claimed outputs).
type Boundary struct {
	Step   int
	Column int
	Value  field.Element
}

// Boundary columns use their own numbering, independent of Row.Flatten's
// column order: Sponge lanes are columns 0..spongeColumns-1 and stack slot
// i is column spongeColumns+i (see Evaluate).
const (
	spongeColumns = 4
)

// InputBoundaries pins step 0: the sponge state folds from the zero value
// (so its first-step lanes are exactly the root's starting rate, i.e.
// zero), and the user stack holds the public inputs, left-padded with
// zeros out to MaxStackDepth (spec §4.4, §3's calling convention).
func InputBoundaries(public []field.Element) []Boundary {
	var out []Boundary
	for i := 0; i < spongeColumns; i++ {
		out = append(out, Boundary{Step: 0, Column: i, Value: field.Zero()})
	}
	padded := make([]field.Element, processor.MaxStackDepth)
	copy(padded, public)
	for i, v := range padded {
		out = append(out, Boundary{Step: 0, Column: spongeColumns + i, Value: v})
	}
	return out
}

// OutputBoundaries pins step: the sponge's two rate lanes equal the
// program hash (the trace's accumulated hash must land on the program's
// statically computed one, spec §4.4), and the first len(outputs) stack
// slots equal the claimed outputs. step is the last row the processor
// emitted for real computation (runHash's final OpHacc row), not
// necessarily the padded trace's last row: NOOP padding rows carry a zero
// sponge, not a carried-forward digest, so the digest pin only holds at
// the step the hash folding actually completed.
func OutputBoundaries(step int, programHash merkle.Digest, outputs []field.Element) []Boundary {
	out := []Boundary{
		{Step: step, Column: 0, Value: programHash[0]},
		{Step: step, Column: 1, Value: programHash[1]},
	}
	for i, v := range outputs {
		out = append(out, Boundary{Step: step, Column: spongeColumns + i, Value: v})
	}
	return out
}

// IsPathBoundary reports whether b pins the program-hash accumulator
// (the sponge lanes) rather than a public stack value. The two classes
// fail verification through different checks: a wrong program hash is a
// mismatched execution path, while a wrong public input or output is a
// mismatched value caught the same way a corrupted opening is.
func (b Boundary) IsPathBoundary() bool {
	return b.Column < spongeColumns
}

// Evaluate returns the boundary's residual against a materialized row:
// zero iff the row satisfies the pin.
func (b Boundary) Evaluate(row processor.Row) field.Element {
	if b.Column < spongeColumns {
		return row.Sponge[b.Column].Sub(b.Value)
	}
	idx := b.Column - spongeColumns
	return row.Stack[idx].Sub(b.Value)
}
