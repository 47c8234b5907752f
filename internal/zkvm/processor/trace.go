package processor

import "github.com/starkvm/distaff/internal/zkvm/field"

// ProgramInputs bundles the public inputs (part of the statement) with
// the two secret input tapes consumed by READ/READ2 (spec §3).
type ProgramInputs struct {
	Public  []field.Element
	SecretA []field.Element
	SecretB []field.Element
}

// NewProgramInputs builds a full set of inputs.
func NewProgramInputs(public, secretA, secretB []field.Element) ProgramInputs {
	return ProgramInputs{Public: public, SecretA: secretA, SecretB: secretB}
}

// FromPublic builds inputs with empty secret tapes.
func FromPublic(public []field.Element) ProgramInputs {
	return ProgramInputs{Public: public}
}

// Row is one cycle of the execution trace (spec §3's column layout):
// sponge[0..4), cf_op_bits[4..7), ld_op_bits[7..12), hd_op_bits[12..14),
// followed by the context stack, loop stack, and user stack.
type Row struct {
	Sponge   [4]field.Element
	CFBits   [3]field.Element
	LDBits   [5]field.Element
	HDBits   [2]field.Element
	Context  [contextSlots * contextSlotWidth]field.Element
	Loop     [loopSlots * loopSlotWidth]field.Element
	Stack    [stackWidth]field.Element
}

// Width is the total number of columns in a trace row.
func Width() int {
	return 4 + 3 + 5 + 2 + contextSlots*contextSlotWidth + loopSlots*loopSlotWidth + stackWidth
}

// Flatten lays a row out as a single slice of field elements in column
// order, the shape the STARK layer's Merkle commitment and constraint
// evaluator operate over.
func (r Row) Flatten() []field.Element {
	out := make([]field.Element, 0, Width())
	out = append(out, r.Sponge[:]...)
	out = append(out, r.CFBits[:]...)
	out = append(out, r.LDBits[:]...)
	out = append(out, r.HDBits[:]...)
	out = append(out, r.Context[:]...)
	out = append(out, r.Loop[:]...)
	out = append(out, r.Stack[:]...)
	return out
}

// RowFromColumns is Flatten's inverse: it reassembles a Row from a
// Width()-length column slice in the same order Flatten lays them out.
// The STARK layer uses this to rebuild a "virtual row" from column
// low-degree extensions evaluated at a single domain point (or at an
// out-of-domain point z), so the constraint evaluator can run unmodified
// against points that were never part of the original trace.
func RowFromColumns(cols []field.Element) Row {
	var r Row
	i := 0
	take := func(n int) []field.Element {
		s := cols[i : i+n]
		i += n
		return s
	}
	copy(r.Sponge[:], take(4))
	copy(r.CFBits[:], take(3))
	copy(r.LDBits[:], take(5))
	copy(r.HDBits[:], take(2))
	copy(r.Context[:], take(contextSlots*contextSlotWidth))
	copy(r.Loop[:], take(loopSlots*loopSlotWidth))
	copy(r.Stack[:], take(stackWidth))
	return r
}

// Trace is the full execution trace plus the data needed to verify it
// against a Program and its declared outputs.
type Trace struct {
	Rows    []Row
	Outputs []field.Element

	// HashStep is the index of the last row runHash emitted before NOOP
	// padding began: the row whose sponge lanes hold the completed
	// program-hash digest. Padding rows past it carry a zero sponge, not
	// a carried-forward digest, so boundary constraints must pin the
	// digest here rather than at len(Rows)-1.
	HashStep int
}

func bit(b bool) field.Element {
	if b {
		return field.One()
	}
	return field.Zero()
}
