// Package processor implements the stack machine's instruction set and
// execution trace generator (spec §4.1, §4.2).
package processor

import "fmt"

// Class identifies which decoder slot (spec §3) an opcode occupies.
type Class uint8

const (
	// ClassCF is the control-flow slot (3 trace bits, 8 opcodes).
	ClassCF Class = iota
	// ClassLD is the low-degree slot (5 trace bits, up to 32 opcodes).
	ClassLD
	// ClassHD is the high-degree slot (2 trace bits, up to 4 opcodes).
	ClassHD
)

// Opcode identifies a single instruction. Values are assigned densely per
// class in declaration order below; Class()/SlotIndex() recover the decoder
// slot and within-slot index spec §3's trace columns encode.
type Opcode uint8

const (
	// Control-flow opcodes (cf, 3 bits => indices 0-7).
	OpBegin Opcode = iota
	OpTEnd
	OpFEnd
	OpLoop
	OpWrap
	OpBreak
	OpVoid
	OpHacc

	// Low-degree opcodes (ld, 5 bits => indices 0-29, two codes unused).
	OpNoop
	OpPush
	OpRead
	OpRead2
	OpDup
	OpDup2
	OpDup4
	OpPad2
	OpDrop
	OpDrop4
	OpSwap
	OpSwap2
	OpSwap4
	OpRoll4
	OpRoll8
	OpChoose
	OpChoose2
	OpAdd
	OpMul
	OpInv
	OpNeg
	OpNot
	OpAnd
	OpOr
	OpEq
	OpAssert
	OpCmp
	OpBinacc
	OpPull1
	OpPull2

	// High-degree opcode (hd, 2 bits => index 0).
	OpRescr

	numOpcodes
)

type opcodeMeta struct {
	class    Class
	index    uint8
	name     string
	minDepth int // minimum stack depth required for the operation to apply
}

var meta [numOpcodes]opcodeMeta

func init() {
	cf := []Opcode{OpBegin, OpTEnd, OpFEnd, OpLoop, OpWrap, OpBreak, OpVoid, OpHacc}
	for i, op := range cf {
		meta[op] = opcodeMeta{class: ClassCF, index: uint8(i), name: cfNames[i]}
	}
	ld := []Opcode{
		OpNoop, OpPush, OpRead, OpRead2, OpDup, OpDup2, OpDup4, OpPad2, OpDrop, OpDrop4,
		OpSwap, OpSwap2, OpSwap4, OpRoll4, OpRoll8, OpChoose, OpChoose2, OpAdd, OpMul, OpInv,
		OpNeg, OpNot, OpAnd, OpOr, OpEq, OpAssert, OpCmp, OpBinacc, OpPull1, OpPull2,
	}
	for i, op := range ld {
		meta[op] = opcodeMeta{class: ClassLD, index: uint8(i), name: ldNames[i], minDepth: ldMinDepth[i]}
	}
	meta[OpRescr] = opcodeMeta{class: ClassHD, index: 0, name: "RESCR", minDepth: 6}
}

var cfNames = []string{"BEGIN", "TEND", "FEND", "LOOP", "WRAP", "BREAK", "VOID", "HACC"}

var ldNames = []string{
	"NOOP", "PUSH", "READ", "READ2", "DUP", "DUP2", "DUP4", "PAD2", "DROP", "DROP4",
	"SWAP", "SWAP2", "SWAP4", "ROLL4", "ROLL8", "CHOOSE", "CHOOSE2", "ADD", "MUL", "INV",
	"NEG", "NOT", "AND", "OR", "EQ", "ASSERT", "CMP", "BINACC", "PULL1", "PULL2",
}

var ldMinDepth = []int{
	0, 0, 0, 0, 1, 2, 4, 0, 1, 4, // NOOP..DROP4
	2, 4, 8, 4, 8, 3, 6, 2, 2, 1, // SWAP..INV
	1, 1, 2, 2, 2, 1, 4, 2, 2, 3, // NEG..PULL2
}

// Class reports which decoder slot op belongs to.
func (op Opcode) Class() Class { return meta[op].class }

// SlotIndex reports op's index within its decoder slot.
func (op Opcode) SlotIndex() uint8 { return meta[op].index }

// MinDepth reports the minimum stack depth op requires to execute.
func (op Opcode) MinDepth() int { return meta[op].minDepth }

// String renders the opcode's mnemonic.
func (op Opcode) String() string {
	if int(op) >= len(meta) {
		return fmt.Sprintf("Opcode(%d)", op)
	}
	return meta[op].name
}

// IsControlFlow reports whether op belongs to the cf decoder slot.
func (op Opcode) IsControlFlow() bool { return op.Class() == ClassCF }
