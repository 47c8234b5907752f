package zkvm

import (
	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/merkle"
	"github.com/starkvm/distaff/internal/zkvm/processor"
	"github.com/starkvm/distaff/internal/zkvm/stark"
)

// FieldElement is an element of the VM's prime field, used for every
// stack value, input, and output.
type FieldElement = field.Element

// Opcode is one instruction in the VM's instruction set (spec §2's
// opcode tables).
type Opcode = processor.Opcode

// Digest is a two-element Rescue hash, the shape of both a program's
// hash and a Merkle root.
type Digest = merkle.Digest

// Re-exported opcodes, spelled the way program authors write them.
const (
	OpNoop   = processor.OpNoop
	OpPush   = processor.OpPush
	OpRead   = processor.OpRead
	OpRead2  = processor.OpRead2
	OpDup    = processor.OpDup
	OpDup2   = processor.OpDup2
	OpDup4   = processor.OpDup4
	OpPad2   = processor.OpPad2
	OpDrop   = processor.OpDrop
	OpDrop4  = processor.OpDrop4
	OpSwap   = processor.OpSwap
	OpSwap2  = processor.OpSwap2
	OpSwap4  = processor.OpSwap4
	OpRoll4  = processor.OpRoll4
	OpRoll8  = processor.OpRoll8
	OpChoose  = processor.OpChoose
	OpChoose2 = processor.OpChoose2
	OpAdd     = processor.OpAdd
	OpMul    = processor.OpMul
	OpInv    = processor.OpInv
	OpNeg    = processor.OpNeg
	OpNot    = processor.OpNot
	OpAnd    = processor.OpAnd
	OpOr     = processor.OpOr
	OpEq     = processor.OpEq
	OpAssert = processor.OpAssert
	OpCmp    = processor.OpCmp
	OpBinacc = processor.OpBinacc
	OpPull1  = processor.OpPull1
	OpPull2  = processor.OpPull2
)

// Instruction is a single instruction, optionally carrying PUSH's
// immediate.
type Instruction = processor.Instruction

// Op builds a plain instruction with no immediate.
func Op(op Opcode) Instruction { return processor.NewInstruction(op) }

// Push builds a PUSH instruction carrying the given immediate value.
func Push(v FieldElement) Instruction { return processor.NewPush(v) }

// Block is one node of a program's block tree: a Span, Group, Switch, or
// Loop (spec §3).
type Block = processor.Block

// SpanOf builds a straight-line block from a sequence of instructions.
func SpanOf(ops ...Instruction) Block { return processor.Span{Ops: ops} }

// GroupOf wraps a nested block with BEGIN/TEND bracketing.
func GroupOf(body Block) Block { return processor.Group{Body: body} }

// SwitchOf builds an if/else block selected by the top-of-stack
// condition bit.
func SwitchOf(whenTrue, whenFalse Block) Block {
	return processor.Switch{True: whenTrue, False: whenFalse}
}

// LoopOf builds a while-loop block, guarded by the top-of-stack
// condition bit on every iteration including the last.
func LoopOf(body Block) Block { return processor.Loop{Body: body} }

// FieldElements converts a sequence of plain int64s to field elements,
// the common case of supplying small literal inputs.
func FieldElements(vs ...int64) []FieldElement {
	out := make([]FieldElement, len(vs))
	for i, v := range vs {
		out[i] = field.FromInt64(v)
	}
	return out
}

// Options configures the STARK prover and verifier: extension factor,
// query count, grinding factor, and hash function (spec §4.6).
type Options = stark.ProofOptions

// DefaultOptions returns parameters giving roughly 120 bits of
// conjectured security.
func DefaultOptions() Options { return stark.DefaultProofOptions() }

// Proof is a complete, self-contained zero-knowledge proof of correct
// execution (spec §4.5, §6).
type Proof = stark.Proof
