package processor

import (
	"fmt"

	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/merkle"
)

// Instruction is a single low-degree or control-flow opcode, plus an
// optional immediate hint. Only OpPush instructions carry a hint; it is
// not part of the execution trace, it merely supplies PUSH's operand
// (spec §3: "an optional hint ... not part of the trace").
type Instruction struct {
	Op   Opcode
	Push field.Element // valid only when Op == OpPush
}

// NewInstruction builds a plain instruction with no hint.
func NewInstruction(op Opcode) Instruction { return Instruction{Op: op} }

// NewPush builds a PUSH instruction carrying the given immediate.
func NewPush(v field.Element) Instruction { return Instruction{Op: OpPush, Push: v} }

// Block is one node of a program's block tree (spec §3): Span, Group,
// Switch, or Loop.
type Block interface {
	blockTag() int64
}

// blockTags distinguish block kinds when absorbed into a hash; any fixed
// constants work as long as they are distinct.
const (
	tagSpan int64 = iota + 1
	tagGroup
	tagSwitch
	tagLoop
)

// Span is a leaf block: a straight-line sequence of instructions lowered
// directly into consecutive trace rows (spec §4.1).
type Span struct {
	Ops []Instruction
}

func (Span) blockTag() int64 { return tagSpan }

// Group wraps a nested block with BEGIN/TEND bracketing (spec §4.1).
type Group struct {
	Body Block
}

func (Group) blockTag() int64 { return tagGroup }

// Switch is an if/else: exactly one of True/False executes, selected by
// the top-of-stack condition bit (spec §4.1).
type Switch struct {
	True, False Block
}

func (Switch) blockTag() int64 { return tagSwitch }

// Loop executes Body repeatedly while the top-of-stack condition bit is
// 1, and must exit with the bit at 0 (spec §4.1).
type Loop struct {
	Body Block
}

func (Loop) blockTag() int64 { return tagLoop }

// blockHash computes a block's contribution to the program hash tree
// (spec §4.3). Every block kind folds into a freshly-zeroed Rescue state
// using the same one-round-per-absorb primitive the in-trace accumulator
// uses (hashfold.go): a Span folds its own opcodes one at a time, and a
// Group/Switch/Loop folds its children's already-computed digests. Using
// the identical primitive in both places is what lets the live trace
// accumulator land on exactly this value by construction (see
// machine.runHash), rather than two independently-designed hashes that
// merely need to agree.
func blockHash(b Block) merkle.Digest {
	switch blk := b.(type) {
	case Span:
		var fs foldState
		for _, instr := range blk.Ops {
			fs.scalar(opcodeFieldValue(instr))
		}
		fs.scalar(field.FromInt64(tagSpan))
		return fs.digest()
	case Group:
		child := blockHash(blk.Body)
		var fs foldState
		fs.digestValue(child)
		fs.scalar(field.FromInt64(tagGroup))
		return fs.digest()
	case Switch:
		t := blockHash(blk.True)
		f := blockHash(blk.False)
		var fs foldState
		fs.digestValue(t)
		fs.digestValue(f)
		fs.scalar(field.FromInt64(tagSwitch))
		return fs.digest()
	case Loop:
		child := blockHash(blk.Body)
		var fs foldState
		fs.digestValue(child)
		fs.scalar(field.FromInt64(tagLoop))
		return fs.digest()
	case seqPair:
		first := blockHash(blk.first)
		rest := blockHash(blk.rest)
		var fs foldState
		fs.digestValue(first)
		fs.digestValue(rest)
		fs.scalar(field.FromInt64(tagGroup))
		return fs.digest()
	default:
		panic(fmt.Sprintf("processor: unknown block type %T", b))
	}
}

// opcodeFieldValue maps an instruction to the field element the in-trace
// sponge accumulator absorbs for it: the opcode's global Opcode value
// (not its within-slot index), or the pushed immediate when the opcode is PUSH (so that two
// spans pushing different constants never collide in the program hash).
func opcodeFieldValue(instr Instruction) field.Element {
	if instr.Op == OpPush {
		return instr.Push
	}
	return field.FromUint64(uint64(instr.Op))
}

// Program is a compiled, hashable unit of execution: a single top-level
// procedure built from a block tree (spec §3's "Program::from_proc").
type Program struct {
	Root Block
	tree *merkle.Tree
}

// FromProc builds a Program whose top-level body is blocks executed in
// sequence: a single block is the root as it is, and several are chained
// into seqPair blocks (see sequence); no Group is added around them.
func FromProc(blocks []Block) *Program {
	var root Block
	if len(blocks) == 1 {
		root = blocks[0]
	} else {
		root = sequence(blocks)
	}
	leaf := blockHash(root)
	// A single-procedure program's Merkle tree is just its own leaf; the
	// tree API is reused so a future multi-procedure program (one leaf
	// per exported procedure) needs no interface change.
	tree, err := merkle.New([]merkle.Digest{leaf})
	if err != nil {
		panic(fmt.Sprintf("processor: single-leaf program tree: %v", err))
	}
	return &Program{Root: root, tree: tree}
}

// sequence flattens a slice of sibling blocks into nested seqPairs so
// instruction order is preserved: seqPair(b0, seqPair(b1, seqPair(b2, ...))).
func sequence(blocks []Block) Block {
	if len(blocks) == 1 {
		return blocks[0]
	}
	return seqPair{first: blocks[0], rest: sequence(blocks[1:])}
}

// seqPair is an internal block kind representing "run first, then rest".
// It hashes like a Group over both children so program hashing stays a
// pure function of the block tree shape.
type seqPair struct {
	first, rest Block
}

func (seqPair) blockTag() int64 { return tagGroup }

// Hash returns the program hash: the Merkle root over procedure hashes.
func (p *Program) Hash() merkle.Digest {
	return p.tree.Root()
}

// ProcedurePath returns the Merkle authentication path from procedure
// index i's block hash to the program hash (spec §3). This implementation
// always has exactly one procedure (index 0).
func (p *Program) ProcedurePath(i int) (merkle.Path, error) {
	return p.tree.Open(i)
}
