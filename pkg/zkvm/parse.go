package zkvm

import (
	"fmt"
	"strconv"
	"strings"
)

// mnemonics maps an assembly mnemonic to the opcode it spells, the
// inverse of processor.Opcode.String(), for programs read from text
// (the CLI's assembly format).
var mnemonics = map[string]Opcode{
	"noop": OpNoop, "push": OpPush, "read": OpRead, "read2": OpRead2,
	"dup": OpDup, "dup2": OpDup2, "dup4": OpDup4, "pad2": OpPad2,
	"drop": OpDrop, "drop4": OpDrop4, "swap": OpSwap, "swap2": OpSwap2,
	"swap4": OpSwap4, "roll4": OpRoll4, "roll8": OpRoll8,
	"choose": OpChoose, "choose2": OpChoose2, "add": OpAdd, "mul": OpMul,
	"inv": OpInv, "neg": OpNeg, "not": OpNot, "and": OpAnd, "or": OpOr,
	"eq": OpEq, "assert": OpAssert, "cmp": OpCmp, "binacc": OpBinacc,
	"pull1": OpPull1, "pull2": OpPull2,
}

// ParseInstruction parses one line of assembly: a bare mnemonic
// ("add"), or a mnemonic with a decimal immediate ("push 42"). Matching
// is case-insensitive.
func ParseInstruction(line string) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Instruction{}, fmt.Errorf("zkvm: empty instruction")
	}
	name := strings.ToLower(fields[0])
	op, ok := mnemonics[name]
	if !ok {
		return Instruction{}, fmt.Errorf("zkvm: unknown opcode %q", fields[0])
	}
	if op != OpPush {
		if len(fields) != 1 {
			return Instruction{}, fmt.Errorf("zkvm: %s takes no argument", fields[0])
		}
		return Op(op), nil
	}
	if len(fields) != 2 {
		return Instruction{}, fmt.Errorf("zkvm: push requires exactly one immediate")
	}
	v, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Instruction{}, fmt.Errorf("zkvm: invalid push immediate %q: %w", fields[1], err)
	}
	return Push(FieldElements(v)[0]), nil
}

// ParseProgram parses a sequence of assembly lines into a single-span
// Program: one instruction per non-empty, non-comment ("#"-prefixed)
// line, executed in order.
func ParseProgram(lines []string) (Program, error) {
	var ops []Instruction
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		instr, err := ParseInstruction(trimmed)
		if err != nil {
			return Program{}, fmt.Errorf("zkvm: line %d: %w", i+1, err)
		}
		ops = append(ops, instr)
	}
	return NewProgram(SpanOf(ops...)), nil
}
