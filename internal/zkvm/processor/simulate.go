package processor

import (
	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/hash"
	"github.com/starkvm/distaff/internal/zkvm/merkle"
)

// ctxFrame is one entry of the context stack: pushed on entering a
// nested Group/Switch branch, popped on exit (spec §3's "context stack
// (return-addr + parent-hash pairs)"). It exists purely to populate the
// trace's context-stack columns; runHash's own recursion (not this
// stack) is what actually threads the hash computation.
type ctxFrame struct {
	returnAddr field.Element
	parentHash merkle.Digest
}

// loopFrame is one entry of the loop stack: pushed for the duration of
// a Loop's real iterations (spec §3's "loop-image + body-hash +
// continuation").
type loopFrame struct {
	image        field.Element
	bodyHash     merkle.Digest
	continuation field.Element
}

// machine holds the mutable interpreter state threaded through block
// execution: the data stack, the two secret tapes, and the trace rows
// emitted so far. The program-hash accumulator is NOT mutable machine
// state; runHash threads it by value so every block's contribution
// starts from a clean slate (see hashfold.go's doc comment).
type machine struct {
	stack []field.Element // stack[0] is the top

	ctx  []ctxFrame
	loop []loopFrame

	tapeA, tapeB []field.Element // cursors into the secret input tapes

	rescrRound int // RESCR's own round counter, independent of any foldState

	rows []Row
}

// Execute runs prog against inputs and returns the resulting trace and
// declared outputs, or an ExecutionError describing why it failed
// (spec §4's simulator and §4.2's failure modes).
func Execute(prog *Program, inputs ProgramInputs, numOutputs int) (*Trace, error) {
	if len(inputs.Public) > MaxPublicInputs {
		return nil, newErr(ErrBadProgram, "too many public inputs: %d > %d", len(inputs.Public), MaxPublicInputs)
	}
	if numOutputs <= 0 || numOutputs > MaxOutputs {
		return nil, newErr(ErrBadProgram, "invalid output count: %d", numOutputs)
	}

	m := &machine{
		stack: append([]field.Element(nil), inputs.Public...),
		tapeA: append([]field.Element(nil), inputs.SecretA...),
		tapeB: append([]field.Element(nil), inputs.SecretB...),
	}

	// Row 0 holds the initial state (public inputs, zero sponge) that the
	// input boundary constraints pin; every later row holds the state after
	// the opcode its decoder bits name.
	if err := m.emitRow(NewInstruction(OpNoop), hash.State{}); err != nil {
		return nil, err
	}

	finalDigest, err := m.runHash(prog.Root)
	if err != nil {
		return nil, err
	}
	declared := prog.Hash()
	if !finalDigest[0].Equal(declared[0]) || !finalDigest[1].Equal(declared[1]) {
		return nil, newErr(ErrBadProgram, "running program-hash accumulator does not match the program's declared hash")
	}

	for len(m.stack) < numOutputs {
		m.stack = append(m.stack, field.Zero())
	}
	outputs := append([]field.Element(nil), m.stack[:numOutputs]...)
	hashStep := len(m.rows) - 1

	for !field.IsPowerOfTwo(len(m.rows)) || len(m.rows) < MinTraceLength {
		if err := m.apply(NewInstruction(OpNoop)); err != nil {
			return nil, err
		}
		m.emitRow(NewInstruction(OpNoop), hash.State{})
	}

	return &Trace{Rows: m.rows, Outputs: outputs, HashStep: hashStep}, nil
}

// runHash executes b, returning its program-hash digest (spec §4.3)
// alongside applying its real stack effects and emitting trace rows.
// Every case folds through a fresh foldState, so a block's digest never
// depends on what ran before it (see hashfold.go).
func (m *machine) runHash(b Block) (merkle.Digest, error) {
	switch blk := b.(type) {
	case Span:
		var fs foldState
		for _, instr := range blk.Ops {
			if err := m.apply(instr); err != nil {
				return merkle.Digest{}, err
			}
			fs.scalar(opcodeFieldValue(instr))
			if err := m.emitRow(instr, fs.state); err != nil {
				return merkle.Digest{}, err
			}
		}
		fs.scalar(field.FromInt64(tagSpan))
		if err := m.emitRow(NewInstruction(OpHacc), fs.state); err != nil {
			return merkle.Digest{}, err
		}
		return fs.digest(), nil

	case Group:
		m.markerRow(OpBegin)
		m.pushContext(blockHash(blk.Body))
		bodyDigest, err := m.runHash(blk.Body)
		if err != nil {
			return merkle.Digest{}, err
		}
		m.popContext()
		var fs foldState
		fs.digestValue(bodyDigest)
		fs.scalar(field.FromInt64(tagGroup))
		m.markerRow(OpTEnd)
		if err := m.emitRow(NewInstruction(OpHacc), fs.state); err != nil {
			return merkle.Digest{}, err
		}
		return fs.digest(), nil

	case seqPair:
		firstDigest, err := m.runHash(blk.first)
		if err != nil {
			return merkle.Digest{}, err
		}
		restDigest, err := m.runHash(blk.rest)
		if err != nil {
			return merkle.Digest{}, err
		}
		var fs foldState
		fs.digestValue(firstDigest)
		fs.digestValue(restDigest)
		fs.scalar(field.FromInt64(tagGroup))
		if err := m.emitRow(NewInstruction(OpHacc), fs.state); err != nil {
			return merkle.Digest{}, err
		}
		return fs.digest(), nil

	case Switch:
		cond, err := m.popOne()
		if err != nil {
			return merkle.Digest{}, err
		}
		if !cond.IsBinary() {
			return merkle.Digest{}, newErr(ErrNonBinaryBranch, "switch condition must be 0 or 1, got %s", cond)
		}
		var taken, untaken Block
		if cond.IsOne() {
			taken, untaken = blk.True, blk.False
		} else {
			taken, untaken = blk.False, blk.True
		}
		m.markerRow(OpBegin)
		m.pushContext(blockHash(untaken))
		takenDigest, err := m.runHash(taken)
		if err != nil {
			return merkle.Digest{}, err
		}
		m.popContext()
		untakenDigest := blockHash(untaken)

		trueDigest, falseDigest := takenDigest, untakenDigest
		if cond.IsZero() {
			trueDigest, falseDigest = untakenDigest, takenDigest
		}
		var fs foldState
		fs.digestValue(trueDigest)
		if err := m.emitRow(NewInstruction(OpHacc), fs.state); err != nil {
			return merkle.Digest{}, err
		}
		fs.digestValue(falseDigest)
		tag := OpTEnd
		if cond.IsZero() {
			tag = OpFEnd
		}
		if err := m.emitRow(NewInstruction(tag), fs.state); err != nil {
			return merkle.Digest{}, err
		}
		fs.scalar(field.FromInt64(tagSwitch))
		if err := m.emitRow(NewInstruction(OpHacc), fs.state); err != nil {
			return merkle.Digest{}, err
		}
		return fs.digest(), nil

	case Loop:
		bodyDigest := blockHash(blk.Body)
		for {
			cond, err := m.peekOne()
			if err != nil {
				return merkle.Digest{}, err
			}
			if !cond.IsBinary() {
				return merkle.Digest{}, newErr(ErrNonBinaryBranch, "loop condition must be 0 or 1, got %s", cond)
			}
			m.markerRow(OpLoop)
			if cond.IsZero() {
				_, _ = m.popOne()
				m.markerRow(OpBreak)
				break
			}
			m.pushLoop(bodyDigest)
			if err := m.runStackOnly(blk.Body); err != nil {
				return merkle.Digest{}, err
			}
			m.popLoop()
			m.markerRow(OpWrap)
		}
		var fs foldState
		fs.digestValue(bodyDigest)
		fs.scalar(field.FromInt64(tagLoop))
		if err := m.emitRow(NewInstruction(OpHacc), fs.state); err != nil {
			return merkle.Digest{}, err
		}
		return fs.digest(), nil

	default:
		return merkle.Digest{}, newErr(ErrBadProgram, "unrecognized block type %T", b)
	}
}

// runStackOnly applies a block's real stack effects without threading
// the program-hash accumulator. Used for a Loop's body: since a loop may
// iterate a data-dependent number of times, its hash contribution is the
// single static fold of its body's digest (done once in runHash's Loop
// case), not a per-iteration live computation.
func (m *machine) runStackOnly(b Block) error {
	switch blk := b.(type) {
	case Span:
		for _, instr := range blk.Ops {
			if err := m.apply(instr); err != nil {
				return err
			}
			if err := m.emitRow(instr, hash.State{}); err != nil {
				return err
			}
		}
		return nil
	case Group:
		return m.runStackOnly(blk.Body)
	case seqPair:
		if err := m.runStackOnly(blk.first); err != nil {
			return err
		}
		return m.runStackOnly(blk.rest)
	case Switch:
		cond, err := m.popOne()
		if err != nil {
			return err
		}
		if !cond.IsBinary() {
			return newErr(ErrNonBinaryBranch, "switch condition must be 0 or 1, got %s", cond)
		}
		if cond.IsOne() {
			return m.runStackOnly(blk.True)
		}
		return m.runStackOnly(blk.False)
	case Loop:
		for {
			cond, err := m.peekOne()
			if err != nil {
				return err
			}
			if !cond.IsBinary() {
				return newErr(ErrNonBinaryBranch, "loop condition must be 0 or 1, got %s", cond)
			}
			if cond.IsZero() {
				_, _ = m.popOne()
				return nil
			}
			if err := m.runStackOnly(blk.Body); err != nil {
				return err
			}
		}
	default:
		return newErr(ErrBadProgram, "unrecognized block type %T", b)
	}
}

func (m *machine) pushContext(parent merkle.Digest) {
	m.ctx = append(m.ctx, ctxFrame{returnAddr: field.FromInt64(int64(len(m.rows))), parentHash: parent})
}

func (m *machine) popContext() {
	if len(m.ctx) > 0 {
		m.ctx = m.ctx[:len(m.ctx)-1]
	}
}

func (m *machine) pushLoop(body merkle.Digest) {
	m.loop = append(m.loop, loopFrame{image: field.FromInt64(int64(len(m.rows))), bodyHash: body, continuation: field.One()})
}

func (m *machine) popLoop() {
	if len(m.loop) > 0 {
		m.loop = m.loop[:len(m.loop)-1]
	}
}

// markerRow emits a pure control-flow bookkeeping row: it changes no
// stack or hash state, it only records that this cf opcode fired at
// this cycle (and, via emitRow, snapshots the current context/loop/user
// stacks). Its sponge columns carry no independent meaning.
func (m *machine) markerRow(op Opcode) {
	_ = m.emitRow(NewInstruction(op), hash.State{})
}

// emitRow appends one trace row. sponge supplies the row's sponge
// columns (its rate lanes); callers pass whatever foldState.state (or
// the zero state, for rows with no independent hash meaning) applies.
func (m *machine) emitRow(instr Instruction, sponge hash.State) error {
	if len(m.stack) > MaxStackDepth {
		return newErr(ErrStackOverflow, "stack depth %d exceeds maximum %d", len(m.stack), MaxStackDepth)
	}
	var row Row
	row.Sponge = [4]field.Element{sponge[0], sponge[1], sponge[2], sponge[3]}

	switch instr.Op.Class() {
	case ClassCF:
		setBits(row.CFBits[:], instr.Op.SlotIndex())
	case ClassLD:
		setBits(row.LDBits[:], instr.Op.SlotIndex())
	case ClassHD:
		setBits(row.HDBits[:], instr.Op.SlotIndex())
	}

	for i, f := range m.ctx {
		base := i * contextSlotWidth
		if base+2 >= len(row.Context) {
			break
		}
		row.Context[base] = f.returnAddr
		row.Context[base+1] = f.parentHash[0]
		row.Context[base+2] = f.parentHash[1]
	}
	for i, f := range m.loop {
		base := i * loopSlotWidth
		if base+3 >= len(row.Loop) {
			break
		}
		row.Loop[base] = f.image
		row.Loop[base+1] = f.bodyHash[0]
		row.Loop[base+2] = f.bodyHash[1]
		row.Loop[base+3] = f.continuation
	}
	for i := 0; i < stackWidth; i++ {
		if i < len(m.stack) {
			row.Stack[i] = m.stack[i]
		} else {
			row.Stack[i] = field.Zero()
		}
	}

	m.rows = append(m.rows, row)
	return nil
}

// setBits writes the binary decomposition of idx into bits, most
// significant bit first.
func setBits(bits []field.Element, idx uint8) {
	n := len(bits)
	for i := 0; i < n; i++ {
		shift := uint(n - 1 - i)
		if idx&(1<<shift) != 0 {
			bits[i] = field.One()
		} else {
			bits[i] = field.Zero()
		}
	}
}

func (m *machine) requireDepth(n int) error {
	if len(m.stack) < n {
		return newErr(ErrStackUnderflow, "operation requires stack depth %d, have %d", n, len(m.stack))
	}
	return nil
}

func (m *machine) popOne() (field.Element, error) {
	if err := m.requireDepth(1); err != nil {
		return field.Element{}, err
	}
	v := m.stack[0]
	m.stack = m.stack[1:]
	return v, nil
}

func (m *machine) peekOne() (field.Element, error) {
	if err := m.requireDepth(1); err != nil {
		return field.Element{}, err
	}
	return m.stack[0], nil
}

func (m *machine) push(v field.Element) {
	m.stack = append([]field.Element{v}, m.stack...)
}

func (m *machine) drop(n int) error {
	if err := m.requireDepth(n); err != nil {
		return err
	}
	m.stack = m.stack[n:]
	return nil
}
