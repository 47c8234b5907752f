package processor

import (
	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/hash"
)

// apply executes instr's stack effect (spec §4.2's opcode table). Control
// flow opcodes carry no stack effect here: Switch/Loop already popped or
// peeked their condition bit in runHash() / runStackOnly().
func (m *machine) apply(instr Instruction) error {
	op := instr.Op
	if op.Class() == ClassCF {
		return nil
	}
	if err := m.requireDepth(op.MinDepth()); err != nil {
		return err
	}

	switch op {
	case OpNoop:
		return nil

	case OpPush:
		m.push(instr.Push)
		return nil

	case OpRead:
		v, err := m.readTapeA()
		if err != nil {
			return err
		}
		m.push(v)
		return nil

	case OpRead2:
		a, err := m.readTapeA()
		if err != nil {
			return err
		}
		b, err := m.readTapeB()
		if err != nil {
			return err
		}
		m.push(a)
		m.push(b)
		return nil

	case OpDup:
		m.push(m.stack[0])
		return nil

	case OpDup2:
		s0, s1 := m.stack[0], m.stack[1]
		m.stack = append([]field.Element{s0, s1}, m.stack...)
		return nil

	case OpDup4:
		top4 := append([]field.Element(nil), m.stack[:4]...)
		m.stack = append(top4, m.stack...)
		return nil

	case OpPad2:
		m.stack = append([]field.Element{field.Zero(), field.Zero()}, m.stack...)
		return nil

	case OpDrop:
		return m.drop(1)

	case OpDrop4:
		return m.drop(4)

	case OpSwap:
		m.stack[0], m.stack[1] = m.stack[1], m.stack[0]
		return nil

	case OpSwap2:
		s := m.stack
		s[0], s[2] = s[2], s[0]
		s[1], s[3] = s[3], s[1]
		return nil

	case OpSwap4:
		s := m.stack
		for i := 0; i < 4; i++ {
			s[i], s[i+4] = s[i+4], s[i]
		}
		return nil

	case OpRoll4:
		s := m.stack
		v := s[3]
		copy(s[1:4], s[0:3])
		s[0] = v
		return nil

	case OpRoll8:
		s := m.stack
		v := s[7]
		copy(s[1:8], s[0:7])
		s[0] = v
		return nil

	case OpChoose:
		return m.choose()

	case OpChoose2:
		return m.choose2()

	case OpAdd:
		a, b := m.stack[0], m.stack[1]
		m.stack = m.stack[2:]
		m.push(a.Add(b))
		return nil

	case OpMul:
		a, b := m.stack[0], m.stack[1]
		m.stack = m.stack[2:]
		m.push(a.Mul(b))
		return nil

	case OpInv:
		if m.stack[0].IsZero() {
			return newErr(ErrDivideByZero, "INV applied to zero")
		}
		inv, err := m.stack[0].Inv()
		if err != nil {
			return newErr(ErrDivideByZero, "%v", err)
		}
		m.stack[0] = inv
		return nil

	case OpNeg:
		m.stack[0] = m.stack[0].Neg()
		return nil

	case OpNot:
		if !m.stack[0].IsBinary() {
			return newErr(ErrNonBinaryBranch, "NOT requires a binary operand, got %s", m.stack[0])
		}
		m.stack[0] = field.One().Sub(m.stack[0])
		return nil

	case OpAnd:
		a, b := m.stack[0], m.stack[1]
		if !a.IsBinary() || !b.IsBinary() {
			return newErr(ErrNonBinaryBranch, "AND requires binary operands, got %s, %s", a, b)
		}
		m.stack = m.stack[2:]
		m.push(a.Mul(b))
		return nil

	case OpOr:
		a, b := m.stack[0], m.stack[1]
		if !a.IsBinary() || !b.IsBinary() {
			return newErr(ErrNonBinaryBranch, "OR requires binary operands, got %s, %s", a, b)
		}
		m.stack = m.stack[2:]
		m.push(a.Add(b).Sub(a.Mul(b)))
		return nil

	case OpEq:
		a, b := m.stack[0], m.stack[1]
		m.stack = m.stack[2:]
		m.push(bit(a.Equal(b)))
		return nil

	case OpAssert:
		if !m.stack[0].IsOne() {
			return newErr(ErrAssertFailed, "ASSERT: top of stack is %s, want 1", m.stack[0])
		}
		return m.drop(1)

	case OpCmp:
		return m.cmpRound()

	case OpBinacc:
		return m.binaccRound()

	case OpPull1:
		s := m.stack
		s[0], s[1] = s[1], s[0]
		return nil

	case OpPull2:
		s := m.stack
		v := s[2]
		copy(s[1:3], s[0:2])
		s[0] = v
		return nil

	case OpRescr:
		return m.rescueRound()

	default:
		return newErr(ErrBadProgram, "unimplemented opcode %s", op)
	}
}

func (m *machine) readTapeA() (field.Element, error) {
	if len(m.tapeA) == 0 {
		return field.Element{}, newErr(ErrTapeExhausted, "secret input tape A is exhausted")
	}
	v := m.tapeA[0]
	m.tapeA = m.tapeA[1:]
	return v, nil
}

func (m *machine) readTapeB() (field.Element, error) {
	if len(m.tapeB) == 0 {
		return field.Element{}, newErr(ErrTapeExhausted, "secret input tape B is exhausted")
	}
	v := m.tapeB[0]
	m.tapeB = m.tapeB[1:]
	return v, nil
}

// choose implements CHOOSE: pop (a, b, c), push a if c==1 else b. The
// condition sits below both candidates on the stack, not on top of them.
func (m *machine) choose() error {
	a, b, c := m.stack[0], m.stack[1], m.stack[2]
	if !c.IsBinary() {
		return newErr(ErrNonBinaryBranch, "CHOOSE condition must be 0 or 1, got %s", c)
	}
	m.stack = m.stack[3:]
	if c.IsOne() {
		m.push(a)
	} else {
		m.push(b)
	}
	return nil
}

// choose2 implements CHOOSE2: pop (a1, a0, b1, b0, c, pad), push the
// 2-wide value (a1,a0) if c==1 else (b1,b0). As with CHOOSE, the
// condition sits below both 2-wide candidates, not on top of them.
func (m *machine) choose2() error {
	a1, a0 := m.stack[0], m.stack[1]
	b1, b0 := m.stack[2], m.stack[3]
	c := m.stack[4]
	if !c.IsBinary() {
		return newErr(ErrNonBinaryBranch, "CHOOSE2 condition must be 0 or 1, got %s", c)
	}
	m.stack = m.stack[6:]
	if c.IsOne() {
		m.push(a0)
		m.push(a1)
	} else {
		m.push(b0)
		m.push(b1)
	}
	return nil
}

// binaccRound implements one round of BINACC: pop (bit, acc), push
// acc*2 + bit, checking bit is binary. Repeated 1-per-cycle, this
// reconstructs a value's binary decomposition while attesting every
// consumed digit was 0 or 1.
func (m *machine) binaccRound() error {
	b, acc := m.stack[0], m.stack[1]
	if !b.IsBinary() {
		return newErr(ErrNonBinaryBranch, "BINACC requires a binary digit, got %s", b)
	}
	m.stack = m.stack[2:]
	m.push(acc.Add(acc).Add(b))
	return nil
}

// cmpRound implements one round of CMP: pop (bitA, bitB, accGT, accLT),
// push the updated (accGT, accLT) pair. Running this once per bit of a
// binary decomposition (most significant first) leaves accGT=1 iff the
// first operand was strictly greater, accLT=1 iff strictly less.
func (m *machine) cmpRound() error {
	bitA, bitB, accGT, accLT := m.stack[0], m.stack[1], m.stack[2], m.stack[3]
	if !bitA.IsBinary() || !bitB.IsBinary() {
		return newErr(ErrNonBinaryBranch, "CMP requires binary digits, got %s, %s", bitA, bitB)
	}
	m.stack = m.stack[4:]
	decided := accGT.Add(accLT)
	undecided := field.One().Sub(decided)
	newGT := accGT.Add(undecided.Mul(bitA).Mul(field.One().Sub(bitB)))
	newLT := accLT.Add(undecided.Mul(field.One().Sub(bitA)).Mul(bitB))
	m.push(newLT)
	m.push(newGT)
	return nil
}

// rescueRound implements RESCR: apply one Rescue round to the top six
// stack elements, treated as (rate[0..4), capacity[0..2)) (spec §4.2).
// Its round counter is independent of the program-hash accumulator's:
// a user program unrolls a full permutation by issuing exactly
// hash.Rounds consecutive RESCR instructions.
func (m *machine) rescueRound() error {
	var s hash.State
	copy(s[:], m.stack[:6])
	next := hash.PermuteOneRound(s, m.rescrRound%hash.Rounds)
	m.rescrRound++
	copy(m.stack[:6], next[:])
	return nil
}
