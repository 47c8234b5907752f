package zkvm

import (
	"github.com/starkvm/distaff/internal/zkvm/processor"
	"github.com/starkvm/distaff/internal/zkvm/stark"
)

// Program is a compiled, hashable unit of execution (spec §3's
// "Program::from_proc").
type Program struct {
	inner *processor.Program
}

// NewProgram builds a Program from a single top-level block.
func NewProgram(root Block) Program {
	return Program{inner: processor.FromProc([]processor.Block{root})}
}

// NewProgramFromBlocks builds a Program whose top-level body runs the
// given blocks in sequence.
func NewProgramFromBlocks(blocks ...Block) Program {
	return Program{inner: processor.FromProc(blocks)}
}

// Hash returns the program's Rescue-based hash (spec §4.3): the public
// commitment a verifier checks a proof against, independent of any
// particular execution of it.
func (p Program) Hash() Digest {
	return p.inner.Hash()
}

// Inputs bundles a program's public inputs (part of the statement being
// proven) with its two secret input tapes (spec §3).
type Inputs struct {
	Public  []FieldElement
	SecretA []FieldElement
	SecretB []FieldElement
}

// PublicInputs builds Inputs with no secret tapes, from plain int64s.
func PublicInputs(vs ...int64) Inputs {
	return Inputs{Public: FieldElements(vs...)}
}

func (in Inputs) toProcessor() processor.ProgramInputs {
	return processor.NewProgramInputs(in.Public, in.SecretA, in.SecretB)
}

// Result is a completed execution: its resulting trace (the prover's
// witness) plus the claimed outputs and the inputs it ran against (the
// statement a proof is checked against).
type Result struct {
	Inputs  Inputs
	Outputs []FieldElement

	trace *processor.Trace
}

// Execute runs prog to completion and returns its resulting trace and
// declared outputs (spec §4's simulator), or an *Error wrapping the
// underlying processor.ExecutionError describing why it failed.
func Execute(prog Program, inputs Inputs, numOutputs int) (*Result, error) {
	trace, err := processor.Execute(prog.inner, inputs.toProcessor(), numOutputs)
	if err != nil {
		return nil, wrapErr(ErrExecution, "program execution failed", err)
	}
	return &Result{Inputs: inputs, Outputs: trace.Outputs, trace: trace}, nil
}

// Prove generates a STARK proof that result came from actually executing
// prog (spec §4.5's Prove). The caller must have produced result via
// Execute(prog, ...): the proof is only meaningful paired with the
// program it was built against.
func Prove(prog Program, result *Result, opts Options) (*Proof, error) {
	proof, err := stark.Prove(result.trace, prog.Hash(), opts)
	if err != nil {
		return nil, wrapErr(ErrProofGeneration, "proof generation failed", err)
	}
	return proof, nil
}

// Verify checks a proof against the public statement it claims to prove:
// the program's hash, its public inputs, and its claimed outputs (spec
// §4.5's Verify). It never touches the trace or the secret input tapes.
func Verify(proof *Proof, programHash Digest, publicInputs, outputs []FieldElement) error {
	if err := stark.Verify(proof, programHash, publicInputs, outputs); err != nil {
		return wrapErr(ErrProofVerification, "proof verification failed", err)
	}
	return nil
}
