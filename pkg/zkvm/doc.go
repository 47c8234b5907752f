// Package zkvm is the public API of a distaff-style zero-knowledge
// virtual machine: build a program, execute it to get a trace and its
// declared outputs, generate a STARK proof that the execution is
// correct, and verify that proof against the program's hash, its public
// inputs, and its claimed outputs, without ever re-running it.
//
// # Quick start
//
//	prog := zkvm.NewProgram(zkvm.SpanOf(zkvm.Op(zkvm.OpAdd)))
//	result, err := zkvm.Execute(prog, zkvm.PublicInputs(3, 4), 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	proof, err := zkvm.Prove(prog, result, zkvm.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = zkvm.Verify(proof, prog.Hash(), result.Inputs.Public, result.Outputs)
//	if err != nil {
//		log.Fatal("proof rejected:", err)
//	}
//
// # Architecture
//
//   - pkg/zkvm/: public API (this package)
//   - internal/zkvm/: processor (VM simulation), constraints (AIR), stark
//     (STARK prover/verifier), field, hash, merkle, transcript
//
// Implementation details under internal/ can change without breaking
// this package's surface.
package zkvm
