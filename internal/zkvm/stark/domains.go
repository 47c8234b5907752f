package stark

import (
	"fmt"

	"github.com/starkvm/distaff/internal/zkvm/field"
)

// Domains bundles the trace domain (the subgroup the execution trace's
// rows sit on) with the low-degree-extension domain (a disjoint coset,
// extensionFactor times larger) both the prover and verifier need
// (spec §4.5 steps 2-3), grounded on protocols/domains.go's
// ProverDomains (simplified: this engine has no separate randomized-
// trace or quotient domain, since zero-knowledge blinding and a
// dedicated quotient-degree domain are both out of this sketch's scope).
type Domains struct {
	Trace field.Domain
	LDE   field.Domain
}

// NewDomains builds the trace domain of the given length and its
// extensionFactor-times-larger LDE coset.
func NewDomains(traceLength, extensionFactor int) (Domains, error) {
	if !field.IsPowerOfTwo(traceLength) {
		return Domains{}, fmt.Errorf("stark: trace length must be a power of two, got %d", traceLength)
	}
	if !field.IsPowerOfTwo(extensionFactor) {
		return Domains{}, fmt.Errorf("stark: extension factor must be a power of two, got %d", extensionFactor)
	}
	trace, err := field.NewDomain(traceLength)
	if err != nil {
		return Domains{}, err
	}
	lde, err := field.NewDomain(traceLength * extensionFactor)
	if err != nil {
		return Domains{}, err
	}
	lde = lde.WithOffset(field.CosetGenerator())
	return Domains{Trace: trace, LDE: lde}, nil
}

// NextRowIndex maps an LDE-domain index to the index holding the next
// trace row's low-degree extension: since the LDE generator raised to
// ExtensionFactor has exactly the trace domain's order, stepping
// ExtensionFactor indices in the LDE domain is the same algebraic move
// as multiplying a trace-domain point by its own generator once.
func (d Domains) NextRowIndex(i, extensionFactor int) int {
	return (i + extensionFactor) % d.LDE.Length
}
