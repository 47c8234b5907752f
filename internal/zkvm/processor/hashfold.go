package processor

import (
	"github.com/starkvm/distaff/internal/zkvm/field"
	"github.com/starkvm/distaff/internal/zkvm/hash"
	"github.com/starkvm/distaff/internal/zkvm/merkle"
)

// foldState is the single primitive both the static block-hash tree
// (program.go) and the live trace accumulator (simulate.go) fold
// through: starting from Rescue's zero state, absorb one value into the
// rate's leading lane(s) and advance exactly one round. Folding a whole
// block always starts a foldState fresh (the zero value), which is what
// makes a block's digest independent of whatever came before it in the
// surrounding trace.
type foldState struct {
	state hash.State
	round int
}

// scalar folds a single field element (an opcode code point, an
// immediate, or a block-type tag).
func (f *foldState) scalar(v field.Element) {
	f.state[0] = v
	f.state = hash.PermuteOneRound(f.state, f.round%hash.Rounds)
	f.round++
}

// digestValue folds a two-element digest (a child block's already
// computed hash).
func (f *foldState) digestValue(d merkle.Digest) {
	f.state[0], f.state[1] = d[0], d[1]
	f.state = hash.PermuteOneRound(f.state, f.round%hash.Rounds)
	f.round++
}

// digest reads out the current two rate lanes as a digest.
func (f *foldState) digest() merkle.Digest {
	return merkle.Digest{f.state[0], f.state[1]}
}
