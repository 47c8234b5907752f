// Package transcript implements the Fiat-Shamir channel the prover and
// verifier both replay to turn an interactive STARK into a non-interactive
// one: every value the verifier would have sent is instead derived from a
// running hash of everything sent so far.
package transcript

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"

	"github.com/starkvm/distaff/internal/zkvm/field"
)

// Channel is a Fiat-Shamir transcript: Send absorbs prover data into the
// running state, the Receive* methods derive verifier randomness from it.
// A prover and a verifier that send and receive the same sequence of
// values always agree on every derived challenge, without ever talking to
// each other.
type Channel struct {
	state []byte
	log   []string
}

// New starts a channel with an empty transcript.
func New() *Channel {
	return &Channel{state: []byte{0}, log: make([]string, 0, 64)}
}

// Send absorbs data into the channel: every subsequent Receive* call's
// output depends on it.
func (c *Channel) Send(data []byte) {
	c.log = append(c.log, fmt.Sprintf("send:%s", hex.EncodeToString(data)))
	c.state = c.hash(append(append([]byte(nil), c.state...), data...))
}

// SendElements absorbs a sequence of field elements, in order.
func (c *Channel) SendElements(es []field.Element) {
	for _, e := range es {
		b := e.Bytes()
		c.Send(b[:])
	}
}

// SendDigest absorbs a two-element digest (a Merkle root or program hash).
func (c *Channel) SendDigest(d [2]field.Element) {
	c.SendElements(d[:])
}

// ReceiveField derives the next pseudorandom field element from the
// channel state, then advances the state so the next call returns a
// different value.
func (c *Channel) ReceiveField() field.Element {
	e := field.FromBytes(c.state)
	c.log = append(c.log, fmt.Sprintf("receiveField:%s", e))
	c.state = c.hash(c.state)
	return e
}

// ReceiveFields derives n independent pseudorandom field elements, most
// commonly the composition polynomial's per-constraint coefficients.
func (c *Channel) ReceiveFields(n int) []field.Element {
	out := make([]field.Element, n)
	for i := range out {
		out[i] = c.ReceiveField()
	}
	return out
}

// ReceiveIndex derives a pseudorandom index in [0, bound), the query
// positions FRI samples from the evaluation domain. bound must be > 0.
func (c *Channel) ReceiveIndex(bound uint64) uint64 {
	if bound == 0 {
		panic("transcript: ReceiveIndex bound must be positive")
	}
	stateInt := new(big.Int).SetBytes(c.state)
	idx := new(big.Int).Mod(stateInt, new(big.Int).SetUint64(bound)).Uint64()
	c.log = append(c.log, fmt.Sprintf("receiveIndex:%d", idx))
	c.state = c.hash(c.state)
	return idx
}

// ReceiveIndices derives n pseudorandom, not-necessarily-distinct indices
// in [0, bound) — FRI's batch of query positions.
func (c *Channel) ReceiveIndices(n int, bound uint64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = c.ReceiveIndex(bound)
	}
	return out
}

// State returns a copy of the channel's current digest state.
func (c *Channel) State() []byte {
	return append([]byte(nil), c.state...)
}

// Log returns a copy of the channel's send/receive transcript, useful for
// debugging proof non-determinism.
func (c *Channel) Log() []string {
	return append([]string(nil), c.log...)
}

func (c *Channel) hash(data []byte) []byte {
	h := sha3.Sum256(data)
	return h[:]
}
