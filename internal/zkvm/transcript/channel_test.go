package transcript

import (
	"testing"

	"github.com/starkvm/distaff/internal/zkvm/field"
)

func TestNewChannelStateInitialized(t *testing.T) {
	c := New()
	if len(c.State()) == 0 {
		t.Fatal("new channel has empty state")
	}
}

func TestSendChangesState(t *testing.T) {
	c := New()
	before := c.State()
	c.Send([]byte("hello"))
	after := c.State()
	if string(before) == string(after) {
		t.Fatal("Send did not change channel state")
	}
}

func TestReceiveFieldAdvancesState(t *testing.T) {
	c := New()
	a := c.ReceiveField()
	b := c.ReceiveField()
	if a.Equal(b) {
		t.Fatal("two consecutive ReceiveField calls returned the same element")
	}
}

func TestDeterminism(t *testing.T) {
	c1, c2 := New(), New()
	c1.Send([]byte("program hash"))
	c2.Send([]byte("program hash"))

	f1 := c1.ReceiveFields(4)
	f2 := c2.ReceiveFields(4)
	for i := range f1 {
		if !f1[i].Equal(f2[i]) {
			t.Fatalf("element %d diverged: %s vs %s", i, f1[i], f2[i])
		}
	}
}

func TestDifferentSendsDivergeChallenges(t *testing.T) {
	c1, c2 := New(), New()
	c1.Send([]byte("root A"))
	c2.Send([]byte("root B"))

	if c1.ReceiveField().Equal(c2.ReceiveField()) {
		t.Fatal("distinct transcripts produced the same challenge")
	}
}

func TestReceiveIndexInBound(t *testing.T) {
	c := New()
	c.Send([]byte("domain"))
	const bound = 17
	for i := 0; i < 50; i++ {
		idx := c.ReceiveIndex(bound)
		if idx >= bound {
			t.Fatalf("index %d out of bound %d", idx, bound)
		}
	}
}

func TestReceiveIndicesLength(t *testing.T) {
	c := New()
	idxs := c.ReceiveIndices(10, 64)
	if len(idxs) != 10 {
		t.Fatalf("got %d indices, want 10", len(idxs))
	}
	for _, idx := range idxs {
		if idx >= 64 {
			t.Fatalf("index %d out of bound 64", idx)
		}
	}
}

func TestReceiveIndexZeroBoundPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero bound")
		}
	}()
	New().ReceiveIndex(0)
}

func TestStateIsACopy(t *testing.T) {
	c := New()
	s1 := c.State()
	s1[0] ^= 0xFF
	s2 := c.State()
	if s1[0] == s2[0] {
		t.Fatal("State() leaked internal slice")
	}
}

func TestLogRecordsSendsAndReceives(t *testing.T) {
	c := New()
	c.Send([]byte("a"))
	c.ReceiveField()
	log := c.Log()
	if len(log) != 2 {
		t.Fatalf("got %d log entries, want 2", len(log))
	}
}

func TestSendElementsAbsorbsEachElement(t *testing.T) {
	c1, c2 := New(), New()
	es := []field.Element{field.FromInt64(1), field.FromInt64(2), field.FromInt64(3)}
	c1.SendElements(es)
	for _, e := range es {
		b := e.Bytes()
		c2.Send(b[:])
	}
	if string(c1.State()) != string(c2.State()) {
		t.Fatal("SendElements did not match per-element Send calls")
	}
}

func TestSendDigestMatchesSendElements(t *testing.T) {
	c1, c2 := New(), New()
	d := [2]field.Element{field.FromInt64(42), field.FromInt64(99)}
	c1.SendDigest(d)
	c2.SendElements(d[:])
	if string(c1.State()) != string(c2.State()) {
		t.Fatal("SendDigest diverged from SendElements")
	}
}
