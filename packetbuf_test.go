package binlogrouter

import (
	"bytes"
	"math/rand"
	"testing"
)

func buildPacket(payload []byte, seq byte) []byte {
	pkt := make([]byte, 4+len(payload))
	PutUint24(pkt[0:3], uint32(len(payload)))
	pkt[3] = seq
	copy(pkt[4:], payload)
	return pkt
}

// TestSplitPacket is scenario 2 of spec.md §8: a single 104-byte packet
// (payload length 100) delivered in chunks of 1, 2, 90, 11 bytes.
func TestSplitPacket(t *testing.T) {
	payload := bytes.Repeat([]byte{0xab}, 100)
	pkt := buildPacket(payload, 0)
	if len(pkt) != 104 {
		t.Fatalf("test setup: packet length = %d, want 104", len(pkt))
	}

	chunks := [][]byte{pkt[0:1], pkt[1:3], pkt[3:93], pkt[93:104]}
	var rb Reassembler
	var got [][]byte
	for _, c := range chunks {
		packets, err := rb.Feed(c)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, packets...)
	}

	if len(got) != 1 {
		t.Fatalf("got %d packets, want 1", len(got))
	}
	if !bytes.Equal(got[0], pkt) {
		t.Fatalf("reassembled packet differs from original")
	}
	if len(rb.Residual()) != 0 {
		t.Fatalf("residual = %v, want empty", rb.Residual())
	}
}

// TestReassemblyRoundTrip is the invariant from spec.md §8: for any
// chunking of a byte stream into segments, the sequence of extracted
// packets equals the sequence of packets present in the concatenation.
func TestReassemblyRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var want [][]byte
	var whole []byte
	for i := 0; i < 20; i++ {
		n := rng.Intn(50)
		payload := make([]byte, n)
		rng.Read(payload)
		pkt := buildPacket(payload, byte(i))
		want = append(want, pkt)
		whole = append(whole, pkt...)
	}

	for trial := 0; trial < 10; trial++ {
		var chunks [][]byte
		rest := whole
		for len(rest) > 0 {
			n := rng.Intn(7) + 1
			if n > len(rest) {
				n = len(rest)
			}
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}

		var rb Reassembler
		var got [][]byte
		for _, c := range chunks {
			packets, err := rb.Feed(c)
			if err != nil {
				t.Fatal(err)
			}
			got = append(got, packets...)
		}
		if len(got) != len(want) {
			t.Fatalf("trial %d: got %d packets, want %d", trial, len(got), len(want))
		}
		for i := range want {
			if !bytes.Equal(got[i], want[i]) {
				t.Fatalf("trial %d: packet %d differs", trial, i)
			}
		}
		if len(rb.Residual()) != 0 {
			t.Fatalf("trial %d: residual not drained", trial)
		}
	}
}

func TestReassemblerSpanningAnomaly(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 20)
	pkt := buildPacket(payload, 0)

	var rb Reassembler
	for i := 0; i < len(pkt); i++ {
		if _, err := rb.Feed(pkt[i : i+1]); err != nil {
			t.Fatal(err)
		}
	}
	if rb.SpanCount() == 0 {
		t.Fatalf("expected spanning anomaly to be counted for a byte-at-a-time delivery")
	}
}
