package binlogrouter

import (
	"github.com/juju/errors"
)

// packetHeaderSize is the 4-byte MySQL client packet header: 3-byte
// little-endian payload length, 1-byte sequence id.
const packetHeaderSize = 4

// Reassembler stitches a stream of arbitrarily-chunked inbound buffers
// into whole MySQL packets, per spec.md §4.2. It carries a residual
// prefix of the next undelivered packet across Feed calls.
//
// A Reassembler is not safe for concurrent use; the serialization gate
// (gate.go) is what guarantees single-threaded access to it.
type Reassembler struct {
	residual []byte
	// segments counts how many distinct Feed() deliveries have
	// contributed bytes to the packet currently being assembled
	// (i.e. to residual). Reset to 0 whenever residual is empty.
	segments int
	// spanned counts packets whose assembly touched more than two
	// source segments, per spec.md §9's "spanning packet anomaly" note.
	spanned int
}

// Feed appends buf to any carried residual and extracts as many whole
// packets as are available. Packets still include their 4-byte header
// (callers needing the payload strip it themselves via PacketPayload).
// A short final chunk is retained internally and returned, whole, on a
// later Feed call once enough bytes have arrived — this is not an
// error (spec.md §7: "Reassembly stall ... not an error").
func (rb *Reassembler) Feed(buf []byte) ([][]byte, error) {
	hadResidual := len(rb.residual) > 0
	chain := buf
	if hadResidual {
		chain = append(append([]byte(nil), rb.residual...), buf...)
		rb.residual = nil
	}
	rb.segments++

	var packets [][]byte
	for {
		if len(chain) < packetHeaderSize {
			break
		}
		payloadLen := Uint24(chain[0:3])
		targetLen := int(payloadLen) + packetHeaderSize
		if len(chain) < targetLen {
			break
		}
		if rb.segments > 2 {
			rb.spanned++
		}
		packets = append(packets, chain[:targetLen:targetLen])
		chain = chain[targetLen:]
		rb.segments = 0
	}
	if len(chain) > 0 {
		rb.residual = append([]byte(nil), chain...)
		if rb.segments == 0 {
			rb.segments = 1
		}
	} else {
		rb.segments = 0
	}
	return packets, nil
}

// Residual reports the bytes currently held back awaiting completion
// of the next packet. The invariant of spec.md §3 is that this is
// always a strict prefix of an undelivered packet.
func (rb *Reassembler) Residual() []byte {
	return rb.residual
}

// SpanCount reports how many reassembled packets required joining more
// than two delivered chunks, per spec.md §9's logged-but-not-failed
// anomaly.
func (rb *Reassembler) SpanCount() int {
	return rb.spanned
}

// PacketPayload strips the 4-byte header from a whole packet, as
// returned by Feed.
func PacketPayload(pkt []byte) ([]byte, error) {
	if len(pkt) < packetHeaderSize {
		return nil, errors.Errorf("binlogrouter: packet shorter than header (%d bytes)", len(pkt))
	}
	return pkt[packetHeaderSize:], nil
}

// PacketSeq returns the 1-byte sequence id of a whole packet.
func PacketSeq(pkt []byte) byte {
	return pkt[3]
}
