package binlogrouter

import (
	"encoding/binary"

	"github.com/juju/errors"
)

// Replication event types the router inspects directly; the rest pass
// through opaquely (row/value-level decoding is out of scope, see
// SPEC_FULL.md's non-goals). Values per spec.md §6 / the MySQL 5.6
// binlog-event-type table.
const (
	FormatDescriptionEvent = 0x0f
	RotateEvent            = 0x04
	HeartbeatEvent         = 0x1b
)

// EventTypeTableSize is the 36-slot MySQL 5.6 event-type histogram
// bound named in spec.md §6.
const EventTypeTableSize = 0x24

// LogEventArtificialF marks an event as informational/synthetic rather
// than part of the logical replicated stream, per spec.md §6.
const LogEventArtificialF = 0x0020

// ReplicationHeader is the MySQL packet framing plus the 19-byte
// replication event header, per spec.md §3.
type ReplicationHeader struct {
	PayloadLen uint32 // 24-bit packet payload length
	Seqno      byte
	OK         byte // 0 for data, non-zero for an error packet
	Timestamp  uint32
	EventType  byte
	ServerID   uint32
	EventSize  uint32
	NextPos    uint32
	Flags      uint16
}

// minWireSize is the smallest a whole MySQL packet can be and still be
// inspected by ParseReplicationHeader: 4-byte packet header + 1-byte OK
// marker. An error packet (OK != 0) is this short plus a code and
// message, far less than a full event header; only a data packet
// (OK == 0) is required to carry the full 19-byte event header.
const minWireSize = 4 + 1

// headerWireSize is the byte count a data packet (OK == 0) must reach
// for ParseReplicationHeader to populate the event-header fields:
// 4-byte packet header + 1-byte OK + 19-byte event header.
const headerWireSize = 4 + 1 + 19

// ParseReplicationHeader extracts a ReplicationHeader from the start of
// a whole MySQL packet (as produced by Reassembler.Feed), per spec.md
// §4.3. Only PayloadLen, Seqno and OK are guaranteed populated for an
// error packet (OK != 0) — the 19-byte event header fields that follow
// are specific to data packets. No validation is performed beyond
// checking the packet is long enough to contain the fields it claims
// to have; OK != 0 is not itself an error here — callers branch on it
// per spec.md §4.3/§7.
func ParseReplicationHeader(pkt []byte) (ReplicationHeader, error) {
	if len(pkt) < minWireSize {
		return ReplicationHeader{}, errors.Errorf(
			"binlogrouter: packet too short for replication header (%d bytes, want at least %d)",
			len(pkt), minWireSize)
	}
	var h ReplicationHeader
	h.PayloadLen = Uint24(pkt[0:3])
	h.Seqno = pkt[3]
	h.OK = pkt[4]
	if h.OK != 0 {
		return h, nil
	}
	if len(pkt) < headerWireSize {
		return ReplicationHeader{}, errors.Errorf(
			"binlogrouter: data packet too short for event header (%d bytes, want at least %d)",
			len(pkt), headerWireSize)
	}
	h.Timestamp = binary.LittleEndian.Uint32(pkt[5:9])
	h.EventType = pkt[9]
	h.ServerID = binary.LittleEndian.Uint32(pkt[10:14])
	h.EventSize = binary.LittleEndian.Uint32(pkt[14:18])
	h.NextPos = binary.LittleEndian.Uint32(pkt[18:22])
	h.Flags = binary.LittleEndian.Uint16(pkt[22:24])
	return h, nil
}

// ErrorMessage extracts the human-readable message of an error packet
// (OK != 0), which begins at byte offset 7 from the start of the MySQL
// packet (payload offset +3, right after the marker byte and the 2-byte
// error code).
func ErrorMessage(pkt []byte) string {
	if len(pkt) <= 7 {
		return ""
	}
	return string(pkt[7:])
}

// ErrorCode extracts the 16-bit MySQL error code immediately following
// the OK/error-marker byte of an error packet.
func ErrorCode(pkt []byte) uint16 {
	if len(pkt) < 7 {
		return 0
	}
	return binary.LittleEndian.Uint16(pkt[5:7])
}

// IsArtificial reports whether flags has LOG_EVENT_ARTIFICIAL_F set.
func (h ReplicationHeader) IsArtificial() bool {
	return h.Flags&LogEventArtificialF != 0
}
