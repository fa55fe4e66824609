package binlogrouter

import (
	"encoding/binary"

	"github.com/juju/errors"
)

// eventBodyOffset is the byte offset into a whole MySQL packet at which
// the replication event's raw payload begins: 4-byte packet header + 1
// OK byte, per spec.md §4.6 ("starting 5 bytes into the MySQL packet").
const eventBodyOffset = 5

// ingest classifies one binlog event packet and applies spec.md §4.6:
// error accounting, the per-event-type histogram, fake-FDE detection,
// heartbeat/artificial filtering, local persistence and rotate
// handling, then fan-out.
//
// Grounded on the teacher's local.go (Local.NextEvent position
// tracking) and binlog.go's dispatch-by-event-type switch, narrowed to
// the header-only classification spec.md §1 scopes the router to (event
// payloads otherwise pass through opaque).
func (ri *RouterInstance) ingest(pkt []byte) error {
	hdr, err := ParseReplicationHeader(pkt)
	if err != nil {
		return errors.Annotate(err, "parse binlog event header")
	}

	if hdr.OK != 0 {
		ri.Stats.IncErrors()
		return nil
	}

	ri.Stats.IncBinlogs(hdr.EventType)

	if len(pkt) < eventBodyOffset {
		return errors.Errorf("binlogrouter: event packet too short (%d bytes)", len(pkt))
	}
	body := pkt[eventBodyOffset:]
	if uint32(len(body)) > hdr.EventSize {
		body = body[:hdr.EventSize]
	}

	switch {
	case hdr.EventType == FormatDescriptionEvent && hdr.NextPos == 0:
		// Fake (synthetic) FDE: saved, never written, never fanned out.
		ri.Stats.IncFakeEvents()
		cp := append([]byte(nil), body...)
		ri.mu.Lock()
		ri.savedFDE = cp
		ri.mu.Unlock()
		return nil

	case hdr.EventType == HeartbeatEvent:
		return nil

	case hdr.IsArtificial():
		if hdr.EventType == RotateEvent {
			if err := ri.rotate(body); err != nil {
				return errors.Annotate(err, "rotate on artificial event")
			}
		}
		return nil

	default:
		if err := ri.File.Append(body); err != nil {
			return errors.Annotate(err, "append binlog event")
		}
		if hdr.EventType == RotateEvent {
			if err := ri.rotate(body); err != nil {
				return errors.Annotate(err, "rotate")
			}
		}
		ri.distribute(hdr, body)
		return nil
	}
}

// rotate parses a rotate event's body — the 19-byte event header, then
// an 8-byte little-endian position followed by the new binlog file
// name — and, if the name differs from the instance's current one,
// switches the local file and updates RouterInstance position tracking,
// per spec.md §4.6.
func (ri *RouterInstance) rotate(body []byte) error {
	const eventHeaderLen = 19
	if len(body) < eventHeaderLen+8 {
		return errors.Errorf("binlogrouter: rotate event body too short (%d bytes)", len(body))
	}
	pos := binary.LittleEndian.Uint64(body[eventHeaderLen : eventHeaderLen+8])
	name := string(body[eventHeaderLen+8:])

	ri.mu.Lock()
	changed := name != ri.BinlogName
	if changed {
		ri.BinlogName = name
		ri.BinlogPosition = pos
	}
	ri.mu.Unlock()

	if !changed {
		return nil
	}
	ri.Stats.IncRotates()
	return ri.File.Rotate(name, pos)
}
