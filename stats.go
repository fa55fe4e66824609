package binlogrouter

import "sync/atomic"

// Stats holds the per-RouterInstance counters of spec.md §3/§9: events
// received, fake (synthetic) events, rotates, errors, an unusual-span
// counter for the reassembly anomaly of §9, and a fixed-size
// per-event-type histogram sized to the MySQL 5.6 event-type table
// (EventTypeTableSize slots, per the "Stat histogram bound" design
// note — see DESIGN.md for why this is not grown dynamically).
type Stats struct {
	nBinlogs     uint64
	nFakeEvents  uint64
	nRotates     uint64
	nErrors      uint64
	unusualSpans uint64
	eventTypes   [EventTypeTableSize]uint64
}

// IncBinlogs records an ordinary (non-error) event of the given type.
// Event types outside [0, EventTypeTableSize) are counted in the total
// but not added to any histogram slot, per spec.md §7's "Event-type out
// of range" error kind.
func (s *Stats) IncBinlogs(eventType byte) {
	atomic.AddUint64(&s.nBinlogs, 1)
	if int(eventType) < len(s.eventTypes) {
		atomic.AddUint64(&s.eventTypes[eventType], 1)
	}
}

// IncFakeEvents records a synthetic (next_pos == 0) FDE.
func (s *Stats) IncFakeEvents() { atomic.AddUint64(&s.nFakeEvents, 1) }

// IncRotates records a binlog file rotation.
func (s *Stats) IncRotates() { atomic.AddUint64(&s.nRotates, 1) }

// IncErrors records an upstream error packet or other processing error.
func (s *Stats) IncErrors() { atomic.AddUint64(&s.nErrors, 1) }

// IncUnusualSpans records a reassembled packet that touched more than
// two source segments (spec.md §9).
func (s *Stats) IncUnusualSpans() { atomic.AddUint64(&s.unusualSpans, 1) }

// Snapshot is a point-in-time copy of Stats, safe to read without
// racing further updates.
type Snapshot struct {
	NBinlogs     uint64
	NFakeEvents  uint64
	NRotates     uint64
	NErrors      uint64
	UnusualSpans uint64
	EventTypes   [EventTypeTableSize]uint64
}

// Snapshot returns a consistent-enough copy of the counters for
// reporting. Individual fields are read atomically but the whole
// struct is not a single atomic unit — acceptable for a statistics
// surface per spec.md §1 (stats are informational, not used for
// control flow).
func (s *Stats) Snapshot() Snapshot {
	var out Snapshot
	out.NBinlogs = atomic.LoadUint64(&s.nBinlogs)
	out.NFakeEvents = atomic.LoadUint64(&s.nFakeEvents)
	out.NRotates = atomic.LoadUint64(&s.nRotates)
	out.NErrors = atomic.LoadUint64(&s.nErrors)
	out.UnusualSpans = atomic.LoadUint64(&s.unusualSpans)
	for i := range s.eventTypes {
		out.EventTypes[i] = atomic.LoadUint64(&s.eventTypes[i])
	}
	return out
}
