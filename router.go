package binlogrouter

import (
	"sync"

	"github.com/juju/errors"
)

// SlaveEntry is one registered downstream replica currently served by a
// RouterInstance, per spec.md §3.
type SlaveEntry struct {
	Conn      SlaveConn
	BinlogPos uint64
	Seqno     byte
}

// Config carries the fields a RouterInstance needs at construction,
// per spec.md §3's identity/replication-position attributes. Master
// connection and local-file collaborators are supplied separately via
// SetMaster/the File field since they may not be ready at construction
// time (e.g. the master dial happens after registration).
type Config struct {
	ServerID   uint32
	UUID       string
	SlavePort  uint16
	BinlogName string
	BinlogPos  uint64
	File       BinlogFile
}

// RouterInstance is one configured replication service: a single
// upstream master connection fanned out to N downstream slaves, per
// spec.md §3.
type RouterInstance struct {
	// Identity
	ServerID  uint32
	MasterID  uint32
	UUID      string
	SlavePort uint16

	// Replication position
	BinlogName     string
	BinlogPosition uint64

	// Master connection
	Master      Conn
	reasm       Reassembler
	g           gate
	MasterState MasterState
	LastError   error

	// Saved handshake responses, replayed verbatim to newly attaching
	// slaves by out-of-core code, per spec.md §3/§9.
	saved    map[savedStep][]byte
	savedFDE []byte

	// Local binlog persistence collaborator, per spec.md §6.
	File BinlogFile

	// Slaves currently served.
	Slaves []*SlaveEntry

	// Lock protecting the slave list, the saved-handshake map, and
	// replication-position fields against concurrent readers outside the
	// gate (g has its own lock for admission/queue ordering), per
	// spec.md §3/§5.
	mu sync.Mutex

	Stats Stats
}

// NewRouterInstance constructs a RouterInstance from cfg, ready to have
// its master connection attached and Feed called as bytes arrive.
func NewRouterInstance(cfg Config) *RouterInstance {
	return &RouterInstance{
		ServerID:       cfg.ServerID,
		UUID:           cfg.UUID,
		SlavePort:      cfg.SlavePort,
		BinlogName:     cfg.BinlogName,
		BinlogPosition: cfg.BinlogPos,
		File:           cfg.File,
		MasterState:    StateAuthenticated,
		saved:          make(map[savedStep][]byte),
	}
}

// SetMaster attaches the upstream master connection, used by the state
// machine (master.go) to write outbound probes.
func (ri *RouterInstance) SetMaster(c Conn) {
	ri.Master = c
}

// AddSlave registers a downstream replica for fan-out distribution.
// Safe for concurrent use.
func (ri *RouterInstance) AddSlave(s *SlaveEntry) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.Slaves = append(ri.Slaves, s)
}

// RemoveSlave deregisters s, per spec.md §3's lifecycle note (removed on
// disconnect, handled externally; this is the removal primitive the
// surrounding session layer calls).
func (ri *RouterInstance) RemoveSlave(s *SlaveEntry) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	for i, e := range ri.Slaves {
		if e == s {
			ri.Slaves = append(ri.Slaves[:i], ri.Slaves[i+1:]...)
			return
		}
	}
}

// Feed is the single entry point the surrounding session layer calls
// with inbound bytes from the master connection, per spec.md §4.2/§4.5.
// It admits buf through the serialization gate first, then — only
// while holding the gate token — reassembles it into whole packets and
// drives the master state machine (pre-BINLOGDUMP) or the ingest
// pipeline (BINLOGDUMP onward) for each one, writing any resulting
// outbound packet to Master. Safe to call concurrently from any number
// of goroutines: the gate (gate.go) admits raw buffers one at a time,
// in arrival order, and reassembly plus the per-packet pipeline both
// run only inside that single held token, so there is no window in
// which two callers' buffers can be reassembled or processed out of
// order (spec.md §2/§4.5).
func (ri *RouterInstance) Feed(buf []byte) error {
	owned, ok := ri.g.enter(buf)
	if !ok {
		return nil
	}

	var firstErr error
	flushNeeded := false
	for {
		if err := ri.reasmStep(owned); err != nil && firstErr == nil {
			firstErr = err
		}
		if ri.MasterState == StateBinlogDump {
			flushNeeded = true
		}
		next, more := ri.g.next()
		if !more {
			break
		}
		owned = next
	}

	if flushNeeded && ri.File != nil {
		if err := ri.File.Flush(); err != nil && firstErr == nil {
			firstErr = errors.Annotate(err, "flush after drain")
		}
	}
	return firstErr
}

// reasmStep reassembles one raw inbound buffer into zero or more whole
// packets and runs each through step, in order. Called only by whoever
// currently holds the gate token, so the Reassembler — not safe for
// concurrent use — never sees two buffers at once.
func (ri *RouterInstance) reasmStep(buf []byte) error {
	before := ri.reasm.SpanCount()
	packets, err := ri.reasm.Feed(buf)
	for i := 0; i < ri.reasm.SpanCount()-before; i++ {
		ri.Stats.IncUnusualSpans()
	}
	if err != nil {
		return errors.Annotate(err, "reassemble inbound buffer")
	}

	var firstErr error
	for _, pkt := range packets {
		if err := ri.step(pkt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// step processes one reassembled packet: if the state machine is still
// pre-BINLOGDUMP, it's a handshake response and may produce an outbound
// probe to write to Master; otherwise it's a streamed event and was
// already routed to ingest by handleMasterResponse.
func (ri *RouterInstance) step(pkt []byte) error {
	out, err := ri.handleMasterResponse(pkt)
	if err != nil {
		// Error handling per spec.md §4.4/§7: logged via LastError,
		// buffer already consumed; the gate is released by Feed's loop
		// once its queue drains. No retry.
		return err
	}
	if out != nil && ri.Master != nil {
		if werr := ri.Master.Write(out); werr != nil {
			return errors.Annotate(werr, "write outbound probe to master")
		}
	}
	return nil
}
