package binlogrouter

import (
	"fmt"

	"github.com/juju/errors"
)

// MasterState enumerates the master-side client states of spec.md §4.4,
// in execution order. BinlogDump is terminal: once reached, all further
// responses are routed to ingest (ingest.go) instead of this state
// machine.
type MasterState int

const (
	StateAuthenticated MasterState = iota
	StateTimestamp
	StateServerID
	StateHBPeriod
	StateChksum1
	StateChksum2
	StateGTIDMode
	StateMUUID
	StateSUUID
	StateLatin1
	StateRegister
	StateBinlogDump
)

func (s MasterState) String() string {
	switch s {
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateTimestamp:
		return "TIMESTAMP"
	case StateServerID:
		return "SERVERID"
	case StateHBPeriod:
		return "HBPERIOD"
	case StateChksum1:
		return "CHKSUM1"
	case StateChksum2:
		return "CHKSUM2"
	case StateGTIDMode:
		return "GTIDMODE"
	case StateMUUID:
		return "MUUID"
	case StateSUUID:
		return "SUUID"
	case StateLatin1:
		return "LATIN1"
	case StateRegister:
		return "REGISTER"
	case StateBinlogDump:
		return "BINLOGDUMP"
	default:
		return "UNKNOWN"
	}
}

// savedStep names the handshake steps whose response buffers are
// retained verbatim for replay to newly attaching slaves, per spec.md §3
// ("Saved handshake responses") and §9's "owned map from step name to
// opaque byte buffer" note.
type savedStep string

const (
	savedServerID savedStep = "server_id"
	savedHBPeriod savedStep = "hb_period"
	savedChksum1  savedStep = "chksum1"
	savedChksum2  savedStep = "chksum2"
	savedGTIDMode savedStep = "gtid_mode"
	savedMUUID    savedStep = "master_uuid"
	savedSetSUUID savedStep = "set_slave_uuid"
	savedSetNames savedStep = "set_names"
)

// ErrInvalidState is returned when a master response arrives while the
// instance's MasterState is outside its declared range, per spec.md §7.
var ErrInvalidState = errors.New("binlogrouter: master response in invalid state")

// ErrUpstreamError wraps a server-reported error packet, carrying the
// state it was observed in plus the server's code and message, per
// spec.md §4.4's error handling clause.
type ErrUpstreamError struct {
	State   MasterState
	Code    uint16
	Message string
}

func (e *ErrUpstreamError) Error() string {
	return fmt.Sprintf("binlogrouter: upstream error in state %s: code=%d message=%q",
		e.State, e.Code, e.Message)
}

// handleMasterResponse advances the master state machine by exactly one
// step, given the whole MySQL packet pkt carrying the response to the
// probe most recently sent. It returns the next outbound packet to send
// to the master (nil if none — e.g. on error, or once BINLOGDUMP is
// reached and responses are ingest-bound instead), and an error if the
// response could not be handled.
//
// Grounded on the teacher's remote.go/auth.go staged dial-then-advance
// shape, generalized from blocking round trips into a single resumable
// step so the gate (gate.go) can interleave it with concurrent
// deliveries one buffer at a time.
func (ri *RouterInstance) handleMasterResponse(pkt []byte) ([]byte, error) {
	hdr, err := ParseReplicationHeader(pkt)
	if err != nil {
		return nil, errors.Annotate(err, "parse master response header")
	}

	if hdr.OK != 0 {
		code := ErrorCode(pkt)
		msg := ErrorMessage(pkt)
		ri.Stats.IncErrors()
		ri.LastError = &ErrUpstreamError{State: ri.MasterState, Code: code, Message: msg}
		return nil, ri.LastError
	}

	switch ri.MasterState {
	case StateAuthenticated:
		ri.MasterState = StateTimestamp
		return EncodeQuery("SELECT UNIX_TIMESTAMP()"), nil

	case StateTimestamp:
		// response discarded, per spec.md §4.4 probe 1.
		ri.MasterState = StateServerID
		return EncodeQuery("SHOW VARIABLES LIKE 'SERVER_ID'"), nil

	case StateServerID:
		ri.save(savedServerID, pkt)
		ri.MasterState = StateHBPeriod
		return EncodeQuery("SET @master_heartbeat_period = 1799999979520"), nil

	case StateHBPeriod:
		ri.save(savedHBPeriod, pkt)
		ri.MasterState = StateChksum1
		return EncodeQuery("SET @master_binlog_checksum = @@global.binlog_checksum"), nil

	case StateChksum1:
		ri.save(savedChksum1, pkt)
		ri.MasterState = StateChksum2
		return EncodeQuery("SELECT @master_binlog_checksum"), nil

	case StateChksum2:
		ri.save(savedChksum2, pkt)
		ri.MasterState = StateGTIDMode
		return EncodeQuery("SELECT @@GLOBAL.GTID_MODE"), nil

	case StateGTIDMode:
		ri.save(savedGTIDMode, pkt)
		ri.MasterState = StateMUUID
		return EncodeQuery("SHOW VARIABLES LIKE 'SERVER_UUID'"), nil

	case StateMUUID:
		ri.save(savedMUUID, pkt)
		ri.MasterState = StateSUUID
		return EncodeQuery("SET @slave_uuid='" + ri.UUID + "'"), nil

	case StateSUUID:
		ri.save(savedSetSUUID, pkt)
		ri.MasterState = StateLatin1
		return EncodeQuery("SET NAMES latin1"), nil

	case StateLatin1:
		ri.save(savedSetNames, pkt)
		ri.MasterState = StateRegister
		return EncodeRegisterSlave(ri.ServerID, ri.MasterID, ri.SlavePort), nil

	case StateRegister:
		ri.MasterState = StateBinlogDump
		return EncodeBinlogDump(uint32(ri.BinlogPosition), ri.ServerID, ri.BinlogName), nil

	case StateBinlogDump:
		// Terminal: streaming responses are routed to ingest, not here.
		return nil, ri.ingest(pkt)

	default:
		ri.Stats.IncErrors()
		ri.LastError = ErrInvalidState
		return nil, ErrInvalidState
	}
}

// save records a handshake step's raw response buffer in the saved map,
// replacing any prior copy, per spec.md §3/§9.
func (ri *RouterInstance) save(step savedStep, pkt []byte) {
	cp := append([]byte(nil), pkt...)
	ri.mu.Lock()
	ri.saved[step] = cp
	ri.mu.Unlock()
}
