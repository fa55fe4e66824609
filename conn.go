package binlogrouter

import (
	"net"

	"github.com/juju/errors"
)

// Conn is the connection-handle contract spec.md §6 specifies as an
// external collaborator: an opaque write primitive plus an idempotent
// close. The general I/O/socket abstraction itself (buffering,
// descriptor lifecycle) is out of scope per spec.md §1 — this is just
// the narrow surface the router's pipeline calls through.
type Conn interface {
	// Write hands buf to the connection. Asynchronous, succeeds or
	// fails opaquely, per spec.md §6.
	Write(buf []byte) error
	// Close idempotently releases the connection.
	Close() error
}

// SlaveConn is the connection handle for a registered downstream
// replica. In addition to Conn, it exposes the rotate hook spec.md
// §4.7 calls so the slave-side file tracking can move when the master
// rotates, per spec.md §6's `slave.rotate_hook` contract.
type SlaveConn interface {
	Conn
	// RotateHook notifies the slave-side connection that the master
	// rotated to a new binlog file, passing the raw rotate event
	// (19-byte event header, then position + new filename) unmodified.
	RotateHook(rawRotatePayload []byte)
}

// BinlogFile is the local binlog persistence contract of spec.md §6:
// append raw event payloads, rotate to a new file at a given start
// position, and flush as a durability barrier. fsync policy is
// explicitly not specified by the core (spec.md §1's non-goals).
type BinlogFile interface {
	Append(b []byte) error
	Rotate(name string, pos uint64) error
	Flush() error
}

// CredentialSource produces the session authentication blob the router
// opaquely carries per spec.md §6; credential *production* (TLS, the
// actual handshake) is out of scope, so this interface only describes
// the shape the router is handed.
type CredentialSource interface {
	Credentials() (user, db string, sha1Password [20]byte, err error)
}

// tcpConn is a net.Conn-backed Conn, the thin default described in
// SPEC_FULL.md §6 — a convenience for exercising the router against a
// real master, grounded on the teacher's Remote.Dial/conn.Dial TCP
// keep-alive setup. Not a substitute for the general connection
// abstraction spec.md §1 marks out of scope.
type tcpConn struct {
	nc net.Conn
}

// DialMaster opens a plain TCP connection to a MySQL master. The
// caller is responsible for everything spec.md §1 marks out of scope:
// the initial handshake and authentication. Once those complete
// out-of-core, the resulting Conn is handed to a RouterInstance, whose
// state machine begins at StateAuthenticated.
func DialMaster(network, address string) (Conn, error) {
	nc, err := net.Dial(network, address)
	if err != nil {
		return nil, errors.Annotate(err, "dial master")
	}
	if tc, ok := nc.(*net.TCPConn); ok {
		if err := tc.SetKeepAlive(true); err != nil {
			_ = nc.Close()
			return nil, errors.Annotate(err, "enable keepalive")
		}
	}
	return &tcpConn{nc: nc}, nil
}

func (c *tcpConn) Write(buf []byte) error {
	_, err := c.nc.Write(buf)
	if err != nil {
		return errors.Annotate(err, "write to master")
	}
	return nil
}

func (c *tcpConn) Close() error {
	return c.nc.Close()
}
