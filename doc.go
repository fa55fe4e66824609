/*
Package binlogrouter implements a MySQL binlog replication router.

A router maintains a single replication connection to an upstream
master and fans each binlog event out to many downstream replica
connections, so that one physical connection to the master can support
many logical replicas.

Typical use:

	ri := binlogrouter.NewRouterInstance(binlogrouter.Config{
		ServerID: 7001,
		UUID:     "b7e9c5aa-0000-0000-0000-000000000001",
		File:     file,
	})
	binlogrouter.DefaultRegistry.Register(ri)

	// session layer delivers upstream bytes as they arrive
	if err := ri.Feed(buf); err != nil {
		return err
	}

	// elsewhere, when a downstream replica finishes registering
	ri.AddSlave(&binlogrouter.SlaveEntry{Conn: slaveConn, BinlogPos: pos})

this package does not perform the master's handshake/auth phase itself
— the connection handed to RouterInstance is assumed already
authenticated and past the initial MySQL handshake (see Conn). The
state machine in master.go starts at StateAuthenticated and drives the
session-variable negotiation, slave registration, and binlog dump
request.
*/
package binlogrouter
