package binlogrouter

// distribute walks the slave list under the instance lock and, for each
// slave whose binlog_pos matches hdr.next_pos - hdr.event_size,
// synthesizes a framed event packet and hands it to that slave's
// connection, per spec.md §4.7.
//
// Grounded on Vivino/bocadillo's reader/slave/slave_conn.go — the
// pack's only example of code that issues REGISTER_SLAVE/BINLOG_DUMP,
// its framing run in reverse to originate rather than request a
// streamed event.
func (ri *RouterInstance) distribute(hdr ReplicationHeader, body []byte) {
	expected := hdr.NextPos - hdr.EventSize

	ri.mu.Lock()
	defer ri.mu.Unlock()

	for _, s := range ri.Slaves {
		if s.BinlogPos != uint64(expected) {
			continue
		}

		pkt := make([]byte, eventBodyOffset+len(body))
		PutUint24(pkt[0:3], uint32(len(body)+1))
		pkt[3] = s.Seqno
		s.Seqno++
		pkt[4] = 0 // OK
		copy(pkt[eventBodyOffset:], body)

		_ = s.Conn.Write(pkt) // opaque per spec.md §6; fan-out does not retry
		s.BinlogPos = uint64(hdr.NextPos)

		if hdr.EventType == RotateEvent {
			s.Conn.RotateHook(body)
		}
	}
}
