package binlogrouter

import "testing"

// TestFanOutGating is scenario 4 of spec.md §8.
func TestFanOutGating(t *testing.T) {
	ri := NewRouterInstance(Config{ServerID: 1, UUID: "u", File: &fakeFile{}})
	ri.MasterState = StateBinlogDump

	s1conn := &fakeConn{}
	s2conn := &fakeConn{}
	s1 := &SlaveEntry{Conn: s1conn, BinlogPos: 1000}
	s2 := &SlaveEntry{Conn: s2conn, BinlogPos: 999}
	ri.AddSlave(s1)
	ri.AddSlave(s2)

	pkt := buildEventPacket(0, 0, ReplicationHeader{
		EventType: 2,
		EventSize: 50,
		NextPos:   1050,
	}, nil)
	if err := ri.Feed(pkt); err != nil {
		t.Fatal(err)
	}

	if len(s1conn.writes) != 1 {
		t.Fatalf("s1 should receive exactly 1 packet, got %d", len(s1conn.writes))
	}
	if len(s2conn.writes) != 0 {
		t.Fatalf("s2 should receive no packets, got %d", len(s2conn.writes))
	}
	if s1.BinlogPos != 1050 {
		t.Fatalf("s1.BinlogPos = %d, want 1050", s1.BinlogPos)
	}
	if s2.BinlogPos != 999 {
		t.Fatalf("s2.BinlogPos = %d, want unchanged 999", s2.BinlogPos)
	}
}

// TestFanOutSeqnoIncreasesModulo256 is the invariant from spec.md §8:
// a slave's observed sequence ids form a strictly increasing
// modulo-256 run with step 1.
func TestFanOutSeqnoIncreasesModulo256(t *testing.T) {
	ri := NewRouterInstance(Config{ServerID: 1, UUID: "u", File: &fakeFile{}})
	ri.MasterState = StateBinlogDump

	sc := &fakeConn{}
	s := &SlaveEntry{Conn: sc, BinlogPos: 0, Seqno: 250}
	ri.AddSlave(s)

	pos := uint32(0)
	for i := 0; i < 10; i++ {
		pkt := buildEventPacket(0, 0, ReplicationHeader{
			EventType: 2,
			EventSize: 10,
			NextPos:   pos + 10,
		}, nil)
		if err := ri.Feed(pkt); err != nil {
			t.Fatal(err)
		}
		pos += 10
	}

	if len(sc.writes) != 10 {
		t.Fatalf("got %d packets, want 10", len(sc.writes))
	}
	want := byte(250)
	for i, w := range sc.writes {
		got := PacketSeq(w)
		if got != want {
			t.Fatalf("packet %d seqno = %d, want %d", i, got, want)
		}
		want++
	}
}
