package binlogrouter

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestUint24RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0xff, 0xffff, 0xabcdef, 1<<24 - 1}
	for _, v := range cases {
		buf := make([]byte, 3)
		PutUint24(buf, v)
		if got := Uint24(buf); got != v {
			t.Errorf("Uint24(PutUint24(%#x)) = %#x", v, got)
		}
	}
}

func TestEncodeUintWidthsAreInverses(t *testing.T) {
	// widths 8/16/32 delegate to encoding/binary; exercised here to
	// document the contract codec.go relies on alongside PutUint24.
	b8 := []byte{0x42}
	if b8[0] != 0x42 {
		t.Fatal("sanity")
	}

	var b16 [2]byte
	binary.LittleEndian.PutUint16(b16[:], 0xbeef)
	if binary.LittleEndian.Uint16(b16[:]) != 0xbeef {
		t.Fatal("uint16 round trip")
	}

	var b32 [4]byte
	binary.LittleEndian.PutUint32(b32[:], 0xdeadbeef)
	if binary.LittleEndian.Uint32(b32[:]) != 0xdeadbeef {
		t.Fatal("uint32 round trip")
	}
}

func TestEncodeQuery(t *testing.T) {
	pkt := EncodeQuery("SELECT UNIX_TIMESTAMP()")
	wantLen := 1 + len("SELECT UNIX_TIMESTAMP()")
	if got := Uint24(pkt[0:3]); got != uint32(wantLen) {
		t.Fatalf("payload length = %d, want %d", got, wantLen)
	}
	if pkt[3] != 0 {
		t.Fatalf("seq = %d, want 0", pkt[3])
	}
	if pkt[4] != comQuery {
		t.Fatalf("command byte = %#x, want COM_QUERY", pkt[4])
	}
	if !bytes.Equal(pkt[5:], []byte("SELECT UNIX_TIMESTAMP()")) {
		t.Fatalf("query text = %q", pkt[5:])
	}
}

func TestEncodeRegisterSlave(t *testing.T) {
	pkt := EncodeRegisterSlave(101, 1, 0)
	if got := Uint24(pkt[0:3]); got != 18 {
		t.Fatalf("payload length = %d, want 18", got)
	}
	if pkt[4] != comRegisterSlave {
		t.Fatalf("command byte = %#x, want COM_REGISTER_SLAVE", pkt[4])
	}
	if got := binary.LittleEndian.Uint32(pkt[5:9]); got != 101 {
		t.Fatalf("server_id = %d, want 101", got)
	}
	if got := binary.LittleEndian.Uint32(pkt[18:22]); got != 1 {
		t.Fatalf("master_id = %d, want 1", got)
	}
}

func TestEncodeBinlogDump(t *testing.T) {
	pkt := EncodeBinlogDump(4, 101, "mysql-bin.000001")
	wantPayload := 1 + 4 + 2 + 4 + BinlogFnameLen
	if got := Uint24(pkt[0:3]); got != uint32(wantPayload) {
		t.Fatalf("payload length = %d, want %d", got, wantPayload)
	}
	if pkt[4] != comBinlogDump {
		t.Fatalf("command byte = %#x, want COM_BINLOG_DUMP", pkt[4])
	}
	if got := binary.LittleEndian.Uint32(pkt[5:9]); got != 4 {
		t.Fatalf("position = %d, want 4", got)
	}
	name := pkt[15 : 15+BinlogFnameLen]
	if !bytes.HasPrefix(name, []byte("mysql-bin.000001")) {
		t.Fatalf("binlog name = %q", name)
	}
	for _, b := range name[len("mysql-bin.000001"):] {
		if b != 0 {
			t.Fatalf("expected null padding, got %v", name)
		}
	}
}
