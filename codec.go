package binlogrouter

import "encoding/binary"

// MySQL command bytes used by the master state machine.
const (
	comQuery         byte = 0x03
	comRegisterSlave byte = 0x15
	comBinlogDump    byte = 0x12
)

// BinlogFnameLen is the fixed, null-padded width of a binlog filename
// field in the COM_BINLOG_DUMP request, per spec.md §6.
const BinlogFnameLen = 40

// PutUint24 writes the low 24 bits of v into dst (little-endian),
// mirroring encoding/binary's PutUint16/PutUint32 for the one width
// MySQL's wire protocol uses that the standard library doesn't.
func PutUint24(dst []byte, v uint32) {
	_ = dst[2]
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}

// Uint24 is the inverse of PutUint24.
func Uint24(src []byte) uint32 {
	_ = src[2]
	return uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
}

// header writes the 4-byte MySQL packet header (3-byte payload length,
// 1-byte sequence id) in front of payload.
func header(payload []byte, seq byte) []byte {
	buf := make([]byte, 4+len(payload))
	PutUint24(buf[0:3], uint32(len(payload)))
	buf[3] = seq
	copy(buf[4:], payload)
	return buf
}

// EncodeQuery builds a COM_QUERY packet for q, sequence id 0, per
// spec.md §4.1.
func EncodeQuery(q string) []byte {
	payload := make([]byte, 1+len(q))
	payload[0] = comQuery
	copy(payload[1:], q)
	return header(payload, 0)
}

// EncodeRegisterSlave builds a COM_REGISTER_SLAVE packet, per spec.md
// §4.1. Hostname, username and password are always empty in the core's
// register flow (the router registers with no credentials of its own
// to report upstream); masterID is written as given. The state machine
// passes RouterInstance.MasterID, which the handshake does not fill in
// (the SERVER_ID response is saved, not parsed), so it is zero unless
// the caller sets it.
func EncodeRegisterSlave(serverID, masterID uint32, port uint16) []byte {
	payload := make([]byte, 18)
	payload[0] = comRegisterSlave
	binary.LittleEndian.PutUint32(payload[1:5], serverID)
	payload[5] = 0 // hostname_len
	payload[6] = 0 // user_len
	payload[7] = 0 // pass_len
	binary.LittleEndian.PutUint16(payload[8:10], port)
	binary.LittleEndian.PutUint32(payload[10:14], 0) // rank
	binary.LittleEndian.PutUint32(payload[14:18], masterID)
	return header(payload, 0)
}

// EncodeBinlogDump builds a COM_BINLOG_DUMP packet requesting the
// stream starting at (binlogName, position), per spec.md §4.1.
// binlogName is null-padded to BinlogFnameLen bytes.
func EncodeBinlogDump(position uint32, serverID uint32, binlogName string) []byte {
	if len(binlogName) > BinlogFnameLen {
		binlogName = binlogName[:BinlogFnameLen]
	}
	payload := make([]byte, 1+4+2+4+BinlogFnameLen)
	payload[0] = comBinlogDump
	binary.LittleEndian.PutUint32(payload[1:5], position)
	binary.LittleEndian.PutUint16(payload[5:7], 0) // flags
	binary.LittleEndian.PutUint32(payload[7:11], serverID)
	copy(payload[11:], binlogName)
	return header(payload, 0)
}
