package sniffer

import (
	"encoding/hex"
	"fmt"
	"net"

	"github.com/user/blesniffer/advdata"
)

// BroadcastKind is the advertising PDU type of an observed broadcast.
type BroadcastKind uint8

const (
	AdvInd        BroadcastKind = 0x00 // Connectable undirected
	AdvDirectInd  BroadcastKind = 0x01 // Connectable directed
	AdvScanInd    BroadcastKind = 0x02 // Scannable undirected
	AdvNonconnInd BroadcastKind = 0x03 // Non-connectable undirected
	ScanRsp       BroadcastKind = 0x04 // Scan response
)

func (k BroadcastKind) String() string {
	switch k {
	case AdvInd:
		return "ADV_IND"
	case AdvDirectInd:
		return "ADV_DIRECT_IND"
	case AdvScanInd:
		return "ADV_SCAN_IND"
	case AdvNonconnInd:
		return "ADV_NONCONN_IND"
	case ScanRsp:
		return "SCAN_RSP"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(k))
	}
}

// AddrKind distinguishes public from random device addresses.
type AddrKind uint8

const (
	AddrPublic AddrKind = 0x00
	AddrRandom AddrKind = 0x01
)

func (k AddrKind) String() string {
	if k == AddrRandom {
		return "random"
	}
	return "public"
}

// Observation is one broadcast as reported by the scanning subsystem,
// before validation and decoding. This is the canonical ingest shape;
// callers with less information fill defaults (see Pipeline.IngestLegacy).
//
// Channel is untrusted metadata: some scanner revisions synthesize it by
// cycling a counter because the radio does not report the real channel.
// It is preserved as provided, never validated or corrected.
type Observation struct {
	Addr      net.HardwareAddr // 6 bytes, nil means absent
	AddrKind  AddrKind
	RSSI      int8 // dBm
	Channel   uint8
	Timestamp uint32 // milliseconds, wraps at the platform tick width
	Kind      BroadcastKind
	Payload   []byte
}

// CaptureRecord is one fully decoded broadcast. Records are built by the
// ingest pipeline and must be treated as read-only once constructed: the
// payload is the record's own copy and the decoded fields reference no
// caller memory.
type CaptureRecord struct {
	Addr      [6]byte
	AddrKind  AddrKind
	RSSI      int8
	Channel   uint8
	Timestamp uint32
	Kind      BroadcastKind
	Payload   []byte
	Fields    advdata.Fields
}

// MAC returns the source address as lowercase colon-separated hex.
func (r *CaptureRecord) MAC() string {
	return net.HardwareAddr(r.Addr[:]).String()
}

// SerialLine renders the canonical serialized form, without a line
// terminator:
//
//	mac,rssi,channel,timestamp,len,payloadhex,name
//
// Example: aa:bb:cc:dd:ee:ff,-62,37,104523,7,0201061aff4c00,MyTag
//
// The name is the last column so a comma inside it cannot shift the
// numeric fields. Reduced historical forms (no name, no channel) are
// projections of this line, not separate formats.
func (r *CaptureRecord) SerialLine() string {
	return fmt.Sprintf("%s,%d,%d,%d,%d,%s,%s",
		r.MAC(), r.RSSI, r.Channel, r.Timestamp,
		len(r.Payload), hex.EncodeToString(r.Payload), r.Fields.Name)
}
