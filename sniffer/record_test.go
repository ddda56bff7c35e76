package sniffer

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestSerialLineFormat(t *testing.T) {
	payload, err := hex.DecodeString("0201061aff4c00")
	if err != nil {
		t.Fatalf("hex decode failed: %v", err)
	}

	rec := CaptureRecord{
		Addr:      [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		RSSI:      -62,
		Channel:   37,
		Timestamp: 104523,
		Payload:   payload,
	}
	rec.Fields.Name = "MyTag"

	want := "aa:bb:cc:dd:ee:ff,-62,37,104523,7,0201061aff4c00,MyTag"
	if got := rec.SerialLine(); got != want {
		t.Errorf("Serial line mismatch:\nexpected %s\ngot      %s", want, got)
	}
}

func TestSerialLineAbsentName(t *testing.T) {
	rec := CaptureRecord{
		Addr:      [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		RSSI:      -80,
		Channel:   39,
		Timestamp: 1,
		Payload:   []byte{0x02, 0x01, 0x06},
	}

	line := rec.SerialLine()
	if !strings.HasSuffix(line, ",") {
		t.Errorf("Absent name leaves the final column empty, got %q", line)
	}
	if strings.Count(line, ",") != 6 {
		t.Errorf("Expected 7 columns, got %q", line)
	}
}

func TestMACFormatting(t *testing.T) {
	rec := CaptureRecord{Addr: [6]byte{0x01, 0x02, 0x03, 0x0A, 0x0B, 0x0C}}
	if got := rec.MAC(); got != "01:02:03:0a:0b:0c" {
		t.Errorf("Expected lowercase colon-separated MAC, got %s", got)
	}
}

func TestBroadcastKindString(t *testing.T) {
	tests := []struct {
		kind BroadcastKind
		want string
	}{
		{AdvInd, "ADV_IND"},
		{AdvDirectInd, "ADV_DIRECT_IND"},
		{AdvScanInd, "ADV_SCAN_IND"},
		{AdvNonconnInd, "ADV_NONCONN_IND"},
		{ScanRsp, "SCAN_RSP"},
		{BroadcastKind(0x09), "UNKNOWN(0x09)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind 0x%02X: expected %s, got %s", uint8(tt.kind), tt.want, got)
		}
	}
}

func TestAddrKindString(t *testing.T) {
	if AddrPublic.String() != "public" {
		t.Errorf("Expected 'public', got %s", AddrPublic.String())
	}
	if AddrRandom.String() != "random" {
		t.Errorf("Expected 'random', got %s", AddrRandom.String())
	}
}
