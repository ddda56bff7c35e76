package sniffer

import (
	"bytes"
	"testing"

	"github.com/user/blesniffer/advdata"
)

func TestParseSerialLineRoundTrip(t *testing.T) {
	rec := CaptureRecord{
		Addr:      [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		RSSI:      -62,
		Channel:   38,
		Timestamp: 104523,
		Payload:   []byte{0x02, 0x01, 0x06, 0x03, 0x09, 0x41, 0x42},
	}
	rec.Fields = advdata.Decode(rec.Payload)

	obs, err := ParseSerialLine(rec.SerialLine())
	if err != nil {
		t.Fatalf("ParseSerialLine(%q) failed: %v", rec.SerialLine(), err)
	}
	if obs.Addr.String() != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("parsed address = %s, want aa:bb:cc:dd:ee:ff", obs.Addr)
	}
	if obs.RSSI != -62 {
		t.Errorf("parsed RSSI = %d, want -62", obs.RSSI)
	}
	if obs.Channel != 38 {
		t.Errorf("parsed channel = %d, want 38", obs.Channel)
	}
	if obs.Timestamp != 104523 {
		t.Errorf("parsed timestamp = %d, want 104523", obs.Timestamp)
	}
	if !bytes.Equal(obs.Payload, rec.Payload) {
		t.Errorf("parsed payload = %x, want %x", obs.Payload, rec.Payload)
	}
}

func TestParseSerialLineDefaultsKinds(t *testing.T) {
	obs, err := ParseSerialLine("aa:bb:cc:dd:ee:ff,-40,37,1000,3,020106,")
	if err != nil {
		t.Fatalf("ParseSerialLine failed: %v", err)
	}
	if obs.AddrKind != AddrPublic {
		t.Errorf("address kind = %v, want public", obs.AddrKind)
	}
	if obs.Kind != AdvInd {
		t.Errorf("broadcast kind = %v, want ADV_IND", obs.Kind)
	}
}

func TestParseSerialLineNameWithComma(t *testing.T) {
	// The name column is last, so a comma inside it must not shift the
	// numeric fields.
	payload, err := advdata.EncodeEntries([]advdata.Entry{
		advdata.NewCompleteNameEntry("Tag, Inc"),
	})
	if err != nil {
		t.Fatalf("EncodeEntries failed: %v", err)
	}
	rec := CaptureRecord{
		Addr:    [6]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66},
		RSSI:    -50,
		Payload: payload,
	}
	rec.Fields = advdata.Decode(payload)

	obs, err := ParseSerialLine(rec.SerialLine())
	if err != nil {
		t.Fatalf("ParseSerialLine(%q) failed: %v", rec.SerialLine(), err)
	}
	if !bytes.Equal(obs.Payload, payload) {
		t.Errorf("parsed payload = %x, want %x", obs.Payload, payload)
	}
	if got := advdata.Decode(obs.Payload).Name; got != "Tag, Inc" {
		t.Errorf("re-decoded name = %q, want %q", got, "Tag, Inc")
	}
}

func TestParseSerialLineRejectsMalformed(t *testing.T) {
	lines := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"status line", "Total=120 Rate=12/s Overflow=0 Buffer=3/200"},
		{"too few fields", "aa:bb:cc:dd:ee:ff,-40,37,1000,3,020106"},
		{"bad address", "zz:bb:cc:dd:ee:ff,-40,37,1000,3,020106,"},
		{"eui-64 address", "aa:bb:cc:dd:ee:ff:00:11,-40,37,1000,3,020106,"},
		{"bad rssi", "aa:bb:cc:dd:ee:ff,loud,37,1000,3,020106,"},
		{"rssi out of range", "aa:bb:cc:dd:ee:ff,-300,37,1000,3,020106,"},
		{"bad channel", "aa:bb:cc:dd:ee:ff,-40,ch37,1000,3,020106,"},
		{"bad timestamp", "aa:bb:cc:dd:ee:ff,-40,37,-5,3,020106,"},
		{"bad length", "aa:bb:cc:dd:ee:ff,-40,37,1000,three,020106,"},
		{"odd hex", "aa:bb:cc:dd:ee:ff,-40,37,1000,3,02010,"},
		{"length mismatch", "aa:bb:cc:dd:ee:ff,-40,37,1000,5,020106,"},
	}
	for _, tc := range lines {
		if _, err := ParseSerialLine(tc.line); err == nil {
			t.Errorf("%s: ParseSerialLine(%q) accepted, want error", tc.name, tc.line)
		}
	}
}
