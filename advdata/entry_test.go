package advdata

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeEntriesWireFormat(t *testing.T) {
	payload, err := EncodeEntries([]Entry{
		NewFlagsEntry(0x06),
		NewCompleteNameEntry("AB"),
	})
	if err != nil {
		t.Fatalf("EncodeEntries failed: %v", err)
	}

	expected := []byte{0x02, 0x01, 0x06, 0x03, 0x09, 0x41, 0x42}
	if !bytes.Equal(payload, expected) {
		t.Errorf("Wire format mismatch:\nexpected % X\ngot      % X", expected, payload)
	}
}

func TestEncodeEntriesEmpty(t *testing.T) {
	payload, err := EncodeEntries(nil)
	if err != nil {
		t.Fatalf("EncodeEntries failed: %v", err)
	}
	if len(payload) != 0 {
		t.Errorf("Expected empty payload, got % X", payload)
	}
}

func TestEncodeEntriesValueTooLong(t *testing.T) {
	// Value of 255 bytes needs a length byte of 256
	_, err := EncodeEntries([]Entry{{Type: TypeManufacturerData, Value: make([]byte, 255)}})
	if err == nil {
		t.Error("Expected error for oversized entry value")
	}
}

func TestEncodeEntriesPayloadTooLong(t *testing.T) {
	entries := []Entry{
		{Type: TypeManufacturerData, Value: make([]byte, 130)},
		{Type: TypeServiceData16Bit, Value: make([]byte, 130)},
	}
	_, err := EncodeEntries(entries)
	if err == nil {
		t.Errorf("Expected error for payload over %d bytes", MaxPayloadLen)
	}
}

func TestNewAppearanceEntryLittleEndian(t *testing.T) {
	e := NewAppearanceEntry(0x03C1)
	if e.Type != TypeAppearance {
		t.Errorf("Expected type 0x%02X, got 0x%02X", TypeAppearance, e.Type)
	}
	if !bytes.Equal(e.Value, []byte{0xC1, 0x03}) {
		t.Errorf("Expected little-endian value, got % X", e.Value)
	}
}

func TestNewServices16EntryLittleEndian(t *testing.T) {
	e := NewServices16Entry([]uint16{0x180A, 0x180F})
	if e.Type != TypeComplete16BitServices {
		t.Errorf("Expected type 0x%02X, got 0x%02X", TypeComplete16BitServices, e.Type)
	}
	if !bytes.Equal(e.Value, []byte{0x0A, 0x18, 0x0F, 0x18}) {
		t.Errorf("Expected little-endian IDs, got % X", e.Value)
	}
}

func TestNewManufacturerEntryPrependsCompanyID(t *testing.T) {
	e := NewManufacturerEntry(0x004C, []byte{0x02, 0x15})
	if !bytes.Equal(e.Value, []byte{0x4C, 0x00, 0x02, 0x15}) {
		t.Errorf("Expected company ID before payload, got % X", e.Value)
	}
}

func TestNewTxPowerEntryNegative(t *testing.T) {
	e := NewTxPowerEntry(-20)
	if len(e.Value) != 1 {
		t.Fatalf("Expected single-byte value, got % X", e.Value)
	}
	if int8(e.Value[0]) != -20 {
		t.Errorf("Expected -20, got %d", int8(e.Value[0]))
	}
}

func TestTypeName(t *testing.T) {
	if name := TypeName(TypeCompleteLocalName); name != "Complete Local Name" {
		t.Errorf("Unexpected name for 0x09: %q", name)
	}
	if name := TypeName(TypeManufacturerData); name != "Manufacturer Specific Data" {
		t.Errorf("Unexpected name for 0xFF: %q", name)
	}
	if name := TypeName(0x7E); !strings.Contains(name, "0x7E") {
		t.Errorf("Unknown type should include the hex value, got %q", name)
	}
}
