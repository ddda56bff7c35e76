package advdata

import (
	"encoding/binary"
	"fmt"
)

// AD Types (Advertising Data Types) - EIR/AD format
const (
	TypeFlags                   = 0x01 // Flags
	TypeIncomplete16BitServices = 0x02 // Incomplete List of 16-bit Service UUIDs
	TypeComplete16BitServices   = 0x03 // Complete List of 16-bit Service UUIDs
	TypeIncomplete32BitServices = 0x04 // Incomplete List of 32-bit Service UUIDs
	TypeComplete32BitServices   = 0x05 // Complete List of 32-bit Service UUIDs
	TypeShortenedLocalName      = 0x08 // Shortened Local Name
	TypeCompleteLocalName       = 0x09 // Complete Local Name
	TypeTxPowerLevel            = 0x0A // Tx Power Level
	TypeClassOfDevice           = 0x0D // Class of Device
	TypeServiceData16Bit        = 0x16 // Service Data - 16-bit UUID
	TypeAppearance              = 0x19 // Appearance
	TypeAdvertisingInterval     = 0x1A // Advertising Interval
	TypeManufacturerData        = 0xFF // Manufacturer Specific Data
)

// Advertising Flags (used in TypeFlags)
const (
	FlagLELimitedDiscoverableMode = 0x01 // LE Limited Discoverable Mode
	FlagLEGeneralDiscoverableMode = 0x02 // LE General Discoverable Mode
	FlagBREDRNotSupported         = 0x04 // BR/EDR Not Supported
)

// Entry represents a single TLV (Type-Length-Value) structure in advertising data
// Format: [Length: 1 byte] [Type: 1 byte] [Value: N bytes]
// Note: Length counts the Type byte plus the Value bytes, not itself
type Entry struct {
	Type  byte   // AD Type (flags, service UUIDs, etc.)
	Value []byte // AD Value
}

// EncodeEntries encodes multiple AD entries into a single advertising payload
func EncodeEntries(entries []Entry) ([]byte, error) {
	var buf []byte

	for _, e := range entries {
		// Length = 1 (type byte) + len(value)
		length := 1 + len(e.Value)
		if length > 255 {
			return nil, fmt.Errorf("AD entry too long: %d bytes (max 255)", length)
		}

		buf = append(buf, byte(length))
		buf = append(buf, e.Type)
		buf = append(buf, e.Value...)
	}

	if len(buf) > MaxPayloadLen {
		return nil, fmt.Errorf("total advertising payload exceeds %d bytes: %d", MaxPayloadLen, len(buf))
	}

	return buf, nil
}

// Helper constructors for common AD entries

// NewFlagsEntry creates a flags AD entry
func NewFlagsEntry(flags byte) Entry {
	return Entry{
		Type:  TypeFlags,
		Value: []byte{flags},
	}
}

// NewCompleteNameEntry creates a complete local name AD entry
func NewCompleteNameEntry(name string) Entry {
	return Entry{
		Type:  TypeCompleteLocalName,
		Value: []byte(name),
	}
}

// NewShortNameEntry creates a shortened local name AD entry
func NewShortNameEntry(name string) Entry {
	return Entry{
		Type:  TypeShortenedLocalName,
		Value: []byte(name),
	}
}

// NewTxPowerEntry creates a Tx power level AD entry
func NewTxPowerEntry(powerLevel int8) Entry {
	return Entry{
		Type:  TypeTxPowerLevel,
		Value: []byte{byte(powerLevel)},
	}
}

// NewAppearanceEntry creates an appearance AD entry
func NewAppearanceEntry(appearance uint16) Entry {
	value := make([]byte, 2)
	binary.LittleEndian.PutUint16(value, appearance)
	return Entry{
		Type:  TypeAppearance,
		Value: value,
	}
}

// NewServices16Entry creates a complete 16-bit service UUIDs AD entry
func NewServices16Entry(ids []uint16) Entry {
	value := make([]byte, len(ids)*2)
	for i, id := range ids {
		binary.LittleEndian.PutUint16(value[i*2:], id)
	}
	return Entry{
		Type:  TypeComplete16BitServices,
		Value: value,
	}
}

// NewManufacturerEntry creates a manufacturer-specific data AD entry
func NewManufacturerEntry(companyID uint16, data []byte) Entry {
	value := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(value[0:2], companyID)
	copy(value[2:], data)
	return Entry{
		Type:  TypeManufacturerData,
		Value: value,
	}
}

// TypeName returns a human-readable name for an AD type
func TypeName(adType byte) string {
	switch adType {
	case TypeFlags:
		return "Flags"
	case TypeIncomplete16BitServices:
		return "Incomplete 16-bit Service UUIDs"
	case TypeComplete16BitServices:
		return "Complete 16-bit Service UUIDs"
	case TypeShortenedLocalName:
		return "Shortened Local Name"
	case TypeCompleteLocalName:
		return "Complete Local Name"
	case TypeTxPowerLevel:
		return "Tx Power Level"
	case TypeAppearance:
		return "Appearance"
	case TypeManufacturerData:
		return "Manufacturer Specific Data"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", adType)
	}
}
