package advdata

import "encoding/binary"

const (
	MaxPayloadLen   = 255 // Advertising payload limit (HCI length field is one byte)
	NameCap         = 31  // Device name is truncated to this many bytes
	ManufacturerCap = 64  // Manufacturer payload is truncated to this many bytes
	ServiceCap      = 8   // At most this many 16-bit service IDs are kept
)

// TxPowerAbsent is the legacy sentinel for "no Tx power field present".
// New code should check Fields.TxPower for nil instead.
const TxPowerAbsent int8 = -128

// ManufacturerData is the decoded 0xFF entry: company ID plus opaque payload.
type ManufacturerData struct {
	ID   uint16
	Data []byte
}

// Fields holds every recognized field decoded from an advertising payload.
// All fields are optional; absence is a valid and common state. Scalar
// presence is explicit (nil pointer = field not present), the empty string
// stands for an absent name.
type Fields struct {
	Name         string
	Flags        *uint8
	TxPower      *int8
	Appearance   *uint16
	Manufacturer *ManufacturerData
	Services     []uint16
}

// TxPowerOrAbsent returns the Tx power level, or the legacy -128 sentinel
// when the field was not present. Kept for callers that still speak the
// sentinel convention.
func (f Fields) TxPowerOrAbsent() int8 {
	if f.TxPower == nil {
		return TxPowerAbsent
	}
	return *f.TxPower
}

// Decode scans an advertising payload and extracts every recognized field.
//
// The payload is a sequence of length-prefixed entries. A zero length byte
// ends the scan. An entry whose declared length does not fit in the remaining
// payload is a truncation boundary, not an error: the scan stops and whatever
// was decoded before it is kept. Unrecognized entry types are skipped. When
// the same scalar field appears twice the later occurrence wins; 16-bit
// service IDs accumulate across entries up to ServiceCap.
//
// Decode never reads past the payload bounds and never panics, whatever the
// length bytes claim. Output allocation is bounded by the fixed field caps,
// not by the input.
func Decode(payload []byte) Fields {
	var f Fields

	i := 0
	for i < len(payload) {
		l := int(payload[i])
		if l == 0 {
			break
		}
		end := i + 1 + l
		if end > len(payload) {
			// Entry claims more bytes than remain: truncation boundary.
			break
		}

		tag := payload[i+1]
		value := payload[i+2 : end]

		switch tag {
		case TypeFlags:
			if len(value) >= 1 {
				v := value[0]
				f.Flags = &v
			}

		case TypeShortenedLocalName, TypeCompleteLocalName:
			n := len(value)
			if n > NameCap {
				n = NameCap
			}
			f.Name = string(value[:n])

		case TypeTxPowerLevel:
			if len(value) >= 1 {
				v := int8(value[0])
				f.TxPower = &v
			}

		case TypeAppearance:
			if len(value) >= 2 {
				v := binary.LittleEndian.Uint16(value[:2])
				f.Appearance = &v
			}

		case TypeIncomplete16BitServices, TypeComplete16BitServices:
			for j := 0; j+1 < len(value) && len(f.Services) < ServiceCap; j += 2 {
				f.Services = append(f.Services, binary.LittleEndian.Uint16(value[j:j+2]))
			}

		case TypeManufacturerData:
			if len(value) >= 2 {
				data := value[2:]
				if len(data) > ManufacturerCap {
					data = data[:ManufacturerCap]
				}
				// Copy: the caller's payload buffer may be reused.
				cp := make([]byte, len(data))
				copy(cp, data)
				f.Manufacturer = &ManufacturerData{
					ID:   binary.LittleEndian.Uint16(value[:2]),
					Data: cp,
				}
			}
		}

		i = end
	}

	return f
}
