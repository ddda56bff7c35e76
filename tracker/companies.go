package tracker

import (
	"fmt"
	"strings"
)

// Bluetooth SIG company identifiers, the subset the capture tooling has
// actually encountered in the field.
var companyIDs = map[uint16]string{
	0x0006: "Microsoft",
	0x004C: "Apple",
	0x0075: "Samsung",
	0x0087: "Garmin",
	0x00D2: "Google",
	0x00E0: "Google",
	0x0157: "Polar",
	0x01D2: "Xiaomi",
	0x0310: "Amazfit",
	0x038F: "Xiaomi",
	0x0822: "adidas",
	0x09A8: "Shenzhen",
}

// 16-bit service identifiers (Bluetooth SIG assigned numbers).
var serviceIDs = map[uint16]string{
	0x1800: "Generic Access",
	0x1801: "Generic Attribute",
	0x1802: "Immediate Alert",
	0x1803: "Link Loss",
	0x1804: "Tx Power",
	0x1805: "Current Time",
	0x1806: "Reference Time Update",
	0x1807: "Next DST Change",
	0x1808: "Glucose",
	0x1809: "Health Thermometer",
	0x180A: "Device Information",
	0x180D: "Heart Rate",
	0x180E: "Phone Alert Status",
	0x180F: "Battery",
	0x1810: "Blood Pressure",
	0x1811: "Alert Notification",
	0x1812: "Human Interface Device",
	0x1813: "Scan Parameters",
	0x1814: "Running Speed and Cadence",
	0x1815: "Automation IO",
	0x1816: "Cycling Speed and Cadence",
	0x1818: "Cycling Power",
	0x1819: "Location and Navigation",
	0x181A: "Environmental Sensing",
	0x181B: "Body Composition",
	0x181C: "User Data",
	0x181D: "Weight Scale",
	0x181E: "Bond Management",
	0x181F: "Continuous Glucose Monitoring",
	0x1820: "Internet Protocol Support",
	0x1821: "Indoor Positioning",
	0x1822: "Pulse Oximeter",
	0x1823: "HTTP Proxy",
	0x1824: "Transport Discovery",
	0x1825: "Object Transfer",
	0x1826: "Fitness Machine",
	0x1827: "Mesh Provisioning",
	0x1828: "Mesh Proxy",
	0xFD6F: "Apple Exposure Notification",
	0xFE9F: "Google",
	0xFEAA: "Google Eddystone",
}

// Appearance values (Bluetooth SIG assigned numbers).
var appearances = map[uint16]string{
	0x0000: "Unknown",
	0x0040: "Generic Phone",
	0x0080: "Generic Computer",
	0x00C0: "Generic Watch",
	0x00C1: "Sports Watch",
	0x0100: "Generic Clock",
	0x0140: "Generic Display",
	0x0180: "Generic Remote Control",
	0x01C0: "Generic Eye-glasses",
	0x0200: "Generic Tag",
	0x0240: "Generic Keyring",
	0x0280: "Generic Media Player",
	0x02C0: "Generic Barcode Scanner",
	0x0300: "Generic Thermometer",
	0x0340: "Generic Heart Rate Sensor",
	0x0380: "Generic Blood Pressure",
	0x03C0: "Generic HID",
	0x03C1: "Keyboard",
	0x03C2: "Mouse",
	0x03C3: "Joystick",
	0x03C4: "Gamepad",
	0x0440: "Generic Glucose Meter",
	0x0480: "Generic Running/Walking Sensor",
	0x04C0: "Generic Cycling",
	0x0540: "Generic Pulse Oximeter",
	0x0580: "Generic Weight Scale",
	0x05C0: "Generic Outdoor Sports",
}

// IEEE OUI prefixes (first three address octets) to vendor, same
// field-observed slice as the company table.
var ouiPrefixes = map[string]string{
	"28:CF:DA": "Apple",
	"8C:85:90": "Apple",
	"AC:BC:32": "Apple",
	"F0:B4:79": "Apple",
	"50:01:BB": "Samsung",
	"8C:77:12": "Samsung",
	"BC:20:A4": "Samsung",
	"3C:5A:B4": "Google",
	"F4:F5:D8": "Google",
	"00:15:5D": "Microsoft",
	"28:18:78": "Microsoft",
	"44:65:0D": "Amazon",
	"FC:65:DE": "Amazon",
	"64:09:80": "Xiaomi",
	"7C:1C:4E": "Xiaomi",
	"24:0A:C4": "Espressif",
	"30:AE:A4": "Espressif",
	"5C:CF:7F": "Espressif",
	"C0:A5:E3": "Nordic",
	"F0:5C:D5": "Nordic",
	"18:B9:05": "Bouffalo Lab",
	"98:7B:F3": "Texas Instruments",
	"D0:39:72": "Texas Instruments",
	"C0:D0:12": "Fitbit",
	"E4:F0:42": "Tile",
}

// CompanyName resolves a manufacturer company ID, "Unknown" when the ID
// is not in the table.
func CompanyName(id uint16) string {
	if name, ok := companyIDs[id]; ok {
		return name
	}
	return "Unknown"
}

// ServiceName resolves a 16-bit service ID to its assigned name, or the
// hex form for IDs not in the table.
func ServiceName(id uint16) string {
	if name, ok := serviceIDs[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", id)
}

// AppearanceName resolves an appearance code to its assigned name, or the
// hex form for codes not in the table.
func AppearanceName(code uint16) string {
	if name, ok := appearances[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", code)
}

// ManufacturerName resolves the vendor behind an address's OUI prefix,
// "Unknown" when the prefix is unlisted. Random addresses carry no real
// OUI, so they typically miss.
func ManufacturerName(mac string) string {
	if len(mac) < 8 {
		return "Unknown"
	}
	if name, ok := ouiPrefixes[strings.ToUpper(mac[:8])]; ok {
		return name
	}
	return "Unknown"
}
