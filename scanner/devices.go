package scanner

import (
	"fmt"
	"math/rand"
	"net"

	"github.com/google/uuid"

	"github.com/user/blesniffer/advdata"
	"github.com/user/blesniffer/sniffer"
)

// simDevice is one simulated broadcaster. Identity is a hardware UUID;
// the over-the-air address is derived from its last six bytes so the
// device keeps a stable MAC across emissions.
type simDevice struct {
	id         uuid.UUID
	addr       net.HardwareAddr
	addrKind   sniffer.AddrKind
	name       string
	kind       sniffer.BroadcastKind
	advPayload []byte // pre-encoded advertising payload
	rspPayload []byte // scan response payload, nil when not scannable
	baseRSSI   int8
}

// scannable reports whether the device answers active scan requests.
func (d *simDevice) scannable() bool {
	return d.rspPayload != nil &&
		(d.kind == sniffer.AdvInd || d.kind == sniffer.AdvScanInd)
}

// newSimDevice builds the n-th device from a fixed set of profiles
// modeled on gear commonly seen over the air: fitness bands, proximity
// beacons, trackers, HID peripherals and environmental sensors. The
// identity comes from the seeded source so a fixed seed reproduces the
// same devices.
func newSimDevice(n int, rng *rand.Rand) (*simDevice, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return nil, fmt.Errorf("device identity: %w", err)
	}

	d := &simDevice{
		id:       id,
		baseRSSI: int8(-40 - rng.Intn(45)),
	}

	switch n % 5 {
	case 0: // fitness band, answers scans with its Tx power
		d.name = fmt.Sprintf("PulseBand-%d", n)
		d.kind = sniffer.AdvInd
		d.addrKind = sniffer.AddrRandom
		adv := []advdata.Entry{
			advdata.NewFlagsEntry(advdata.FlagLEGeneralDiscoverableMode | advdata.FlagBREDRNotSupported),
			advdata.NewCompleteNameEntry(d.name),
			advdata.NewServices16Entry([]uint16{0x180D, 0x180F}),
		}
		rsp := []advdata.Entry{
			advdata.NewTxPowerEntry(-8),
			advdata.NewManufacturerEntry(0x0157, []byte{0x01, byte(n)}),
		}
		if err := d.encode(adv, rsp); err != nil {
			return nil, err
		}

	case 1: // proximity beacon, nameless, manufacturer frame only
		d.kind = sniffer.AdvNonconnInd
		d.addrKind = sniffer.AddrRandom
		beacon := make([]byte, 0, 23)
		beacon = append(beacon, 0x02, 0x15)
		beacon = append(beacon, id[:]...)
		beacon = append(beacon, byte(n>>8), byte(n), 0x00, 0x01, 0xC5)
		adv := []advdata.Entry{
			advdata.NewFlagsEntry(advdata.FlagBREDRNotSupported),
			advdata.NewManufacturerEntry(0x004C, beacon),
		}
		if err := d.encode(adv, nil); err != nil {
			return nil, err
		}

	case 2: // item tracker
		d.name = fmt.Sprintf("Tag-%d", n)
		d.kind = sniffer.AdvInd
		d.addrKind = sniffer.AddrPublic
		adv := []advdata.Entry{
			advdata.NewFlagsEntry(advdata.FlagLEGeneralDiscoverableMode),
			advdata.NewShortNameEntry(d.name),
			advdata.NewServices16Entry([]uint16{0x1802, 0x1803}),
			advdata.NewManufacturerEntry(0x0075, []byte{0x42, byte(n)}),
		}
		if err := d.encode(adv, nil); err != nil {
			return nil, err
		}

	case 3: // HID keyboard
		d.name = fmt.Sprintf("BLE Keyboard %d", n)
		d.kind = sniffer.AdvInd
		d.addrKind = sniffer.AddrRandom
		adv := []advdata.Entry{
			advdata.NewFlagsEntry(advdata.FlagLELimitedDiscoverableMode | advdata.FlagBREDRNotSupported),
			advdata.NewAppearanceEntry(0x03C1),
			advdata.NewServices16Entry([]uint16{0x1812, 0x180F}),
		}
		rsp := []advdata.Entry{
			advdata.NewCompleteNameEntry(d.name),
		}
		if err := d.encode(adv, rsp); err != nil {
			return nil, err
		}

	default: // environmental sensor, name only in the scan response
		d.name = fmt.Sprintf("EnvSense-%d", n)
		d.kind = sniffer.AdvScanInd
		d.addrKind = sniffer.AddrRandom
		adv := []advdata.Entry{
			advdata.NewFlagsEntry(advdata.FlagBREDRNotSupported),
			advdata.NewServices16Entry([]uint16{0x181A}),
			advdata.NewTxPowerEntry(-4),
		}
		rsp := []advdata.Entry{
			advdata.NewCompleteNameEntry(d.name),
			advdata.NewAppearanceEntry(0x0300),
		}
		if err := d.encode(adv, rsp); err != nil {
			return nil, err
		}
	}

	d.addr = deriveAddr(id, d.addrKind)
	return d, nil
}

func (d *simDevice) encode(adv, rsp []advdata.Entry) error {
	payload, err := advdata.EncodeEntries(adv)
	if err != nil {
		return fmt.Errorf("advertising payload for %s: %w", d.name, err)
	}
	d.advPayload = payload

	if rsp != nil {
		payload, err := advdata.EncodeEntries(rsp)
		if err != nil {
			return fmt.Errorf("scan response payload for %s: %w", d.name, err)
		}
		d.rspPayload = payload
	}
	return nil
}

// deriveAddr maps a hardware UUID onto a stable MAC. Static random
// addresses carry the two top bits of the first byte set; public ones
// get the multicast bit cleared so they stay plausible unicast MACs.
func deriveAddr(id uuid.UUID, kind sniffer.AddrKind) net.HardwareAddr {
	addr := make(net.HardwareAddr, 6)
	copy(addr, id[10:16])
	if kind == sniffer.AddrRandom {
		addr[0] |= 0xC0
	} else {
		addr[0] &^= 0x01
	}
	return addr
}
