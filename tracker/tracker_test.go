package tracker

import (
	"testing"

	"github.com/user/blesniffer/advdata"
	"github.com/user/blesniffer/sniffer"
)

func mfg(id uint16, data []byte) *advdata.ManufacturerData {
	return &advdata.ManufacturerData{ID: id, Data: data}
}

func testRecord(lastByte byte, rssi int8) sniffer.CaptureRecord {
	rec := sniffer.CaptureRecord{
		RSSI:    rssi,
		Channel: 37,
		Kind:    sniffer.AdvInd,
		Payload: []byte{0x02, 0x01, 0x06},
	}
	rec.Addr = [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, lastByte}
	return rec
}

func TestRegistryTracksNewDevice(t *testing.T) {
	reg := NewRegistry()

	rec := testRecord(0x01, -55)
	rec.AddrKind = sniffer.AddrRandom
	reg.Observe(&rec)

	if reg.Len() != 1 {
		t.Fatalf("Expected 1 device, got %d", reg.Len())
	}

	dev, ok := reg.Lookup("aa:bb:cc:dd:ee:01")
	if !ok {
		t.Fatal("Device not found by MAC")
	}
	if dev.Packets != 1 {
		t.Errorf("Expected 1 packet, got %d", dev.Packets)
	}
	if dev.AddrKind != "random" {
		t.Errorf("Expected random address kind, got %s", dev.AddrKind)
	}
	if dev.RSSI != -55 || dev.RSSIMin != -55 || dev.RSSIMax != -55 || dev.RSSIAvg != -55 {
		t.Errorf("Single-sample stats wrong: %d/%d/%d/%f",
			dev.RSSI, dev.RSSIMin, dev.RSSIMax, dev.RSSIAvg)
	}
	if dev.FirstSeen.IsZero() || dev.LastSeen.Before(dev.FirstSeen) {
		t.Errorf("Timestamps wrong: first=%v last=%v", dev.FirstSeen, dev.LastSeen)
	}
}

func TestRegistryMergesDecodedFields(t *testing.T) {
	reg := NewRegistry()

	first := testRecord(0x01, -60)
	first.Fields.Name = "Tag"
	flags := uint8(0x06)
	first.Fields.Flags = &flags
	reg.Observe(&first)

	// A later broadcast without a name must not erase the known name
	second := testRecord(0x01, -61)
	tx := int8(-8)
	second.Fields.TxPower = &tx
	reg.Observe(&second)

	dev, _ := reg.Lookup("aa:bb:cc:dd:ee:01")
	if dev.Name != "Tag" {
		t.Errorf("Name lost on nameless broadcast: %q", dev.Name)
	}
	if dev.TxPower == nil || *dev.TxPower != -8 {
		t.Errorf("Tx power not merged: %v", dev.TxPower)
	}
	if dev.Flags == nil || *dev.Flags != 0x06 {
		t.Errorf("Flags not retained: %v", dev.Flags)
	}

	// A newer name replaces the old one
	third := testRecord(0x01, -62)
	third.Fields.Name = "Tag Pro"
	reg.Observe(&third)

	dev, _ = reg.Lookup("aa:bb:cc:dd:ee:01")
	if dev.Name != "Tag Pro" {
		t.Errorf("Expected newest name to win, got %q", dev.Name)
	}
	if dev.Packets != 3 {
		t.Errorf("Expected 3 packets, got %d", dev.Packets)
	}
}

func TestRegistryRSSIWindowBounded(t *testing.T) {
	reg := NewRegistry()

	// 50 weak samples, then a full window of strong ones
	for i := 0; i < 50; i++ {
		rec := testRecord(0x01, -90)
		reg.Observe(&rec)
	}
	for i := 0; i < RSSIWindow; i++ {
		rec := testRecord(0x01, -60)
		reg.Observe(&rec)
	}

	dev, _ := reg.Lookup("aa:bb:cc:dd:ee:01")
	if dev.RSSIMin != -60 {
		t.Errorf("Old samples must age out of the window: min %d", dev.RSSIMin)
	}
	if dev.RSSIMax != -60 || dev.RSSIAvg != -60 {
		t.Errorf("Window stats wrong: max %d avg %f", dev.RSSIMax, dev.RSSIAvg)
	}
	if dev.Packets != 150 {
		t.Errorf("Packet count is unwindowed: expected 150, got %d", dev.Packets)
	}
}

func TestRegistrySkipsZeroRSSI(t *testing.T) {
	reg := NewRegistry()

	rec := testRecord(0x01, 0)
	reg.Observe(&rec)

	dev, _ := reg.Lookup("aa:bb:cc:dd:ee:01")
	if dev.Packets != 1 {
		t.Errorf("Zero-RSSI broadcast still counts as a packet, got %d", dev.Packets)
	}
	if dev.RSSIMin != 0 || dev.RSSIMax != 0 || dev.RSSIAvg != 0 {
		t.Errorf("Zero RSSI must not enter the sample window: %d/%d/%f",
			dev.RSSIMin, dev.RSSIMax, dev.RSSIAvg)
	}
}

func TestRegistryServicesDeduplicated(t *testing.T) {
	reg := NewRegistry()

	first := testRecord(0x01, -60)
	first.Fields.Services = []uint16{0x180A, 0x180F}
	reg.Observe(&first)

	second := testRecord(0x01, -60)
	second.Fields.Services = []uint16{0x180F, 0x1812}
	reg.Observe(&second)

	dev, _ := reg.Lookup("aa:bb:cc:dd:ee:01")
	want := []uint16{0x180A, 0x180F, 0x1812}
	if len(dev.Services) != len(want) {
		t.Fatalf("Expected %d distinct services, got %v", len(want), dev.Services)
	}
	for i, id := range want {
		if dev.Services[i] != id {
			t.Errorf("Service %d: expected 0x%04X, got 0x%04X", i, id, dev.Services[i])
		}
	}
	if dev.ServiceNames[1] != "Battery" {
		t.Errorf("Expected resolved service name 'Battery', got %q", dev.ServiceNames[1])
	}
}

func TestRegistryCompanyResolution(t *testing.T) {
	reg := NewRegistry()

	apple := testRecord(0x01, -60)
	apple.Fields.Manufacturer = mfg(0x004C, []byte{0x02, 0x15})
	reg.Observe(&apple)

	dev, _ := reg.Lookup("aa:bb:cc:dd:ee:01")
	if dev.CompanyID == nil || *dev.CompanyID != 0x004C {
		t.Fatalf("Company ID not merged: %v", dev.CompanyID)
	}
	if dev.CompanyName != "Apple" {
		t.Errorf("Expected company 'Apple', got %q", dev.CompanyName)
	}
	if len(dev.ManufData) != 2 {
		t.Errorf("Manufacturer payload not kept: %v", dev.ManufData)
	}
}

func TestRegistryManufacturerFromAddress(t *testing.T) {
	reg := NewRegistry()

	apple := testRecord(0x01, -60)
	apple.Addr = [6]byte{0x28, 0xCF, 0xDA, 0xDD, 0xEE, 0x01}
	apple.AddrKind = sniffer.AddrPublic
	reg.Observe(&apple)

	dev, _ := reg.Lookup("28:cf:da:dd:ee:01")
	if dev.Manufacturer != "Apple" {
		t.Errorf("Expected OUI vendor 'Apple', got %q", dev.Manufacturer)
	}

	other := testRecord(0x02, -60)
	reg.Observe(&other)

	dev, _ = reg.Lookup("aa:bb:cc:dd:ee:02")
	if dev.Manufacturer != "Unknown" {
		t.Errorf("Unlisted prefix should resolve to 'Unknown', got %q", dev.Manufacturer)
	}
}

func TestRegistrySnapshotSortedByPackets(t *testing.T) {
	reg := NewRegistry()

	for i := 0; i < 3; i++ {
		rec := testRecord(0x01, -60)
		reg.Observe(&rec)
	}
	for i := 0; i < 5; i++ {
		rec := testRecord(0x02, -60)
		reg.Observe(&rec)
	}
	rec := testRecord(0x03, -60)
	reg.Observe(&rec)

	snap := reg.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Expected 3 devices, got %d", len(snap))
	}
	if snap[0].MAC != "aa:bb:cc:dd:ee:02" || snap[0].Packets != 5 {
		t.Errorf("Expected busiest device first, got %s (%d)", snap[0].MAC, snap[0].Packets)
	}
	if snap[1].MAC != "aa:bb:cc:dd:ee:01" || snap[2].MAC != "aa:bb:cc:dd:ee:03" {
		t.Errorf("Unexpected order: %s, %s", snap[1].MAC, snap[2].MAC)
	}
}

func TestRegistryKindsSeen(t *testing.T) {
	reg := NewRegistry()

	adv := testRecord(0x01, -60)
	reg.Observe(&adv)

	rsp := testRecord(0x01, -60)
	rsp.Kind = sniffer.ScanRsp
	reg.Observe(&rsp)

	// Repeats do not duplicate
	reg.Observe(&adv)

	dev, _ := reg.Lookup("aa:bb:cc:dd:ee:01")
	if len(dev.KindsSeen) != 2 {
		t.Fatalf("Expected 2 distinct kinds, got %v", dev.KindsSeen)
	}
	if dev.KindsSeen[0] != "ADV_IND" || dev.KindsSeen[1] != "SCAN_RSP" {
		t.Errorf("Unexpected kinds: %v", dev.KindsSeen)
	}
}

func TestRegistrySnapshotDoesNotAliasState(t *testing.T) {
	reg := NewRegistry()

	rec := testRecord(0x01, -60)
	rec.Fields.Services = []uint16{0x180A}
	reg.Observe(&rec)

	dev, _ := reg.Lookup("aa:bb:cc:dd:ee:01")
	dev.Services[0] = 0xDEAD

	again, _ := reg.Lookup("aa:bb:cc:dd:ee:01")
	if again.Services[0] != 0x180A {
		t.Errorf("Snapshot mutation leaked into the registry: 0x%04X", again.Services[0])
	}
}

func TestRegistryLookupUnknownDevice(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Lookup("00:00:00:00:00:00"); ok {
		t.Error("Lookup of an untracked device must report absence")
	}
}
