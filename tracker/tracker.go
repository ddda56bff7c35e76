package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/user/blesniffer/sniffer"
)

// RSSIWindow bounds the per-device sample history used for min/max/avg.
const RSSIWindow = 100

// device is the registry's mutable per-address state.
type device struct {
	mac          string
	addrKind     sniffer.AddrKind
	name         string
	manufacturer string
	rssiSamples  []int8
	txPower      *int8
	appearance   *uint16
	flags        *uint8
	companyID    *uint16
	services     []uint16
	kindsSeen    uint8 // bit per BroadcastKind 0..4
	mfgData      []byte
	firstSeen    time.Time
	lastSeen     time.Time
	packets      uint64
}

// Device is a read-only snapshot of one tracked device, shaped for the
// diagnostics endpoints. Slices are the snapshot's own copies.
type Device struct {
	MAC            string    `json:"mac"`
	AddrKind       string    `json:"addr_type"`
	Name           string    `json:"name,omitempty"`
	Manufacturer   string    `json:"manufacturer"`
	RSSI           int8      `json:"rssi"`
	RSSIMin        int8      `json:"rssi_min"`
	RSSIMax        int8      `json:"rssi_max"`
	RSSIAvg        float64   `json:"rssi_avg"`
	TxPower        *int8     `json:"tx_power,omitempty"`
	Appearance     *uint16   `json:"appearance,omitempty"`
	AppearanceName string    `json:"appearance_name,omitempty"`
	Flags          *uint8    `json:"flags,omitempty"`
	CompanyID      *uint16   `json:"company_id,omitempty"`
	CompanyName    string    `json:"company_name,omitempty"`
	Services       []uint16  `json:"services,omitempty"`
	ServiceNames   []string  `json:"service_names,omitempty"`
	KindsSeen      []string  `json:"adv_types_seen,omitempty"`
	ManufData      []byte    `json:"mfg_data,omitempty"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
	Packets        uint64    `json:"packet_count"`
}

// Registry aggregates capture records into per-device state: signal
// statistics over a bounded sample window, decoded identity fields with
// newest-reading-wins merging, and a deduplicated service list. It is an
// optional observer of the record stream, never part of the capture path
// itself.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*device
}

func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*device)}
}

// Observe merges one record into the device it came from.
func (r *Registry) Observe(rec *sniffer.CaptureRecord) {
	mac := rec.MAC()
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[mac]
	if !ok {
		dev = &device{mac: mac, manufacturer: ManufacturerName(mac), firstSeen: now}
		r.devices[mac] = dev
	}

	dev.lastSeen = now
	dev.packets++
	dev.addrKind = rec.AddrKind

	// RSSI 0 means the radio produced no reading for this broadcast
	if rec.RSSI != 0 {
		dev.rssiSamples = append(dev.rssiSamples, rec.RSSI)
		if len(dev.rssiSamples) > RSSIWindow {
			dev.rssiSamples = dev.rssiSamples[len(dev.rssiSamples)-RSSIWindow:]
		}
	}

	if rec.Fields.Name != "" {
		dev.name = rec.Fields.Name
	}
	if rec.Fields.TxPower != nil {
		v := *rec.Fields.TxPower
		dev.txPower = &v
	}
	if rec.Fields.Appearance != nil {
		v := *rec.Fields.Appearance
		dev.appearance = &v
	}
	if rec.Fields.Flags != nil {
		v := *rec.Fields.Flags
		dev.flags = &v
	}
	for _, svc := range rec.Fields.Services {
		if !containsService(dev.services, svc) {
			dev.services = append(dev.services, svc)
		}
	}
	if rec.Fields.Manufacturer != nil {
		v := rec.Fields.Manufacturer.ID
		dev.companyID = &v
		dev.mfgData = append(dev.mfgData[:0], rec.Fields.Manufacturer.Data...)
	}
	if rec.Kind <= 7 {
		dev.kindsSeen |= 1 << uint8(rec.Kind)
	}
}

// Report lets the registry sit in the consumer's reporter chain. It
// never fails.
func (r *Registry) Report(rec *sniffer.CaptureRecord) error {
	r.Observe(rec)
	return nil
}

// Len returns how many distinct devices have been observed.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Snapshot returns every tracked device, most packets first. Ties break
// on address so the order is stable.
func (r *Registry) Snapshot() []Device {
	r.mu.RLock()
	out := make([]Device, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, dev.snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Packets != out[j].Packets {
			return out[i].Packets > out[j].Packets
		}
		return out[i].MAC < out[j].MAC
	})
	return out
}

// Lookup returns the snapshot of a single device by its lowercase
// colon-separated address.
func (r *Registry) Lookup(mac string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.devices[mac]
	if !ok {
		return Device{}, false
	}
	return dev.snapshot(), true
}

func (d *device) snapshot() Device {
	out := Device{
		MAC:          d.mac,
		AddrKind:     d.addrKind.String(),
		Name:         d.name,
		Manufacturer: d.manufacturer,
		FirstSeen:    d.firstSeen,
		LastSeen:     d.lastSeen,
		Packets:      d.packets,
	}

	if n := len(d.rssiSamples); n > 0 {
		min, max, sum := d.rssiSamples[0], d.rssiSamples[0], 0
		for _, s := range d.rssiSamples {
			if s < min {
				min = s
			}
			if s > max {
				max = s
			}
			sum += int(s)
		}
		out.RSSI = d.rssiSamples[n-1]
		out.RSSIMin = min
		out.RSSIMax = max
		out.RSSIAvg = float64(sum) / float64(n)
	}

	if d.txPower != nil {
		v := *d.txPower
		out.TxPower = &v
	}
	if d.appearance != nil {
		v := *d.appearance
		out.Appearance = &v
		out.AppearanceName = AppearanceName(v)
	}
	if d.flags != nil {
		v := *d.flags
		out.Flags = &v
	}
	if d.companyID != nil {
		v := *d.companyID
		out.CompanyID = &v
		out.CompanyName = CompanyName(v)
	}
	if len(d.services) > 0 {
		out.Services = append([]uint16(nil), d.services...)
		out.ServiceNames = make([]string, len(d.services))
		for i, svc := range d.services {
			out.ServiceNames[i] = ServiceName(svc)
		}
	}
	if len(d.mfgData) > 0 {
		out.ManufData = append([]byte(nil), d.mfgData...)
	}
	for kind := sniffer.AdvInd; kind <= sniffer.ScanRsp; kind++ {
		if d.kindsSeen&(1<<uint8(kind)) != 0 {
			out.KindsSeen = append(out.KindsSeen, kind.String())
		}
	}

	return out
}

func containsService(list []uint16, id uint16) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
