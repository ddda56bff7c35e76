package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/blesniffer/sniffer"
	"github.com/user/blesniffer/tracker"
)

// Summary is a point-in-time export of a capture session: the stream
// counters plus the aggregated device table. The JSON shape matches what
// the desktop analysis tool emits so its consumers can read either.
type Summary struct {
	CaptureInfo CaptureInfo      `json:"capture_info"`
	Statistics  Statistics       `json:"statistics"`
	Devices     []tracker.Device `json:"devices"`
}

type CaptureInfo struct {
	Session         string    `json:"session"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	TotalPackets    uint64    `json:"total_packets"`
	Overflowed      uint64    `json:"overflowed"`
}

// Statistics carries rate and source counters. The scanner counters stay
// zero (and absent from the JSON) when the records came from a replayed
// file rather than a live scan.
type Statistics struct {
	PacketsPerSecond float64 `json:"packets_per_second"`
	Advertisements   uint64  `json:"advertisements,omitempty"`
	ScanResponses    uint64  `json:"scan_responses,omitempty"`
	DeviceCount      int     `json:"device_count"`
}

// New assembles a summary from live pipeline state. The device slice is
// used as given; registry snapshots already arrive sorted by packet
// count.
func New(session string, started time.Time, stats sniffer.Stats, devices []tracker.Device) *Summary {
	now := time.Now()
	duration := now.Sub(started).Seconds()
	rate := 0.0
	if duration > 0 {
		rate = float64(stats.Enqueued) / duration
	}
	return &Summary{
		CaptureInfo: CaptureInfo{
			Session:         session,
			StartTime:       started,
			EndTime:         now,
			DurationSeconds: duration,
			TotalPackets:    stats.Enqueued,
			Overflowed:      stats.Overflowed,
		},
		Statistics: Statistics{
			PacketsPerSecond: rate,
			DeviceCount:      len(devices),
		},
		Devices: devices,
	}
}

// WriteJSON writes the full summary as indented JSON.
func (s *Summary) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"MAC Address", "Name", "Manufacturer", "Address Type",
	"RSSI (Avg)", "RSSI (Min)", "RSSI (Max)",
	"TX Power", "Appearance", "Services",
	"Company ID", "Company Name",
	"First Seen", "Last Seen", "Packet Count", "ADV Types",
}

// WriteCSV writes the device table only, one row per device, in the
// column layout of the desktop tool's CSV export.
func (s *Summary) WriteCSV(path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("encode device table: %w", err)
	}
	for _, dev := range s.Devices {
		if err := w.Write(csvRow(dev)); err != nil {
			return fmt.Errorf("encode device table: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode device table: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write device table: %w", err)
	}
	return nil
}

func csvRow(dev tracker.Device) []string {
	txPower := ""
	if dev.TxPower != nil {
		txPower = strconv.Itoa(int(*dev.TxPower))
	}
	companyID := ""
	if dev.CompanyID != nil {
		companyID = fmt.Sprintf("0x%04X", *dev.CompanyID)
	}
	return []string{
		dev.MAC,
		dev.Name,
		dev.Manufacturer,
		dev.AddrKind,
		fmt.Sprintf("%.1f", dev.RSSIAvg),
		strconv.Itoa(int(dev.RSSIMin)),
		strconv.Itoa(int(dev.RSSIMax)),
		txPower,
		dev.AppearanceName,
		strings.Join(dev.ServiceNames, "; "),
		companyID,
		dev.CompanyName,
		dev.FirstSeen.Format("2006-01-02 15:04:05"),
		dev.LastSeen.Format("2006-01-02 15:04:05"),
		strconv.FormatUint(dev.Packets, 10),
		strings.Join(dev.KindsSeen, "; "),
	}
}
