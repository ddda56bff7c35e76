package scanner

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/user/blesniffer/logger"
	"github.com/user/blesniffer/sniffer"
)

// Handler receives one observation per simulated broadcast, the same
// shape the ingest pipeline consumes. It is invoked from the scanner's
// emission goroutine and must return quickly.
type Handler func(obs sniffer.Observation)

// Options configures the simulated radio.
type Options struct {
	Devices  int           // simulated broadcasters, default 3
	Interval time.Duration // pause between emissions, default 20ms
	Active   bool          // active scanning: scannable devices answer with scan responses
	Seed     int64         // 0 seeds from the clock
}

// Stats mirrors the radio firmware's counters.
type Stats struct {
	Advertisements uint64
	ScanResponses  uint64
}

// Scanner is a synthetic stand-in for the radio scanning subsystem: a
// population of simulated devices whose broadcasts are delivered to a
// handler at a steady cadence. It exists so the capture pipeline can be
// driven end to end without radio hardware.
//
// The reported channel is the firmware's counter approximation (the
// radio gives no real channel), cycling 37..39 per advertisement. It is
// untrusted metadata and consumers treat it as such.
type Scanner struct {
	opts    Options
	handler Handler
	devices []*simDevice
	rng     *rand.Rand

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	advCount uint64
	rspCount uint64
}

// New builds the simulated device population up front so every Start
// emits from the same devices.
func New(opts Options, handler Handler) (*Scanner, error) {
	if handler == nil {
		return nil, fmt.Errorf("scanner needs a handler")
	}
	if opts.Devices <= 0 {
		opts.Devices = 3
	}
	if opts.Interval <= 0 {
		opts.Interval = 20 * time.Millisecond
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Scanner{
		opts:    opts,
		handler: handler,
		rng:     rand.New(rand.NewSource(seed)),
	}

	for n := 0; n < opts.Devices; n++ {
		dev, err := newSimDevice(n, s.rng)
		if err != nil {
			return nil, err
		}
		s.devices = append(s.devices, dev)
		logger.Debug("SCANNER", "Simulated device %s at %s (%q, %s)",
			dev.id, dev.addr, dev.name, dev.kind)
	}

	return s, nil
}

// SetMode switches between passive and active scanning. Only effective
// before Start.
func (s *Scanner) SetMode(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Active = active
	if active {
		logger.Info("SCANNER", "Mode: ACTIVE")
	} else {
		logger.Info("SCANNER", "Mode: PASSIVE")
	}
}

// Start begins emitting broadcasts. No-op when already running.
func (s *Scanner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})

	mode := "PASSIVE"
	if s.opts.Active {
		mode = "ACTIVE"
	}
	logger.Info("SCANNER", "Scanning started (ch 37, 38, 39, %s, %d devices)",
		mode, len(s.devices))

	go s.run(s.stopChan, s.doneChan)
}

// Stop halts emission and waits for the loop to exit. Safe to call on a
// stopped scanner.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	close(stopChan)
	<-doneChan

	stats := s.Stats()
	logger.Info("SCANNER", "Scan stopped - ADV:%d SCAN_RSP:%d",
		stats.Advertisements, stats.ScanResponses)
}

// Stats returns the emission counters as of the call.
func (s *Scanner) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Advertisements: s.advCount, ScanResponses: s.rspCount}
}

func (s *Scanner) run(stopChan <-chan struct{}, doneChan chan<- struct{}) {
	defer close(doneChan)

	start := time.Now()

	for {
		select {
		case <-stopChan:
			return
		case <-time.After(s.opts.Interval):
		}

		dev := s.devices[s.rng.Intn(len(s.devices))]
		rssi := dev.baseRSSI + int8(s.rng.Intn(11)) - 5
		ts := uint32(time.Since(start) / time.Millisecond)

		s.mu.Lock()
		s.advCount++
		// Counter approximation of the advertising channel
		channel := uint8(37 + s.advCount%3)
		active := s.opts.Active
		s.mu.Unlock()

		s.handler(sniffer.Observation{
			Addr:      dev.addr,
			AddrKind:  dev.addrKind,
			RSSI:      rssi,
			Channel:   channel,
			Timestamp: ts,
			Kind:      dev.kind,
			Payload:   dev.advPayload,
		})

		if active && dev.scannable() {
			s.mu.Lock()
			s.rspCount++
			s.mu.Unlock()

			s.handler(sniffer.Observation{
				Addr:      dev.addr,
				AddrKind:  dev.addrKind,
				RSSI:      rssi,
				Channel:   channel,
				Timestamp: ts,
				Kind:      sniffer.ScanRsp,
				Payload:   dev.rspPayload,
			})
		}
	}
}
