package sniffer

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/user/blesniffer/logger"
)

// Reporter receives drained records one at a time. Implementations must
// not retain the record past the call.
type Reporter interface {
	Report(rec *CaptureRecord) error
}

// SerialReporter writes the canonical serialized line per record to a
// single writer, one record per line.
type SerialReporter struct {
	w io.Writer
}

func NewSerialReporter(w io.Writer) *SerialReporter {
	return &SerialReporter{w: w}
}

func (r *SerialReporter) Report(rec *CaptureRecord) error {
	if _, err := fmt.Fprintf(r.w, "%s\n", rec.SerialLine()); err != nil {
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

// MultiReporter fans one record out to several reporters. Every reporter
// sees the record even when an earlier one fails; the first error is
// returned.
type MultiReporter []Reporter

func (m MultiReporter) Report(rec *CaptureRecord) error {
	var firstErr error
	for _, r := range m {
		if err := r.Report(rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Consumer drains the buffer on its own schedule and hands each record to
// a reporter. After draining a record it sleeps briefly; with an empty
// buffer it backs off longer, trading latency for CPU. Reporter errors
// degrade gracefully: the record is dropped, the failure is counted and
// logged, the loop keeps running. Nothing here ever blocks the producer
// beyond the buffer's own short pop section.
type Consumer struct {
	// Set before Start; not safe to change while running.
	ActiveDelay  time.Duration // sleep after draining one record
	IdleDelay    time.Duration // sleep when the buffer was empty
	StatusPeriod time.Duration // interval between status log lines, 0 disables

	buf      *Buffer
	reporter Reporter

	mu             sync.Mutex
	running        bool
	stopChan       chan struct{}
	doneChan       chan struct{}
	reportFailures uint64
}

// NewConsumer creates a consumer with the firmware's pacing: 2ms after a
// drained record, 20ms when idle, a status line every 10s.
func NewConsumer(buf *Buffer, reporter Reporter) *Consumer {
	return &Consumer{
		ActiveDelay:  2 * time.Millisecond,
		IdleDelay:    20 * time.Millisecond,
		StatusPeriod: 10 * time.Second,
		buf:          buf,
		reporter:     reporter,
	}
}

// Start launches the drain loop. Calling Start on a running consumer is a
// no-op.
func (c *Consumer) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.stopChan = make(chan struct{})
	c.doneChan = make(chan struct{})

	go c.run(c.stopChan, c.doneChan)
}

// Stop halts the drain loop and waits for it to exit. Records still
// buffered stay buffered. Safe to call on a stopped consumer.
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stopChan := c.stopChan
	doneChan := c.doneChan
	c.mu.Unlock()

	close(stopChan)
	<-doneChan
}

// ReportFailures returns how many records were dropped because the
// reporter returned an error.
func (c *Consumer) ReportFailures() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reportFailures
}

func (c *Consumer) run(stopChan <-chan struct{}, doneChan chan<- struct{}) {
	defer close(doneChan)

	logger.Debug("SNIFFER", "Consumer running (buffer %d slots)", c.buf.Cap())

	lastStatus := time.Now()
	var lastEnqueued uint64

	for {
		var delay time.Duration
		if rec, ok := c.buf.Pop(); ok {
			if err := c.reporter.Report(&rec); err != nil {
				c.mu.Lock()
				c.reportFailures++
				c.mu.Unlock()
				logger.Warn("SNIFFER", "Report failed, record dropped: %v", err)
			}
			delay = c.ActiveDelay
		} else {
			delay = c.IdleDelay
		}

		if c.StatusPeriod > 0 && time.Since(lastStatus) >= c.StatusPeriod {
			stats := c.buf.Stats()
			elapsed := time.Since(lastStatus).Seconds()
			rate := uint64(float64(stats.Enqueued-lastEnqueued) / elapsed)
			logger.Info("SNIFFER", "Total=%d Rate=%d/s Overflow=%d Buffer=%d/%d",
				stats.Enqueued, rate, stats.Overflowed, stats.Occupancy, c.buf.Cap())
			lastStatus = time.Now()
			lastEnqueued = stats.Enqueued
		}

		select {
		case <-stopChan:
			return
		case <-time.After(delay):
		}
	}
}
