package main

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/user/blesniffer/config"
	"github.com/user/blesniffer/logger"
	"github.com/user/blesniffer/monitor"
	"github.com/user/blesniffer/report"
	"github.com/user/blesniffer/scanner"
	"github.com/user/blesniffer/sniffer"
	"github.com/user/blesniffer/tracker"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (default: ./sniffer.yaml when present)")
	logLevel := flag.String("level", "", "Override log level (trace|debug|info|warn|error)")
	monitorAddr := flag.String("monitor", "", "Enable the diagnostics server on this address")
	duration := flag.Duration("duration", 0, "Stop after this long (0 = run until signal)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("MAIN", "Config: %v", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *monitorAddr != "" {
		cfg.Monitor.Enabled = true
		cfg.Monitor.Addr = *monitorAddr
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	session := uuid.New().String()
	started := time.Now()
	logger.Info("MAIN", "BLE promiscuous sniffer starting, session %s", session)

	// Capture stream destination: stdout by default, stderr carries logs
	var serialOut io.Writer = os.Stdout
	if cfg.Serial.Path != "-" {
		f, err := os.Create(cfg.Serial.Path)
		if err != nil {
			logger.Error("MAIN", "Serial output: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		serialOut = f
		logger.Info("MAIN", "Writing capture stream to %s", cfg.Serial.Path)
	}

	buf := sniffer.NewBuffer(cfg.Buffer.Capacity)
	pipe := sniffer.NewPipeline(buf)
	reg := tracker.NewRegistry()

	scan, err := scanner.New(scanner.Options{
		Devices:  cfg.Scanner.Devices,
		Interval: cfg.Scanner.Interval,
		Active:   cfg.Scanner.Active,
		Seed:     cfg.Scanner.Seed,
	}, pipe.Ingest)
	if err != nil {
		logger.Error("MAIN", "Scanner: %v", err)
		os.Exit(1)
	}

	reporters := sniffer.MultiReporter{
		sniffer.NewSerialReporter(serialOut),
		reg,
	}

	var mon *monitor.Server
	if cfg.Monitor.Enabled {
		mon = monitor.NewServer(cfg.Monitor.Addr, buf, reg, scan)
		if err := mon.Start(); err != nil {
			logger.Error("MAIN", "Monitor: %v", err)
			os.Exit(1)
		}
		reporters = append(reporters, mon.Hub())
	}

	consumer := sniffer.NewConsumer(buf, reporters)
	consumer.ActiveDelay = cfg.Consumer.ActiveDelay
	consumer.IdleDelay = cfg.Consumer.IdleDelay
	consumer.StatusPeriod = cfg.Consumer.StatusPeriod

	consumer.Start()
	scan.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	if *duration > 0 {
		select {
		case <-quit:
		case <-time.After(*duration):
			logger.Info("MAIN", "Duration %s elapsed", *duration)
		}
	} else {
		<-quit
	}
	logger.Info("MAIN", "Shutting down")

	scan.Stop()

	// Let the consumer flush what the scanner already produced
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && buf.Stats().Occupancy > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	consumer.Stop()

	if mon != nil {
		mon.Stop()
	}

	if cfg.Report.JSONPath != "" || cfg.Report.CSVPath != "" {
		writeSessionReport(cfg, session, started, buf, scan, reg)
	}

	stats := buf.Stats()
	logger.Info("MAIN", "Done: total=%d overflow=%d report_failures=%d devices=%d",
		stats.Enqueued, stats.Overflowed, consumer.ReportFailures(), reg.Len())
}

func writeSessionReport(cfg *config.Config, session string, started time.Time,
	buf *sniffer.Buffer, scan *scanner.Scanner, reg *tracker.Registry) {

	sum := report.New(session, started, buf.Stats(), reg.Snapshot())
	sc := scan.Stats()
	sum.Statistics.Advertisements = sc.Advertisements
	sum.Statistics.ScanResponses = sc.ScanResponses

	if cfg.Report.JSONPath != "" {
		if err := sum.WriteJSON(cfg.Report.JSONPath); err != nil {
			logger.Error("MAIN", "Session report: %v", err)
		} else {
			logger.Info("MAIN", "Session report written to %s", cfg.Report.JSONPath)
		}
	}
	if cfg.Report.CSVPath != "" {
		if err := sum.WriteCSV(cfg.Report.CSVPath); err != nil {
			logger.Error("MAIN", "Device table: %v", err)
		} else {
			logger.Info("MAIN", "Device table written to %s", cfg.Report.CSVPath)
		}
	}
}
