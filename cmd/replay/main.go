package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/user/blesniffer/logger"
	"github.com/user/blesniffer/report"
	"github.com/user/blesniffer/sniffer"
	"github.com/user/blesniffer/tracker"
)

// Replays a saved capture stream through the ingest pipeline and prints
// the aggregated device table, the offline counterpart of the live
// tracker. Lines that are not capture records (firmware status lines,
// truncated tails) are counted and skipped.
func main() {
	inPath := flag.String("in", "", "Capture stream file, - for stdin")
	jsonPath := flag.String("json", "", "Write a JSON session report to this path")
	csvPath := flag.String("csv", "", "Write a CSV device table to this path")
	logLevel := flag.String("level", "warn", "Log level (trace|debug|info|warn|error)")
	flag.Parse()

	if *inPath == "" {
		fmt.Println("Usage: replay -in <capture-file> [-json report.json] [-csv devices.csv]")
		fmt.Println("\nExample:")
		fmt.Println("  sniffer > capture.log && replay -in capture.log")
		os.Exit(1)
	}

	logger.SetLevel(logger.ParseLevel(*logLevel))

	var in io.Reader = os.Stdin
	if *inPath != "-" {
		f, err := os.Open(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	buf := sniffer.NewBuffer(sniffer.DefaultBufferCapacity)
	pipe := sniffer.NewPipeline(buf)
	reg := tracker.NewRegistry()
	started := time.Now()

	var lines, skipped int
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		lines++
		obs, err := sniffer.ParseSerialLine(line)
		if err != nil {
			skipped++
			logger.Debug("REPLAY", "Line %d: %v", lines, err)
			continue
		}
		pipe.Ingest(obs)
		// Drain after every ingest so the bounded buffer never evicts
		for {
			rec, ok := buf.Pop()
			if !ok {
				break
			}
			reg.Observe(&rec)
		}
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "replay: reading %s: %v\n", *inPath, err)
		os.Exit(1)
	}

	devices := reg.Snapshot()

	fmt.Printf("%-17s  %-20s  %6s  %8s  %s\n", "MAC", "NAME", "RSSI", "PACKETS", "COMPANY")
	for _, dev := range devices {
		name := dev.Name
		if name == "" {
			name = "-"
		}
		fmt.Printf("%-17s  %-20s  %6.1f  %8d  %s\n",
			dev.MAC, name, dev.RSSIAvg, dev.Packets, dev.CompanyName)
	}
	fmt.Printf("\n%d lines, %d skipped, %d devices\n", lines, skipped, len(devices))

	if *jsonPath == "" && *csvPath == "" {
		return
	}

	sum := report.New(uuid.New().String(), started, buf.Stats(), devices)
	if *jsonPath != "" {
		if err := sum.WriteJSON(*jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "replay: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Session report written to %s\n", *jsonPath)
	}
	if *csvPath != "" {
		if err := sum.WriteCSV(*csvPath); err != nil {
			fmt.Fprintf(os.Stderr, "replay: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Device table written to %s\n", *csvPath)
	}
}
