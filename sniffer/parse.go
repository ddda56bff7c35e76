package sniffer

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseSerialLine parses one canonical capture line back into an
// observation, the inverse of CaptureRecord.SerialLine. The name column
// is not returned: the payload is authoritative and re-decoding it
// regenerates every derived field. Broadcast kind and address kind are
// not carried by the line, so they take the same defaults as the legacy
// ingest path.
//
// Lines that are not capture records (firmware status lines, partial
// reads) fail with an error so replay tooling can count and skip them.
func ParseSerialLine(line string) (Observation, error) {
	// Name is the last column and may itself contain commas, so only
	// the first six separators split.
	parts := strings.SplitN(line, ",", 7)
	if len(parts) != 7 {
		return Observation{}, fmt.Errorf("serial line: want 7 fields, got %d", len(parts))
	}

	addr, err := net.ParseMAC(parts[0])
	if err != nil {
		return Observation{}, fmt.Errorf("serial line: address %q: %w", parts[0], err)
	}
	if len(addr) != 6 {
		return Observation{}, fmt.Errorf("serial line: address %q: not 48-bit", parts[0])
	}

	rssi, err := strconv.ParseInt(parts[1], 10, 8)
	if err != nil {
		return Observation{}, fmt.Errorf("serial line: rssi %q: %w", parts[1], err)
	}
	channel, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Observation{}, fmt.Errorf("serial line: channel %q: %w", parts[2], err)
	}
	timestamp, err := strconv.ParseUint(parts[3], 10, 32)
	if err != nil {
		return Observation{}, fmt.Errorf("serial line: timestamp %q: %w", parts[3], err)
	}
	length, err := strconv.Atoi(parts[4])
	if err != nil {
		return Observation{}, fmt.Errorf("serial line: length %q: %w", parts[4], err)
	}
	payload, err := hex.DecodeString(parts[5])
	if err != nil {
		return Observation{}, fmt.Errorf("serial line: payload %q: %w", parts[5], err)
	}
	if length != len(payload) {
		return Observation{}, fmt.Errorf("serial line: length field %d does not match %d payload bytes", length, len(payload))
	}

	return Observation{
		Addr:      addr,
		AddrKind:  AddrPublic,
		RSSI:      int8(rssi),
		Channel:   uint8(channel),
		Timestamp: uint32(timestamp),
		Kind:      AdvInd,
		Payload:   payload,
	}, nil
}
