package sniffer

import (
	"net"

	"github.com/user/blesniffer/advdata"
	"github.com/user/blesniffer/logger"
)

// Pipeline turns raw observations into buffered capture records. The
// scanning subsystem invokes Ingest once per observed broadcast, from a
// context that may not block; Ingest runs in time linear in the payload
// length (at most 255 bytes) and takes no lock except the buffer's own
// short push section.
type Pipeline struct {
	buf *Buffer
}

// NewPipeline attaches a pipeline to the buffer records are pushed into.
func NewPipeline(buf *Buffer) *Pipeline {
	return &Pipeline{buf: buf}
}

// Ingest validates an observation, decodes its payload and pushes the
// completed record. Malformed observations (address not exactly 6 bytes,
// missing or empty payload, payload over 255 bytes) are silently dropped:
// no record is produced and no buffer counter changes.
//
// The record copies the payload and the address, so the caller may reuse
// its buffers as soon as Ingest returns. A record is never visible to the
// consumer before it is fully formed.
func (p *Pipeline) Ingest(obs Observation) {
	if len(obs.Addr) != 6 {
		return
	}
	if len(obs.Payload) == 0 || len(obs.Payload) > advdata.MaxPayloadLen {
		return
	}

	rec := CaptureRecord{
		AddrKind:  obs.AddrKind,
		RSSI:      obs.RSSI,
		Channel:   obs.Channel,
		Timestamp: obs.Timestamp,
		Kind:      obs.Kind,
		Payload:   make([]byte, len(obs.Payload)),
	}
	copy(rec.Addr[:], obs.Addr)
	copy(rec.Payload, obs.Payload)
	rec.Fields = advdata.Decode(rec.Payload)
	logger.TraceJSON("SNIFFER", "Decoded fields", rec.Fields)

	p.buf.Push(rec)
}

// IngestLegacy adapts the old six-argument callback shape, which predates
// broadcast-kind and address-kind reporting. Missing fields default the
// way the old wrapper did: connectable undirected broadcast, public
// address. It is an adapter over Ingest, not a second ingest path.
func (p *Pipeline) IngestLegacy(addr net.HardwareAddr, rssi int8, channel uint8, timestamp uint32, payload []byte) {
	p.Ingest(Observation{
		Addr:      addr,
		AddrKind:  AddrPublic,
		RSSI:      rssi,
		Channel:   channel,
		Timestamp: timestamp,
		Kind:      AdvInd,
		Payload:   payload,
	})
}
