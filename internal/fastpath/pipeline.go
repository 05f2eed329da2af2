package fastpath

import (
	"sync/atomic"

	"firestige.xyz/strix/internal/table"
)

// Verdict is the terminal outcome of one pipeline invocation.
type Verdict int

const (
	// VerdictPassThrough defers the frame to the normal network stack,
	// unmodified.
	VerdictPassThrough Verdict = iota
	// VerdictDrop discards the frame; no response is sent and there is
	// no retry.
	VerdictDrop
	// VerdictTransmit sends the rewritten frame back out the interface
	// it arrived on.
	VerdictTransmit
)

func (v Verdict) String() string {
	switch v {
	case VerdictPassThrough:
		return "pass"
	case VerdictDrop:
		return "drop"
	case VerdictTransmit:
		return "tx"
	default:
		return "unknown"
	}
}

// Store is the read side of the response table.
type Store interface {
	Lookup(key table.Key) (*table.Record, bool)
}

// Stats counts pipeline outcomes. All fields are updated atomically; the
// hot path never logs.
type Stats struct {
	Frames      atomic.Uint64
	PassedShort atomic.Uint64 // malformed, unsupported, or wrong port
	PassedParse atomic.Uint64 // payload not a recognizable GET
	PassedMiss  atomic.Uint64 // no table entry
	Dropped     atomic.Uint64
	Transmitted atomic.Uint64
}

// Pipeline processes one frame at a time: classify, parse, look up, build.
// A Pipeline is stateless apart from counters; each worker owns one frame
// but pipelines may be shared.
type Pipeline struct {
	port  uint16
	store Store
	stats Stats
}

// New creates a pipeline serving the given TCP destination port from store.
func New(port uint16, store Store) *Pipeline {
	return &Pipeline{port: port, store: store}
}

// Port returns the destination port the pipeline serves.
func (p *Pipeline) Port() uint16 { return p.port }

// Stats exposes the outcome counters.
func (p *Pipeline) Stats() *Stats { return &p.stats }

// Process runs one frame through the pipeline and returns the terminal
// verdict. The frame is mutated only on VerdictTransmit.
func (p *Pipeline) Process(f *Frame) Verdict {
	p.stats.Frames.Add(1)

	off, ok := classify(f, p.port)
	if !ok {
		p.stats.PassedShort.Add(1)
		return VerdictPassThrough
	}

	hash, encoding, ok := parseRequest(f.Bytes()[off.Payload:])
	if !ok {
		p.stats.PassedParse.Add(1)
		return VerdictPassThrough
	}

	rec, ok := p.store.Lookup(table.Key{PathHash: hash, Encoding: encoding})
	if !ok {
		p.stats.PassedMiss.Add(1)
		return VerdictPassThrough
	}

	v := buildResponse(f, off, rec)
	switch v {
	case VerdictTransmit:
		p.stats.Transmitted.Add(1)
	case VerdictDrop:
		p.stats.Dropped.Add(1)
	}
	return v
}
