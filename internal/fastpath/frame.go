// Package fastpath implements the packet-level HTTP responder: it validates
// Ethernet/IPv4/TCP headers, parses the request line of an HTTP GET, looks up
// a precomputed response and rewrites the frame in place into the reply.
// Every loop is bounded and no allocation happens on the steady-state path.
package fastpath

import "fmt"

// MaxFrameLen is the largest frame the responder will ever produce:
// link header plus the IPv4 maximum total length.
const MaxFrameLen = EthernetHeaderLen + 65535

// Frame holds the raw bytes of one packet. Length can grow or shrink via
// Resize up to a per-frame limit; header views must be re-derived after a
// resize since the backing buffer may move.
type Frame struct {
	data  []byte
	limit int
}

// NewFrame wraps data in a frame limited to MaxFrameLen.
func NewFrame(data []byte) *Frame {
	return NewFrameWithLimit(data, MaxFrameLen)
}

// NewFrameWithLimit wraps data in a frame that refuses to grow past limit.
func NewFrameWithLimit(data []byte, limit int) *Frame {
	return &Frame{data: data, limit: limit}
}

// SetData replaces the frame contents by copying pkt into the frame's own
// buffer. Reusing one Frame per worker keeps the receive loop allocation-free
// once the buffer has grown to the ring's snap length.
func (f *Frame) SetData(pkt []byte) {
	if cap(f.data) < len(pkt) {
		f.data = make([]byte, len(pkt))
	}
	f.data = f.data[:len(pkt)]
	copy(f.data, pkt)
}

// Bytes returns the current frame contents. The slice is invalidated by
// Resize and SetData.
func (f *Frame) Bytes() []byte { return f.data }

// Len returns the current frame length.
func (f *Frame) Len() int { return len(f.data) }

// Resize grows or shrinks the frame to n bytes, relocating the buffer when
// needed. Bytes in the grown region are unspecified until written. Fails if
// n exceeds the frame's limit.
func (f *Frame) Resize(n int) error {
	if n < 0 || n > f.limit {
		return fmt.Errorf("resize to %d exceeds frame limit %d", n, f.limit)
	}
	if n <= cap(f.data) {
		f.data = f.data[:n]
		return nil
	}
	grown := make([]byte, n)
	copy(grown, f.data)
	f.data = grown
	return nil
}
