// Package capture is the host dispatch layer: it owns the AF_PACKET receive
// ring, the kernel BPF pre-filter, and the transmit path, and drives the
// fastpath pipeline from its workers.
package capture

import (
	"github.com/google/gopacket"
)

// Handle is a source of raw frames. ReadPacketData blocks up to the
// configured poll timeout and returns afpacket.ErrTimeout when idle.
type Handle interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	Close()
}

// Transmitter writes a raw frame out the capture interface.
type Transmitter interface {
	WritePacketData([]byte) error
	Close()
}

// Options configures one receive handle.
type Options struct {
	Device       string
	SnapLen      int
	BufferSizeMB int
	TimeoutMs    int
	FanoutID     uint16

	// Port builds the kernel pre-filter: only TCP frames to this
	// destination port reach userspace. Zero disables the filter.
	Port uint16
}
