package capture

import (
	"fmt"
	"time"

	"github.com/google/gopacket/pcap"
)

// NewInjector opens a live pcap handle used only for writing rewritten
// frames back out the device. The AF_PACKET ring stays dedicated to the
// receive side.
func NewInjector(device string, snapLen int) (Transmitter, error) {
	h, err := pcap.OpenLive(device, int32(snapLen), false, time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to open inject handle on %s: %w", device, err)
	}
	return h, nil
}
