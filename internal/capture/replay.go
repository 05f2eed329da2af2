package capture

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket/pcap"

	"firestige.xyz/strix/internal/fastpath"
)

// ReplaySummary reports the outcome counts of one offline run.
type ReplaySummary struct {
	Frames      int
	Transmitted int
	Dropped     int
	PassedThru  int
}

// Replay runs every frame of a pcap file through the pipeline without
// touching a wire. Useful for regression runs against captured traffic.
func Replay(pcapPath string, pipeline *fastpath.Pipeline) (ReplaySummary, error) {
	var sum ReplaySummary

	h, err := pcap.OpenOffline(pcapPath)
	if err != nil {
		return sum, fmt.Errorf("failed to open %s: %w", pcapPath, err)
	}
	defer h.Close()

	frame := fastpath.NewFrame(nil)
	for {
		data, _, err := h.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("read failed after %d frames: %w", sum.Frames, err)
		}

		frame.SetData(data)
		sum.Frames++
		switch pipeline.Process(frame) {
		case fastpath.VerdictTransmit:
			sum.Transmitted++
		case fastpath.VerdictDrop:
			sum.Dropped++
		case fastpath.VerdictPassThrough:
			sum.PassedThru++
		}
	}
}
