package capture

import (
	"fmt"
	"os"

	"github.com/google/gopacket/afpacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

// NewAFPacketHandle opens a TPacket v3 ring on the device. With a non-zero
// fanout id, multiple handles on the same group shard flows between
// workers. The kernel BPF filter keeps everything except candidate TCP
// frames out of userspace.
func NewAFPacketHandle(opts Options) (Handle, error) {
	pageSize := os.Getpagesize()
	frameSize, blockSize, numBlocks, err := ringSizes(opts.BufferSizeMB, opts.SnapLen, pageSize)
	if err != nil {
		return nil, err
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(opts.Device),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(opts.TimeoutMs),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open af_packet ring on %s: %w", opts.Device, err)
	}

	if opts.FanoutID > 0 {
		if err := tp.SetFanout(afpacket.FanoutHashWithDefrag, opts.FanoutID); err != nil {
			tp.Close()
			return nil, fmt.Errorf("failed to set fanout group %d: %w", opts.FanoutID, err)
		}
	}

	if opts.Port > 0 {
		prog, err := portFilter(opts.SnapLen, opts.Port)
		if err != nil {
			tp.Close()
			return nil, err
		}
		if err := tp.SetBPF(prog); err != nil {
			tp.Close()
			return nil, fmt.Errorf("failed to install bpf filter: %w", err)
		}
	}

	return tp, nil
}

// portFilter compiles "tcp and dst port N" to raw BPF instructions.
func portFilter(snapLen int, port uint16) ([]bpf.RawInstruction, error) {
	expr := fmt.Sprintf("tcp and dst port %d", port)
	pcapBPF, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, snapLen, expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, err)
	}
	rawBPF := make([]bpf.RawInstruction, len(pcapBPF))
	for i, inst := range pcapBPF {
		rawBPF[i] = bpf.RawInstruction{
			Op: inst.Code,
			Jt: inst.Jt,
			Jf: inst.Jf,
			K:  inst.K,
		}
	}
	return rawBPF, nil
}

// ringSizes recalculates frame size, block size, and block count to meet
// AF_PACKET PACKET_MMAP alignment requirements within the target memory
// budget: frames align to TPACKET_ALIGNMENT, blocks to the page size, and
// blockSize*numBlocks approximates bufferSizeMB.
func ringSizes(bufferSizeMB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	const tpacketAlignment = 16
	const tpacketHdrLen = 52

	if bufferSizeMB <= 0 {
		return 0, 0, 0, fmt.Errorf("buffer size must be positive, got %d MB", bufferSizeMB)
	}
	if snapLen <= 0 {
		return 0, 0, 0, fmt.Errorf("snap length must be positive, got %d", snapLen)
	}
	if pageSize <= 0 || pageSize%tpacketAlignment != 0 {
		return 0, 0, 0, fmt.Errorf("page size must be a positive multiple of %d, got %d", tpacketAlignment, pageSize)
	}

	targetBytes := bufferSizeMB * 1024 * 1024

	rawFrameSize := tpacketHdrLen + snapLen
	frameSize = ((rawFrameSize + tpacketAlignment - 1) / tpacketAlignment) * tpacketAlignment

	// Block size must be a multiple of both the page size and the frame
	// size; cap it at 4MB and fall back to whole frames per block.
	const maxBlockSize = 4 * 1024 * 1024
	blockSize = lcm(pageSize, frameSize)
	if blockSize < frameSize {
		blockSize = frameSize
	}
	if blockSize > maxBlockSize {
		blockSize = (maxBlockSize / pageSize) * pageSize
	}
	if blockSize%frameSize != 0 {
		framesPerBlock := blockSize / frameSize
		if framesPerBlock < 1 {
			framesPerBlock = 1
		}
		blockSize = framesPerBlock * frameSize
		blockSize = ((blockSize + pageSize - 1) / pageSize) * pageSize
	}

	numBlocks = targetBytes / blockSize
	if numBlocks < 1 {
		numBlocks = 1
	}
	return frameSize, blockSize, numBlocks, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return (a * b) / gcd(a, b)
}
