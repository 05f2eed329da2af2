package fastpath

import "firestige.xyz/strix/internal/table"

// maxChecksumBytes bounds the payload word loop in the TCP checksum. It is
// sized to the largest payload the builder can produce (header scratch plus
// maximum body) and must scale with those limits.
const maxChecksumBytes = HeaderScratchLen + table.MaxBodyLen

// foldChecksum folds end-around carries and returns the one's complement,
// per RFC 1071.
func foldChecksum(sum uint32) uint16 {
	for sum > 0xffff {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}

// sumWords adds data to sum as big-endian 16-bit words, skipping the two
// bytes at skip (the checksum field), with a trailing odd byte taken as the
// high half of a final word. limit caps the number of bytes visited.
func sumWords(sum uint32, data []byte, skip int, limit int) uint32 {
	n := len(data)
	if n > limit {
		n = limit
	}
	i := 0
	for ; i+1 < n; i += 2 {
		if i == skip {
			continue
		}
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if i < n {
		sum += uint32(data[i]) << 8
	}
	return sum
}

// ipChecksum computes the Internet checksum over an IPv4 header whose
// checksum field has been zeroed. hdr covers the full IHL-derived length.
func ipChecksum(hdr []byte) uint16 {
	return foldChecksum(sumWords(0, hdr, 10, len(hdr)))
}

// tcpChecksum computes the TCP checksum over the pseudo-header, the TCP
// header (checksum field zeroed) and the payload. seg covers the TCP header
// and payload; its length is the TCP segment length of the pseudo-header.
func tcpChecksum(srcIP, dstIP [4]byte, seg []byte) uint16 {
	var sum uint32
	sum += uint32(srcIP[0])<<8 | uint32(srcIP[1])
	sum += uint32(srcIP[2])<<8 | uint32(srcIP[3])
	sum += uint32(dstIP[0])<<8 | uint32(dstIP[1])
	sum += uint32(dstIP[2])<<8 | uint32(dstIP[3])
	sum += protocolTCP
	sum += uint32(len(seg))
	// The bound leaves room for the largest possible TCP header in front
	// of the largest possible payload.
	return foldChecksum(sumWords(sum, seg, 16, maxChecksumBytes+60))
}
