package fastpath

import "encoding/binary"

// Header sizes and field constants, network byte order throughout.
const (
	EthernetHeaderLen = 14
	IPv4MinHeaderLen  = 20
	TCPMinHeaderLen   = 20

	etherTypeIPv4 = 0x0800
	protocolTCP   = 6

	tcpFlagACK = 0x10
	tcpFlagPSH = 0x08
)

// EthernetHeader is a view over the first EthernetHeaderLen bytes of a frame.
// The caller proves the bound before constructing the view.
type EthernetHeader struct{ b []byte }

func ethernetAt(b []byte) EthernetHeader { return EthernetHeader{b} }

func (h EthernetHeader) DstMAC() []byte { return h.b[0:6] }
func (h EthernetHeader) SrcMAC() []byte { return h.b[6:12] }

func (h EthernetHeader) EtherType() uint16 { return binary.BigEndian.Uint16(h.b[12:14]) }

// SwapAddrs exchanges source and destination MAC addresses in place.
func (h EthernetHeader) SwapAddrs() {
	var tmp [6]byte
	copy(tmp[:], h.b[0:6])
	copy(h.b[0:6], h.b[6:12])
	copy(h.b[6:12], tmp[:])
}

// IPv4Header is a view over an IPv4 header within a frame. The view covers
// at least IPv4MinHeaderLen bytes; HeaderLen reports the real IHL-derived
// length.
type IPv4Header struct{ b []byte }

func ipv4At(b []byte) IPv4Header { return IPv4Header{b} }

func (h IPv4Header) Version() uint8   { return h.b[0] >> 4 }
func (h IPv4Header) HeaderLen() int   { return int(h.b[0]&0x0f) * 4 }
func (h IPv4Header) Protocol() uint8  { return h.b[9] }
func (h IPv4Header) TotalLen() uint16 { return binary.BigEndian.Uint16(h.b[2:4]) }

func (h IPv4Header) SetTotalLen(n uint16) { binary.BigEndian.PutUint16(h.b[2:4], n) }

func (h IPv4Header) Checksum() uint16     { return binary.BigEndian.Uint16(h.b[10:12]) }
func (h IPv4Header) SetChecksum(c uint16) { binary.BigEndian.PutUint16(h.b[10:12], c) }

// SrcIP and DstIP return the addresses as fixed 4-byte arrays, avoiding any
// allocation on the hot path.
func (h IPv4Header) SrcIP() [4]byte { return [4]byte(h.b[12:16]) }
func (h IPv4Header) DstIP() [4]byte { return [4]byte(h.b[16:20]) }

// SwapAddrs exchanges source and destination IP addresses in place.
func (h IPv4Header) SwapAddrs() {
	var tmp [4]byte
	copy(tmp[:], h.b[12:16])
	copy(h.b[12:16], h.b[16:20])
	copy(h.b[16:20], tmp[:])
}

// TCPHeader is a view over a TCP header within a frame. The view covers at
// least TCPMinHeaderLen bytes; HeaderLen reports the data-offset length.
type TCPHeader struct{ b []byte }

func tcpAt(b []byte) TCPHeader { return TCPHeader{b} }

func (h TCPHeader) SrcPort() uint16 { return binary.BigEndian.Uint16(h.b[0:2]) }
func (h TCPHeader) DstPort() uint16 { return binary.BigEndian.Uint16(h.b[2:4]) }

// SwapPorts exchanges source and destination ports in place.
func (h TCPHeader) SwapPorts() {
	var tmp [2]byte
	copy(tmp[:], h.b[0:2])
	copy(h.b[0:2], h.b[2:4])
	copy(h.b[2:4], tmp[:])
}

func (h TCPHeader) Seq() uint32     { return binary.BigEndian.Uint32(h.b[4:8]) }
func (h TCPHeader) Ack() uint32     { return binary.BigEndian.Uint32(h.b[8:12]) }
func (h TCPHeader) SetSeq(v uint32) { binary.BigEndian.PutUint32(h.b[4:8], v) }
func (h TCPHeader) SetAck(v uint32) { binary.BigEndian.PutUint32(h.b[8:12], v) }

func (h TCPHeader) HeaderLen() int { return int(h.b[12]>>4) * 4 }

// SetPushAck sets the PSH and ACK flags, preserving the rest.
func (h TCPHeader) SetPushAck() { h.b[13] |= tcpFlagPSH | tcpFlagACK }

func (h TCPHeader) Checksum() uint16     { return binary.BigEndian.Uint16(h.b[16:18]) }
func (h TCPHeader) SetChecksum(c uint16) { binary.BigEndian.PutUint16(h.b[16:18], c) }
