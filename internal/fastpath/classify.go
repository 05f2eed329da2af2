package fastpath

// Offsets locates the protocol headers within a classified frame. The
// Ethernet header always starts at zero.
type Offsets struct {
	IP      int // start of the IPv4 header
	TCP     int // start of the TCP header
	Payload int // start of the TCP payload
}

// classify walks the header stack layer by layer, proving that enough bytes
// remain before each dereference. It accepts only IPv4-over-Ethernet TCP
// frames addressed to port. Anything else is handed back to the normal
// stack, so the result is simply ok=false with no error detail.
func classify(f *Frame, port uint16) (Offsets, bool) {
	var off Offsets
	b := f.Bytes()

	if len(b) < EthernetHeaderLen {
		return off, false
	}
	eth := ethernetAt(b)
	if eth.EtherType() != etherTypeIPv4 {
		return off, false
	}

	off.IP = EthernetHeaderLen
	if len(b) < off.IP+IPv4MinHeaderLen {
		return off, false
	}
	ip := ipv4At(b[off.IP:])
	if ip.Version() != 4 {
		return off, false
	}
	ipLen := ip.HeaderLen()
	if ipLen < IPv4MinHeaderLen || len(b) < off.IP+ipLen {
		return off, false
	}
	if ip.Protocol() != protocolTCP {
		return off, false
	}

	off.TCP = off.IP + ipLen
	if len(b) < off.TCP+TCPMinHeaderLen {
		return off, false
	}
	tcp := tcpAt(b[off.TCP:])
	if tcp.DstPort() != port {
		return off, false
	}
	tcpLen := tcp.HeaderLen()
	if tcpLen < TCPMinHeaderLen || len(b) < off.TCP+tcpLen {
		return off, false
	}

	off.Payload = off.TCP + tcpLen
	if off.Payload >= len(b) {
		// No payload bytes at all; nothing to parse.
		return off, false
	}
	return off, true
}
