package fastpath

import "firestige.xyz/strix/internal/table"

// HeaderScratchLen bounds the composed response header text. Writes past the
// bound are silently discarded; this is a documented truncation limit, not
// an error.
const HeaderScratchLen = 512

const (
	statusLine          = "HTTP/1.1 200 OK\r\n"
	contentTypePrefix   = "Content-Type: "
	contentLengthPrefix = "Content-Length: "
	crlf                = "\r\n"

	maxLengthDigits = 16
)

// headerScratch composes response header text into a fixed buffer, dropping
// bytes once the buffer is full.
type headerScratch struct {
	buf [HeaderScratchLen]byte
	n   int
}

func (s *headerScratch) writeString(v string) {
	for i := 0; i < len(v) && s.n < HeaderScratchLen; i++ {
		s.buf[s.n] = v[i]
		s.n++
	}
}

func (s *headerScratch) writeBytes(v []byte) {
	for i := 0; i < len(v) && s.n < HeaderScratchLen; i++ {
		s.buf[s.n] = v[i]
		s.n++
	}
}

// writeDecimal emits v in decimal ASCII: digits are produced by repeated
// division by ten, least significant first, then written out in reverse.
func (s *headerScratch) writeDecimal(v uint32) {
	var digits [maxLengthDigits]byte
	n := 0
	for {
		digits[n] = '0' + byte(v%10)
		n++
		v /= 10
		if v == 0 || n == maxLengthDigits {
			break
		}
	}
	for i := n - 1; i >= 0 && s.n < HeaderScratchLen; i-- {
		s.buf[s.n] = digits[i]
		s.n++
	}
}

func (s *headerScratch) bytes() []byte { return s.buf[:s.n] }

// buildResponse rewrites the classified request frame in place into the
// response for rec. Outcomes are Transmit on success, or Drop when the
// resize fails or the rewritten frame cannot hold the response. A dropped
// frame produces no reply at all; the client sees a transport timeout.
func buildResponse(f *Frame, off Offsets, rec *table.Record) Verdict {
	var scratch headerScratch
	scratch.writeString(statusLine)
	scratch.writeString(contentTypePrefix)
	scratch.writeBytes(rec.ContentType)
	scratch.writeString(crlf)
	scratch.writeString(contentLengthPrefix)
	scratch.writeDecimal(uint32(len(rec.Body)))
	scratch.writeString(crlf)
	scratch.writeString(crlf)

	headerText := scratch.bytes()
	httpLen := len(headerText) + len(rec.Body)
	newTotal := off.Payload + httpLen

	if err := f.Resize(newTotal); err != nil {
		return VerdictDrop
	}

	// The buffer may have moved; re-derive every view.
	b := f.Bytes()
	eth := ethernetAt(b)
	ip := ipv4At(b[off.IP:])
	tcp := tcpAt(b[off.TCP:])

	// Turn the packet around.
	eth.SwapAddrs()
	ip.SwapAddrs()
	tcp.SwapPorts()

	ip.SetTotalLen(uint16(newTotal - off.IP))
	ip.SetChecksum(0)
	ip.SetChecksum(ipChecksum(b[off.IP : off.IP+ip.HeaderLen()]))

	// Sequence turn-around: acknowledge exactly one byte of the request.
	// This does not track real byte-stream state.
	seq, ack := tcp.Seq(), tcp.Ack()
	tcp.SetSeq(ack)
	tcp.SetAck(seq + 1)
	tcp.SetPushAck()

	if off.Payload+httpLen > len(b) {
		return VerdictDrop
	}
	copy(b[off.Payload:], headerText)
	copy(b[off.Payload+len(headerText):], rec.Body)

	tcp.SetChecksum(0)
	tcp.SetChecksum(tcpChecksum(ip.SrcIP(), ip.DstIP(), b[off.TCP:newTotal]))

	return VerdictTransmit
}
