package fastpath

import "firestige.xyz/strix/internal/table"

// MaxPathLen bounds the request path scan. Paths longer than this are not
// served by the fast path; the frame falls through to the normal stack.
const MaxPathLen = 256

const methodGet = "GET "

// HashPath computes the djb2 hash of path: seed 5381, h = h*33 + c for each
// byte. The control plane must use the same function when keying the
// response table.
func HashPath(path []byte) uint32 {
	h := uint32(5381)
	n := len(path)
	if n > MaxPathLen {
		n = MaxPathLen
	}
	for i := 0; i < n; i++ {
		h = h<<5 + h + uint32(path[i])
	}
	return h
}

// isPathEnd reports whether c terminates the path token.
func isPathEnd(c byte) bool {
	return c == ' ' || c == '\r' || c == '\n' || c == 0
}

// parseRequest extracts (path hash, encoding) from a TCP payload that should
// begin with an HTTP/1.1 GET request line. The encoding selector is fixed at
// identity; Accept-Encoding negotiation is an unfinished extension point.
func parseRequest(payload []byte) (hash uint32, encoding uint8, ok bool) {
	if len(payload) < len(methodGet) {
		return 0, 0, false
	}
	if string(payload[:len(methodGet)]) != methodGet {
		return 0, 0, false
	}

	path := payload[len(methodGet):]
	// A terminator at index MaxPathLen still yields a legal path of
	// exactly MaxPathLen bytes, hence the +1 scan bound.
	bound := len(path)
	if bound > MaxPathLen+1 {
		bound = MaxPathLen + 1
	}

	pathLen := -1
	for i := 0; i < bound; i++ {
		if isPathEnd(path[i]) {
			pathLen = i
			break
		}
	}
	if pathLen < 0 {
		if len(path) > MaxPathLen {
			// No terminator within the bound: path too long.
			return 0, 0, false
		}
		// Payload ends mid-token; hash what we have. The lookup will
		// miss unless the table was keyed on the same prefix.
		pathLen = len(path)
	}
	if pathLen == 0 {
		return 0, 0, false
	}

	return HashPath(path[:pathLen]), table.EncodingIdentity, true
}
