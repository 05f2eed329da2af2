package routes

import (
	"bytes"
	"fmt"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// minCompressSize is the body size below which compression is not worth
// the table entries.
const minCompressSize = 1024

// variants holds the precompressed encodings of one body. Plain is always
// set; the others are nil when the content was not worth compressing or a
// variant came out larger than the original.
type variants struct {
	Plain  []byte
	Gzip   []byte
	Brotli []byte
	Zstd   []byte
}

var zstdEncoder *zstd.Encoder

func init() {
	// EncodeAll on a shared encoder is concurrency-safe.
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("zstd encoder init: %v", err))
	}
}

// compressVariants produces the encoding variants for content.
func compressVariants(content []byte, compressible bool) (variants, error) {
	v := variants{Plain: content}
	if !compressible || len(content) < minCompressSize {
		return v, nil
	}

	gz, err := gzipData(content)
	if err != nil {
		return v, fmt.Errorf("gzip: %w", err)
	}
	br, err := brotliData(content)
	if err != nil {
		return v, fmt.Errorf("brotli: %w", err)
	}
	zs := zstdEncoder.EncodeAll(content, nil)

	// Keep only variants that actually save bytes.
	if len(gz) < len(content) {
		v.Gzip = gz
	}
	if len(br) < len(content) {
		v.Brotli = br
	}
	if len(zs) < len(content) {
		v.Zstd = zs
	}
	return v, nil
}

func gzipData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
