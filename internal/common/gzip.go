package common

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// MaxDecompressedSize caps UnGzip output so a small hostile input cannot
// expand without bound
const MaxDecompressedSize = 64 << 20

// Gzip compresses data at the best-compression level
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnGzip decompresses gzip data, failing when the output exceeds MaxDecompressedSize
func UnGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	out, err := io.ReadAll(io.LimitReader(reader, MaxDecompressedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecompressedSize {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", MaxDecompressedSize)
	}
	return out, nil
}
