package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is picked from the file extension.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

func CompressionOf(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".zst":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

type fileReader struct {
	io.Reader
	closers []func() error
}

func (r *fileReader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open returns a reader over the decompressed contents of path and the
// on-disk size of the file.
func Open(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	var size int64
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}

	r := &fileReader{Reader: f, closers: []func() error{f.Close}}
	switch CompressionOf(path) {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("open gzip %s: %w", path, err)
		}
		r.Reader = zr
		r.closers = append(r.closers, zr.Close)
	case Zstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("open zstd %s: %w", path, err)
		}
		r.Reader = dec
		r.closers = append(r.closers, func() error { dec.Close(); return nil })
	case LZ4:
		r.Reader = lz4.NewReader(f)
	}
	return r, size, nil
}
