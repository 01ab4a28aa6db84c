package object

import (
	"errors"
	"hash"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compression levels accepted by NewHashWriter and WithCompressionLevel.
const (
	DefaultCompression = zlib.DefaultCompression
	NoCompression      = zlib.NoCompression
	BestSpeed          = zlib.BestSpeed
	BestCompression    = zlib.BestCompression
)

var errHashWriterClosed = errors.New("hash writer: write after close")

// HashWriter feeds every byte written to it through a running SHA-1 and a
// zlib compressor whose output goes to the wrapped writer. Close flushes the
// compressor and returns the digest of the uncompressed bytes.
type HashWriter struct {
	zw     *zlib.Writer
	hasher hash.Hash
	closed bool
}

// NewHashWriter wraps w. level is a zlib compression level.
func NewHashWriter(w io.Writer, level int) (*HashWriter, error) {
	zw, err := zlib.NewWriterLevel(strictWriter{w}, level)
	if err != nil {
		return nil, err
	}
	return &HashWriter{zw: zw, hasher: newHasher()}, nil
}

func (hw *HashWriter) Write(p []byte) (int, error) {
	if hw.closed {
		return 0, errHashWriterClosed
	}
	n, err := hw.zw.Write(p)
	hw.hasher.Write(p[:n])
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Close finalizes the compressed stream and returns the object digest.
// It does not close the wrapped writer.
func (hw *HashWriter) Close() (Hash, error) {
	if hw.closed {
		return ZeroHash, errHashWriterClosed
	}
	hw.closed = true
	if err := hw.zw.Close(); err != nil {
		return ZeroHash, err
	}
	return sumHasher(hw.hasher)
}

// strictWriter turns a silent short write from the sink into an error.
type strictWriter struct {
	w io.Writer
}

func (s strictWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}
