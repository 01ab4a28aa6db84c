package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
)

// Object is a typed payload of known size. The payload is streamed through
// Read and never has to be held in memory; Read fails with a
// SizeMismatchError if the source ends before Size bytes and never returns
// more than Size bytes.
type Object struct {
	Type ObjectType
	Size int64

	src     io.Reader
	closers []io.Closer
	read    int64
}

// NewObject wraps r as the payload of an object of the given type and
// declared size. The caller keeps ownership of r.
func NewObject(objType ObjectType, size int64, r io.Reader) *Object {
	return &Object{Type: objType, Size: size, src: r}
}

// NewBytesObject returns an object whose payload is data.
func NewBytesObject(objType ObjectType, data []byte) *Object {
	return NewObject(objType, int64(len(data)), bytes.NewReader(data))
}

// OpenBlobFile opens a regular file as a blob. The size is taken from the
// open file, so a file that shrinks while being read is reported as a size
// mismatch rather than stored short.
func OpenBlobFile(path string) (*Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open blob %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("open blob %s: not a regular file", path)
	}
	obj := NewObject(TypeBlob, info.Size(), f)
	obj.closers = append(obj.closers, f)
	return obj, nil
}

// SymlinkBlob returns a blob holding the target of the symbolic link at path.
func SymlinkBlob(path string) (*Object, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return nil, fmt.Errorf("read symlink %s: %w", path, err)
	}
	return NewBytesObject(TypeBlob, []byte(target)), nil
}

func (o *Object) Read(p []byte) (int, error) {
	remaining := o.Size - o.read
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := o.src.Read(p)
	o.read += int64(n)
	if o.read < o.Size {
		switch {
		case err == io.EOF:
			return n, &SizeMismatchError{Declared: o.Size, Actual: o.read, Truncated: true}
		case errors.Is(err, io.ErrUnexpectedEOF):
			// A cut-short object file ends the inflater mid-stream.
			return n, &SizeMismatchError{Declared: o.Size, Actual: o.read, Truncated: true, Err: err}
		}
	}
	return n, err
}

// Remaining returns how many declared payload bytes have not been read yet.
func (o *Object) Remaining() int64 {
	return o.Size - o.read
}

// Bytes reads the rest of the payload into memory.
func (o *Object) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	const maxPrealloc = 1 << 20
	if o.Remaining() > 0 && o.Remaining() <= maxPrealloc {
		buf.Grow(int(o.Remaining()))
	}
	if _, err := buf.ReadFrom(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases any file or decompressor backing the payload.
func (o *Object) Close() error {
	var err error
	for i := len(o.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, o.closers[i].Close())
	}
	o.closers = nil
	return err
}

// hasTrailingData reports whether the source produces bytes beyond Size.
func (o *Object) hasTrailingData() (bool, error) {
	var one [1]byte
	for i := 0; i < 100; i++ {
		n, err := o.src.Read(one[:])
		if n > 0 {
			return true, nil
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return false, io.ErrNoProgress
}
