package object

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const headerCacheSize = 4096

type objectHeader struct {
	objType ObjectType
	size    int64
}

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	root    string
	level   int
	logger  *zap.Logger
	headers *lru.Cache[Hash, objectHeader]
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCompressionLevel sets the zlib level used for new objects.
func WithCompressionLevel(level int) StoreOption {
	return func(s *Store) { s.level = level }
}

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string, opts ...StoreOption) *Store {
	headers, _ := lru.New[Hash, objectHeader](headerCacheSize)
	s := &Store{
		root:    root,
		level:   DefaultCompression,
		logger:  zap.NewNop(),
		headers: headers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory that holds objects/.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

// ObjectPath returns the filesystem path for a given hash.
func (s *Store) ObjectPath(h Hash) string {
	hexHash := h.String()
	return filepath.Join(s.objectsDir(), hexHash[:2], hexHash[2:])
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	_, err := os.Stat(s.ObjectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. The object is
// compressed into a uniquely named temp file while being hashed, then
// renamed into objects/xx/yyyy. A partially written object is never visible
// at its final path. Writing content that is already stored succeeds and
// leaves the existing file in place.
func (s *Store) Write(obj *Object) (Hash, error) {
	if err := os.MkdirAll(s.objectsDir(), 0o755); err != nil {
		return ZeroHash, fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(s.objectsDir(), ".tmp-obj-*")
	if err != nil {
		return ZeroHash, fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	h, err := Encode(tmp, obj, s.level)
	if err != nil {
		err = multierr.Combine(fmt.Errorf("object write: %w", err), tmp.Close(), os.Remove(tmpName))
		return ZeroHash, err
	}
	if err := tmp.Close(); err != nil {
		return ZeroHash, multierr.Append(fmt.Errorf("object write close: %w", err), os.Remove(tmpName))
	}

	if s.Has(h) {
		if err := os.Remove(tmpName); err != nil {
			s.logger.Warn("remove duplicate temp object", zap.String("path", tmpName), zap.Error(err))
		}
		s.logger.Debug("object exists", zap.Stringer("hash", h), zap.String("type", string(obj.Type)))
		return h, nil
	}

	dest := s.ObjectPath(h)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return ZeroHash, multierr.Append(fmt.Errorf("object write mkdir: %w", err), os.Remove(tmpName))
	}
	if err := os.Chmod(tmpName, 0o444); err != nil {
		return ZeroHash, multierr.Append(fmt.Errorf("object write chmod: %w", err), os.Remove(tmpName))
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return ZeroHash, multierr.Append(fmt.Errorf("object write rename: %w", err), os.Remove(tmpName))
	}

	s.headers.Add(h, objectHeader{objType: obj.Type, size: obj.Size})
	s.logger.Debug("object written",
		zap.Stringer("hash", h),
		zap.String("type", string(obj.Type)),
		zap.Int64("size", obj.Size),
	)
	return h, nil
}

// Open returns a streaming reader for the object with the given hash. The
// caller must Close it. ErrNotFound is returned if no such object exists.
func (s *Store) Open(h Hash) (*Object, error) {
	f, err := os.Open(s.ObjectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	obj, err := Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	obj.closers = append([]io.Closer{f}, obj.closers...)
	s.headers.Add(h, objectHeader{objType: obj.Type, size: obj.Size})
	return obj, nil
}

// Stat returns an object's type and payload size without reading the
// payload. Cached headers are only trusted while the object file exists.
func (s *Store) Stat(h Hash) (ObjectType, int64, error) {
	if hdr, ok := s.headers.Get(h); ok {
		if s.Has(h) {
			return hdr.objType, hdr.size, nil
		}
		s.headers.Remove(h)
	}
	obj, err := s.Open(h)
	if err != nil {
		return "", 0, err
	}
	objType, size := obj.Type, obj.Size
	if err := obj.Close(); err != nil {
		return "", 0, fmt.Errorf("object stat %s: %w", h, err)
	}
	return objType, size, nil
}

// ComputeHash returns the hash obj would be stored under without writing
// anything. The object's payload is consumed.
func ComputeHash(obj *Object) (Hash, error) {
	return Encode(io.Discard, obj, NoCompression)
}

// read fully reads an object of the wanted type.
func (s *Store) read(h Hash, want ObjectType) (data []byte, err error) {
	obj, err := s.Open(h)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, obj.Close())
	}()
	if obj.Type != want {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, obj.Type, want)
	}
	data, err = obj.Bytes()
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return data, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob stores data as a blob.
func (s *Store) WriteBlob(data []byte) (Hash, error) {
	return s.Write(NewBytesObject(TypeBlob, data))
}

// WriteBlobFile streams a regular file into the store as a blob.
func (s *Store) WriteBlobFile(path string) (h Hash, err error) {
	obj, err := OpenBlobFile(path)
	if err != nil {
		return ZeroHash, err
	}
	defer func() {
		err = multierr.Append(err, obj.Close())
	}()
	h, err = s.Write(obj)
	if err != nil {
		return ZeroHash, fmt.Errorf("write blob %s: %w", path, err)
	}
	return h, nil
}

// WriteSymlink stores the target of the symbolic link at path as a blob.
func (s *Store) WriteSymlink(path string) (Hash, error) {
	obj, err := SymlinkBlob(path)
	if err != nil {
		return ZeroHash, err
	}
	return s.Write(obj)
}

// ReadBlob reads a blob's full content.
func (s *Store) ReadBlob(h Hash) ([]byte, error) {
	return s.read(h, TypeBlob)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Write(NewBytesObject(TypeTree, MarshalTree(tr)))
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.read(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(NewBytesObject(TypeCommit, MarshalCommit(c)))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.read(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}
