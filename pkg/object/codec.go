package object

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// MaxHeaderLen bounds the scan for the NUL that terminates an object header.
// "commit " plus the 19 digits of the largest int64 fits with room to spare.
const MaxHeaderLen = 64

// Encode writes obj to w in loose-object form: zlib("type size\0payload").
// Exactly obj.Size payload bytes are streamed; a source that is shorter or
// longer than declared fails with a SizeMismatchError. The returned hash is
// the digest of the uncompressed envelope.
func Encode(w io.Writer, obj *Object, level int) (Hash, error) {
	if _, err := ParseObjectType(string(obj.Type)); err != nil {
		return ZeroHash, fmt.Errorf("encode: %w", err)
	}
	if obj.Size < 0 {
		return ZeroHash, fmt.Errorf("encode: negative size %d", obj.Size)
	}

	hw, err := NewHashWriter(w, level)
	if err != nil {
		return ZeroHash, fmt.Errorf("encode: %w", err)
	}
	if _, err := fmt.Fprintf(hw, "%s %d\x00", obj.Type, obj.Size); err != nil {
		return ZeroHash, fmt.Errorf("encode %s header: %w", obj.Type, err)
	}
	if _, err := io.CopyN(hw, obj, obj.Size); err != nil {
		return ZeroHash, fmt.Errorf("encode %s payload: %w", obj.Type, err)
	}

	extra, err := obj.hasTrailingData()
	if err != nil {
		return ZeroHash, fmt.Errorf("encode %s payload: %w", obj.Type, err)
	}
	if extra {
		rest, err := io.Copy(io.Discard, obj.src)
		if err != nil {
			return ZeroHash, fmt.Errorf("encode %s payload: %w", obj.Type, err)
		}
		return ZeroHash, fmt.Errorf("encode %s payload: %w", obj.Type,
			&SizeMismatchError{Declared: obj.Size, Actual: obj.Size + 1 + rest})
	}

	h, err := hw.Close()
	if err != nil {
		return ZeroHash, fmt.Errorf("encode %s: finish: %w", obj.Type, err)
	}
	return h, nil
}

// Decode inflates a loose object and parses its header. The returned
// object's payload is capped at the declared size, so a corrupt or hostile
// stream can never inflate past it; reading to the end verifies that the
// full declared size was present. The caller must Close the object.
func Decode(r io.Reader) (*Object, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		if errors.Is(err, zlib.ErrHeader) || errors.Is(err, zlib.ErrDictionary) || isCorruptStream(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return nil, fmt.Errorf("decode: inflate: %w", err)
	}
	br := bufio.NewReader(zr)

	header, err := readHeader(br)
	if err != nil {
		zr.Close()
		return nil, err
	}
	objType, size, err := parseHeader(header)
	if err != nil {
		zr.Close()
		return nil, err
	}

	obj := NewObject(objType, size, br)
	obj.closers = append(obj.closers, zr)
	return obj, nil
}

func readHeader(br *bufio.Reader) ([]byte, error) {
	buf := make([]byte, 0, 32)
	for len(buf) < MaxHeaderLen {
		b, err := br.ReadByte()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: header ends before NUL", ErrInvalidFormat)
		}
		if isCorruptStream(err) {
			return nil, fmt.Errorf("%w: header: %v", ErrInvalidFormat, err)
		}
		if err != nil {
			return nil, fmt.Errorf("decode: read header: %w", err)
		}
		if b == 0 {
			return buf, nil
		}
		buf = append(buf, b)
	}
	return nil, fmt.Errorf("%w: no NUL in first %d header bytes", ErrInvalidFormat, MaxHeaderLen)
}

// isCorruptStream reports errors caused by short or damaged compressed
// bytes.
func isCorruptStream(err error) bool {
	if err == nil {
		return false
	}
	var corrupt flate.CorruptInputError
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, zlib.ErrChecksum) ||
		errors.As(err, &corrupt)
}

func parseHeader(raw []byte) (ObjectType, int64, error) {
	if !utf8.Valid(raw) {
		return "", 0, fmt.Errorf("%w: header is not valid UTF-8", ErrInvalidFormat)
	}
	header := string(raw)
	kind, sizeText, ok := strings.Cut(header, " ")
	if !ok {
		return "", 0, fmt.Errorf("%w: malformed header %q", ErrInvalidFormat, header)
	}
	objType, err := ParseObjectType(kind)
	if err != nil {
		return "", 0, err
	}
	if !isDecimal(sizeText) {
		return "", 0, fmt.Errorf("%w: invalid size %q", ErrInvalidFormat, sizeText)
	}
	size, err := strconv.ParseInt(sizeText, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid size %q: %v", ErrInvalidFormat, sizeText, err)
	}
	return objType, size, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
