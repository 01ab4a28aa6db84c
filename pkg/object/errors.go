package object

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("object not found")
	ErrInvalidFormat   = errors.New("invalid object format")
	ErrSizeMismatch    = errors.New("object size mismatch")
	ErrTruncatedObject = errors.New("truncated object")
	ErrTypeMismatch    = errors.New("object type mismatch")
	ErrInvalidHash     = errors.New("invalid object hash")
	ErrHashCollision   = errors.New("sha1 collision attack detected")
)

// SizeMismatchError reports a payload whose length differs from the size
// declared in its header. Truncated is set when the payload ran out early
// while being decoded; Err holds the underlying read error, if any.
type SizeMismatchError struct {
	Declared  int64
	Actual    int64
	Truncated bool
	Err       error
}

func (e *SizeMismatchError) Error() string {
	if e.Truncated {
		msg := fmt.Sprintf("%s: declared %d bytes, stream ended after %d", ErrTruncatedObject, e.Declared, e.Actual)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	}
	return fmt.Sprintf("%s: declared %d bytes, got %d", ErrSizeMismatch, e.Declared, e.Actual)
}

func (e *SizeMismatchError) Is(target error) bool {
	switch target {
	case ErrSizeMismatch:
		return true
	case ErrTruncatedObject:
		return e.Truncated
	}
	return false
}

func (e *SizeMismatchError) Unwrap() error {
	return e.Err
}
