package header

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooSmall indicates a buffer shorter than the 32-byte header.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrInvalidMagic indicates the signature doesn't match.
	ErrInvalidMagic = errors.New("invalid magic")
	// ErrIncompatibleVersion indicates an unsupported major format version.
	ErrIncompatibleVersion = errors.New("incompatible format version")
	// ErrInvalidDataOffset indicates a payload offset inside the header.
	ErrInvalidDataOffset = errors.New("invalid data offset")
	// ErrEmptyPayload indicates a zero-length payload.
	ErrEmptyPayload = errors.New("empty payload")
)

// BufferTooSmallError reports the length of a rejected buffer.
type BufferTooSmallError struct {
	Actual   int
	Required int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("buffer too small: %d < %d", e.Actual, e.Required)
}

func (e *BufferTooSmallError) Is(target error) bool {
	return target == ErrBufferTooSmall
}

// InvalidMagicError carries the signature that was found.
type InvalidMagicError struct {
	Found [4]byte
}

func (e *InvalidMagicError) Error() string {
	return fmt.Sprintf("invalid magic: got %q, want %q", e.Found[:], Magic[:])
}

func (e *InvalidMagicError) Is(target error) bool {
	return target == ErrInvalidMagic
}

// IncompatibleVersionError carries the version found and the major version
// this codec reads.
type IncompatibleVersionError struct {
	Major         uint8
	Minor         uint8
	ExpectedMajor uint8
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("incompatible format version %d.%d (supported major %d)",
		e.Major, e.Minor, e.ExpectedMajor)
}

func (e *IncompatibleVersionError) Is(target error) bool {
	return target == ErrIncompatibleVersion
}

// InvalidDataOffsetError carries the rejected offset and the smallest legal one.
type InvalidDataOffsetError struct {
	Found   uint32
	Minimum uint32
}

func (e *InvalidDataOffsetError) Error() string {
	return fmt.Sprintf("invalid data offset: %d < %d", e.Found, e.Minimum)
}

func (e *InvalidDataOffsetError) Is(target error) bool {
	return target == ErrInvalidDataOffset
}
