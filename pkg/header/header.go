// Package header implements the fixed 32-byte header of the tagged data
// container format.
//
// Layout (all multi-byte fields little-endian):
//
//	0x00  4  magic        "TDCF"
//	0x04  2  version      high byte major, low byte minor
//	0x06  2  flags        bitset, see Flags
//	0x08  4  data_offset  payload offset from the start of the container
//	0x0C  4  data_size    payload length
//	0x10  4  metadata     IEEE-754 single precision
//	0x14  12 reserved
//
// Every field is read and written individually at its offset; nothing
// depends on Go struct layout. The package performs no I/O and never logs.
package header

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/eunmann/tdc/pkg/endian"
)

// Size is the encoded header length in bytes.
const Size = 32

// ReservedSize is the length of the reserved trailer of the header.
const ReservedSize = 12

// MajorVersion is the only major revision this codec accepts.
const MajorVersion uint8 = 1

// CurrentVersion is the revision written by New.
const CurrentVersion = Version(MajorVersion) << 8

// Magic identifies tagged data container files.
var Magic = [4]byte{'T', 'D', 'C', 'F'}

// Field offsets.
const (
	offMagic      = 0x00
	offVersion    = 0x04
	offFlags      = 0x06
	offDataOffset = 0x08
	offDataSize   = 0x0C
	offMetadata   = 0x10
	offReserved   = 0x14
)

// Header is the decoded form of the container header. It is a plain value;
// transformations return a new Header.
type Header struct {
	Magic      [4]byte
	Version    Version
	Flags      Flags
	DataOffset uint32
	DataSize   uint32
	Metadata   float32 // application defined; NaN and Inf are legal
	Reserved   [ReservedSize]byte
}

// New returns a header for a payload of dataSize bytes placed directly after
// the header, stamped with the current version and zero reserved bytes.
func New(flags Flags, dataSize uint32, metadata float32) Header {
	return Header{
		Magic:      Magic,
		Version:    CurrentVersion,
		Flags:      flags,
		DataOffset: Size,
		DataSize:   dataSize,
		Metadata:   metadata,
	}
}

// ReservedZero reports whether all reserved bytes are zero.
func (h Header) ReservedZero() bool {
	return h.Reserved == [ReservedSize]byte{}
}

// End returns the offset one past the last payload byte.
func (h Header) End() uint64 {
	return uint64(h.DataOffset) + uint64(h.DataSize)
}

func (h Header) String() string {
	return fmt.Sprintf("%q v%s flags=%s offset=%d size=%d metadata=%g",
		h.Magic[:], h.Version, h.Flags, h.DataOffset, h.DataSize, h.Metadata)
}

// Validate checks h against the format rules in a fixed order and returns
// the first violation: magic, major version, data offset, data size.
// Reserved bytes and unassigned flag bits are never a validation failure.
func Validate(h Header) error {
	if h.Magic != Magic {
		return &InvalidMagicError{Found: h.Magic}
	}
	if h.Version.Major() != MajorVersion {
		return &IncompatibleVersionError{
			Major:         h.Version.Major(),
			Minor:         h.Version.Minor(),
			ExpectedMajor: MajorVersion,
		}
	}
	if h.DataOffset < Size {
		return &InvalidDataOffsetError{Found: h.DataOffset, Minimum: Size}
	}
	if h.DataSize == 0 {
		return ErrEmptyPayload
	}
	return nil
}

// Decode reads and validates a header from the first Size bytes of buf.
// Bytes past the header are ignored.
func Decode(buf []byte) (Header, error) {
	return DecodeWarn(buf, nil)
}

// DecodeWarn is Decode with non-fatal observations (non-zero reserved bytes,
// unassigned flag bits) reported to warn. Warnings are only reported for
// headers that pass validation. warn may be nil.
func DecodeWarn(buf []byte, warn WarnFunc) (Header, error) {
	if len(buf) < Size {
		return Header{}, fmt.Errorf("decode header: %w",
			&BufferTooSmallError{Actual: len(buf), Required: Size})
	}

	var h Header
	copy(h.Magic[:], buf[offMagic:offMagic+4])
	h.Version = Version(endian.FromLittleEndian16(binary.NativeEndian.Uint16(buf[offVersion:])))
	h.Flags = Flags(endian.FromLittleEndian16(binary.NativeEndian.Uint16(buf[offFlags:])))
	h.DataOffset = endian.FromLittleEndian32(binary.NativeEndian.Uint32(buf[offDataOffset:]))
	h.DataSize = endian.FromLittleEndian32(binary.NativeEndian.Uint32(buf[offDataSize:]))
	h.Metadata = endian.FromLittleEndianFloat32(
		math.Float32frombits(binary.NativeEndian.Uint32(buf[offMetadata:])))
	copy(h.Reserved[:], buf[offReserved:Size])

	if err := Validate(h); err != nil {
		return Header{}, fmt.Errorf("decode header: %w", err)
	}

	if warn != nil {
		if !h.ReservedZero() {
			warn(Warning{Kind: WarnReservedNonZero, Header: h})
		}
		if h.Flags.Unknown() != 0 {
			warn(Warning{Kind: WarnUnknownFlags, Header: h})
		}
	}
	return h, nil
}

// Encode validates h and writes it into dst[:Size]. dst is never resized;
// bytes past Size are left untouched. Reserved bytes are written as held in
// h, so headers from New produce zero padding.
func Encode(h Header, dst []byte) error {
	if len(dst) < Size {
		return fmt.Errorf("encode header: %w",
			&BufferTooSmallError{Actual: len(dst), Required: Size})
	}
	if err := Validate(h); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	copy(dst[offMagic:offMagic+4], h.Magic[:])
	binary.NativeEndian.PutUint16(dst[offVersion:], endian.ToLittleEndian16(uint16(h.Version)))
	binary.NativeEndian.PutUint16(dst[offFlags:], endian.ToLittleEndian16(uint16(h.Flags)))
	binary.NativeEndian.PutUint32(dst[offDataOffset:], endian.ToLittleEndian32(h.DataOffset))
	binary.NativeEndian.PutUint32(dst[offDataSize:], endian.ToLittleEndian32(h.DataSize))
	binary.NativeEndian.PutUint32(dst[offMetadata:],
		math.Float32bits(endian.ToLittleEndianFloat32(h.Metadata)))
	copy(dst[offReserved:Size], h.Reserved[:])
	return nil
}

// AppendEncode appends the encoded header to dst.
func AppendEncode(dst []byte, h Header) ([]byte, error) {
	n := len(dst)
	dst = append(dst, make([]byte, Size)...)
	if err := Encode(h, dst[n:]); err != nil {
		return dst[:n], err
	}
	return dst, nil
}

// HasMagic reports whether buf starts with the container signature. It does
// not validate anything else and is meant for cheap format sniffing.
func HasMagic(buf []byte) bool {
	return len(buf) >= len(Magic) && bytes.Equal(buf[:len(Magic)], Magic[:])
}
