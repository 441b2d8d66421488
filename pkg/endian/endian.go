// Package endian converts fixed-width integers and IEEE-754 single precision
// floats between the little-endian wire representation and the host's native
// representation.
//
// The host byte order is queried in exactly one place (HostIsBigEndian).
// Everything else in the module is endian-agnostic: it reads raw native words
// and passes them through FromLittleEndian*, or converts with ToLittleEndian*
// before storing native words.
package endian

import (
	"math"

	"golang.org/x/sys/cpu"
)

// HostIsBigEndian reports whether the build target stores multi-byte values
// most-significant byte first.
func HostIsBigEndian() bool {
	return cpu.IsBigEndian
}

// Swap16 reverses the byte order of v.
func Swap16(v uint16) uint16 {
	return v<<8 | v>>8
}

// Swap32 reverses the byte order of v.
func Swap32(v uint32) uint32 {
	return v<<24 |
		(v<<8)&0x00FF0000 |
		(v>>8)&0x0000FF00 |
		v>>24
}

// SwapFloat32 reverses the byte order of the bit pattern of v.
// NaN payloads are carried through unchanged apart from byte order.
func SwapFloat32(v float32) float32 {
	return math.Float32frombits(Swap32(math.Float32bits(v)))
}

// ToLittleEndian16 converts a native value to its little-endian word.
func ToLittleEndian16(v uint16) uint16 {
	if HostIsBigEndian() {
		return Swap16(v)
	}
	return v
}

// ToLittleEndian32 converts a native value to its little-endian word.
func ToLittleEndian32(v uint32) uint32 {
	if HostIsBigEndian() {
		return Swap32(v)
	}
	return v
}

// ToLittleEndianFloat32 converts a native float to its little-endian word.
func ToLittleEndianFloat32(v float32) float32 {
	if HostIsBigEndian() {
		return SwapFloat32(v)
	}
	return v
}

// FromLittleEndian16 converts a little-endian word to a native value.
func FromLittleEndian16(v uint16) uint16 {
	return ToLittleEndian16(v)
}

// FromLittleEndian32 converts a little-endian word to a native value.
func FromLittleEndian32(v uint32) uint32 {
	return ToLittleEndian32(v)
}

// FromLittleEndianFloat32 converts a little-endian word to a native float.
func FromLittleEndianFloat32(v float32) float32 {
	return ToLittleEndianFloat32(v)
}
