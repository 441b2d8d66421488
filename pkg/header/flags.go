package header

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a packed format revision: major in the high byte, minor in the low.
type Version uint16

// MakeVersion packs a major and minor revision.
func MakeVersion(major, minor uint8) Version {
	return Version(uint16(major)<<8 | uint16(minor))
}

// Major returns the major revision.
func (v Version) Major() uint8 { return uint8(v >> 8) }

// Minor returns the minor revision.
func (v Version) Minor() uint8 { return uint8(v) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// ParseVersion parses "major.minor" (or a bare "major", meaning minor 0).
// Each part is a decimal number in 0-255 and the whole string must match.
func ParseVersion(s string) (Version, error) {
	majorStr, minorStr, hasMinor := strings.Cut(s, ".")
	major, err := strconv.ParseUint(majorStr, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("parse version %q: major: %w", s, err)
	}
	var minor uint64
	if hasMinor {
		minor, err = strconv.ParseUint(minorStr, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("parse version %q: minor: %w", s, err)
		}
	}
	return MakeVersion(uint8(major), uint8(minor)), nil
}

// Flags is the header feature bitset. Only bits 0-3 carry meaning in
// format version 1; the rest are kept as-is so later revisions can assign them.
type Flags uint16

const (
	// FlagCompressed marks a compressed payload.
	FlagCompressed Flags = 1 << 0
	// FlagEncrypted marks an encrypted payload.
	FlagEncrypted Flags = 1 << 1
	// FlagHasChecksum marks a trailing checksum after the payload.
	FlagHasChecksum Flags = 1 << 2
	// FlagBigEndian marks big-endian payload bytes. Header fields stay
	// little-endian regardless.
	FlagBigEndian Flags = 1 << 3

	// KnownFlags is the set of bits with a committed meaning.
	KnownFlags = FlagCompressed | FlagEncrypted | FlagHasChecksum | FlagBigEndian
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagCompressed, "compressed"},
	{FlagEncrypted, "encrypted"},
	{FlagHasChecksum, "checksum"},
	{FlagBigEndian, "big-endian"},
}

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// With returns f with the bits of f2 set.
func (f Flags) With(f2 Flags) Flags { return f | f2 }

// Unknown returns the bits outside KnownFlags.
func (f Flags) Unknown() Flags { return f &^ KnownFlags }

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if u := f.Unknown(); u != 0 {
		parts = append(parts, fmt.Sprintf("%#04x", uint16(u)))
	}
	return strings.Join(parts, "|")
}
