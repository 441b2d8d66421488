package header

// WarnKind names a non-fatal observation made while decoding.
type WarnKind int

const (
	// WarnReservedNonZero means the reserved bytes hold data, probably
	// written by a newer minor version.
	WarnReservedNonZero WarnKind = iota + 1
	// WarnUnknownFlags means flag bits outside KnownFlags are set.
	WarnUnknownFlags
)

func (k WarnKind) String() string {
	switch k {
	case WarnReservedNonZero:
		return "reserved_nonzero"
	case WarnUnknownFlags:
		return "unknown_flags"
	default:
		return "unknown"
	}
}

// Warning is delivered to a WarnFunc for a header that decoded successfully.
type Warning struct {
	Kind   WarnKind
	Header Header
}

// WarnFunc receives decode warnings.
type WarnFunc func(Warning)
