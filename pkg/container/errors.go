package container

import "errors"

var (
	// ErrPayloadSize indicates a payload whose length differs from the
	// header's DataSize.
	ErrPayloadSize = errors.New("payload length does not match header")
	// ErrTruncated indicates a container shorter than DataOffset+DataSize.
	ErrTruncated = errors.New("container truncated")
	// ErrUnsupportedTransform indicates a payload flag with no registered transform.
	ErrUnsupportedTransform = errors.New("unsupported payload transform")
	// ErrNotTransformFlag indicates a registration for a flag that does not
	// name a payload transform.
	ErrNotTransformFlag = errors.New("flag is not a payload transform")
)
