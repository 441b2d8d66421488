package container

import (
	"fmt"
	"sync"

	"github.com/eunmann/tdc/pkg/header"
)

// Transform converts payload bytes for one transform flag. Encode runs when
// writing, Decode when reading.
type Transform interface {
	Encode(payload []byte) ([]byte, error)
	Decode(payload []byte) ([]byte, error)
}

// transformFlags lists the flags that name payload transforms, in the order
// they are applied on decode. Encode applies them in reverse.
var transformFlags = []header.Flags{
	header.FlagHasChecksum,
	header.FlagEncrypted,
	header.FlagCompressed,
}

// Transforms is a registry of payload transforms keyed by header flag.
// None are built in: the format commits the flag bits but not their
// encodings, so callers register the stages they support.
type Transforms struct {
	mu     sync.RWMutex
	byFlag map[header.Flags]Transform
}

// NewTransforms returns an empty registry.
func NewTransforms() *Transforms {
	return &Transforms{byFlag: make(map[header.Flags]Transform)}
}

// Register installs t for flag, replacing any previous registration.
func (r *Transforms) Register(flag header.Flags, t Transform) error {
	if !isTransformFlag(flag) {
		return fmt.Errorf("%w: %s", ErrNotTransformFlag, flag)
	}
	r.mu.Lock()
	r.byFlag[flag] = t
	r.mu.Unlock()
	return nil
}

// Supports reports whether every transform flag set in flags has a
// registered transform.
func (r *Transforms) Supports(flags header.Flags) bool {
	_, err := r.stages(flags)
	return err == nil
}

// Decode undoes the transforms named by h.Flags. A payload with no
// transform flags is returned unchanged.
func (r *Transforms) Decode(h header.Header, payload []byte) ([]byte, error) {
	stages, err := r.stages(h.Flags)
	if err != nil {
		return nil, err
	}
	out := payload
	for i, t := range stages {
		if out, err = t.Decode(out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", stageFlags(h.Flags)[i], err)
		}
	}
	return out, nil
}

// Encode applies the transforms named by flags.
func (r *Transforms) Encode(flags header.Flags, payload []byte) ([]byte, error) {
	stages, err := r.stages(flags)
	if err != nil {
		return nil, err
	}
	names := stageFlags(flags)
	out := payload
	for i := len(stages) - 1; i >= 0; i-- {
		if out, err = stages[i].Encode(out); err != nil {
			return nil, fmt.Errorf("encode %s: %w", names[i], err)
		}
	}
	return out, nil
}

func (r *Transforms) stages(flags header.Flags) ([]Transform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stages []Transform
	for _, flag := range stageFlags(flags) {
		t, ok := r.byFlag[flag]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransform, flag)
		}
		stages = append(stages, t)
	}
	return stages, nil
}

func stageFlags(flags header.Flags) []header.Flags {
	var out []header.Flags
	for _, flag := range transformFlags {
		if flags.Has(flag) {
			out = append(out, flag)
		}
	}
	return out
}

func isTransformFlag(flag header.Flags) bool {
	for _, f := range transformFlags {
		if f == flag {
			return true
		}
	}
	return false
}
