package container

import (
	"bytes"
	"errors"
	"testing"

	"github.com/eunmann/tdc/pkg/header"
)

// tagTransform wraps payloads in a tag so tests can observe stage order.
type tagTransform struct{ tag string }

func (x tagTransform) Encode(p []byte) ([]byte, error) {
	return append([]byte(x.tag+"("), append(p, ')')...), nil
}

func (x tagTransform) Decode(p []byte) ([]byte, error) {
	prefix := []byte(x.tag + "(")
	if !bytes.HasPrefix(p, prefix) || !bytes.HasSuffix(p, []byte(")")) {
		return nil, errors.New("not wrapped by " + x.tag)
	}
	return p[len(prefix) : len(p)-1], nil
}

func TestTransformsNoFlags(t *testing.T) {
	r := NewTransforms()
	h := header.New(header.FlagBigEndian, 3, 0)

	out, err := r.Decode(h, []byte("abc"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(out) != "abc" {
		t.Errorf("Decode = %q, want abc", out)
	}
	if !r.Supports(h.Flags) {
		t.Error("Supports(big-endian) = false")
	}
}

func TestTransformsUnregistered(t *testing.T) {
	r := NewTransforms()
	h := header.New(header.FlagCompressed, 3, 0)

	if r.Supports(h.Flags) {
		t.Error("Supports(compressed) = true on empty registry")
	}
	if _, err := r.Decode(h, []byte("abc")); !errors.Is(err, ErrUnsupportedTransform) {
		t.Errorf("Decode = %v, want ErrUnsupportedTransform", err)
	}
	if _, err := r.Encode(h.Flags, []byte("abc")); !errors.Is(err, ErrUnsupportedTransform) {
		t.Errorf("Encode = %v, want ErrUnsupportedTransform", err)
	}
}

func TestTransformsRegisterRejectsNonTransformFlags(t *testing.T) {
	r := NewTransforms()
	for _, flag := range []header.Flags{header.FlagBigEndian, 0, header.FlagCompressed | header.FlagEncrypted, 0x0100} {
		if err := r.Register(flag, tagTransform{"x"}); !errors.Is(err, ErrNotTransformFlag) {
			t.Errorf("Register(%s) = %v, want ErrNotTransformFlag", flag, err)
		}
	}
}

func TestTransformsOrder(t *testing.T) {
	r := NewTransforms()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(r.Register(header.FlagCompressed, tagTransform{"z"}))
	must(r.Register(header.FlagEncrypted, tagTransform{"e"}))
	must(r.Register(header.FlagHasChecksum, tagTransform{"c"}))

	flags := header.FlagCompressed | header.FlagEncrypted | header.FlagHasChecksum
	encoded, err := r.Encode(flags, []byte("data"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(encoded) != "c(e(z(data)))" {
		t.Errorf("Encode = %q, want c(e(z(data)))", encoded)
	}

	h := header.New(flags, uint32(len(encoded)), 0)
	decoded, err := r.Decode(h, encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(decoded) != "data" {
		t.Errorf("Decode = %q, want data", decoded)
	}

	if _, err := r.Decode(h, []byte("garbage")); err == nil {
		t.Error("Decode(garbage) succeeded")
	}
}
