// Package container reads and writes tagged data container files: a 32-byte
// header (see package header), zero padding up to the header's data offset,
// then the payload.
//
// The header codec itself performs no I/O; this package sources bytes from
// files, memory maps, and streams and hands them to it.
package container

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/eunmann/tdc/internal/logctx"
	"github.com/eunmann/tdc/pkg/fileutil"
	"github.com/eunmann/tdc/pkg/header"
)

// zeroPad is the padding source between the header and the payload.
var zeroPad [32 * 1024]byte

// Write writes a complete container to w.
func Write(w io.Writer, h header.Header, payload []byte) error {
	if uint64(len(payload)) != uint64(h.DataSize) {
		return fmt.Errorf("%w: %d bytes, header declares %d", ErrPayloadSize, len(payload), h.DataSize)
	}

	var hdr [header.Size]byte
	if err := header.Encode(h, hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for pad := int64(h.DataOffset) - header.Size; pad > 0; {
		n := int64(len(zeroPad))
		if pad < n {
			n = pad
		}
		if _, err := w.Write(zeroPad[:n]); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
		pad -= n
	}

	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// Encode returns a complete container as a byte slice.
func Encode(h header.Header, payload []byte) ([]byte, error) {
	if uint64(len(payload)) != uint64(h.DataSize) {
		return nil, fmt.Errorf("%w: %d bytes, header declares %d", ErrPayloadSize, len(payload), h.DataSize)
	}
	if err := header.Validate(h); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	buf := make([]byte, 0, h.End())
	w := &sliceWriter{buf: buf}
	if err := Write(w, h, payload); err != nil {
		return nil, err
	}
	return w.buf, nil
}

type sliceWriter struct{ buf []byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// WriteFile writes a container to path atomically: the file is built in
// tmpDir (or next to path when tmpDir is empty) and renamed into place.
func WriteFile(tmpDir, path string, h header.Header, payload []byte) error {
	return fileutil.WriteTmpThenMove(tmpDir, path, func(tmpPath string) error {
		f, err := os.Create(tmpPath)
		if err != nil {
			return fmt.Errorf("create container: %w", err)
		}
		bw := bufio.NewWriter(f)
		if err := Write(bw, h, payload); err != nil {
			f.Close()
			return err
		}
		if err := bw.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("flush: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close container: %w", err)
		}
		return nil
	})
}

// ReadHeader reads and validates the header at the start of r.
func ReadHeader(ctx context.Context, r io.ReaderAt) (header.Header, error) {
	var buf [header.Size]byte
	n, err := r.ReadAt(buf[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return header.Header{}, fmt.Errorf("read header: %w", err)
	}
	return header.DecodeWarn(buf[:n], LogWarnings(ctx))
}

// Read reads a whole container from a stream: header, padding, payload.
// The payload is read exactly; trailing bytes are left in r.
func Read(ctx context.Context, r io.Reader) (header.Header, []byte, error) {
	var buf [header.Size]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return header.Header{}, nil, fmt.Errorf("read header: %w", err)
	}
	h, err := header.DecodeWarn(buf[:n], LogWarnings(ctx))
	if err != nil {
		return header.Header{}, nil, err
	}

	if pad := int64(h.DataOffset) - header.Size; pad > 0 {
		skipped, err := io.CopyN(io.Discard, r, pad)
		if err != nil {
			return header.Header{}, nil, fmt.Errorf("%w: padding ends at %d of %d",
				ErrTruncated, header.Size+skipped, h.DataOffset)
		}
	}

	// DataSize is untrusted; the buffer grows only as bytes arrive.
	var payload bytes.Buffer
	if got, err := io.CopyN(&payload, r, int64(h.DataSize)); err != nil {
		return header.Header{}, nil, fmt.Errorf("%w: payload %d of %d bytes",
			ErrTruncated, got, h.DataSize)
	}
	return h, payload.Bytes(), nil
}

// PayloadByteOrder returns the byte order of multi-byte values inside the
// payload. It only reflects FlagBigEndian; header fields are always
// little-endian.
func PayloadByteOrder(h header.Header) binary.ByteOrder {
	if h.Flags.Has(header.FlagBigEndian) {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// LogWarnings returns a header.WarnFunc that logs decode warnings through
// the context logger.
func LogWarnings(ctx context.Context) header.WarnFunc {
	return func(w header.Warning) {
		log := logctx.FromContext(ctx)
		ev := log.Warn().Str("warning", w.Kind.String()).Str("version", w.Header.Version.String())
		switch w.Kind {
		case header.WarnReservedNonZero:
			ev = ev.Hex("reserved", w.Header.Reserved[:])
		case header.WarnUnknownFlags:
			ev = ev.Uint16("unknown_flags", uint16(w.Header.Flags.Unknown()))
		}
		ev.Msg("container header uses fields this version does not interpret")
	}
}
