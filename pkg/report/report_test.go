package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/eunmann/tdc/pkg/container"
	"github.com/eunmann/tdc/pkg/header"
)

func TestFromHeader(t *testing.T) {
	h := header.New(header.FlagCompressed|header.Flags(0x0100), 3, 1.5)
	h.Reserved[2] = 1

	row := FromHeader("a.tdc", h, []byte("abc"))
	if !row.Valid || row.Error != "" {
		t.Errorf("row = %+v, want valid", row)
	}
	if row.Version != "1.0" {
		t.Errorf("Version = %q", row.Version)
	}
	if row.Flags != 0x0101 || row.UnknownFlags != 0x0100 {
		t.Errorf("Flags = %#x, UnknownFlags = %#x", row.Flags, row.UnknownFlags)
	}
	if !row.ReservedNonZero {
		t.Error("ReservedNonZero = false")
	}
	if row.PayloadBLAKE3 != Digest([]byte("abc")) || len(row.PayloadBLAKE3) != 64 {
		t.Errorf("PayloadBLAKE3 = %q", row.PayloadBLAKE3)
	}

	if row := FromHeader("b.tdc", h, nil); row.PayloadBLAKE3 != "" {
		t.Errorf("digest without payload: %q", row.PayloadBLAKE3)
	}
}

func TestFromError(t *testing.T) {
	row := FromError("x", errors.New("boom"))
	if row.Valid || row.Error != "boom" || row.Source != "x" {
		t.Errorf("row = %+v", row)
	}
}

func TestDigest(t *testing.T) {
	// BLAKE3 of the empty input.
	const empty = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := Digest(nil); got != empty {
		t.Errorf("Digest(nil) = %s, want %s", got, empty)
	}
	if Digest([]byte("a")) == Digest([]byte("b")) {
		t.Error("distinct payloads share a digest")
	}
}

func TestParquetRoundTrip(t *testing.T) {
	rows := []Row{
		FromHeader("one.tdc", header.New(0, 10, 2), []byte("0123456789")),
		FromHeader("two.tdc", header.New(header.FlagBigEndian, 99, -1), nil),
		FromError("three.tdc", header.ErrInvalidMagic),
	}

	var buf bytes.Buffer
	if err := WriteParquet(&buf, rows); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ReadParquet failed: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("read %d rows, want %d", len(got), len(rows))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], rows[i])
		}
	}
}

func writeContainer(t *testing.T, path string, h header.Header, payload []byte) {
	t.Helper()
	if err := container.WriteFile("", path, h, payload); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.tdc")
	writeContainer(t, good, header.New(0, 5, 0), []byte("hello"))

	padded := filepath.Join(dir, "padded.tdc")
	ph := header.New(header.FlagBigEndian, 2, 7)
	ph.DataOffset = 128
	writeContainer(t, padded, ph, []byte("hi"))

	garbage := filepath.Join(dir, "garbage.bin")
	if err := os.WriteFile(garbage, bytes.Repeat([]byte{1}, 40), 0644); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.tdc")

	paths := []string{good, garbage, padded, missing}
	rows, err := Scan(context.Background(), paths, ScanConfig{Workers: 2, Digest: true})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(rows) != len(paths) {
		t.Fatalf("rows = %d, want %d", len(rows), len(paths))
	}

	for i, p := range paths {
		if rows[i].Source != p {
			t.Errorf("row %d source = %q, want %q", i, rows[i].Source, p)
		}
	}
	if !rows[0].Valid || rows[0].PayloadBLAKE3 != Digest([]byte("hello")) {
		t.Errorf("good row = %+v", rows[0])
	}
	if rows[1].Valid || rows[1].Error == "" {
		t.Errorf("garbage row = %+v", rows[1])
	}
	if !rows[2].Valid || rows[2].DataOffset != 128 || rows[2].FlagNames != "big-endian" {
		t.Errorf("padded row = %+v", rows[2])
	}
	if rows[3].Valid {
		t.Errorf("missing row = %+v", rows[3])
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	paths := make([]string, 100)
	for i := range paths {
		paths[i] = filepath.Join(dir, "none")
	}
	if _, err := Scan(ctx, paths, ScanConfig{Workers: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan = %v, want context.Canceled", err)
	}
}

func TestScanEmpty(t *testing.T) {
	rows, err := Scan(context.Background(), nil, ScanConfig{})
	if err != nil || len(rows) != 0 {
		t.Errorf("Scan(nil) = %v, %v", rows, err)
	}
}
