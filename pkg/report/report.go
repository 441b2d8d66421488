// Package report summarizes inspected containers as rows and stores them as
// Parquet files.
package report

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/eunmann/tdc/pkg/header"
	"github.com/parquet-go/parquet-go"
	"github.com/zeebo/blake3"
)

// Row describes one inspected container. Failed inspections carry only
// Source and Error.
type Row struct {
	Source          string  `parquet:"source"`
	Valid           bool    `parquet:"valid"`
	Error           string  `parquet:"error"`
	Version         string  `parquet:"version"`
	Flags           int32   `parquet:"flags"`
	FlagNames       string  `parquet:"flag_names"`
	DataOffset      int64   `parquet:"data_offset"`
	DataSize        int64   `parquet:"data_size"`
	Metadata        float32 `parquet:"metadata"`
	ReservedNonZero bool    `parquet:"reserved_nonzero"`
	UnknownFlags    int32   `parquet:"unknown_flags"`
	PayloadBLAKE3   string  `parquet:"payload_blake3"`
}

// FromHeader builds a row for a valid container. payload may be nil when
// only the header was read; the digest is left empty then.
func FromHeader(source string, h header.Header, payload []byte) Row {
	row := Row{
		Source:          source,
		Valid:           true,
		Version:         h.Version.String(),
		Flags:           int32(h.Flags),
		FlagNames:       h.Flags.String(),
		DataOffset:      int64(h.DataOffset),
		DataSize:        int64(h.DataSize),
		Metadata:        h.Metadata,
		ReservedNonZero: !h.ReservedZero(),
		UnknownFlags:    int32(h.Flags.Unknown()),
	}
	if payload != nil {
		row.PayloadBLAKE3 = Digest(payload)
	}
	return row
}

// FromError builds a row for a source that could not be read or validated.
func FromError(source string, err error) Row {
	return Row{Source: source, Error: err.Error()}
}

// Digest returns the hex BLAKE3-256 digest of payload.
func Digest(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// WriteParquet writes rows to w as a single Parquet file.
func WriteParquet(w io.Writer, rows []Row) error {
	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads all rows from a Parquet file written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) ([]Row, error) {
	rows, err := parquet.Read[Row](r, size)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
