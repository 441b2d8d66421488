// Package cli implements the command-line interface for tdc.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/eunmann/tdc/internal/logctx"
	"github.com/eunmann/tdc/pkg/container"
	"github.com/eunmann/tdc/pkg/fileutil"
	"github.com/eunmann/tdc/pkg/header"
	"github.com/eunmann/tdc/pkg/humanfmt"
	"github.com/eunmann/tdc/pkg/logging"
	"github.com/eunmann/tdc/pkg/remote"
	"github.com/eunmann/tdc/pkg/report"
)

const usage = `usage: tdc <command> [options]
commands:
  inspect  print the header of a container (file or s3://bucket/key)
  pack     wrap a payload in a container
  unpack   extract the payload of a container
  scan     inspect many containers, optionally writing a parquet report`

// Transforms holds the payload transforms unpack can undo. It starts empty;
// programs embedding the CLI register their own stages before calling Run.
var Transforms = container.NewTransforms()

// newS3Client is swapped in tests.
var newS3Client = func(ctx context.Context) (*remote.Client, error) {
	return remote.NewClient(ctx)
}

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	return RunContext(context.Background(), args, os.Stdout)
}

// RunContext executes the CLI, writing command output to stdout.
func RunContext(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "inspect":
		return runInspect(ctx, args[1:], stdout)
	case "pack":
		return runPack(ctx, args[1:])
	case "unpack":
		return runUnpack(ctx, args[1:], stdout)
	case "scan":
		return runScan(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// logFlags registers the logging flags shared by every command.
type logFlags struct {
	debug *bool
	human *bool
}

func addLogFlags(fs *flag.FlagSet) logFlags {
	return logFlags{
		debug: fs.Bool("debug", false, "enable debug logging"),
		human: fs.Bool("human", false, "human-friendly console logs instead of JSON"),
	}
}

// apply configures the global logger and returns a context carrying a
// command-scoped logger.
func (l logFlags) apply(ctx context.Context, command string) context.Context {
	logging.Init(*l.debug, *l.human)
	return logctx.WithLogger(ctx, logging.WithCommand(command))
}

// headerView is the JSON form of a header printed by inspect.
type headerView struct {
	Source       string   `json:"source"`
	Magic        string   `json:"magic"`
	Version      string   `json:"version"`
	Flags        uint16   `json:"flags"`
	FlagNames    string   `json:"flag_names"`
	DataOffset   uint32   `json:"data_offset"`
	DataSize     uint32   `json:"data_size"`
	Metadata     *float64 `json:"metadata"`
	MetadataBits string   `json:"metadata_bits"`
	Reserved     string   `json:"reserved"`
}

func newHeaderView(source string, h header.Header) headerView {
	v := headerView{
		Source:       source,
		Magic:        string(h.Magic[:]),
		Version:      h.Version.String(),
		Flags:        uint16(h.Flags),
		FlagNames:    h.Flags.String(),
		DataOffset:   h.DataOffset,
		DataSize:     h.DataSize,
		MetadataBits: fmt.Sprintf("%#08x", math.Float32bits(h.Metadata)),
		Reserved:     fmt.Sprintf("%x", h.Reserved[:]),
	}
	// JSON has no NaN or Inf; those stay visible through metadata_bits.
	if f := float64(h.Metadata); !math.IsNaN(f) && !math.IsInf(f, 0) {
		v.Metadata = &f
	}
	return v
}

func printHeader(w io.Writer, source string, h header.Header, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newHeaderView(source, h))
	}
	fmt.Fprintf(w, "source:      %s\n", source)
	fmt.Fprintf(w, "magic:       %q\n", h.Magic[:])
	fmt.Fprintf(w, "version:     %s\n", h.Version)
	fmt.Fprintf(w, "flags:       %s\n", h.Flags)
	fmt.Fprintf(w, "data_offset: %d\n", h.DataOffset)
	fmt.Fprintf(w, "data_size:   %d (%s)\n", h.DataSize, humanfmt.BytesUint64(uint64(h.DataSize)))
	fmt.Fprintf(w, "metadata:    %s\n", humanfmt.FloatBits(h.Metadata))
	if !h.ReservedZero() {
		fmt.Fprintf(w, "reserved:    % x\n", h.Reserved[:])
	}
	return nil
}

func runInspect(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the header as JSON")
	lf := addLogFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect takes exactly one container")
	}
	ctx = lf.apply(ctx, "inspect")
	source := fs.Arg(0)

	if remote.IsS3URI(source) {
		bucket, key, err := remote.ParseObjectURI(source)
		if err != nil {
			return err
		}
		client, err := newS3Client(ctx)
		if err != nil {
			return err
		}
		h, err := client.FetchHeader(ctx, bucket, key)
		if err != nil {
			return err
		}
		return printHeader(stdout, source, h, *asJSON)
	}

	f, err := container.Open(logctx.WithSource(ctx, source), source)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	defer f.Close()
	return printHeader(stdout, source, f.Header(), *asJSON)
}

func runPack(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	in := fs.String("in", "", "payload file (- for stdin)")
	out := fs.String("out", "", "output container path or s3://bucket/key")
	tmpDir := fs.String("tmp", "", "directory for the temporary file (default: next to --out)")
	version := fs.String("version", header.CurrentVersion.String(), "format version major.minor")
	flagBits := fs.String("flags", "0", "raw flag bits (decimal or 0x hex)")
	bigEndian := fs.Bool("big-endian", false, "mark the payload as big-endian")
	metadata := fs.Float64("metadata", 0, "application metadata value")
	offset := fs.Uint("offset", header.Size, "payload offset (>= 32); the gap is zero padded")
	force := fs.Bool("force", false, "overwrite an existing output file")
	allowUnknown := fs.Bool("allow-unknown-flags", false, "permit flag bits without an assigned meaning")
	lf := addLogFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("--in is required")
	}
	if *out == "" {
		return errors.New("--out is required")
	}
	ctx = lf.apply(ctx, "pack")
	log := logctx.FromContext(ctx)

	v, err := header.ParseVersion(*version)
	if err != nil {
		return err
	}
	bits, err := strconv.ParseUint(*flagBits, 0, 16)
	if err != nil {
		return fmt.Errorf("parse --flags: %w", err)
	}
	if unknown := header.Flags(bits).Unknown(); unknown != 0 && !*allowUnknown {
		return fmt.Errorf("--flags sets unassigned bits %#04x (use --allow-unknown-flags to write them)", uint16(unknown))
	}
	if *offset > 0xFFFFFFFF {
		return fmt.Errorf("--offset %d exceeds 32 bits", *offset)
	}

	payload, err := readInput(*in)
	if err != nil {
		return err
	}
	if uint64(len(payload)) > 0xFFFFFFFF {
		return fmt.Errorf("payload of %s exceeds the 32-bit size field", humanfmt.Bytes(int64(len(payload))))
	}

	flags := header.Flags(bits)
	if *bigEndian {
		flags = flags.With(header.FlagBigEndian)
	}
	h := header.New(flags, uint32(len(payload)), float32(*metadata))
	h.Version = v
	h.DataOffset = uint32(*offset)
	if err := header.Validate(h); err != nil {
		return err
	}

	if remote.IsS3URI(*out) {
		bucket, key, err := remote.ParseObjectURI(*out)
		if err != nil {
			return err
		}
		client, err := newS3Client(ctx)
		if err != nil {
			return err
		}
		if err := client.PutContainer(ctx, bucket, key, h, payload); err != nil {
			return err
		}
	} else {
		if !*force && fileutil.Exists(*out) {
			return fmt.Errorf("%s exists (use --force to overwrite)", *out)
		}
		if err := container.WriteFile(*tmpDir, *out, h, payload); err != nil {
			return err
		}
	}

	log.Info().
		Str("out", *out).
		Str("version", h.Version.String()).
		Str("flags", h.Flags.String()).
		Uint32("data_size", h.DataSize).
		Msg("container written")
	return nil
}

func runUnpack(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("unpack", flag.ContinueOnError)
	out := fs.String("out", "-", "payload output path (- for stdout)")
	raw := fs.Bool("raw", false, "write the stored payload without undoing transforms")
	lf := addLogFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("unpack takes exactly one container")
	}
	ctx = lf.apply(ctx, "unpack")
	source := fs.Arg(0)
	ctx = logctx.WithSource(ctx, source)

	var (
		h       header.Header
		payload []byte
	)
	if remote.IsS3URI(source) {
		bucket, key, err := remote.ParseObjectURI(source)
		if err != nil {
			return err
		}
		client, err := newS3Client(ctx)
		if err != nil {
			return err
		}
		if h, payload, err = client.Fetch(ctx, bucket, key); err != nil {
			return err
		}
	} else {
		f, err := container.Open(ctx, source)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		defer f.Close()
		h, payload = f.Header(), f.Payload()
	}

	if !*raw {
		decoded, err := Transforms.Decode(h, payload)
		if err != nil {
			return fmt.Errorf("%s: %w (use --raw to extract stored bytes)", source, err)
		}
		payload = decoded
	}

	if *out == "-" {
		_, err := stdout.Write(payload)
		return err
	}
	return fileutil.WriteTmpThenMove("", *out, func(tmpPath string) error {
		return os.WriteFile(tmpPath, payload, 0644)
	})
}

func runScan(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	reportPath := fs.String("report", "", "write a parquet report to this path")
	workers := fs.Int("workers", 0, "concurrent files (default: NumCPU)")
	digest := fs.Bool("digest", false, "compute BLAKE3 digests of payloads")
	every := fs.Int64("progress-every", 1000, "log progress every N files (0 disables)")
	lf := addLogFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("at least one container file is required")
	}
	ctx = lf.apply(ctx, "scan")

	rows, err := report.Scan(ctx, paths, report.ScanConfig{
		Workers:       *workers,
		Digest:        *digest,
		ProgressEvery: *every,
	})
	if err != nil {
		return err
	}

	invalid := 0
	for _, row := range rows {
		if !row.Valid {
			invalid++
			fmt.Fprintf(stdout, "%s\tINVALID\t%s\n", row.Source, row.Error)
			continue
		}
		fmt.Fprintf(stdout, "%s\tv%s\t%s\t%d\n", row.Source, row.Version, row.FlagNames, row.DataSize)
	}

	if *reportPath != "" {
		err := fileutil.WriteTmpThenMove("", *reportPath, func(tmpPath string) error {
			f, err := os.Create(tmpPath)
			if err != nil {
				return err
			}
			if err := report.WriteParquet(f, rows); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d containers invalid", invalid, len(rows))
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}
