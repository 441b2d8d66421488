package container

import (
	"context"
	"fmt"
	"os"

	"github.com/eunmann/tdc/pkg/header"
	"golang.org/x/sys/unix"
)

// File is a memory-mapped container.
//
// Thread Safety: File is safe for concurrent read access from multiple
// goroutines. Close should only be called once, after all reads have
// completed; slices returned by Payload are invalid after Close.
type File struct {
	path   string
	data   []byte
	header header.Header
}

// Open maps the container at path, decodes its header, and checks that the
// declared payload lies inside the file. Decode warnings go to the context
// logger.
func Open(ctx context.Context, path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat container: %w", err)
	}

	size := info.Size()
	if size < header.Size {
		// Let the codec produce the BufferTooSmall error.
		buf := make([]byte, size)
		if _, err := f.ReadAt(buf, 0); err != nil {
			return nil, fmt.Errorf("read container: %w", err)
		}
		_, err := header.Decode(buf)
		return nil, err
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	h, err := header.DecodeWarn(data, LogWarnings(ctx))
	if err != nil {
		unix.Munmap(data)
		return nil, err
	}

	if h.End() > uint64(size) {
		unix.Munmap(data)
		return nil, fmt.Errorf("%w: payload ends at %d, file is %d bytes", ErrTruncated, h.End(), size)
	}

	return &File{path: path, data: data, header: h}, nil
}

// Close unmaps the file.
func (f *File) Close() error {
	if f.data == nil {
		return nil
	}
	data := f.data
	f.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Header returns the decoded header.
func (f *File) Header() header.Header {
	return f.header
}

// Size returns the mapped file size, including any bytes after the payload.
func (f *File) Size() int64 {
	return int64(len(f.data))
}

// Payload returns the payload bytes, backed by the mapping.
func (f *File) Payload() []byte {
	return f.data[f.header.DataOffset:f.header.End()]
}

// Trailer returns the bytes after the payload, where a checksum lives when
// FlagHasChecksum is set.
func (f *File) Trailer() []byte {
	return f.data[f.header.End():]
}
