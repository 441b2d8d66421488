package report

import (
	"context"
	"runtime"
	"sync"

	"github.com/eunmann/tdc/internal/logctx"
	"github.com/eunmann/tdc/pkg/container"
	"github.com/eunmann/tdc/pkg/logging"
)

// ScanConfig configures Scan.
type ScanConfig struct {
	// Workers is the number of files inspected concurrently.
	// Default: NumCPU.
	Workers int

	// Digest computes a BLAKE3 digest of each payload.
	Digest bool

	// ProgressEvery logs a progress line every N files (0 disables).
	ProgressEvery int64
}

// Scan inspects local container files and returns one row per path, in the
// order given. It stops early only when ctx is cancelled; per-file failures
// are recorded in the row.
func Scan(ctx context.Context, paths []string, cfg ScanConfig) ([]Row, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	log := logctx.FromContext(ctx)
	progress := logging.NewScanProgress(int64(len(paths)), cfg.ProgressEvery, log)

	rows := make([]Row, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rows[i] = inspectFile(ctx, paths[i], cfg.Digest)
				if rows[i].Valid {
					progress.RecordValid(uint32(rows[i].DataSize))
				} else {
					progress.RecordInvalid()
				}
			}
		}()
	}

	var err error
feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	progress.LogSummary()
	return rows, nil
}

func inspectFile(ctx context.Context, path string, digest bool) Row {
	ctx = logctx.WithSource(ctx, path)
	f, err := container.Open(ctx, path)
	if err != nil {
		log := logctx.FromContext(ctx)
		log.Debug().Err(err).Msg("container rejected")
		return FromError(path, err)
	}
	defer f.Close()

	var payload []byte
	if digest {
		payload = f.Payload()
	}
	return FromHeader(path, f.Header(), payload)
}
