package logging

import (
	"sync/atomic"
	"time"

	"github.com/eunmann/tdc/pkg/humanfmt"
	"github.com/rs/zerolog"
)

// ScanProgress counts inspected containers and the payload bytes they
// declare. It is safe for concurrent use.
type ScanProgress struct {
	total     int64
	valid     atomic.Int64
	invalid   atomic.Int64
	done      atomic.Int64
	bytes     atomic.Uint64
	startTime time.Time
	log       zerolog.Logger
	every     int64
}

// NewScanProgress creates a tracker for total files that logs a progress line
// every `every` files (0 disables intermediate lines).
func NewScanProgress(total int64, every int64, log zerolog.Logger) *ScanProgress {
	return &ScanProgress{
		total:     total,
		startTime: time.Now(),
		log:       log,
		every:     every,
	}
}

// RecordValid records a container whose header validated.
func (p *ScanProgress) RecordValid(payloadBytes uint32) {
	p.bytes.Add(uint64(payloadBytes))
	p.valid.Add(1)
	p.maybeLog(p.done.Add(1))
}

// RecordInvalid records a file that failed to open or validate.
func (p *ScanProgress) RecordInvalid() {
	p.invalid.Add(1)
	p.maybeLog(p.done.Add(1))
}

// Progress returns current counts.
func (p *ScanProgress) Progress() (valid, invalid, total int64) {
	return p.valid.Load(), p.invalid.Load(), p.total
}

// ProgressPct returns the progress percentage (0-100).
func (p *ScanProgress) ProgressPct() float64 {
	if p.total == 0 {
		return 100.0
	}
	return float64(p.done.Load()) * 100.0 / float64(p.total)
}

// PayloadBytes returns the sum of declared payload sizes of valid containers.
func (p *ScanProgress) PayloadBytes() uint64 {
	return p.bytes.Load()
}

// Elapsed returns time since tracking started.
func (p *ScanProgress) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

func (p *ScanProgress) maybeLog(done int64) {
	if p.every <= 0 || done%p.every != 0 {
		return
	}
	p.log.Info().
		Int64("done", done).
		Int64("total", p.total).
		Float64("pct", p.ProgressPct()).
		Msg("scan progress")
}

// LogSummary writes the final scan line.
func (p *ScanProgress) LogSummary() {
	elapsed := p.Elapsed()
	ev := p.log.Info().
		Int64("valid", p.valid.Load()).
		Int64("invalid", p.invalid.Load()).
		Uint64("payload_bytes", p.bytes.Load()).
		Dur("elapsed", elapsed)
	if IsPrettyMode() {
		ev = ev.Str("payload_bytes_h", humanfmt.BytesUint64(p.bytes.Load())).
			Str("elapsed_h", humanfmt.Duration(elapsed))
	}
	ev.Msg("scan complete")
}
