// Package logctx provides context-based logger injection and extraction.
//
// Commands attach a logger enriched with the container being processed
// (path or s3:// URI) so that decode warnings raised deep inside the
// container and remote packages carry the source without threading it
// through every call.
//
// Usage:
//
//	ctx := logctx.WithLogger(ctx, logging.WithCommand("scan"))
//	ctx = logctx.WithSource(ctx, path)
//	log := logctx.FromContext(ctx)
//	log.Warn().Msg("reserved bytes set")
package logctx

import (
	"context"

	"github.com/eunmann/tdc/pkg/logging"
	"github.com/rs/zerolog"
)

// loggerKey is the private key type for storing loggers in context.
type loggerKey struct{}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the logger from the context. If the context is nil
// or does not contain a logger, returns the global logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
			return logger
		}
	}
	return *logging.L()
}

// WithStr returns a new context with a logger that has the specified string field added.
func WithStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, logger)
}

// WithSource tags the context logger with the container being processed.
func WithSource(ctx context.Context, source string) context.Context {
	return WithStr(ctx, "source", source)
}
