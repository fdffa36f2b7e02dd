// Package logging provides a small zerolog-based logger shared across the
// processor: a global level set once at startup, JSON output by default,
// and a context helper for attaching a round/message correlation id to
// every subsequent log line in that call chain.
package logging

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // ensures logging works before an explicit Init()
func init() {
	Init("info")
}

// Init (re)configures the global logger at the given level (trace, debug,
// info, warn, error). An unrecognized level falls back to info.
func Init(level string) {
	mu.Lock()
	defer mu.Unlock()

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	log = zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// L returns the global logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &log
}

type correlationKey struct{}

// WithCorrelationID attaches a correlation id (e.g. a round id or message
// id) to ctx so From(ctx) includes it on every log line.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// From returns a logger with the context's correlation id (if any) already
// attached as a "correlation_id" field.
func From(ctx context.Context) *zerolog.Logger {
	base := L()
	id, ok := CorrelationID(ctx)
	if !ok || id == "" {
		return base
	}
	l := base.With().Str("correlation_id", id).Logger()
	return &l
}

// CorrelationID returns the correlation id attached to ctx by
// WithCorrelationID, if any. Used to carry a correlation id across a
// context boundary (e.g. into a worker pool's own long-lived context).
func CorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok
}

// Info, Error, Warn, and Debug are convenience wrappers around the global
// logger's event builders.
func Info() *zerolog.Event  { return L().Info() }
func Error() *zerolog.Event { return L().Error() }
func Warn() *zerolog.Event  { return L().Warn() }
func Debug() *zerolog.Event { return L().Debug() }
