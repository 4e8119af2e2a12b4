// Package build provides the logging bootstrap for binaries embedding the
// actor runtime: a console logger with an optional rotating log file
// behind it.
package build

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
	"github.com/jrick/logrotate/rotator"
)

// Log rotation policy for the demo binaries. The runtime itself never
// writes files; these bounds just keep a long-running demo from filling
// the disk, so they are fixed rather than configurable.
const (
	// logFilename is the name of the current log file inside the log
	// directory.
	logFilename = "stratum.log"

	// maxLogFiles is how many rotated, compressed files are kept.
	maxLogFiles = 3

	// maxLogFileSizeMB is the size a log file may reach before it is
	// rotated.
	maxLogFileSizeMB = 10
)

// NewLogger builds the logger the runtime packages are wired to via their
// UseLogger functions. Records always reach standard output; when logDir
// is non-empty they additionally go to a gzip-rotated log file in that
// directory. The returned logger carries the given subsystem tag.
func NewLogger(subsystem string, level btclog.Level,
	logDir string) (btclogv2.Logger, error) {

	h := &dualHandler{
		console: btclogv2.NewDefaultHandler(os.Stdout),
	}

	if logDir != "" {
		w, err := newRotatingWriter(logDir)
		if err != nil {
			return nil, err
		}

		h.file = btclogv2.NewDefaultHandler(w)
	}

	h.SetLevel(level)

	return btclogv2.NewSLogger(h.SubSystem(subsystem)), nil
}

// newRotatingWriter starts a size-bounded, gzip-compressing log writer in
// the given directory. The writer lives for the remainder of the process.
func newRotatingWriter(logDir string) (io.Writer, error) {
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w",
			err)
	}

	logFile := filepath.Join(logDir, logFilename)
	r, err := rotator.New(
		logFile, maxLogFileSizeMB*1024, false, maxLogFiles,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create file rotator: %w",
			err)
	}
	r.SetCompressor(gzip.NewWriter(nil), ".gz")

	// The rotator consumes the read end of a pipe; writes into the
	// returned end land in the current log file. Errors are reported to
	// stderr since the rotator itself is the log destination.
	pr, pw := io.Pipe()
	go func() {
		if err := r.Run(pr); err != nil {
			fmt.Fprintf(os.Stderr, "file rotator stopped: %v\n",
				err)
		}
	}()

	return pw, nil
}

// dualHandler fans each log record out to the console and, when file
// logging is enabled, a rotating log file. Two fixed slots cover every
// binary in this module; the file slot is nil when file logging is off.
type dualHandler struct {
	level   btclog.Level
	console btclogv2.Handler
	file    btclogv2.Handler
}

// Enabled reports whether the record would be emitted on at least the
// console stream.
//
// NOTE: this is part of the slog.Handler interface.
func (h *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if !h.console.Enabled(ctx, level) {
		return false
	}

	return h.file == nil || h.file.Enabled(ctx, level)
}

// Handle emits the record on both streams.
//
// NOTE: this is part of the slog.Handler interface.
func (h *dualHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.console.Handle(ctx, record); err != nil {
		return err
	}

	if h.file != nil {
		return h.file.Handle(ctx, record)
	}

	return nil
}

// WithAttrs returns a handler pair with the attributes applied to both
// streams.
//
// NOTE: this is part of the slog.Handler interface.
func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &slogPair{console: h.console.WithAttrs(attrs)}
	if h.file != nil {
		next.file = h.file.WithAttrs(attrs)
	}

	return next
}

// WithGroup returns a handler pair with the group applied to both streams.
//
// NOTE: this is part of the slog.Handler interface.
func (h *dualHandler) WithGroup(name string) slog.Handler {
	next := &slogPair{console: h.console.WithGroup(name)}
	if h.file != nil {
		next.file = h.file.WithGroup(name)
	}

	return next
}

// SubSystem returns a copy of the pair tagged with the given sub-system.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *dualHandler) SubSystem(tag string) btclogv2.Handler {
	next := &dualHandler{
		level:   h.level,
		console: h.console.SubSystem(tag),
	}
	if h.file != nil {
		next.file = h.file.SubSystem(tag)
	}

	return next
}

// WithPrefix returns a copy of the pair that prefixes each log message
// with the given string.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *dualHandler) WithPrefix(prefix string) btclogv2.Handler {
	next := &dualHandler{
		level:   h.level,
		console: h.console.WithPrefix(prefix),
	}
	if h.file != nil {
		next.file = h.file.WithPrefix(prefix)
	}

	return next
}

// SetLevel changes the logging level on both streams.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *dualHandler) SetLevel(level btclog.Level) {
	h.console.SetLevel(level)
	if h.file != nil {
		h.file.SetLevel(level)
	}
	h.level = level
}

// Level returns the current logging level.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *dualHandler) Level() btclog.Level {
	return h.level
}

// Ensure dualHandler implements btclog.Handler at compile time.
var _ btclogv2.Handler = (*dualHandler)(nil)

// slogPair carries the console/file pair through WithAttrs and WithGroup,
// both of which narrow the btclog surface down to plain slog handlers.
type slogPair struct {
	console slog.Handler
	file    slog.Handler
}

// Enabled reports whether the record would be emitted on at least the
// console stream.
//
// NOTE: this is part of the slog.Handler interface.
func (p *slogPair) Enabled(ctx context.Context, level slog.Level) bool {
	if !p.console.Enabled(ctx, level) {
		return false
	}

	return p.file == nil || p.file.Enabled(ctx, level)
}

// Handle emits the record on both streams.
//
// NOTE: this is part of the slog.Handler interface.
func (p *slogPair) Handle(ctx context.Context, record slog.Record) error {
	if err := p.console.Handle(ctx, record); err != nil {
		return err
	}

	if p.file != nil {
		return p.file.Handle(ctx, record)
	}

	return nil
}

// WithAttrs returns a handler pair with the attributes applied to both
// streams.
//
// NOTE: this is part of the slog.Handler interface.
func (p *slogPair) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &slogPair{console: p.console.WithAttrs(attrs)}
	if p.file != nil {
		next.file = p.file.WithAttrs(attrs)
	}

	return next
}

// WithGroup returns a handler pair with the group applied to both streams.
//
// NOTE: this is part of the slog.Handler interface.
func (p *slogPair) WithGroup(name string) slog.Handler {
	next := &slogPair{console: p.console.WithGroup(name)}
	if p.file != nil {
		next.file = p.file.WithGroup(name)
	}

	return next
}
