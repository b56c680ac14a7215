package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Setup installs the process-wide slog logger. format is "json" or "text".
func Setup(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var dedup = &Deduplicator{
	flushDelay: 2 * time.Second,
	level:      slog.LevelWarn,
}

// Deduplicator collapses runs of identical log lines into one line carrying a
// count. A run is flushed when a different message arrives or after
// flushDelay of silence.
type Deduplicator struct {
	mu         sync.Mutex
	lastMsg    string
	count      int
	flushDelay time.Duration
	timer      *time.Timer
	level      slog.Level
	logger     *slog.Logger
}

func NewDeduplicator(l *slog.Logger, level slog.Level, flushDelay time.Duration) *Deduplicator {
	return &Deduplicator{logger: l, level: level, flushDelay: flushDelay}
}

func (d *Deduplicator) target() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

func (d *Deduplicator) flush() {
	if d.count == 0 {
		return
	}
	if d.count == 1 {
		d.target().Log(context.Background(), d.level, d.lastMsg)
	} else {
		d.target().Log(context.Background(), d.level, d.lastMsg, "count", d.count)
	}
	d.count = 0
	d.lastMsg = ""
}

func (d *Deduplicator) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	d.mu.Lock()
	defer d.mu.Unlock()

	if msg != d.lastMsg {
		d.flush()
		d.lastMsg = msg
	}
	d.count++

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.flushDelay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.flush()
	})
}

// Flush writes out any pending run immediately.
func (d *Deduplicator) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.flush()
}

// Dedup logs a warning through the package deduplicator.
func Dedup(format string, args ...any) {
	dedup.Logf(format, args...)
}

// FlushDedup drains the package deduplicator, typically before exit.
func FlushDedup() {
	dedup.Flush()
}
