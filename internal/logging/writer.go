// Package logging provides the demo binary's structured logger: a
// SIGHUP-safe append-only file writer feeding a zap.Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var _ io.Writer = (*ReopenableWriter)(nil)

// ReopenableWriter is an append-only file writer that can be pointed at
// a freshly opened file descriptor without losing writes in flight —
// the usual shape of a log file that needs to survive external log
// rotation.
type ReopenableWriter struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// NewReopenableWriter opens path for appending, creating it if absent.
func NewReopenableWriter(path string) (*ReopenableWriter, error) {
	f, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	return &ReopenableWriter{path: path, f: f}, nil
}

func (w *ReopenableWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return 0, fmt.Errorf("log writer is closed")
	}
	return w.f.Write(p)
}

// Sync flushes buffered writes. ReopenableWriter has no internal
// buffer, so this only forwards to the underlying file's Sync, making
// the type usable as a zapcore.WriteSyncer.
func (w *ReopenableWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

// Reopen opens a new handle to the writer's path and swaps it in,
// closing the previous handle once the swap is complete.
func (w *ReopenableWriter) Reopen() error {
	next, err := openLogFile(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	prev := w.f
	w.f = next
	if prev != nil {
		return prev.Close()
	}
	return nil
}

func (w *ReopenableWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func openLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return f, nil
}
