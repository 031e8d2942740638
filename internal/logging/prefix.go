package logging

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

type reopenable interface {
	Reopen() error
}

// LinePrefixWriter prepends a fixed prefix to every line written
// through it — used to tag a trace log's lines with the direction
// (client or server) the frame came from when both are logged to the
// same sink.
type LinePrefixWriter struct {
	w      io.Writer
	prefix string

	mu            sync.Mutex
	atLineStart   bool
	pendingPrefix []byte
}

// NewLinePrefixWriter wraps w, prefixing every line of output with
// prefix.
func NewLinePrefixWriter(w io.Writer, prefix string) *LinePrefixWriter {
	return &LinePrefixWriter{
		w:             w,
		prefix:        prefix,
		atLineStart:   true,
		pendingPrefix: []byte(prefix),
	}
}

func (p *LinePrefixWriter) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out bytes.Buffer
	consumed := 0
	for len(data) > 0 {
		if p.atLineStart {
			out.Write(p.pendingPrefix)
			p.atLineStart = false
		}

		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			out.Write(data)
			consumed += len(data)
			break
		}

		out.Write(data[:i+1])
		consumed += i + 1
		data = data[i+1:]
		p.atLineStart = true
	}

	if _, err := p.w.Write(out.Bytes()); err != nil {
		return consumed, err
	}
	return consumed, nil
}

// Sync forwards to the wrapped writer when it supports it, so a
// LinePrefixWriter wrapping a ReopenableWriter still satisfies
// zapcore.WriteSyncer.
func (p *LinePrefixWriter) Sync() error {
	if s, ok := p.w.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

// Reopen forwards to the wrapped writer if it supports reopening.
func (p *LinePrefixWriter) Reopen() error {
	r, ok := p.w.(reopenable)
	if !ok {
		return fmt.Errorf("reopen not supported by wrapped writer")
	}
	return r.Reopen()
}
