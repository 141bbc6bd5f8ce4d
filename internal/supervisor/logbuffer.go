package supervisor

import (
	"io"
	"strings"
	"sync"
)

const (
	// DefaultLogLines is the ring capacity when Config.LogLines is zero.
	DefaultLogLines = 2000
	maxLineBytes    = 64 * 1024
)

// LogBuffer is a bounded, ordered ring of captured output lines. Once full the
// oldest line is dropped. It has its own lock and never calls back into the
// supervisor, so pump goroutines can append while Stop waits for the child.
type LogBuffer struct {
	mu     sync.Mutex
	lines  []string
	head   int
	max    int
	mirror io.Writer
}

// NewLogBuffer returns a ring holding at most max lines. Each appended line is
// also written to mirror when it is non-nil.
func NewLogBuffer(max int, mirror io.Writer) *LogBuffer {
	if max <= 0 {
		max = DefaultLogLines
	}
	return &LogBuffer{lines: make([]string, 0, min(max, 256)), max: max, mirror: mirror}
}

// Append adds one line.
func (b *LogBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendLocked(line)
	if b.mirror != nil {
		_, _ = io.WriteString(b.mirror, line+"\n")
	}
}

func (b *LogBuffer) appendLocked(line string) {
	if len(b.lines) < b.max {
		b.lines = append(b.lines, line)
		return
	}
	b.lines[b.head] = line
	b.head = (b.head + 1) % b.max
}

// Snapshot returns a copy of the buffered lines, oldest first.
func (b *LogBuffer) Snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.head:]...)
	out = append(out, b.lines[:b.head]...)
	return out
}

// Len reports the number of buffered lines.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// lineWriter splits a byte stream into lines for a LogBuffer. One writer is
// used per stream so partial lines from stdout and stderr never interleave.
// Writes block until ready is closed, which keeps the start marker first.
type lineWriter struct {
	mu      sync.Mutex
	buf     *LogBuffer
	ready   <-chan struct{}
	pending []byte
}

func (b *LogBuffer) writer(ready <-chan struct{}) *lineWriter {
	return &lineWriter{buf: b, ready: ready}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	<-w.ready
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(p)
	for len(p) > 0 {
		i := indexNewline(p)
		if i < 0 {
			w.pending = append(w.pending, p...)
			if len(w.pending) >= maxLineBytes {
				w.emit(w.pending)
				w.pending = w.pending[:0]
			}
			break
		}
		w.pending = append(w.pending, p[:i]...)
		w.emit(w.pending)
		w.pending = w.pending[:0]
		p = p[i+1:]
	}
	return n, nil
}

// Flush emits a trailing partial line, if any.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) > 0 {
		w.emit(w.pending)
		w.pending = w.pending[:0]
	}
}

func (w *lineWriter) emit(line []byte) {
	w.buf.Append(strings.TrimRight(string(line), "\r"))
}

func indexNewline(p []byte) int {
	for i, c := range p {
		if c == '\n' {
			return i
		}
	}
	return -1
}
