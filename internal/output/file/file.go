package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const defaultBufSize = 64 * 1024 // 64KB

// Option configures a file Output.
type Option func(*Output)

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// WithAppend keeps existing content instead of truncating the file.
func WithAppend() Option {
	return func(o *Output) { o.appendMode = true }
}

// Output writes newline-terminated lines to a file with buffered I/O.
type Output struct {
	w          *bufio.Writer
	f          *os.File
	mu         sync.Mutex
	path       string
	appendMode bool
	bufSize    int
	lines      int
}

// New creates the parent directory if needed and opens path for writing.
// The file is truncated unless WithAppend is given.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{
		path:    path,
		bufSize: defaultBufSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.openFile(); err != nil {
		return nil, err
	}
	return o, nil
}

// Path returns the file path.
func (o *Output) Path() string { return o.path }

// Lines returns the number of lines written so far.
func (o *Output) Lines() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lines
}

// Write appends each line followed by a newline.
func (o *Output) Write(_ context.Context, lines ...string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, l := range lines {
		if _, err := o.w.WriteString(l); err != nil {
			return fmt.Errorf("file output: write: %w", err)
		}
		if err := o.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("file output: write: %w", err)
		}
		o.lines++
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

func (o *Output) openFile() error {
	if dir := filepath.Dir(o.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("file output: mkdir %s: %w", dir, err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if o.appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(o.path, flags, 0644)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, o.bufSize)
	return nil
}
