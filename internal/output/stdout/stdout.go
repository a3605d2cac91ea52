package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Output writes lines to standard output, or to the writer given to New.
type Output struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates an Output. A nil writer means os.Stdout.
func New(w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{w: w}
}

func (o *Output) Write(_ context.Context, lines ...string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, l := range lines {
		if _, err := fmt.Fprintln(o.w, l); err != nil {
			return fmt.Errorf("stdout output: %w", err)
		}
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
