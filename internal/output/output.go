package output

import (
	"context"
)

// Output is a destination for the line-oriented artifacts of a run: lists,
// hit-count tables and consistency reports. Lines are written without their
// trailing newline.
type Output interface {
	Write(ctx context.Context, lines ...string) error
	Close() error
}
