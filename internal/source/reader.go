package source

import (
	"context"
	"fmt"
	"io"

	"github.com/runger/rselect/internal/picker"
)

// Reader reads line-oriented choices from R, typically a pipe on stdin.
// The format is the one used by Command.
type Reader struct {
	R io.Reader
}

// Compile-time check that Reader implements picker.Source.
var _ picker.Source[string] = (*Reader)(nil)

// Fetch implements picker.Source. The read is not interruptible; ctx is
// only checked once the input is drained.
func (r *Reader) Fetch(ctx context.Context) ([]picker.Item[string], error) {
	data, err := io.ReadAll(r.R)
	if err != nil {
		return nil, fmt.Errorf("stdin source: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := parseLines(data)
	if err != nil {
		return nil, fmt.Errorf("stdin source: %w", err)
	}
	return items, nil
}
