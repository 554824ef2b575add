package source

import (
	"context"
	"fmt"
	"time"

	"github.com/runger/rselect/internal/picker"
)

// WithDelay returns a source that waits d before calling src. It simulates
// a slow network for demos.
func WithDelay(src picker.Source[string], d time.Duration) picker.Source[string] {
	if d <= 0 {
		return src
	}
	return picker.SourceFunc[string](func(ctx context.Context) ([]picker.Item[string], error) {
		if err := sleep(ctx, d); err != nil {
			return nil, err
		}
		return src.Fetch(ctx)
	})
}

// WithTimeout bounds a single fetch of src to d. The picker itself imposes
// no timeout; callers opt in through this wrapper.
func WithTimeout(src picker.Source[string], d time.Duration) picker.Source[string] {
	if d <= 0 {
		return src
	}
	return picker.SourceFunc[string](func(ctx context.Context) ([]picker.Item[string], error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		items, err := src.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch within %s: %w", d, err)
		}
		return items, nil
	})
}
