package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/rselect/internal/picker"
)

func TestStatic_Fetch(t *testing.T) {
	src := &Static{Items: []picker.Item[string]{picker.Choice[string]{Value: "a"}}}
	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStatic_DelayHonorsContext(t *testing.T) {
	src := &Static{Delay: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := src.Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDemo(t *testing.T) {
	demo := Demo()
	assert.Equal(t, DemoDelay, demo.Delay)

	var selectable, separators int
	for _, it := range demo.Items {
		if _, ok := it.(picker.Separator); ok {
			separators++
		}
		if it.Selectable() {
			selectable++
		}
	}
	assert.Equal(t, 1, separators)
	assert.Equal(t, 4, selectable)
}

func TestWithDelay(t *testing.T) {
	inner := &Static{Items: []picker.Item[string]{picker.Choice[string]{Value: "a"}}}
	assert.Same(t, inner, WithDelay(inner, 0))

	start := time.Now()
	items, err := WithDelay(inner, 20*time.Millisecond).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWithTimeout(t *testing.T) {
	slow := &Static{Delay: time.Hour}
	_, err := WithTimeout(slow, 10*time.Millisecond).Fetch(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "fetch within 10ms")

	boom := errors.New("boom")
	failing := picker.SourceFunc[string](func(context.Context) ([]picker.Item[string], error) {
		return nil, boom
	})
	_, err = WithTimeout(failing, time.Second).Fetch(context.Background())
	assert.ErrorIs(t, err, boom)
}
