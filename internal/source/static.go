package source

import (
	"context"
	"time"

	"github.com/runger/rselect/internal/picker"
)

// DemoDelay is the simulated latency of the demo source.
const DemoDelay = 5 * time.Second

// Static serves a fixed item list after an optional delay. It stands in for
// a remote call in demos and tests.
type Static struct {
	Items []picker.Item[string]
	Delay time.Duration
}

// Compile-time check that Static implements picker.Source.
var _ picker.Source[string] = (*Static)(nil)

// Demo returns the demonstration source: a short fruit list with a
// separator and a disabled entry, delivered after DemoDelay.
func Demo() *Static {
	return &Static{
		Delay: DemoDelay,
		Items: []picker.Item[string]{
			picker.Choice[string]{Value: "apple", Name: "Apple", Description: "Crisp and sweet"},
			picker.Choice[string]{Value: "banana", Name: "Banana"},
			picker.Separator{},
			picker.Choice[string]{Value: "cherry", Name: "Cherry", Description: "Small and red"},
			picker.Choice[string]{Value: "durian", Name: "Durian", DisabledReason: "(out of season)"},
			picker.Choice[string]{Value: "elderberry", Name: "Elderberry"},
		},
	}
}

// Fetch implements picker.Source.
func (s *Static) Fetch(ctx context.Context) ([]picker.Item[string], error) {
	if err := sleep(ctx, s.Delay); err != nil {
		return nil, err
	}
	return s.Items, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
