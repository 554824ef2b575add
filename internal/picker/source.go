package picker

import "context"

// Source supplies the picker's items. Fetch is called exactly once per
// session, on the Bubble Tea command goroutine, and may block for as long as
// the underlying transport needs; the picker imposes no timeout.
type Source[V any] interface {
	Fetch(ctx context.Context) ([]Item[V], error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc[V any] func(ctx context.Context) ([]Item[V], error)

// Fetch implements Source.
func (f SourceFunc[V]) Fetch(ctx context.Context) ([]Item[V], error) {
	return f(ctx)
}
