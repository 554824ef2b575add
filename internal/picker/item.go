package picker

import (
	"fmt"
	"strings"
)

// defaultSeparator is rendered for a Separator with no Text.
var defaultSeparator = strings.Repeat("─", 14)

// Item is one entry of a picker list. It is implemented by Choice and
// Separator only.
type Item[V any] interface {
	// Selectable reports whether the cursor may rest on the item.
	Selectable() bool

	isItem()
}

// Choice is a selectable entry carrying a value.
type Choice[V any] struct {
	Value       V
	Name        string // Display label; falls back to fmt.Sprint(Value)
	Description string // Shown below the list while the choice is active

	// Disabled choices are rendered but never selectable. A non-empty
	// DisabledReason implies Disabled and replaces the "(disabled)" label.
	Disabled       bool
	DisabledReason string
}

// Separator is a non-selectable divider line.
type Separator struct {
	Text string
}

// Compile-time checks that both variants implement Item.
var (
	_ Item[string] = Choice[string]{}
	_ Item[string] = Separator{}
)

func (Choice[V]) isItem() {}
func (Separator) isItem()  {}

// Selectable implements Item.
func (c Choice[V]) Selectable() bool { return !c.IsDisabled() }

// Selectable implements Item. Separators are never selectable.
func (Separator) Selectable() bool { return false }

// IsDisabled reports whether the choice is disabled.
func (c Choice[V]) IsDisabled() bool {
	return c.Disabled || c.DisabledReason != ""
}

// Label returns the display name of the choice.
func (c Choice[V]) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprint(c.Value)
}

// disabledLabel returns the suffix rendered after a disabled choice.
func (c Choice[V]) disabledLabel() string {
	if c.DisabledReason != "" {
		return c.DisabledReason
	}
	return "(disabled)"
}

// line returns the separator text, or the default rule when empty.
func (s Separator) line() string {
	if s.Text != "" {
		return s.Text
	}
	return defaultSeparator
}

// firstSelectable returns the index of the first selectable item, or -1.
func firstSelectable[V any](items []Item[V]) int {
	for i, it := range items {
		if it.Selectable() {
			return i
		}
	}
	return -1
}

// step walks from index from in direction dir (+1 or -1), wrapping at both
// ends, and returns the first selectable index it reaches. The walk is
// bounded by len(items) so it returns from when nothing else is selectable.
func step[V any](items []Item[V], from, dir int) int {
	n := len(items)
	if n == 0 {
		return from
	}
	idx := from
	for range n {
		idx = ((idx+dir)%n + n) % n
		if items[idx].Selectable() {
			return idx
		}
	}
	return from
}

// choiceAt returns the choice at index i when it is selectable.
func choiceAt[V any](items []Item[V], i int) (Choice[V], bool) {
	if i < 0 || i >= len(items) {
		return Choice[V]{}, false
	}
	c, ok := items[i].(Choice[V])
	if !ok || c.IsDisabled() {
		return Choice[V]{}, false
	}
	return c, true
}
