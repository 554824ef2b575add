// Package source provides the data sources the rselect picker can load its
// choices from. Every source produces picker items with string values.
package source

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/runger/rselect/internal/picker"
)

// ErrInvalidRecord is returned when a choice record cannot be decoded.
var ErrInvalidRecord = errors.New("invalid choice record")

// Record is the wire form of one list entry, shared by the file, HTTP,
// subprocess, SQLite and gRPC sources. JSON documents decode the same way
// since JSON is a subset of YAML.
//
// A bare scalar is a choice whose value is the scalar. A mapping uses:
//
//	value:       choice value (required unless separator is set)
//	name:        display label
//	description: text shown while the choice is highlighted
//	disabled:    true, or a reason string
//	separator:   true, or the separator text
type Record struct {
	Value       string
	Name        string
	Description string

	Disabled       bool
	DisabledReason string

	Separator     bool
	SeparatorText string
}

// rawRecord mirrors Record with loosely typed fields for decoding.
type rawRecord struct {
	Value       *yaml.Node `yaml:"value"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Disabled    *yaml.Node `yaml:"disabled"`
	Separator   *yaml.Node `yaml:"separator"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*r = Record{Value: node.Value}
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("%w: line %d: expected scalar or mapping", ErrInvalidRecord, node.Line)
	}

	var raw rawRecord
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("%w: line %d: %v", ErrInvalidRecord, node.Line, err)
	}

	rec := Record{Name: raw.Name, Description: raw.Description}

	var err error
	if rec.Separator, rec.SeparatorText, err = flagOrText(raw.Separator); err != nil {
		return fmt.Errorf("%w: line %d: separator: %v", ErrInvalidRecord, node.Line, err)
	}
	if rec.Disabled, rec.DisabledReason, err = flagOrText(raw.Disabled); err != nil {
		return fmt.Errorf("%w: line %d: disabled: %v", ErrInvalidRecord, node.Line, err)
	}

	if raw.Value != nil {
		if raw.Value.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: line %d: value must be a scalar", ErrInvalidRecord, node.Line)
		}
		rec.Value = raw.Value.Value
	} else if !rec.Separator {
		return fmt.Errorf("%w: line %d: missing value", ErrInvalidRecord, node.Line)
	}

	*r = rec
	return nil
}

// flagOrText decodes a field that is either a boolean or a string. A
// non-empty string implies true. The integers 0 and 1 are booleans, as in
// the SQLite and gRPC sources.
func flagOrText(node *yaml.Node) (bool, string, error) {
	if node == nil {
		return false, "", nil
	}
	if node.Kind != yaml.ScalarNode {
		return false, "", errors.New("expected boolean or string")
	}
	if node.Tag == "!!bool" || node.Tag == "!!int" {
		b, err := strconv.ParseBool(node.Value)
		return b, "", err
	}
	if node.Tag == "!!null" || node.Value == "" {
		return false, "", nil
	}
	return true, node.Value, nil
}

// Item converts the record to a picker item.
func (r Record) Item() picker.Item[string] {
	if r.Separator {
		return picker.Separator{Text: r.SeparatorText}
	}
	return picker.Choice[string]{
		Value:          r.Value,
		Name:           r.Name,
		Description:    r.Description,
		Disabled:       r.Disabled,
		DisabledReason: r.DisabledReason,
	}
}

// document accepts either a top-level list or {choices: [...]}.
type document struct {
	Choices []Record `yaml:"choices"`
}

// Decode parses a YAML or JSON document into picker items. The document is
// either a sequence of records or a mapping with a "choices" sequence.
func Decode(data []byte) ([]picker.Item[string], error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse choices: %w", err)
	}
	if root.Kind == 0 {
		return nil, nil // Empty document
	}

	var records []Record
	body := &root
	if body.Kind == yaml.DocumentNode && len(body.Content) > 0 {
		body = body.Content[0]
	}
	switch body.Kind {
	case yaml.SequenceNode:
		if err := body.Decode(&records); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var doc document
		if err := body.Decode(&doc); err != nil {
			return nil, err
		}
		records = doc.Choices
	default:
		return nil, fmt.Errorf("%w: expected a list of choices", ErrInvalidRecord)
	}

	return Items(records), nil
}

// Items converts records to picker items.
func Items(records []Record) []picker.Item[string] {
	items := make([]picker.Item[string], 0, len(records))
	for _, r := range records {
		items = append(items, r.Item())
	}
	return items
}
