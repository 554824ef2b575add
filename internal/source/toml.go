package source

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/runger/rselect/internal/picker"
)

// tomlDocument is the TOML form of a choice list:
//
//	[[choices]]
//	value = "apple"
//	name = "Apple"
//	disabled = "out of stock"
type tomlDocument struct {
	Choices []tomlRecord `toml:"choices"`
}

type tomlRecord struct {
	Value       any    `toml:"value"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Disabled    any    `toml:"disabled"`
	Separator   any    `toml:"separator"`
}

// DecodeTOML parses a TOML document with a [[choices]] array of tables.
func DecodeTOML(data []byte) ([]picker.Item[string], error) {
	var doc tomlDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse choices: %w", err)
	}

	records := make([]Record, 0, len(doc.Choices))
	for i, raw := range doc.Choices {
		rec, err := raw.record()
		if err != nil {
			return nil, fmt.Errorf("%w: choices[%d]: %v", ErrInvalidRecord, i, err)
		}
		records = append(records, rec)
	}
	return Items(records), nil
}

func (r tomlRecord) record() (Record, error) {
	rec := Record{Name: r.Name, Description: r.Description}

	var err error
	if rec.Separator, rec.SeparatorText, err = anyFlag(r.Separator); err != nil {
		return Record{}, fmt.Errorf("separator: %w", err)
	}
	if rec.Disabled, rec.DisabledReason, err = anyFlag(r.Disabled); err != nil {
		return Record{}, fmt.Errorf("disabled: %w", err)
	}

	switch v := r.Value.(type) {
	case string:
		rec.Value = v
	case int64:
		rec.Value = strconv.FormatInt(v, 10)
	case float64:
		rec.Value = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		rec.Value = strconv.FormatBool(v)
	case nil:
		if !rec.Separator {
			return Record{}, errors.New("missing value")
		}
	default:
		return Record{}, fmt.Errorf("value must be a scalar, got %T", v)
	}
	return rec, nil
}

// anyFlag is the TOML counterpart of flagOrText.
func anyFlag(v any) (bool, string, error) {
	switch v := v.(type) {
	case nil:
		return false, "", nil
	case bool:
		return v, "", nil
	case int64:
		b, err := strconv.ParseBool(strconv.FormatInt(v, 10))
		return b, "", err
	case string:
		return v != "", v, nil
	default:
		return false, "", errors.New("expected boolean or string")
	}
}
