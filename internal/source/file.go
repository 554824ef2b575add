package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runger/rselect/internal/picker"
)

// File reads choices from a YAML, JSON or TOML file. The format is chosen
// by extension; anything other than .toml is decoded as YAML.
type File struct {
	Path string
}

// Compile-time check that File implements picker.Source.
var _ picker.Source[string] = (*File)(nil)

// NewFile creates a source reading path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Fetch implements picker.Source.
func (f *File) Fetch(ctx context.Context) ([]picker.Item[string], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	decode := Decode
	if strings.EqualFold(filepath.Ext(f.Path), ".toml") {
		decode = DecodeTOML
	}
	items, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("file source: %s: %w", f.Path, err)
	}
	return items, nil
}
