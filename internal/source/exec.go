package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/runger/rselect/internal/picker"
)

// separatorLine marks a separator in subprocess output.
const separatorLine = "---"

// Command runs a program and turns each non-empty stdout line into a
// choice. A line consisting of "---" becomes a separator.
type Command struct {
	Args []string
	Dir  string
}

// Compile-time check that Command implements picker.Source.
var _ picker.Source[string] = (*Command)(nil)

// NewCommand splits line with shell quoting rules. No shell is involved, so
// pipes and globbing are not interpreted.
func NewCommand(line string) (*Command, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("exec source: parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil, errors.New("exec source: empty command")
	}
	return &Command{Args: args}, nil
}

// Fetch implements picker.Source.
func (c *Command) Fetch(ctx context.Context) ([]picker.Item[string], error) {
	if len(c.Args) == 0 {
		return nil, errors.New("exec source: empty command")
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...) //nolint:gosec // G204: command is supplied by the user
	cmd.Dir = c.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("exec source: %s: %w: %s", c.Args[0], err, msg)
		}
		return nil, fmt.Errorf("exec source: %s: %w", c.Args[0], err)
	}
	items, err := parseLines(out)
	if err != nil {
		return nil, fmt.Errorf("exec source: %s: %w", c.Args[0], err)
	}
	return items, nil
}

// maxLineBytes bounds a single line of line-oriented input.
const maxLineBytes = 1 << 20

// parseLines converts line-oriented output into items. A line longer than
// maxLineBytes is an error rather than the end of the input.
func parseLines(out []byte) ([]picker.Item[string], error) {
	var items []picker.Item[string]
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch strings.TrimSpace(line) {
		case "":
			continue
		case separatorLine:
			items = append(items, picker.Separator{})
		default:
			items = append(items, picker.Choice[string]{Value: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return items, nil
}
