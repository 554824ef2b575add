package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/runger/rselect/internal/config"
	"github.com/runger/rselect/internal/picker"
	"github.com/runger/rselect/internal/source"
)

// ErrNoChoices is returned when no choice source was given.
var ErrNoChoices = errors.New("no choices: pass them as arguments, pipe them on stdin or use a source flag")

// stdinPiped reports whether stdin carries data rather than a terminal.
// Overridden in tests.
var stdinPiped = func() bool {
	fd := os.Stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// origin is where the prompt's choices come from. Exactly one
// of source and choices is set.
type origin struct {
	name    string // Short label for logs
	source  picker.Source[string]
	choices []picker.Item[string]
}

// buildSource resolves the flags and positional arguments to a single
// choice source. Remote sources are wrapped with the configured delay and
// timeout.
func buildSource(cfg *config.Config, o selectOptions, args []string, stdin io.Reader) (origin, error) {
	if o.query != "" && o.sqlitePath == "" {
		return origin{}, errors.New("--query requires --sqlite")
	}
	if o.grpcMethod != "" && o.grpcTarget == "" {
		return origin{}, errors.New("--grpc-method requires --grpc")
	}

	var given []string
	for name, set := range map[string]bool{
		"arguments": len(args) > 0,
		"--file":    o.file != "",
		"--url":     o.url != "",
		"--exec":    o.execLine != "",
		"--sqlite":  o.sqlitePath != "",
		"--grpc":    o.grpcTarget != "",
		"--demo":    o.demo,
	} {
		if set {
			given = append(given, name)
		}
	}
	slices.Sort(given)
	if len(given) > 1 {
		return origin{}, fmt.Errorf("only one choice source may be given (got %s)", strings.Join(given, ", "))
	}

	var src origin
	switch {
	case len(args) > 0:
		items := make([]picker.Item[string], 0, len(args))
		for _, a := range args {
			items = append(items, picker.Choice[string]{Value: a})
		}
		return origin{name: "arguments", choices: items}, nil

	case o.file != "":
		src = origin{name: "file", source: source.NewFile(o.file)}

	case o.url != "":
		src = origin{name: "http", source: source.NewHTTP(o.url)}

	case o.execLine != "":
		c, err := source.NewCommand(o.execLine)
		if err != nil {
			return origin{}, err
		}
		src = origin{name: "exec", source: c}

	case o.sqlitePath != "":
		if o.query == "" {
			return origin{}, errors.New("--sqlite requires --query")
		}
		src = origin{name: "sqlite", source: source.NewSQLite(o.sqlitePath, o.query)}

	case o.grpcTarget != "":
		method := o.grpcMethod
		if method == "" {
			method = cfg.Source.GRPCMethod
		}
		src = origin{name: "grpc", source: source.NewGRPC(o.grpcTarget, method)}

	case o.demo:
		src = origin{name: "demo", source: source.Demo()}

	case stdinPiped():
		src = origin{name: "stdin", source: &source.Reader{R: stdin}}

	default:
		return origin{}, ErrNoChoices
	}

	src.source = source.WithTimeout(source.WithDelay(src.source, cfg.Delay()), cfg.Timeout())
	return src, nil
}
