// Package main is the entry point for the rselect CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/runger/rselect/internal/cmd"
	"github.com/runger/rselect/internal/picker"
)

func main() {
	err := cmd.Execute()
	if err != nil && !errors.Is(err, picker.ErrCancelled) {
		fmt.Fprintf(os.Stderr, "rselect: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
