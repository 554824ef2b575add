package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// minTermWidth is the narrowest terminal the prompt is drawn in.
const minTermWidth = 20

// ErrNoTerminal is returned when there is no usable controlling terminal.
var ErrNoTerminal = errors.New("no usable terminal")

// checkTERM verifies that the TERM environment variable is not "dumb".
func checkTERM() error {
	if os.Getenv("TERM") == "dumb" {
		return fmt.Errorf("%w: TERM=dumb is not supported", ErrNoTerminal)
	}
	return nil
}

// checkTermWidth verifies that the terminal is at least minTermWidth
// columns wide. An unknown width passes.
func checkTermWidth(tty *os.File) error {
	if w := termWidth(tty); w > 0 && w < minTermWidth {
		return fmt.Errorf("%w: terminal too narrow (%d columns, need at least %d)", ErrNoTerminal, w, minTermWidth)
	}
	return nil
}

// openTerminal opens the controlling terminal for the prompt, since stdin
// and stdout may carry data. The caller closes the returned file.
func openTerminal() (*os.File, error) {
	if err := checkTERM(); err != nil {
		return nil, err
	}

	tty, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}

	if err := checkTermWidth(tty); err != nil {
		tty.Close()
		return nil, err
	}

	// When invoked via $(rselect ...), stdout is a pipe so lipgloss
	// defaults to Ascii. Detect from the real tty instead; the picker's
	// package-level styles use the default renderer and pick this up.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).EnvColorProfile())

	return tty, nil
}
