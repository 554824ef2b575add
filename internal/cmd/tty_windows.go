//go:build windows

package cmd

import "os"

const ttyPath = "CON"

// termWidth returns 0 on Windows; the prompt learns the width from the
// first window size event instead.
func termWidth(*os.File) int {
	return 0
}
