// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/skillmine/internal/contract"
	"golang.org/x/term"
)

// Widths of the fixed table columns, borders included.
const (
	fixedColumnsWidth = 60
	minNameWidth      = 15
	maxNameWidth      = 70
)

// terminalWidth returns the configured width override or the detected terminal width.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detected
}

// GetMaxTableNameWidth calculates the width left for repository and language names.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	available := terminalWidth(cfg) - fixedColumnsWidth
	return min(max(available, minNameWidth), maxNameWidth)
}
