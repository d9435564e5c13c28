package outwriter

import (
	"os"

	"github.com/huangsam/tdacrash/internal/contract"
	"golang.org/x/term"
)

// terminalWidth returns the width override from the config, the detected
// terminal width, or 80 columns.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// maxMatrixColumns returns how many matrix columns fit next to the row label
// in a table of the configured width. At least 2 columns are always shown.
func maxMatrixColumns(cfg *contract.Config) int {
	// Each cell holds "-" or digits plus borders and padding
	cellWidth := cfg.Precision + 6
	labelWidth := 8
	available := (terminalWidth(cfg) - labelWidth) / cellWidth
	return max(available, 2)
}
