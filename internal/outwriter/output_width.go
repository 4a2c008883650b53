package outwriter

import (
	"os"

	"github.com/huangsam/fundscore/internal/contract"
	"golang.org/x/term"
)

// Table width limits for the free-text column (headline, statement, message).
const (
	defaultTermWidth = 80
	minTextWidth     = 20
	maxTextWidth     = 90
	tableChrome      = 10
)

// terminalWidth returns the --width override, the detected width, or 80.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return defaultTermWidth
	}
	return detected
}

// getMaxTableTextWidth calculates the room left for the free-text column
// once the fixed columns, which take fixedWidth cells, are laid out.
func getMaxTableTextWidth(cfg *contract.Config, fixedWidth int) int {
	available := terminalWidth(cfg) - fixedWidth - tableChrome
	return max(minTextWidth, min(maxTextWidth, available))
}
