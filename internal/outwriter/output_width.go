package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/huangsam/hazardtable/internal/contract"
)

// getMaxTableLocationWidth calculates the maximum width for location names in
// table output based on terminal width and table configuration.
func getMaxTableLocationWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// APoE + Site Class + PGA/Sas/Tc/Td with borders and padding
	baseWidth := 60
	if cfg.Diagnostics {
		baseWidth += 30 // PSV + Floor + Flags
	}
	available := termWidth - baseWidth

	// Grid ids like -41.300~174.780 need about 15 runes
	if available < 15 {
		return 15
	}
	if available > 40 {
		return 40
	}
	return available
}
