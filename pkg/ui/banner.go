package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/fuucckk/Fenjing/pkg/defaults"
)

// Version information, overridable at build time via ldflags.
var (
	Version   = defaults.Version
	BuildDate = "dev"
	Commit    = "dev"
)

// Global UI state.
var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent suppresses the banner and progress output.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent reports whether silent mode is enabled.
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output.
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

const bannerArt = `
   ____           _ _
  / __/__  ____  (_|_)___  ____ _
 / /_/ _ \/ __ \ / / / __ \/ __ '/
/ __/  __/ / / / / / / / / /_/ /
/_/  \___/_/ /_)_/ /_/ /_/\__, /
              /___/      /____/
`

// PrintBanner writes the styled banner to stderr.
func PrintBanner() {
	if IsSilent() {
		return
	}
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			fmt.Fprintln(os.Stderr, BannerStyle.Render(line))
		}
	}
	fmt.Fprintf(os.Stderr, "            %s\n\n", VersionStyle.Render("v"+Version))
}
