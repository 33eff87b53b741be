package ui

import (
	"os"
	"sync"

	"golang.org/x/term"
)

var (
	ttyOnce sync.Once
	ttyOK   bool
)

// Interactive reports whether stdout is a real terminal. Piped output gets
// plain, machine-friendly lines instead of styled ones.
func Interactive() bool {
	ttyOnce.Do(func() {
		if os.Getenv("TERM") == "dumb" {
			return
		}
		ttyOK = term.IsTerminal(int(os.Stdout.Fd()))
	})
	return ttyOK
}

// Icon returns the unicode glyph on capable terminals, the ascii fallback
// otherwise.
func Icon(unicode, ascii string) string {
	if Interactive() {
		return unicode
	}
	return ascii
}
