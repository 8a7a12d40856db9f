package annotations

import "github.com/mattn/go-isatty"

// isTerminal reports whether fd refers to an interactive terminal.
func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
