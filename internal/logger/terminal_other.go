//go:build !linux

package logger

// isTerminal reports false off Linux; ztee only moves data on Linux and the
// logger falls back to plain text there.
func isTerminal(fd uintptr) bool {
	return false
}
