//go:build windows

package runner

// fixOutputProcessing is a no-op; raw mode on Windows leaves output
// processing alone.
func fixOutputProcessing(fd int) {}
