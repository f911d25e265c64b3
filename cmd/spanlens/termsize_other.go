//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package main

// termSize is not supported on this platform. Output is never treated as a terminal.
func termSize(fd int) (cols, rows int, ok bool) {
	return 0, 0, false
}
