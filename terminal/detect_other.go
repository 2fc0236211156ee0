//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package terminal

// resetTerminalMode is a no-op where termios is unavailable
func resetTerminalMode() {}
