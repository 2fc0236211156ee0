package terminal

import (
	"bytes"
)

// Pre-allocated ANSI sequence fragments
var (
	csi      = []byte("\x1b[")
	csiReset = []byte("\x1b[0m")
	csiClear = []byte("\x1b[2J\x1b[H")
	csiHome  = []byte("\x1b[H")
	csiRIS   = []byte("\x1bc") // Reset to Initial State (emergency)

	// Cursor control
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")

	// Screen modes
	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")

	// Mouse tracking
	csiMouseNormalOn  = []byte("\x1b[?1000h")
	csiMouseNormalOff = []byte("\x1b[?1000l")
	csiMouseButtonOn  = []byte("\x1b[?1002h")
	csiMouseButtonOff = []byte("\x1b[?1002l")
	csiMouseAllOn     = []byte("\x1b[?1003h")
	csiMouseAllOff    = []byte("\x1b[?1003l")
	csiMouseSGROn     = []byte("\x1b[?1006h")
	csiMouseSGROff    = []byte("\x1b[?1006l")

	// Color prefixes
	csiFg256     = []byte("\x1b[38;5;") // followed by N m
	csiBg256     = []byte("\x1b[48;5;") // followed by N m
	csiFgRGB     = []byte("\x1b[38;2;") // followed by R;G;B m
	csiBgRGB     = []byte("\x1b[48;2;") // followed by R;G;B m
	csiDefaultFg = []byte("\x1b[39m")
	csiDefaultBg = []byte("\x1b[49m")
)

// writeInt writes a non-negative integer without allocation
// Optimized for terminal values (0-255 common, 0-999 typical max)
func writeInt(w *bytes.Buffer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		w.WriteByte(byte(n) + '0')
		return
	}
	if n < 100 {
		w.WriteByte(byte(n/10) + '0')
		w.WriteByte(byte(n%10) + '0')
		return
	}
	if n < 1000 {
		w.WriteByte(byte(n/100) + '0')
		w.WriteByte(byte(n/10%10) + '0')
		w.WriteByte(byte(n%10) + '0')
		return
	}
	var buf [20]byte
	i := len(buf) - 1
	for n > 0 {
		buf[i] = byte(n%10) + '0'
		n /= 10
		i--
	}
	w.Write(buf[i+1:])
}

// intLen returns the decimal digit count of a non-negative integer
func intLen(n int) int {
	l := 1
	for n >= 10 {
		n /= 10
		l++
	}
	return l
}

// writeCursorPos writes an absolute cursor positioning sequence (1-indexed)
func writeCursorPos(w *bytes.Buffer, p Position) {
	w.Write(csi)
	writeInt(w, p.Row)
	w.WriteByte(';')
	writeInt(w, p.Col)
	w.WriteByte('H')
}

// writeCursorRel writes a relative cursor movement; n of 1 omits the count
func writeCursorRel(w *bytes.Buffer, n int, dir byte) {
	if n <= 0 {
		return
	}
	w.Write(csi)
	if n > 1 {
		writeInt(w, n)
	}
	w.WriteByte(dir)
}

// writeSGR writes a single-parameter SGR sequence
func writeSGR(w *bytes.Buffer, n int) {
	w.Write(csi)
	writeInt(w, n)
	w.WriteByte('m')
}
