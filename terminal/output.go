package terminal

import (
	"bytes"
)

// writeFg writes a complete foreground color sequence
func writeFg(w *bytes.Buffer, c Color) {
	switch c.Kind {
	case ColorRGB:
		w.Write(csiFgRGB)
		writeRGB(w, c)
	case ColorIndexed:
		w.Write(csiFg256)
		writeInt(w, int(c.Index))
		w.WriteByte('m')
	case ColorNamed:
		if c.Index < 8 {
			writeSGR(w, 30+int(c.Index))
		} else {
			writeSGR(w, 90+int(c.Index-8))
		}
	default:
		w.Write(csiDefaultFg)
	}
}

// writeBg writes a complete background color sequence
func writeBg(w *bytes.Buffer, c Color) {
	switch c.Kind {
	case ColorRGB:
		w.Write(csiBgRGB)
		writeRGB(w, c)
	case ColorIndexed:
		w.Write(csiBg256)
		writeInt(w, int(c.Index))
		w.WriteByte('m')
	case ColorNamed:
		if c.Index < 8 {
			writeSGR(w, 40+int(c.Index))
		} else {
			writeSGR(w, 100+int(c.Index-8))
		}
	default:
		w.Write(csiDefaultBg)
	}
}

// writeRGB writes R;G;B and the terminating m
func writeRGB(w *bytes.Buffer, c Color) {
	writeInt(w, int(c.R))
	w.WriteByte(';')
	writeInt(w, int(c.G))
	w.WriteByte(';')
	writeInt(w, int(c.B))
	w.WriteByte('m')
}

// writeAttrs writes one SGR sequence per set attribute, in SGR order
func writeAttrs(w *bytes.Buffer, a Attr) {
	for i, code := range attrSGR {
		if a&(1<<i) != 0 {
			writeSGR(w, code)
		}
	}
}

// writeStyleDelta emits the minimal sequences moving the terminal from prev to next
// Dropping any attribute forces a reset followed by a full rebuild, since SGR
// has no portable per-attribute off codes. An unknown prev is treated the same way.
func writeStyleDelta(w *bytes.Buffer, prev Style, known bool, next Style) {
	if !known || prev.Attrs&^next.Attrs != 0 {
		w.Write(csiReset)
		writeAttrs(w, next.Attrs)
		if !next.Fg.IsDefault() {
			writeFg(w, next.Fg)
		}
		if !next.Bg.IsDefault() {
			writeBg(w, next.Bg)
		}
		return
	}

	if next.Fg != prev.Fg {
		writeFg(w, next.Fg)
	}
	if next.Bg != prev.Bg {
		writeBg(w, next.Bg)
	}
	writeAttrs(w, next.Attrs&^prev.Attrs)
}

// absoluteMoveCost is the byte length of ESC[row;colH
func absoluteMoveCost(to Position) int {
	return len(csi) + intLen(to.Row) + 1 + intLen(to.Col) + 1
}

// relativeMoveCost is the byte length of a single CUU/CUD/CUF/CUB for n cells
func relativeMoveCost(n int) int {
	switch {
	case n == 0:
		return 0
	case n == 1:
		return len(csi) + 1
	default:
		return len(csi) + intLen(n) + 1
	}
}

// writeCursorMove emits the cheapest sequence taking the cursor from `from` to `to`
// Relative movement is only used when strictly cheaper than absolute.
// Without optimization, or when from is unknown, positioning is always absolute.
func writeCursorMove(w *bytes.Buffer, from Position, known bool, to Position, optimize bool) {
	if !optimize {
		writeCursorPos(w, to)
		return
	}
	if to.Row == 1 && to.Col == 1 {
		w.Write(csiHome)
		return
	}
	if !known {
		writeCursorPos(w, to)
		return
	}

	dRow := to.Row - from.Row
	dCol := to.Col - from.Col
	rel := relativeMoveCost(abs(dRow)) + relativeMoveCost(abs(dCol))
	if rel >= absoluteMoveCost(to) {
		writeCursorPos(w, to)
		return
	}

	if dRow < 0 {
		writeCursorRel(w, -dRow, 'A')
	} else {
		writeCursorRel(w, dRow, 'B')
	}
	if dCol > 0 {
		writeCursorRel(w, dCol, 'C')
	} else {
		writeCursorRel(w, -dCol, 'D')
	}
}
