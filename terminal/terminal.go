package terminal

import (
	"io"
	"os"
)

// Position is a 1-indexed screen coordinate
type Position struct {
	Row int
	Col int
}

// Size is a terminal dimension in character cells
type Size struct {
	Rows int
	Cols int
}

// DefaultSize is the documented fallback when no dimension is known
var DefaultSize = Size{Rows: 24, Cols: 80}

// Valid reports whether both dimensions are positive
func (s Size) Valid() bool {
	return s.Rows > 0 && s.Cols > 0
}

// Contains reports whether p lies inside a screen of this size
func (s Size) Contains(p Position) bool {
	return p.Row >= 1 && p.Row <= s.Rows && p.Col >= 1 && p.Col <= s.Cols
}

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone          Attr = 0
	AttrBold          Attr = 1 << 0
	AttrDim           Attr = 1 << 1
	AttrItalic        Attr = 1 << 2
	AttrUnderline     Attr = 1 << 3
	AttrBlink         Attr = 1 << 4
	AttrReverse       Attr = 1 << 5
	AttrHidden        Attr = 1 << 6
	AttrStrikethrough Attr = 1 << 7
)

// attrSGR holds the SGR parameter for each attribute bit, in bit order
var attrSGR = [8]int{1, 2, 3, 4, 5, 7, 8, 9}

// Has reports whether all bits of x are set
func (a Attr) Has(x Attr) bool {
	return a&x == x
}

// Style is the foreground, background and attribute triple of a cell
type Style struct {
	Fg    Color
	Bg    Color
	Attrs Attr
}

// Cell represents a single terminal cell
// Zero Ch draws as a space
type Cell struct {
	Ch    rune
	Fg    Color
	Bg    Color
	Attrs Attr
}

// Style returns the cell's style triple
func (c Cell) Style() Style {
	return Style{Fg: c.Fg, Bg: c.Bg, Attrs: c.Attrs}
}

// PositionedCell pairs a cell with its target position
type PositionedCell struct {
	Pos  Position
	Cell Cell
}

// Mode tags which kind of backend is active
type Mode uint8

const (
	ModeRaw Mode = iota
	ModeTTY
)

func (m Mode) String() string {
	if m == ModeTTY {
		return "tty"
	}
	return "raw"
}

// EmergencyReset attempts to restore terminal to sane state
// Call this from panic recovery if Shutdown cannot be called normally
func EmergencyReset(w io.Writer) {
	w.Write(csiMouseAllOff)
	w.Write(csiMouseButtonOff)
	w.Write(csiMouseNormalOff)
	w.Write(csiMouseSGROff)

	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiReset)
	w.Write(csiRIS)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}
