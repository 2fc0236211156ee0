package terminal

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// ColorFromTcell converts a tcell color
// Palette entries 0-15 become named colors, 16-255 indexed, RGB stays RGB
func ColorFromTcell(c tcell.Color) Color {
	if c == tcell.ColorDefault || !c.Valid() {
		return NoColor
	}
	if c.IsRGB() {
		r, g, b := c.RGB()
		return RGB(uint8(r), uint8(g), uint8(b))
	}
	idx := int(c - tcell.ColorValid)
	if idx < 16 {
		return Named(uint8(idx))
	}
	return Indexed(uint8(idx))
}

// AttrFromTcell converts a tcell attribute mask
func AttrFromTcell(mask tcell.AttrMask) Attr {
	var a Attr
	if mask&tcell.AttrBold != 0 {
		a |= AttrBold
	}
	if mask&tcell.AttrDim != 0 {
		a |= AttrDim
	}
	if mask&tcell.AttrItalic != 0 {
		a |= AttrItalic
	}
	if mask&tcell.AttrUnderline != 0 {
		a |= AttrUnderline
	}
	if mask&tcell.AttrBlink != 0 {
		a |= AttrBlink
	}
	if mask&tcell.AttrReverse != 0 {
		a |= AttrReverse
	}
	if mask&tcell.AttrStrikeThrough != 0 {
		a |= AttrStrikethrough
	}
	return a
}

// ParseColor resolves "default", a palette index 0-255, #rrggbb, or a tcell color name
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || name == "default" {
		return NoColor, nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n > 255 {
			return NoColor, errors.Errorf("palette index %d out of range", n)
		}
		if n < 16 {
			return Named(uint8(n)), nil
		}
		return Indexed(uint8(n)), nil
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return NoColor, errors.Errorf("unknown color %q", s)
	}
	return ColorFromTcell(c), nil
}
