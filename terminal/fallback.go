package terminal

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// neutralSpread is the max channel spread treated as achromatic by RGBTo16
const neutralSpread = 24

// brightLightness is the CIE L* (0-1) above which RGBTo16 picks the bright variant
const brightLightness = 0.6

// RGBTo16 converts RGB to one of the 16 standard colors
// Channels at or above half of the strongest channel select the base hue,
// lightness selects the bright variant
func RGBTo16(r, g, b uint8) uint8 {
	l, _, _ := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Lab()

	hi := max(r, g, b)
	lo := min(r, g, b)
	if int(hi)-int(lo) <= neutralSpread {
		switch {
		case l < 0.25:
			return 0
		case l < 0.6:
			return 8
		case l < 0.9:
			return 7
		default:
			return 15
		}
	}

	half := hi / 2
	var base uint8
	if r > half {
		base |= 1
	}
	if g > half {
		base |= 2
	}
	if b > half {
		base |= 4
	}
	if l >= brightLightness {
		return base + 8
	}
	return base
}

// Color256To16 maps an xterm 256-palette index to the nearest standard color
// Indices 0-15 pass through unchanged
func Color256To16(n uint8) uint8 {
	if n < 16 {
		return n
	}
	r, g, b := Palette256RGB(n)
	target := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}

	best := uint8(0)
	bestDist := -1.0
	for i, p := range palette16 {
		c := colorful.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255}
		d := target.DistanceLab(c)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = uint8(i)
		}
	}
	return best
}

// DegradeColor maps a 24-bit color to the best representation for depth
// Monochrome always yields NoColor
func DegradeColor(r, g, b uint8, depth ColorDepth) Color {
	switch depth {
	case TrueColor:
		return RGB(r, g, b)
	case Color256:
		return Indexed(RGBTo256(r, g, b))
	case Color16:
		return Named(RGBTo16(r, g, b))
	default:
		return NoColor
	}
}

// Degrade maps any color to a representation supported at depth
func Degrade(c Color, depth ColorDepth) Color {
	if depth == Monochrome {
		return NoColor
	}
	switch c.Kind {
	case ColorRGB:
		return DegradeColor(c.R, c.G, c.B, depth)
	case ColorIndexed:
		if depth == Color16 {
			return Named(Color256To16(c.Index))
		}
	}
	return c
}

// DegradeStyle degrades both colors of a style
// Monochrome keeps attributes so bold and reverse still render
func DegradeStyle(s Style, depth ColorDepth) Style {
	return Style{Fg: Degrade(s.Fg, depth), Bg: Degrade(s.Bg, depth), Attrs: s.Attrs}
}

// asciiGlyphs substitutes box drawing, shading, arrows and check marks
var asciiGlyphs = map[rune]rune{
	// Lines
	'─': '-', '━': '-', '═': '-', '╌': '-', '┄': '-',
	'│': '|', '┃': '|', '║': '|', '╎': '|', '┆': '|',

	// Corners
	'┌': '+', '┐': '+', '└': '+', '┘': '+',
	'┏': '+', '┓': '+', '┗': '+', '┛': '+',
	'╔': '+', '╗': '+', '╚': '+', '╝': '+',
	'╭': '+', '╮': '+', '╰': '+', '╯': '+',

	// Junctions
	'├': '+', '┤': '+', '┬': '+', '┴': '+', '┼': '+',
	'┣': '+', '┫': '+', '┳': '+', '┻': '+', '╋': '+',
	'╠': '+', '╣': '+', '╦': '+', '╩': '+', '╬': '+',

	// Blocks and shading
	'█': '#', '▓': '#', '▒': '%', '░': '.',
	'▀': '#', '▄': '#', '▌': '#', '▐': '#',

	// Arrows
	'←': '<', '→': '>', '↑': '^', '↓': 'v',
	'↔': '-', '↕': '|',
	'◀': '<', '▶': '>', '▲': '^', '▼': 'v',

	// Checks and bullets
	'✓': 'v', '✔': 'v', '✗': 'x', '✘': 'x',
	'•': '*', '●': '*', '○': 'o', '·': '.',
}

// UnicodeToASCII substitutes a glyph from the ASCII table
// Glyphs absent from the table pass through unchanged
func UnicodeToASCII(r rune) rune {
	if r < 0x80 {
		return r
	}
	if a, ok := asciiGlyphs[r]; ok {
		return a
	}
	return r
}

// ASCIIString substitutes every grapheme cluster of s
// Clusters carrying combining marks or variation selectors collapse to their base glyph when substituted
func ASCIIString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		base := []rune(cluster)[0]
		if a, ok := asciiGlyphs[base]; ok {
			sb.WriteRune(a)
			continue
		}
		sb.WriteString(cluster)
	}
	return sb.String()
}

// Charset selects the glyph repertoire used for output
type Charset uint8

const (
	CharsetAuto Charset = iota // Resolved from Capabilities.Unicode
	CharsetUnicode
	CharsetASCII
)

func (c Charset) String() string {
	switch c {
	case CharsetUnicode:
		return "unicode"
	case CharsetASCII:
		return "ascii"
	default:
		return "auto"
	}
}

// Resolve replaces CharsetAuto with the charset the capabilities allow
func (c Charset) Resolve(caps Capabilities) Charset {
	if c != CharsetAuto {
		return c
	}
	if caps.Unicode {
		return CharsetUnicode
	}
	return CharsetASCII
}

// glyph returns the rune to print for a cell
func (c Charset) glyph(r rune) rune {
	if r == 0 {
		return ' '
	}
	if c == CharsetASCII {
		return UnicodeToASCII(r)
	}
	return r
}
