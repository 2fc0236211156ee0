package terminal

// ColorKind distinguishes color representations
type ColorKind uint8

const (
	ColorDefault ColorKind = iota // Terminal default color
	ColorNamed                    // Standard 16-color palette, Index 0-15
	ColorIndexed                  // xterm 256-color palette, Index 0-255
	ColorRGB                      // 24-bit
)

// Color is a foreground or background color
// The zero value is the terminal default
type Color struct {
	Kind  ColorKind
	Index uint8
	R     uint8
	G     uint8
	B     uint8
}

// NoColor is the terminal default, also used as the monochrome degradation result
var NoColor = Color{}

// Named returns one of the 16 standard colors
func Named(n uint8) Color {
	return Color{Kind: ColorNamed, Index: n & 0x0f}
}

// Indexed returns an xterm 256-palette color
func Indexed(n uint8) Color {
	return Color{Kind: ColorIndexed, Index: n}
}

// RGB returns a 24-bit color
func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// Standard 16 colors
var (
	Black         = Named(0)
	Red           = Named(1)
	Green         = Named(2)
	Yellow        = Named(3)
	Blue          = Named(4)
	Magenta       = Named(5)
	Cyan          = Named(6)
	White         = Named(7)
	BrightBlack   = Named(8)
	BrightRed     = Named(9)
	BrightGreen   = Named(10)
	BrightYellow  = Named(11)
	BrightBlue    = Named(12)
	BrightMagenta = Named(13)
	BrightCyan    = Named(14)
	BrightWhite   = Named(15)
)

// IsDefault reports whether c is the terminal default
func (c Color) IsDefault() bool {
	return c.Kind == ColorDefault
}

// ColorDepth indicates terminal color capability
type ColorDepth uint8

const (
	Monochrome ColorDepth = iota
	Color16
	Color256
	TrueColor
)

func (d ColorDepth) String() string {
	switch d {
	case TrueColor:
		return "true_color"
	case Color256:
		return "color_256"
	case Color16:
		return "color_16"
	default:
		return "monochrome"
	}
}

// Color cube values for 6x6x6 palette (indices 16-231)
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeIndex maps 0-255 to nearest cube level 0-5
var cubeIndex [256]uint8

// grayscaleStart is the first grayscale index (232-255 = 24 shades)
const grayscaleStart = 232

func init() {
	for i := 0; i < 256; i++ {
		best := 0
		bestDist := abs(i - int(cubeValues[0]))
		for j := 1; j < 6; j++ {
			d := abs(i - int(cubeValues[j]))
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		cubeIndex[i] = uint8(best)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// distSq is the squared euclidean distance between two RGB triples
func distSq(r1, g1, b1, r2, g2, b2 uint8) int {
	dr := int(r1) - int(r2)
	dg := int(g1) - int(g2)
	db := int(b1) - int(b2)
	return dr*dr + dg*dg + db*db
}

// RGBTo256 converts RGB to the nearest xterm 256-palette index
// Candidates are the nearest cube entry and the nearest grayscale ramp step;
// on equal distance the cube entry wins
func RGBTo256(r, g, b uint8) uint8 {
	cr, cg, cb := cubeIndex[r], cubeIndex[g], cubeIndex[b]
	cube := Cube256(cr, cg, cb)
	cubeDist := distSq(r, g, b, cubeValues[cr], cubeValues[cg], cubeValues[cb])

	avg := (int(r) + int(g) + int(b)) / 3
	step := (avg - 3) / 10
	if avg < 3 {
		step = 0
	}
	if step > 23 {
		step = 23
	}
	level := grayLevel(uint8(step))
	grayDist := distSq(r, g, b, level, level, level)

	if grayDist < cubeDist {
		return Gray256(uint8(step))
	}
	return cube
}

// Palette256RGB returns the RGB value of an xterm 256-palette entry
func Palette256RGB(n uint8) (r, g, b uint8) {
	switch {
	case n < 16:
		c := palette16[n]
		return c[0], c[1], c[2]
	case n < grayscaleStart:
		cr, cg, cb := CubeRGB256(n)
		return cubeValues[cr], cubeValues[cg], cubeValues[cb]
	default:
		l := grayLevel(n - grayscaleStart)
		return l, l, l
	}
}
