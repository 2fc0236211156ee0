package terminal

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawOptions returns options for a plain 24x80 session on a true color terminal
func rawOptions(dev Device, clock *fakeClock) Options {
	opts := DefaultOptions()
	opts.Size = Size{Rows: 24, Cols: 80}
	opts.Device = dev
	opts.Now = clock.Now
	return opts
}

func initRaw(t *testing.T, opts Options) Raw {
	t.Helper()
	b, err := RawDriver{}.Init(opts)
	require.NoError(t, err)
	return b.(Raw)
}

// TestRawInitSequence verifies setup order and that setup is one device write
func TestRawInitSequence(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)

	b := initRaw(t, rawOptions(dev, clock))

	assert.Equal(t, "\x1b[?1049h\x1b[?25l\x1b[2J\x1b[H", dev.take())
	assert.Equal(t, 1, dev.writes)

	pos, known := b.CursorPosition()
	assert.True(t, known)
	assert.Equal(t, Position{Row: 1, Col: 1}, pos)

	_, styleKnown := b.CurrentStyle()
	assert.False(t, styleKnown, "style must be unknown after init")
	assert.False(t, b.CursorVisible())
	assert.True(t, b.AltScreen())
	assert.Equal(t, ModeRaw, b.Mode())
}

// TestRawInitMouse verifies mouse tracking is enabled with SGR coordinates before the clear
func TestRawInitMouse(t *testing.T) {
	tests := []struct {
		mode MouseMode
		want string
	}{
		{MouseClick, "\x1b[?1000h\x1b[?1006h"},
		{MouseDrag, "\x1b[?1002h\x1b[?1006h"},
		{MouseAll, "\x1b[?1003h\x1b[?1006h"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			clock := newFakeClock()
			dev := newFakeDevice(clock)
			opts := rawOptions(dev, clock)
			opts.Mouse = tt.mode

			b := initRaw(t, opts)
			assert.Equal(t, "\x1b[?1049h\x1b[?25l"+tt.want+"\x1b[2J\x1b[H", dev.take())
			assert.Equal(t, tt.mode, b.MouseMode())
		})
	}
}

// TestRawInitWithoutAltScreen verifies disabled setup steps are skipped
func TestRawInitWithoutAltScreen(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	opts := rawOptions(dev, clock)
	opts.AltScreen = false
	opts.HideCursor = false

	b := initRaw(t, opts)
	assert.Equal(t, "\x1b[2J\x1b[H", dev.take())
	assert.True(t, b.CursorVisible())
	assert.False(t, b.AltScreen())
}

// TestRawInitInvalidSize verifies a zero dimension fails before any output
func TestRawInitInvalidSize(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	opts := rawOptions(dev, clock)
	opts.Size = Size{Rows: 0, Cols: 80}

	_, err := RawDriver{}.Init(opts)
	require.ErrorIs(t, err, ErrInvalidSize)
	assert.Zero(t, dev.out.Len())
	assert.Zero(t, dev.writes)
}

// TestRawInitNoDevice verifies a missing device is reported
func TestRawInitNoDevice(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = DefaultSize
	_, err := RawDriver{}.Init(opts)
	require.ErrorIs(t, err, ErrNoDevice)
}

// TestRawDrawSingleCell verifies a styled cell after init emits reset, attributes, color, glyph
func TestRawDrawSingleCell(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	next, err := b.DrawCells([]PositionedCell{
		{Pos: Position{Row: 1, Col: 1}, Cell: Cell{Ch: 'A', Fg: Red, Attrs: AttrBold}},
	})
	require.NoError(t, err)
	r := next.(Raw)

	assert.Equal(t, "\x1b[0m\x1b[1m\x1b[31mA", dev.take())

	pos, known := r.CursorPosition()
	assert.True(t, known)
	assert.Equal(t, Position{Row: 1, Col: 2}, pos)

	style, known := r.CurrentStyle()
	assert.True(t, known)
	assert.Equal(t, Style{Fg: Red, Bg: NoColor, Attrs: AttrBold}, style)

	// Receiver is untouched
	pos, _ = b.CursorPosition()
	assert.Equal(t, Position{Row: 1, Col: 1}, pos)
	_, known = b.CurrentStyle()
	assert.False(t, known)
}

// TestRawSameStyleRun verifies consecutive cells of one style emit style bytes once
func TestRawSameStyleRun(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	style := Cell{Fg: Green, Bg: Blue}
	cells := make([]PositionedCell, 0, 3)
	for i, ch := range "abc" {
		c := style
		c.Ch = ch
		cells = append(cells, PositionedCell{Pos: Position{Row: 1, Col: 1 + i}, Cell: c})
	}

	_, err := b.DrawCells(cells)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[0m\x1b[32m\x1b[44mabc", dev.take())
}

// TestRawRedrawSameStyleEmitsNoStyle verifies a known matching style produces no SGR
func TestRawRedrawSameStyleEmitsNoStyle(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))

	cell := Cell{Ch: 'x', Fg: Yellow, Attrs: AttrUnderline}
	next, err := b.DrawCells([]PositionedCell{{Pos: Position{Row: 3, Col: 3}, Cell: cell}})
	require.NoError(t, err)
	dev.take()

	_, err = next.DrawCells([]PositionedCell{{Pos: Position{Row: 3, Col: 4}, Cell: cell}})
	require.NoError(t, err)
	assert.Equal(t, "x", dev.take())
}

// TestRawPermutationInvariance verifies input order does not change output or final state
func TestRawPermutationInvariance(t *testing.T) {
	var cells []PositionedCell
	for row := 1; row <= 4; row++ {
		for col := 1; col <= 10; col += 3 {
			cells = append(cells, PositionedCell{
				Pos:  Position{Row: row, Col: col},
				Cell: Cell{Ch: rune('a' + row + col), Fg: Named(uint8(row + col)), Attrs: Attr(1 << (col % 8))},
			})
		}
	}

	draw := func(batch []PositionedCell) (string, Raw) {
		clock := newFakeClock()
		dev := newFakeDevice(clock)
		b := initRaw(t, rawOptions(dev, clock))
		dev.take()
		next, err := b.DrawCells(batch)
		require.NoError(t, err)
		return dev.take(), next.(Raw)
	}

	wantOut, want := draw(cells)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]PositionedCell(nil), cells...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		gotOut, got := draw(shuffled)
		assert.Equal(t, wantOut, gotOut)

		wantPos, _ := want.CursorPosition()
		gotPos, _ := got.CursorPosition()
		assert.Equal(t, wantPos, gotPos)

		wantStyle, _ := want.CurrentStyle()
		gotStyle, _ := got.CurrentStyle()
		assert.Equal(t, wantStyle, gotStyle)
	}
}

// TestRawDrawCellsInvalidPosition verifies the whole batch is rejected with no output
func TestRawDrawCellsInvalidPosition(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	_, err := b.DrawCells([]PositionedCell{
		{Pos: Position{Row: 1, Col: 1}, Cell: Cell{Ch: 'a'}},
		{Pos: Position{Row: 25, Col: 1}, Cell: Cell{Ch: 'b'}},
	})
	require.ErrorIs(t, err, ErrInvalidPosition)
	assert.Empty(t, dev.take())

	_, err = b.DrawCells([]PositionedCell{{Pos: Position{Row: 1, Col: 0}, Cell: Cell{Ch: 'c'}}})
	require.ErrorIs(t, err, ErrInvalidPosition)
}

// TestRawDrawCellsGap verifies a cursor move is emitted only between non-adjacent cells
func TestRawDrawCellsGap(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	_, err := b.DrawCells([]PositionedCell{
		{Pos: Position{Row: 2, Col: 5}, Cell: Cell{Ch: 'a'}},
		{Pos: Position{Row: 2, Col: 6}, Cell: Cell{Ch: 'b'}},
		{Pos: Position{Row: 2, Col: 9}, Cell: Cell{Ch: 'c'}},
	})
	require.NoError(t, err)
	// From home: ESC[2;5H (6 bytes) beats ESC[B ESC[4C (7 bytes); then ESC[2C
	assert.Equal(t, "\x1b[2;5H\x1b[0mab\x1b[2Cc", dev.take())
}

// TestRawWideGlyphAdvance verifies double-width glyphs advance the cursor two columns
func TestRawWideGlyphAdvance(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))

	next, err := b.DrawCells([]PositionedCell{{Pos: Position{Row: 1, Col: 1}, Cell: Cell{Ch: '世'}}})
	require.NoError(t, err)
	pos, _ := next.(Raw).CursorPosition()
	assert.Equal(t, Position{Row: 1, Col: 3}, pos)
}

// TestRawZeroWidthKeepsCursor verifies a combining mark does not advance the tracked cursor
func TestRawZeroWidthKeepsCursor(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	next, err := b.DrawCells([]PositionedCell{
		{Pos: Position{Row: 1, Col: 1}, Cell: Cell{Ch: 'e'}},
		{Pos: Position{Row: 1, Col: 2}, Cell: Cell{Ch: '\u0301'}},
		{Pos: Position{Row: 1, Col: 3}, Cell: Cell{Ch: 'x'}},
	})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[0me\u0301\x1b[Cx", dev.take())
	pos, _ := next.(Raw).CursorPosition()
	assert.Equal(t, Position{Row: 1, Col: 4}, pos)
}

// TestRawDrawCellsControlRune verifies control characters are rejected before any output
func TestRawDrawCellsControlRune(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	for _, ch := range []rune{'\t', '\n', 0x1b, 0x7f, 0x9b} {
		_, err := b.DrawCells([]PositionedCell{
			{Pos: Position{Row: 1, Col: 1}, Cell: Cell{Ch: 'a'}},
			{Pos: Position{Row: 1, Col: 2}, Cell: Cell{Ch: ch}},
		})
		require.ErrorIs(t, err, ErrInvalidCell, "rune %U", ch)
	}
	assert.Empty(t, dev.take())

	_, err := b.DrawCells([]PositionedCell{{Pos: Position{Row: 1, Col: 1}, Cell: Cell{}}})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[0m ", dev.take())
}

// TestRawDegradesColors verifies cell colors are degraded to the initialized depth
func TestRawDegradesColors(t *testing.T) {
	tests := []struct {
		name  string
		depth ColorDepth
		want  string
	}{
		{"true_color", TrueColor, "\x1b[0m\x1b[38;2;255;0;0mX"},
		{"color_256", Color256, "\x1b[0m\x1b[38;5;196mX"},
		{"color_16", Color16, "\x1b[0m\x1b[31mX"},
		{"monochrome", Monochrome, "\x1b[0mX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			dev := newFakeDevice(clock)
			opts := rawOptions(dev, clock)
			opts.Capabilities = Capabilities{Colors: tt.depth, Unicode: true}
			b := initRaw(t, opts)
			dev.take()

			_, err := b.DrawCells([]PositionedCell{{Pos: Position{Row: 1, Col: 1}, Cell: Cell{Ch: 'X', Fg: RGB(255, 0, 0)}}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, dev.take())
		})
	}
}

// TestRawASCIICharset verifies Unicode glyphs are substituted when the charset is ASCII
func TestRawASCIICharset(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	opts := rawOptions(dev, clock)
	opts.Charset = CharsetASCII
	b := initRaw(t, opts)
	dev.take()

	_, err := b.DrawCells(TextCells(Position{Row: 1, Col: 1}, "┌─┐", Style{}, opts.Size))
	require.NoError(t, err)
	assert.Equal(t, "\x1b[0m+-+", dev.take())
}

// TestRawCursorVisibility verifies hide and show are idempotent
func TestRawCursorVisibility(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	hidden, err := b.HideCursor()
	require.NoError(t, err)
	assert.Empty(t, dev.take(), "already hidden")

	shown, err := hidden.ShowCursor()
	require.NoError(t, err)
	assert.Equal(t, "\x1b[?25h", dev.take())
	assert.True(t, shown.(Raw).CursorVisible())

	_, err = shown.ShowCursor()
	require.NoError(t, err)
	assert.Empty(t, dev.take(), "already visible")
}

// TestRawMoveCursor verifies tracking and the no-op on the current position
func TestRawMoveCursor(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	same, err := b.MoveCursor(Position{Row: 1, Col: 1})
	require.NoError(t, err)
	assert.Empty(t, dev.take())

	moved, err := same.MoveCursor(Position{Row: 10, Col: 40})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[10;40H", dev.take())
	pos, _ := moved.(Raw).CursorPosition()
	assert.Equal(t, Position{Row: 10, Col: 40}, pos)

	_, err = moved.MoveCursor(Position{Row: 10, Col: 38})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[2D", dev.take())

	_, err = moved.MoveCursor(Position{Row: 0, Col: 1})
	require.ErrorIs(t, err, ErrInvalidPosition)
}

// TestRawMoveCursorUnoptimized verifies absolute positioning when optimization is off
func TestRawMoveCursorUnoptimized(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	opts := rawOptions(dev, clock)
	opts.OptimizeCursor = false
	b := initRaw(t, opts)
	dev.take()

	next, err := b.MoveCursor(Position{Row: 1, Col: 2})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[1;2H", dev.take())

	_, err = next.MoveCursor(Position{Row: 1, Col: 1})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[1;1H", dev.take())
}

// TestRawClear verifies clear homes the cursor and forgets the style
func TestRawClear(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))

	drawn, err := b.DrawCells([]PositionedCell{{Pos: Position{Row: 5, Col: 5}, Cell: Cell{Ch: 'z', Fg: Cyan}}})
	require.NoError(t, err)
	dev.take()

	cleared, err := drawn.Clear()
	require.NoError(t, err)
	assert.Equal(t, "\x1b[2J\x1b[H", dev.take())

	r := cleared.(Raw)
	pos, known := r.CursorPosition()
	assert.True(t, known)
	assert.Equal(t, Position{Row: 1, Col: 1}, pos)
	_, known = r.CurrentStyle()
	assert.False(t, known)
}

// TestRawResize verifies the cached size changes and invalid sizes are rejected
func TestRawResize(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))

	next, err := b.Resize(Size{Rows: 40, Cols: 120})
	require.NoError(t, err)
	size, _ := next.Size()
	assert.Equal(t, Size{Rows: 40, Cols: 120}, size)
	_, known := next.(Raw).CursorPosition()
	assert.False(t, known)

	_, err = b.Resize(Size{Rows: 10, Cols: 0})
	require.ErrorIs(t, err, ErrInvalidSize)
	size, _ = b.Size()
	assert.Equal(t, Size{Rows: 24, Cols: 80}, size)
}

// TestRawMouseSwitch verifies switching modes disables the previous tracking first
func TestRawMouseSwitch(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.take()

	click, err := b.EnableMouse(MouseClick)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[?1000h\x1b[?1006h", dev.take())

	all, err := click.(Raw).EnableMouse(MouseAll)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[?1000l\x1b[?1003h\x1b[?1006h", dev.take())

	off, err := all.(Raw).DisableMouse()
	require.NoError(t, err)
	assert.Equal(t, "\x1b[?1003l\x1b[?1002l\x1b[?1000l\x1b[?1006l", dev.take())
	assert.Equal(t, MouseNone, off.(Raw).MouseMode())
}

// TestRawShutdown verifies restore order and that a second call does nothing
func TestRawShutdown(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	restores := 0
	opts := rawOptions(dev, clock)
	opts.Mouse = MouseDrag
	opts.Restore = func() error {
		restores++
		return nil
	}
	b := initRaw(t, opts)
	dev.take()

	b.Shutdown()
	out := dev.take()
	want := "\x1b[?1003l\x1b[?1002l\x1b[?1000l\x1b[?1006l" + "\x1b[0m" + "\x1b[?25h" + "\x1b[?1049l"
	assert.Equal(t, want, out)
	assert.Equal(t, 1, restores)
	assert.Equal(t, 1, dev.flushes)

	// Any copy shares the shutdown guard
	b.Shutdown()
	next, _ := b.HideCursor()
	next.Shutdown()
	assert.Empty(t, dev.take())
	assert.Equal(t, 1, restores)
}

// TestRawShutdownWithoutAltScreen verifies the alternate screen exit is skipped when never entered
func TestRawShutdownWithoutAltScreen(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	opts := rawOptions(dev, clock)
	opts.AltScreen = false
	b := initRaw(t, opts)
	dev.take()

	b.Shutdown()
	assert.NotContains(t, dev.take(), "\x1b[?1049l")
}

// TestRawShutdownContinuesOnFailure verifies write failures do not skip the restore hook
func TestRawShutdownContinuesOnFailure(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	restored := false
	opts := rawOptions(dev, clock)
	opts.Restore = func() error {
		restored = true
		return nil
	}
	b := initRaw(t, opts)

	dev.writeErr = errFakeWrite
	dev.flushErr = errFakeWrite
	require.NotPanics(t, b.Shutdown)
	assert.True(t, restored)
}

// TestRawWriteFailure verifies device errors propagate and leave state unchanged
func TestRawWriteFailure(t *testing.T) {
	clock := newFakeClock()
	dev := newFakeDevice(clock)
	b := initRaw(t, rawOptions(dev, clock))
	dev.writeErr = errFakeWrite

	next, err := b.DrawCells([]PositionedCell{{Pos: Position{Row: 2, Col: 2}, Cell: Cell{Ch: 'q'}}})
	require.ErrorIs(t, err, errFakeWrite)
	pos, _ := next.(Raw).CursorPosition()
	assert.Equal(t, Position{Row: 1, Col: 1}, pos)
	assert.True(t, strings.Contains(err.Error(), "draw cells"))
}
