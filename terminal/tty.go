package terminal

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
)

// TTYDriver initializes the line-oriented backend
// Used when a shell keeps line discipline; frames are printed as plain lines
type TTYDriver struct{}

func (TTYDriver) Name() string { return "tty" }

// Init fixes color depth and charset from the supplied capabilities
// Nothing is written until the first Flush
func (TTYDriver) Init(opts Options) (Backend, error) {
	if err := validateSize(opts.Size); err != nil {
		return nil, err
	}
	if opts.Device == nil {
		return nil, ErrNoDevice
	}
	opts = opts.normalize()

	b := TTY{
		dev:           opts.Device,
		size:          opts.Size,
		caps:          opts.Capabilities,
		charset:       opts.Charset,
		strategy:      opts.Strategy,
		frame:         blankFrame(opts.Size),
		cursor:        Position{Row: 1, Col: 1},
		cursorVisible: !opts.HideCursor,
		restore:       opts.Restore,
		logger:        opts.Logger,
		closer:        &sync.Once{},
	}
	if opts.Input != nil {
		b.lines = bufio.NewReader(opts.Input)
	}
	b.logger.Debug("tty backend initialized",
		"size", opts.Size, "strategy", b.strategy.String(), "charset", b.charset.String(), "colors", b.caps.Colors.String())
	return b, nil
}

// TTY is the line-oriented backend
type TTY struct {
	dev      Device
	size     Size
	caps     Capabilities
	charset  Charset
	strategy RenderStrategy

	// frame is the pending grid; rows are shared between copies and replaced, never mutated
	frame [][]Cell
	// prev holds the lines of the last rendered frame, nil forces a full redraw
	prev []string

	cursor        Position
	cursorVisible bool

	lines   *bufio.Reader
	restore func() error
	logger  *slog.Logger
	closer  *sync.Once
}

func (TTY) sealed() {}

// Mode reports ModeTTY
func (b TTY) Mode() Mode { return ModeTTY }

// Size returns the cached size
func (b TTY) Size() (Size, error) { return b.size, nil }

// Capabilities returns the capabilities fixed at init
func (b TTY) Capabilities() Capabilities { return b.caps }

// Strategy returns the render strategy fixed at init
func (b TTY) Strategy() RenderStrategy { return b.strategy }

// CursorPosition returns the tracked cursor
func (b TTY) CursorPosition() Position { return b.cursor }

// CursorVisible reports the tracked cursor visibility
func (b TTY) CursorVisible() bool { return b.cursorVisible }

// MoveCursor tracks the cursor; line mode never positions it
func (b TTY) MoveCursor(p Position) (Backend, error) {
	if !b.size.Contains(p) {
		return b, errors.Wrapf(ErrInvalidPosition, "%d,%d outside %dx%d", p.Row, p.Col, b.size.Rows, b.size.Cols)
	}
	b.cursor = p
	return b, nil
}

// HideCursor tracks visibility only
func (b TTY) HideCursor() (Backend, error) {
	b.cursorVisible = false
	return b, nil
}

// ShowCursor tracks visibility only
func (b TTY) ShowCursor() (Backend, error) {
	b.cursorVisible = true
	return b, nil
}

// Clear blanks the pending frame and drops the previous one so the next flush is a full redraw
func (b TTY) Clear() (Backend, error) {
	b.frame = blankFrame(b.size)
	b.prev = nil
	b.cursor = Position{Row: 1, Col: 1}
	return b, nil
}

// DrawCells updates the pending frame; output happens on Flush
func (b TTY) DrawCells(cells []PositionedCell) (Backend, error) {
	if len(cells) == 0 {
		return b, nil
	}
	if err := validatePositions(b.size, cells); err != nil {
		return b, err
	}

	sorted := slices.Clone(cells)
	slices.SortStableFunc(sorted, comparePositioned)

	frame := slices.Clone(b.frame)
	copied := make(map[int]bool)
	for _, pc := range sorted {
		r := pc.Pos.Row - 1
		if !copied[r] {
			frame[r] = slices.Clone(frame[r])
			copied[r] = true
		}
		frame[r][pc.Pos.Col-1] = pc.Cell
	}
	b.frame = frame

	last := sorted[len(sorted)-1]
	b.cursor = Position{Row: last.Pos.Row, Col: last.Pos.Col + 1}
	return b, nil
}

// Flush renders the pending frame with the configured strategy
func (b TTY) Flush() (Backend, error) {
	lines := b.renderLines()

	var buf bytes.Buffer
	if b.strategy == Incremental && b.prev != nil && len(b.prev) == len(lines) {
		writeIncremental(&buf, b.prev, lines)
	} else {
		writeFull(&buf, lines)
	}

	if buf.Len() > 0 {
		if _, err := b.dev.Write(buf.Bytes()); err != nil {
			return b, errors.Wrap(err, "render frame")
		}
	}
	if err := b.dev.Flush(); err != nil {
		return b, errors.Wrap(err, "flush")
	}
	b.prev = lines
	return b, nil
}

// writeFull prints every line; the cursor ends at the start of the line below the frame
func writeFull(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
}

// writeIncremental rewrites changed lines, moving relative to the line below the frame
func writeIncremental(buf *bytes.Buffer, prev, lines []string) {
	row := len(lines)
	for i, l := range lines {
		if prev[i] == l {
			continue
		}
		if row > i {
			buf.WriteString(ansi.CursorUp(row - i))
		} else if row < i {
			buf.WriteString(ansi.CursorDown(i - row))
		}
		buf.WriteByte('\r')
		buf.WriteString(ansi.EraseEntireLine)
		buf.WriteString(l)
		row = i
	}
	if row < len(lines) {
		buf.WriteString(ansi.CursorDown(len(lines) - row))
		buf.WriteByte('\r')
	}
}

// renderLines encodes each frame row as a self-contained line
// Trailing blank cells are trimmed; styled lines end with an attribute reset
func (b TTY) renderLines() []string {
	lines := make([]string, len(b.frame))
	var buf bytes.Buffer
	for i, row := range b.frame {
		buf.Reset()
		end := len(row)
		for end > 0 && isBlank(row[end-1]) {
			end--
		}

		var style Style
		styled := false
		skip := 0
		for _, c := range row[:end] {
			// Empty slots covered by a wide glyph print nothing
			if skip > 0 {
				skip--
				if c.Ch == 0 {
					continue
				}
			}
			if b.caps.Colors != Monochrome {
				next := DegradeStyle(c.Style(), b.caps.Colors)
				if !styled || next != style {
					writeStyleDelta(&buf, style, styled, next)
					style = next
					styled = true
				}
			}
			ch := b.charset.glyph(c.Ch)
			buf.WriteRune(ch)
			skip = runewidth.RuneWidth(ch) - 1
		}
		if styled {
			buf.Write(csiReset)
		}
		lines[i] = ansi.Truncate(buf.String(), b.size.Cols, "")
	}
	return lines
}

// isBlank reports whether a cell prints as nothing
func isBlank(c Cell) bool {
	return (c.Ch == 0 || c.Ch == ' ') && c.Bg.IsDefault() && c.Attrs&(AttrReverse|AttrUnderline|AttrStrikethrough) == 0
}

// blankFrame allocates a frame of empty cells
func blankFrame(s Size) [][]Cell {
	frame := make([][]Cell, s.Rows)
	for i := range frame {
		frame[i] = make([]Cell, s.Cols)
	}
	return frame
}

// PollEvent always fails with ErrLineInput; use ReadLine
func (b TTY) PollEvent(timeout time.Duration) (Event, Backend, error) {
	return Event{}, b, ErrLineInput
}

// ReadLine blocks until a full line is submitted and returns it without the line terminator
func (b TTY) ReadLine() (string, error) {
	if b.lines == nil {
		return "", errors.Wrap(ErrUnsupported, "no line input")
	}
	line, err := b.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Resize replaces the cached size and reallocates the frame
// Height changes force a full redraw since the previous lines no longer align
func (b TTY) Resize(s Size) (Backend, error) {
	if err := validateSize(s); err != nil {
		return b, err
	}
	frame := blankFrame(s)
	for r := 0; r < min(s.Rows, len(b.frame)); r++ {
		copy(frame[r], b.frame[r])
	}
	b.frame = frame
	if s.Rows != b.size.Rows {
		b.prev = nil
	}
	b.size = s
	return b, nil
}

// Shutdown flushes pending output once, then runs the restore hook if any
func (b TTY) Shutdown() {
	b.closer.Do(func() {
		guard(b.logger, "flush", b.dev.Flush)
		if b.restore != nil {
			guard(b.logger, "restore terminal mode", b.restore)
		}
		b.logger.Debug("tty backend shut down")
	})
}
