package terminal

import (
	"bytes"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
)

// readChunk is the per-read input buffer size
const readChunk = 256

// RawDriver initializes the full-control backend
// The caller must already hold raw mode; Init only performs screen setup
type RawDriver struct{}

func (RawDriver) Name() string { return "raw" }

// Init emits setup in fixed order: alternate screen, cursor hide, mouse mode, clear
func (RawDriver) Init(opts Options) (Backend, error) {
	if err := validateSize(opts.Size); err != nil {
		return nil, err
	}
	if opts.Device == nil {
		return nil, ErrNoDevice
	}
	opts = opts.normalize()

	b := Raw{
		dev:           opts.Device,
		size:          opts.Size,
		caps:          opts.Capabilities,
		charset:       opts.Charset,
		optimize:      opts.OptimizeCursor,
		window:        opts.EscapeWindow,
		now:           opts.Now,
		restore:       opts.Restore,
		logger:        opts.Logger,
		closer:        &sync.Once{},
		cursorVisible: true,
	}

	var buf bytes.Buffer
	if opts.AltScreen {
		buf.Write(csiAltScreenEnter)
		b.altScreen = true
	}
	if opts.HideCursor {
		buf.Write(csiCursorHide)
		b.cursorVisible = false
	}
	if t, ok := MouseTrackingFor(opts.Mouse); ok {
		buf.Write(t.onSequence())
		buf.Write(csiMouseSGROn)
		b.mouse = opts.Mouse
	}
	buf.Write(csiClear)

	if err := b.write(buf.Bytes(), "init"); err != nil {
		return nil, err
	}
	b.cursor = Position{Row: 1, Col: 1}
	b.cursorKnown = true

	b.logger.Debug("raw backend initialized",
		"size", opts.Size, "alt_screen", b.altScreen, "mouse", b.mouse.String(), "charset", b.charset.String())
	return b, nil
}

// Raw is the full-control backend
// It tracks the emitted style and cursor so each batch sends only what changed
type Raw struct {
	dev      Device
	size     Size
	caps     Capabilities
	charset  Charset
	optimize bool

	altScreen     bool
	cursorVisible bool
	mouse         MouseMode

	cursor      Position
	cursorKnown bool
	style       Style
	styleKnown  bool

	// Input bytes consumed from the device but not yet parsed into an event
	pending      []byte
	pendingSince time.Time
	window       time.Duration

	now     func() time.Time
	restore func() error
	logger  *slog.Logger
	closer  *sync.Once
}

func (Raw) sealed() {}

// Mode reports ModeRaw
func (b Raw) Mode() Mode { return ModeRaw }

// Size returns the cached size
func (b Raw) Size() (Size, error) { return b.size, nil }

// Capabilities returns the capabilities fixed at init
func (b Raw) Capabilities() Capabilities { return b.caps }

// CursorPosition returns the tracked cursor and whether it is known
func (b Raw) CursorPosition() (Position, bool) { return b.cursor, b.cursorKnown }

// CurrentStyle returns the last emitted style and whether it is known
func (b Raw) CurrentStyle() (Style, bool) { return b.style, b.styleKnown }

// CursorVisible reports the tracked cursor visibility
func (b Raw) CursorVisible() bool { return b.cursorVisible }

// AltScreen reports whether the alternate screen was entered
func (b Raw) AltScreen() bool { return b.altScreen }

// MouseMode returns the active mouse mode
func (b Raw) MouseMode() MouseMode { return b.mouse }

// write sends p to the device in a single call
func (b Raw) write(p []byte, op string) error {
	if len(p) == 0 {
		return nil
	}
	if _, err := b.dev.Write(p); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

// MoveCursor positions the cursor
func (b Raw) MoveCursor(p Position) (Backend, error) {
	if !b.size.Contains(p) {
		return b, errors.Wrapf(ErrInvalidPosition, "%d,%d outside %dx%d", p.Row, p.Col, b.size.Rows, b.size.Cols)
	}
	if b.cursorKnown && b.cursor == p {
		return b, nil
	}
	var buf bytes.Buffer
	writeCursorMove(&buf, b.cursor, b.relativeSafe(), p, b.optimize)
	if err := b.write(buf.Bytes(), "move cursor"); err != nil {
		return b, err
	}
	b.cursor = p
	b.cursorKnown = true
	return b, nil
}

// relativeSafe reports whether relative moves from the tracked cursor are reliable
// A cursor past the last column sits in the pending-wrap state
func (b Raw) relativeSafe() bool {
	return b.cursorKnown && b.cursor.Col <= b.size.Cols
}

// HideCursor hides the cursor; no-op when already hidden
func (b Raw) HideCursor() (Backend, error) {
	if !b.cursorVisible {
		return b, nil
	}
	if err := b.write(csiCursorHide, "hide cursor"); err != nil {
		return b, err
	}
	b.cursorVisible = false
	return b, nil
}

// ShowCursor shows the cursor; no-op when already visible
func (b Raw) ShowCursor() (Backend, error) {
	if b.cursorVisible {
		return b, nil
	}
	if err := b.write(csiCursorShow, "show cursor"); err != nil {
		return b, err
	}
	b.cursorVisible = true
	return b, nil
}

// Clear erases the screen and homes the cursor
func (b Raw) Clear() (Backend, error) {
	if err := b.write(csiClear, "clear"); err != nil {
		return b, err
	}
	b.cursor = Position{Row: 1, Col: 1}
	b.cursorKnown = true
	b.style = Style{}
	b.styleKnown = false
	return b, nil
}

// DrawCells writes the batch sorted by row then column, as one device write
func (b Raw) DrawCells(cells []PositionedCell) (Backend, error) {
	if len(cells) == 0 {
		return b, nil
	}
	if err := validatePositions(b.size, cells); err != nil {
		return b, err
	}

	sorted := slices.Clone(cells)
	slices.SortStableFunc(sorted, comparePositioned)

	var buf bytes.Buffer
	buf.Grow(len(sorted) * 8)

	cursor, cursorKnown := b.cursor, b.cursorKnown
	style, styleKnown := b.style, b.styleKnown
	for _, pc := range sorted {
		if !cursorKnown || cursor != pc.Pos {
			safe := cursorKnown && cursor.Col <= b.size.Cols
			writeCursorMove(&buf, cursor, safe, pc.Pos, b.optimize)
			cursor = pc.Pos
			cursorKnown = true
		}

		next := DegradeStyle(pc.Cell.Style(), b.caps.Colors)
		if !styleKnown || next != style {
			writeStyleDelta(&buf, style, styleKnown, next)
			style = next
			styleKnown = true
		}

		ch := b.charset.glyph(pc.Cell.Ch)
		buf.WriteRune(ch)
		// Zero-width runes combine with the previous glyph and leave the cursor in place
		cursor.Col += runewidth.RuneWidth(ch)
	}

	if err := b.write(buf.Bytes(), "draw cells"); err != nil {
		return b, err
	}
	b.cursor, b.cursorKnown = cursor, cursorKnown
	b.style, b.styleKnown = style, styleKnown
	return b, nil
}

// comparePositioned orders cells by row, then column
func comparePositioned(a, b PositionedCell) int {
	if a.Pos.Row != b.Pos.Row {
		return a.Pos.Row - b.Pos.Row
	}
	return a.Pos.Col - b.Pos.Col
}

// Flush pushes buffered device output to the terminal
func (b Raw) Flush() (Backend, error) {
	if err := b.dev.Flush(); err != nil {
		return b, errors.Wrap(err, "flush")
	}
	return b, nil
}

// Resize replaces the cached size; the cursor becomes unknown since the terminal may have reflowed
func (b Raw) Resize(s Size) (Backend, error) {
	if err := validateSize(s); err != nil {
		return b, err
	}
	b.size = s
	b.cursorKnown = false
	return b, nil
}

// EnableMouse switches mouse reporting to m, always with SGR extended coordinates
func (b Raw) EnableMouse(m MouseMode) (Backend, error) {
	t, ok := MouseTrackingFor(m)
	if !ok {
		return b.DisableMouse()
	}
	if m == b.mouse {
		return b, nil
	}

	var buf bytes.Buffer
	if old, ok := MouseTrackingFor(b.mouse); ok {
		buf.Write(old.offSequence())
	}
	buf.Write(t.onSequence())
	buf.Write(csiMouseSGROn)
	if err := b.write(buf.Bytes(), "enable mouse"); err != nil {
		return b, err
	}
	b.mouse = m
	return b, nil
}

// DisableMouse resets every tracking mode regardless of which one is active
func (b Raw) DisableMouse() (Backend, error) {
	if err := b.write(mouseOffAll(), "disable mouse"); err != nil {
		return b, err
	}
	b.mouse = MouseNone
	return b, nil
}

// mouseOffAll returns the reset sequences of every tracking mode
func mouseOffAll() []byte {
	var buf bytes.Buffer
	buf.Write(csiMouseAllOff)
	buf.Write(csiMouseButtonOff)
	buf.Write(csiMouseNormalOff)
	buf.Write(csiMouseSGROff)
	return buf.Bytes()
}

// PollEvent returns the next input event, waiting at most timeout
// A lone ESC is held for the escape window so it can be told apart from a sequence start;
// bytes read but not yet parsed stay in the returned backend
func (b Raw) PollEvent(timeout time.Duration) (Event, Backend, error) {
	start := b.now()
	deadline := start.Add(timeout)
	pending := slices.Clone(b.pending)
	since := b.pendingSince
	buf := make([]byte, readChunk)

	for {
		for len(pending) > 0 {
			n, ev, ok := parseInput(pending)
			if n == 0 {
				break
			}
			pending = pending[n:]
			if !ok {
				continue
			}
			now := b.now()
			ev.Time = now
			b.pending, b.pendingSince = pending, now
			return ev, b, nil
		}

		now := b.now()
		wait := deadline.Sub(now)

		if len(pending) > 0 && pending[0] == keyEsc {
			if since.IsZero() {
				since = now
			}
			escLeft := b.window - now.Sub(since)
			if escLeft <= 0 {
				// Window elapsed with no completing bytes
				pending = pending[1:]
				b.pending, b.pendingSince = pending, now
				return Event{Type: EventKey, Key: KeyEscape, Time: now}, b, nil
			}
			wait = min(wait, escLeft)
		}

		if wait <= 0 {
			b.pending, b.pendingSince = pending, since
			return Event{Type: EventTimeout, Time: now}, b, nil
		}

		n, err := b.dev.Read(buf, wait)
		if errors.Is(err, ErrResized) {
			b.pending, b.pendingSince = pending, since
			s, serr := b.dev.Size()
			if serr != nil {
				b.logger.Debug("resize size query failed", "error", serr)
				continue
			}
			return Event{Type: EventResize, Size: s, Time: b.now()}, b, nil
		}
		if err != nil {
			b.pending, b.pendingSince = pending, since
			return Event{}, b, errors.Wrap(err, "poll event")
		}
		if n == 0 {
			continue
		}
		if len(pending) == 0 {
			since = b.now()
		}
		pending = append(pending, buf[:n]...)
	}
}

// Shutdown restores the terminal once; later calls on any copy are no-ops
// Each step is isolated so one failure never skips the rest. Restore runs last.
func (b Raw) Shutdown() {
	b.closer.Do(func() {
		guard(b.logger, "disable mouse", func() error { return b.write(mouseOffAll(), "disable mouse") })
		guard(b.logger, "reset attributes", func() error { return b.write(csiReset, "reset attributes") })
		guard(b.logger, "show cursor", func() error { return b.write(csiCursorShow, "show cursor") })
		if b.altScreen {
			guard(b.logger, "leave alternate screen", func() error { return b.write(csiAltScreenExit, "leave alternate screen") })
		}
		guard(b.logger, "flush", b.dev.Flush)
		if b.restore != nil {
			guard(b.logger, "restore terminal mode", b.restore)
		}
		b.logger.Debug("raw backend shut down")
	})
}
