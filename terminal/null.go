package terminal

import (
	"slices"
	"sync/atomic"
	"time"
)

// NullDriver initializes a backend that writes nothing, for tests
type NullDriver struct {
	// Events are returned by PollEvent in order, then timeouts
	Events []Event
	// Mode is reported by the backend
	Mode Mode
}

func (NullDriver) Name() string { return "null" }

// Init validates size like the real backends; no device is required
func (d NullDriver) Init(opts Options) (Backend, error) {
	if err := validateSize(opts.Size); err != nil {
		return nil, err
	}
	opts = opts.normalize()
	return Null{
		size:      opts.Size,
		mode:      d.Mode,
		events:    slices.Clone(d.Events),
		cells:     make(map[Position]Cell),
		now:       opts.Now,
		shutdowns: new(atomic.Int32),
	}, nil
}

// Null records drawn cells and replays scripted events
type Null struct {
	size          Size
	mode          Mode
	events        []Event
	cells         map[Position]Cell
	cursor        Position
	cursorVisible bool
	flushes       int
	now           func() time.Time
	shutdowns     *atomic.Int32
}

func (Null) sealed() {}

func (b Null) Mode() Mode { return b.mode }

func (b Null) Size() (Size, error) { return b.size, nil }

// Cell returns the last cell drawn at p
func (b Null) Cell(p Position) (Cell, bool) {
	c, ok := b.cells[p]
	return c, ok
}

// Cursor returns the tracked cursor
func (b Null) Cursor() Position { return b.cursor }

// Flushes returns the number of Flush calls
func (b Null) Flushes() int { return b.flushes }

// Shutdowns returns how many times Shutdown ran, across all copies
func (b Null) Shutdowns() int { return int(b.shutdowns.Load()) }

func (b Null) MoveCursor(p Position) (Backend, error) {
	if !b.size.Contains(p) {
		return b, ErrInvalidPosition
	}
	b.cursor = p
	return b, nil
}

func (b Null) HideCursor() (Backend, error) {
	b.cursorVisible = false
	return b, nil
}

func (b Null) ShowCursor() (Backend, error) {
	b.cursorVisible = true
	return b, nil
}

func (b Null) Clear() (Backend, error) {
	b.cells = make(map[Position]Cell)
	b.cursor = Position{Row: 1, Col: 1}
	return b, nil
}

func (b Null) DrawCells(cells []PositionedCell) (Backend, error) {
	if err := validatePositions(b.size, cells); err != nil {
		return b, err
	}
	next := make(map[Position]Cell, len(b.cells)+len(cells))
	for p, c := range b.cells {
		next[p] = c
	}
	for _, pc := range cells {
		next[pc.Pos] = pc.Cell
	}
	b.cells = next
	return b, nil
}

func (b Null) Flush() (Backend, error) {
	b.flushes++
	return b, nil
}

func (b Null) PollEvent(timeout time.Duration) (Event, Backend, error) {
	if len(b.events) == 0 {
		return Event{Type: EventTimeout, Time: b.now()}, b, nil
	}
	ev := b.events[0]
	b.events = b.events[1:]
	if ev.Time.IsZero() {
		ev.Time = b.now()
	}
	return ev, b, nil
}

func (b Null) Resize(s Size) (Backend, error) {
	if err := validateSize(s); err != nil {
		return b, err
	}
	b.size = s
	return b, nil
}

func (b Null) Shutdown() {
	b.shutdowns.Add(1)
}
