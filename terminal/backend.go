package terminal

import (
	"io"
	"log/slog"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidSize is returned by Init and Resize for non-positive dimensions
	ErrInvalidSize = errors.New("invalid size")
	// ErrInvalidPosition is returned for positions outside the cached size
	ErrInvalidPosition = errors.New("invalid position")
	// ErrInvalidCell is returned for cells holding control characters
	ErrInvalidCell = errors.New("invalid cell")
	// ErrLineInput is returned by line-oriented PollEvent; only whole lines can be read
	ErrLineInput = errors.New("line-oriented input: character-level events unavailable")
	// ErrUnsupported marks an operation or query the backend cannot serve
	ErrUnsupported = errors.New("unsupported")
	// ErrResized is returned by Device.Read when the window size changed
	ErrResized = errors.New("terminal resized")
	// ErrNoDevice is returned by Init when Options.Device is nil
	ErrNoDevice = errors.New("no terminal device")
	// ErrNotInitialized is returned by State operations before Start or after Shutdown
	ErrNotInitialized = errors.New("backend not initialized")
)

// Backend is the operation set shared by every terminal backend
// Backends are values: every operation returns the updated backend and leaves the receiver untouched
type Backend interface {
	// Shutdown restores the terminal; safe to call more than once, never fails
	Shutdown()

	// Size returns the cached size without I/O
	Size() (Size, error)

	MoveCursor(p Position) (Backend, error)
	HideCursor() (Backend, error)
	ShowCursor() (Backend, error)

	// Clear erases the screen; style becomes unknown and the cursor returns home
	Clear() (Backend, error)

	// DrawCells writes a batch of cells in position order
	DrawCells(cells []PositionedCell) (Backend, error)

	Flush() (Backend, error)

	// PollEvent waits at most timeout; expiry yields an EventTimeout event
	PollEvent(timeout time.Duration) (Event, Backend, error)

	// Resize replaces the cached size
	Resize(s Size) (Backend, error)

	Mode() Mode

	sealed()
}

// Driver initializes one kind of backend
type Driver interface {
	Name() string
	Init(opts Options) (Backend, error)
}

// RenderStrategy selects how the line-oriented backend repaints
type RenderStrategy uint8

const (
	FullRedraw  RenderStrategy = iota // Reprint every line each frame
	Incremental                       // Rewrite only lines that changed
)

func (s RenderStrategy) String() string {
	if s == Incremental {
		return "incremental"
	}
	return "full_redraw"
}

// DefaultEscapeWindow is how long a lone ESC waits for continuation bytes
const DefaultEscapeWindow = 50 * time.Millisecond

// Options configures backend initialization
type Options struct {
	Size         Size
	AltScreen    bool
	HideCursor   bool
	Mouse        MouseMode
	Capabilities Capabilities

	// Full-control options
	OptimizeCursor bool
	EscapeWindow   time.Duration

	// Line-oriented options
	Strategy RenderStrategy

	Charset Charset

	Device Device
	// Input supplies submitted lines to the line-oriented backend's ReadLine
	Input io.Reader
	// Restore returns the terminal to its original line discipline; run last on Shutdown
	Restore func() error

	Now    func() time.Time // nil uses time.Now
	Logger *slog.Logger     // nil discards
}

// DefaultOptions returns options for a full-screen session on a full-capability terminal
// Size is left zero for Selector.Start to resolve; Start also replaces Capabilities with detected ones
func DefaultOptions() Options {
	return Options{
		Capabilities:   Capabilities{Colors: TrueColor, Unicode: true, Terminal: true},
		AltScreen:      true,
		HideCursor:     true,
		Mouse:          MouseNone,
		OptimizeCursor: true,
		EscapeWindow:   DefaultEscapeWindow,
		Strategy:       FullRedraw,
		Charset:        CharsetAuto,
	}
}

// normalize fills zero-valued hooks
func (o Options) normalize() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.EscapeWindow <= 0 {
		o.EscapeWindow = DefaultEscapeWindow
	}
	o.Charset = o.Charset.Resolve(o.Capabilities)
	return o
}

// validateSize wraps ErrInvalidSize with the offending value
func validateSize(s Size) error {
	if !s.Valid() {
		return errors.Wrapf(ErrInvalidSize, "%dx%d", s.Rows, s.Cols)
	}
	return nil
}

// validatePositions rejects the batch if any position is off screen or any cell holds a control character
// The zero rune is allowed and prints as a space
func validatePositions(size Size, cells []PositionedCell) error {
	for _, c := range cells {
		if !size.Contains(c.Pos) {
			return errors.Wrapf(ErrInvalidPosition, "%d,%d outside %dx%d", c.Pos.Row, c.Pos.Col, size.Rows, size.Cols)
		}
		if c.Cell.Ch != 0 && unicode.IsControl(c.Cell.Ch) {
			return errors.Wrapf(ErrInvalidCell, "%U at %d,%d", c.Cell.Ch, c.Pos.Row, c.Pos.Col)
		}
	}
	return nil
}

// guard runs one cleanup step, logging failures and panics instead of propagating them
func guard(logger *slog.Logger, step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("shutdown step panicked", "step", step, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		logger.Warn("shutdown step failed", "step", step, "error", err)
	}
}
