package terminal

import (
	"time"

	"github.com/pkg/errors"
)

// State is the immutable handle an application threads through every terminal call
// Each operation returns the next State; the receiver is never modified
type State struct {
	backend     Backend
	mode        Mode
	caps        Capabilities
	size        Size
	initialized bool
}

// NewState wraps an initialized backend
func NewState(b Backend, caps Capabilities, size Size) State {
	return State{
		backend:     b,
		mode:        b.Mode(),
		caps:        caps,
		size:        size,
		initialized: true,
	}
}

func (s State) Backend() Backend           { return s.backend }
func (s State) Mode() Mode                 { return s.mode }
func (s State) Capabilities() Capabilities { return s.caps }
func (s State) Size() Size                 { return s.size }
func (s State) Initialized() bool          { return s.initialized }

// WithBackend returns a copy using b
func (s State) WithBackend(b Backend) State {
	s.backend = b
	if b != nil {
		s.mode = b.Mode()
	}
	return s
}

// WithSize returns a copy with the cached size replaced
func (s State) WithSize(size Size) State {
	s.size = size
	return s
}

// WithCapabilities returns a copy with the capability record replaced
func (s State) WithCapabilities(caps Capabilities) State {
	s.caps = caps
	return s
}

// WithInitialized returns a copy with the initialized flag set to v
func (s State) WithInitialized(v bool) State {
	s.initialized = v
	return s
}

// ValidPosition reports whether p lies within the cached size
func (s State) ValidPosition(p Position) bool {
	return s.size.Contains(p)
}

// apply runs op against the backend and threads the result back into a new State
func (s State) apply(op func(Backend) (Backend, error)) (State, error) {
	if !s.initialized || s.backend == nil {
		return s, ErrNotInitialized
	}
	b, err := op(s.backend)
	if b != nil {
		s = s.WithBackend(b)
	}
	return s, err
}

func (s State) MoveCursor(p Position) (State, error) {
	return s.apply(func(b Backend) (Backend, error) { return b.MoveCursor(p) })
}

func (s State) HideCursor() (State, error) {
	return s.apply(Backend.HideCursor)
}

func (s State) ShowCursor() (State, error) {
	return s.apply(Backend.ShowCursor)
}

func (s State) Clear() (State, error) {
	return s.apply(Backend.Clear)
}

func (s State) DrawCells(cells []PositionedCell) (State, error) {
	return s.apply(func(b Backend) (Backend, error) { return b.DrawCells(cells) })
}

func (s State) Flush() (State, error) {
	return s.apply(Backend.Flush)
}

// PollEvent waits at most timeout for input
// Timeouts are returned as EventTimeout with a nil error
func (s State) PollEvent(timeout time.Duration) (Event, State, error) {
	if !s.initialized || s.backend == nil {
		return Event{}, s, ErrNotInitialized
	}
	ev, b, err := s.backend.PollEvent(timeout)
	if b != nil {
		s = s.WithBackend(b)
	}
	return ev, s, err
}

// Resize refreshes the cached size on both the state and the backend
func (s State) Resize(size Size) (State, error) {
	next, err := s.apply(func(b Backend) (Backend, error) { return b.Resize(size) })
	if err != nil {
		return s, err
	}
	return next.WithSize(size), nil
}

// mouseBackend is implemented by backends that can report mouse input
type mouseBackend interface {
	EnableMouse(m MouseMode) (Backend, error)
	DisableMouse() (Backend, error)
}

// EnableMouse switches mouse reporting; line-oriented backends return ErrUnsupported
func (s State) EnableMouse(m MouseMode) (State, error) {
	return s.apply(func(b Backend) (Backend, error) {
		mb, ok := b.(mouseBackend)
		if !ok {
			return b, errors.Wrapf(ErrUnsupported, "mouse on %s backend", b.Mode())
		}
		return mb.EnableMouse(m)
	})
}

// DisableMouse resets every mouse tracking mode
func (s State) DisableMouse() (State, error) {
	return s.apply(func(b Backend) (Backend, error) {
		mb, ok := b.(mouseBackend)
		if !ok {
			return b, nil
		}
		return mb.DisableMouse()
	})
}

// Shutdown restores the terminal and marks the state uninitialized
// Safe to call repeatedly
func (s State) Shutdown() State {
	if s.backend != nil {
		s.backend.Shutdown()
	}
	return s.WithInitialized(false)
}
