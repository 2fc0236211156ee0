package terminal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// ErrNoConsole is returned when no raw-mode facility is available
var ErrNoConsole = errors.New("no console facility")

// Console acquires exclusive raw control of the terminal
type Console interface {
	// MakeRaw switches the terminal to raw mode and returns a function restoring the previous mode
	MakeRaw() (restore func() error, err error)
}

// fdConsole acquires raw mode on a file descriptor through x/term
type fdConsole struct {
	fd int
}

// FileConsole returns a Console for f
func FileConsole(f *os.File) Console {
	return fdConsole{fd: int(f.Fd())}
}

func (c fdConsole) MakeRaw() (func() error, error) {
	if !term.IsTerminal(c.fd) {
		return nil, errors.Errorf("fd %d is not a terminal", c.fd)
	}
	old, err := term.MakeRaw(c.fd)
	if err != nil {
		return nil, errors.Wrap(err, "make raw")
	}
	return func() error { return term.Restore(c.fd, old) }, nil
}

// SelectionKind identifies which branch the selector took
type SelectionKind uint8

const (
	SelectedRaw      SelectionKind = iota // Raw mode acquired
	SelectedTTY                           // Raw mode unavailable, line-oriented fallback
	SelectedExplicit                      // Caller forced a driver
)

func (k SelectionKind) String() string {
	switch k {
	case SelectedRaw:
		return "raw"
	case SelectedTTY:
		return "tty"
	default:
		return "explicit"
	}
}

// Selection is the outcome of backend selection
type Selection struct {
	Kind SelectionKind

	// SelectedRaw
	RawStarted bool
	Restore    func() error

	// SelectedTTY
	Capabilities Capabilities

	// SelectedExplicit
	Driver  Driver
	Options Options
}

// Selector decides once at startup whether exclusive terminal control is available
// Environment heuristics cannot tell whether a shell already owns the line discipline,
// so the selector tries to acquire raw mode and branches on the result
type Selector struct {
	Console Console
	Env     Environment
	Logger  *slog.Logger
}

// NewSelector returns a selector acquiring raw mode on in and detecting capabilities on out
func NewSelector(in, out *os.File, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{
		Console: FileConsole(in),
		Env:     HostEnvironment(out),
		Logger:  logger,
	}
}

func (s *Selector) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// TryRawMode attempts raw acquisition
// A missing or panicking console is treated the same as a busy one
func (s *Selector) TryRawMode() Selection {
	restore, err := s.acquire()
	if err == nil {
		s.logger().Debug("raw mode acquired")
		return Selection{Kind: SelectedRaw, RawStarted: true, Restore: restore}
	}

	caps := s.DetectCapabilities()
	s.logger().Info("raw mode unavailable, using line-oriented backend", "reason", err, "capabilities", caps)
	return Selection{Kind: SelectedTTY, Capabilities: caps}
}

// acquire calls the console inside a guard
func (s *Selector) acquire() (restore func() error, err error) {
	defer func() {
		if r := recover(); r != nil {
			restore = nil
			err = errors.Wrap(ErrNoConsole, fmt.Sprint(r))
		}
	}()
	if s.Console == nil {
		return nil, ErrNoConsole
	}
	restore, err = s.Console.MakeRaw()
	if err == nil && restore == nil {
		restore = func() error { return nil }
	}
	return restore, err
}

// Select picks a backend by attempting raw mode
func (s *Selector) Select() Selection {
	return s.TryRawMode()
}

// SelectFor resolves a backend name; "auto" runs Select, others bypass detection
// and carry opts in the explicit selection
func (s *Selector) SelectFor(name string, opts Options) (Selection, error) {
	if name == "" || name == "auto" {
		return s.Select(), nil
	}
	d, ok := DriverByName(name)
	if !ok {
		return Selection{}, errors.Errorf("unknown backend %q", name)
	}
	return SelectDriver(d, opts), nil
}

// SelectDriver returns an explicit selection carrying d and opts
func SelectDriver(d Driver, opts Options) Selection {
	return Selection{Kind: SelectedExplicit, Driver: d, Options: opts}
}

// DriverByName maps backend names to drivers
func DriverByName(name string) (Driver, bool) {
	switch name {
	case "raw":
		return RawDriver{}, true
	case "tty":
		return TTYDriver{}, true
	case "null":
		return NullDriver{}, true
	}
	return nil, false
}

// DetectCapabilities inspects the selector's environment
func (s *Selector) DetectCapabilities() Capabilities {
	return DetectCapabilities(s.Env)
}

// Start wraps a selection into an initialized State
// Explicit selections use their own options, borrowing Device, Input and Logger from opts when unset.
// Size precedence: opts.Size, detected dimensions, DefaultSize.
// On failure any acquired raw mode is released.
func (s *Selector) Start(sel Selection, opts Options) (State, error) {
	var d Driver
	switch sel.Kind {
	case SelectedRaw:
		d = RawDriver{}
		opts.Capabilities = s.DetectCapabilities()
		opts.Restore = chainRestore(opts.Restore, sel.Restore)
	case SelectedTTY:
		d = TTYDriver{}
		opts.Capabilities = sel.Capabilities
	default:
		d = sel.Driver
		if d == nil {
			return State{}, errors.New("explicit selection without driver")
		}
		explicit := sel.Options
		if explicit.Device == nil {
			explicit.Device = opts.Device
		}
		if explicit.Input == nil {
			explicit.Input = opts.Input
		}
		if explicit.Logger == nil {
			explicit.Logger = opts.Logger
		}
		opts = explicit
	}

	if !opts.Size.Valid() {
		if dim := opts.Capabilities.Dimensions; dim != nil && dim.Valid() {
			opts.Size = *dim
		} else {
			opts.Size = DefaultSize
		}
	}

	b, err := d.Init(opts)
	if err != nil {
		if sel.Restore != nil {
			if rerr := sel.Restore(); rerr != nil {
				s.logger().Warn("restore after failed init", "error", rerr)
			}
		}
		return State{}, errors.Wrapf(err, "init %s backend", d.Name())
	}

	s.logger().Debug("backend started", "driver", d.Name(), "mode", b.Mode().String(), "size", opts.Size)
	return NewState(b, opts.Capabilities, opts.Size), nil
}

// chainRestore runs first then second, returning the first error
func chainRestore(first, second func() error) func() error {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func() error {
		err := first()
		if err2 := second(); err == nil {
			err = err2
		}
		return err
	}
}
