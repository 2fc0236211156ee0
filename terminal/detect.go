package terminal

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Capabilities describes what the attached terminal supports
// Produced once by detection and never recomputed
type Capabilities struct {
	Colors     ColorDepth
	Unicode    bool
	Dimensions *Size // nil when the size query failed
	Terminal   bool
}

// LogValue implements slog.LogValuer
func (c Capabilities) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("colors", c.Colors.String()),
		slog.Bool("unicode", c.Unicode),
		slog.Bool("terminal", c.Terminal),
	}
	if c.Dimensions != nil {
		attrs = append(attrs, slog.Int("rows", c.Dimensions.Rows), slog.Int("cols", c.Dimensions.Cols))
	}
	return slog.GroupValue(attrs...)
}

// Environment supplies the signals capability detection reads
// Nil functions count as failed queries
type Environment struct {
	Getenv     func(key string) string
	Size       func() (Size, error)
	IsTerminal func() bool
}

// HostEnvironment reads the process environment and queries f for size and presence
func HostEnvironment(f *os.File) Environment {
	fd := f.Fd()
	return Environment{
		Getenv: os.Getenv,
		Size: func() (Size, error) {
			cols, rows, err := term.GetSize(int(fd))
			if err != nil {
				return Size{}, err
			}
			return Size{Rows: rows, Cols: cols}, nil
		},
		IsTerminal: func() bool {
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
	}
}

// DetectCapabilities derives the capability record from env
func DetectCapabilities(env Environment) Capabilities {
	getenv := env.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	caps := Capabilities{
		Colors:  detectColorDepth(getenv("COLORTERM"), getenv("TERM")),
		Unicode: detectUnicode(getenv),
	}

	if env.Size != nil {
		if s, err := env.Size(); err == nil && s.Valid() {
			caps.Dimensions = &s
		}
	}

	if env.IsTerminal != nil {
		caps.Terminal = env.IsTerminal()
	}
	return caps
}

// detectColorDepth determines color capability from COLORTERM and TERM
func detectColorDepth(colorterm, termName string) ColorDepth {
	colorterm = strings.ToLower(colorterm)
	if colorterm == "truecolor" || colorterm == "24bit" {
		return TrueColor
	}

	t := strings.ToLower(termName)
	switch {
	case strings.HasSuffix(t, "256color") || strings.HasSuffix(t, "-256"):
		return Color256
	case strings.Contains(t, "direct"):
		return TrueColor
	case t != "" && t != "dumb":
		return Color16
	}
	return Monochrome
}

// localeVars are checked most specific first
var localeVars = []string{"LC_ALL", "LC_CTYPE", "LANG"}

// detectUnicode reports whether the effective locale is UTF-8
// The first non-empty locale variable decides, as in POSIX locale resolution,
// so LC_ALL=C overrides a UTF-8 LANG
func detectUnicode(getenv func(string) string) bool {
	for _, k := range localeVars {
		v := getenv(k)
		if v == "" {
			continue
		}
		v = strings.ToUpper(v)
		return strings.Contains(v, "UTF")
	}
	return false
}
