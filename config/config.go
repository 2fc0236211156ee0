// Package config loads termkit.toml and maps it onto terminal options.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/lixenwraith/termkit/terminal"
)

// FileName is the configuration file looked up by the CLI
const FileName = "termkit.toml"

// Environment overrides applied after the file is decoded
const (
	EnvBackend = "TERMKIT_BACKEND"
	EnvCharset = "TERMKIT_CHARSET"
)

// Accepted values per key
var (
	Backends   = []string{"auto", "raw", "tty", "null"}
	Charsets   = []string{"unicode", "ascii"}
	Strategies = []string{"full_redraw", "incremental"}
	MouseModes = []string{"none", "click", "drag", "all"}
)

// Config is the decoded configuration file
type Config struct {
	Backend         string `toml:"backend"`
	Charset         string `toml:"charset"`
	FallbackCharset string `toml:"fallback_charset"`

	TTY   TTYConfig   `toml:"tty"`
	Raw   RawConfig   `toml:"raw"`
	Theme ThemeConfig `toml:"theme"`
}

// TTYConfig holds line-oriented backend settings
type TTYConfig struct {
	Strategy string `toml:"strategy"`
}

// RawConfig holds full-control backend settings
type RawConfig struct {
	AlternateScreen bool     `toml:"alternate_screen"`
	HideCursor      bool     `toml:"hide_cursor"`
	Mouse           string   `toml:"mouse"`
	OptimizeCursor  bool     `toml:"optimize_cursor"`
	EscapeWindow    Duration `toml:"escape_window"`
}

// ThemeConfig names the colors used by the demo pattern
// Values accept "default", a palette index, #rrggbb, or a color name
type ThemeConfig struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Accent     string `toml:"accent"`
}

// Theme is a resolved ThemeConfig
type Theme struct {
	Foreground terminal.Color
	Background terminal.Color
	Accent     terminal.Color
}

// Duration decodes TOML strings such as "50ms"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists
func Default() Config {
	return Config{
		Backend:         "auto",
		Charset:         "unicode",
		FallbackCharset: "ascii",
		TTY:             TTYConfig{Strategy: "full_redraw"},
		Raw: RawConfig{
			AlternateScreen: true,
			HideCursor:      true,
			Mouse:           "none",
			OptimizeCursor:  true,
			EscapeWindow:    Duration{terminal.DefaultEscapeWindow},
		},
		Theme: ThemeConfig{
			Foreground: "default",
			Background: "default",
			Accent:     "aqua",
		},
	}
}

// Load decodes path over the defaults, applies environment overrides, and validates
// A missing file yields the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, os.ErrNotExist):
			cfg = Default()
		case err != nil:
			return Config{}, errors.Wrapf(err, "parsing %s", path)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return Config{}, errors.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		}
	}

	cfg = cfg.WithEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a TOML document over the defaults and validates it
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "parsing config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("unknown key %s", undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithEnv returns a copy with the environment overrides applied
func (c Config) WithEnv(getenv func(string) string) Config {
	if v := getenv(EnvBackend); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := getenv(EnvCharset); v != "" {
		c.Charset = strings.ToLower(v)
	}
	return c
}

// ValueError reports a configuration value outside its accepted set
type ValueError struct {
	Key      string
	Value    string
	Accepted []string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: expected one of %s", e.Value, e.Key, strings.Join(e.Accepted, ", "))
}

// enumFields lists every enumerated key with its accepted values
func (c Config) enumFields() []ValueError {
	return []ValueError{
		{Key: "backend", Value: c.Backend, Accepted: Backends},
		{Key: "charset", Value: c.Charset, Accepted: Charsets},
		{Key: "fallback_charset", Value: c.FallbackCharset, Accepted: Charsets},
		{Key: "tty.strategy", Value: c.TTY.Strategy, Accepted: Strategies},
		{Key: "raw.mouse", Value: c.Raw.Mouse, Accepted: MouseModes},
	}
}

// Validate returns the first invalid value
func (c Config) Validate() error {
	for _, f := range c.enumFields() {
		if !slices.Contains(f.Accepted, f.Value) {
			return &f
		}
	}
	if c.Raw.EscapeWindow.Duration < 0 {
		return errors.Errorf("raw.escape_window must not be negative, got %s", c.Raw.EscapeWindow.Duration)
	}
	if _, err := c.Theme.Resolve(); err != nil {
		return err
	}
	return nil
}

// IsValid reports whether Validate would succeed
func (c Config) IsValid() bool {
	return c.Validate() == nil
}

// Resolve parses every theme color
func (t ThemeConfig) Resolve() (Theme, error) {
	var th Theme
	for _, f := range []struct {
		key string
		in  string
		out *terminal.Color
	}{
		{"theme.foreground", t.Foreground, &th.Foreground},
		{"theme.background", t.Background, &th.Background},
		{"theme.accent", t.Accent, &th.Accent},
	} {
		c, err := terminal.ParseColor(f.in)
		if err != nil {
			return Theme{}, errors.Wrap(err, f.key)
		}
		*f.out = c
	}
	return th, nil
}

// ResolveCharset picks the preferred charset when the terminal can show it, else the fallback
func (c Config) ResolveCharset(caps terminal.Capabilities) terminal.Charset {
	preferred := parseCharset(c.Charset)
	if preferred == terminal.CharsetASCII || caps.Unicode {
		return preferred
	}
	return parseCharset(c.FallbackCharset)
}

func parseCharset(s string) terminal.Charset {
	if s == "ascii" {
		return terminal.CharsetASCII
	}
	return terminal.CharsetUnicode
}

// Strategy returns the configured line-mode render strategy
func (c Config) Strategy() terminal.RenderStrategy {
	if c.TTY.Strategy == "incremental" {
		return terminal.Incremental
	}
	return terminal.FullRedraw
}

// Options maps the configuration onto backend options for caps
// Size, Device, Input and Logger are left for the caller
func (c Config) Options(caps terminal.Capabilities) terminal.Options {
	opts := terminal.DefaultOptions()
	opts.Capabilities = caps
	opts.AltScreen = c.Raw.AlternateScreen
	opts.HideCursor = c.Raw.HideCursor
	opts.OptimizeCursor = c.Raw.OptimizeCursor
	if m, ok := terminal.ParseMouseMode(c.Raw.Mouse); ok {
		opts.Mouse = m
	}
	if c.Raw.EscapeWindow.Duration > 0 {
		opts.EscapeWindow = c.Raw.EscapeWindow.Duration
	}
	opts.Strategy = c.Strategy()
	opts.Charset = c.ResolveCharset(caps)
	return opts
}
