package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/termkit/config"
	"github.com/lixenwraith/termkit/terminal"
)

// TestOpenLoggerDiscard verifies an empty path produces a working logger that writes nowhere
func TestOpenLoggerDiscard(t *testing.T) {
	var fallback bytes.Buffer
	logger, closeLog, err := openLogger("", true, &fallback)
	require.NoError(t, err)
	logger.Info("hidden")
	require.NoError(t, closeLog())
	assert.Zero(t, fallback.Len())
}

// TestOpenLoggerFile verifies records reach the log file without color codes
func TestOpenLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.log")
	logger, closeLog, err := openLogger(path, false, nil)
	require.NoError(t, err)

	logger.Debug("filtered")
	logger.Info("selected", "backend", "tty")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "selected")
	assert.Contains(t, out, "backend=tty")
	assert.NotContains(t, out, "filtered")
	assert.NotContains(t, out, "\x1b[")
}

// TestOpenLoggerBadPath verifies an unwritable path reports what failed
func TestOpenLoggerBadPath(t *testing.T) {
	_, _, err := openLogger(filepath.Join(t.TempDir(), "missing", "probe.log"), false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening log file")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestIsQuit verifies only q and Ctrl-C end the demo
func TestIsQuit(t *testing.T) {
	assert.True(t, isQuit(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: 'q'}))
	assert.True(t, isQuit(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: 'c', Modifiers: terminal.ModCtrl}))
	assert.False(t, isQuit(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: 'q', Modifiers: terminal.ModAlt}))
	assert.False(t, isQuit(terminal.Event{Type: terminal.EventKey, Key: terminal.KeyEscape}))
}

// TestPatternRows verifies pattern rows cover the width and stay on screen
func TestPatternRows(t *testing.T) {
	size := terminal.Size{Rows: 4, Cols: 40}

	grad := gradientRow(2, size)
	require.Len(t, grad, 40)
	for _, c := range grad {
		assert.True(t, size.Contains(c.Pos))
		assert.Equal(t, terminal.ColorRGB, c.Cell.Bg.Kind)
	}

	pal := paletteRow(3, size)
	require.Len(t, pal, 40)
	assert.Equal(t, terminal.Black, pal[0].Cell.Bg)
	assert.Equal(t, terminal.BrightWhite, pal[15].Cell.Bg)
	assert.Equal(t, terminal.Indexed(16), pal[16].Cell.Bg)

	assert.Nil(t, gradientRow(5, size))
}

// TestRenderOnNullBackend verifies a full frame draws without errors and logs scroll
func TestRenderOnNullBackend(t *testing.T) {
	opts := terminal.DefaultOptions()
	opts.Size = terminal.Size{Rows: 8, Cols: 30}
	b, err := terminal.NullDriver{}.Init(opts)
	require.NoError(t, err)

	theme, err := config.Default().Theme.Resolve()
	require.NoError(t, err)
	d := &demo{st: terminal.NewState(b, opts.Capabilities, opts.Size), theme: theme}
	for i := 0; i < maxLog+3; i++ {
		d.addLog(strings.Repeat("x", i))
	}
	assert.Len(t, d.log, maxLog)

	require.NoError(t, d.render())
	c, ok := d.st.Backend().(terminal.Null).Cell(terminal.Position{Row: 1, Col: 1})
	require.True(t, ok)
	assert.Equal(t, 't', c.Ch)
	assert.Equal(t, 1, d.st.Backend().(terminal.Null).Flushes())
}

// TestSampleGlyphs verifies the ASCII sample carries no multi-byte glyphs
func TestSampleGlyphs(t *testing.T) {
	ascii := sampleGlyphs(terminal.CharsetASCII)
	for _, r := range ascii {
		assert.Less(t, r, rune(0x80), "glyph %q", r)
	}
	assert.Equal(t, glyphSample, sampleGlyphs(terminal.CharsetUnicode))
}
