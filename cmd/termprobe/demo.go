package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/termkit/config"
	"github.com/lixenwraith/termkit/terminal"
)

const glyphSample = "┌─┬─┐ │ ├─┼─┤ └─┴─┘ █▓▒░ ←→↑↓ ✓✗ •"

// pollInterval bounds each wait so the duration limit is honored
const pollInterval = 100 * time.Millisecond

// maxLog is the number of event lines kept on screen
const maxLog = 10

func demoCmd(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Draw a test pattern and echo input events",
		Long: `demo selects a backend, draws a color and glyph test pattern degraded to
the detected capabilities, then echoes input until q, Ctrl-C, or --duration.
When raw mode is unavailable it falls back to reading whole lines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := openLogger(flags.LogFile, flags.Debug, io.Discard)
			if err != nil {
				return err
			}
			defer closeLog()

			cfg, err := config.Load(flags.Config)
			if err != nil {
				return err
			}
			return runDemo(cfg, flags.Duration, logger)
		},
	}
	cmd.Flags().DurationVar(&flags.Duration, "duration", 0, "Exit after this long (0 runs until q)")
	return cmd
}

// demo holds the state of one demo session
type demo struct {
	st     terminal.State
	theme  config.Theme
	log    []string
	logger *slog.Logger
}

func runDemo(cfg config.Config, duration time.Duration, logger *slog.Logger) error {
	theme, err := cfg.Theme.Resolve()
	if err != nil {
		return err
	}

	sel := terminal.NewSelector(os.Stdin, os.Stdout, logger)
	caps := sel.DetectCapabilities()

	dev, err := terminal.OpenDevice(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer dev.Close()

	opts := cfg.Options(caps)
	opts.Device = dev
	opts.Input = os.Stdin
	opts.Logger = logger

	var selection terminal.Selection
	if cfg.Backend == "raw" {
		// Raw requires the terminal to actually enter raw mode
		selection = sel.Select()
		if selection.Kind != terminal.SelectedRaw {
			return errors.New("raw backend requested but raw mode is unavailable")
		}
	} else {
		selection, err = sel.SelectFor(cfg.Backend, opts)
		if err != nil {
			return err
		}
	}
	logger.Info("backend selected", "selection", selection.Kind.String(), "capabilities", caps)

	st, err := sel.Start(selection, opts)
	if err != nil {
		return err
	}

	d := &demo{st: st, theme: theme, logger: logger}
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			panic(r)
		}
		d.st = d.st.Shutdown()
	}()

	switch d.st.Backend().(type) {
	case terminal.Null:
		// Nothing to observe, draw once to exercise the pipeline
		return d.render()
	case terminal.TTY:
		return d.runLines()
	}
	return d.runEvents(duration)
}

// runEvents polls character-level input until quit or the deadline
func (d *demo) runEvents(duration time.Duration) error {
	var deadline time.Time
	if duration > 0 {
		deadline = time.Now().Add(duration)
	}

	if err := d.render(); err != nil {
		return err
	}
	for deadline.IsZero() || time.Now().Before(deadline) {
		ev, st, err := d.st.PollEvent(pollInterval)
		d.st = st
		if err != nil {
			return err
		}

		switch ev.Type {
		case terminal.EventTimeout:
			continue
		case terminal.EventKey:
			if isQuit(ev) {
				return nil
			}
		case terminal.EventResize:
			if d.st, err = d.st.Resize(ev.Size); err != nil {
				return err
			}
			if d.st, err = d.st.Clear(); err != nil {
				return err
			}
		}

		d.addLog(ev.String())
		d.logger.Debug("event", "event", ev.String())
		if err := d.render(); err != nil {
			return err
		}
	}
	return nil
}

// runLines reads submitted lines until q or end of input
func (d *demo) runLines() error {
	tty, ok := d.st.Backend().(terminal.TTY)
	if !ok {
		return errors.Errorf("line input needs the tty backend, have %s", d.st.Mode())
	}

	if err := d.render(); err != nil {
		return err
	}
	for {
		line, err := tty.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "q" {
			return nil
		}
		d.addLog(fmt.Sprintf("line: %q", line))
		if err := d.render(); err != nil {
			return err
		}
	}
}

func isQuit(ev terminal.Event) bool {
	if ev.Key != terminal.KeyRune {
		return false
	}
	return (ev.Rune == 'q' && ev.Modifiers == terminal.ModNone) || (ev.Rune == 'c' && ev.Modifiers == terminal.ModCtrl)
}

func (d *demo) addLog(s string) {
	if len(d.log) >= maxLog {
		copy(d.log, d.log[1:])
		d.log = d.log[:maxLog-1]
	}
	d.log = append(d.log, s)
}

// render draws the pattern and event log as one batch and flushes
func (d *demo) render() error {
	size := d.st.Size()
	bold := terminal.Style{Fg: d.theme.Accent, Bg: d.theme.Background, Attrs: terminal.AttrBold}
	text := terminal.Style{Fg: d.theme.Foreground, Bg: d.theme.Background}

	var cells []terminal.PositionedCell
	put := func(row int, s string, style terminal.Style) {
		if row > size.Rows {
			return
		}
		// Pad so shorter redraws overwrite previous content
		if pad := size.Cols - len([]rune(s)); pad > 0 {
			s += strings.Repeat(" ", pad)
		}
		cells = append(cells, terminal.TextCells(terminal.Position{Row: row, Col: 1}, s, style, size)...)
	}

	title := fmt.Sprintf("termprobe %s | %s backend | %s | q to quit", version, d.st.Mode(), d.st.Capabilities().Colors)
	put(1, title, bold)
	cells = append(cells, gradientRow(2, size)...)
	cells = append(cells, paletteRow(3, size)...)
	put(4, glyphSample, text)
	put(5, strings.Repeat("─", size.Cols), text)
	for i, entry := range d.log {
		put(6+i, entry, text)
	}

	st, err := d.st.DrawCells(cells)
	d.st = st
	if err != nil {
		return err
	}
	d.st, err = d.st.Flush()
	return err
}

// gradientRow fills a row with a hue sweep in true color, degraded by the backend
func gradientRow(row int, size terminal.Size) []terminal.PositionedCell {
	if row > size.Rows {
		return nil
	}
	cells := make([]terminal.PositionedCell, 0, size.Cols)
	for col := 1; col <= size.Cols; col++ {
		hue := 360 * float64(col-1) / float64(size.Cols)
		r, g, b := colorful.Hsv(hue, 0.8, 0.9).RGB255()
		cells = append(cells, terminal.PositionedCell{
			Pos:  terminal.Position{Row: row, Col: col},
			Cell: terminal.Cell{Ch: ' ', Bg: terminal.RGB(r, g, b)},
		})
	}
	return cells
}

// paletteRow shows the 16 standard colors followed by a slice of the 256 palette
func paletteRow(row int, size terminal.Size) []terminal.PositionedCell {
	if row > size.Rows {
		return nil
	}
	cells := make([]terminal.PositionedCell, 0, size.Cols)
	for col := 1; col <= size.Cols; col++ {
		var c terminal.Color
		if col <= 16 {
			c = terminal.Named(uint8(col - 1))
		} else {
			c = terminal.Indexed(uint8(16 + (col-17)%240))
		}
		cells = append(cells, terminal.PositionedCell{
			Pos:  terminal.Position{Row: row, Col: col},
			Cell: terminal.Cell{Ch: ' ', Bg: c},
		})
	}
	return cells
}
