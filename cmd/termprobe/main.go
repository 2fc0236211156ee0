// termprobe inspects terminal capabilities and exercises the selected backend
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/termkit/config"
	"github.com/lixenwraith/termkit/terminal"
)

var version = "dev"

// Flags shared by every subcommand
type Flags struct {
	Debug    bool
	LogFile  string
	Config   string
	Duration time.Duration
}

func main() {
	var flags Flags

	rootCmd := &cobra.Command{
		Use:   "termprobe",
		Short: "Probe terminal capabilities and backends",
		Long: `termprobe detects what the attached terminal supports and drives
either the full-control backend or the line-oriented fallback.`,
		Example: `  # Print the detected capability record
  termprobe caps

  # Draw a test pattern and echo input events for ten seconds
  termprobe demo --duration 10s --log-file /tmp/termprobe.log`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "Write logs to this file (discarded if not set)")
	rootCmd.PersistentFlags().StringVarP(&flags.Config, "config", "c", config.FileName, "Path to the configuration file")

	rootCmd.AddCommand(capsCmd(&flags), demoCmd(&flags))

	ctx := context.Background()
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(version),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func capsCmd(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "caps",
		Short: "Print the detected capability record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := openLogger(flags.LogFile, flags.Debug, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			caps := terminal.DetectCapabilities(terminal.HostEnvironment(os.Stdout))
			logger.Debug("capabilities detected", "capabilities", caps)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "colors:     %s\n", caps.Colors)
			fmt.Fprintf(out, "unicode:    %v\n", caps.Unicode)
			fmt.Fprintf(out, "terminal:   %v\n", caps.Terminal)
			if caps.Dimensions != nil {
				fmt.Fprintf(out, "dimensions: %dx%d\n", caps.Dimensions.Rows, caps.Dimensions.Cols)
			} else {
				fmt.Fprintln(out, "dimensions: unknown")
			}

			cfg, err := config.Load(flags.Config)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "charset:    %s\n", cfg.ResolveCharset(caps))
			fmt.Fprintf(out, "sample:     %s\n", sampleGlyphs(cfg.ResolveCharset(caps)))
			return nil
		},
	}
}

// openLogger builds a tint handler writing to path, or to fallback when path is "-"
// An empty path discards logs so nothing interleaves with terminal output
func openLogger(path string, debug bool, fallback io.Writer) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var w io.Writer
	closeFn := func() error { return nil }
	switch path {
	case "":
		return slog.New(slog.DiscardHandler), closeFn, nil
	case "-":
		w = fallback
	default:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening log file")
		}
		w = f
		closeFn = f.Close
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
	return slog.New(handler), closeFn, nil
}

// sampleGlyphs renders the glyph test line for charset
func sampleGlyphs(cs terminal.Charset) string {
	if cs == terminal.CharsetASCII {
		return terminal.ASCIIString(glyphSample)
	}
	return glyphSample
}
