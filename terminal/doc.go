// Package terminal turns grids of styled cells into terminal control sequences
// and raw terminal input into structured events.
//
// Two backends implement the same contract:
//   - Raw drives a terminal the process holds in raw mode: style-delta tracking,
//     cost-based cursor movement, mouse reporting, and an escape-aware input parser
//   - TTY prints frames as plain lines when a shell keeps line discipline
//
// A Selector decides between them once at startup by attempting to acquire raw
// mode, never by environment heuristics. The result is wrapped in a State that is
// threaded through every call; operations return the next State instead of mutating.
//
// Colors and glyphs degrade to the detected capabilities: true color, 256, 16 or
// monochrome, Unicode or ASCII.
//
// This package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
