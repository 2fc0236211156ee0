//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package terminal

import (
	"bufio"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// FileDevice drives a terminal through a pair of files
// Deadline reads are unavailable on this platform
type FileDevice struct {
	out *os.File
	w   *bufio.Writer
}

// OpenDevice wraps in and out
func OpenDevice(in, out *os.File) (*FileDevice, error) {
	return &FileDevice{out: out, w: bufio.NewWriterSize(out, outputBufferSize)}, nil
}

// Write buffers output until Flush
func (d *FileDevice) Write(p []byte) (int, error) {
	return d.w.Write(p)
}

// Flush writes buffered output to the terminal
func (d *FileDevice) Flush() error {
	return d.w.Flush()
}

// Read is not supported without poll(2)
func (d *FileDevice) Read(p []byte, timeout time.Duration) (int, error) {
	return 0, errors.Wrap(ErrUnsupported, "deadline read")
}

// Size queries the window size of the output terminal
func (d *FileDevice) Size() (Size, error) {
	cols, rows, err := term.GetSize(int(d.out.Fd()))
	if err != nil {
		return Size{}, errors.Wrap(err, "query window size")
	}
	return Size{Rows: rows, Cols: cols}, nil
}

// Close flushes pending output
func (d *FileDevice) Close() error {
	return d.w.Flush()
}
