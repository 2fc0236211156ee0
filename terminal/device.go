package terminal

import (
	"io"
	"time"
)

// Device is the terminal byte stream a backend drives
type Device interface {
	io.Writer

	// Read waits up to timeout for input
	// Returns 0, nil when the wait expires and ErrResized when the window size changed
	Read(p []byte, timeout time.Duration) (int, error)

	// Flush pushes buffered output to the terminal
	Flush() error

	// Size queries the current window size
	Size() (Size, error)
}

// outputBufferSize matches typical full-screen truecolor frames
const outputBufferSize = 128 * 1024

// pollMillis converts a wait to poll(2) milliseconds, rounding sub-millisecond waits up
func pollMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := int(d / time.Millisecond)
	if ms == 0 {
		return 1
	}
	return ms
}
