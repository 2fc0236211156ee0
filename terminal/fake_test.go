package terminal

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
)

// fakeClock is a manually advanced clock shared by a fakeDevice and the backend under test
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// chunk is one scripted read: after delay, deliver data or a resize
type chunk struct {
	delay  time.Duration
	data   string
	resize bool
}

// fakeDevice records writes and replays scripted input against a virtual clock
type fakeDevice struct {
	out      bytes.Buffer
	writes   int
	flushes  int
	writeErr error
	flushErr error

	clock   *fakeClock
	input   []chunk
	size    Size
	sizeErr error
}

func newFakeDevice(clock *fakeClock, input ...chunk) *fakeDevice {
	return &fakeDevice{clock: clock, input: input, size: Size{Rows: 24, Cols: 80}}
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	d.writes++
	return d.out.Write(p)
}

func (d *fakeDevice) Flush() error {
	d.flushes++
	return d.flushErr
}

func (d *fakeDevice) Read(p []byte, timeout time.Duration) (int, error) {
	if len(d.input) == 0 {
		d.clock.advance(timeout)
		return 0, nil
	}
	c := &d.input[0]
	if c.delay > timeout {
		c.delay -= timeout
		d.clock.advance(timeout)
		return 0, nil
	}
	d.clock.advance(c.delay)
	next := d.input[0]
	d.input = d.input[1:]
	if next.resize {
		return 0, ErrResized
	}
	return copy(p, next.data), nil
}

func (d *fakeDevice) Size() (Size, error) {
	return d.size, d.sizeErr
}

// take returns and clears the recorded output
func (d *fakeDevice) take() string {
	s := d.out.String()
	d.out.Reset()
	return s
}

var errFakeWrite = errors.New("fake write failure")
