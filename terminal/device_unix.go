//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package terminal

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// FileDevice drives a terminal through a pair of files
// SIGWINCH is delivered through a self-pipe so a pending Read wakes on resize
type FileDevice struct {
	in    *os.File
	out   *os.File
	inFd  int
	outFd int
	w     *bufio.Writer

	sigCh  chan os.Signal
	wakeR  int
	wakeW  int
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// OpenDevice wraps in and out and starts resize signal delivery
func OpenDevice(in, out *os.File) (*FileDevice, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, errors.Wrap(err, "resize pipe")
	}
	unix.SetNonblock(p[0], true)
	unix.SetNonblock(p[1], true)

	d := &FileDevice{
		in:     in,
		out:    out,
		inFd:   int(in.Fd()),
		outFd:  int(out.Fd()),
		w:      bufio.NewWriterSize(out, outputBufferSize),
		sigCh:  make(chan os.Signal, 1),
		wakeR:  p[0],
		wakeW:  p[1],
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	signal.Notify(d.sigCh, syscall.SIGWINCH)
	go d.watchLoop()
	return d, nil
}

// watchLoop forwards resize signals into the self-pipe
func (d *FileDevice) watchLoop() {
	defer close(d.doneCh)
	for {
		select {
		case <-d.stopCh:
			return
		case <-d.sigCh:
			// Full pipe already carries a pending wakeup
			unix.Write(d.wakeW, []byte{1})
		}
	}
}

// Write buffers output until Flush
func (d *FileDevice) Write(p []byte) (int, error) {
	return d.w.Write(p)
}

// Flush writes buffered output to the terminal
func (d *FileDevice) Flush() error {
	return d.w.Flush()
}

// Read waits for input, a resize, or the timeout
func (d *FileDevice) Read(p []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		fds := []unix.PollFd{
			{Fd: int32(d.inFd), Events: unix.POLLIN},
			{Fd: int32(d.wakeR), Events: unix.POLLIN},
		}

		n, err := unix.Poll(fds, pollMillis(time.Until(deadline)))
		if err != nil {
			if err == unix.EINTR {
				if time.Now().Before(deadline) {
					continue
				}
				return 0, nil
			}
			return 0, errors.Wrap(err, "poll input")
		}
		if n == 0 {
			return 0, nil
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			var drain [16]byte
			unix.Read(d.wakeR, drain[:])
			return 0, ErrResized
		}

		rn, err := unix.Read(d.inFd, p)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return 0, errors.Wrap(err, "read input")
		}
		if rn == 0 {
			return 0, io.EOF
		}
		return rn, nil
	}
}

// Size queries the window size of the output terminal
func (d *FileDevice) Size() (Size, error) {
	ws, err := unix.IoctlGetWinsize(d.outFd, unix.TIOCGWINSZ)
	if err != nil {
		return Size{}, errors.Wrap(err, "query window size")
	}
	s := Size{Rows: int(ws.Row), Cols: int(ws.Col)}
	if !s.Valid() {
		return Size{}, errors.Wrapf(ErrUnsupported, "window size %dx%d", s.Rows, s.Cols)
	}
	return s, nil
}

// Close stops resize delivery and flushes pending output
// The wrapped files stay open
func (d *FileDevice) Close() error {
	var err error
	d.once.Do(func() {
		signal.Stop(d.sigCh)
		close(d.stopCh)
		<-d.doneCh
		unix.Close(d.wakeR)
		unix.Close(d.wakeW)
		err = d.w.Flush()
	})
	return err
}
