//go:build !windows

package endpoint

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// idleBackoff delays a reopen after a session that delivered nothing, so a
// platform that reports hangup without a writer cannot spin the loop.
const idleBackoff = 50 * time.Millisecond

// FIFO is a named pipe on the filesystem. Writers come and go one after the
// other; the reader observes end-of-stream between them and reopens.
type FIFO struct {
	path   string
	suffix int
	state  atomic.Int32
	serial serializer

	mu     sync.Mutex
	reader *os.File
	closed bool
	done   chan struct{}
}

func newPlatform(opts Options) (Endpoint, error) {
	return NewFIFO(opts)
}

// NewFIFO creates <Dir>/fzf-pipe-<PID>[-<suffix>] with owner-only permissions.
// Any creation failure moves on to the next suffix.
func NewFIFO(opts Options) (*FIFO, error) {
	opts = opts.withDefaults()
	base := filepath.Join(opts.Dir, fmt.Sprintf("%s-%d", Prefix, opts.PID))
	path, suffix, err := claim(base, func(name string) error {
		return unix.Mkfifo(name, 0o600)
	}, func(error) bool { return true })
	if err != nil {
		return nil, err
	}
	slog.Debug("fifo created", "endpoint", path, "suffix", suffix)
	return &FIFO{path: path, suffix: suffix, done: make(chan struct{})}, nil
}

func (f *FIFO) Name() string { return f.path }

func (f *FIFO) Kind() Kind { return KindFIFO }

// Suffix is the collision counter embedded in the name, 0 for none.
func (f *FIFO) Suffix() int { return f.suffix }

func (f *FIFO) State() State { return State(f.state.Load()) }

func (f *FIFO) setState(s State) { f.state.Store(int32(s)) }

// Serve runs the read loop: Opening until a writer shows up, Listening while it
// writes, and back to Opening when it disconnects.
func (f *FIFO) Serve(ctx context.Context, h Handler) error {
	if f.isClosed() {
		return ErrClosed
	}
	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()

	f.setState(StateOpening)
	r, err := f.open()
	for {
		if err != nil {
			if f.isClosed() {
				return nil
			}
			f.setState(StateClosed)
			return fmt.Errorf("open %s: %w", f.path, err)
		}
		if err := waitReadable(r); err != nil {
			f.release(r)
			if f.isClosed() {
				return nil
			}
			f.setState(StateClosed)
			return fmt.Errorf("wait %s: %w", f.path, err)
		}

		f.setState(StateListening)
		start := time.Now()
		lines, readErr := f.serial.readSession(ctx, r, h)
		if f.isClosed() {
			f.release(r)
			return nil
		}
		if readErr != nil {
			slog.Warn("fifo read failed", "endpoint", f.path, "error", readErr)
		}

		// The writer closed its end. Open the next reader before releasing this
		// one so a writer arriving in between never finds the FIFO without readers.
		f.setState(StateOpening)
		var next *os.File
		next, err = f.open()
		f.release(r)
		r = next

		if lines == 0 && time.Since(start) < idleBackoff {
			select {
			case <-f.done:
			case <-time.After(idleBackoff):
			}
		}
	}
}

// open opens the read side without blocking; a FIFO open for reading would
// otherwise wait for a writer.
func (f *FIFO) open() (*os.File, error) {
	r, err := os.OpenFile(f.path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		r.Close()
		return nil, ErrClosed
	}
	f.reader = r
	return r, nil
}

func (f *FIFO) release(r *os.File) {
	if r == nil {
		return
	}
	f.mu.Lock()
	if f.reader == r {
		f.reader = nil
	}
	f.mu.Unlock()
	r.Close()
}

func (f *FIFO) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close stops Serve and removes the FIFO.
func (f *FIFO) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	r := f.reader
	f.reader = nil
	close(f.done)
	f.mu.Unlock()

	if r != nil {
		r.Close()
	}
	f.setState(StateClosed)
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// waitReadable parks until the FIFO has data or a writer has come and gone.
// Reading first would report end-of-stream straight away while no writer has
// connected yet.
func waitReadable(r *os.File) error {
	rc, err := r.SyscallConn()
	if err != nil {
		return err
	}
	waited := false
	return rc.Read(func(fd uintptr) bool {
		if waited {
			return true
		}
		waited = true
		// The poller is edge-triggered and its readiness was just reset, so
		// data buffered before this call would never wake it.
		return buffered(fd)
	})
}

// buffered reports whether the FIFO holds unread data.
func buffered(fd uintptr) bool {
	n, err := unix.IoctlGetInt(int(fd), unix.TIOCINQ)
	return err == nil && n > 0
}

// Dial opens the FIFO at name for writing. It blocks until a reader is open.
func Dial(name string) (io.WriteCloser, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		return nil, fmt.Errorf("%s is not a fifo", name)
	}
	return os.OpenFile(name, os.O_WRONLY, 0)
}
