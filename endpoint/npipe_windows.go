//go:build windows

package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/natefinch/npipe"
	"golang.org/x/sys/windows"
)

const dialTimeout = 5 * time.Second

// NamedPipe is a Windows named-pipe server. Each writer is a client
// connection; the server keeps accepting without being recreated.
type NamedPipe struct {
	name   string
	suffix int
	ln     *npipe.PipeListener
	state  atomic.Int32
	serial serializer
	closed atomic.Bool
	conns  sync.WaitGroup
}

func newPlatform(opts Options) (Endpoint, error) {
	return NewNamedPipe(opts)
}

// NewNamedPipe listens on \\?\pipe\fzf-pipe-<PID>[-<suffix>]. A name already
// in use moves on to the next suffix; any other failure is returned.
func NewNamedPipe(opts Options) (*NamedPipe, error) {
	opts = opts.withDefaults()
	base := fmt.Sprintf(`\\?\pipe\%s-%d`, Prefix, opts.PID)
	var ln *npipe.PipeListener
	name, suffix, err := claim(base, func(name string) error {
		l, err := npipe.Listen(name)
		if err != nil {
			return err
		}
		ln = l
		return nil
	}, addrInUse)
	if err != nil {
		return nil, err
	}
	slog.Debug("named pipe created", "endpoint", name, "suffix", suffix)
	p := &NamedPipe{name: name, suffix: suffix, ln: ln}
	p.state.Store(int32(StateListening))
	return p, nil
}

// addrInUse reports whether err means another server already owns the name.
// The first pipe instance is created exclusively, which fails with access
// denied when the name is taken.
func addrInUse(err error) bool {
	return errors.Is(err, windows.ERROR_ACCESS_DENIED) || errors.Is(err, windows.ERROR_PIPE_BUSY)
}

func (p *NamedPipe) Name() string { return p.name }

func (p *NamedPipe) Kind() Kind { return KindNamedPipe }

// Suffix is the collision counter embedded in the name, 0 for none.
func (p *NamedPipe) Suffix() int { return p.suffix }

func (p *NamedPipe) State() State { return State(p.state.Load()) }

// Serve accepts client connections and feeds their lines to h.
func (p *NamedPipe) Serve(ctx context.Context, h Handler) error {
	if p.closed.Load() {
		return ErrClosed
	}
	stop := context.AfterFunc(ctx, func() { p.Close() })
	defer stop()

	for {
		conn, err := p.ln.Accept()
		if err != nil {
			if p.closed.Load() {
				p.conns.Wait()
				return nil
			}
			return fmt.Errorf("accept %s: %w", p.name, err)
		}
		p.conns.Add(1)
		go p.handleConn(ctx, conn, h)
	}
}

func (p *NamedPipe) handleConn(ctx context.Context, conn net.Conn, h Handler) {
	defer p.conns.Done()
	defer conn.Close()
	if _, err := p.serial.readSession(ctx, conn, h); err != nil && !p.closed.Load() {
		slog.Warn("named pipe read failed", "endpoint", p.name, "error", err)
	}
}

// Close stops accepting connections.
func (p *NamedPipe) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.state.Store(int32(StateClosed))
	return p.ln.Close()
}

// Dial connects to the named pipe for writing.
func Dial(name string) (io.WriteCloser, error) {
	return npipe.DialTimeout(name, dialTimeout)
}
