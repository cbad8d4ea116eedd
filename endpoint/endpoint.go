// Package endpoint owns the OS channel finder wrappers write selections into:
// a FIFO on POSIX systems and a named pipe on Windows. The variant is chosen
// at build time; callers only see Endpoint.
package endpoint

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Prefix starts every endpoint name.
const Prefix = "fzf-pipe"

// MaxLineSize is the longest line a session accepts.
const MaxLineSize = 1024 * 1024

// MaxAttempts bounds the number of names tried when creating an endpoint.
const MaxAttempts = 10

var (
	// ErrExhausted is returned when every candidate name was taken.
	ErrExhausted = errors.New("endpoint: no free name")
	// ErrClosed is returned by Serve on an endpoint that was already closed.
	ErrClosed = errors.New("endpoint: closed")
)

// Kind identifies the platform variant.
type Kind string

const (
	KindFIFO      Kind = "fifo"
	KindNamedPipe Kind = "named-pipe"
)

// State is the read-side lifecycle of an endpoint.
type State int32

const (
	StateClosed State = iota
	StateOpening
	StateListening
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateListening:
		return "listening"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Handler receives every line read from the endpoint, newline stripped.
// Calls are never concurrent. line is only valid for the duration of the call.
type Handler interface {
	HandleLine(ctx context.Context, line []byte)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, line []byte)

// HandleLine calls f(ctx, line).
func (f HandlerFunc) HandleLine(ctx context.Context, line []byte) {
	f(ctx, line)
}

// Endpoint is a listening communication channel.
type Endpoint interface {
	// Name is the FIFO path or pipe name wrappers write into.
	Name() string
	Kind() Kind
	State() State
	// Serve delivers lines to h until ctx ends or Close is called.
	Serve(ctx context.Context, h Handler) error
	// Close stops Serve and releases the OS resource.
	Close() error
}

// Options configure endpoint creation.
type Options struct {
	// Dir holds the FIFO. Defaults to os.TempDir(). Ignored on Windows.
	Dir string
	// PID is embedded in the name. Defaults to os.Getpid().
	PID int
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = os.TempDir()
	}
	if o.PID == 0 {
		o.PID = os.Getpid()
	}
	return o
}

// New creates the endpoint for the current platform.
func New(opts Options) (Endpoint, error) {
	return newPlatform(opts.withDefaults())
}

// candidate returns base for suffix 0 and base-<suffix> otherwise.
func candidate(base string, suffix int) string {
	if suffix == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, suffix)
}

// claim tries base, base-1, ... until create succeeds. Errors for which
// retry returns false abort immediately.
func claim(base string, create func(name string) error, retry func(error) bool) (string, int, error) {
	var last error
	for suffix := 0; suffix < MaxAttempts; suffix++ {
		name := candidate(base, suffix)
		err := create(name)
		if err == nil {
			return name, suffix, nil
		}
		if !retry(err) {
			return "", suffix, fmt.Errorf("create %s: %w", name, err)
		}
		slog.Debug("endpoint name taken", "name", name, "error", err)
		last = err
	}
	return "", MaxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, MaxAttempts, last)
}

// serializer funnels deliveries from all sessions through one handler call at a time.
type serializer struct {
	mu sync.Mutex
}

func (s *serializer) deliver(ctx context.Context, h Handler, line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.HandleLine(ctx, line)
}

type sessionKey struct{}

// SessionID returns the id of the read session a handler call belongs to, or
// "" outside of one.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// readSession reads newline-delimited lines from r until EOF or error and
// returns how many were delivered. Each session gets an id, carried in the
// handler context, so logs from one writer can be correlated.
func (s *serializer) readSession(ctx context.Context, r io.Reader, h Handler) (int, error) {
	session := uuid.NewString()
	ctx = context.WithValue(ctx, sessionKey{}, session)
	slog.Debug("session started", "session", session)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	lines := 0
	for scanner.Scan() {
		lines++
		s.deliver(ctx, h, scanner.Bytes())
	}
	err := scanner.Err()
	slog.Debug("session ended", "session", session, "lines", lines, "error", err)
	return lines, err
}
