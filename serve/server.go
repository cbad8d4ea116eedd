// Package serve runs the editor host: it owns the endpoint, the current
// configuration snapshot and the dispatcher lines are handed to.
package serve

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
	"github.com/Paranoid-AF/fzfpipe/dispatch"
	"github.com/Paranoid-AF/fzfpipe/editor"
	"github.com/Paranoid-AF/fzfpipe/endpoint"
	"github.com/Paranoid-AF/fzfpipe/protocol"
)

// EditorFactory builds the editor for a configuration snapshot.
type EditorFactory func(cfg *fzfpipe.Config) editor.Editor

// Options configure a Server.
type Options struct {
	// ConfigPath is the config file. Empty means fzfpipe.ConfigPath().
	ConfigPath string
	// Endpoint configures endpoint naming.
	Endpoint endpoint.Options
	// StatePath receives the endpoint and command strings. Empty disables it.
	StatePath string
	// Self is the wrapper executable, normally this binary.
	Self string
	// GOOS selects quoting. Empty means runtime.GOOS.
	GOOS string
	// NewEditor defaults to an editor.Exec built from the editor templates.
	NewEditor EditorFactory
}

// Server wires the endpoint to the dispatcher.
type Server struct {
	opts     Options
	endpoint endpoint.Endpoint

	// mu is held for every dispatch and every reload, so a reload always lands
	// between two commands.
	mu         sync.Mutex
	editor     editor.Editor
	dispatcher *dispatch.Dispatcher

	config   atomic.Pointer[fzfpipe.Config]
	commands atomic.Pointer[protocol.Commands]
}

// NewServer loads configuration and creates the endpoint. When every endpoint
// name is taken the server still starts, degraded: it serves nothing.
func NewServer(opts Options) (*Server, error) {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.NewEditor == nil {
		opts.NewEditor = func(cfg *fzfpipe.Config) editor.Editor {
			return editor.NewExec(cfg.Editor)
		}
	}
	if opts.Self == "" {
		if self, err := os.Executable(); err == nil {
			opts.Self = self
		} else {
			opts.Self = "fzfpipe"
		}
	}

	s := &Server{opts: opts}

	cfg, err := s.loadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = fzfpipe.DefaultConfig()
	}

	ep, err := endpoint.New(opts.Endpoint)
	switch {
	case errors.Is(err, endpoint.ErrExhausted):
		slog.Warn("no endpoint available, finder selections will be ignored", "error", err)
	case err != nil:
		return nil, err
	default:
		s.endpoint = ep
	}

	s.apply(cfg)
	s.writeState()
	return s, nil
}

func (s *Server) loadConfig() (*fzfpipe.Config, error) {
	var (
		cfg *fzfpipe.Config
		err error
	)
	if s.opts.ConfigPath != "" {
		cfg, err = fzfpipe.LoadConfigFile(s.opts.ConfigPath)
	} else {
		cfg, err = fzfpipe.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	for _, w := range fzfpipe.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}
	return cfg, nil
}

// apply swaps in cfg and everything derived from it.
func (s *Server) apply(cfg *fzfpipe.Config) {
	ed := s.opts.NewEditor(cfg)
	cmds := protocol.BuildCommands(protocol.SettingsFromConfig(cfg, s.opts.GOOS, s.Endpoint(), s.opts.Self))

	s.mu.Lock()
	old := s.editor
	s.editor = ed
	s.dispatcher = dispatch.New(ed)
	s.config.Store(cfg)
	s.commands.Store(&cmds)
	s.mu.Unlock()

	closeEditor(old)
}

func closeEditor(ed editor.Editor) {
	if c, ok := ed.(interface{ Close() }); ok {
		c.Close()
	}
}

// Serve delivers endpoint lines to the dispatcher until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	if s.endpoint == nil {
		<-ctx.Done()
		return nil
	}
	slog.Info("listening", "endpoint", s.endpoint.Name(), "kind", s.endpoint.Kind())
	return s.endpoint.Serve(ctx, s)
}

// HandleLine dispatches one line with the current configuration.
func (s *Server) HandleLine(ctx context.Context, line []byte) {
	slog.DebugContext(ctx, "line", "data", string(line), "session", endpoint.SessionID(ctx))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatcher.HandleLine(ctx, line)
}

// Reload re-reads the config file and replaces the configuration wholesale.
// On error the previous configuration stays in effect.
func (s *Server) Reload() error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	s.apply(cfg)
	s.writeState()
	slog.Info("config reloaded")
	return nil
}

// Endpoint returns the endpoint name, or "" when degraded.
func (s *Server) Endpoint() string {
	if s.endpoint == nil {
		return ""
	}
	return s.endpoint.Name()
}

// Degraded reports whether the server runs without an endpoint.
func (s *Server) Degraded() bool {
	return s.endpoint == nil
}

// Config returns the configuration currently in effect.
func (s *Server) Config() *fzfpipe.Config {
	return s.config.Load()
}

// Commands returns the finder command strings for the current configuration.
func (s *Server) Commands() protocol.Commands {
	return *s.commands.Load()
}

// Close shuts down the endpoint and editor and removes the state file.
func (s *Server) Close() {
	if s.endpoint != nil {
		if err := s.endpoint.Close(); err != nil {
			slog.Warn("failed to close endpoint", "error", err)
		}
	}
	s.mu.Lock()
	closeEditor(s.editor)
	s.editor = nil
	s.mu.Unlock()
	if s.opts.StatePath != "" {
		os.Remove(s.opts.StatePath)
	}
}

func (s *Server) writeState() {
	if s.opts.StatePath == "" || s.endpoint == nil {
		return
	}
	st := &State{
		PID:        os.Getpid(),
		Endpoint:   s.endpoint.Name(),
		Kind:       s.endpoint.Kind(),
		InitialDir: fzfpipe.ResolveInitialDir(s.Config()),
		Commands:   s.Commands(),
	}
	if err := WriteState(s.opts.StatePath, st); err != nil {
		slog.Warn("failed to write state file", "path", s.opts.StatePath, "error", err)
	}
}
