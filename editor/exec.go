package editor

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
)

const (
	lookPathTTL = 5 * time.Minute
	runTimeout  = 10 * time.Second
)

// Runner executes one editor command. The default runs it as a child process.
type Runner func(ctx context.Context, argv []string) error

// Exec drives an editor through its command-line interface, e.g. "code".
type Exec struct {
	templates fzfpipe.EditorConfig
	run       Runner
	binaries  *ttlcache.Cache[string, string]
}

// NewExec creates an Exec editor from the configured templates.
func NewExec(templates fzfpipe.EditorConfig) *Exec {
	e := &Exec{templates: templates}
	e.run = e.runProcess
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](lookPathTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	e.binaries = c
	return e
}

// NewExecWithRunner creates an Exec editor with a custom Runner.
func NewExecWithRunner(templates fzfpipe.EditorConfig, run Runner) *Exec {
	e := NewExec(templates)
	e.run = run
	return e
}

// Close stops the binary lookup cache.
func (e *Exec) Close() {
	e.binaries.Stop()
}

// ShowDocument runs the open template for path.
func (e *Exec) ShowDocument(ctx context.Context, path string) (Document, error) {
	if err := e.invoke(ctx, "open", e.templates.Open, Vars{Path: path}); err != nil {
		return nil, err
	}
	return &execDocument{editor: e, path: path}, nil
}

// AddWorkspaceFolder runs the add_folder template for path.
func (e *Exec) AddWorkspaceFolder(ctx context.Context, path string) error {
	return e.invoke(ctx, "add_folder", e.templates.AddFolder, Vars{Path: path})
}

// ShowExplorer runs the explorer template. Editors whose CLI cannot focus the
// explorer leave it empty and this is a no-op.
func (e *Exec) ShowExplorer(ctx context.Context) error {
	if e.templates.Explorer == "" {
		return nil
	}
	return e.invoke(ctx, "explorer", e.templates.Explorer, Vars{})
}

func (e *Exec) invoke(ctx context.Context, name, tmpl string, vars Vars) error {
	argv, err := Expand(tmpl, vars)
	if err != nil {
		return fmt.Errorf("editor.%s: %w", name, err)
	}
	slog.Debug("editor command", "action", name, "argv", argv)
	return e.run(ctx, argv)
}

func (e *Exec) runProcess(ctx context.Context, argv []string) error {
	bin, err := e.lookPath(argv[0])
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, out)
	}
	return nil
}

// lookPath resolves name on PATH, caching hits so each dispatch does not rescan PATH.
func (e *Exec) lookPath(name string) (string, error) {
	if item := e.binaries.Get(name); item != nil {
		return item.Value(), nil
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	e.binaries.Set(name, bin, ttlcache.DefaultTTL)
	return bin, nil
}

type execDocument struct {
	editor *Exec
	path   string
}

func (d *execDocument) Path() string {
	return d.path
}

// Reveal runs the goto template. Editor CLIs count from one, so the zero-based
// position is shifted back here.
func (d *execDocument) Reveal(ctx context.Context, pos fzfpipe.Position) error {
	return d.editor.invoke(ctx, "goto", d.editor.templates.Goto, Vars{
		Path:   d.path,
		Line:   strconv.Itoa(pos.Line + 1),
		Column: strconv.Itoa(pos.Column + 1),
	})
}
