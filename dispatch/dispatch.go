// Package dispatch turns decoded commands into editor actions.
package dispatch

import (
	"context"
	"log/slog"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
	"github.com/Paranoid-AF/fzfpipe/editor"
	"github.com/Paranoid-AF/fzfpipe/endpoint"
	"github.com/Paranoid-AF/fzfpipe/protocol"
	"github.com/Paranoid-AF/fzfpipe/resolve"
)

// Action is the editor action a command resulted in.
type Action string

const (
	ActionNone   Action = "none"
	ActionOpen   Action = "open"
	ActionAdd    Action = "add"
	ActionReveal Action = "reveal"
)

// Dispatcher performs at most one editor action per command. Failures to
// resolve a path or reach the editor are logged and dropped.
type Dispatcher struct {
	editor editor.Editor
}

// New creates a Dispatcher driving ed.
func New(ed editor.Editor) *Dispatcher {
	return &Dispatcher{editor: ed}
}

// HandleLine decodes every line in chunk and dispatches the commands in order.
func (d *Dispatcher) HandleLine(ctx context.Context, chunk []byte) {
	for _, res := range protocol.DecodeChunk(chunk) {
		d.DispatchResult(ctx, res)
	}
}

// DispatchResult dispatches res, or logs why it carries no command.
func (d *Dispatcher) DispatchResult(ctx context.Context, res protocol.Result) Action {
	if !res.OK() {
		debug(ctx, "dropped line", "reason", res.NoOp)
		return ActionNone
	}
	return d.Dispatch(ctx, res.Command)
}

// Dispatch performs the action for cmd and reports which one ran.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd fzfpipe.Command) Action {
	switch cmd.Kind {
	case fzfpipe.KindOpen:
		path, ok := resolve.Path(cmd.Arg, cmd.Cwd)
		if !ok {
			debug(ctx, "path not found", "kind", cmd.Kind, "arg", cmd.Arg, "cwd", cmd.Cwd)
			return ActionNone
		}
		if _, err := d.editor.ShowDocument(ctx, path); err != nil {
			debug(ctx, "show document failed", "path", path, "error", err)
			return ActionNone
		}
		return ActionOpen

	case fzfpipe.KindAdd:
		path, ok := resolve.Path(cmd.Arg, cmd.Cwd)
		if !ok {
			debug(ctx, "path not found", "kind", cmd.Kind, "arg", cmd.Arg, "cwd", cmd.Cwd)
			return ActionNone
		}
		if err := d.editor.AddWorkspaceFolder(ctx, path); err != nil {
			debug(ctx, "add workspace folder failed", "path", path, "error", err)
			return ActionNone
		}
		if err := d.editor.ShowExplorer(ctx); err != nil {
			debug(ctx, "show explorer failed", "error", err)
		}
		return ActionAdd

	case fzfpipe.KindSearch:
		if cmd.Match == nil {
			return ActionNone
		}
		path, ok := resolve.Path(cmd.Match.File, cmd.Cwd)
		if !ok {
			debug(ctx, "path not found", "kind", cmd.Kind, "arg", cmd.Match.File, "cwd", cmd.Cwd)
			return ActionNone
		}
		doc, err := d.editor.ShowDocument(ctx, path)
		if err != nil {
			debug(ctx, "show document failed", "path", path, "error", err)
			return ActionNone
		}
		// The selection can only be applied once the document is shown.
		if err := doc.Reveal(ctx, cmd.Match.Position()); err != nil {
			debug(ctx, "reveal failed", "path", path, "error", err)
			return ActionOpen
		}
		return ActionReveal

	default:
		debug(ctx, "unknown command kind", "kind", cmd.Kind)
		return ActionNone
	}
}

// debug logs with the id of the read session the command arrived on.
func debug(ctx context.Context, msg string, args ...any) {
	if id := endpoint.SessionID(ctx); id != "" {
		args = append(args, "session", id)
	}
	slog.DebugContext(ctx, msg, args...)
}
