// Package editor defines the editor capabilities the dispatcher drives and an
// implementation that runs an editor's command-line interface.
package editor

import (
	"context"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
)

// Editor is the host editor as seen by the dispatcher.
type Editor interface {
	// ShowDocument opens path as a text document and returns it once shown.
	ShowDocument(ctx context.Context, path string) (Document, error)
	// AddWorkspaceFolder appends path as a new workspace root folder.
	AddWorkspaceFolder(ctx context.Context, path string) error
	// ShowExplorer reveals the file explorer view.
	ShowExplorer(ctx context.Context) error
}

// Document is a document the editor has shown.
type Document interface {
	Path() string
	// Reveal places an empty selection at pos and scrolls it into view.
	Reveal(ctx context.Context, pos fzfpipe.Position) error
}
