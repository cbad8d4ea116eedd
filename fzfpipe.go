// Package fzfpipe defines the command types exchanged between a fuzzy-finder
// wrapper and the editor host. Commands are plain text, one per line, with
// fields separated by "$$" and written into a FIFO or Windows named pipe.
package fzfpipe

// Kind selects the editor action a command asks for.
type Kind string

const (
	// KindOpen opens the selected file as a document.
	KindOpen Kind = "open"
	// KindAdd adds the selected directory as a workspace root folder.
	KindAdd Kind = "add"
	// KindSearch opens a ripgrep match and moves the cursor to it.
	KindSearch Kind = "rg"
)

// Known reports whether k is one of the kinds the dispatcher acts on.
func (k Kind) Known() bool {
	switch k {
	case KindOpen, KindAdd, KindSearch:
		return true
	}
	return false
}

// Command is one decoded protocol line.
type Command struct {
	// Kind is the requested action. Unknown kinds are carried through and ignored.
	Kind Kind
	// Cwd is the working directory of the shell that ran the finder.
	Cwd string
	// Arg is the finder selection, trimmed and never empty.
	Arg string
	// Match is set for KindSearch only.
	Match *Match
}

// Match locates a ripgrep hit. Line and Column are zero-based.
type Match struct {
	File   string
	Line   int
	Column int
}

// Position is a zero-based cursor location inside a document.
type Position struct {
	Line   int
	Column int
}

// Position returns the cursor location of the match.
func (m *Match) Position() Position {
	return Position{Line: m.Line, Column: m.Column}
}
