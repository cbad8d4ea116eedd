package protocol

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Quoting describes how arguments are embedded into a command line for the
// shell the finder runs in.
type Quoting struct {
	// Quote wraps arguments on Windows shells.
	Quote byte
	// EscapeBackslashes doubles every backslash in embedded paths.
	EscapeBackslashes bool
	// POSIX quotes with sh rules instead of plain wrapping.
	POSIX bool
}

// QuotingFor picks the quoting style for goos and, on Windows, the shell path.
// cmd.exe and powershell.exe take double quotes as-is; other Windows shells
// (Git Bash, MSYS) get single quotes and need backslashes doubled.
func QuotingFor(goos, windowsShell string) Quoting {
	if goos != "windows" {
		return Quoting{Quote: '\'', POSIX: true}
	}
	sh := strings.ToLower(windowsShell)
	if strings.HasSuffix(sh, "cmd.exe") || strings.HasSuffix(sh, "powershell.exe") {
		return Quoting{Quote: '"'}
	}
	return Quoting{Quote: '\'', EscapeBackslashes: true}
}

// ShellPath is a path that has been escaped for embedding into a command line.
// It must not be escaped again or passed to OS calls.
type ShellPath string

// Escape prepares path for embedding. Escaping is not idempotent, so it is
// applied exactly once, where the path enters a command string.
func (q Quoting) Escape(path string) ShellPath {
	if !q.EscapeBackslashes {
		return ShellPath(path)
	}
	return ShellPath(strings.ReplaceAll(path, `\`, `\\`))
}

// Path returns p quoted as a single shell word.
func (q Quoting) Path(p ShellPath) string {
	return q.Word(string(p))
}

// Word quotes an arbitrary string as a single shell word.
func (q Quoting) Word(s string) string {
	if q.POSIX {
		quoted, err := syntax.Quote(s, syntax.LangPOSIX)
		if err == nil {
			return quoted
		}
		// Non-printable input: fall back to plain wrapping.
	}
	quote := string(q.Quote)
	return quote + strings.ReplaceAll(s, quote, q.embeddedQuote()) + quote
}

// embeddedQuote is how the quote character itself is written inside a word.
// cmd.exe and PowerShell take it doubled; sh-like shells close, escape and reopen.
func (q Quoting) embeddedQuote() string {
	if q.Quote == '"' {
		return `""`
	}
	return `'\''`
}
