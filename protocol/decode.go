// Package protocol implements the line format written into the endpoint and
// the shell command strings that produce it.
//
// A line carries three fields separated by Delimiter:
//
//	<kind>$$<workingDirectory>$$<argument>
//
// For kind "rg" the argument is ripgrep output, <file>:<line>:<column>[:<text>],
// with one-based line and column.
package protocol

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
)

// Delimiter separates the fields of a line.
const Delimiter = "$$"

// Reason explains why a line produced no command.
type Reason string

const (
	// ReasonFieldCount means the line did not carry three fields.
	ReasonFieldCount Reason = "field_count"
	// ReasonEmptyArgument means the finder exited without a selection.
	ReasonEmptyArgument Reason = "empty_argument"
	// ReasonBadPosition means an rg argument had no usable file:line:column.
	ReasonBadPosition Reason = "bad_position"
)

// Result is the outcome of decoding one line: either a Command or a no-op
// with the reason it was dropped.
type Result struct {
	Command fzfpipe.Command
	NoOp    Reason
}

// OK reports whether the result carries an actionable command.
func (r Result) OK() bool {
	return r.NoOp == ""
}

func noOp(reason Reason) Result {
	return Result{NoOp: reason}
}

// Decode parses a single line.
func Decode(line []byte) Result {
	parts := strings.SplitN(strings.TrimSpace(string(line)), Delimiter, 3)
	if len(parts) != 3 {
		return noOp(ReasonFieldCount)
	}
	kind := strings.TrimSpace(parts[0])
	cwd := strings.TrimSpace(parts[1])
	arg := strings.TrimSpace(parts[2])
	if arg == "" {
		return noOp(ReasonEmptyArgument)
	}

	cmd := fzfpipe.Command{Kind: fzfpipe.Kind(kind), Cwd: cwd, Arg: arg}
	if cmd.Kind == fzfpipe.KindSearch {
		m, ok := parseMatch(arg)
		if !ok {
			return noOp(ReasonBadPosition)
		}
		cmd.Match = m
	}
	return Result{Command: cmd}
}

// DecodeChunk splits a raw read into lines and decodes each non-blank one.
func DecodeChunk(chunk []byte) []Result {
	var results []Result
	scanner := bufio.NewScanner(bytes.NewReader(chunk))
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		results = append(results, Decode(scanner.Bytes()))
	}
	return results
}

// parseMatch splits file:line:column and converts the one-based positions to
// zero-based ones. Anything after the column (ripgrep's match text) is ignored.
func parseMatch(arg string) (*fzfpipe.Match, bool) {
	fields := strings.SplitN(arg, ":", 4)
	if len(fields) < 3 {
		return nil, false
	}
	file := strings.TrimSpace(fields[0])
	line, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return nil, false
	}
	col, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return nil, false
	}
	if file == "" || line < 1 || col < 1 {
		return nil, false
	}
	return &fzfpipe.Match{File: file, Line: line - 1, Column: col - 1}, true
}

// Encode renders one line for the endpoint, newline included.
func Encode(kind fzfpipe.Kind, cwd, arg string) []byte {
	var b bytes.Buffer
	b.Grow(len(kind) + len(cwd) + len(arg) + 2*len(Delimiter) + 1)
	b.WriteString(string(kind))
	b.WriteString(Delimiter)
	b.WriteString(cwd)
	b.WriteString(Delimiter)
	b.WriteString(arg)
	b.WriteByte('\n')
	return b.Bytes()
}
