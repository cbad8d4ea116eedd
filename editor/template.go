package editor

import (
	"errors"
	"os"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// ErrEmptyTemplate is returned when a template expands to no words.
var ErrEmptyTemplate = errors.New("editor: empty command template")

// Vars are the placeholder values substituted into a template.
type Vars struct {
	Path   string
	Line   string
	Column string
}

// Expand splits tmpl into words with shell rules (quotes, $VAR, ~) and then
// substitutes {path}, {line} and {column} inside each word. Substitution runs
// after splitting so values containing spaces or quotes stay one argument.
func Expand(tmpl string, vars Vars) ([]string, error) {
	return expand(tmpl, vars, os.Getenv)
}

func expand(tmpl string, vars Vars, env func(string) string) ([]string, error) {
	words, err := shell.Fields(tmpl, env)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrEmptyTemplate
	}
	r := strings.NewReplacer("{path}", vars.Path, "{line}", vars.Line, "{column}", vars.Column)
	for i, w := range words {
		words[i] = r.Replace(w)
	}
	return words, nil
}
