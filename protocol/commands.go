package protocol

import (
	"strings"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
)

// Settings is the configuration snapshot command construction reads from.
// It is passed by value so a reload never changes a command mid-build.
type Settings struct {
	// Finder is the fuzzy-finder invocation, e.g. "fzf --multi".
	Finder string
	// FindDirectories optionally lists directories for the add-folder finder.
	FindDirectories string
	// SearchFlags are passed to ripgrep before the pattern.
	SearchFlags string
	// Script is the wrapper executable that writes lines into the endpoint.
	Script string
	// ScriptArgs are inserted between Script and the command kind,
	// e.g. "send" when the wrapper is fzfpipe itself.
	ScriptArgs []string
	// Endpoint is the FIFO path or named-pipe name.
	Endpoint string
	Quoting  Quoting
}

// SettingsFromConfig derives Settings from cfg for the given platform.
func SettingsFromConfig(cfg *fzfpipe.Config, goos, endpoint, self string) Settings {
	s := Settings{
		Finder:      fzfpipe.ResolveFinderCommand(cfg),
		SearchFlags: fzfpipe.ResolveSearchFlags(cfg),
		Endpoint:    endpoint,
		Script:      self,
		ScriptArgs:  []string{"send"},
		Quoting:     QuotingFor(goos, fzfpipe.ResolveWindowsShell(cfg)),
	}
	if cfg != nil {
		s.FindDirectories = cfg.Finder.FindDirectoriesCommand
		if cfg.Finder.PipeScript != "" {
			s.Script = cfg.Finder.PipeScript
			s.ScriptArgs = nil
		}
	}
	return s
}

// Commands are the finder pipelines a shell runs to talk to the endpoint.
type Commands struct {
	OpenFile  string `yaml:"open_file"`
	AddFolder string `yaml:"add_folder"`
	// SearchPrefix is the ripgrep invocation without the pattern.
	SearchPrefix string `yaml:"search_prefix"`
	// SearchSuffix follows the pattern.
	SearchSuffix string `yaml:"search_suffix"`
	// Quoting is applied to search patterns.
	Quoting Quoting `yaml:"-"`
}

// BuildCommands renders the command strings for s. The endpoint and the
// wrapper path are escaped here and nowhere else.
func BuildCommands(s Settings) Commands {
	wrapper := func(kind fzfpipe.Kind) string {
		parts := []string{s.Quoting.Path(s.Quoting.Escape(s.Script))}
		parts = append(parts, s.ScriptArgs...)
		parts = append(parts, string(kind), s.Quoting.Path(s.Quoting.Escape(s.Endpoint)))
		return strings.Join(parts, " ")
	}
	pipeline := func(stages ...string) string {
		var nonEmpty []string
		for _, st := range stages {
			if st = strings.TrimSpace(st); st != "" {
				nonEmpty = append(nonEmpty, st)
			}
		}
		return strings.Join(nonEmpty, " | ")
	}

	rg := strings.Join(strings.Fields("rg "+s.SearchFlags+" --line-number --column --no-heading --color=never"), " ")
	return Commands{
		OpenFile:     pipeline(s.Finder, wrapper(fzfpipe.KindOpen)),
		AddFolder:    pipeline(s.FindDirectories, s.Finder, wrapper(fzfpipe.KindAdd)),
		SearchPrefix: rg,
		SearchSuffix: "| " + pipeline(s.Finder, wrapper(fzfpipe.KindSearch)),
		Quoting:      s.Quoting,
	}
}

// Search returns the ripgrep pipeline for pattern. The pattern goes through -e
// so one starting with a dash is not taken for a flag.
func (c Commands) Search(pattern string) string {
	return c.SearchPrefix + " -e " + c.Quoting.Word(pattern) + " " + c.SearchSuffix
}

// InDir prefixes every command with a change into dir.
func (c Commands) InDir(dir string) Commands {
	if dir == "" {
		return c
	}
	cd := "cd " + c.Quoting.Path(c.Quoting.Escape(dir)) + " && "
	c.OpenFile = cd + c.OpenFile
	c.AddFolder = cd + c.AddFolder
	c.SearchPrefix = cd + c.SearchPrefix
	return c
}
