package fzfpipe

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	defaults "github.com/Paranoid-AF/fzfpipe/default"
)

// Config represents the user's fzfpipe configuration.
type Config struct {
	Version int          `toml:"version"`
	Finder  FinderConfig `toml:"finder"`
	Search  SearchConfig `toml:"search"`
	Shell   ShellConfig  `toml:"shell"`
	Editor  EditorConfig `toml:"editor"`
}

// FinderConfig holds settings for the fuzzy-finder pipelines.
type FinderConfig struct {
	Command                 string `toml:"command"`
	FindDirectoriesCommand  string `toml:"find_directories_command"`
	InitialWorkingDirectory string `toml:"initial_working_directory"`
	// PipeScript replaces "fzfpipe send" as the wrapper that writes into the endpoint.
	PipeScript string `toml:"pipe_script"`
}

// SearchConfig holds ripgrep settings.
type SearchConfig struct {
	Style   string `toml:"style"`
	Options string `toml:"options"`
}

// ShellConfig identifies the shell the finder commands run in.
type ShellConfig struct {
	// Windows is the path of the integrated shell on Windows. It only affects quoting.
	Windows string `toml:"windows"`
}

// EditorConfig holds the command templates used to drive the editor.
// Templates are split into words with shell rules; {path}, {line} and {column}
// are substituted per word. {line} and {column} are one-based.
type EditorConfig struct {
	Open      string `toml:"open"`
	Goto      string `toml:"goto"`
	AddFolder string `toml:"add_folder"`
	Explorer  string `toml:"explorer"`
}

// Search styles accepted in search.style.
const (
	SearchCaseSensitive = "Case sensitive"
	SearchIgnoreCase    = "Ignore case"
	SearchSmartCase     = "Smart case"
)

var searchFlags = map[string]string{
	SearchCaseSensitive: "--case-sensitive",
	SearchIgnoreCase:    "--ignore-case",
	SearchSmartCase:     "--smart-case",
}

// ConfigDir returns the config directory path.
// Resolution order: $FZFPIPE_CONFIG_DIR > $XDG_CONFIG_HOME/fzfpipe > ~/.config/fzfpipe
func ConfigDir() string {
	if dir := os.Getenv("FZFPIPE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "fzfpipe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "fzfpipe-config")
	}
	return filepath.Join(home, ".config", "fzfpipe")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultConfig returns the default configuration from the embedded default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if _, err := toml.Decode(string(defaults.DefaultConfigTOML), &cfg); err != nil {
		panic("fzfpipe: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from ConfigPath or returns defaults if not found.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile loads config from path or returns defaults if the file does not exist.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Finder.Command == "" {
		cfg.Finder.Command = defaults.Finder.Command
	}
	if cfg.Search.Style == "" {
		cfg.Search.Style = defaults.Search.Style
	}
	if cfg.Editor.Open == "" {
		cfg.Editor.Open = defaults.Editor.Open
	}
	if cfg.Editor.Goto == "" {
		cfg.Editor.Goto = defaults.Editor.Goto
	}
	if cfg.Editor.AddFolder == "" {
		cfg.Editor.AddFolder = defaults.Editor.AddFolder
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if _, ok := searchFlags[cfg.Search.Style]; !ok {
		warnings = append(warnings, "unknown search.style "+quoteValue(cfg.Search.Style)+"; falling back to "+quoteValue(SearchCaseSensitive))
	}
	if !strings.Contains(cfg.Editor.Open, "{path}") {
		warnings = append(warnings, "editor.open does not reference {path}; opened files will not reach the editor")
	}
	if !strings.Contains(cfg.Editor.Goto, "{line}") {
		warnings = append(warnings, "editor.goto does not reference {line}; search results will not move the cursor")
	}
	if cfg.Finder.InitialWorkingDirectory != "" {
		if info, err := os.Stat(cfg.Finder.InitialWorkingDirectory); err != nil || !info.IsDir() {
			warnings = append(warnings, "finder.initial_working_directory is not a directory: "+cfg.Finder.InitialWorkingDirectory)
		}
	}
	return warnings
}

func quoteValue(s string) string {
	return `"` + s + `"`
}

// ResolveFinderCommand returns the fuzzy-finder command.
// Priority: $FZFPIPE_FINDER env > config value > "fzf".
func ResolveFinderCommand(cfg *Config) string {
	if cmd := os.Getenv("FZFPIPE_FINDER"); cmd != "" {
		return cmd
	}
	if cfg != nil && cfg.Finder.Command != "" {
		return cfg.Finder.Command
	}
	return "fzf"
}

// ResolveSearchFlags returns the ripgrep flags for the configured search style
// followed by any extra options.
func ResolveSearchFlags(cfg *Config) string {
	if cfg == nil {
		return searchFlags[SearchCaseSensitive]
	}
	flag, ok := searchFlags[cfg.Search.Style]
	if !ok {
		flag = searchFlags[SearchCaseSensitive]
	}
	return strings.TrimSpace(flag + " " + cfg.Search.Options)
}

// ResolveWindowsShell returns the shell identity used to pick quoting on Windows.
// Priority: $FZFPIPE_WINDOWS_SHELL env > config value > $ComSpec.
func ResolveWindowsShell(cfg *Config) string {
	if sh := os.Getenv("FZFPIPE_WINDOWS_SHELL"); sh != "" {
		return sh
	}
	if cfg != nil && cfg.Shell.Windows != "" {
		return cfg.Shell.Windows
	}
	return os.Getenv("ComSpec")
}

// ResolveInitialDir returns the directory finder commands start in.
// Priority: config value > current working directory.
func ResolveInitialDir(cfg *Config) string {
	if cfg != nil && cfg.Finder.InitialWorkingDirectory != "" {
		return cfg.Finder.InitialWorkingDirectory
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
