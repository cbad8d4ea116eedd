package serve

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Paranoid-AF/fzfpipe/endpoint"
	"github.com/Paranoid-AF/fzfpipe/protocol"
)

// State is what a running server publishes for shells to pick up.
type State struct {
	PID        int               `yaml:"pid"`
	Endpoint   string            `yaml:"endpoint"`
	Kind       endpoint.Kind     `yaml:"kind"`
	InitialDir string            `yaml:"initial_dir,omitempty"`
	Commands   protocol.Commands `yaml:"commands"`
}

// StatePath returns the default state file location.
// Resolution order: $FZFPIPE_STATE > $XDG_RUNTIME_DIR/fzfpipe.yaml > <tmp>/fzfpipe-<uid>.yaml
func StatePath() string {
	if path := os.Getenv("FZFPIPE_STATE"); path != "" {
		return path
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "fzfpipe.yaml")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("fzfpipe-%d.yaml", os.Getuid()))
}

// WriteState writes st to path, readable by the owner only.
func WriteState(path string, st *State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ReadState reads a state file written by WriteState.
func ReadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	return &st, nil
}
