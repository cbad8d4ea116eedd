// Command fzfpipe opens files picked in a terminal fuzzy finder in the editor.
//
// `fzfpipe serve` owns the endpoint and drives the editor. The finder pipelines
// printed by `fzfpipe commands` end in `fzfpipe send`, which writes each
// selection to the endpoint.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type rootOptions struct {
	verbose    bool
	configPath string
}

// setupLogging installs the default slog handler on stderr.
func (r *rootOptions) setupLogging() {
	level := slog.LevelInfo
	if r.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads the selected config file, falling back to defaults.
func (r *rootOptions) loadConfig() *fzfpipe.Config {
	cfg, err := fzfpipe.LoadConfigFile(r.configPath)
	if err != nil {
		slog.Warn("failed to load config, using defaults", "path", r.configPath, "error", err)
		return fzfpipe.DefaultConfig()
	}
	return cfg
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "fzfpipe",
		Short:         "Open fuzzy finder selections in the editor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "log every command received")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", fzfpipe.ConfigPath(), "path to config file")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		opts.setupLogging()
	}

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newCommandsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "fzfpipe", Version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fzfpipe", "error", err)
		os.Exit(1)
	}
}
