package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
	"github.com/Paranoid-AF/fzfpipe/protocol"
	"github.com/Paranoid-AF/fzfpipe/resolve"
	"github.com/Paranoid-AF/fzfpipe/serve"
)

type commandsFlags struct {
	statePath string
	root      bool
}

func newCommandsCmd(root *rootOptions) *cobra.Command {
	flags := &commandsFlags{}
	cmd := &cobra.Command{
		Use:   "commands [open | add | search <pattern>]",
		Short: "Print the finder pipelines for the running server",
		Long: "Print the finder pipelines published by `fzfpipe serve`.\n" +
			"Without arguments every command is printed as YAML.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := serve.ReadState(flags.statePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no running server (state file %s not found)", flags.statePath)
				}
				return err
			}

			cfg := root.loadConfig()
			cmds := st.Commands
			cmds.Quoting = protocol.QuotingFor(runtime.GOOS, fzfpipe.ResolveWindowsShell(cfg))

			dir := st.InitialDir
			if flags.root {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("working directory: %w", err)
				}
				if top := resolve.ProjectRoot(cmd.Context(), wd); top != "" {
					dir = top
				}
			}
			cmds = cmds.InDir(dir)

			return printCommands(cmd.OutOrStdout(), cmds, args)
		},
	}
	cmd.Flags().StringVar(&flags.statePath, "state", serve.StatePath(), "state file written by serve")
	cmd.Flags().BoolVar(&flags.root, "root", false, "run from the git project root of the current directory")
	return cmd
}

func printCommands(w io.Writer, cmds protocol.Commands, args []string) error {
	if len(args) == 0 {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cmds); err != nil {
			return fmt.Errorf("encode commands: %w", err)
		}
		return enc.Close()
	}

	var out string
	switch args[0] {
	case "open":
		out = cmds.OpenFile
	case "add":
		out = cmds.AddFolder
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("search needs a pattern")
		}
		out = cmds.Search(strings.Join(args[1:], " "))
	default:
		return fmt.Errorf("unknown command %q, want open, add or search", args[0])
	}
	_, err := fmt.Fprintln(w, out)
	return err
}
