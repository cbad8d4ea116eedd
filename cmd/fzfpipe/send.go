package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	fzfpipe "github.com/Paranoid-AF/fzfpipe"
	"github.com/Paranoid-AF/fzfpipe/endpoint"
	"github.com/Paranoid-AF/fzfpipe/protocol"
)

var errInteractive = errors.New("stdin is a terminal; pipe finder output into send")

func newSendCmd() *cobra.Command {
	var cwd string
	cmd := &cobra.Command{
		Use:   "send <open|add|rg> <endpoint>",
		Short: "Forward finder selections from stdin to a running server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := fzfpipe.Kind(args[0])
			if !kind.Known() {
				return fmt.Errorf("unknown kind %q", args[0])
			}
			if term.IsTerminal(int(os.Stdin.Fd())) {
				return errInteractive
			}
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("working directory: %w", err)
				}
				cwd = wd
			}

			w, err := endpoint.Dial(args[1])
			if err != nil {
				return err
			}
			defer w.Close()

			_, err = sendSelections(w, cmd.InOrStdin(), kind, cwd)
			return err
		},
	}
	cmd.Flags().StringVar(&cwd, "cwd", "", "working directory relative selections resolve against (default current)")
	return cmd
}

// sendSelections writes one protocol line per selection read from r. When the
// finder was cancelled and r is empty, a single line with an empty argument is
// written so the server sees the session end.
func sendSelections(w io.Writer, r io.Reader, kind fzfpipe.Kind, cwd string) (int, error) {
	bw := bufio.NewWriter(w)
	sc := bufio.NewScanner(r)
	// Leave room for the kind and working directory on the encoded line.
	sc.Buffer(make([]byte, 0, 64*1024), endpoint.MaxLineSize-64*1024)

	n := 0
	for sc.Scan() {
		sel := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(sel) == "" {
			continue
		}
		if _, err := bw.Write(protocol.Encode(kind, cwd, sel)); err != nil {
			return n, fmt.Errorf("write selection: %w", err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("read selections: %w", err)
	}
	if n == 0 {
		if _, err := bw.Write(protocol.Encode(kind, cwd, "")); err != nil {
			return 0, fmt.Errorf("write selection: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("write selection: %w", err)
	}
	return n, nil
}
