package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// NewReplCommand builds the "repl" subcommand: one Sheet, read a line at a
// time from stdin, dispatch it through Exec, print the result or the
// error, and continue until EOF or a bare "quit" line. This is the
// long-running counterpart to the standalone subcommands, the same split
// roach88-nysm draws between its one-shot subcommands and its own `run`
// command (internal/cli/run.go) that keeps a process alive.
func NewReplCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "run an interactive session against one sheet",
		Long: `repl keeps a single sheet alive for the process lifetime and executes
one command per line of stdin, using the same verbs as the standalone
subcommands: set, formula, get, source, clear, insert-rows, delete-rows,
insert-cols, delete-cols.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(root, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runRepl(root *RootOptions, in io.Reader, out io.Writer) error {
	sheet := newSheet(root)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		fields := strings.Fields(line)
		if err := Exec(sheet, out, fields); err != nil {
			slog.Error("command failed", "line", line, "err", err)
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}
