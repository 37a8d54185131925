package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vogtb/sheetcore/internal/engine"
)

// RootOptions holds the flags every sheetctl subcommand shares: how large
// a Sheet to start with, and how verbose to log. Mirrors roach88-nysm's
// RootOptions (internal/cli/root.go) — one struct threaded into every
// NewXCommand constructor instead of package-level globals.
type RootOptions struct {
	Verbose bool
	Rows    int
	Cols    int
}

// NewRootCommand builds the sheetctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sheetctl",
		Short: "sheetctl - drive a sheetcore spreadsheet from the command line",
		Long: `sheetctl exercises internal/engine.Sheet directly: each standalone
subcommand (set, formula, get, source, clear, insert-rows, delete-rows,
insert-cols, delete-cols) starts a fresh sheet, runs one operation, and
prints its result. The repl subcommand keeps one sheet alive across a
sequence of such commands read from stdin.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug-level logging")
	cmd.PersistentFlags().IntVar(&opts.Rows, "rows", 1000, "initial row count for a freshly started sheet")
	cmd.PersistentFlags().IntVar(&opts.Cols, "cols", 1000, "initial column count for a freshly started sheet")

	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewFormulaCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSourceCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewInsertRowsCommand(opts))
	cmd.AddCommand(NewDeleteRowsCommand(opts))
	cmd.AddCommand(NewInsertColsCommand(opts))
	cmd.AddCommand(NewDeleteColsCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))

	return cmd
}

func newSheet(opts *RootOptions) *engine.Sheet {
	return engine.NewSheet(engine.WithInitialRows(opts.Rows), engine.WithInitialCols(opts.Cols))
}
