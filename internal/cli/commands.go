package cli

import "github.com/spf13/cobra"

// Each standalone subcommand starts a fresh Sheet sized by --rows/--cols
// and runs exactly one Exec call — useful for scripting and for
// exercising a single operation without a repl session, the same way
// roach88-nysm's individual subcommands (internal/cli/root.go) each stand
// alone rather than assuming a long-running process.

// NewSetCommand builds the "set" subcommand.
func NewSetCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "set <cell> <number>",
		Short:         "store a literal number at a cell",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"set"}, args...))
		},
	}
}

// NewFormulaCommand builds the "formula" subcommand.
func NewFormulaCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "formula <cell> <expression>",
		Short:         "store and evaluate a formula at a cell",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"formula"}, args...))
		},
	}
}

// NewGetCommand builds the "get" subcommand.
func NewGetCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <cell>",
		Short:         "print a cell's current value",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"get"}, args...))
		},
	}
}

// NewSourceCommand builds the "source" subcommand.
func NewSourceCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "source <cell>",
		Short:         "print a cell's stored formula text or literal",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"source"}, args...))
		},
	}
}

// NewClearCommand builds the "clear" subcommand.
func NewClearCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear <cell>",
		Short:         "empty a cell entirely",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"clear"}, args...))
		},
	}
}

// NewInsertRowsCommand builds the "insert-rows" subcommand.
func NewInsertRowsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "insert-rows <at-position> <count>",
		Short:         "insert count fresh rows starting at at-position",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"insert-rows"}, args...))
		},
	}
}

// NewDeleteRowsCommand builds the "delete-rows" subcommand.
func NewDeleteRowsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete-rows <from-position> <to-position>",
		Short:         "delete rows from-position..to-position inclusive",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"delete-rows"}, args...))
		},
	}
}

// NewInsertColsCommand builds the "insert-cols" subcommand.
func NewInsertColsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "insert-cols <at-position> <count>",
		Short:         "insert count fresh columns starting at at-position",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"insert-cols"}, args...))
		},
	}
}

// NewDeleteColsCommand builds the "delete-cols" subcommand.
func NewDeleteColsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete-cols <from-position> <to-position>",
		Short:         "delete columns from-position..to-position inclusive",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Exec(newSheet(root), cmd.OutOrStdout(), append([]string{"delete-cols"}, args...))
		},
	}
}
