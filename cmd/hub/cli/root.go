// Package cli builds the hub's subcommand tree. Grounded on
// roach88-nysm's cobra root command shape (one New<Name>Command
// constructor per subcommand).
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the "hub" command and registers every subcommand.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hub",
		Short: "Point-of-sale edge sync hub",
		Long:  "Runs the terminal-facing HTTP surface and the background push/pull sync engines.",
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewResetCursorsCommand())
	cmd.AddCommand(NewRetryDeadLettersCommand())

	return cmd
}
