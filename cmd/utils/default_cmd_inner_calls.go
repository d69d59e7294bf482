package utils

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PropagatePersistentPreRun runs the parent's PersistentPreRun, so global options are loaded before any subcommand.
func PropagatePersistentPreRun(cmd *cobra.Command, args []string) {
	if parent := cmd.Parent(); parent != nil && parent.PersistentPreRun != nil {
		parent.PersistentPreRun(parent, args)
	}
}

// CallHelpCommand prints the help of a command that only groups subcommands.
func CallHelpCommand(cmd *cobra.Command, _ []string) error {
	if err := cmd.Help(); err != nil {
		return fmt.Errorf("calling help command: %w", err)
	}
	return nil
}
