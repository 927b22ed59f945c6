package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/coa/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "coa",
		Short:   "Chart of accounts and financial statement mapping",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("dir", ".", "project root")
	rootCmd.PersistentFlags().String("actor", defaultActor(), "name recorded in the audit log")

	rootCmd.AddCommand(
		newInitCommand(),
		newStandardsCommand(),
		newAccountsCommand(),
		newEntriesCommand(),
		newGenerateCommand(),
		newRegenerateCommand(),
		newValidateCommand(),
		newCloseCommand(),
		newExportCommand(),
		newStatementsCommand(),
	)

	return rootCmd
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "coa"
}
