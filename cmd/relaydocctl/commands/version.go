package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the relaydocctl version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("relaydocctl version %s (commit %s, built %s)\n", Version, Commit, Date)
		return nil
	},
}
