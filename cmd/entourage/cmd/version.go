package cmd

import (
	"github.com/entourage/entourage/internal/constants"
	"github.com/entourage/entourage/internal/output"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		output.Println(constants.ProjectName, *constants.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
