package cmd

import (
	"fmt"
	"log/slog"

	"github.com/entourage/entourage/internal/constants"
	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/logger"
	"github.com/entourage/entourage/internal/output"

	"github.com/spf13/cobra"
)

// Exit codes. Cancellation at the confirmation gate is not a failure and
// gets its own code so wrappers can tell the two apart.
const (
	exitOK        = 0
	exitError     = 1
	exitCancelled = 2
)

var (
	debug   bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   constants.ProjectName,
	Short: "Provision and tear down batches of temporary event accounts",
	Long: fmt.Sprintf(`%s creates batches of temporary accounts for events: N user accounts,
one group, and optionally one resource group per account with an access grant.
Resources carry the campaign name, so a later remove rediscovers and deletes
exactly what create provisioned, with no state kept in between.`, constants.ProjectName),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger.Initialize(constants.CLI, logLevel)

		if verbose {
			output.Info("%s %s", constants.ProjectName, *constants.GetVersion())
		}
	},
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	if apperr.IsCancelled(err) {
		output.Warning("cancelled, no changes were made")
		return exitCancelled
	}
	output.Error("%s", err.Error())
	return exitError
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debugging logs")
}
