package cmd

import (
	"github.com/entourage/entourage/internal/config"
	"github.com/entourage/entourage/internal/output"

	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Save tenant defaults for future runs",
	Long: `Interactively write ~/.entourage/config.yaml with the tenant, subscription,
sign-in domain, and region defaults that create and remove fall back to.`,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	current, err := config.Load()
	if err != nil {
		return err
	}

	output.Info("press enter to keep the current value")

	cfg := &config.Config{
		TenantID:       promptDefault("Tenant ID or domain", current.TenantID),
		SubscriptionID: promptDefault("Subscription ID", current.SubscriptionID),
		Domain:         promptDefault("Default sign-in domain", current.Domain),
		Location:       promptDefault("Default region", current.Location),
		LogLevel:       current.LogLevel,
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	output.Success("configuration saved to %s", path)
	return nil
}

func promptDefault(prompt, current string) string {
	if current != "" {
		prompt += " [" + current + "]"
	}
	if answer := output.Prompt(prompt); answer != "" {
		return answer
	}
	return current
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
