package cmd

import (
	"log/slog"

	"github.com/entourage/entourage/internal/campaign"
	"github.com/entourage/entourage/internal/config"
	"github.com/entourage/entourage/internal/constants"
	"github.com/entourage/entourage/internal/gateway"

	"github.com/spf13/cobra"
)

var (
	createName                string
	createCount               int
	createDomain              string
	createPassword            string
	createForcePasswordChange bool
	createResourceGroups      bool
	createSubscription        string
	createRegion              string
	createDryRun              bool
	createYes                 bool
	createCredentialsFile     string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a campaign of temporary accounts",
	Long: `Create N user accounts, a campaign group, and optionally one resource group
per account. Accounts that already exist are reported as failures, not
adopted: their password state cannot be reconciled safely.`,
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	desc := campaign.Descriptor{
		Name:                createName,
		Domain:              firstNonEmpty(createDomain, cfg.Domain),
		UserCount:           createCount,
		Password:            createPassword,
		ForcePasswordChange: createForcePasswordChange,
		CreateContainers:    createResourceGroups,
		SubscriptionID:      firstNonEmpty(createSubscription, cfg.SubscriptionID),
		Region:              firstNonEmpty(createRegion, cfg.Location),
	}
	if err := desc.Validate(); err != nil {
		return err
	}

	cred, err := newCredential(cfg)
	if err != nil {
		return err
	}
	dir := newDirectory(cred)

	var res gateway.Resource
	if desc.CreateContainers {
		if res, err = newResource(cred, desc.SubscriptionID); err != nil {
			return err
		}
	}

	provisioner := campaign.NewProvisioner(dir, res, campaign.NewPacer(constants.DefaultPaceInterval), slog.Default())
	provisioner.Confirm = confirmPlan
	provisioner.SelectRegion = promptRegion

	result, err := provisioner.Provision(cmd.Context(), desc, campaign.RunOptions{
		DryRun: createDryRun,
		Force:  createYes,
	})
	if err != nil {
		return err
	}

	renderProvisionResult(result)

	if createCredentialsFile != "" && !result.DryRun {
		if err := writeCredentials(createCredentialsFile, result); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createName, "name", "", "Campaign name (letters, numbers, hyphens, underscores)")
	createCmd.Flags().IntVar(&createCount, "count", constants.DefaultUserCount, "Number of accounts to create (1-1000)")
	createCmd.Flags().StringVar(&createDomain, "domain", "", "Sign-in domain (default: the tenant's default verified domain)")
	createCmd.Flags().StringVar(&createPassword, "password", "", "Password for every account (default: generate one)")
	createCmd.Flags().BoolVar(&createForcePasswordChange, "force-password-change", true, "Require a password change at first sign-in")
	createCmd.Flags().BoolVar(&createResourceGroups, "resource-groups", false, "Create one resource group per account with a Contributor grant")
	createCmd.Flags().StringVar(&createSubscription, "subscription", "", "Subscription for resource groups")
	createCmd.Flags().StringVar(&createRegion, "region", "", "Region for resource groups (default: interactive selection)")
	createCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "Show the plan without creating anything")
	createCmd.Flags().BoolVar(&createYes, "yes", false, "Skip the confirmation prompt")
	createCmd.Flags().StringVar(&createCredentialsFile, "credentials-file", "", "Write account credentials to this CSV file")

	_ = createCmd.MarkFlagRequired("name")
}
