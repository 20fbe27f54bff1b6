package cmd

import (
	"log/slog"

	"github.com/entourage/entourage/internal/campaign"
	"github.com/entourage/entourage/internal/config"
	"github.com/entourage/entourage/internal/constants"
	"github.com/entourage/entourage/internal/gateway"
	"github.com/entourage/entourage/internal/output"

	"github.com/spf13/cobra"
)

var (
	removeName           string
	removeDomain         string
	removeGroups         bool
	removeResourceGroups bool
	removeSubscription   string
	removeForce          bool
	removeDryRun         bool
)

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a campaign's accounts, group, and resource groups",
	Long: `Rediscover a campaign's resources by naming convention and delete them.
Nothing is stored between create and remove: candidates are exactly the live
resources whose names match the campaign's pattern.`,
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts := campaign.RemovalOptions{
		Campaign:         removeName,
		Domain:           firstNonEmpty(removeDomain, cfg.Domain),
		RemoveGroups:     removeGroups,
		RemoveContainers: removeResourceGroups,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	cred, err := newCredential(cfg)
	if err != nil {
		return err
	}
	dir := newDirectory(cred)

	var res gateway.Resource
	if opts.RemoveContainers {
		if res, err = newResource(cred, firstNonEmpty(removeSubscription, cfg.SubscriptionID)); err != nil {
			return err
		}
	}

	discoverer := campaign.NewDiscoverer(dir, res, slog.Default())
	candidates, err := discoverer.Discover(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if candidates.Empty() {
		for _, note := range candidates.Notes {
			output.Warning("%s", note)
		}
		output.Info("no resources found for campaign %s", opts.Campaign)
		return nil
	}

	deprovisioner := campaign.NewDeprovisioner(dir, res, campaign.NewPacer(constants.DefaultPaceInterval), slog.Default())
	deprovisioner.Confirm = confirmRemoval

	result, err := deprovisioner.Deprovision(cmd.Context(), candidates, opts, campaign.RunOptions{
		DryRun: removeDryRun,
		Force:  removeForce,
	})
	if err != nil {
		return err
	}

	renderRemovalResult(result)
	return nil
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().StringVar(&removeName, "name", "", "Campaign name to remove")
	removeCmd.Flags().StringVar(&removeDomain, "domain", "", "Restrict account matching to this sign-in domain")
	removeCmd.Flags().BoolVar(&removeGroups, "remove-groups", true, "Also remove the campaign group")
	removeCmd.Flags().BoolVar(&removeResourceGroups, "remove-resource-groups", false, "Also remove the campaign's resource groups")
	removeCmd.Flags().StringVar(&removeSubscription, "subscription", "", "Subscription holding the resource groups")
	removeCmd.Flags().BoolVar(&removeForce, "force", false, "Skip the confirmation prompt")
	removeCmd.Flags().BoolVar(&removeDryRun, "dry-run", false, "Show what would be removed without deleting anything")

	_ = removeCmd.MarkFlagRequired("name")
}
