package cmd

import (
	"strings"

	"github.com/entourage/entourage/internal/config"
	"github.com/entourage/entourage/internal/gateway"
	"github.com/entourage/entourage/internal/output"

	"github.com/spf13/cobra"
)

var regionsSubscription string

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the regions available for resource groups",
	RunE:  runRegions,
}

func runRegions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	regions := fallbackRegions()

	subscription := firstNonEmpty(regionsSubscription, cfg.SubscriptionID)
	if subscription != "" {
		if cred, err := newCredential(cfg); err == nil {
			if res, err := newResource(cred, subscription); err == nil {
				if live, err := res.ListRegions(cmd.Context()); err == nil && len(live) > 0 {
					regions = live
				} else if err != nil {
					output.Warning("could not list regions from the subscription, showing the built-in list")
				}
			}
		}
	}

	rows := make([][]string, 0, len(regions))
	for _, region := range regions {
		rows = append(rows, []string{region.Code, region.DisplayName})
	}
	output.Table([]string{"Code", "Region"}, rows)
	return nil
}

// fallbackRegions is the built-in region table used when no subscription is
// configured or enumeration fails.
func fallbackRegions() []gateway.Region {
	names := []string{
		"East US", "East US 2", "West US", "West US 2", "West US 3",
		"Central US", "North Central US", "South Central US", "West Central US",
		"Canada Central", "Canada East",
		"Brazil South",
		"North Europe", "West Europe", "UK South", "UK West",
		"France Central", "Germany West Central", "Switzerland North",
		"Norway East", "Sweden Central",
		"Australia East", "Australia Southeast", "Australia Central",
		"Japan East", "Japan West", "Korea Central", "Korea South",
		"Southeast Asia", "East Asia",
		"Central India", "South India", "West India",
		"UAE North", "South Africa North",
	}

	regions := make([]gateway.Region, 0, len(names))
	for _, name := range names {
		code := strings.ToLower(strings.ReplaceAll(name, " ", ""))
		regions = append(regions, gateway.Region{Code: code, DisplayName: name})
	}
	return regions
}

func init() {
	rootCmd.AddCommand(regionsCmd)
	regionsCmd.Flags().StringVar(&regionsSubscription, "subscription", "", "Subscription to enumerate regions from")
}
