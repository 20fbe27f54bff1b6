package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/entourage/entourage/internal/campaign"
	"github.com/entourage/entourage/internal/gateway"
	"github.com/entourage/entourage/internal/output"
)

// maxListedItems caps how many planned items are printed before eliding the
// rest; a 1000-account plan should not scroll the confirmation prompt away.
const maxListedItems = 15

// confirmPlan is the provisioning confirmation gate.
func confirmPlan(plan *campaign.Plan) bool {
	renderPlan(plan)
	output.Blank()
	return output.Confirm(fmt.Sprintf("Create these %d accounts?", len(plan.Accounts)))
}

// confirmRemoval is the removal confirmation gate.
func confirmRemoval(candidates *campaign.Candidates) bool {
	renderCandidates(candidates)
	output.Blank()
	return output.Confirm(fmt.Sprintf("Permanently delete these resources for campaign %s?", candidates.Campaign))
}

func renderPlan(plan *campaign.Plan) {
	output.Header(fmt.Sprintf("Campaign %s", plan.Campaign))
	output.KeyValue("Domain", plan.Domain)
	output.KeyValue("Group", plan.GroupName)
	output.KeyValue("Accounts", strconv.Itoa(len(plan.Accounts)))
	if plan.CreateContainers {
		output.KeyValue("Region", plan.Region)
		output.KeyValue("Resource groups", strconv.Itoa(len(plan.Accounts)))
	}

	for _, note := range plan.Notes {
		output.Warning("%s", note)
	}

	items := make([]string, 0, len(plan.Accounts))
	for _, account := range plan.Accounts {
		item := account.PrincipalName
		if plan.CreateContainers {
			item += "  " + output.Gray(account.ContainerName())
		}
		items = append(items, item)
	}
	listCapped(items)
}

func renderCandidates(candidates *campaign.Candidates) {
	output.Header(fmt.Sprintf("Campaign %s", candidates.Campaign))

	for _, note := range candidates.Notes {
		output.Warning("%s", note)
	}

	output.KeyValue("Accounts", strconv.Itoa(len(candidates.Accounts)))
	items := make([]string, 0, len(candidates.Accounts))
	for _, principal := range candidates.Accounts {
		items = append(items, principal.PrincipalName)
	}
	listCapped(items)

	if candidates.Group != nil {
		output.KeyValue("Group", candidates.Group.DisplayName)
	}
	if len(candidates.Containers) > 0 {
		output.KeyValue("Resource groups", strconv.Itoa(len(candidates.Containers)))
		items = items[:0]
		for _, container := range candidates.Containers {
			items = append(items, container.Name)
		}
		listCapped(items)
	}
}

func renderProvisionResult(result *campaign.ProvisionResult) {
	if result.DryRun {
		output.Info("dry run, nothing was created")
		renderPlan(result.Plan)
		return
	}

	output.Blank()
	if result.Group != nil {
		if result.GroupAdopted {
			output.Info("adopted existing group %s", result.Group.DisplayName)
		} else {
			output.Success("created group %s", result.Group.DisplayName)
		}
	}

	renderReport("accounts", result.Report)

	if result.Report.Succeeded > 0 {
		output.Blank()
		output.KeyValueBold("Password", result.Password)
		output.Warning("this password is shown once and not stored anywhere")
	}
}

func renderRemovalResult(result *campaign.RemovalResult) {
	if result.DryRun {
		output.Info("dry run, nothing was removed")
		renderCandidates(result.Candidates)
		return
	}

	output.Blank()
	renderReport("accounts", result.Accounts)
	if result.Groups.Attempted > 0 {
		renderReport("groups", result.Groups)
	}
	if result.Containers.Attempted > 0 {
		renderReport("resource groups", result.Containers)
	}
}

// renderReport prints one batch report: counts, per-item errors, notes.
func renderReport(kind string, report campaign.Report) {
	if report.AllSucceeded() {
		output.Success("%s: %d/%d succeeded", kind, report.Succeeded, report.Attempted)
	} else {
		output.Warning("%s: %d/%d succeeded, %d failed", kind, report.Succeeded, report.Attempted, report.Failed())
	}

	if len(report.Errors) > 0 {
		rows := make([][]string, 0, len(report.Errors))
		for _, itemErr := range report.Errors {
			rows = append(rows, []string{itemErr.Item, string(itemErr.Kind), itemErr.Message})
		}
		output.Table([]string{"Item", "Kind", "Error"}, rows)
	}

	for _, note := range report.Notes {
		output.Warning("%s", note)
	}
}

func listCapped(items []string) {
	if len(items) > maxListedItems {
		shown := append([]string(nil), items[:maxListedItems]...)
		shown = append(shown, output.Gray(fmt.Sprintf("… and %d more", len(items)-maxListedItems)))
		output.List(shown)
		return
	}
	output.List(items)
}

// promptRegion asks the operator to pick a region from the enumerated list.
// Accepts either a list number or a region code.
func promptRegion(regions []gateway.Region) (string, error) {
	output.Info("select a region for the resource groups:")
	for i, region := range regions {
		output.Printf("  %2d. %s (%s)\n", i+1, region.DisplayName, region.Code)
	}

	answer := output.PromptRequired("Region number or code")
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(regions) {
			return "", fmt.Errorf("region number %d is out of range", n)
		}
		return regions[n-1].Code, nil
	}
	for _, region := range regions {
		if strings.EqualFold(region.Code, answer) {
			return region.Code, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", answer)
}

// writeCredentials writes one CSV row per created account. The file contains
// live passwords; it gets owner-only permissions.
func writeCredentials(path string, result *campaign.ProvisionResult) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not create credentials file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"username", "principal_name", "password"}); err != nil {
		return fmt.Errorf("could not write credentials file: %w", err)
	}
	for _, account := range result.Accounts {
		if err := w.Write([]string{account.UserName, account.PrincipalName, result.Password}); err != nil {
			return fmt.Errorf("could not write credentials file: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("could not write credentials file: %w", err)
	}

	output.Success("credentials written to %s", path)
	return nil
}
