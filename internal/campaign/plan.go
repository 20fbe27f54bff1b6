package campaign

import (
	"context"
	"fmt"

	"github.com/entourage/entourage/internal/constants"
	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway"
	"github.com/entourage/entourage/internal/naming"

	"github.com/google/uuid"
)

// PlannedAccount is one account derived deterministically from the
// descriptor. Planned accounts exist only for the lifetime of a run.
type PlannedAccount struct {
	Index         int
	UserName      string
	PrincipalName string
	DisplayName   string
}

// ContainerName returns the resource container name for this account.
func (a PlannedAccount) ContainerName() string {
	return naming.ContainerName(a.UserName)
}

// RegionPicker selects a region from the enumerated choices, typically by
// asking the operator.
type RegionPicker func(regions []gateway.Region) (string, error)

// RunOptions control the safety behavior of a run.
type RunOptions struct {
	// DryRun renders the plan without performing any mutating call.
	DryRun bool
	// Force skips the confirmation gate.
	Force bool
}

// Plan is the full list of items a provisioning run would create. The same
// plan drives the live path, the dry-run preview, and the confirmation gate,
// so a dry run is a trustworthy preview of the real run.
type Plan struct {
	RunID            string
	Campaign         string
	Domain           string
	GroupName        string
	CreateContainers bool
	Region           string
	Accounts         []PlannedAccount
	// Notes carries warnings raised during planning (e.g. region fallback).
	Notes []string
}

// ContainerNames returns the container names the plan would create, in
// account order. Empty when the plan does not create containers.
func (p *Plan) ContainerNames() []string {
	if !p.CreateContainers {
		return nil
	}
	names := make([]string, 0, len(p.Accounts))
	for _, a := range p.Accounts {
		names = append(names, a.ContainerName())
	}
	return names
}

// BuildPlan resolves the descriptor into the concrete item list. Only
// read-only gateway calls are made (domain lookup, region enumeration); a
// failure to resolve the domain is fatal to the whole run.
func BuildPlan(ctx context.Context, dir gateway.Directory, res gateway.Resource, desc Descriptor, pick RegionPicker) (*Plan, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{
		RunID:            uuid.NewString(),
		Campaign:         desc.Name,
		GroupName:        naming.GroupName(desc.Name),
		CreateContainers: desc.CreateContainers,
	}

	domain := desc.Domain
	if domain == "" {
		resolved, err := dir.ResolveDefaultDomain(ctx)
		if err != nil {
			return nil, apperr.ErrFatalPrecondition("no sign-in domain given and the tenant default could not be resolved", err)
		}
		domain = resolved
	}
	plan.Domain = domain

	if desc.CreateContainers {
		region, note, err := resolveRegion(ctx, res, desc, pick)
		if err != nil {
			return nil, err
		}
		plan.Region = region
		if note != "" {
			plan.Notes = append(plan.Notes, note)
		}
	}

	for i := 1; i <= desc.UserCount; i++ {
		userName := naming.AccountName(desc.Name, i)
		plan.Accounts = append(plan.Accounts, PlannedAccount{
			Index:         i,
			UserName:      userName,
			PrincipalName: naming.PrincipalName(userName, domain),
			DisplayName:   naming.DisplayName(desc.Name, i),
		})
	}

	return plan, nil
}

// resolveRegion applies the region policy: an explicit region wins; otherwise
// the operator picks from the enumerated list; if enumeration fails the run
// falls back to the fixed default with a warning instead of aborting.
func resolveRegion(ctx context.Context, res gateway.Resource, desc Descriptor, pick RegionPicker) (region, note string, err error) {
	if desc.Region != "" {
		return desc.Region, "", nil
	}

	regions, listErr := res.ListRegions(ctx)
	if listErr != nil || len(regions) == 0 {
		return constants.DefaultRegion,
			fmt.Sprintf("region list unavailable, using default region %s", constants.DefaultRegion),
			nil
	}

	if pick == nil {
		return "", "", apperr.ErrFatalPrecondition("no region given and no region picker available", nil)
	}
	region, err = pick(regions)
	if err != nil {
		return "", "", fmt.Errorf("selecting region: %w", err)
	}
	return region, "", nil
}

// Candidates is the set of existing resources discovered for removal. It
// doubles as the removal plan shown at the confirmation gate.
type Candidates struct {
	Campaign   string
	Accounts   []gateway.Principal
	Group      *gateway.Group
	Containers []gateway.Container
	// Notes carries enumeration warnings (a kind whose listing failed
	// yields an empty candidate set, not an aborted run).
	Notes []string
}

// Empty reports whether discovery found nothing to remove.
func (c *Candidates) Empty() bool {
	return len(c.Accounts) == 0 && c.Group == nil && len(c.Containers) == 0
}
