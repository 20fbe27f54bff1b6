package campaign

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/entourage/entourage/internal/constants"
	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway"
)

// ProvisionedAccount is a planned account that was actually created, carrying
// the directory's opaque identifier and the container name when one was
// provisioned. Held only for the lifetime of the run; there is no durable
// registry.
type ProvisionedAccount struct {
	PlannedAccount
	DirectoryID   string
	ContainerName string
}

// ProvisionResult is everything a provisioning run produced.
type ProvisionResult struct {
	Plan     *Plan
	Report   Report
	Accounts []ProvisionedAccount
	Group    *gateway.Group
	// GroupAdopted is true when an existing group was reused instead of
	// created.
	GroupAdopted bool
	// Password is the password applied to every created account, surfaced
	// exactly once here. Never logged.
	Password string
	// DryRun is true when no mutating call was made.
	DryRun bool
}

// Provisioner drives creation of a campaign's accounts, group, and optional
// containers against the gateways.
type Provisioner struct {
	dir    gateway.Directory
	res    gateway.Resource
	pacer  Pacer
	logger *slog.Logger

	// Confirm is the confirmation gate. When set and the run is not
	// forced, it is shown the full plan before any mutation; declining
	// aborts with ErrCancelled.
	Confirm func(*Plan) bool
	// SelectRegion picks a container region when the descriptor names none.
	SelectRegion RegionPicker
}

// NewProvisioner creates a provisioner. The resource gateway may be nil when
// no descriptor passed to Provision requests containers.
func NewProvisioner(dir gateway.Directory, res gateway.Resource, pacer Pacer, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		dir:    dir,
		res:    res,
		pacer:  pacer,
		logger: logger,
	}
}

// Provision creates the campaign described by desc.
//
// Fatal preconditions (invalid descriptor, unresolvable domain) abort before
// any mutation. Everything after that is per-item: an item's failure is
// recorded in the report and the loop moves on, so a re-run against a
// partially provisioned tenant makes progress instead of failing whole. An
// account that already exists is reported as a distinct error kind, not
// silently adopted: its password state cannot be safely reconciled.
func (p *Provisioner) Provision(ctx context.Context, desc Descriptor, opts RunOptions) (*ProvisionResult, error) {
	plan, err := BuildPlan(ctx, p.dir, p.res, desc, p.SelectRegion)
	if err != nil {
		return nil, err
	}

	result := &ProvisionResult{Plan: plan, DryRun: opts.DryRun}
	result.Report.Notes = append(result.Report.Notes, plan.Notes...)

	if opts.DryRun {
		return result, nil
	}

	password := desc.Password
	if password == "" {
		password, err = GeneratePassword(constants.GeneratedPasswordLength)
		if err != nil {
			return nil, apperr.ErrFatalPrecondition("could not generate a password", err)
		}
	}
	result.Password = password

	if !opts.Force && p.Confirm != nil && !p.Confirm(plan) {
		return nil, apperr.ErrCancelled
	}

	result.Group, result.GroupAdopted = p.ensureGroup(ctx, plan, &result.Report)

	result.Report.Attempted = len(plan.Accounts)
	for _, account := range plan.Accounts {
		if err := p.pacer.Wait(ctx); err != nil {
			return result, fmt.Errorf("provisioning interrupted: %w", err)
		}

		provisioned, err := p.provisionAccount(ctx, plan, account, password, desc.ForcePasswordChange, result.Group, &result.Report)
		if err != nil {
			result.Report.RecordError(account.UserName, err)
			continue
		}
		result.Report.Succeeded++
		result.Accounts = append(result.Accounts, *provisioned)
	}

	p.logger.Info("provisioning finished",
		"campaign", plan.Campaign,
		"attempted", result.Report.Attempted,
		"succeeded", result.Report.Succeeded,
		"failed", result.Report.Failed(),
	)

	return result, nil
}

// ensureGroup adopts an existing group by exact display name or creates a new
// one. Group failure is an item error, never fatal: accounts can exist
// without a group.
func (p *Provisioner) ensureGroup(ctx context.Context, plan *Plan, report *Report) (group *gateway.Group, adopted bool) {
	existing, err := p.dir.FindGroupByName(ctx, plan.GroupName)
	if err != nil {
		report.RecordError(plan.GroupName, err)
		return nil, false
	}
	if existing != nil {
		p.logger.Debug("adopting existing group", "group", plan.GroupName, "id", existing.ID)
		return existing, true
	}

	description := fmt.Sprintf("Temporary accounts for %s", plan.Campaign)
	created, err := p.dir.CreateGroup(ctx, plan.GroupName, description)
	if err != nil {
		report.RecordError(plan.GroupName, err)
		return nil, false
	}
	p.logger.Debug("created group", "group", plan.GroupName, "id", created.ID)
	return created, false
}

// provisionAccount runs the per-item sequence: create principal, add to the
// group, create the container. Membership and container failures are
// recorded but do not fail the account; a principal-creation failure skips
// the rest of the sequence for this item.
func (p *Provisioner) provisionAccount(
	ctx context.Context,
	plan *Plan,
	account PlannedAccount,
	password string,
	forceChange bool,
	group *gateway.Group,
	report *Report,
) (*ProvisionedAccount, error) {
	principal, err := p.dir.CreatePrincipal(ctx, gateway.CreatePrincipalInput{
		PrincipalName:       account.PrincipalName,
		DisplayName:         account.DisplayName,
		Password:            password,
		ForcePasswordChange: forceChange,
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug("created principal", "account", account.UserName, "id", principal.ID)

	if group != nil {
		if err := p.dir.AddMember(ctx, group.ID, principal.ID); err != nil {
			report.RecordError(fmt.Sprintf("%s membership", account.UserName), err)
		}
	}

	provisioned := &ProvisionedAccount{PlannedAccount: account, DirectoryID: principal.ID}
	if plan.CreateContainers {
		if name, err := p.provisionContainer(ctx, plan, account, principal.ID); err != nil {
			report.RecordError(account.ContainerName(), err)
		} else {
			provisioned.ContainerName = name
		}
	}

	return provisioned, nil
}

// provisionContainer creates (or adopts, by name) the account's container and
// grants the account its access role. A failed grant is logged but does not
// fail the container.
func (p *Provisioner) provisionContainer(ctx context.Context, plan *Plan, account PlannedAccount, principalID string) (string, error) {
	name := account.ContainerName()

	existing, err := p.res.FindContainer(ctx, name)
	if err != nil {
		return "", err
	}
	if existing == nil {
		if _, err := p.res.CreateContainer(ctx, name, plan.Region); err != nil {
			return "", err
		}
		p.logger.Debug("created container", "container", name, "region", plan.Region)
	} else {
		p.logger.Debug("adopting existing container", "container", name)
	}

	if err := p.res.AssignAccessRole(ctx, principalID, name, constants.ContainerRoleName); err != nil {
		p.logger.Warn("could not assign access role",
			"container", name,
			"role", constants.ContainerRoleName,
			"error", err,
		)
	}

	return name, nil
}
