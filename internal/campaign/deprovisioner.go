package campaign

import (
	"context"
	"fmt"
	"log/slog"

	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway"
)

// RemovalResult aggregates one report per resource kind. Container deletion
// is asynchronous at the service boundary: its report counts acceptances,
// not confirmed deletions.
type RemovalResult struct {
	Candidates *Candidates
	Accounts   Report
	Groups     Report
	Containers Report
	DryRun     bool
}

// AllSucceeded reports whether every attempted deletion succeeded.
func (r *RemovalResult) AllSucceeded() bool {
	return r.Accounts.AllSucceeded() && r.Groups.AllSucceeded() && r.Containers.AllSucceeded()
}

// Deprovisioner deletes a campaign's discovered resources.
type Deprovisioner struct {
	dir    gateway.Directory
	res    gateway.Resource
	pacer  Pacer
	logger *slog.Logger

	// Confirm is the confirmation gate. When set and the run is not
	// forced, it is shown the candidate set before any deletion; declining
	// aborts with ErrCancelled.
	Confirm func(*Candidates) bool
}

// NewDeprovisioner creates a deprovisioner. The resource gateway may be nil
// when container removal is never requested.
func NewDeprovisioner(dir gateway.Directory, res gateway.Resource, pacer Pacer, logger *slog.Logger) *Deprovisioner {
	return &Deprovisioner{dir: dir, res: res, pacer: pacer, logger: logger}
}

// Deprovision deletes every candidate, accounts first, then the group, then
// containers. Ordering is not needed for correctness (items are independent
// at delete time); removing the group after its members just avoids a window
// where it is observable with dangling memberships. A failed deletion is
// recorded and the loop proceeds; re-running is safe because rediscovery
// only finds what still exists.
func (d *Deprovisioner) Deprovision(ctx context.Context, candidates *Candidates, opts RemovalOptions, run RunOptions) (*RemovalResult, error) {
	result := &RemovalResult{Candidates: candidates, DryRun: run.DryRun}
	result.Accounts.Notes = append(result.Accounts.Notes, candidates.Notes...)

	if run.DryRun {
		return result, nil
	}

	if !run.Force && d.Confirm != nil && !d.Confirm(candidates) {
		return nil, apperr.ErrCancelled
	}

	result.Accounts.Attempted = len(candidates.Accounts)
	for _, principal := range candidates.Accounts {
		if err := d.pacer.Wait(ctx); err != nil {
			return result, fmt.Errorf("removal interrupted: %w", err)
		}
		d.logger.Debug("deleting principal", "account", principal.PrincipalName, "id", principal.ID)
		if err := d.dir.DeletePrincipal(ctx, principal.ID); err != nil {
			result.Accounts.RecordError(principal.PrincipalName, err)
			continue
		}
		result.Accounts.Succeeded++
	}

	if opts.RemoveGroups && candidates.Group != nil {
		result.Groups.Attempted = 1
		if err := d.pacer.Wait(ctx); err != nil {
			return result, fmt.Errorf("removal interrupted: %w", err)
		}
		d.logger.Debug("deleting group", "group", candidates.Group.DisplayName, "id", candidates.Group.ID)
		if err := d.dir.DeleteGroup(ctx, candidates.Group.ID); err != nil {
			result.Groups.RecordError(candidates.Group.DisplayName, err)
		} else {
			result.Groups.Succeeded++
		}
	}

	if opts.RemoveContainers && len(candidates.Containers) > 0 {
		result.Containers.Attempted = len(candidates.Containers)
		for _, container := range candidates.Containers {
			if err := d.pacer.Wait(ctx); err != nil {
				return result, fmt.Errorf("removal interrupted: %w", err)
			}
			d.logger.Debug("requesting container deletion", "container", container.Name)
			if err := d.res.DeleteContainer(ctx, container.Name); err != nil {
				result.Containers.RecordError(container.Name, err)
				continue
			}
			result.Containers.Succeeded++
		}
		// The service tears containers down in the background; callers
		// must treat this as eventually consistent.
		result.Containers.Note("container deletions are accepted asynchronously and may still be in progress")
	}

	d.logger.Info("removal finished",
		"campaign", candidates.Campaign,
		"accounts_deleted", result.Accounts.Succeeded,
		"groups_deleted", result.Groups.Succeeded,
		"containers_accepted", result.Containers.Succeeded,
	)

	return result, nil
}
